package fetching

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

type ErrorKind string

const (
	KindNetwork       ErrorKind = "NETWORK_ERROR"
	KindTimeout       ErrorKind = "TIMEOUT_ERROR"
	KindAccessDenied  ErrorKind = "ACCESS_DENIED"
	KindInvalidURL    ErrorKind = "INVALID_URL"
	KindContentSmall  ErrorKind = "CONTENT_TOO_SMALL"
	KindAntiBot       ErrorKind = "ANTI_BOT_BLOCKED"
	KindJSRequired    ErrorKind = "JAVASCRIPT_REQUIRED"
	KindRateLimited   ErrorKind = "RATE_LIMITED"
	KindBrowser       ErrorKind = "BROWSER_ERROR"
	KindParsing       ErrorKind = "PARSING_ERROR"
	KindUnknown       ErrorKind = "UNKNOWN_ERROR"
)

type classification struct {
	Retryable   bool
	UserMessage string
	Actions     []string
}

// classifications is the closed taxonomy. The mapping is a static table;
// per-call logic only selects an entry.
var classifications = map[ErrorKind]classification{
	KindNetwork: {
		Retryable:   true,
		UserMessage: "The site could not be reached over the network.",
		Actions:     []string{"Check that the URL is correct", "Try again in a few minutes"},
	},
	KindTimeout: {
		Retryable:   true,
		UserMessage: "The site took too long to respond.",
		Actions:     []string{"Try again later", "The site may be under heavy load"},
	},
	KindAccessDenied: {
		Retryable:   false,
		UserMessage: "The site refused access to its content.",
		Actions:     []string{"The site may block automated analysis", "Submit a different page of the project"},
	},
	KindInvalidURL: {
		Retryable:   false,
		UserMessage: "The URL is not a valid http or https address.",
		Actions:     []string{"Provide an absolute URL starting with http:// or https://"},
	},
	KindContentSmall: {
		Retryable:   false,
		UserMessage: "The page returned too little content to analyze.",
		Actions:     []string{"Verify the URL points at the project's main site", "Submit a page with visible content"},
	},
	KindAntiBot: {
		Retryable:   true,
		UserMessage: "The site is protected by an anti-automation challenge.",
		Actions:     []string{"Try again later", "Challenge pages sometimes clear after a delay"},
	},
	KindJSRequired: {
		Retryable:   true,
		UserMessage: "The page requires JavaScript rendering to show content.",
		Actions:     []string{"Try again; browser rendering will be used"},
	},
	KindRateLimited: {
		Retryable:   true,
		UserMessage: "The site is rate limiting requests.",
		Actions:     []string{"Wait a few minutes before retrying"},
	},
	KindBrowser: {
		Retryable:   true,
		UserMessage: "The browser engine failed while rendering the page.",
		Actions:     []string{"Try again", "A plain fetch will be attempted as a fallback"},
	},
	KindParsing: {
		Retryable:   false,
		UserMessage: "The page content could not be parsed.",
		Actions:     []string{"The page may serve a non-HTML payload"},
	},
	KindUnknown: {
		Retryable:   true,
		UserMessage: "An unexpected error occurred while retrieving the page.",
		Actions:     []string{"Try again later"},
	},
}

// ClassifiedError carries the taxonomy entry together with the cause.
type ClassifiedError struct {
	Kind        ErrorKind
	UserMessage string
	Actions     []string
	Err         error
}

func (e *ClassifiedError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

func (e *ClassifiedError) Retryable() bool {
	return classifications[e.Kind].Retryable
}

// NewClassifiedError builds an error of a known kind with the table-driven
// user message and actions attached.
func NewClassifiedError(kind ErrorKind, cause error) *ClassifiedError {
	c, ok := classifications[kind]
	if !ok {
		c = classifications[KindUnknown]
		kind = KindUnknown
	}
	return &ClassifiedError{Kind: kind, UserMessage: c.UserMessage, Actions: c.Actions, Err: cause}
}

// Classify maps an arbitrary failure onto the closed taxonomy. Already
// classified errors pass through unchanged.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewClassifiedError(KindTimeout, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return NewClassifiedError(KindTimeout, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") || strings.Contains(msg, "deadline"):
		return NewClassifiedError(KindTimeout, err)
	case strings.Contains(msg, "403") || strings.Contains(msg, "forbidden") || strings.Contains(msg, "access denied"):
		return NewClassifiedError(KindAccessDenied, err)
	case strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") || strings.Contains(msg, "rate limit"):
		return NewClassifiedError(KindRateLimited, err)
	case strings.Contains(msg, "cloudflare") || strings.Contains(msg, "captcha") || strings.Contains(msg, "challenge"):
		return NewClassifiedError(KindAntiBot, err)
	case strings.Contains(msg, "browser") || strings.Contains(msg, "playwright") || strings.Contains(msg, "chromium"):
		return NewClassifiedError(KindBrowser, err)
	case strings.Contains(msg, "no such host") || strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") || strings.Contains(msg, "network"):
		return NewClassifiedError(KindNetwork, err)
	case strings.Contains(msg, "invalid url") || strings.Contains(msg, "unsupported protocol"):
		return NewClassifiedError(KindInvalidURL, err)
	}
	return NewClassifiedError(KindUnknown, err)
}

// terminal kinds never retry, not even on the first attempt.
func isTerminal(kind ErrorKind) bool {
	switch kind {
	case KindAccessDenied, KindInvalidURL, KindContentSmall, KindParsing:
		return true
	}
	return false
}

// ShouldRetry decides whether another outer fetch attempt is warranted.
// Rate-limited and anti-bot failures are capped at a single retry regardless
// of the configured maximum.
func ShouldRetry(kind ErrorKind, attempt, maxAttempts int) bool {
	if attempt >= maxAttempts {
		return false
	}
	if isTerminal(kind) {
		return false
	}
	if !classifications[kind].Retryable {
		return false
	}
	if kind == KindRateLimited || kind == KindAntiBot {
		return attempt < 2
	}
	return true
}

// RetryDelay computes the wait before the next outer attempt. Rate-limited
// and anti-bot kinds back off harder; everything else backs off linearly in
// the attempt number.
func RetryDelay(kind ErrorKind, attempt int, base time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	switch kind {
	case KindRateLimited:
		return base * 5 * time.Duration(attempt)
	case KindAntiBot:
		return base * 3 * time.Duration(attempt)
	default:
		return base * time.Duration(attempt)
	}
}

// UserFacing returns the message and suggested actions for a terminal
// failure, falling back to the unknown entry for unclassified errors.
func UserFacing(err error) (string, []string) {
	ce := Classify(err)
	if ce == nil {
		return "", nil
	}
	return ce.UserMessage, ce.Actions
}
