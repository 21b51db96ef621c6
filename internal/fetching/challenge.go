package fetching

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// challengeSignatures are interstitial phrases that mark a page as an
// anti-automation challenge rather than real content.
var challengeSignatures = []string{
	"checking your browser",
	"verify you are human",
	"verifying you are human",
	"just a moment",
	"enable javascript and cookies",
	"attention required",
	"ddos protection by",
	"please complete the security check",
	"cf-challenge",
	"turnstile",
	"hcaptcha",
	"recaptcha",
	"press and hold",
	"one more step",
}

// interaction selectors tried against a detected challenge, generic checkbox
// and submit controls first.
var challengeSelectors = []string{
	"input[type='checkbox']",
	"#challenge-stage input",
	"button[type='submit']",
	"input[type='submit']",
}

// ChallengeMitigator detects challenge pages and attempts a small number of
// generic interactions. It never fails on its own: if mitigation does not
// succeed the original content is returned and downstream validation flags
// the result as low quality.
type ChallengeMitigator struct {
	grace  time.Duration
	logger *logrus.Logger
}

func NewChallengeMitigator(grace time.Duration, logger *logrus.Logger) *ChallengeMitigator {
	if logger == nil {
		logger = logrus.New()
	}
	if grace <= 0 {
		grace = 5 * time.Second
	}
	return &ChallengeMitigator{grace: grace, logger: logger}
}

// IsChallenge reports whether the markup looks like an interstitial
// verification page.
func (m *ChallengeMitigator) IsChallenge(markup string) bool {
	lower := strings.ToLower(markup)
	for _, sig := range challengeSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}

// Mitigate returns the best content obtainable for the page. When no live
// page is available (minimal fetches) detection still runs but only for
// logging; the content passes through unchanged.
func (m *ChallengeMitigator) Mitigate(ctx context.Context, page Interactor, markup string) string {
	if !m.IsChallenge(markup) {
		return markup
	}
	m.logger.Info("challenge page detected")

	if page == nil {
		return markup
	}

	select {
	case <-time.After(m.grace):
	case <-ctx.Done():
		return markup
	}

	for _, selector := range challengeSelectors {
		if ctx.Err() != nil {
			return markup
		}
		if err := page.Click(ctx, selector); err != nil {
			m.logger.WithError(err).Debugf("challenge interaction failed: %s", selector)
			continue
		}
		time.Sleep(1500 * time.Millisecond)

		current, err := page.Content(ctx)
		if err != nil {
			m.logger.WithError(err).Debug("re-reading page after interaction failed")
			continue
		}
		if !m.IsChallenge(current) {
			m.logger.Info("challenge cleared after interaction")
			return current
		}
		markup = current
	}

	m.logger.Warn("challenge not cleared, proceeding with present content")
	return markup
}
