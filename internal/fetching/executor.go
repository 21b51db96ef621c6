package fetching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/veridianlabs/trustlens/pkg/models"
	"github.com/veridianlabs/trustlens/pkg/utils"
)

// FetchResult is raw markup plus the strategy that produced it.
type FetchResult struct {
	URL       string
	Markup    string
	Method    models.ExtractionMethod
	FetchedAt time.Time
}

// Executor drives the strategy chain. Within one outer attempt the
// strategies run in strict order (primary, fallback, minimal); only when all
// of them fail does the outer retry loop consult the error classifier for
// whether and when to try again.
type Executor struct {
	strategies     []Strategy
	pool           *SessionPool
	mitigator      *ChallengeMitigator
	maxRetries     int
	baseDelay      time.Duration
	minContentSize int
	metrics        *utils.MetricsCollector
	logger         *logrus.Logger
}

func NewExecutor(cfg models.FetchingConfig, pool *SessionPool, metrics *utils.MetricsCollector, logger *logrus.Logger) *Executor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Executor{
		strategies: []Strategy{
			primaryStrategy{},
			fallbackStrategy{},
			NewHTTPFetcher(cfg.HTTPTimeout, cfg.MinContentSize),
		},
		pool:           pool,
		mitigator:      NewChallengeMitigator(cfg.ChallengeGrace, logger),
		maxRetries:     maxInt(1, cfg.MaxRetries),
		baseDelay:      cfg.BaseRetryDelay,
		minContentSize: cfg.MinContentSize,
		metrics:        metrics,
		logger:         logger,
	}
}

// NewExecutorWithStrategies builds an executor over a caller-supplied chain.
func NewExecutorWithStrategies(strategies []Strategy, pool *SessionPool, mitigator *ChallengeMitigator, maxRetries int, baseDelay time.Duration, minContentSize int, logger *logrus.Logger) *Executor {
	if logger == nil {
		logger = logrus.New()
	}
	if mitigator == nil {
		mitigator = NewChallengeMitigator(0, logger)
	}
	return &Executor{
		strategies:     strategies,
		pool:           pool,
		mitigator:      mitigator,
		maxRetries:     maxInt(1, maxRetries),
		baseDelay:      baseDelay,
		minContentSize: minContentSize,
		logger:         logger,
	}
}

// Fetch retrieves the page, retrying per the classifier's policy. The URL is
// validated before any network access.
func (e *Executor) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	if !utils.IsHTTPURL(url) {
		return nil, NewClassifiedError(KindInvalidURL, fmt.Errorf("not an absolute http/https url: %s", url))
	}

	var lastErr *ClassifiedError
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		result, cerr := e.attempt(ctx, url)
		if cerr == nil {
			return result, nil
		}
		lastErr = cerr
		if e.metrics != nil {
			e.metrics.FetchFailures.WithLabelValues(string(cerr.Kind)).Inc()
		}
		e.logger.WithField("kind", cerr.Kind).Warnf("fetch attempt %d/%d failed for %s: %v",
			attempt, e.maxRetries, url, cerr.Err)

		if !ShouldRetry(cerr.Kind, attempt, e.maxRetries) {
			break
		}
		delay := RetryDelay(cerr.Kind, attempt, e.baseDelay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, NewClassifiedError(KindTimeout, ctx.Err())
		}
	}
	return nil, lastErr
}

// attempt runs the full strategy chain once. One browser session is acquired
// per attempt and released on every exit path.
func (e *Executor) attempt(ctx context.Context, url string) (*FetchResult, *ClassifiedError) {
	var sess *Session
	if e.pool != nil {
		s, err := e.pool.Acquire(ctx)
		switch {
		case err == nil:
			sess = s
			defer e.pool.Release(s)
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return nil, NewClassifiedError(KindTimeout, err)
		default:
			// Browser unavailable: the minimal strategy can still serve.
			e.logger.WithError(err).Warn("browser session unavailable, relying on plain fetch")
		}
	}

	var lastErr *ClassifiedError
	for _, strat := range e.strategies {
		if err := ctx.Err(); err != nil {
			return nil, NewClassifiedError(KindTimeout, err)
		}
		if e.metrics != nil {
			e.metrics.FetchAttempts.WithLabelValues(strat.Name()).Inc()
		}

		markup, page, err := strat.Fetch(ctx, url, sess)
		if err != nil {
			lastErr = Classify(err)
			e.logger.WithField("strategy", strat.Name()).Debugf("strategy failed: %v", err)
			continue
		}

		markup = e.mitigator.Mitigate(ctx, page, markup)
		if len(markup) < e.minContentSize {
			lastErr = NewClassifiedError(KindContentSmall,
				fmt.Errorf("strategy %s returned %d bytes", strat.Name(), len(markup)))
			continue
		}

		return &FetchResult{
			URL:       url,
			Markup:    markup,
			Method:    strat.Method(),
			FetchedAt: time.Now(),
		}, nil
	}

	if lastErr == nil {
		lastErr = NewClassifiedError(KindUnknown, fmt.Errorf("no fetch strategies configured"))
	}
	return nil, lastErr
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
