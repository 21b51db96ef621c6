package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/veridianlabs/trustlens/internal/ai"
	"github.com/veridianlabs/trustlens/internal/extraction"
	"github.com/veridianlabs/trustlens/internal/fetching"
	"github.com/veridianlabs/trustlens/internal/reporting"
	"github.com/veridianlabs/trustlens/internal/scoring"
	"github.com/veridianlabs/trustlens/internal/storage"
	"github.com/veridianlabs/trustlens/internal/validation"
	"github.com/veridianlabs/trustlens/internal/verification"
	"github.com/veridianlabs/trustlens/pkg/models"
	"github.com/veridianlabs/trustlens/pkg/utils"
)

// Fetcher is the retrieval surface the pipeline drives.
type Fetcher = extraction.Fetcher

// Verifier runs the external evidence checks.
type Verifier interface {
	Verify(ctx context.Context, content *models.ExtractedContent) *models.VerificationSummary
}

// ContentCache avoids re-fetching a target audited again inside the TTL.
type ContentCache interface {
	Get(url string) ([]byte, bool)
	Set(url string, value []byte)
}

// Auditor runs the full audit pipeline: fetch, parse, crawl, verify,
// validate, score, reconcile, report. Stages degrade gracefully; only the
// initial fetch of the target page is fatal.
type Auditor struct {
	cfg        *models.Config
	fetcher    Fetcher
	parser     *extraction.Parser
	crawler    *extraction.Crawler
	verifier   Verifier
	classifier ai.Classifier
	pattern    *scoring.PatternEngine
	reconciler *scoring.Reconciler
	calculator *scoring.Calculator
	advisor    *reporting.Advisor
	cache      ContentCache
	metrics    *utils.MetricsCollector
	logger     *logrus.Logger
}

// Options carries the injectable collaborators. Nil fields select the
// production implementation or disable the stage.
type Options struct {
	Fetcher    Fetcher
	Verifier   Verifier
	Classifier ai.Classifier
	Cache      ContentCache
	Metrics    *utils.MetricsCollector
	Logger     *logrus.Logger
}

func NewAuditor(cfg *models.Config, opts Options) *Auditor {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}

	parser := extraction.NewParser(logger)
	a := &Auditor{
		cfg:        cfg,
		fetcher:    opts.Fetcher,
		parser:     parser,
		verifier:   opts.Verifier,
		classifier: opts.Classifier,
		pattern:    scoring.NewPatternEngine(logger),
		reconciler: scoring.NewReconciler(logger),
		calculator: scoring.NewCalculator(),
		advisor:    reporting.NewAdvisor(),
		cache:      opts.Cache,
		metrics:    opts.Metrics,
		logger:     logger,
	}
	if a.fetcher != nil {
		a.crawler = extraction.NewCrawler(a.fetcher, parser, cfg.Crawl, opts.Metrics, logger)
	}
	return a
}

// NewProductionAuditor wires the real fetch chain, verifier, classifier, and
// cache from configuration. The returned closer shuts the browser pool down.
func NewProductionAuditor(cfg *models.Config, metrics *utils.MetricsCollector, logger *logrus.Logger) (*Auditor, func() error) {
	driver := fetching.NewBrowserDriver(cfg.Fetching.NavigateTimeout, cfg.Fetching.Headless, logger)
	pool := fetching.NewSessionPool(driver, cfg.Fetching.PoolSize, logger)
	executor := fetching.NewExecutor(cfg.Fetching, pool, metrics, logger)

	opts := Options{
		Fetcher: executor,
		Cache:   storage.NewContentCache(cfg.Storage.CacheSize, cfg.Storage.CacheTTL),
		Metrics: metrics,
		Logger:  logger,
	}
	if cfg.Verification.Enabled {
		opts.Verifier = verification.NewVerifier(cfg.Verification, metrics, logger)
	}
	if cfg.AI.Enabled {
		opts.Classifier = ai.NewHTTPClassifier(cfg.AI, logger)
	}

	return NewAuditor(cfg, opts), pool.Close
}

// SetCache installs a content cache after construction.
func (a *Auditor) SetCache(cache ContentCache) { a.cache = cache }

// Audit runs the pipeline against one target URL.
func (a *Auditor) Audit(ctx context.Context, targetURL string) (*models.AuditReport, error) {
	if !utils.IsHTTPURL(targetURL) {
		return nil, fetching.NewClassifiedError(fetching.KindInvalidURL,
			fmt.Errorf("not an absolute http/https url: %s", targetURL))
	}
	if _, ok := ctx.Deadline(); !ok && a.cfg.Global.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Global.Timeout)
		defer cancel()
	}

	started := time.Now()
	auditID := utils.GenerateAuditID(targetURL)
	log := a.logger.WithField("audit_id", auditID)
	log.Infof("starting audit of %s", targetURL)

	content, markup, err := a.retrieve(ctx, targetURL, log)
	if err != nil {
		return nil, err
	}

	report := &models.AuditReport{
		AuditID: auditID,
		URL:     targetURL,
	}

	// Deep crawl and external verification are independent of each other.
	var findings *models.DeepCrawlFindings
	var summary *models.VerificationSummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		findings = a.deepCrawl(gctx, markup, targetURL, log)
		return nil
	})
	g.Go(func() error {
		if a.verifier != nil {
			summary = a.verifier.Verify(gctx, content)
		}
		return nil
	})
	_ = g.Wait()

	if findings != nil {
		extraction.FoldInto(content, findings)
		report.Crawl = *findings
	}
	if summary != nil {
		summary.Summary = verification.SummaryText(summary)
		content.MainContent += "\n\n" + summary.Summary
		report.Verification = *summary
	}

	validationResult := validation.Validate(content)
	report.Validation = validationResult

	projectType := scoring.ClassifyProjectType(content)
	report.ProjectType = projectType

	patternFactors := a.pattern.Score(content)
	aiFactors := a.classify(ctx, content, log)
	report.AIAvailable = aiFactors != nil

	merged, issues, level := a.reconciler.Reconcile(aiFactors, patternFactors, content)
	report.ReconcileIssues = issues
	report.ReconcileLevel = level

	redFlags := scoring.DetectRedFlags(content, projectType)
	positives := scoring.DetectPositiveIndicators(content)

	result := a.calculator.Calculate(merged, redFlags, positives, validationResult.Score, content.ContentLength)
	report.Result = *result

	report.Risks = a.advisor.Risks(report)
	report.Recommendations = a.advisor.Recommendations(report)
	reporting.Stamp(report, started)

	if a.metrics != nil {
		a.metrics.ObserveAudit(string(result.RiskTier), report.Duration)
	}
	log.WithFields(logrus.Fields{
		"score":    result.Score,
		"tier":     result.RiskTier,
		"duration": report.Duration,
	}).Info("audit complete")
	return report, nil
}

// retrieve serves the target page from cache when fresh, fetching and
// parsing otherwise. The raw markup is returned alongside for link
// discovery; cache hits skip the crawl's re-parse by caching both.
func (a *Auditor) retrieve(ctx context.Context, targetURL string, log *logrus.Entry) (*models.ExtractedContent, string, error) {
	if a.cache != nil {
		if data, ok := a.cache.Get(targetURL); ok {
			var snapshot cachedPage
			if err := json.Unmarshal(data, &snapshot); err == nil {
				log.Debug("serving target page from cache")
				return snapshot.Content, snapshot.Markup, nil
			}
		}
	}

	result, err := a.fetcher.Fetch(ctx, targetURL)
	if err != nil {
		return nil, "", err
	}
	content, err := a.parser.Parse(result.Markup, targetURL, result.Method)
	if err != nil {
		return nil, "", err
	}

	if a.cache != nil {
		if data, err := json.Marshal(cachedPage{Content: content, Markup: result.Markup}); err == nil {
			a.cache.Set(targetURL, data)
		}
	}
	return content, result.Markup, nil
}

type cachedPage struct {
	Content *models.ExtractedContent `json:"content"`
	Markup  string                   `json:"markup"`
}

// deepCrawl discovers categorized links and visits them. Discovery or crawl
// failures reduce evidence, never abort the audit.
func (a *Auditor) deepCrawl(ctx context.Context, markup, targetURL string, log *logrus.Entry) *models.DeepCrawlFindings {
	if a.crawler == nil || a.cfg.Crawl.MaxPages == 0 {
		return nil
	}

	links, err := extraction.DiscoverLinks(markup, targetURL)
	if err != nil {
		log.WithError(err).Warn("link discovery failed, trying conventional paths only")
	}
	// Guessed paths are a substitute for failed discovery, not a supplement:
	// when scanning found categorized links the budget goes to those alone.
	if len(links) == 0 {
		links = extraction.ConventionalLinks(targetURL)
	}
	if len(links) == 0 {
		return nil
	}
	return a.crawler.Crawl(ctx, links)
}

// classify calls the AI collaborator; any failure degrades to pattern-only
// scoring.
func (a *Auditor) classify(ctx context.Context, content *models.ExtractedContent, log *logrus.Entry) *models.AnalysisFactors {
	if a.classifier == nil {
		return nil
	}
	factors, err := a.classifier.Classify(ctx, content.AggregatedText())
	if err != nil {
		log.WithError(err).Warn("AI classification unavailable, degrading to pattern scoring")
		return nil
	}
	return factors
}
