package fetching

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"github.com/veridianlabs/trustlens/pkg/models"
)

// BrowserDriver owns the process-wide playwright runtime and the launched
// browser. It is constructed explicitly and injected; sessions carved from it
// are never shared across concurrent audits.
type BrowserDriver struct {
	pw       *playwright.Playwright
	browser  playwright.Browser
	headless bool
	timeout  time.Duration
	logger   *logrus.Logger

	mu          sync.Mutex
	initialized bool
}

func NewBrowserDriver(timeout time.Duration, headless bool, logger *logrus.Logger) *BrowserDriver {
	if logger == nil {
		logger = logrus.New()
	}
	return &BrowserDriver{
		headless: headless,
		timeout:  timeout,
		logger:   logger,
	}
}

func (d *BrowserDriver) init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return nil
	}

	if err := playwright.Install(); err != nil {
		d.logger.WithError(err).Warn("playwright install failed (continuing if already installed)")
	}

	pw, err := playwright.Run()
	if err != nil {
		return NewClassifiedError(KindBrowser, fmt.Errorf("start playwright: %w", err))
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(d.headless),
		Args: []string{
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--disable-dev-shm-usage",
			"--disable-gpu",
			"--no-first-run",
			"--window-size=1920,1080",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return NewClassifiedError(KindBrowser, fmt.Errorf("launch browser: %w", err))
	}
	d.pw = pw
	d.browser = browser
	d.initialized = true
	d.logger.Info("browser driver initialized")
	return nil
}

// NewSession returns an isolated browsing session backed by its own browser
// context.
func (d *BrowserDriver) NewSession() (*Session, error) {
	if err := d.init(); err != nil {
		return nil, err
	}
	return &Session{driver: d, timeout: d.timeout}, nil
}

func (d *BrowserDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			return err
		}
		d.browser = nil
	}
	if d.pw != nil {
		if err := d.pw.Stop(); err != nil {
			return err
		}
		d.pw = nil
	}
	d.initialized = false
	return nil
}

// Session is one browser-backed fetch slot. Each Navigate call opens a fresh
// context with the requested identity, so a fallback attempt can rotate its
// user agent without tearing the session down.
type Session struct {
	driver  *BrowserDriver
	timeout time.Duration

	mu      sync.Mutex
	context playwright.BrowserContext
	page    playwright.Page
}

type NavigateOptions struct {
	WaitState *playwright.WaitUntilState
	UserAgent string
}

func (s *Session) Navigate(ctx context.Context, url string, opts NavigateOptions) (string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if err := s.resetLocked(opts.UserAgent); err != nil {
		return "", 0, err
	}

	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remain := time.Until(deadline); remain < timeout {
			timeout = remain
		}
	}

	resp, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: opts.WaitState,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return "", 0, NewClassifiedError(KindBrowser, err)
	}

	status := 0
	if resp != nil {
		status = resp.Status()
	}
	html, err := s.page.Content()
	if err != nil {
		return "", status, NewClassifiedError(KindBrowser, err)
	}
	return html, status, nil
}

func (s *Session) resetLocked(userAgent string) error {
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	if s.context != nil {
		_ = s.context.Close()
		s.context = nil
	}

	opts := playwright.BrowserNewContextOptions{
		Viewport:          &playwright.Size{Width: 1920, Height: 1080},
		IgnoreHttpsErrors: playwright.Bool(true),
		JavaScriptEnabled: playwright.Bool(true),
	}
	if userAgent != "" {
		opts.UserAgent = playwright.String(userAgent)
	}
	bctx, err := s.driver.browser.NewContext(opts)
	if err != nil {
		return NewClassifiedError(KindBrowser, fmt.Errorf("new browser context: %w", err))
	}
	bctx.SetDefaultTimeout(float64(s.timeout.Milliseconds()))
	bctx.SetDefaultNavigationTimeout(float64(s.timeout.Milliseconds()))

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return NewClassifiedError(KindBrowser, fmt.Errorf("new page: %w", err))
	}
	s.context = bctx
	s.page = page
	return nil
}

// Click and Content implement Interactor over the live page.
func (s *Session) Click(ctx context.Context, selector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.page == nil {
		return fmt.Errorf("no active page")
	}
	return s.page.Click(selector, playwright.PageClickOptions{
		Timeout: playwright.Float(3000),
	})
}

func (s *Session) Content(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.page == nil {
		return "", fmt.Errorf("no active page")
	}
	return s.page.Content()
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	if s.context != nil {
		_ = s.context.Close()
		s.context = nil
	}
}

// primaryStrategy renders the page and waits for network idle.
type primaryStrategy struct{}

func (primaryStrategy) Name() string                    { return "primary" }
func (primaryStrategy) Method() models.ExtractionMethod { return models.MethodPrimary }

func (primaryStrategy) Fetch(ctx context.Context, url string, sess *Session) (string, Interactor, error) {
	if sess == nil {
		return "", nil, NewClassifiedError(KindBrowser, fmt.Errorf("no browser session available"))
	}
	html, status, err := sess.Navigate(ctx, url, NavigateOptions{
		WaitState: playwright.WaitUntilStateNetworkidle,
	})
	if err != nil {
		return "", nil, err
	}
	if err := statusError(status); err != nil {
		return "", nil, err
	}
	return html, sess, nil
}

// fallbackStrategy uses a lighter wait condition and a rotated identity.
type fallbackStrategy struct{}

func (fallbackStrategy) Name() string                    { return "fallback" }
func (fallbackStrategy) Method() models.ExtractionMethod { return models.MethodFallback }

func (fallbackStrategy) Fetch(ctx context.Context, url string, sess *Session) (string, Interactor, error) {
	if sess == nil {
		return "", nil, NewClassifiedError(KindBrowser, fmt.Errorf("no browser session available"))
	}
	ua, _ := RotateIdentity()
	html, status, err := sess.Navigate(ctx, url, NavigateOptions{
		WaitState: playwright.WaitUntilStateDomcontentloaded,
		UserAgent: ua,
	})
	if err != nil {
		return "", nil, err
	}
	if err := statusError(status); err != nil {
		return "", nil, err
	}
	return html, sess, nil
}

// statusError maps blocking HTTP statuses onto the taxonomy. A zero status
// (no main response, e.g. about:blank redirects) is left to content checks.
func statusError(status int) error {
	switch {
	case status == 401 || status == 403:
		return NewClassifiedError(KindAccessDenied, fmt.Errorf("status %d", status))
	case status == 429:
		return NewClassifiedError(KindRateLimited, fmt.Errorf("status %d", status))
	case status >= 400:
		return NewClassifiedError(KindNetwork, fmt.Errorf("status %d", status))
	}
	return nil
}
