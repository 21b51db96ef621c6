package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/veridianlabs/trustlens/pkg/models"
	"github.com/veridianlabs/trustlens/pkg/utils"
)

// Blend weights for the overall verification score. Empty categories
// contribute zero instead of skewing the denominator.
const (
	weightProfilesVerified = 0.40
	weightProfilesActive   = 0.30
	weightReposActive      = 0.30
)

var profileHosts = []string{"linkedin.com", "twitter.com", "x.com"}

// Verifier confirms claimed external identities via read-only lookups.
// Single lookup failures degrade the evidence set but never abort the batch.
type Verifier struct {
	cfg     models.VerificationConfig
	client  *http.Client
	limiter *rate.Limiter
	dns     *DNSChecker
	metrics *utils.MetricsCollector
	logger  *logrus.Logger
}

func NewVerifier(cfg models.VerificationConfig, metrics *utils.MetricsCollector, logger *logrus.Logger) *Verifier {
	if logger == nil {
		logger = logrus.New()
	}
	timeout := cfg.LookupTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Verifier{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		dns:     NewDNSChecker(cfg.DNSResolver, logger),
		metrics: metrics,
		logger:  logger,
	}
}

// Verify checks up to MaxPerCategory identities per category in parallel and
// returns the aggregate summary.
func (v *Verifier) Verify(ctx context.Context, content *models.ExtractedContent) *models.VerificationSummary {
	summary := &models.VerificationSummary{VerifiedAt: time.Now()}

	profileURLs, repoURLs := v.partition(content)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	concurrency := v.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	g.SetLimit(concurrency)

	for _, u := range profileURLs {
		u := u
		g.Go(func() error {
			check := v.checkProfile(gctx, u)
			v.record("profile", check)
			mu.Lock()
			summary.Profiles = append(summary.Profiles, check)
			mu.Unlock()
			return nil
		})
	}
	for _, u := range repoURLs {
		u := u
		g.Go(func() error {
			check := v.checkRepository(gctx, u)
			v.record("repository", check)
			mu.Lock()
			summary.Repositories = append(summary.Repositories, check)
			mu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		summary.Domain = v.dns.Check(gctx, content.URL)
		return nil
	})
	_ = g.Wait()

	summary.Score = blendScore(summary)
	return summary
}

func (v *Verifier) partition(content *models.ExtractedContent) (profiles, repos []string) {
	limit := v.cfg.MaxPerCategory
	if limit <= 0 {
		limit = 10
	}
	for _, link := range content.SocialLinks {
		if len(profiles) >= limit {
			break
		}
		lower := strings.ToLower(link)
		for _, host := range profileHosts {
			if strings.Contains(lower, host) {
				profiles = append(profiles, link)
				break
			}
		}
	}
	for _, link := range content.CodeRepositories {
		if len(repos) >= limit {
			break
		}
		repos = append(repos, link)
	}
	return profiles, repos
}

// checkProfile verifies a professional or social profile. Code-hosting
// profiles go through the JSON API and yield activity recency; other hosts
// get a plain existence check with no recency signal.
func (v *Verifier) checkProfile(ctx context.Context, profileURL string) models.IdentityCheck {
	check := models.IdentityCheck{URL: profileURL}
	if err := v.limiter.Wait(ctx); err != nil {
		check.Error = err.Error()
		return check
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	req.Header.Set("User-Agent", "trustlens-verifier/1.0")

	resp, err := v.client.Do(req)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode != http.StatusOK {
		check.Error = fmt.Sprintf("status %d", resp.StatusCode)
		return check
	}
	check.Verified = true
	check.CanonicalID = profileURL
	return check
}

type repoAPIResponse struct {
	FullName  string    `json:"full_name"`
	PushedAt  time.Time `json:"pushed_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type userAPIResponse struct {
	Login     string    `json:"login"`
	UpdatedAt time.Time `json:"updated_at"`
}

// checkRepository verifies a code-hosting repository or profile URL through
// the hosting API. Stale repositories stay verified with recentActivity
// false; they are never silently dropped.
func (v *Verifier) checkRepository(ctx context.Context, repoURL string) models.IdentityCheck {
	check := models.IdentityCheck{URL: repoURL}

	owner, repo, ok := splitRepoPath(repoURL)
	if !ok {
		check.Error = "unrecognized repository url"
		return check
	}
	if err := v.limiter.Wait(ctx); err != nil {
		check.Error = err.Error()
		return check
	}

	apiBase := strings.TrimRight(v.cfg.CodeAPIBase, "/")
	var endpoint string
	if repo == "" {
		endpoint = fmt.Sprintf("%s/users/%s", apiBase, owner)
	} else {
		endpoint = fmt.Sprintf("%s/repos/%s/%s", apiBase, owner, repo)
	}

	body, err := v.getJSON(ctx, endpoint)
	if err != nil {
		check.Error = err.Error()
		return check
	}

	windowDays := v.cfg.RepoWindowDays
	if windowDays <= 0 {
		windowDays = 90
	}
	if repo == "" {
		var user userAPIResponse
		if err := json.Unmarshal(body, &user); err != nil || user.Login == "" {
			check.Error = "empty canonical identifier"
			return check
		}
		check.CanonicalID = user.Login
		check.LastActivity = user.UpdatedAt
		windowDays = v.cfg.ProfileWindowDays
		if windowDays <= 0 {
			windowDays = 180
		}
	} else {
		var repoResp repoAPIResponse
		if err := json.Unmarshal(body, &repoResp); err != nil || repoResp.FullName == "" {
			check.Error = "empty canonical identifier"
			return check
		}
		check.CanonicalID = repoResp.FullName
		check.LastActivity = repoResp.PushedAt
		if check.LastActivity.IsZero() {
			check.LastActivity = repoResp.UpdatedAt
		}
	}

	check.Verified = true
	check.RecentActivity = !check.LastActivity.IsZero() &&
		time.Since(check.LastActivity) <= time.Duration(windowDays)*24*time.Hour
	return check
}

func (v *Verifier) getJSON(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "trustlens-verifier/1.0")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

func (v *Verifier) record(category string, check models.IdentityCheck) {
	if v.metrics == nil {
		return
	}
	outcome := "failed"
	if check.Verified {
		outcome = "verified"
	}
	v.metrics.LookupResults.WithLabelValues(category, outcome).Inc()
}

// splitRepoPath extracts owner and optional repository name from a
// code-hosting URL.
func splitRepoPath(raw string) (owner, repo string, ok bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch {
	case len(parts) >= 2 && parts[0] != "" && parts[1] != "":
		return parts[0], parts[1], true
	case len(parts) == 1 && parts[0] != "":
		return parts[0], "", true
	}
	return "", "", false
}

// blendScore is the weighted verification blend. A category with no checks
// contributes zero.
func blendScore(s *models.VerificationSummary) float64 {
	profilesVerified, profilesActive, _, reposActive := s.Counts()

	var score float64
	if n := len(s.Profiles); n > 0 {
		score += weightProfilesVerified * float64(profilesVerified) / float64(n) * 100
		score += weightProfilesActive * float64(profilesActive) / float64(n) * 100
	}
	if n := len(s.Repositories); n > 0 {
		score += weightReposActive * float64(reposActive) / float64(n) * 100
	}
	return utils.Clamp(score, 0, 100)
}

// SummaryText renders the verification outcome for appending to the
// evidence set.
func SummaryText(s *models.VerificationSummary) string {
	profilesVerified, profilesActive, reposVerified, reposActive := s.Counts()
	var b strings.Builder
	fmt.Fprintf(&b, "External verification: %d/%d profiles verified (%d recently active), %d/%d repositories verified (%d recently active).",
		profilesVerified, len(s.Profiles), profilesActive,
		reposVerified, len(s.Repositories), reposActive)
	if s.Domain.Resolves {
		b.WriteString(" Domain resolves")
		if s.Domain.HasMX {
			b.WriteString(", has mail records")
		}
		b.WriteString(".")
	}
	return b.String()
}
