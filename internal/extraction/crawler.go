package extraction

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/veridianlabs/trustlens/internal/fetching"
	"github.com/veridianlabs/trustlens/pkg/models"
	"github.com/veridianlabs/trustlens/pkg/utils"
)

// Fetcher is the retrieval surface the crawler drives. *fetching.Executor
// satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetching.FetchResult, error)
}

var bugBountyKeywords = []string{"bug bounty", "bugbounty", "responsible disclosure", "vulnerability disclosure", "security rewards"}
var governanceKeywords = []string{"governance", "dao", "voting", "proposal", "quorum", "treasury"}

// Crawler visits categorized links up to a bounded page budget, parsing each
// with the structured parser and aggregating category-specific evidence. A
// per-link failure is logged and skipped; it never aborts the crawl.
type Crawler struct {
	fetcher     Fetcher
	parser      *Parser
	limiter     *rate.Limiter
	maxPages    int
	maxDepth    int
	pageTimeout time.Duration
	concurrency int
	metrics     *utils.MetricsCollector
	logger      *logrus.Logger
}

func NewCrawler(fetcher Fetcher, parser *Parser, cfg models.CrawlConfig, metrics *utils.MetricsCollector, logger *logrus.Logger) *Crawler {
	if logger == nil {
		logger = logrus.New()
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 10
	}
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 1
	}
	pageTimeout := cfg.PageTimeout
	if pageTimeout <= 0 {
		pageTimeout = 30 * time.Second
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 2
	}
	return &Crawler{
		fetcher:     fetcher,
		parser:      parser,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		maxPages:    maxPages,
		maxDepth:    maxDepth,
		pageTimeout: pageTimeout,
		concurrency: concurrency,
		metrics:     metrics,
		logger:      logger,
	}
}

// Crawl visits categorized links level by level up to maxDepth, spending at
// most maxPages fetch attempts overall. Links discovered on a visited page
// feed the next level. Each visit runs under its own page timeout.
func (c *Crawler) Crawl(ctx context.Context, links []models.CategorizedLink) *models.DeepCrawlFindings {
	findings := &models.DeepCrawlFindings{}
	var mu sync.Mutex
	seenHashes := make(map[uint64]struct{})
	seenURLs := make(map[string]struct{})

	frontier := links
	budget := c.maxPages

	for depth := 1; depth <= c.maxDepth && budget > 0; depth++ {
		var level []models.CategorizedLink
		for _, link := range frontier {
			if _, dup := seenURLs[link.URL]; dup {
				continue
			}
			seenURLs[link.URL] = struct{}{}
			level = append(level, link)
			if len(level) == budget {
				break
			}
		}
		if len(level) == 0 {
			break
		}
		budget -= len(level)

		var next []models.CategorizedLink
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.concurrency)

		for _, link := range level {
			link := link
			depth := depth
			g.Go(func() error {
				if err := c.limiter.Wait(gctx); err != nil {
					return nil
				}
				vctx, cancel := context.WithTimeout(gctx, c.pageTimeout)
				defer cancel()

				result, err := c.fetcher.Fetch(vctx, link.URL)
				if err != nil {
					c.logger.WithError(err).Debugf("crawl fetch skipped: %s", link.URL)
					return nil
				}
				if c.metrics != nil {
					c.metrics.CrawlPages.Inc()
				}

				hash := xxh3.HashString(result.Markup)
				mu.Lock()
				if _, dup := seenHashes[hash]; dup {
					mu.Unlock()
					c.logger.Debugf("duplicate page content skipped: %s", link.URL)
					return nil
				}
				seenHashes[hash] = struct{}{}
				mu.Unlock()

				page, err := c.parser.Parse(result.Markup, link.URL, result.Method)
				if err != nil {
					c.logger.WithError(err).Debugf("crawl parse skipped: %s", link.URL)
					return nil
				}

				var deeper []models.CategorizedLink
				if depth < c.maxDepth {
					deeper, _ = DiscoverLinks(result.Markup, link.URL)
				}

				mu.Lock()
				defer mu.Unlock()
				findings.CrawledPages = append(findings.CrawledPages, link.URL)
				c.merge(findings, link, result.Markup, page)
				next = append(next, deeper...)
				return nil
			})
		}
		_ = g.Wait()

		frontier = next
	}

	return findings
}

func (c *Crawler) merge(findings *models.DeepCrawlFindings, link models.CategorizedLink, markup string, page *models.ExtractedContent) {
	text := strings.ToLower(page.MainContent)

	switch link.Category {
	case models.CategoryTeam:
		findings.TeamMembers = append(findings.TeamMembers, extractTeamMembers(markup)...)
	case models.CategorySecurity:
		for _, kw := range bugBountyKeywords {
			if strings.Contains(text, kw) {
				findings.HasBugBounty = true
				if findings.BugBountyExcerpt == "" {
					findings.BugBountyExcerpt = excerptAround(page.MainContent, kw)
				}
				break
			}
		}
	case models.CategoryGovernance:
		for _, kw := range governanceKeywords {
			if strings.Contains(text, kw) {
				findings.HasGovernance = true
				if findings.GovernanceExcerpt == "" {
					findings.GovernanceExcerpt = excerptAround(page.MainContent, kw)
				}
				break
			}
		}
	case models.CategoryDocs:
		findings.DocumentationLinks = append(findings.DocumentationLinks, link.URL)
	}
}

// FoldInto appends crawl findings to the main content's team and security
// fields. Existing extraction is never replaced, only extended.
func FoldInto(content *models.ExtractedContent, findings *models.DeepCrawlFindings) {
	if findings == nil {
		return
	}
	if len(findings.TeamMembers) > 0 {
		var b strings.Builder
		b.WriteString("Team members found on secondary pages:")
		for _, m := range findings.TeamMembers {
			b.WriteString("\n- " + m.Name)
			if m.Role != "" {
				b.WriteString(" (" + m.Role + ")")
			}
			if m.Profile != "" {
				b.WriteString(" " + m.Profile)
			}
		}
		content.TeamInfo = appendSection(content.TeamInfo, b.String())
	}
	if findings.HasBugBounty {
		content.SecurityInfo = appendSection(content.SecurityInfo,
			"Bug bounty program: "+findings.BugBountyExcerpt)
	}
	if findings.HasGovernance {
		content.SecurityInfo = appendSection(content.SecurityInfo,
			"Governance: "+findings.GovernanceExcerpt)
	}
	if len(findings.DocumentationLinks) > 0 {
		content.MainContent = appendSection(content.MainContent,
			fmt.Sprintf("Documentation pages: %s", strings.Join(findings.DocumentationLinks, ", ")))
	}
}

func appendSection(existing, section string) string {
	if existing == "" {
		return section
	}
	return existing + "\n\n" + section
}

// extractTeamMembers pulls name/role pairs from common team-page structures.
func extractTeamMembers(markup string) []models.TeamMember {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var members []models.TeamMember
	seen := make(map[string]struct{})

	doc.Find("[class*='team-member'], [class*='member'], .team li, [class*='founder']").Each(func(_ int, s *goquery.Selection) {
		name := utils.NormalizeWhitespace(s.Find("h3, h4, .name, strong").First().Text())
		if name == "" || len(name) > 60 {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}

		member := models.TeamMember{
			Name: name,
			Role: utils.TruncateString(utils.NormalizeWhitespace(s.Find(".role, .title, em, p").First().Text()), 60),
		}
		s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			lower := strings.ToLower(href)
			if strings.Contains(lower, "linkedin.com") || strings.Contains(lower, "github.com") ||
				strings.Contains(lower, "twitter.com") || strings.Contains(lower, "x.com") {
				member.Profile = href
				return false
			}
			return true
		})
		members = append(members, member)
	})
	return members
}

func excerptAround(text, keyword string) string {
	idx := strings.Index(strings.ToLower(text), keyword)
	if idx < 0 {
		return utils.TruncateString(text, 200)
	}
	start := idx - 80
	if start < 0 {
		start = 0
	}
	end := idx + 200
	if end > len(text) {
		end = len(text)
	}
	return utils.NormalizeWhitespace(text[start:end])
}
