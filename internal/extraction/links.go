package extraction

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"

	"github.com/veridianlabs/trustlens/pkg/models"
)

// Category keyword tables matched against both the link target (path and
// host) and its anchor text. Precedence is team > security > governance >
// docs; the first category that matches wins so a link is never counted
// twice.
var categoryKeywords = []struct {
	category models.LinkCategory
	words    []string
}{
	{models.CategoryTeam, []string{"team", "about", "about-us", "people", "founders", "leadership", "who-we-are", "contributors"}},
	{models.CategorySecurity, []string{"security", "audit", "audits", "bug-bounty", "bugbounty", "responsible-disclosure", "safety"}},
	{models.CategoryGovernance, []string{"governance", "dao", "voting", "proposals", "forum", "snapshot", "treasury"}},
	{models.CategoryDocs, []string{"docs", "documentation", "whitepaper", "litepaper", "developers", "guide", "faq", "learn", "wiki"}},
}

// conventionalPaths are best-effort guesses substituted when a page yields no
// categorized links at all.
var conventionalPaths = []models.CategorizedLink{
	{URL: "/team", Category: models.CategoryTeam},
	{URL: "/about", Category: models.CategoryTeam},
	{URL: "/security", Category: models.CategorySecurity},
	{URL: "/audits", Category: models.CategorySecurity},
	{URL: "/governance", Category: models.CategoryGovernance},
	{URL: "/docs", Category: models.CategoryDocs},
	{URL: "/whitepaper", Category: models.CategoryDocs},
}

// DiscoverLinks scans a page's outbound links and classifies them. Links
// outside the base URL's registrable domain are discarded.
func DiscoverLinks(markup, baseURL string) ([]models.CategorizedLink, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	baseDomain := registrableDomain(base.Hostname())

	seen := make(map[string]struct{})
	var links []models.CategorizedLink

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
			return
		}

		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		resolved.Fragment = ""
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if registrableDomain(resolved.Hostname()) != baseDomain {
			return
		}

		anchor := strings.ToLower(strings.TrimSpace(s.Text()))
		category, ok := categorize(resolved, anchor)
		if !ok {
			return
		}

		target := resolved.String()
		if _, dup := seen[target]; dup {
			return
		}
		seen[target] = struct{}{}
		links = append(links, models.CategorizedLink{URL: target, Category: category, Anchor: anchor})
	})

	return links, nil
}

// ConventionalLinks resolves the fixed guess list against the base URL.
func ConventionalLinks(baseURL string) []models.CategorizedLink {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	out := make([]models.CategorizedLink, 0, len(conventionalPaths))
	for _, guess := range conventionalPaths {
		resolved, err := base.Parse(guess.URL)
		if err != nil {
			continue
		}
		out = append(out, models.CategorizedLink{URL: resolved.String(), Category: guess.Category})
	}
	return out
}

func categorize(u *url.URL, anchor string) (models.LinkCategory, bool) {
	haystack := strings.ToLower(u.Path) + " " + strings.ToLower(u.Hostname()) + " " + anchor
	for _, entry := range categoryKeywords {
		for _, word := range entry.words {
			if containsToken(haystack, word) {
				return entry.category, true
			}
		}
	}
	return "", false
}

// containsToken matches whole path segments and words, so "about" does not
// fire on "aboutique".
func containsToken(haystack, word string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || isBoundary(haystack[start-1])
		afterOK := end == len(haystack) || isBoundary(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isBoundary(b byte) bool {
	switch b {
	case '/', '.', '-', '_', ' ', '?', '=', '&':
		return true
	}
	return false
}

func registrableDomain(host string) string {
	host = strings.ToLower(host)
	if host == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
