package extraction

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/veridianlabs/trustlens/internal/fetching"
	"github.com/veridianlabs/trustlens/pkg/models"
	"github.com/veridianlabs/trustlens/pkg/utils"
)

const (
	maxDocumentationBlocks = 10
	docFallbackThreshold   = 200
	mainContentCap         = 5000
)

// selectorRule is one prioritized extraction rule: the first rule whose text
// clears minLen wins the field.
type selectorRule struct {
	selector string
	attr     string
	minLen   int
}

var titleRules = []selectorRule{
	{selector: "meta[property='og:title']", attr: "content", minLen: 3},
	{selector: "title", minLen: 3},
	{selector: "h1", minLen: 3},
}

var descriptionRules = []selectorRule{
	{selector: "meta[name='description']", attr: "content", minLen: 20},
	{selector: "meta[property='og:description']", attr: "content", minLen: 20},
	{selector: "header p, .hero p, .tagline", minLen: 30},
}

var documentationRules = []selectorRule{
	{selector: "article", minLen: 80},
	{selector: "main section", minLen: 80},
	{selector: ".docs, .documentation, #docs", minLen: 60},
	{selector: "main p", minLen: 60},
	{selector: "section p", minLen: 60},
}

var teamRules = []selectorRule{
	{selector: ".team, #team, [class*='team-member']", minLen: 30},
	{selector: "section[id*='team'], section[class*='team']", minLen: 30},
	{selector: ".about, #about, section[id*='about']", minLen: 50},
	{selector: ".founders, [class*='founder']", minLen: 30},
}

var tokenomicsRules = []selectorRule{
	{selector: ".tokenomics, #tokenomics, section[id*='tokenomics']", minLen: 40},
	{selector: "section[class*='token'], .token-distribution", minLen: 40},
	{selector: "[id*='token-supply'], [class*='supply']", minLen: 30},
}

var securityRules = []selectorRule{
	{selector: ".security, #security, section[id*='security']", minLen: 30},
	{selector: ".audit, #audit, [class*='audit']", minLen: 30},
	{selector: "section[id*='bug-bounty'], [class*='bounty']", minLen: 30},
}

var socialHosts = []string{
	"twitter.com", "x.com", "t.me", "telegram.org", "discord.gg", "discord.com",
	"medium.com", "reddit.com", "linkedin.com", "youtube.com", "facebook.com",
	"instagram.com", "mirror.xyz", "warpcast.com",
}

var codeHosts = []string{
	"github.com", "gitlab.com", "bitbucket.org", "sourcehut.org", "codeberg.org",
}

// Parser extracts structured content from raw markup via prioritized
// selector rules.
type Parser struct {
	logger *logrus.Logger
}

func NewParser(logger *logrus.Logger) *Parser {
	if logger == nil {
		logger = logrus.New()
	}
	return &Parser{logger: logger}
}

// Parse builds the ExtractedContent snapshot for one page. mainContent is
// never empty for a page with any visible text: when no documentation block
// qualifies, the whole-page text (capped) is used instead.
func (p *Parser) Parse(markup, url string, method models.ExtractionMethod) (*models.ExtractedContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fetching.NewClassifiedError(fetching.KindParsing, err)
	}
	doc.Find("script, style, noscript, svg").Remove()

	content := &models.ExtractedContent{
		URL:         url,
		Method:      method,
		Title:       firstMatch(doc, titleRules),
		Description: firstMatch(doc, descriptionRules),
		TeamInfo:    firstMatch(doc, teamRules),
		Tokenomics:  firstMatch(doc, tokenomicsRules),
		SecurityInfo: firstMatch(doc, securityRules),
		ExtractedAt: time.Now(),
	}

	content.Documentation = p.extractDocumentation(doc)
	combined := 0
	for _, d := range content.Documentation {
		combined += len(d)
	}
	if combined >= docFallbackThreshold {
		content.MainContent = strings.Join(content.Documentation, "\n\n")
		if len(content.MainContent) > mainContentCap {
			content.MainContent = content.MainContent[:mainContentCap]
		}
	} else {
		// Conservative fallback: whole-page text, capped.
		body := utils.NormalizeWhitespace(doc.Find("body").Text())
		if len(body) > mainContentCap {
			body = body[:mainContentCap]
		}
		content.MainContent = body
	}

	content.SocialLinks, content.CodeRepositories = p.extractExternalLinks(doc)
	content.ContentLength = content.TextLength()
	return content, nil
}

func firstMatch(doc *goquery.Document, rules []selectorRule) string {
	for _, rule := range rules {
		var text string
		sel := doc.Find(rule.selector).First()
		if rule.attr != "" {
			text, _ = sel.Attr(rule.attr)
		} else {
			text = sel.Text()
		}
		text = utils.NormalizeWhitespace(text)
		if len(text) >= rule.minLen {
			return text
		}
	}
	return ""
}

// extractDocumentation takes the union of qualifying blocks across the rule
// list, de-duplicated by prefix, up to the block cap.
func (p *Parser) extractDocumentation(doc *goquery.Document) []string {
	var blocks []string
	for _, rule := range documentationRules {
		doc.Find(rule.selector).Each(func(_ int, s *goquery.Selection) {
			if len(blocks) >= maxDocumentationBlocks {
				return
			}
			text := utils.NormalizeWhitespace(s.Text())
			if len(text) < rule.minLen {
				return
			}
			if isPrefixDuplicate(blocks, text) {
				return
			}
			blocks = append(blocks, text)
		})
		if len(blocks) >= maxDocumentationBlocks {
			break
		}
	}
	return blocks
}

func isPrefixDuplicate(blocks []string, candidate string) bool {
	probe := candidate
	if len(probe) > 80 {
		probe = probe[:80]
	}
	for _, b := range blocks {
		if strings.HasPrefix(b, probe) || strings.HasPrefix(candidate, prefixOf(b, 80)) {
			return true
		}
	}
	return false
}

func prefixOf(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func (p *Parser) extractExternalLinks(doc *goquery.Document) (social, code []string) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		lower := strings.ToLower(href)
		for _, host := range codeHosts {
			if strings.Contains(lower, host) {
				code = append(code, href)
				return
			}
		}
		for _, host := range socialHosts {
			if strings.Contains(lower, host) {
				social = append(social, href)
				return
			}
		}
	})
	return utils.UniqueStrings(social), utils.UniqueStrings(code)
}
