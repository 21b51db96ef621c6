package models

import (
	"time"
)

type ExtractionMethod string

const (
	MethodPrimary  ExtractionMethod = "primary"
	MethodFallback ExtractionMethod = "fallback"
	MethodMinimal  ExtractionMethod = "minimal"
)

// ExtractedContent is an immutable snapshot of one retrieved page. The deep
// crawl and evidence verification stages append to the text fields before
// the snapshot is handed to scoring; after that handoff it is never mutated.
type ExtractedContent struct {
	URL              string           `json:"url" yaml:"url"`
	Title            string           `json:"title" yaml:"title"`
	Description      string           `json:"description" yaml:"description"`
	MainContent      string           `json:"main_content" yaml:"main_content"`
	Documentation    []string         `json:"documentation" yaml:"documentation"`
	TeamInfo         string           `json:"team_info" yaml:"team_info"`
	Tokenomics       string           `json:"tokenomics" yaml:"tokenomics"`
	SecurityInfo     string           `json:"security_info" yaml:"security_info"`
	SocialLinks      []string         `json:"social_links" yaml:"social_links"`
	CodeRepositories []string         `json:"code_repositories" yaml:"code_repositories"`
	Method           ExtractionMethod `json:"method" yaml:"method"`
	ContentLength    int              `json:"content_length" yaml:"content_length"`
	ExtractedAt      time.Time        `json:"extracted_at" yaml:"extracted_at"`
}

// TextLength is the concatenated length of the textual fields. ContentLength
// is set from this once at creation and never recomputed.
func (c *ExtractedContent) TextLength() int {
	n := len(c.Title) + len(c.Description) + len(c.MainContent) +
		len(c.TeamInfo) + len(c.Tokenomics) + len(c.SecurityInfo)
	for _, d := range c.Documentation {
		n += len(d)
	}
	return n
}

// AggregatedText joins every textual field into one blob for keyword and
// pattern analysis.
func (c *ExtractedContent) AggregatedText() string {
	out := c.Title + "\n" + c.Description + "\n" + c.MainContent
	for _, d := range c.Documentation {
		out += "\n" + d
	}
	out += "\n" + c.TeamInfo + "\n" + c.Tokenomics + "\n" + c.SecurityInfo
	return out
}

type LinkCategory string

const (
	CategoryTeam       LinkCategory = "team"
	CategorySecurity   LinkCategory = "security"
	CategoryGovernance LinkCategory = "governance"
	CategoryDocs       LinkCategory = "docs"
)

type CategorizedLink struct {
	URL      string       `json:"url" yaml:"url"`
	Category LinkCategory `json:"category" yaml:"category"`
	Anchor   string       `json:"anchor,omitempty" yaml:"anchor,omitempty"`
}

type TeamMember struct {
	Name    string `json:"name" yaml:"name"`
	Role    string `json:"role,omitempty" yaml:"role,omitempty"`
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// DeepCrawlFindings is built incrementally while secondary pages are visited
// and frozen before being folded back into the main ExtractedContent.
type DeepCrawlFindings struct {
	TeamMembers        []TeamMember `json:"team_members" yaml:"team_members"`
	HasBugBounty       bool         `json:"has_bug_bounty" yaml:"has_bug_bounty"`
	BugBountyExcerpt   string       `json:"bug_bounty_excerpt,omitempty" yaml:"bug_bounty_excerpt,omitempty"`
	HasGovernance      bool         `json:"has_governance" yaml:"has_governance"`
	GovernanceExcerpt  string       `json:"governance_excerpt,omitempty" yaml:"governance_excerpt,omitempty"`
	CrawledPages       []string     `json:"crawled_pages" yaml:"crawled_pages"`
	DocumentationLinks []string     `json:"documentation_links" yaml:"documentation_links"`
}

type Page struct {
	URL        string           `json:"url"`
	HTML       string           `json:"-"`
	StatusCode int              `json:"status_code"`
	Method     ExtractionMethod `json:"method"`
	FetchedAt  time.Time        `json:"fetched_at"`
}
