package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/veridianlabs/trustlens/pkg/models"
	"github.com/veridianlabs/trustlens/pkg/utils"
)

const (
	minWordCount      = 150
	minTitleLen       = 10
	minDescriptionLen = 30
	minSectionLen     = 50

	duplicateRatioLimit  = 0.30
	structuredRatioFloor = 0.30
	minSentenceLen       = 20
)

var sentenceSplit = regexp.MustCompile(`[.!?\n]+`)

// Validate scores extraction completeness and quality. It is a pure function
// over the content snapshot: same input, same result.
func Validate(content *models.ExtractedContent) models.ValidationResult {
	metrics := models.ValidationMetrics{
		WordCount:          utils.CountWords(content.MainContent),
		DocumentationCount: len(content.Documentation),
		DuplicateRatio:     duplicateRatio(content.MainContent),
		StructuredRatio:    structuredRatio(content),
		SocialLinkCount:    len(content.SocialLinks),
		RepositoryCount:    len(content.CodeRepositories),
	}

	score := 100.0
	var issues, recs []string

	deduct := func(points float64, issue, rec string) {
		score -= points
		issues = append(issues, issue)
		if rec != "" {
			recs = append(recs, rec)
		}
	}

	if metrics.WordCount < minWordCount {
		deduct(30, fmt.Sprintf("main content has only %d words", metrics.WordCount),
			"ensure the site's primary content is reachable without interaction")
	}
	if len(content.Title) < minTitleLen {
		deduct(10, "title is missing or too short", "")
	}
	if len(content.Description) < minDescriptionLen {
		deduct(10, "description is missing or too short",
			"add a meta description to the page")
	}
	if metrics.DocumentationCount == 0 {
		deduct(20, "no documentation sections found",
			"link documentation or a whitepaper from the main page")
	}
	if metrics.DuplicateRatio > duplicateRatioLimit {
		deduct(15, fmt.Sprintf("high duplicate content ratio (%.0f%%)", metrics.DuplicateRatio*100), "")
	}
	if metrics.StructuredRatio < structuredRatioFloor {
		deduct(10, "little structured content relative to page size", "")
	}
	if len(content.TeamInfo) < minSectionLen {
		deduct(15, "team information is missing or thin",
			"publish a team page with names and roles")
	}
	if len(content.Tokenomics) < minSectionLen {
		deduct(15, "tokenomics information is missing or thin", "")
	}
	if metrics.SocialLinkCount == 0 {
		deduct(10, "no social or community links found",
			"link the project's community channels")
	}
	if metrics.RepositoryCount == 0 {
		deduct(10, "no code repositories linked",
			"link the project's source repositories")
	}

	if score < 0 {
		score = 0
	}

	quality := models.QualityInsufficient
	switch {
	case score >= 80:
		quality = models.QualityHigh
	case score >= 60:
		quality = models.QualityMedium
	case score >= 40:
		quality = models.QualityLow
	}

	// Sparse-but-nonzero content is still usable downstream; only the
	// combination of insufficient quality and a starved word count makes
	// the extraction unusable.
	valid := !(quality == models.QualityInsufficient && metrics.WordCount < minWordCount)

	return models.ValidationResult{
		Quality:         quality,
		Score:           score,
		Valid:           valid,
		Issues:          issues,
		Recommendations: recs,
		Metrics:         metrics,
	}
}

// duplicateRatio is 1 - unique/total over normalized sentences longer than
// minSentenceLen. Fewer than two qualifying sentences means no signal.
func duplicateRatio(text string) float64 {
	parts := sentenceSplit.Split(text, -1)
	var total int
	unique := make(map[string]struct{})
	for _, part := range parts {
		sentence := utils.NormalizeWhitespace(strings.ToLower(part))
		if len(sentence) <= minSentenceLen {
			continue
		}
		total++
		unique[sentence] = struct{}{}
	}
	if total < 2 {
		return 0
	}
	return 1 - float64(len(unique))/float64(total)
}

func structuredRatio(content *models.ExtractedContent) float64 {
	structured := len(content.TeamInfo) + len(content.Tokenomics) + len(content.SecurityInfo)
	for _, d := range content.Documentation {
		structured += len(d)
	}
	total := structured + len(content.MainContent)
	if total == 0 {
		return 0
	}
	return float64(structured) / float64(total)
}
