package scoring

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/veridianlabs/trustlens/pkg/models"
	"github.com/veridianlabs/trustlens/pkg/utils"
)

// PatternEngine is the deterministic rule-based scorer. It is always
// computed as a second opinion and serves as the sole scorer when the AI
// collaborator is unreachable.
type PatternEngine struct {
	logger *logrus.Logger
}

func NewPatternEngine(logger *logrus.Logger) *PatternEngine {
	if logger == nil {
		logger = logrus.New()
	}
	return &PatternEngine{logger: logger}
}

// Score derives the five factors from keyword evidence. Each factor starts
// from keyword matches (+8 per distinct vocabulary hit) plus a length bonus
// over its relevant text, then is floored at its fixed baseline and capped
// at 100.
func (e *PatternEngine) Score(content *models.ExtractedContent) *models.AnalysisFactors {
	aggregated := strings.ToLower(content.AggregatedText())

	relevantText := map[string]string{
		"documentation_quality":    strings.Join(content.Documentation, " ") + " " + content.MainContent,
		"transparency":             content.TeamInfo + " " + content.Description,
		"security_documentation":   content.SecurityInfo,
		"community_engagement":     strings.Join(content.SocialLinks, " ") + " " + content.MainContent,
		"technical_implementation": strings.Join(content.CodeRepositories, " ") + " " + content.Tokenomics + " " + content.MainContent,
	}

	factors := &models.AnalysisFactors{Explanations: make(map[string]string)}
	values := make(map[string]float64, len(factorVocabularies))

	for factor, vocabulary := range factorVocabularies {
		matched := 0
		for _, keyword := range vocabulary {
			if strings.Contains(aggregated, keyword) {
				matched++
			}
		}
		score := float64(matched) * 8
		score += lengthBonus(len(relevantText[factor]))

		if floor := factorFloors[factor]; score < floor {
			score = floor
		}
		score = utils.Clamp(score, 0, 100)
		values[factor] = score
		factors.Explanations[factor] = fmt.Sprintf("pattern evidence: %d/%d vocabulary matches", matched, len(vocabulary))
	}

	factors.DocumentationQuality = values["documentation_quality"]
	factors.Transparency = values["transparency"]
	factors.SecurityDocumentation = values["security_documentation"]
	factors.CommunityEngagement = values["community_engagement"]
	factors.TechnicalImplementation = values["technical_implementation"]
	return factors
}

func lengthBonus(n int) float64 {
	switch {
	case n > 500:
		return 25
	case n > 200:
		return 15
	case n > 50:
		return 10
	}
	return 0
}

// ClassifyProjectType applies the keyword-scoring heuristic with explicit
// precedence: strong defi signal count >= 1, moderate count >= 2, or a
// recognized chain-address pattern classifies defi unless the anti-signal
// counts exceed their thresholds.
func ClassifyProjectType(content *models.ExtractedContent) models.ProjectType {
	text := strings.ToLower(content.AggregatedText())

	strong := countMatches(text, defiStrongSignals)
	moderate := countMatches(text, defiModerateSignals)
	portfolio := countMatches(text, portfolioSignals)
	business := countMatches(text, businessSignals)
	hasAddress := chainAddressPattern.MatchString(text)

	defiSignal := strong >= 1 || moderate >= 2 || hasAddress
	if defiSignal && portfolio < portfolioAntiThreshold && business < businessAntiThreshold {
		return models.ProjectDeFi
	}
	if portfolio >= 2 && portfolio >= business {
		return models.ProjectPortfolio
	}
	if business >= 2 {
		return models.ProjectBusiness
	}
	if defiSignal {
		return models.ProjectDeFi
	}
	return models.ProjectGeneral
}

func countMatches(text string, vocabulary []string) int {
	n := 0
	for _, keyword := range vocabulary {
		if strings.Contains(text, keyword) {
			n++
		}
	}
	return n
}

// DetectRedFlags runs the project-type-aware rule tables over the
// aggregated evidence.
func DetectRedFlags(content *models.ExtractedContent, projectType models.ProjectType) []string {
	text := strings.ToLower(content.AggregatedText())
	var flags []string

	for _, rule := range redFlagRules {
		if !appliesTo(rule.types, projectType) {
			continue
		}
		if rule.pattern != nil && rule.pattern.MatchString(text) {
			flags = append(flags, rule.flag)
			continue
		}
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				flags = append(flags, rule.flag)
				break
			}
		}
	}
	for _, rule := range absenceFlags {
		if !appliesTo(rule.types, projectType) {
			continue
		}
		if rule.check(content) {
			flags = append(flags, rule.flag)
		}
	}
	return flags
}

// DetectPositiveIndicators runs the credibility tables, including recognized
// audit-firm detection.
func DetectPositiveIndicators(content *models.ExtractedContent) []string {
	text := strings.ToLower(content.AggregatedText())
	var indicators []string

	for _, firm := range recognizedAuditFirms {
		if strings.Contains(text, firm) {
			indicators = append(indicators, "audited by "+firm)
			break
		}
	}
	for _, rule := range positiveRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				indicators = append(indicators, rule.indicator)
				break
			}
		}
	}
	return indicators
}

func appliesTo(types []models.ProjectType, projectType models.ProjectType) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == projectType {
			return true
		}
	}
	return false
}
