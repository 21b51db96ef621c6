package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/veridianlabs/trustlens/pkg/models"
	"github.com/veridianlabs/trustlens/pkg/utils"
)

// RepairStage identifies which rung of the repair ladder produced a usable
// factor set.
type RepairStage string

const (
	StageStrict     RepairStage = "strict_json"
	StageFenced     RepairStage = "fenced_block"
	StageStructural RepairStage = "structural"
	StageFailed     RepairStage = "failed"
)

// ParseOutcome reports both the factors and how hard they were to recover,
// so callers can log degraded responses.
type ParseOutcome struct {
	Factors *models.AnalysisFactors
	Stage   RepairStage
	Err     error
}

type factorPayload struct {
	DocumentationQuality    *float64          `json:"documentation_quality"`
	Transparency            *float64          `json:"transparency"`
	SecurityDocumentation   *float64          `json:"security_documentation"`
	CommunityEngagement     *float64          `json:"community_engagement"`
	TechnicalImplementation *float64          `json:"technical_implementation"`
	Explanations            map[string]string `json:"explanations"`
}

var (
	fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	looseObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	factorLinePattern  = regexp.MustCompile(`"?(documentation_quality|transparency|security_documentation|community_engagement|technical_implementation)"?\s*[:=]\s*(\d+(?:\.\d+)?)`)
)

// ParseFactors recovers a factor set from model output. Stages run in order:
// strict JSON, fenced code block extraction, then structural key/value
// scraping. Each recovered value is clamped to [0,100]; a stage only
// succeeds when all five factors are present.
func ParseFactors(raw []byte) ParseOutcome {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return ParseOutcome{Stage: StageFailed, Err: fmt.Errorf("empty response")}
	}

	if factors, ok := parseStrict([]byte(text)); ok {
		return ParseOutcome{Factors: factors, Stage: StageStrict}
	}

	if m := fencedBlockPattern.FindStringSubmatch(text); m != nil {
		if factors, ok := parseStrict([]byte(m[1])); ok {
			return ParseOutcome{Factors: factors, Stage: StageFenced}
		}
	}
	if m := looseObjectPattern.FindString(text); m != "" && m != text {
		if factors, ok := parseStrict([]byte(m)); ok {
			return ParseOutcome{Factors: factors, Stage: StageFenced}
		}
	}

	if factors, ok := parseStructural(text); ok {
		return ParseOutcome{Factors: factors, Stage: StageStructural}
	}

	return ParseOutcome{Stage: StageFailed, Err: fmt.Errorf("no factor set recoverable from %d bytes", len(text))}
}

func parseStrict(raw []byte) (*models.AnalysisFactors, bool) {
	var payload factorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false
	}
	if payload.DocumentationQuality == nil || payload.Transparency == nil ||
		payload.SecurityDocumentation == nil || payload.CommunityEngagement == nil ||
		payload.TechnicalImplementation == nil {
		return nil, false
	}

	factors := &models.AnalysisFactors{
		DocumentationQuality:    utils.Clamp(*payload.DocumentationQuality, 0, 100),
		Transparency:            utils.Clamp(*payload.Transparency, 0, 100),
		SecurityDocumentation:   utils.Clamp(*payload.SecurityDocumentation, 0, 100),
		CommunityEngagement:     utils.Clamp(*payload.CommunityEngagement, 0, 100),
		TechnicalImplementation: utils.Clamp(*payload.TechnicalImplementation, 0, 100),
		Explanations:            payload.Explanations,
	}
	if factors.Explanations == nil {
		factors.Explanations = make(map[string]string)
	}
	return factors, true
}

// parseStructural scrapes key/value pairs out of prose or broken JSON.
func parseStructural(text string) (*models.AnalysisFactors, bool) {
	matches := factorLinePattern.FindAllStringSubmatch(text, -1)
	values := make(map[string]float64, 5)
	for _, m := range matches {
		var v float64
		if _, err := fmt.Sscanf(m[2], "%f", &v); err != nil {
			continue
		}
		if _, seen := values[m[1]]; !seen {
			values[m[1]] = utils.Clamp(v, 0, 100)
		}
	}
	if len(values) < 5 {
		return nil, false
	}
	return &models.AnalysisFactors{
		DocumentationQuality:    values["documentation_quality"],
		Transparency:            values["transparency"],
		SecurityDocumentation:   values["security_documentation"],
		CommunityEngagement:     values["community_engagement"],
		TechnicalImplementation: values["technical_implementation"],
		Explanations:            map[string]string{"source": "recovered from unstructured response"},
	}, true
}
