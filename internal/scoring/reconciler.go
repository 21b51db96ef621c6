package scoring

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/veridianlabs/trustlens/pkg/models"
	"github.com/veridianlabs/trustlens/pkg/utils"
)

const (
	varianceTolerance = 15
	aiBlendWeight     = 0.8
)

// Reconciler merges the AI-derived and pattern-derived factor sets into one
// adjusted, confidence-rated result.
type Reconciler struct {
	logger *logrus.Logger
}

func NewReconciler(logger *logrus.Logger) *Reconciler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Reconciler{logger: logger}
}

// Reconcile returns the merged factors, the disclosed issues, and the
// confidence level. With no AI result the pattern factors are used directly
// at medium confidence with a single disclosed issue.
func (r *Reconciler) Reconcile(ai *models.AnalysisFactors, pattern *models.AnalysisFactors, content *models.ExtractedContent) (*models.AnalysisFactors, []string, models.ConfidenceLevel) {
	if ai == nil {
		merged := *pattern
		r.applyContentAdjustments(&merged, content)
		return &merged, []string{"AI analysis unavailable; pattern-based scoring used exclusively"}, models.ConfidenceMedium
	}

	merged, issues, totalVariance := r.mergeFactors(ai, pattern)
	r.applyContentAdjustments(merged, content)

	consistency := 100 - totalVariance/5
	confidence := r.confidenceLevel(consistency, len(issues), len(content.MainContent))
	return merged, issues, confidence
}

// mergeFactors reconciles each factor independently: within the variance
// tolerance the AI value is adopted verbatim, beyond it the values are
// blended 80/20 toward the AI opinion. The blend split is a fixed constant
// of the reference behavior.
func (r *Reconciler) mergeFactors(ai, pattern *models.AnalysisFactors) (*models.AnalysisFactors, []string, float64) {
	aiVals := ai.AsMap()
	patternVals := pattern.AsMap()

	merged := &models.AnalysisFactors{Explanations: make(map[string]string)}
	for k, v := range ai.Explanations {
		merged.Explanations[k] = v
	}

	var issues []string
	var totalVariance float64
	out := make(map[string]float64, len(aiVals))

	for factor, aiVal := range aiVals {
		patternVal := patternVals[factor]
		variance := math.Abs(aiVal - patternVal)
		totalVariance += variance

		if variance < varianceTolerance {
			out[factor] = aiVal
			continue
		}
		out[factor] = math.Round(aiBlendWeight*aiVal + (1-aiBlendWeight)*patternVal)
		issues = append(issues, fmt.Sprintf("large variance on %s: ai=%.0f pattern=%.0f", factor, aiVal, patternVal))
	}

	merged.DocumentationQuality = out["documentation_quality"]
	merged.Transparency = out["transparency"]
	merged.SecurityDocumentation = out["security_documentation"]
	merged.CommunityEngagement = out["community_engagement"]
	merged.TechnicalImplementation = out["technical_implementation"]
	return merged, issues, totalVariance
}

// applyContentAdjustments nudges the merged factors by what the extraction
// actually contains, each factor independently clamped to [0,100].
func (r *Reconciler) applyContentAdjustments(f *models.AnalysisFactors, content *models.ExtractedContent) {
	if content == nil {
		return
	}

	switch docs := len(content.Documentation); {
	case docs >= 5:
		f.DocumentationQuality += 10
	case docs == 0:
		f.DocumentationQuality -= 20
	}

	switch team := len(content.TeamInfo); {
	case team > 500:
		f.Transparency += 10
	case team < 50:
		f.Transparency -= 15
	}

	switch sec := len(content.SecurityInfo); {
	case sec > 300:
		f.SecurityDocumentation += 10
	case sec == 0:
		f.SecurityDocumentation -= 15
	}

	switch social := len(content.SocialLinks); {
	case social >= 3:
		f.CommunityEngagement += 10
	case social == 0:
		f.CommunityEngagement -= 10
	}

	if len(content.CodeRepositories) >= 1 {
		f.TechnicalImplementation += 10
	} else {
		f.TechnicalImplementation -= 10
	}

	f.DocumentationQuality = utils.Clamp(f.DocumentationQuality, 0, 100)
	f.Transparency = utils.Clamp(f.Transparency, 0, 100)
	f.SecurityDocumentation = utils.Clamp(f.SecurityDocumentation, 0, 100)
	f.CommunityEngagement = utils.Clamp(f.CommunityEngagement, 0, 100)
	f.TechnicalImplementation = utils.Clamp(f.TechnicalImplementation, 0, 100)
}

func (r *Reconciler) confidenceLevel(consistency float64, issueCount, mainLen int) models.ConfidenceLevel {
	switch {
	case consistency >= 90 && issueCount < 2 && mainLen > 2000:
		return models.ConfidenceHigh
	case consistency < 70 || issueCount > 5 || mainLen < 500:
		return models.ConfidenceLow
	default:
		return models.ConfidenceMedium
	}
}
