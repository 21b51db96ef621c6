package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/veridianlabs/trustlens/pkg/models"
	"github.com/veridianlabs/trustlens/pkg/utils"
)

// Factor weights for the base score.
const (
	weightDocumentation = 0.25
	weightTransparency  = 0.20
	weightSecurity      = 0.20
	weightCommunity     = 0.15
	weightTechnical     = 0.20
)

// Penalty and bonus magnitudes.
const (
	penaltyCritical      = 15
	penaltyInconsistency = 10
	penaltyModerate      = 8
	penaltyMinor         = 3

	bonusHighValue = 2.0
	bonusStandard  = 1.0
	bonusCapTotal  = 5.0

	criticalScoreCeiling = 40
)

// Calculator converts reconciled factors, red flags, and positive indicators
// into a bounded score with an itemized adjustment ledger. It is a pure
// function of its inputs; the three adjustment phases run in a fixed order
// because reordering changes the result.
type Calculator struct{}

func NewCalculator() *Calculator { return &Calculator{} }

// Calculate runs base score, red-flag penalties, capped bonuses, and the
// critical-flag ceiling, in that exact sequence.
func (c *Calculator) Calculate(factors *models.AnalysisFactors, redFlags, positiveIndicators []string, contentCompleteness float64, contentLength int) *models.TrustScoreResult {
	var ledger []models.ScoreAdjustment

	// Phase 1: weighted base.
	base := factors.DocumentationQuality*weightDocumentation +
		factors.Transparency*weightTransparency +
		factors.SecurityDocumentation*weightSecurity +
		factors.CommunityEngagement*weightCommunity +
		factors.TechnicalImplementation*weightTechnical
	score := base

	// Phase 2: red-flag penalties, cumulative, floored at zero.
	for _, flag := range redFlags {
		delta, severity := penaltyFor(flag)
		score -= delta
		if score < 0 {
			score = 0
		}
		ledger = append(ledger, models.ScoreAdjustment{
			Factor:   "red_flag",
			Delta:    -delta,
			Reason:   flag,
			Kind:     models.AdjustmentPenalty,
			Severity: severity,
		})
	}

	// Phase 3: positive-indicator bonuses. The summed bonus is capped, not
	// each contribution individually.
	var bonusTotal float64
	for _, indicator := range positiveIndicators {
		bonus := bonusStandard
		severity := models.SeverityMinor
		if matchesAny(indicator, highValueIndicators) {
			bonus = bonusHighValue
			severity = models.SeverityModerate
		}
		bonusTotal += bonus
		ledger = append(ledger, models.ScoreAdjustment{
			Factor:   "positive_indicator",
			Delta:    bonus,
			Reason:   indicator,
			Kind:     models.AdjustmentBonus,
			Severity: severity,
		})
	}
	if bonusTotal > bonusCapTotal {
		ledger = append(ledger, models.ScoreAdjustment{
			Factor:   "positive_indicator",
			Delta:    bonusCapTotal - bonusTotal,
			Reason:   fmt.Sprintf("bonus total %.1f capped at %.0f", bonusTotal, bonusCapTotal),
			Kind:     models.AdjustmentCap,
			Severity: models.SeverityMinor,
		})
		bonusTotal = bonusCapTotal
	}
	score += bonusTotal

	// Phase 4: critical-flag ceiling. A hard cap, not a delta.
	if hasCriticalFlag(redFlags) && score > criticalScoreCeiling {
		ledger = append(ledger, models.ScoreAdjustment{
			Factor:   "critical_cap",
			Delta:    criticalScoreCeiling - score,
			Reason:   "critical red flag caps the trust score",
			Kind:     models.AdjustmentCap,
			Severity: models.SeverityCritical,
		})
		score = criticalScoreCeiling
	}

	score = utils.Clamp(math.Round(score), 0, 100)

	return &models.TrustScoreResult{
		Score:              score,
		RiskTier:           tierFor(score),
		Confidence:         c.confidence(factors, contentCompleteness, contentLength),
		Factors:            *factors,
		Adjustments:        ledger,
		BaseScore:          base,
		RedFlags:           redFlags,
		PositiveIndicators: positiveIndicators,
	}
}

func penaltyFor(flag string) (float64, models.AdjustmentSeverity) {
	lower := strings.ToLower(flag)
	switch {
	case matchesAny(lower, criticalFlagVocabulary):
		return penaltyCritical, models.SeverityCritical
	case strings.Contains(lower, "inconsisten"):
		return penaltyInconsistency, models.SeverityModerate
	case matchesAny(lower, moderateFlagVocabulary):
		return penaltyModerate, models.SeverityModerate
	default:
		return penaltyMinor, models.SeverityMinor
	}
}

func hasCriticalFlag(flags []string) bool {
	for _, flag := range flags {
		if matchesAny(strings.ToLower(flag), criticalFlagVocabulary) {
			return true
		}
	}
	return false
}

func matchesAny(s string, vocabulary []string) bool {
	s = strings.ToLower(s)
	for _, word := range vocabulary {
		if strings.Contains(s, word) {
			return true
		}
	}
	return false
}

func tierFor(score float64) models.RiskTier {
	switch {
	case score < 30:
		return models.RiskHigh
	case score < 60:
		return models.RiskMedium
	case score < 80:
		return models.RiskLow
	default:
		return models.RiskTrusted
	}
}

// confidence is computed independently of the score: completeness (up to 30
// points), content length against a 5000-char reference (up to 20), and a
// penalty of up to 30 when fewer than 60% of factors are non-zero, all on a
// base of 50.
func (c *Calculator) confidence(factors *models.AnalysisFactors, completeness float64, contentLength int) float64 {
	conf := 50.0

	conf += utils.Clamp(completeness, 0, 100) * 0.30

	lengthRatio := float64(contentLength) / 5000
	if lengthRatio > 1 {
		lengthRatio = 1
	}
	conf += lengthRatio * 20

	nonZero := 0
	for _, v := range factors.AsMap() {
		if v > 0 {
			nonZero++
		}
	}
	ratio := float64(nonZero) / 5
	if ratio < 0.6 {
		conf -= (0.6 - ratio) / 0.6 * 30
	}

	return utils.Clamp(math.Round(conf), 0, 100)
}
