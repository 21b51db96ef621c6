package scoring

import (
	"testing"

	"github.com/veridianlabs/trustlens/pkg/models"
)

func factors(doc, trans, sec, comm, tech float64) *models.AnalysisFactors {
	return &models.AnalysisFactors{
		DocumentationQuality:    doc,
		Transparency:            trans,
		SecurityDocumentation:   sec,
		CommunityEngagement:     comm,
		TechnicalImplementation: tech,
	}
}

func TestCalculateWeightedBase(t *testing.T) {
	c := NewCalculator()
	result := c.Calculate(factors(80, 70, 60, 50, 90), nil, nil, 100, 5000)

	// 80*.25 + 70*.20 + 60*.20 + 50*.15 + 90*.20 = 71.5
	if result.BaseScore != 71.5 {
		t.Errorf("BaseScore = %.2f, want 71.5", result.BaseScore)
	}
	if result.Score != 72 {
		t.Errorf("Score = %.0f, want 72 after rounding", result.Score)
	}
	if result.RiskTier != models.RiskLow {
		t.Errorf("RiskTier = %s, want %s", result.RiskTier, models.RiskLow)
	}
	if len(result.Adjustments) != 0 {
		t.Errorf("Adjustments = %v, want empty ledger", result.Adjustments)
	}
}

func TestCalculatePenaltiesBySeverity(t *testing.T) {
	c := NewCalculator()
	tests := []struct {
		name string
		flag string
		want float64
	}{
		{"critical", "guaranteed returns promised", 70 - 15},
		{"inconsistency", "inconsistent team claims across pages", 70 - 10},
		{"moderate", "anonymous team", 70 - 8},
		{"minor", "vague roadmap wording", 70 - 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Calculate(factors(70, 70, 70, 70, 70), []string{tt.flag}, nil, 100, 5000)
			// Base is exactly 70; the critical case is additionally capped at 40.
			want := tt.want
			if tt.name == "critical" && want > criticalScoreCeiling {
				want = criticalScoreCeiling
			}
			if result.Score != want {
				t.Errorf("Score = %.0f, want %.0f", result.Score, want)
			}
		})
	}
}

func TestCalculatePenaltiesFloorAtZero(t *testing.T) {
	c := NewCalculator()
	flags := []string{
		"guaranteed returns promised",
		"honeypot contract detected",
		"exit scam history",
		"rug pull indicators",
	}
	result := c.Calculate(factors(10, 10, 10, 10, 10), flags, nil, 0, 100)

	if result.Score < 0 {
		t.Errorf("Score = %.0f, must never go below zero", result.Score)
	}
	if len(result.Adjustments) != len(flags) {
		t.Errorf("ledger entries = %d, want %d", len(result.Adjustments), len(flags))
	}
}

func TestCalculateBonusCap(t *testing.T) {
	c := NewCalculator()
	// Three high-value indicators at +2 each exceed the +5 cap.
	indicators := []string{
		"audited by certik",
		"bug bounty program",
		"open source code",
	}
	result := c.Calculate(factors(90, 90, 90, 90, 90), nil, indicators, 100, 5000)

	if result.Score != 95 {
		t.Errorf("Score = %.0f, want 95 (90 base + capped bonus 5)", result.Score)
	}

	var capEntry *models.ScoreAdjustment
	for i := range result.Adjustments {
		if result.Adjustments[i].Kind == models.AdjustmentCap {
			capEntry = &result.Adjustments[i]
		}
	}
	if capEntry == nil {
		t.Fatal("cap ledger entry missing")
	}
	if capEntry.Delta != -1 {
		t.Errorf("cap delta = %.1f, want -1 (6 earned, 5 allowed)", capEntry.Delta)
	}
}

func TestCalculateBonusMagnitudes(t *testing.T) {
	c := NewCalculator()

	high := c.Calculate(factors(50, 50, 50, 50, 50), nil, []string{"audited by certik"}, 100, 5000)
	standard := c.Calculate(factors(50, 50, 50, 50, 50), nil, []string{"on-chain governance"}, 100, 5000)

	if high.Score != 52 {
		t.Errorf("high-value bonus score = %.0f, want 52", high.Score)
	}
	if standard.Score != 51 {
		t.Errorf("standard bonus score = %.0f, want 51", standard.Score)
	}
}

func TestCalculateCriticalCap(t *testing.T) {
	c := NewCalculator()

	// Strong factors cannot outrun a critical flag: 85.5 base - 15 = 70.5,
	// capped to exactly 40.
	result := c.Calculate(factors(90, 85, 80, 85, 85), []string{"guaranteed returns promised"}, nil, 100, 5000)
	if result.Score != 40 {
		t.Errorf("Score = %.0f, want exactly %d under a critical flag", result.Score, criticalScoreCeiling)
	}
	if result.RiskTier != models.RiskMedium {
		t.Errorf("RiskTier = %s, want %s", result.RiskTier, models.RiskMedium)
	}

	// Below the ceiling the cap does not lift the score.
	low := c.Calculate(factors(20, 20, 20, 20, 20), []string{"guaranteed returns promised"}, nil, 100, 5000)
	if low.Score >= 40 {
		t.Errorf("Score = %.0f, cap must never raise a score", low.Score)
	}
}

func TestCalculateBonusesCannotEscapeCriticalCap(t *testing.T) {
	c := NewCalculator()
	result := c.Calculate(
		factors(90, 90, 90, 90, 90),
		[]string{"guaranteed returns promised"},
		[]string{"audited by certik", "bug bounty program", "open source code"},
		100, 5000,
	)
	if result.Score != 40 {
		t.Errorf("Score = %.0f, want 40: the cap runs after bonuses", result.Score)
	}
}

func TestCalculateTiers(t *testing.T) {
	tests := []struct {
		score float64
		want  models.RiskTier
	}{
		{0, models.RiskHigh},
		{29, models.RiskHigh},
		{30, models.RiskMedium},
		{59, models.RiskMedium},
		{60, models.RiskLow},
		{79, models.RiskLow},
		{80, models.RiskTrusted},
		{100, models.RiskTrusted},
	}
	for _, tt := range tests {
		if got := tierFor(tt.score); got != tt.want {
			t.Errorf("tierFor(%.0f) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestCalculateDeterministic(t *testing.T) {
	c := NewCalculator()
	f := factors(73, 61, 48, 82, 55)
	flags := []string{"anonymous team", "no audit disclosed"}
	indicators := []string{"open source code", "on-chain governance"}

	first := c.Calculate(f, flags, indicators, 80, 3000)
	for i := 0; i < 10; i++ {
		again := c.Calculate(f, flags, indicators, 80, 3000)
		if again.Score != first.Score || again.Confidence != first.Confidence {
			t.Fatalf("run %d diverged: %.0f/%.0f vs %.0f/%.0f",
				i, again.Score, again.Confidence, first.Score, first.Confidence)
		}
		if len(again.Adjustments) != len(first.Adjustments) {
			t.Fatalf("ledger order/length diverged on run %d", i)
		}
	}
}

func TestCalculateConfidence(t *testing.T) {
	c := NewCalculator()

	full := c.Calculate(factors(80, 70, 60, 50, 90), nil, nil, 100, 5000)
	if full.Confidence != 100 {
		t.Errorf("Confidence = %.0f, want 100 for complete evidence", full.Confidence)
	}

	sparse := c.Calculate(factors(40, 0, 0, 0, 0), nil, nil, 0, 0)
	if sparse.Confidence >= full.Confidence {
		t.Errorf("sparse confidence %.0f should be below full %.0f", sparse.Confidence, full.Confidence)
	}
	if sparse.Confidence < 0 || sparse.Confidence > 100 {
		t.Errorf("Confidence = %.0f, out of [0,100]", sparse.Confidence)
	}
}

func TestCalculateScoreBounds(t *testing.T) {
	c := NewCalculator()
	tests := []struct {
		name    string
		factors *models.AnalysisFactors
	}{
		{"all zero", factors(0, 0, 0, 0, 0)},
		{"all max", factors(100, 100, 100, 100, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Calculate(tt.factors, nil, []string{"audited by certik", "bug bounty program", "open source code"}, 100, 5000)
			if result.Score < 0 || result.Score > 100 {
				t.Errorf("Score = %.0f, out of [0,100]", result.Score)
			}
		})
	}
}
