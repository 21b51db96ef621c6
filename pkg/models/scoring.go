package models

import "time"

// AnalysisFactors holds the five scored dimensions, each on a 0-100 scale.
// Two independent instances exist per audit (AI-derived and pattern-derived)
// before reconciliation merges them.
type AnalysisFactors struct {
	DocumentationQuality    float64 `json:"documentation_quality" yaml:"documentation_quality"`
	Transparency            float64 `json:"transparency" yaml:"transparency"`
	SecurityDocumentation   float64 `json:"security_documentation" yaml:"security_documentation"`
	CommunityEngagement     float64 `json:"community_engagement" yaml:"community_engagement"`
	TechnicalImplementation float64 `json:"technical_implementation" yaml:"technical_implementation"`

	Explanations map[string]string `json:"explanations,omitempty" yaml:"explanations,omitempty"`
}

// AsMap returns the factor values keyed by canonical factor name.
func (f *AnalysisFactors) AsMap() map[string]float64 {
	return map[string]float64{
		"documentation_quality":    f.DocumentationQuality,
		"transparency":             f.Transparency,
		"security_documentation":   f.SecurityDocumentation,
		"community_engagement":     f.CommunityEngagement,
		"technical_implementation": f.TechnicalImplementation,
	}
}

type AdjustmentKind string

const (
	AdjustmentPenalty AdjustmentKind = "penalty"
	AdjustmentBonus   AdjustmentKind = "bonus"
	AdjustmentCap     AdjustmentKind = "cap"
)

type AdjustmentSeverity string

const (
	SeverityMinor    AdjustmentSeverity = "minor"
	SeverityModerate AdjustmentSeverity = "moderate"
	SeverityCritical AdjustmentSeverity = "critical"
)

// ScoreAdjustment is one atomic delta applied to the running trust score.
// The ledger is append-only and ordered; it is part of the auditable output.
type ScoreAdjustment struct {
	Factor     string             `json:"factor" yaml:"factor"`
	Delta      float64            `json:"delta" yaml:"delta"`
	Reason     string             `json:"reason" yaml:"reason"`
	Kind       AdjustmentKind     `json:"kind" yaml:"kind"`
	Severity   AdjustmentSeverity `json:"severity" yaml:"severity"`
}

type RiskTier string

const (
	RiskHigh    RiskTier = "HIGH"
	RiskMedium  RiskTier = "MEDIUM"
	RiskLow     RiskTier = "LOW"
	RiskTrusted RiskTier = "TRUSTED"
)

// TrustScoreResult is the terminal artifact of the scoring pipeline.
type TrustScoreResult struct {
	Score              float64           `json:"score" yaml:"score"`
	RiskTier           RiskTier          `json:"risk_tier" yaml:"risk_tier"`
	Confidence         float64           `json:"confidence" yaml:"confidence"`
	Factors            AnalysisFactors   `json:"factors" yaml:"factors"`
	Adjustments        []ScoreAdjustment `json:"adjustments" yaml:"adjustments"`
	BaseScore          float64           `json:"base_score" yaml:"base_score"`
	RedFlags           []string          `json:"red_flags" yaml:"red_flags"`
	PositiveIndicators []string          `json:"positive_indicators" yaml:"positive_indicators"`
}

type QualityTier string

const (
	QualityHigh         QualityTier = "high"
	QualityMedium       QualityTier = "medium"
	QualityLow          QualityTier = "low"
	QualityInsufficient QualityTier = "insufficient"
)

type ValidationMetrics struct {
	WordCount           int     `json:"word_count" yaml:"word_count"`
	DocumentationCount  int     `json:"documentation_count" yaml:"documentation_count"`
	DuplicateRatio      float64 `json:"duplicate_ratio" yaml:"duplicate_ratio"`
	StructuredRatio     float64 `json:"structured_ratio" yaml:"structured_ratio"`
	SocialLinkCount     int     `json:"social_link_count" yaml:"social_link_count"`
	RepositoryCount     int     `json:"repository_count" yaml:"repository_count"`
}

// ValidationResult is derived purely from ExtractedContent.
type ValidationResult struct {
	Quality         QualityTier       `json:"quality" yaml:"quality"`
	Score           float64           `json:"score" yaml:"score"`
	Valid           bool              `json:"valid" yaml:"valid"`
	Issues          []string          `json:"issues" yaml:"issues"`
	Recommendations []string          `json:"recommendations" yaml:"recommendations"`
	Metrics         ValidationMetrics `json:"metrics" yaml:"metrics"`
}

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

type ProjectType string

const (
	ProjectDeFi      ProjectType = "defi"
	ProjectPortfolio ProjectType = "portfolio"
	ProjectBusiness  ProjectType = "business"
	ProjectGeneral   ProjectType = "general"
)

// AuditReport is the serializable output consumed by the reporting layer.
type AuditReport struct {
	AuditID         string             `json:"audit_id" yaml:"audit_id"`
	URL             string             `json:"url" yaml:"url"`
	ProjectType     ProjectType        `json:"project_type" yaml:"project_type"`
	Result          TrustScoreResult   `json:"result" yaml:"result"`
	Validation      ValidationResult   `json:"validation" yaml:"validation"`
	Verification    VerificationSummary `json:"verification" yaml:"verification"`
	Crawl           DeepCrawlFindings  `json:"crawl" yaml:"crawl"`
	Recommendations []string           `json:"recommendations" yaml:"recommendations"`
	Risks           []string           `json:"risks" yaml:"risks"`
	ReconcileIssues []string           `json:"reconcile_issues" yaml:"reconcile_issues"`
	ReconcileLevel  ConfidenceLevel    `json:"reconcile_confidence" yaml:"reconcile_confidence"`
	AIAvailable     bool               `json:"ai_available" yaml:"ai_available"`
	Duration        time.Duration      `json:"duration" yaml:"duration"`
	GeneratedAt     time.Time          `json:"generated_at" yaml:"generated_at"`
}
