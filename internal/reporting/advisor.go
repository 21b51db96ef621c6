package reporting

import (
	"fmt"

	"github.com/veridianlabs/trustlens/pkg/models"
)

// Advisor derives the human-facing risk and recommendation lists from the
// scored result. Rules are ordered most severe first so the rendered lists
// read top-down.
type Advisor struct{}

func NewAdvisor() *Advisor { return &Advisor{} }

// Risks summarizes what a reader should worry about.
func (a *Advisor) Risks(report *models.AuditReport) []string {
	var risks []string

	switch report.Result.RiskTier {
	case models.RiskHigh:
		risks = append(risks, "overall trust score indicates a high-risk project")
	case models.RiskMedium:
		risks = append(risks, "overall trust score indicates meaningful unresolved risk")
	}

	for _, adj := range report.Result.Adjustments {
		if adj.Kind == models.AdjustmentCap && adj.Severity == models.SeverityCritical {
			risks = append(risks, "a critical red flag caps the achievable trust score")
			break
		}
	}
	for _, flag := range report.Result.RedFlags {
		risks = append(risks, fmt.Sprintf("red flag: %s", flag))
	}

	if report.Validation.Quality == models.QualityInsufficient {
		risks = append(risks, "extracted content was insufficient for a reliable assessment")
	}
	if report.ReconcileLevel == models.ConfidenceLow {
		risks = append(risks, "scoring confidence is low; treat the score as indicative only")
	}
	if !report.AIAvailable {
		risks = append(risks, "AI analysis was unavailable; the score rests on pattern rules alone")
	}
	return risks
}

// Recommendations suggests what the project could publish or fix to raise
// its score.
func (a *Advisor) Recommendations(report *models.AuditReport) []string {
	var recs []string
	f := report.Result.Factors

	if f.DocumentationQuality < 60 {
		recs = append(recs, "publish substantive documentation: whitepaper, guides, API reference")
	}
	if f.Transparency < 60 {
		recs = append(recs, "disclose the team with verifiable professional profiles")
	}
	if f.SecurityDocumentation < 60 {
		recs = append(recs, "publish security practices: audits, bug bounty, disclosure policy")
	}
	if f.CommunityEngagement < 60 {
		recs = append(recs, "maintain active, linked community channels")
	}
	if f.TechnicalImplementation < 60 {
		recs = append(recs, "link public code repositories with recent activity")
	}

	recs = append(recs, report.Validation.Recommendations...)

	if report.Verification.Score < 50 && len(report.Verification.Profiles)+len(report.Verification.Repositories) > 0 {
		recs = append(recs, "ensure linked external profiles and repositories exist and stay active")
	}
	return recs
}
