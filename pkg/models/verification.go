package models

import "time"

// IdentityCheck records the outcome of one read-only external lookup.
// A failed lookup is recorded, never dropped.
type IdentityCheck struct {
	URL            string    `json:"url" yaml:"url"`
	CanonicalID    string    `json:"canonical_id,omitempty" yaml:"canonical_id,omitempty"`
	Verified       bool      `json:"verified" yaml:"verified"`
	RecentActivity bool      `json:"recent_activity" yaml:"recent_activity"`
	LastActivity   time.Time `json:"last_activity,omitempty" yaml:"last_activity,omitempty"`
	Error          string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// DomainEvidence holds weak supplementary signals from DNS lookups against
// the audited domain.
type DomainEvidence struct {
	Domain     string `json:"domain" yaml:"domain"`
	Resolves   bool   `json:"resolves" yaml:"resolves"`
	HasMX      bool   `json:"has_mx" yaml:"has_mx"`
	HasTXT     bool   `json:"has_txt" yaml:"has_txt"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// VerificationSummary aggregates the external evidence checks for one audit.
type VerificationSummary struct {
	Profiles     []IdentityCheck `json:"profiles" yaml:"profiles"`
	Repositories []IdentityCheck `json:"repositories" yaml:"repositories"`
	Domain       DomainEvidence  `json:"domain" yaml:"domain"`
	Score        float64         `json:"score" yaml:"score"`
	Summary      string          `json:"summary,omitempty" yaml:"summary,omitempty"`
	VerifiedAt   time.Time       `json:"verified_at" yaml:"verified_at"`
}

// Counts tallies verified and recently-active checks per category.
func (v *VerificationSummary) Counts() (profilesVerified, profilesActive, reposVerified, reposActive int) {
	for _, p := range v.Profiles {
		if p.Verified {
			profilesVerified++
			if p.RecentActivity {
				profilesActive++
			}
		}
	}
	for _, r := range v.Repositories {
		if r.Verified {
			reposVerified++
			if r.RecentActivity {
				reposActive++
			}
		}
	}
	return
}
