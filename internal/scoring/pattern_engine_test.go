package scoring

import (
	"strings"
	"testing"

	"github.com/veridianlabs/trustlens/pkg/models"
)

func TestScoreAppliesFloors(t *testing.T) {
	engine := NewPatternEngine(nil)
	factors := engine.Score(&models.ExtractedContent{})

	tests := []struct {
		factor string
		got    float64
		floor  float64
	}{
		{"documentation_quality", factors.DocumentationQuality, 40},
		{"transparency", factors.Transparency, 35},
		{"security_documentation", factors.SecurityDocumentation, 30},
		{"community_engagement", factors.CommunityEngagement, 40},
		{"technical_implementation", factors.TechnicalImplementation, 35},
	}
	for _, tt := range tests {
		t.Run(tt.factor, func(t *testing.T) {
			if tt.got != tt.floor {
				t.Errorf("empty content %s = %.0f, want floor %.0f", tt.factor, tt.got, tt.floor)
			}
		})
	}
}

func TestScoreRewardsEvidence(t *testing.T) {
	engine := NewPatternEngine(nil)

	sparse := engine.Score(&models.ExtractedContent{MainContent: "hello world"})
	rich := engine.Score(&models.ExtractedContent{
		MainContent: "Full documentation with whitepaper, tutorial, guide, api reference, faq and roadmap. " +
			strings.Repeat("The protocol architecture is described in depth. ", 12),
		Documentation: []string{strings.Repeat("getting started guide with changelog ", 20)},
		SecurityInfo:  "audited by certik, bug bounty, responsible disclosure, multisig, timelock " + strings.Repeat("security policy details ", 15),
		TeamInfo:      strings.Repeat("team founder linkedin advisors contact ", 20),
		SocialLinks:   []string{"https://twitter.com/x", "https://discord.gg/x"},
	})

	if rich.DocumentationQuality <= sparse.DocumentationQuality {
		t.Errorf("documentation: rich %.0f <= sparse %.0f", rich.DocumentationQuality, sparse.DocumentationQuality)
	}
	if rich.SecurityDocumentation <= sparse.SecurityDocumentation {
		t.Errorf("security: rich %.0f <= sparse %.0f", rich.SecurityDocumentation, sparse.SecurityDocumentation)
	}
	for factor, v := range rich.AsMap() {
		if v < 0 || v > 100 {
			t.Errorf("%s = %.0f, out of [0,100]", factor, v)
		}
	}
	if len(rich.Explanations) != 5 {
		t.Errorf("Explanations = %v, want one per factor", rich.Explanations)
	}
}

func TestClassifyProjectType(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    models.ProjectType
	}{
		{
			name:    "strong defi signal",
			content: "Deposit into our liquidity pool and earn fees from swaps.",
			want:    models.ProjectDeFi,
		},
		{
			name:    "two moderate defi signals",
			content: "Connect your wallet to claim the airdrop before launch.",
			want:    models.ProjectDeFi,
		},
		{
			name:    "chain address",
			content: "Token contract: 0x1234567890abcdef1234567890abcdef12345678 verified.",
			want:    models.ProjectDeFi,
		},
		{
			name: "portfolio anti-signals win",
			content: "My projects and portfolio: I built a token swap demo as a side project. " +
				"See my resume, my work history, and hire me for freelance engagements.",
			want: models.ProjectPortfolio,
		},
		{
			name: "business site",
			content: "Our services include consulting and case studies for enterprise clients. " +
				"Request a quote or book a demo.",
			want: models.ProjectBusiness,
		},
		{
			name:    "plain general site",
			content: "A community cookbook of family recipes collected over decades.",
			want:    models.ProjectGeneral,
		},
		{
			name:    "single moderate signal stays general",
			content: "We wrote about blockchain in one article.",
			want:    models.ProjectGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyProjectType(&models.ExtractedContent{MainContent: tt.content})
			if got != tt.want {
				t.Errorf("ClassifyProjectType = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetectRedFlags(t *testing.T) {
	content := &models.ExtractedContent{
		MainContent: "Guaranteed returns of 1000% APY! Limited time only, act now. " +
			"Our anonymous team is unaudited but backed by coinbase.",
		TeamInfo: "anon",
	}
	flags := DetectRedFlags(content, models.ProjectDeFi)

	want := []string{
		"guaranteed returns promised",
		"unrealistic yield claims",
		"urgency pressure tactics",
		"anonymous team",
		"no audit disclosed",
		"unverified partnership claims",
		"no team information",
	}
	got := make(map[string]bool, len(flags))
	for _, f := range flags {
		got[f] = true
	}
	for _, w := range want {
		if !got[w] {
			t.Errorf("missing expected flag %q in %v", w, flags)
		}
	}
}

func TestDetectRedFlagsProjectTypeScoping(t *testing.T) {
	content := &models.ExtractedContent{
		MainContent: "Earn 500% returns on your investment portfolio, see my projects.",
		TeamInfo:    strings.Repeat("Jane Doe, freelance developer. ", 5),
	}

	defiFlags := DetectRedFlags(content, models.ProjectDeFi)
	portfolioFlags := DetectRedFlags(content, models.ProjectPortfolio)

	has := func(flags []string, name string) bool {
		for _, f := range flags {
			if f == name {
				return true
			}
		}
		return false
	}
	if !has(defiFlags, "unrealistic yield claims") {
		t.Errorf("defi flags missing yield claim: %v", defiFlags)
	}
	if has(portfolioFlags, "unrealistic yield claims") {
		t.Errorf("yield claim rule must not fire for portfolio sites: %v", portfolioFlags)
	}
	if has(portfolioFlags, "no security documentation") {
		t.Errorf("security absence rule must not fire for portfolio sites: %v", portfolioFlags)
	}
}

func TestDetectPositiveIndicators(t *testing.T) {
	content := &models.ExtractedContent{
		SecurityInfo: "Audited by Trail of Bits. Bug bounty live. Treasury secured by gnosis safe multisig with timelock.",
		MainContent:  "Fully open source on github.com with an active changelog. Governance via dao votes.",
	}
	indicators := DetectPositiveIndicators(content)

	want := []string{
		"audited by trail of bits",
		"bug bounty program",
		"open source code",
		"on-chain governance",
		"multisig treasury",
		"timelocked contracts",
		"active development",
	}
	got := make(map[string]bool, len(indicators))
	for _, ind := range indicators {
		got[ind] = true
	}
	for _, w := range want {
		if !got[w] {
			t.Errorf("missing expected indicator %q in %v", w, indicators)
		}
	}
}

func TestDetectPositiveIndicatorsEmpty(t *testing.T) {
	if got := DetectPositiveIndicators(&models.ExtractedContent{MainContent: "nothing notable"}); len(got) != 0 {
		t.Errorf("indicators = %v, want none", got)
	}
}
