package validation

import (
	"strings"
	"testing"

	"github.com/veridianlabs/trustlens/pkg/models"
)

func richContent() *models.ExtractedContent {
	sentences := []string{
		"Nimbus Finance is a decentralized lending protocol deployed on mainnet.",
		"Suppliers earn yield from overcollateralized borrowers across isolated pools.",
		"The protocol parameters are controlled by token holder governance votes.",
		"All core contracts have been audited twice by independent security firms.",
		"Liquidations are executed by a permissionless keeper network with bonuses.",
		"Interest rates follow a kinked utilization curve tuned per asset class.",
		"The treasury retains protocol reserves to backstop shortfall events fully.",
		"Documentation covers integration guides for wallets and aggregators alike.",
		"A public bug bounty program pays for responsibly disclosed vulnerabilities.",
		"Oracle prices come from redundant feeds with deviation circuit breakers.",
		"Deposits are tokenized as interest bearing receipts for composability.",
		"Borrow caps limit exposure to long tail collateral across every market.",
		"Emergency guardians can pause markets but never seize any user funds.",
		"Protocol upgrades pass a two day timelock before they can be executed.",
		"Community calls are held monthly with published notes and recordings.",
		"The token distribution vested over four years for the founding team.",
		"Revenue sharing directs a fraction of interest income to stakers.",
		"Risk parameters are reviewed quarterly with third party consultants.",
		"The frontend is open source and reproducible from the public repo.",
		"Subgraph indexes every market event for analytics and monitoring.",
	}
	main := strings.Join(sentences, " ")

	return &models.ExtractedContent{
		Title:         "Nimbus Finance - Decentralized Lending Protocol",
		Description:   "A decentralized lending protocol with audited smart contracts and open governance.",
		MainContent:   main,
		Documentation: []string{main[:400], sentences[5] + " " + sentences[6] + " " + sentences[7]},
		TeamInfo:      "Ada Kovacs (CEO, ex-Chainlink) and Leo Martin (CTO) lead a team of twelve engineers.",
		Tokenomics:    "Total supply 100M NMB: 40% community, 25% treasury, 20% team vested, 15% investors.",
		SecurityInfo:  "Audited by CertiK and Trail of Bits. Bug bounty on Immunefi up to $500k.",
		SocialLinks:   []string{"https://twitter.com/nimbusfi", "https://discord.gg/nimbus"},
		CodeRepositories: []string{
			"https://github.com/nimbus-finance/core",
		},
	}
}

func TestValidateHighQuality(t *testing.T) {
	result := Validate(richContent())

	if result.Quality != models.QualityHigh {
		t.Errorf("Quality = %s (score %.0f, issues %v), want %s",
			result.Quality, result.Score, result.Issues, models.QualityHigh)
	}
	if !result.Valid {
		t.Error("rich content should be valid")
	}
	if len(result.Issues) != 0 {
		t.Errorf("unexpected issues: %v", result.Issues)
	}
}

func TestValidatePenalties(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ExtractedContent)
		delta  float64
		issue  string
	}{
		{
			name:   "missing title",
			mutate: func(c *models.ExtractedContent) { c.Title = "x" },
			delta:  10,
			issue:  "title",
		},
		{
			name:   "missing description",
			mutate: func(c *models.ExtractedContent) { c.Description = "" },
			delta:  10,
			issue:  "description",
		},
		{
			// Dropping the documentation also pushes the structured ratio
			// below its floor, so both penalties apply.
			name:   "no documentation",
			mutate: func(c *models.ExtractedContent) { c.Documentation = nil },
			delta:  30,
			issue:  "documentation",
		},
		{
			name:   "thin team info",
			mutate: func(c *models.ExtractedContent) { c.TeamInfo = "team" },
			delta:  15,
			issue:  "team",
		},
		{
			name:   "thin tokenomics",
			mutate: func(c *models.ExtractedContent) { c.Tokenomics = "" },
			delta:  15,
			issue:  "tokenomics",
		},
		{
			name:   "no social links",
			mutate: func(c *models.ExtractedContent) { c.SocialLinks = nil },
			delta:  10,
			issue:  "social",
		},
		{
			name:   "no repositories",
			mutate: func(c *models.ExtractedContent) { c.CodeRepositories = nil },
			delta:  10,
			issue:  "repositories",
		},
	}

	baseline := Validate(richContent()).Score
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := richContent()
			tt.mutate(content)
			result := Validate(content)

			if got := baseline - result.Score; got != tt.delta {
				t.Errorf("penalty = %.0f, want %.0f (issues %v)", got, tt.delta, result.Issues)
			}
			found := false
			for _, issue := range result.Issues {
				if strings.Contains(issue, tt.issue) {
					found = true
				}
			}
			if !found {
				t.Errorf("issue mentioning %q not reported: %v", tt.issue, result.Issues)
			}
		})
	}
}

func TestValidateDuplicatePenalty(t *testing.T) {
	content := richContent()
	dup := "This exact sentence repeats itself over and over again in the body. "
	content.MainContent = strings.Repeat(dup, 40)

	result := Validate(content)
	if result.Metrics.DuplicateRatio <= duplicateRatioLimit {
		t.Fatalf("DuplicateRatio = %.2f, expected above limit", result.Metrics.DuplicateRatio)
	}
	found := false
	for _, issue := range result.Issues {
		if strings.Contains(issue, "duplicate") {
			found = true
		}
	}
	if !found {
		t.Errorf("duplicate issue not reported: %v", result.Issues)
	}
}

func TestValidateEmptyContent(t *testing.T) {
	result := Validate(&models.ExtractedContent{})

	if result.Quality != models.QualityInsufficient {
		t.Errorf("Quality = %s, want %s", result.Quality, models.QualityInsufficient)
	}
	if result.Valid {
		t.Error("empty content must be invalid")
	}
	if result.Score < 0 {
		t.Errorf("Score = %.0f, must not go below zero", result.Score)
	}
}

func TestValidateDeterministic(t *testing.T) {
	content := richContent()
	first := Validate(content)
	second := Validate(content)

	if first.Score != second.Score || first.Quality != second.Quality {
		t.Errorf("validation not deterministic: %.0f/%s vs %.0f/%s",
			first.Score, first.Quality, second.Score, second.Quality)
	}
}

func TestDuplicateRatioFewSentences(t *testing.T) {
	if got := duplicateRatio("One single qualifying sentence that is long enough."); got != 0 {
		t.Errorf("duplicateRatio = %.2f, want 0 for fewer than two sentences", got)
	}
}
