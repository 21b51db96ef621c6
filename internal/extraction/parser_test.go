package extraction

import (
	"strings"
	"testing"

	"github.com/veridianlabs/trustlens/pkg/models"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title>Nimbus Finance - Decentralized Lending</title>
	<meta name="description" content="Nimbus Finance is a decentralized lending protocol with audited smart contracts.">
	<script>console.log("tracking");</script>
	<style>body { color: red; }</style>
</head>
<body>
	<h1>Nimbus Finance</h1>
	<main>
		<article>Nimbus Finance lets anyone supply assets to permissionless lending pools and earn yield.
		The protocol is governed by NMB token holders through on-chain voting and has been live on mainnet
		since 2024 with full documentation for integrators.</article>
		<section id="team" class="team">Our team: Ada Kovacs (CEO, ex-Chainlink), Leo Martin (CTO).
		Both founders maintain public LinkedIn profiles.</section>
		<section id="tokenomics">Total supply 100M NMB. 40% community, 25% treasury, 20% team with
		4-year vesting, 15% investors.</section>
		<section id="security">Audited by CertiK and Trail of Bits. Active bug bounty on Immunefi
		with rewards up to $500k.</section>
	</main>
	<footer>
		<a href="https://twitter.com/nimbusfi">Twitter</a>
		<a href="https://discord.gg/nimbus">Discord</a>
		<a href="https://github.com/nimbus-finance/core">GitHub</a>
		<a href="https://github.com/nimbus-finance/core">GitHub again</a>
		<a href="#top">Back to top</a>
	</footer>
</body>
</html>`

func TestParseStructuredPage(t *testing.T) {
	p := NewParser(nil)
	content, err := p.Parse(samplePage, "https://nimbus.finance", models.MethodPrimary)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if content.Title != "Nimbus Finance - Decentralized Lending" {
		t.Errorf("Title = %q", content.Title)
	}
	if !strings.Contains(content.Description, "decentralized lending protocol") {
		t.Errorf("Description = %q", content.Description)
	}
	if !strings.Contains(content.TeamInfo, "Ada Kovacs") {
		t.Errorf("TeamInfo = %q", content.TeamInfo)
	}
	if !strings.Contains(content.Tokenomics, "Total supply 100M NMB") {
		t.Errorf("Tokenomics = %q", content.Tokenomics)
	}
	if !strings.Contains(content.SecurityInfo, "CertiK") {
		t.Errorf("SecurityInfo = %q", content.SecurityInfo)
	}
	if len(content.Documentation) == 0 {
		t.Fatal("no documentation blocks extracted")
	}
	if content.Method != models.MethodPrimary {
		t.Errorf("Method = %s", content.Method)
	}
	if content.ContentLength != content.TextLength() {
		t.Errorf("ContentLength = %d, want %d", content.ContentLength, content.TextLength())
	}
	if strings.Contains(content.MainContent, "tracking") {
		t.Error("script content leaked into main content")
	}
}

func TestParseExternalLinks(t *testing.T) {
	p := NewParser(nil)
	content, err := p.Parse(samplePage, "https://nimbus.finance", models.MethodPrimary)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if len(content.SocialLinks) != 2 {
		t.Errorf("SocialLinks = %v, want twitter and discord", content.SocialLinks)
	}
	if len(content.CodeRepositories) != 1 {
		t.Errorf("CodeRepositories = %v, want one deduplicated github link", content.CodeRepositories)
	}
}

func TestParseFallsBackToBodyText(t *testing.T) {
	markup := `<html><body>
	<div>Short page with no article or section structure at all, just a plain div
	holding a couple of sentences about the project and nothing else worth extracting.</div>
	</body></html>`

	p := NewParser(nil)
	content, err := p.Parse(markup, "https://example.com", models.MethodMinimal)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !strings.Contains(content.MainContent, "plain div") {
		t.Errorf("fallback main content missing body text: %q", content.MainContent)
	}
}

func TestParseCapsDocumentationBlocks(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body><main>")
	for i := 0; i < 20; i++ {
		b.WriteString("<article>Distinct block number ")
		b.WriteString(strings.Repeat(string(rune('a'+i)), 90))
		b.WriteString("</article>")
	}
	b.WriteString("</main></body></html>")

	p := NewParser(nil)
	content, err := p.Parse(b.String(), "https://example.com", models.MethodPrimary)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(content.Documentation) > 10 {
		t.Errorf("documentation blocks = %d, want at most 10", len(content.Documentation))
	}
}

func TestParseEmptyMarkup(t *testing.T) {
	p := NewParser(nil)
	content, err := p.Parse("", "https://example.com", models.MethodMinimal)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if content.MainContent != "" || content.Title != "" {
		t.Errorf("empty markup should yield empty fields, got title=%q main=%q", content.Title, content.MainContent)
	}
}
