package extraction

import (
	"testing"

	"github.com/veridianlabs/trustlens/pkg/models"
)

func TestDiscoverLinks(t *testing.T) {
	markup := `<html><body>
	<a href="/team">Meet the team</a>
	<a href="/security/audits">Audits</a>
	<a href="https://docs.nimbus.finance/getting-started">Docs</a>
	<a href="/governance">Governance</a>
	<a href="https://evil.example.com/team">External team page</a>
	<a href="/aboutique">Shop</a>
	<a href="/blog/post-1">Some post</a>
	<a href="mailto:hi@nimbus.finance">Mail</a>
	<a href="#team">Anchor</a>
	<a href="/team">Meet the team duplicate</a>
	</body></html>`

	links, err := DiscoverLinks(markup, "https://nimbus.finance")
	if err != nil {
		t.Fatalf("DiscoverLinks returned error: %v", err)
	}

	byURL := make(map[string]models.LinkCategory, len(links))
	for _, l := range links {
		if _, dup := byURL[l.URL]; dup {
			t.Errorf("duplicate link emitted: %s", l.URL)
		}
		byURL[l.URL] = l.Category
	}

	tests := []struct {
		url  string
		want models.LinkCategory
	}{
		{"https://nimbus.finance/team", models.CategoryTeam},
		{"https://nimbus.finance/security/audits", models.CategorySecurity},
		{"https://docs.nimbus.finance/getting-started", models.CategoryDocs},
		{"https://nimbus.finance/governance", models.CategoryGovernance},
	}
	for _, tt := range tests {
		got, ok := byURL[tt.url]
		if !ok {
			t.Errorf("missing expected link %s (got %v)", tt.url, byURL)
			continue
		}
		if got != tt.want {
			t.Errorf("category for %s = %s, want %s", tt.url, got, tt.want)
		}
	}

	if _, ok := byURL["https://evil.example.com/team"]; ok {
		t.Error("link outside the registrable domain should be discarded")
	}
	if _, ok := byURL["https://nimbus.finance/aboutique"]; ok {
		t.Error("keyword must match on token boundaries, not substrings")
	}
	if _, ok := byURL["https://nimbus.finance/blog/post-1"]; ok {
		t.Error("uncategorizable links should be dropped")
	}
}

func TestDiscoverLinksSubdomainIsSameSite(t *testing.T) {
	markup := `<a href="https://app.nimbus.finance/docs">App docs</a>`
	links, err := DiscoverLinks(markup, "https://nimbus.finance")
	if err != nil {
		t.Fatalf("DiscoverLinks returned error: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("links = %v, want the app subdomain link kept", links)
	}
}

func TestDiscoverLinksAnchorTextCategorizes(t *testing.T) {
	markup := `<a href="/page-7">Our security audit report</a>`
	links, err := DiscoverLinks(markup, "https://nimbus.finance")
	if err != nil {
		t.Fatalf("DiscoverLinks returned error: %v", err)
	}
	if len(links) != 1 || links[0].Category != models.CategorySecurity {
		t.Errorf("links = %v, want one security link categorized by anchor text", links)
	}
}

func TestConventionalLinks(t *testing.T) {
	links := ConventionalLinks("https://nimbus.finance")
	if len(links) != len(conventionalPaths) {
		t.Fatalf("got %d links, want %d", len(links), len(conventionalPaths))
	}
	if links[0].URL != "https://nimbus.finance/team" {
		t.Errorf("first conventional link = %s", links[0].URL)
	}

	if got := ConventionalLinks("://bad"); got != nil {
		t.Errorf("invalid base should return nil, got %v", got)
	}
}

func TestCategorizePrecedence(t *testing.T) {
	// A link matching both team and docs keywords takes the team category.
	markup := `<a href="/team/docs">Team documentation</a>`
	links, err := DiscoverLinks(markup, "https://nimbus.finance")
	if err != nil {
		t.Fatalf("DiscoverLinks returned error: %v", err)
	}
	if len(links) != 1 || links[0].Category != models.CategoryTeam {
		t.Errorf("links = %v, want team category to win", links)
	}
}
