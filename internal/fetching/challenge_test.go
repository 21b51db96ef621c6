package fetching

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIsChallenge(t *testing.T) {
	m := NewChallengeMitigator(time.Millisecond, nil)

	tests := []struct {
		name   string
		markup string
		want   bool
	}{
		{"cloudflare interstitial", "<title>Just a moment...</title>", true},
		{"human verification", "<p>Verify you are human by completing the action below.</p>", true},
		{"turnstile widget", "<div class='cf-turnstile'></div>", true},
		{"hcaptcha", "<div class='h-captcha' data-sitekey='x'>hcaptcha</div>", true},
		{"normal page", "<html><body><h1>DeFi Protocol</h1><p>Lending made simple.</p></body></html>", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.IsChallenge(tt.markup); got != tt.want {
				t.Errorf("IsChallenge() = %v, want %v", got, tt.want)
			}
		})
	}
}

type stubInteractor struct {
	clicks     []string
	clickErr   error
	content    string
	contentErr error
}

func (s *stubInteractor) Click(ctx context.Context, selector string) error {
	s.clicks = append(s.clicks, selector)
	return s.clickErr
}

func (s *stubInteractor) Content(ctx context.Context) (string, error) {
	return s.content, s.contentErr
}

func TestMitigatePassesNormalContentThrough(t *testing.T) {
	m := NewChallengeMitigator(time.Millisecond, nil)
	page := &stubInteractor{}

	got := m.Mitigate(context.Background(), page, "<html><body>real content</body></html>")
	if got != "<html><body>real content</body></html>" {
		t.Errorf("content changed: %q", got)
	}
	if len(page.clicks) != 0 {
		t.Errorf("unexpected interactions: %v", page.clicks)
	}
}

func TestMitigateWithoutLivePage(t *testing.T) {
	m := NewChallengeMitigator(time.Millisecond, nil)
	markup := "<title>Just a moment...</title>"

	if got := m.Mitigate(context.Background(), nil, markup); got != markup {
		t.Errorf("nil interactor should pass content through, got %q", got)
	}
}

func TestMitigateClearsChallenge(t *testing.T) {
	m := NewChallengeMitigator(time.Millisecond, nil)
	page := &stubInteractor{content: "<html><body>cleared content after verification</body></html>"}

	got := m.Mitigate(context.Background(), page, "<p>verify you are human</p>")
	if got != page.content {
		t.Errorf("Mitigate = %q, want cleared content", got)
	}
	if len(page.clicks) == 0 {
		t.Error("expected at least one interaction attempt")
	}
}

func TestMitigateNeverFails(t *testing.T) {
	m := NewChallengeMitigator(time.Millisecond, nil)
	page := &stubInteractor{clickErr: errors.New("selector not found")}
	markup := "<p>checking your browser before accessing</p>"

	if got := m.Mitigate(context.Background(), page, markup); got != markup {
		t.Errorf("failed mitigation should return the original content, got %q", got)
	}
}
