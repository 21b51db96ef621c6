package fetching

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/veridianlabs/trustlens/pkg/models"
)

type stubStrategy struct {
	name    string
	method  models.ExtractionMethod
	markup  string
	err     error
	calls   int
	perCall []stubResponse
}

type stubResponse struct {
	markup string
	err    error
}

func (s *stubStrategy) Name() string                    { return s.name }
func (s *stubStrategy) Method() models.ExtractionMethod { return s.method }

func (s *stubStrategy) Fetch(ctx context.Context, url string, sess *Session) (string, Interactor, error) {
	s.calls++
	if len(s.perCall) > 0 {
		resp := s.perCall[0]
		if len(s.perCall) > 1 {
			s.perCall = s.perCall[1:]
		}
		return resp.markup, nil, resp.err
	}
	return s.markup, nil, s.err
}

func newTestExecutor(strategies []Strategy, maxRetries int) *Executor {
	return NewExecutorWithStrategies(strategies, nil, nil, maxRetries, time.Millisecond, 100, nil)
}

func page(n int) string {
	return "<html><body>" + strings.Repeat("content ", n) + "</body></html>"
}

func TestExecutorRejectsInvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"relative path", "/about"},
		{"missing scheme", "example.com"},
		{"ftp scheme", "ftp://example.com"},
		{"empty", ""},
	}

	exec := newTestExecutor([]Strategy{&stubStrategy{name: "primary", markup: page(50)}}, 3)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := exec.Fetch(context.Background(), tt.url)
			var ce *ClassifiedError
			if !errors.As(err, &ce) || ce.Kind != KindInvalidURL {
				t.Fatalf("Fetch(%q) error = %v, want %s", tt.url, err, KindInvalidURL)
			}
		})
	}
}

func TestExecutorFirstStrategyWins(t *testing.T) {
	primary := &stubStrategy{name: "primary", method: models.MethodPrimary, markup: page(50)}
	fallback := &stubStrategy{name: "fallback", method: models.MethodFallback, markup: page(50)}
	exec := newTestExecutor([]Strategy{primary, fallback}, 3)

	result, err := exec.Fetch(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Method != models.MethodPrimary {
		t.Errorf("Method = %s, want %s", result.Method, models.MethodPrimary)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback was called %d times, want 0", fallback.calls)
	}
}

func TestExecutorFallsThroughChain(t *testing.T) {
	primary := &stubStrategy{name: "primary", method: models.MethodPrimary, err: errors.New("browser closed")}
	fallback := &stubStrategy{name: "fallback", method: models.MethodFallback, err: errors.New("navigation timed out")}
	minimal := &stubStrategy{name: "minimal", method: models.MethodMinimal, markup: page(50)}
	exec := newTestExecutor([]Strategy{primary, fallback, minimal}, 1)

	result, err := exec.Fetch(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Method != models.MethodMinimal {
		t.Errorf("Method = %s, want %s", result.Method, models.MethodMinimal)
	}
	if primary.calls != 1 || fallback.calls != 1 || minimal.calls != 1 {
		t.Errorf("call counts = %d/%d/%d, want 1/1/1", primary.calls, fallback.calls, minimal.calls)
	}
}

func TestExecutorRetriesRetryableFailures(t *testing.T) {
	flaky := &stubStrategy{
		name:   "primary",
		method: models.MethodPrimary,
		perCall: []stubResponse{
			{err: errors.New("connection reset")},
			{markup: page(50)},
		},
	}
	exec := newTestExecutor([]Strategy{flaky}, 3)

	result, err := exec.Fetch(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if flaky.calls != 2 {
		t.Errorf("strategy called %d times, want 2", flaky.calls)
	}
	if result.URL != "https://example.com" {
		t.Errorf("URL = %s", result.URL)
	}
}

func TestExecutorDoesNotRetryTerminalFailures(t *testing.T) {
	denied := &stubStrategy{name: "primary", method: models.MethodPrimary,
		err: NewClassifiedError(KindAccessDenied, errors.New("status 403"))}
	exec := newTestExecutor([]Strategy{denied}, 3)

	_, err := exec.Fetch(context.Background(), "https://example.com")
	var ce *ClassifiedError
	if !errors.As(err, &ce) || ce.Kind != KindAccessDenied {
		t.Fatalf("error = %v, want %s", err, KindAccessDenied)
	}
	if denied.calls != 1 {
		t.Errorf("strategy called %d times, want 1", denied.calls)
	}
}

func TestExecutorRejectsSmallContent(t *testing.T) {
	thin := &stubStrategy{name: "primary", method: models.MethodPrimary, markup: "<html></html>"}
	exec := newTestExecutor([]Strategy{thin}, 1)

	_, err := exec.Fetch(context.Background(), "https://example.com")
	var ce *ClassifiedError
	if !errors.As(err, &ce) || ce.Kind != KindContentSmall {
		t.Fatalf("error = %v, want %s", err, KindContentSmall)
	}
}

func TestExecutorStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slow := &stubStrategy{name: "primary", method: models.MethodPrimary, markup: page(50)}
	exec := newTestExecutor([]Strategy{slow}, 3)

	_, err := exec.Fetch(ctx, "https://example.com")
	var ce *ClassifiedError
	if !errors.As(err, &ce) || ce.Kind != KindTimeout {
		t.Fatalf("error = %v, want %s", err, KindTimeout)
	}
}
