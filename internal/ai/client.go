package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/veridianlabs/trustlens/pkg/models"
)

// Classifier is the collaborator interface to the generative-AI service. The
// service may be entirely unavailable; callers hand the error to the
// reconciler's no-AI path.
type Classifier interface {
	Classify(ctx context.Context, promptContext string) (*models.AnalysisFactors, error)
}

// HTTPClassifier posts the aggregated evidence to a completion-style
// endpoint and repairs whatever shape comes back.
type HTTPClassifier struct {
	cfg    models.AIConfig
	client *http.Client
	logger *logrus.Logger
}

func NewHTTPClassifier(cfg models.AIConfig, logger *logrus.Logger) *HTTPClassifier {
	if logger == nil {
		logger = logrus.New()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClassifier{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type classifyRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
}

type classifyResponse struct {
	Output string `json:"output"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, promptContext string) (*models.AnalysisFactors, error) {
	if !c.cfg.Enabled || c.cfg.Endpoint == "" {
		return nil, fmt.Errorf("ai classifier disabled")
	}

	if c.cfg.MaxChars > 0 && len(promptContext) > c.cfg.MaxChars {
		promptContext = promptContext[:c.cfg.MaxChars]
	}

	payload, err := json.Marshal(classifyRequest{
		Model:  c.cfg.Model,
		Prompt: buildPrompt(promptContext),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classify call: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read classify response: %w", err)
	}

	raw := body
	var envelope classifyResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Output != "" {
		raw = []byte(envelope.Output)
	}

	outcome := ParseFactors(raw)
	if outcome.Err != nil {
		return nil, fmt.Errorf("unusable classifier response: %w", outcome.Err)
	}
	c.logger.Debugf("classifier response parsed at stage %s", outcome.Stage)
	return outcome.Factors, nil
}

func buildPrompt(evidence string) string {
	var b strings.Builder
	b.WriteString("Score the following project evidence on five dimensions, each 0-100: ")
	b.WriteString("documentation_quality, transparency, security_documentation, community_engagement, technical_implementation. ")
	b.WriteString("Respond with a single JSON object using those keys, plus an explanations object.\n\nEvidence:\n")
	b.WriteString(evidence)
	return b.String()
}
