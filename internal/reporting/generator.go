package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/veridianlabs/trustlens/pkg/models"
)

// Formatter renders an audit report into one output representation.
type Formatter interface {
	Format(report *models.AuditReport) ([]byte, error)
	FileExtension() string
}

// ReportGenerator renders audit reports through a registry of formatters and
// writes them under the configured output directory.
type ReportGenerator struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
	cfg        models.ReportingConfig
	logger     *logrus.Logger
}

func NewReportGenerator(cfg models.ReportingConfig, logger *logrus.Logger) *ReportGenerator {
	if logger == nil {
		logger = logrus.New()
	}
	g := &ReportGenerator{
		formatters: make(map[string]Formatter),
		cfg:        cfg,
		logger:     logger,
	}
	g.Register("json", &JSONFormatter{})
	g.Register("yaml", &YAMLFormatter{})
	g.Register("txt", &TextFormatter{})
	return g
}

func (g *ReportGenerator) Register(name string, f Formatter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.formatters[strings.ToLower(name)] = f
}

// Render produces the report bytes in the named format.
func (g *ReportGenerator) Render(report *models.AuditReport, format string) ([]byte, error) {
	if format == "" {
		format = g.cfg.DefaultFormat
	}
	g.mu.RLock()
	f, ok := g.formatters[strings.ToLower(format)]
	g.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
	return f.Format(report)
}

// Write renders the report in every configured format and returns the
// written paths.
func (g *ReportGenerator) Write(report *models.AuditReport) ([]string, error) {
	formats := g.cfg.Formats
	if len(formats) == 0 {
		formats = []string{g.cfg.DefaultFormat}
	}
	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}

	var paths []string
	for _, format := range formats {
		g.mu.RLock()
		f, ok := g.formatters[strings.ToLower(format)]
		g.mu.RUnlock()
		if !ok {
			g.logger.Warnf("Skipping unsupported report format %s", format)
			continue
		}
		data, err := f.Format(report)
		if err != nil {
			return paths, fmt.Errorf("format %s report: %w", format, err)
		}
		path := filepath.Join(g.cfg.OutputDir, report.AuditID+f.FileExtension())
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s report: %w", format, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

type JSONFormatter struct{}

func (f *JSONFormatter) Format(report *models.AuditReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

func (f *JSONFormatter) FileExtension() string { return ".json" }

type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(report *models.AuditReport) ([]byte, error) {
	return yaml.Marshal(report)
}

func (f *YAMLFormatter) FileExtension() string { return ".yaml" }

// TextFormatter renders a human-readable plain-text summary.
type TextFormatter struct{}

var textReportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"title": cases.Title(language.English).String,
	"pct":   func(v float64) string { return fmt.Sprintf("%.0f", v) },
}).Parse(`TRUST AUDIT REPORT
==================

Audit ID:     {{.AuditID}}
Target:       {{.URL}}
Project type: {{title (printf "%s" .ProjectType)}}
Generated:    {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}
Duration:     {{.Duration}}

SCORE
-----
Trust score:  {{pct .Result.Score}}/100 ({{.Result.RiskTier}} risk)
Base score:   {{pct .Result.BaseScore}}
Confidence:   {{pct .Result.Confidence}}%
Content:      {{title (printf "%s" .Validation.Quality)}} quality ({{pct .Validation.Score}}/100)

FACTORS
-------
Documentation quality:    {{pct .Result.Factors.DocumentationQuality}}
Transparency:             {{pct .Result.Factors.Transparency}}
Security documentation:   {{pct .Result.Factors.SecurityDocumentation}}
Community engagement:     {{pct .Result.Factors.CommunityEngagement}}
Technical implementation: {{pct .Result.Factors.TechnicalImplementation}}
{{if .Result.RedFlags}}
RED FLAGS
---------
{{range .Result.RedFlags}}  - {{.}}
{{end}}{{end}}{{if .Result.PositiveIndicators}}
POSITIVE INDICATORS
-------------------
{{range .Result.PositiveIndicators}}  + {{.}}
{{end}}{{end}}{{if .Result.Adjustments}}
ADJUSTMENTS
-----------
{{range .Result.Adjustments}}  {{printf "%+6.1f" .Delta}}  {{.Reason}}
{{end}}{{end}}{{if .Verification.Summary}}
EXTERNAL VERIFICATION
---------------------
{{.Verification.Summary}}
{{end}}{{if .Risks}}
RISKS
-----
{{range .Risks}}  ! {{.}}
{{end}}{{end}}{{if .Recommendations}}
RECOMMENDATIONS
---------------
{{range .Recommendations}}  * {{.}}
{{end}}{{end}}`))

func (f *TextFormatter) Format(report *models.AuditReport) ([]byte, error) {
	var b strings.Builder
	if err := textReportTemplate.Execute(&b, report); err != nil {
		return nil, fmt.Errorf("execute report template: %w", err)
	}
	return []byte(b.String()), nil
}

func (f *TextFormatter) FileExtension() string { return ".txt" }

// Stamp fills the generation metadata that every formatter expects.
func Stamp(report *models.AuditReport, started time.Time) {
	report.Duration = time.Since(started)
	report.GeneratedAt = time.Now().UTC()
}
