package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/veridianlabs/trustlens/pkg/models"
)

// AuditRepository persists completed audit reports as JSON files under the
// base directory, with a rebuildable index mapping audit IDs to filenames.
// Index writes are atomic via temp-file rename.
type AuditRepository struct {
	baseDir string
	logger  *logrus.Logger

	mu    sync.RWMutex
	index map[string]string
}

func NewAuditRepository(baseDir string, logger *logrus.Logger) (*AuditRepository, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if baseDir == "" {
		baseDir = "./data/audits"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}

	repo := &AuditRepository{
		baseDir: baseDir,
		logger:  logger,
		index:   make(map[string]string),
	}
	if err := repo.loadIndex(); err != nil {
		logger.Warnf("Failed to load audit index: %v", err)
	}
	return repo, nil
}

// Store writes the report and updates the index. The report file itself is
// written atomically so a crash never leaves a truncated report behind.
func (r *AuditRepository) Store(ctx context.Context, report *models.AuditReport) error {
	if err := validateReport(report); err != nil {
		return fmt.Errorf("invalid report: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	filename := r.filenameFor(report)
	if err := writeJSONAtomic(filepath.Join(r.baseDir, filename), report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	r.index[report.AuditID] = filename

	if err := r.saveIndex(); err != nil {
		r.logger.Warnf("Failed to save audit index: %v", err)
	}
	return nil
}

func (r *AuditRepository) Load(ctx context.Context, auditID string) (*models.AuditReport, error) {
	r.mu.RLock()
	filename, ok := r.index[auditID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no report found for audit ID %s", auditID)
	}

	data, err := os.ReadFile(filepath.Join(r.baseDir, filename))
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var report models.AuditReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &report, nil
}

// FindByURL returns every stored report for the given target URL, newest
// first.
func (r *AuditRepository) FindByURL(ctx context.Context, url string) ([]*models.AuditReport, error) {
	r.mu.RLock()
	filenames := make([]string, 0, len(r.index))
	for _, name := range r.index {
		filenames = append(filenames, name)
	}
	r.mu.RUnlock()

	var reports []*models.AuditReport
	for _, name := range filenames {
		data, err := os.ReadFile(filepath.Join(r.baseDir, name))
		if err != nil {
			r.logger.Warnf("Failed to read report %s: %v", name, err)
			continue
		}
		var report models.AuditReport
		if err := json.Unmarshal(data, &report); err != nil {
			r.logger.Warnf("Failed to parse report %s: %v", name, err)
			continue
		}
		if report.URL == url {
			reports = append(reports, &report)
		}
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].GeneratedAt.After(reports[j].GeneratedAt)
	})
	return reports, nil
}

func (r *AuditRepository) Delete(ctx context.Context, auditID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	filename, ok := r.index[auditID]
	if !ok {
		return fmt.Errorf("no report found for audit ID %s", auditID)
	}
	if err := os.Remove(filepath.Join(r.baseDir, filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete report: %w", err)
	}
	delete(r.index, auditID)
	return r.saveIndex()
}

func (r *AuditRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.index)
}

func validateReport(report *models.AuditReport) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	if report.AuditID == "" {
		return fmt.Errorf("audit ID is required")
	}
	if report.URL == "" {
		return fmt.Errorf("target URL is required")
	}
	if report.GeneratedAt.IsZero() {
		return fmt.Errorf("generation time is required")
	}
	return nil
}

func (r *AuditRepository) filenameFor(report *models.AuditReport) string {
	host := strings.NewReplacer("https://", "", "http://", "", "/", "_", ":", "_").Replace(report.URL)
	if len(host) > 80 {
		host = host[:80]
	}
	return fmt.Sprintf("audit_%s_%s.json", host, report.GeneratedAt.UTC().Format("20060102_150405"))
}

func (r *AuditRepository) indexPath() string {
	return filepath.Join(r.baseDir, "audit_index.json")
}

func (r *AuditRepository) loadIndex() error {
	data, err := os.ReadFile(r.indexPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}
	if err := json.Unmarshal(data, &r.index); err != nil {
		return fmt.Errorf("parse index: %w", err)
	}
	return nil
}

func (r *AuditRepository) saveIndex() error {
	return writeJSONAtomic(r.indexPath(), r.index)
}

func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".audit_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
