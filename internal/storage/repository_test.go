package storage

import (
	"context"
	"testing"
	"time"

	"github.com/veridianlabs/trustlens/pkg/models"
)

func sampleReport(auditID, url string) *models.AuditReport {
	return &models.AuditReport{
		AuditID:     auditID,
		URL:         url,
		ProjectType: models.ProjectDeFi,
		Result: models.TrustScoreResult{
			Score:    72,
			RiskTier: models.RiskLow,
		},
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo, err := NewAuditRepository(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewAuditRepository: %v", err)
	}
	ctx := context.Background()

	report := sampleReport("audit-1", "https://nimbus.finance")
	if err := repo.Store(ctx, report); err != nil {
		t.Fatalf("Store: %v", err)
	}

	loaded, err := repo.Load(ctx, "audit-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.URL != report.URL || loaded.Result.Score != report.Result.Score {
		t.Errorf("loaded = %+v, want %+v", loaded, report)
	}
	if repo.Count() != 1 {
		t.Errorf("Count = %d, want 1", repo.Count())
	}
}

func TestRepositoryIndexSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewAuditRepository(dir, nil)
	if err != nil {
		t.Fatalf("NewAuditRepository: %v", err)
	}
	if err := first.Store(ctx, sampleReport("audit-1", "https://nimbus.finance")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	second, err := NewAuditRepository(dir, nil)
	if err != nil {
		t.Fatalf("NewAuditRepository reopen: %v", err)
	}
	if _, err := second.Load(ctx, "audit-1"); err != nil {
		t.Errorf("Load after reopen: %v", err)
	}
}

func TestRepositoryFindByURL(t *testing.T) {
	repo, err := NewAuditRepository(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewAuditRepository: %v", err)
	}
	ctx := context.Background()

	older := sampleReport("audit-1", "https://nimbus.finance")
	older.GeneratedAt = time.Now().UTC().Add(-time.Hour)
	newer := sampleReport("audit-2", "https://nimbus.finance")
	other := sampleReport("audit-3", "https://other.example")

	for _, r := range []*models.AuditReport{older, newer, other} {
		if err := repo.Store(ctx, r); err != nil {
			t.Fatalf("Store %s: %v", r.AuditID, err)
		}
	}

	reports, err := repo.FindByURL(ctx, "https://nimbus.finance")
	if err != nil {
		t.Fatalf("FindByURL: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	if reports[0].AuditID != "audit-2" {
		t.Errorf("first report = %s, want newest first", reports[0].AuditID)
	}
}

func TestRepositoryDelete(t *testing.T) {
	repo, err := NewAuditRepository(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewAuditRepository: %v", err)
	}
	ctx := context.Background()

	if err := repo.Store(ctx, sampleReport("audit-1", "https://nimbus.finance")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := repo.Delete(ctx, "audit-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Load(ctx, "audit-1"); err == nil {
		t.Error("Load after delete should fail")
	}
	if err := repo.Delete(ctx, "audit-1"); err == nil {
		t.Error("deleting a missing report should fail")
	}
}

func TestRepositoryValidation(t *testing.T) {
	repo, err := NewAuditRepository(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewAuditRepository: %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name   string
		report *models.AuditReport
	}{
		{"nil report", nil},
		{"missing audit id", &models.AuditReport{URL: "https://x.example", GeneratedAt: time.Now()}},
		{"missing url", &models.AuditReport{AuditID: "a", GeneratedAt: time.Now()}},
		{"missing timestamp", &models.AuditReport{AuditID: "a", URL: "https://x.example"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Store(ctx, tt.report); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
