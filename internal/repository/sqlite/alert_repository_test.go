package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"opensentry/internal/model"
)

func newTestRepo(t *testing.T) *AlertRepository {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewAlertRepository(db)
}

func TestAlertRepository_InsertAndGetRecent(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	for i, label := range []string{"person", "car", "person"} {
		_, err := repo.Insert(&model.Alert{
			Label:      label,
			Confidence: 0.9,
			Snapshot:   label + "_20250615_143000.jpg",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	alerts, err := repo.GetRecent(2)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("Expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].Label != "person" || alerts[1].Label != "car" {
		t.Errorf("Expected newest-first ordering, got %q then %q", alerts[0].Label, alerts[1].Label)
	}
}

func TestAlertRepository_Counts(t *testing.T) {
	repo := newTestRepo(t)

	now := time.Now().UTC()
	for _, label := range []string{"person", "person", "dog"} {
		if _, err := repo.Insert(&model.Alert{Label: label, Snapshot: label + ".jpg", CreatedAt: now}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	total, err := repo.GetTotalCount()
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if total != 3 {
		t.Errorf("Expected total 3, got %d", total)
	}

	counts, err := repo.CountByLabel()
	if err != nil {
		t.Fatalf("CountByLabel failed: %v", err)
	}
	if counts["person"] != 2 || counts["dog"] != 1 {
		t.Errorf("Unexpected counts: %v", counts)
	}
}

func TestAlertRepository_ExistsBySnapshot(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.Insert(&model.Alert{
		Label:     "person",
		Snapshot:  "person_20250615_143000.jpg",
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	exists, err := repo.ExistsBySnapshot("person_20250615_143000.jpg")
	if err != nil {
		t.Fatalf("ExistsBySnapshot failed: %v", err)
	}
	if !exists {
		t.Error("Expected snapshot reference to exist")
	}

	exists, err = repo.ExistsBySnapshot("ghost.jpg")
	if err != nil {
		t.Fatalf("ExistsBySnapshot failed: %v", err)
	}
	if exists {
		t.Error("Expected no reference for unknown snapshot")
	}
}

func TestAlertRepository_Delete(t *testing.T) {
	repo := newTestRepo(t)

	now := time.Now().UTC()
	if _, err := repo.Insert(&model.Alert{Label: "person", Snapshot: "a.jpg", CreatedAt: now}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := repo.Insert(&model.Alert{Label: "car", Snapshot: "b.jpg", CreatedAt: now}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := repo.DeleteBySnapshot("a.jpg"); err != nil {
		t.Fatalf("DeleteBySnapshot failed: %v", err)
	}
	total, _ := repo.GetTotalCount()
	if total != 1 {
		t.Errorf("Expected 1 alert after delete, got %d", total)
	}

	if err := repo.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	total, _ = repo.GetTotalCount()
	if total != 0 {
		t.Errorf("Expected 0 alerts after clear, got %d", total)
	}
}
