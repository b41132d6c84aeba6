package repository

import (
	"context"
	"testing"

	"github.com/tranqh/formintake/internal/config"
	"github.com/tranqh/formintake/internal/domain"
	"gorm.io/gorm"
)

// testDB opens an isolated in-memory database. A single connection keeps
// every query on the same :memory: instance.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         ":memory:",
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedImage(t *testing.T, repo *ImageRepository, name, folder string, status domain.ImageStatus) {
	t.Helper()
	err := repo.Upsert(context.Background(), &domain.ImageRecord{
		ImageName:  name,
		Status:     status,
		CreatedAt:  name[:len(name)-4],
		FolderPath: folder,
	})
	if err != nil {
		t.Fatalf("failed to seed %s: %v", name, err)
	}
}

func TestImageRepository_GetAbsentIsNilNil(t *testing.T) {
	repo := NewImageRepository(testDB(t))

	rec, err := repo.Get(context.Background(), "nope.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil record, got %+v", rec)
	}
}

func TestImageRepository_UpsertOverwrites(t *testing.T) {
	repo := NewImageRepository(testDB(t))
	ctx := context.Background()

	seedImage(t, repo, "20250101_120000_000001.jpg", "forms", domain.StatusUploaded)
	seedImage(t, repo, "20250101_120000_000001.jpg", "forms", domain.StatusProcessing)

	rec, err := repo.Get(ctx, "20250101_120000_000001.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != domain.StatusProcessing {
		t.Errorf("expected Processing after overwrite, got %s", rec.Status)
	}

	var count int64
	repo.db.Model(&domain.ImageRecord{}).Count(&count)
	if count != 1 {
		t.Errorf("expected single record after upsert, got %d", count)
	}
}

func TestImageRepository_TryMarkProcessing(t *testing.T) {
	repo := NewImageRepository(testDB(t))
	ctx := context.Background()

	seedImage(t, repo, "a.jpg", "", domain.StatusUploaded)

	won, err := repo.TryMarkProcessing(ctx, "a.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !won {
		t.Fatal("expected first mark to win")
	}

	// Second attempt loses: status is already Processing.
	won, err = repo.TryMarkProcessing(ctx, "a.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if won {
		t.Error("expected second mark to lose")
	}

	// Absent record cannot be marked.
	won, err = repo.TryMarkProcessing(ctx, "ghost.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if won {
		t.Error("expected mark of absent record to lose")
	}
}

func TestImageRepository_ListFilterAndPagination(t *testing.T) {
	repo := NewImageRepository(testDB(t))
	ctx := context.Background()

	seedImage(t, repo, "20250101_000001_000000.jpg", "forms", domain.StatusUploaded)
	seedImage(t, repo, "20250101_000002_000000.jpg", "forms", domain.StatusUploaded)
	seedImage(t, repo, "20250101_000003_000000.jpg", "other", domain.StatusUploaded)

	// Unfiltered.
	recs, total, err := repo.List(ctx, nil, 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(recs) != 3 {
		t.Errorf("expected 3 records, got total=%d len=%d", total, len(recs))
	}

	// Newest first.
	if recs[0].ImageName != "20250101_000003_000000.jpg" {
		t.Errorf("expected newest first, got %s", recs[0].ImageName)
	}

	// Folder filter.
	folder := "forms"
	recs, total, err = repo.List(ctx, &folder, 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(recs) != 2 {
		t.Errorf("expected 2 forms records, got total=%d len=%d", total, len(recs))
	}

	// Pagination.
	recs, total, err = repo.List(ctx, nil, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(recs) != 1 {
		t.Errorf("expected page 2 to hold 1 record, got total=%d len=%d", total, len(recs))
	}
}

func TestImageRepository_FolderPrefixScan(t *testing.T) {
	repo := NewImageRepository(testDB(t))
	ctx := context.Background()

	seedImage(t, repo, "root.jpg", "forms", domain.StatusUploaded)
	seedImage(t, repo, "nested.jpg", "forms/2025", domain.StatusUploaded)
	seedImage(t, repo, "deeper.jpg", "forms/2025/batch1", domain.StatusUploaded)
	seedImage(t, repo, "outside.jpg", "other", domain.StatusUploaded)

	names, err := repo.ListNamesByFolderPrefix(ctx, "forms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("expected 3 names under forms, got %v", names)
	}
	for _, n := range names {
		if n == "outside.jpg" {
			t.Error("prefix scan leaked a record from another folder")
		}
	}

	if err := repo.DeleteByNames(ctx, names); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	remaining, total, err := repo.List(ctx, nil, 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || remaining[0].ImageName != "outside.jpg" {
		t.Errorf("expected only outside.jpg to remain, got %v (total %d)", remaining, total)
	}
}

func TestImageRepository_UpdateFolderPathExact(t *testing.T) {
	repo := NewImageRepository(testDB(t))
	ctx := context.Background()

	seedImage(t, repo, "direct.jpg", "old", domain.StatusUploaded)
	seedImage(t, repo, "nested.jpg", "old/sub", domain.StatusUploaded)

	moved, err := repo.UpdateFolderPathExact(ctx, "old", "new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if moved != 1 {
		t.Errorf("expected exactly 1 moved record, got %d", moved)
	}

	rec, _ := repo.Get(ctx, "nested.jpg")
	if rec.FolderPath != "old/sub" {
		t.Errorf("expected nested record to keep its path, got %s", rec.FolderPath)
	}
}
