package repository

import (
	"context"
	"reflect"
	"testing"
)

func TestFolderRepository_UpsertIsIdempotent(t *testing.T) {
	repo := NewFolderRepository(testDB(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, "forms/2025"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, err := repo.Get(ctx, "forms/2025")
	if err != nil || first == nil {
		t.Fatalf("expected folder record, got %v (err %v)", first, err)
	}

	if err := repo.Upsert(ctx, "forms/2025"); err != nil {
		t.Fatalf("unexpected error on re-create: %v", err)
	}
	second, _ := repo.Get(ctx, "forms/2025")
	if second.CreatedAt != first.CreatedAt {
		t.Error("expected re-create to preserve the original CreatedAt")
	}
}

func TestFolderRepository_ListPaths(t *testing.T) {
	repo := NewFolderRepository(testDB(t))
	ctx := context.Background()

	for _, p := range []string{"zeta", "forms", "forms/2025"} {
		if err := repo.Upsert(ctx, p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	paths, err := repo.ListPaths(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"forms", "forms/2025", "zeta"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("expected %v, got %v", want, paths)
	}
}

func TestFolderRepository_DeleteDescendants(t *testing.T) {
	repo := NewFolderRepository(testDB(t))
	ctx := context.Background()

	for _, p := range []string{"forms", "forms/2025", "forms/2025/batch1", "formstore"} {
		if err := repo.Upsert(ctx, p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := repo.DeleteDescendants(ctx, "forms"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	paths, _ := repo.ListPaths(ctx)
	// The folder itself survives; the sibling sharing the string prefix
	// must not be swept because the range starts at "forms/".
	want := []string{"forms", "formstore"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("expected %v, got %v", want, paths)
	}
}

func TestFolderRepository_Rename(t *testing.T) {
	repo := NewFolderRepository(testDB(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, "old"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orig, _ := repo.Get(ctx, "old")

	if err := repo.Rename(ctx, "old", "new"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec, _ := repo.Get(ctx, "old"); rec != nil {
		t.Error("expected source record to be gone")
	}
	moved, _ := repo.Get(ctx, "new")
	if moved == nil {
		t.Fatal("expected destination record to exist")
	}
	if moved.CreatedAt != orig.CreatedAt {
		t.Error("expected rename to carry the original CreatedAt")
	}

	// Renaming a missing folder is a no-op, not an error.
	if err := repo.Rename(ctx, "ghost", "elsewhere"); err != nil {
		t.Fatalf("unexpected error for missing source: %v", err)
	}
	if rec, _ := repo.Get(ctx, "elsewhere"); rec != nil {
		t.Error("expected no destination record for missing source")
	}
}
