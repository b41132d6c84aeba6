package repository

import (
	"context"
	"testing"

	"github.com/tranqh/formintake/internal/domain"
)

func TestExtractionRepository_RoundTrip(t *testing.T) {
	repo := NewExtractionRepository(testDB(t))
	ctx := context.Background()

	rec := &domain.ExtractionRecord{
		ImageName:  "a.jpg",
		Status:     domain.StatusCompleted,
		FolderPath: "forms",
		Size:       1.5,
		AnalysisResult: domain.JSONMap{
			"ho_va_ten":      "Le Van C",
			"nganh_xet_tuyen": []interface{}{"CNTT", "", ""},
			"mon_chon_cap_thpt": map[string]interface{}{
				"Toan": true,
				"Ly":   false,
			},
		},
	}
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.Get(ctx, "a.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected record")
	}
	if got.AnalysisResult["ho_va_ten"] != "Le Van C" {
		t.Errorf("unexpected ho_va_ten: %v", got.AnalysisResult["ho_va_ten"])
	}
	majors, ok := got.AnalysisResult["nganh_xet_tuyen"].([]interface{})
	if !ok || len(majors) != 3 {
		t.Errorf("expected 3-element majors array, got %v", got.AnalysisResult["nganh_xet_tuyen"])
	}

	// Re-run overwrites the previous result.
	rec.AnalysisResult = domain.JSONMap{"error": "Invalid JSON format", "raw_response": "oops"}
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = repo.Get(ctx, "a.jpg")
	if got.AnalysisResult["error"] != "Invalid JSON format" {
		t.Errorf("expected overwritten result, got %v", got.AnalysisResult)
	}

	if missing, err := repo.Get(ctx, "missing.jpg"); err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for absent record, got %v, %v", missing, err)
	}
}
