package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/tranqh/formintake/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExtractionRepository handles extraction result records.
type ExtractionRepository struct {
	db *gorm.DB
}

// NewExtractionRepository creates a new ExtractionRepository.
func NewExtractionRepository(db *gorm.DB) *ExtractionRepository {
	return &ExtractionRepository{db: db}
}

// Get retrieves an extraction record by image name. Returns (nil, nil) when
// absent.
func (r *ExtractionRepository) Get(ctx context.Context, name string) (*domain.ExtractionRecord, error) {
	var rec domain.ExtractionRecord
	err := r.db.WithContext(ctx).First(&rec, "image_name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extraction for %s: %w", name, err)
	}
	return &rec, nil
}

// Upsert creates or overwrites the extraction record for an image. A re-run
// replaces the previous result; no history is kept.
func (r *ExtractionRepository) Upsert(ctx context.Context, rec *domain.ExtractionRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "image_name"}},
		UpdateAll: true,
	}).Create(rec).Error
}

// Delete removes an extraction record by image name.
func (r *ExtractionRepository) Delete(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Delete(&domain.ExtractionRecord{}, "image_name = ?", name).Error
}

// ListNamesByFolderPrefix returns the names of every extraction record whose
// folder path falls in the lexical range [path, path+sentinel].
func (r *ExtractionRepository) ListNamesByFolderPrefix(ctx context.Context, path string) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&domain.ExtractionRecord{}).
		Where("folder_path >= ? AND folder_path <= ?", path, path+rangeSentinel).
		Pluck("image_name", &names).Error; err != nil {
		return nil, fmt.Errorf("failed to scan folder prefix %s: %w", path, err)
	}
	return names, nil
}

// DeleteByNames removes one batch of extraction records in a single commit.
func (r *ExtractionRepository) DeleteByNames(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&domain.ExtractionRecord{}, "image_name IN ?", names).Error
}
