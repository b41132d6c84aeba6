package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// rangeSentinel is the high code point terminating folder-path prefix
// ranges. Any real path segment sorts below it.
const rangeSentinel = "\uf8ff"

// ImageRepository handles image metadata operations. It is the single
// serialization boundary for image records: every write goes through a typed
// domain.ImageRecord.
type ImageRepository struct {
	db *gorm.DB
}

// NewImageRepository creates a new ImageRepository.
func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Get retrieves an image record by name. Returns (nil, nil) when the record
// is absent so callers can distinguish absence from store failure.
func (r *ImageRepository) Get(ctx context.Context, name string) (*domain.ImageRecord, error) {
	var rec domain.ImageRecord
	err := r.db.WithContext(ctx).First(&rec, "image_name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image %s: %w", name, err)
	}
	return &rec, nil
}

// Upsert creates or fully overwrites an image record keyed by name. An
// unexpected status transition is logged, not rejected; the store stays the
// system of record for older clients writing free-form values.
func (r *ImageRepository) Upsert(ctx context.Context, rec *domain.ImageRecord) error {
	if existing, err := r.Get(ctx, rec.ImageName); err == nil && existing != nil {
		if !domain.ValidTransition(existing.Status, rec.Status) {
			logger.FromContext(ctx).WithFields(logger.Fields{
				logger.FieldImageName: rec.ImageName,
				"from":                existing.Status,
				"to":                  rec.Status,
			}).Warn("Unexpected status transition")
		}
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "image_name"}},
		UpdateAll: true,
	}).Create(rec).Error
}

// TryMarkProcessing conditionally flips an image to Processing. The write
// succeeds only if the stored status is not already Processing, which makes
// it the single-flight gate for extraction jobs: two racing callers cannot
// both win.
func (r *ImageRepository) TryMarkProcessing(ctx context.Context, name string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.ImageRecord{}).
		Where("image_name = ? AND status <> ?", name, domain.StatusProcessing).
		Update("status", domain.StatusProcessing)
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark %s processing: %w", name, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// UpdateStatus sets the status of an existing record.
func (r *ImageRepository) UpdateStatus(ctx context.Context, name string, status domain.ImageStatus) error {
	return r.db.WithContext(ctx).Model(&domain.ImageRecord{}).
		Where("image_name = ?", name).
		Update("status", status).Error
}

// Delete removes an image record by name.
func (r *ImageRepository) Delete(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Delete(&domain.ImageRecord{}, "image_name = ?", name).Error
}

// List retrieves image records, newest first, with page/limit pagination.
// A non-nil folderPath filters by exact folder match; nil lists everything.
// Page numbers are 1-indexed.
func (r *ImageRepository) List(ctx context.Context, folderPath *string, page, limit int) ([]domain.ImageRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := r.db.WithContext(ctx).Model(&domain.ImageRecord{})
	if folderPath != nil {
		query = query.Where("folder_path = ?", *folderPath)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count images: %w", err)
	}

	var recs []domain.ImageRecord
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&recs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list images: %w", err)
	}
	return recs, total, nil
}

// ListNamesByFolderPrefix returns the names of every image whose folder path
// falls in the lexical range [path, path+sentinel]. The range includes the
// folder itself and all descendants.
func (r *ImageRepository) ListNamesByFolderPrefix(ctx context.Context, path string) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&domain.ImageRecord{}).
		Where("folder_path >= ? AND folder_path <= ?", path, path+rangeSentinel).
		Pluck("image_name", &names).Error; err != nil {
		return nil, fmt.Errorf("failed to scan folder prefix %s: %w", path, err)
	}
	return names, nil
}

// DeleteByNames removes one batch of records. Callers chunk the name list to
// respect the per-commit batch ceiling; each call is one commit.
func (r *ImageRepository) DeleteByNames(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&domain.ImageRecord{}, "image_name IN ?", names).Error
}

// UpdateFolderPathExact rewrites the folder path of every record whose
// folder path equals old. Exact match only: descendants keep their paths.
func (r *ImageRepository) UpdateFolderPathExact(ctx context.Context, old, new string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.ImageRecord{}).
		Where("folder_path = ?", old).
		Update("folder_path", new)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to move images from %s to %s: %w", old, new, res.Error)
	}
	return res.RowsAffected, nil
}
