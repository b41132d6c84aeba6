package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tranqh/formintake/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FolderRepository handles folder records. Folder paths are stored under a
// flat encoded key; hierarchy exists only as a lexical prefix convention.
type FolderRepository struct {
	db *gorm.DB
}

// NewFolderRepository creates a new FolderRepository.
func NewFolderRepository(db *gorm.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// Upsert creates the folder record if missing. Creating an existing folder
// is a no-op success; the original CreatedAt is preserved.
func (r *FolderRepository) Upsert(ctx context.Context, path string) error {
	rec := &domain.FolderRecord{
		FolderKey:  domain.EncodeFolderKey(path),
		FolderPath: path,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "folder_key"}},
		DoNothing: true,
	}).Create(rec).Error
}

// Get retrieves a folder record by path. Returns (nil, nil) when absent.
func (r *FolderRepository) Get(ctx context.Context, path string) (*domain.FolderRecord, error) {
	var rec domain.FolderRecord
	err := r.db.WithContext(ctx).First(&rec, "folder_key = ?", domain.EncodeFolderKey(path)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder %s: %w", path, err)
	}
	return &rec, nil
}

// ListPaths returns every known folder path.
func (r *FolderRepository) ListPaths(ctx context.Context) ([]string, error) {
	var paths []string
	if err := r.db.WithContext(ctx).Model(&domain.FolderRecord{}).
		Order("folder_path ASC").
		Pluck("folder_path", &paths).Error; err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return paths, nil
}

// Delete removes the folder's own record.
func (r *FolderRepository) Delete(ctx context.Context, path string) error {
	return r.db.WithContext(ctx).
		Delete(&domain.FolderRecord{}, "folder_key = ?", domain.EncodeFolderKey(path)).Error
}

// DeleteDescendants removes every folder record whose path falls in the
// half-open range [path+"/", path+"/"+sentinel): strict descendants only.
func (r *FolderRepository) DeleteDescendants(ctx context.Context, path string) error {
	lo := path + "/"
	return r.db.WithContext(ctx).
		Delete(&domain.FolderRecord{}, "folder_path >= ? AND folder_path <= ?", lo, lo+rangeSentinel).Error
}

// Rename moves the folder record from oldPath to newPath inside one
// transaction, carrying the original CreatedAt. A missing source record is
// not an error; the rename then only creates the destination side effects
// driven by the caller.
func (r *FolderRepository) Rename(ctx context.Context, oldPath, newPath string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old domain.FolderRecord
		err := tx.First(&old, "folder_key = ?", domain.EncodeFolderKey(oldPath)).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read folder %s: %w", oldPath, err)
		}

		rec := &domain.FolderRecord{
			FolderKey:  domain.EncodeFolderKey(newPath),
			FolderPath: newPath,
			CreatedAt:  old.CreatedAt,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "folder_key"}},
			UpdateAll: true,
		}).Create(rec).Error; err != nil {
			return fmt.Errorf("failed to write folder %s: %w", newPath, err)
		}

		return tx.Delete(&domain.FolderRecord{}, "folder_key = ?", domain.EncodeFolderKey(oldPath)).Error
	})
}
