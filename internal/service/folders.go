package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tranqh/formintake/internal/logger"
	"github.com/tranqh/formintake/internal/storage"
)

// deleteChunkSize caps how many records one delete commit carries.
const deleteChunkSize = 450

// renameConcurrency bounds parallel blob copy/delete pairs during a folder
// rename.
const renameConcurrency = 8

// FolderStore is the folder metadata contract consumed by the service.
type FolderStore interface {
	Upsert(ctx context.Context, path string) error
	ListPaths(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, path string) error
	DeleteDescendants(ctx context.Context, path string) error
	Rename(ctx context.Context, oldPath, newPath string) error
}

// prefixDeleter is the per-collection surface folder deletion sweeps over.
type prefixDeleter interface {
	ListNamesByFolderPrefix(ctx context.Context, path string) ([]string, error)
	DeleteByNames(ctx context.Context, names []string) error
}

// imageMover additionally supports repointing records during a rename.
type imageMover interface {
	prefixDeleter
	UpdateFolderPathExact(ctx context.Context, old, new string) (int64, error)
}

// FolderService manages folder records and spans the two stores: folder
// mutations touch metadata first, then blobs. The stores are not joined by
// a transaction, so a crash mid-operation can leave orphaned blobs; the
// ordering guarantees metadata never references a deleted blob tree.
type FolderService struct {
	folders     FolderStore
	images      imageMover
	extractions prefixDeleter
	storage     storage.ObjectStorage
}

// NewFolderService creates a new FolderService.
func NewFolderService(folders FolderStore, images imageMover, extractions prefixDeleter, objectStorage storage.ObjectStorage) *FolderService {
	return &FolderService{
		folders:     folders,
		images:      images,
		extractions: extractions,
		storage:     objectStorage,
	}
}

// Create registers a folder path. Re-creating an existing folder is an
// idempotent no-op.
func (s *FolderService) Create(ctx context.Context, path string) (string, error) {
	clean, err := SanitizeFolderPath(path)
	if err != nil {
		return "", err
	}
	if clean == "" {
		return "", ErrUnsafePath
	}
	if err := s.folders.Upsert(ctx, clean); err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}
	return clean, nil
}

// List returns every registered folder path.
func (s *FolderService) List(ctx context.Context) ([]string, error) {
	return s.folders.ListPaths(ctx)
}

// Delete removes a folder and its entire subtree: folder records, image and
// extraction records in commit-bounded chunks, then the blob prefix.
func (s *FolderService) Delete(ctx context.Context, path string) error {
	clean, err := SanitizeFolderPath(path)
	if err != nil {
		return err
	}
	if clean == "" {
		return ErrUnsafePath
	}
	log := logger.FromContext(ctx).WithField(logger.FieldFolderPath, clean)

	if err := s.folders.Delete(ctx, clean); err != nil {
		return fmt.Errorf("failed to delete folder record: %w", err)
	}
	if err := s.folders.DeleteDescendants(ctx, clean); err != nil {
		return fmt.Errorf("failed to delete subfolder records: %w", err)
	}

	imageCount, err := s.deleteRecordsByPrefix(ctx, s.images, clean)
	if err != nil {
		return fmt.Errorf("failed to delete image records: %w", err)
	}
	extractionCount, err := s.deleteRecordsByPrefix(ctx, s.extractions, clean)
	if err != nil {
		return fmt.Errorf("failed to delete extraction records: %w", err)
	}

	if err := s.storage.DeletePrefix(ctx, clean+"/"); err != nil {
		return fmt.Errorf("failed to delete folder objects: %w", err)
	}

	log.WithFields(logger.Fields{
		"images":      imageCount,
		"extractions": extractionCount,
	}).Info("Folder deleted")
	return nil
}

// deleteRecordsByPrefix removes every record under the folder subtree in
// chunks, each chunk its own commit.
func (s *FolderService) deleteRecordsByPrefix(ctx context.Context, store prefixDeleter, path string) (int, error) {
	names, err := store.ListNamesByFolderPrefix(ctx, path)
	if err != nil {
		return 0, err
	}
	for start := 0; start < len(names); start += deleteChunkSize {
		end := start + deleteChunkSize
		if end > len(names) {
			end = len(names)
		}
		if err := store.DeleteByNames(ctx, names[start:end]); err != nil {
			return start, err
		}
	}
	return len(names), nil
}

// Rename moves a folder to a new path: the folder record first, then every
// image record with an exact path match, then the blobs under the old
// prefix. Subfolders and extraction records keep their old paths; only the
// named folder itself moves.
func (s *FolderService) Rename(ctx context.Context, oldPath, newPath string) error {
	oldClean, err := SanitizeFolderPath(oldPath)
	if err != nil {
		return err
	}
	newClean, err := SanitizeFolderPath(newPath)
	if err != nil {
		return err
	}
	if oldClean == "" || newClean == "" || oldClean == newClean {
		return ErrUnsafePath
	}
	log := logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldFolderPath: oldClean,
		"new_path":             newClean,
	})

	if err := s.folders.Rename(ctx, oldClean, newClean); err != nil {
		return fmt.Errorf("failed to rename folder record: %w", err)
	}

	moved, err := s.images.UpdateFolderPathExact(ctx, oldClean, newClean)
	if err != nil {
		return fmt.Errorf("failed to repoint image records: %w", err)
	}

	all, err := s.storage.ListPrefix(ctx, oldClean+"/")
	if err != nil {
		return fmt.Errorf("failed to list folder objects: %w", err)
	}
	// Only direct children move; deeper keys belong to subfolders, which
	// keep their paths.
	keys := all[:0]
	for _, key := range all {
		if !strings.Contains(strings.TrimPrefix(key, oldClean+"/"), "/") {
			keys = append(keys, key)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(renameConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			newKey := newClean + "/" + strings.TrimPrefix(key, oldClean+"/")
			if err := s.storage.Copy(gctx, key, newKey); err != nil {
				return fmt.Errorf("failed to copy %s: %w", key, err)
			}
			if err := s.storage.Delete(gctx, key); err != nil {
				return fmt.Errorf("failed to delete %s: %w", key, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.WithFields(logger.Fields{
		"records": moved,
		"objects": len(keys),
	}).Info("Folder renamed")
	return nil
}
