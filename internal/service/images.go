package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/logger"
	"github.com/tranqh/formintake/internal/storage"
)

// Sentinel errors surfaced to the HTTP layer.
var (
	// ErrImageNotFound means the image record is absent; extraction
	// requires a prior upload.
	ErrImageNotFound = errors.New("image not found")

	// ErrAlreadyProcessing means an extraction flight is already active for
	// the image; the enqueue request is an idempotent no-op.
	ErrAlreadyProcessing = errors.New("image is already processing")
)

// Enqueuer is the slice of the job queue the image service needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, task string, payload interface{}) (string, error)
}

// UploadLimits bounds incoming files.
type UploadLimits struct {
	TempDir           string
	MaxFileSize       int64
	AllowedExtensions []string
}

// ImageService handles image uploads, metadata CRUD, and the request-side
// half of the extraction status protocol.
type ImageService struct {
	images      ImageStore
	extractions extractionGetter
	storage     storage.ObjectStorage
	queue       Enqueuer
	limits      UploadLimits
}

// ImageStore is the image metadata contract consumed by the service layer;
// satisfied by repository.ImageRepository.
type ImageStore interface {
	Get(ctx context.Context, name string) (*domain.ImageRecord, error)
	Upsert(ctx context.Context, rec *domain.ImageRecord) error
	TryMarkProcessing(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context, folderPath *string, page, limit int) ([]domain.ImageRecord, int64, error)
}

// extractionGetter is the slice of the extraction store the service needs.
type extractionGetter interface {
	Get(ctx context.Context, name string) (*domain.ExtractionRecord, error)
}

// NewImageService creates a new ImageService.
func NewImageService(
	images ImageStore,
	extractions extractionGetter,
	objectStorage storage.ObjectStorage,
	enqueuer Enqueuer,
	limits UploadLimits,
) *ImageService {
	return &ImageService{
		images:      images,
		extractions: extractions,
		storage:     objectStorage,
		queue:       enqueuer,
		limits:      limits,
	}
}

// TimestampName derives a fresh image name from the current UTC time plus
// the original extension: YYYYMMDD_HHMMSS_ffffff sorts lexically by upload
// time and doubles as the record key.
func TimestampName(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if ext == "" {
		ext = ".jpg"
	}
	now := time.Now().UTC()
	return fmt.Sprintf("%s_%06d%s", now.Format("20060102_150405"), now.Nanosecond()/1000, ext)
}

// RoundSizeMB converts a byte count into megabytes rounded to 2 decimals.
func RoundSizeMB(sizeBytes int64) float64 {
	return math.Round(float64(sizeBytes)/(1024*1024)*100) / 100
}

// Upload is the synchronous store path: validate the spooled file, push it
// into the blob store, and write the metadata record. The temp file is the
// caller's to clean up.
func (s *ImageService) Upload(ctx context.Context, localPath, originalFilename string, status domain.ImageStatus, folderPath string) (*domain.ImageRecord, error) {
	if err := ValidateUploadFile(localPath, s.limits.MaxFileSize, s.limits.AllowedExtensions); err != nil {
		return nil, err
	}

	name := TimestampName(originalFilename)
	rec := &domain.ImageRecord{
		ImageName:  name,
		Status:     status,
		CreatedAt:  strings.TrimSuffix(name, filepath.Ext(name)),
		FolderPath: folderPath,
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat upload: %w", err)
	}
	rec.Size = RoundSizeMB(info.Size())

	key := rec.ObjectKey()
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if err := s.storage.UploadFile(ctx, key, localPath, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload image to storage: %w", err)
	}
	rec.ImagePath = s.storage.GetURL(key)

	// Metadata write follows the blob write; a failure here leaves an
	// orphaned blob, which the stores tolerate (no cross-store transaction
	// exists).
	if err := s.images.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save image metadata: %w", err)
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldImageName:  name,
		logger.FieldFolderPath: folderPath,
		logger.FieldSize:       info.Size(),
	}).Info("Image uploaded")
	return rec, nil
}

// EnqueueUpload hands the spooled file to the queue and returns the job ID.
// Extension validation happens before enqueue so a bad file is rejected
// synchronously; the deep content check runs in the worker.
func (s *ImageService) EnqueueUpload(ctx context.Context, tempPath, originalFilename string, status domain.ImageStatus, folderPath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if !ExtensionAllowed(ext, s.limits.AllowedExtensions) {
		return "", &FileValidationError{Reason: fmt.Sprintf("extension %s not allowed", ext)}
	}

	return s.queue.Enqueue(ctx, domain.TaskUploadImage, domain.UploadPayload{
		TempPath:         tempPath,
		OriginalFilename: originalFilename,
		Status:           status,
		FolderPath:       folderPath,
	})
}

// EnqueueExtract runs the request-side half of the extraction protocol:
// reject when the record is absent, short-circuit when a flight is active,
// win the Processing gate with a conditional write, refresh the record with
// the supplied fields, then enqueue. The conditional write is the actual
// single-flight guarantee; the status read before it only saves a queue
// round-trip.
func (s *ImageService) EnqueueExtract(ctx context.Context, p domain.ExtractPayload) (string, error) {
	existing, err := s.images.Get(ctx, p.ImageName)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return "", ErrImageNotFound
	}
	if existing.Status == domain.StatusProcessing {
		return "", ErrAlreadyProcessing
	}

	won, err := s.images.TryMarkProcessing(ctx, p.ImageName)
	if err != nil {
		// Best-effort UI mark; enqueue regardless. The worker re-asserts
		// Processing on pickup.
		logger.FromContext(ctx).WithError(err).WithField(logger.FieldImageName, p.ImageName).
			Warn("Failed to pre-mark Processing")
	} else if !won {
		return "", ErrAlreadyProcessing
	}

	// Fill gaps in the supplied payload from the stored record so the
	// worker does not depend on client-provided metadata.
	merged := p
	if merged.ImagePath == "" {
		merged.ImagePath = existing.ImagePath
	}
	if merged.CreatedAt == "" {
		merged.CreatedAt = existing.CreatedAt
	}
	if merged.FolderPath == "" {
		merged.FolderPath = existing.FolderPath
	}
	if merged.Size == 0 {
		merged.Size = existing.Size
	}

	if err := s.images.Upsert(ctx, &domain.ImageRecord{
		ImageName:  merged.ImageName,
		Status:     domain.StatusProcessing,
		ImagePath:  merged.ImagePath,
		CreatedAt:  merged.CreatedAt,
		FolderPath: merged.FolderPath,
		Size:       merged.Size,
	}); err != nil {
		// Non-fatal: the Processing gate already flipped.
		logger.FromContext(ctx).WithError(err).WithField(logger.FieldImageName, p.ImageName).
			Warn("Failed to refresh record before enqueue")
	}

	return s.queue.Enqueue(ctx, domain.TaskExtractForm, merged)
}

// Get retrieves an image record by name.
func (s *ImageService) Get(ctx context.Context, name string) (*domain.ImageRecord, error) {
	rec, err := s.images.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrImageNotFound
	}
	return rec, nil
}

// Save creates or overwrites an image record from a client-supplied body.
func (s *ImageService) Save(ctx context.Context, rec *domain.ImageRecord) error {
	return s.images.Upsert(ctx, rec)
}

// Delete removes an image record. Blob objects are removed by folder
// delete, not here, mirroring the metadata-only contract of the endpoint.
func (s *ImageService) Delete(ctx context.Context, name string) error {
	return s.images.Delete(ctx, name)
}

// List retrieves image records with optional folder filtering.
func (s *ImageService) List(ctx context.Context, folderPath *string, page, limit int) ([]domain.ImageRecord, int64, error) {
	return s.images.List(ctx, folderPath, page, limit)
}

// GetExtraction retrieves the extraction record for an image.
func (s *ImageService) GetExtraction(ctx context.Context, name string) (*domain.ExtractionRecord, error) {
	rec, err := s.extractions.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrImageNotFound
	}
	return rec, nil
}
