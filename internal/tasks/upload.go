package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/logger"
	"github.com/tranqh/formintake/internal/service"
)

// UploadTask stores a spooled upload asynchronously: blob write, metadata
// record, temp cleanup.
type UploadTask struct {
	images *service.ImageService
}

// NewUploadTask creates the handler for the upload task.
func NewUploadTask(images *service.ImageService) *UploadTask {
	return &UploadTask{images: images}
}

// Run executes one upload job. The spooled temp file is removed on every
// outcome; a leaked temp file would otherwise survive until process restart.
func (t *UploadTask) Run(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p domain.UploadPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("invalid upload payload: %w", err)
	}
	defer removeTemp(ctx, p.TempPath)

	rec, err := t.images.Upload(ctx, p.TempPath, p.OriginalFilename, p.Status, p.FolderPath)
	if err != nil {
		return nil, err
	}

	return domain.UploadResult{
		ImageName: rec.ImageName,
		URL:       rec.ImagePath,
		Status:    rec.Status,
	}, nil
}

// removeTemp deletes a spooled file, logging rather than failing the job
// when the delete itself fails.
func removeTemp(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.FromContext(ctx).WithError(err).WithField("path", path).
			Warn("Failed to remove temp file")
	}
}
