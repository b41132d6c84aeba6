package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/logger"
	"github.com/tranqh/formintake/internal/service"
)

// ExtractTask runs the vision extraction over an already-uploaded image and
// persists the structured result.
type ExtractTask struct {
	images      ImageStore
	extractions ExtractionStore
	extractor   service.Extractor
	client      *resty.Client
	tempDir     string
}

// NewExtractTask creates the handler for the extraction task.
func NewExtractTask(images ImageStore, extractions ExtractionStore, extractor service.Extractor, tempDir string) *ExtractTask {
	return &ExtractTask{
		images:      images,
		extractions: extractions,
		extractor:   extractor,
		client:      resty.New(),
		tempDir:     tempDir,
	}
}

// Run executes one extraction job. Only transport-level failures (download,
// API call, persistence) fail the job; malformed model output is persisted
// as a completed result carrying an embedded error marker.
func (t *ExtractTask) Run(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p domain.ExtractPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("invalid extract payload: %w", err)
	}
	analysis, err := t.Process(ctx, p)
	if err != nil {
		return nil, err
	}
	return domain.ExtractResult{
		ImageName:      p.ImageName,
		AnalysisResult: analysis,
	}, nil
}

// Process runs the extraction pipeline for one image: fetch a working copy,
// call the engine, persist both records as Completed. Shared by the queued
// task and the synchronous endpoint.
func (t *ExtractTask) Process(ctx context.Context, p domain.ExtractPayload) (domain.JSONMap, error) {
	log := logger.FromContext(ctx).WithField(logger.FieldImageName, p.ImageName)

	// Re-assert the Processing mark on pickup. Losing the race here is
	// fine: the request side usually flipped it already.
	if _, err := t.images.TryMarkProcessing(ctx, p.ImageName); err != nil {
		log.WithError(err).Warn("Failed to mark image Processing on pickup")
	}

	localPath, err := t.download(ctx, p.ImagePath, p.ImageName)
	if err != nil {
		return nil, err
	}
	defer removeTemp(ctx, localPath)

	analysis, err := t.extractor.Extract(ctx, localPath, "")
	if err != nil {
		return nil, err
	}
	if _, degraded := analysis["error"]; degraded {
		log.Warn("Extraction returned malformed output; persisting error marker")
	}

	size := p.Size
	if size == 0 {
		if rec, err := t.images.Get(ctx, p.ImageName); err == nil && rec != nil {
			size = rec.Size
		}
	}

	if err := t.extractions.Upsert(ctx, &domain.ExtractionRecord{
		ImageName:      p.ImageName,
		Status:         domain.StatusCompleted,
		ImagePath:      p.ImagePath,
		CreatedAt:      p.CreatedAt,
		FolderPath:     p.FolderPath,
		Size:           size,
		AnalysisResult: analysis,
	}); err != nil {
		return nil, fmt.Errorf("failed to save extraction result: %w", err)
	}

	if err := t.images.Upsert(ctx, &domain.ImageRecord{
		ImageName:  p.ImageName,
		Status:     domain.StatusCompleted,
		ImagePath:  p.ImagePath,
		CreatedAt:  p.CreatedAt,
		FolderPath: p.FolderPath,
		Size:       size,
	}); err != nil {
		return nil, fmt.Errorf("failed to update image status: %w", err)
	}

	log.Info("Extraction completed")
	return analysis, nil
}

// download fetches the image over HTTP into a per-run temp file. The random
// suffix keeps concurrent runs over the same image from clobbering each
// other's working copy.
func (t *ExtractTask) download(ctx context.Context, url, imageName string) (string, error) {
	ext := filepath.Ext(imageName)
	base := strings.TrimSuffix(imageName, ext)
	localPath := filepath.Join(t.tempDir, fmt.Sprintf("%s_%s%s", base, uuid.New().String()[:8], ext))

	if err := os.MkdirAll(t.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetOutput(localPath).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		removeTemp(ctx, localPath)
		return "", fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode())
	}
	return localPath, nil
}
