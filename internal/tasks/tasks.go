package tasks

import (
	"context"

	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/queue"
)

// ImageStore is the image metadata surface the tasks need.
type ImageStore interface {
	Get(ctx context.Context, name string) (*domain.ImageRecord, error)
	Upsert(ctx context.Context, rec *domain.ImageRecord) error
	TryMarkProcessing(ctx context.Context, name string) (bool, error)
}

// ExtractionStore persists extraction results.
type ExtractionStore interface {
	Upsert(ctx context.Context, rec *domain.ExtractionRecord) error
}

// Register binds every task handler onto the queue. Called once at startup
// by whichever process runs workers (the API in inline mode, the worker
// binary in redis mode).
func Register(q *queue.Queue, upload *UploadTask, extract *ExtractTask) {
	q.Register(domain.TaskUploadImage, upload.Run)
	q.Register(domain.TaskExtractForm, extract.Run)
}
