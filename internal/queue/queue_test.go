package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/logger"
)

// cancelAwareBackend refuses terminal marks on a cancelled context, the way
// a redis call would fail once its context is done.
type cancelAwareBackend struct {
	*MemoryBackend
}

func (b *cancelAwareBackend) MarkSuccess(ctx context.Context, id string, result json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.MemoryBackend.MarkSuccess(ctx, id, result)
}

func (b *cancelAwareBackend) MarkFailure(ctx context.Context, id string, errMsg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.MemoryBackend.MarkFailure(ctx, id, errMsg)
}

func TestQueue_ShutdownMidJobStillRecordsResult(t *testing.T) {
	backend := &cancelAwareBackend{NewMemoryBackend(time.Hour)}
	defer backend.Close()

	q := New(backend, 1, logger.GetDefault())
	q.Register("test.slow", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		// Finish only after shutdown has begun.
		<-ctx.Done()
		return map[string]string{"done": "yes"}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)

	id, err := q.Enqueue(context.Background(), "test.slow", nil)
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	// Give the worker time to pick the job up, then shut down under it.
	time.Sleep(50 * time.Millisecond)
	cancel()
	q.Wait()

	job, err := backend.GetJob(context.Background(), id)
	if err != nil {
		t.Fatalf("get job failed: %v", err)
	}
	if job.State != domain.JobStateSuccess {
		t.Fatalf("expected SUCCESS recorded after shutdown, got %s (error: %s)", job.State, job.Error)
	}
	var result map[string]string
	if err := json.Unmarshal(job.Result, &result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if result["done"] != "yes" {
		t.Errorf("unexpected result: %v", result)
	}
}
