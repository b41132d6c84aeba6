package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/tranqh/formintake/internal/domain"
)

// MemoryBackend is an in-process Backend for solo mode and tests: jobs are
// dispatched over a channel inside one process and results live in a map
// until the retention window lapses.
type MemoryBackend struct {
	mu        sync.RWMutex
	jobs      map[string]*domain.Job
	ready     chan string
	retention time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryBackend creates a MemoryBackend with the given result retention
// window and starts its expiry janitor.
func NewMemoryBackend(retention time.Duration) *MemoryBackend {
	if retention <= 0 {
		retention = time.Hour
	}
	b := &MemoryBackend{
		jobs:      make(map[string]*domain.Job),
		ready:     make(chan string, 1024),
		retention: retention,
		done:      make(chan struct{}),
	}
	go b.janitor()
	return b
}

// CreateJob stores the job as PENDING and makes it available to workers.
func (b *MemoryBackend) CreateJob(ctx context.Context, job *domain.Job) error {
	job.State = domain.JobStatePending
	job.EnqueuedAt = time.Now().UTC()

	b.mu.Lock()
	b.jobs[job.ID] = cloneJob(job)
	b.mu.Unlock()

	select {
	case b.ready <- job.ID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextJob blocks until a job is available or ctx is cancelled.
func (b *MemoryBackend) NextJob(ctx context.Context) (*domain.Job, error) {
	for {
		select {
		case id := <-b.ready:
			b.mu.RLock()
			job, ok := b.jobs[id]
			b.mu.RUnlock()
			if !ok {
				// Expired before pickup; skip.
				continue
			}
			return cloneJob(job), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// MarkStarted transitions the job to STARTED.
func (b *MemoryBackend) MarkStarted(ctx context.Context, id string) error {
	return b.update(id, func(job *domain.Job) {
		now := time.Now().UTC()
		job.State = domain.JobStateStarted
		job.StartedAt = &now
	})
}

// MarkSuccess records the terminal SUCCESS state with its result payload.
func (b *MemoryBackend) MarkSuccess(ctx context.Context, id string, result json.RawMessage) error {
	return b.update(id, func(job *domain.Job) {
		now := time.Now().UTC()
		job.State = domain.JobStateSuccess
		job.Result = result
		job.FinishedAt = &now
	})
}

// MarkFailure records the terminal FAILURE state with its error payload.
func (b *MemoryBackend) MarkFailure(ctx context.Context, id string, errMsg string) error {
	return b.update(id, func(job *domain.Job) {
		now := time.Now().UTC()
		job.State = domain.JobStateFailure
		job.Error = errMsg
		job.FinishedAt = &now
	})
}

// GetJob returns a copy of the job, or ErrJobNotFound for unknown/expired
// IDs.
func (b *MemoryBackend) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	job, ok := b.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return cloneJob(job), nil
}

// Close stops the janitor.
func (b *MemoryBackend) Close() error {
	b.closeOnce.Do(func() { close(b.done) })
	return nil
}

func (b *MemoryBackend) update(id string, fn func(*domain.Job)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	job, ok := b.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	fn(job)
	return nil
}

// janitor sweeps expired terminal jobs once a minute.
func (b *MemoryBackend) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.sweep(time.Now().UTC())
		case <-b.done:
			return
		}
	}
}

func (b *MemoryBackend) sweep(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, job := range b.jobs {
		if job.State.Terminal() && job.FinishedAt != nil && now.Sub(*job.FinishedAt) > b.retention {
			delete(b.jobs, id)
		}
	}
}

func cloneJob(job *domain.Job) *domain.Job {
	copied := *job
	return &copied
}
