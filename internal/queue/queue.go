package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/logger"
)

// HandlerFunc executes one job. The returned value is marshaled into the
// job's result payload. Only IO/transport-level failures should surface as
// an error; business-level anomalies belong inside the result.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (interface{}, error)

// Queue dispatches named tasks to a pool of workers over a Backend and
// exposes a poll-by-id status API.
type Queue struct {
	backend  Backend
	workers  int
	log      *logger.Logger
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	wg       sync.WaitGroup
}

// New creates a Queue with the given backend and worker pool size.
func New(backend Backend, workers int, log *logger.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		backend:  backend,
		workers:  workers,
		log:      log,
		handlers: make(map[string]HandlerFunc),
	}
}

// Register binds a task name to its handler. Must be called before Start.
func (q *Queue) Register(task string, h HandlerFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[task] = h
}

// Enqueue marshals the payload, persists a PENDING job, and returns its ID
// immediately. The job runs out-of-band on a worker.
func (q *Queue) Enqueue(ctx context.Context, task string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload for %s: %w", task, err)
	}

	job := &domain.Job{
		ID:      uuid.New().String(),
		Task:    task,
		State:   domain.JobStatePending,
		Payload: body,
	}
	if err := q.backend.CreateJob(ctx, job); err != nil {
		return "", fmt.Errorf("failed to enqueue %s: %w", task, err)
	}

	q.log.WithFields(logger.Fields{
		logger.FieldJobID: job.ID,
		logger.FieldTask:  task,
	}).Info("Job enqueued")
	return job.ID, nil
}

// Poll returns the current state and result-or-error of a job. It is cheap
// and side-effect-free, safe for high-frequency client polling.
func (q *Queue) Poll(ctx context.Context, id string) (*domain.Job, error) {
	return q.backend.GetJob(ctx, id)
}

// Start launches the worker pool. Workers run until ctx is cancelled; call
// Wait to block for drain.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func(workerID int) {
			defer q.wg.Done()
			q.workerLoop(ctx, workerID)
		}(i)
	}
}

// Wait blocks until all workers have exited.
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) workerLoop(ctx context.Context, workerID int) {
	log := q.log.WithField("worker", workerID)
	log.Info("Worker started")

	for {
		job, err := q.backend.NextJob(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Info("Worker stopped")
				return
			}
			log.WithError(err).Error("Failed to fetch next job")
			continue
		}
		q.runJob(ctx, job, log)
	}
}

// runJob executes one job and records its terminal state. A handler panic is
// recovered into FAILURE so a bad job cannot take down the worker.
func (q *Queue) runJob(ctx context.Context, job *domain.Job, log *logger.Logger) {
	jobCtx := logger.WithFields(ctx, logger.Fields{
		logger.FieldJobID: job.ID,
		logger.FieldTask:  job.Task,
	})
	jobLog := logger.FromContext(jobCtx)

	if err := q.backend.MarkStarted(ctx, job.ID); err != nil {
		jobLog.WithError(err).Warn("Failed to mark job started")
	}

	q.mu.RLock()
	handler, ok := q.handlers[job.Task]
	q.mu.RUnlock()
	if !ok {
		q.finish(ctx, job, nil, fmt.Errorf("no handler registered for task %s", job.Task), jobLog)
		return
	}

	var result interface{}
	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("task panicked: %v", r)
			}
		}()
		result, runErr = handler(jobCtx, job.Payload)
	}()

	q.finish(ctx, job, result, runErr, jobLog)
}

// finish records the terminal state. The mark runs on a context detached
// from worker cancellation: a job that completed during shutdown must still
// land in SUCCESS or FAILURE rather than strand at STARTED until TTL.
func (q *Queue) finish(ctx context.Context, job *domain.Job, result interface{}, runErr error, log *logger.Logger) {
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	ctx = markCtx

	if runErr != nil {
		log.WithError(runErr).Error("Job failed")
		if err := q.backend.MarkFailure(ctx, job.ID, runErr.Error()); err != nil {
			log.WithError(err).Error("Failed to record job failure")
		}
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		log.WithError(err).Error("Failed to marshal job result")
		if err := q.backend.MarkFailure(ctx, job.ID, "failed to marshal result: "+err.Error()); err != nil {
			log.WithError(err).Error("Failed to record job failure")
		}
		return
	}

	if err := q.backend.MarkSuccess(ctx, job.ID, body); err != nil {
		log.WithError(err).Error("Failed to record job success")
		return
	}
	log.Info("Job completed")
}
