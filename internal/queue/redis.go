package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tranqh/formintake/internal/domain"
)

const (
	queueKey     = "formintake:queue"
	jobKeyPrefix = "formintake:job:"

	// popTimeout bounds each BRPOP so workers can notice ctx cancellation.
	popTimeout = 2 * time.Second
)

// RedisBackend is the shared broker and result store: job state lives in a
// redis hash with a TTL, the dispatch order in a redis list. Multiple worker
// processes can consume the same queue.
type RedisBackend struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisBackend connects to redis and verifies the connection.
func NewRedisBackend(addr, password string, db int, retention time.Duration) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	if retention <= 0 {
		retention = time.Hour
	}
	return &RedisBackend{client: client, retention: retention}, nil
}

// Ping checks redis connectivity, for readiness probes.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}

// CreateJob stores the job hash and pushes its ID onto the dispatch list.
func (b *RedisBackend) CreateJob(ctx context.Context, job *domain.Job) error {
	job.State = domain.JobStatePending
	job.EnqueuedAt = time.Now().UTC()

	key := jobKey(job.ID)
	pipe := b.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"task":        job.Task,
		"state":       string(job.State),
		"payload":     string(job.Payload),
		"enqueued_at": job.EnqueuedAt.Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, b.retention)
	pipe.LPush(ctx, queueKey, job.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create job in redis: %w", err)
	}
	return nil
}

// NextJob pops the next job ID and loads its hash. Blocks until a job
// arrives or ctx is cancelled.
func (b *RedisBackend) NextJob(ctx context.Context) (*domain.Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vals, err := b.client.BRPop(ctx, popTimeout, queueKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to pop job from redis: %w", err)
		}

		// vals is [listKey, jobID]
		job, err := b.GetJob(ctx, vals[1])
		if errors.Is(err, ErrJobNotFound) {
			// Job hash expired between push and pop; skip.
			continue
		}
		if err != nil {
			return nil, err
		}
		return job, nil
	}
}

// MarkStarted transitions the job to STARTED.
func (b *RedisBackend) MarkStarted(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return b.client.HSet(ctx, jobKey(id), map[string]interface{}{
		"state":      string(domain.JobStateStarted),
		"started_at": now,
	}).Err()
}

// MarkSuccess records the terminal SUCCESS state and refreshes the TTL so
// the retention window counts from completion.
func (b *RedisBackend) MarkSuccess(ctx context.Context, id string, result json.RawMessage) error {
	return b.finish(ctx, id, map[string]interface{}{
		"state":       string(domain.JobStateSuccess),
		"result":      string(result),
		"finished_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// MarkFailure records the terminal FAILURE state and refreshes the TTL.
func (b *RedisBackend) MarkFailure(ctx context.Context, id string, errMsg string) error {
	return b.finish(ctx, id, map[string]interface{}{
		"state":       string(domain.JobStateFailure),
		"error":       errMsg,
		"finished_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (b *RedisBackend) finish(ctx context.Context, id string, fields map[string]interface{}) error {
	key := jobKey(id)
	pipe := b.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, b.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to finish job in redis: %w", err)
	}
	return nil
}

// GetJob loads a job hash by ID.
func (b *RedisBackend) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	fields, err := b.client.HGetAll(ctx, jobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get job from redis: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrJobNotFound
	}

	job := &domain.Job{
		ID:    id,
		Task:  fields["task"],
		State: domain.JobState(fields["state"]),
		Error: fields["error"],
	}
	if payload := fields["payload"]; payload != "" {
		job.Payload = json.RawMessage(payload)
	}
	if result := fields["result"]; result != "" {
		job.Result = json.RawMessage(result)
	}
	if ts := fields["enqueued_at"]; ts != "" {
		job.EnqueuedAt, _ = time.Parse(time.RFC3339Nano, ts)
	}
	if ts := fields["started_at"]; ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			job.StartedAt = &t
		}
	}
	if ts := fields["finished_at"]; ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			job.FinishedAt = &t
		}
	}
	return job, nil
}

// Close closes the redis connection.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
