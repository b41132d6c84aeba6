package queue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/tranqh/formintake/internal/domain"
)

// ErrJobNotFound is returned by GetJob for unknown or expired job IDs.
var ErrJobNotFound = errors.New("job not found")

// Backend is the broker and result store behind the queue. CreateJob makes
// the job visible to exactly one NextJob caller eventually (at-least-once:
// a worker crash between pop and terminal mark can lose or duplicate work,
// matching the broker's generic delivery guarantee). Terminal results are
// retained for the backend's retention window and then expire.
type Backend interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	NextJob(ctx context.Context) (*domain.Job, error)
	MarkStarted(ctx context.Context, id string) error
	MarkSuccess(ctx context.Context, id string, result json.RawMessage) error
	MarkFailure(ctx context.Context, id string, errMsg string) error
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	Close() error
}
