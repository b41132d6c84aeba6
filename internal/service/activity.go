package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/logger"
	"github.com/tranqh/formintake/internal/repository"
)

// ActivityService records and queries the audit trail. Recording is
// best-effort: a failed write is logged, never propagated, so the audited
// request itself cannot fail on audit bookkeeping.
type ActivityService struct {
	repo          *repository.ActivityRepository
	enabled       bool
	retentionDays int
	log           *logger.Logger
}

// NewActivityService creates a new ActivityService.
func NewActivityService(repo *repository.ActivityRepository, enabled bool, retentionDays int, log *logger.Logger) *ActivityService {
	return &ActivityService{
		repo:          repo,
		enabled:       enabled,
		retentionDays: retentionDays,
		log:           log,
	}
}

// Enabled reports whether audit recording is on.
func (s *ActivityService) Enabled() bool {
	return s.enabled
}

// Record persists one audit entry.
func (s *ActivityService) Record(ctx context.Context, entry *domain.ActivityLog) {
	if !s.enabled {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.WithError(err).Warn("Failed to record activity")
	}
}

// List queries the audit trail.
func (s *ActivityService) List(ctx context.Context, f repository.ActivityFilter) ([]domain.ActivityLog, int64, error) {
	return s.repo.List(ctx, f)
}

// Summary aggregates a user's activity counts by type since the given time.
func (s *ActivityService) Summary(ctx context.Context, userID string, since time.Time) (map[string]int64, error) {
	return s.repo.Summary(ctx, userID, since)
}

// Cleanup deletes entries older than daysToKeep and returns the count.
func (s *ActivityService) Cleanup(ctx context.Context, daysToKeep int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -daysToKeep)
	return s.repo.DeleteOlderThan(ctx, cutoff)
}

// RunRetention starts a daily sweep deleting entries older than the
// retention window. No-op when retention is unbounded.
func (s *ActivityService) RunRetention(ctx context.Context) {
	if !s.enabled || s.retentionDays <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
				n, err := s.repo.DeleteOlderThan(ctx, cutoff)
				if err != nil {
					s.log.WithError(err).Warn("Activity retention sweep failed")
					continue
				}
				if n > 0 {
					s.log.WithField(logger.FieldCount, n).Info("Pruned old activity entries")
				}
			}
		}
	}()
}
