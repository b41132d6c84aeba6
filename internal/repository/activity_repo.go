package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/tranqh/formintake/internal/domain"
	"gorm.io/gorm"
)

// ActivityRepository handles audit-trail entries.
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create inserts a new activity log entry.
func (r *ActivityRepository) Create(ctx context.Context, log *domain.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ActivityFilter narrows activity log queries. Zero values mean "no filter".
type ActivityFilter struct {
	UserID       string
	ActivityType domain.ActivityType
	From         time.Time
	To           time.Time
	Page         int
	Limit        int
}

// List retrieves activity log entries matching the filter, newest first.
func (r *ActivityRepository) List(ctx context.Context, f ActivityFilter) ([]domain.ActivityLog, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}

	query := r.db.WithContext(ctx).Model(&domain.ActivityLog{})
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.ActivityType != "" {
		query = query.Where("activity_type = ?", f.ActivityType)
	}
	if !f.From.IsZero() {
		query = query.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		query = query.Where("created_at <= ?", f.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count activity logs: %w", err)
	}

	var logs []domain.ActivityLog
	if err := query.
		Order("created_at DESC").
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list activity logs: %w", err)
	}
	return logs, total, nil
}

// Summary returns activity counts grouped by type, optionally scoped to one
// user.
func (r *ActivityRepository) Summary(ctx context.Context, userID string, since time.Time) (map[string]int64, error) {
	type row struct {
		ActivityType string
		Count        int64
	}
	query := r.db.WithContext(ctx).Model(&domain.ActivityLog{}).
		Select("activity_type, count(*) as count").
		Group("activity_type")
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to summarize activity: %w", err)
	}

	summary := make(map[string]int64, len(rows))
	for _, r := range rows {
		summary[r.ActivityType] = r.Count
	}
	return summary, nil
}

// DeleteOlderThan removes entries created before the cutoff and returns the
// number deleted.
func (r *ActivityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&domain.ActivityLog{}, "created_at < ?", cutoff)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clean up activity logs: %w", res.Error)
	}
	return res.RowsAffected, nil
}
