package domain

import "time"

// ActivityType classifies audit-trail entries by the operation performed.
type ActivityType string

const (
	ActivityLogin        ActivityType = "login"
	ActivityLogout       ActivityType = "logout"
	ActivityUpload       ActivityType = "upload"
	ActivityExtract      ActivityType = "extract"
	ActivityImageDelete  ActivityType = "image_delete"
	ActivityFolderCreate ActivityType = "folder_create"
	ActivityFolderDelete ActivityType = "folder_delete"
	ActivityFolderRename ActivityType = "folder_rename"
	ActivityView         ActivityType = "view"
)

// ActivityLog is one audit-trail entry recorded per authenticated request.
type ActivityLog struct {
	ID           string       `gorm:"column:id;type:text;primaryKey" json:"id"`
	UserID       string       `gorm:"column:user_id;type:text;index:idx_activity_user" json:"user_id"`
	Username     string       `gorm:"column:username;type:text" json:"username"`
	ActivityType ActivityType `gorm:"column:activity_type;type:text;index:idx_activity_type" json:"activity_type"`
	Method       string       `gorm:"column:method;type:text" json:"method"`
	Path         string       `gorm:"column:path;type:text" json:"path"`
	StatusCode   int          `gorm:"column:status_code" json:"status_code"`
	DurationMs   int64        `gorm:"column:duration_ms" json:"duration_ms"`
	ClientIP     string       `gorm:"column:client_ip;type:text" json:"client_ip"`
	CreatedAt    time.Time    `gorm:"column:created_at;index:idx_activity_created" json:"created_at"`
}

// TableName returns the database table name for ActivityLog.
func (ActivityLog) TableName() string {
	return "activity_logs"
}
