package domain

import "strings"

// FolderRecord represents a logical folder label attached to images. Folders
// are independent documents, not derived from image paths. An image may
// reference a folder path with no corresponding folder record.
type FolderRecord struct {
	FolderKey  string `gorm:"column:folder_key;type:text;primaryKey" json:"-"`
	FolderPath string `gorm:"column:folder_path;type:text;index:idx_folders_path" json:"FolderPath"`
	CreatedAt  string `gorm:"column:created_at;type:text" json:"CreatedAt"`
}

// TableName returns the database table name for FolderRecord.
func (FolderRecord) TableName() string {
	return "image_folders"
}

// EncodeFolderKey converts a folder path into a flat, storage-safe record
// key. Path separators become a sentinel sequence; the empty path maps to
// "root".
func EncodeFolderKey(path string) string {
	if path == "" {
		return "root"
	}
	return strings.ReplaceAll(path, "/", "__")
}
