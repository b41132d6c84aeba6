package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONMap is a custom type for storing a nested JSON object as text in the
// database. The extraction engine returns free-form mappings, so no schema
// is enforced at the storage layer.
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface for database serialization.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan JSONMap")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, m)
}

// ExtractionRecord represents the structured output of running the
// extraction engine over an image. It is keyed by the image name and carries
// the same positional fields as the image record plus the analysis payload.
// Created only on successful extraction; a re-run overwrites it.
type ExtractionRecord struct {
	ImageName      string      `gorm:"column:image_name;type:text;primaryKey" json:"ImageName"`
	Status         ImageStatus `gorm:"column:status;type:text" json:"Status"`
	ImagePath      string      `gorm:"column:image_path;type:text" json:"ImagePath"`
	CreatedAt      string      `gorm:"column:created_at;type:text" json:"CreatedAt"`
	FolderPath     string      `gorm:"column:folder_path;type:text;index:idx_extractions_folder" json:"FolderPath"`
	Size           float64     `gorm:"column:size" json:"Size"`
	AnalysisResult JSONMap     `gorm:"column:analysis_result;type:text" json:"analysis_result"`
}

// TableName returns the database table name for ExtractionRecord.
func (ExtractionRecord) TableName() string {
	return "form_information"
}
