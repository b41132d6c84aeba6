package domain

// ImageRecord represents one uploaded form image and its lifecycle metadata.
// ImageName doubles as the storage object basename and the record key, so it
// is globally unique across the collection. CreatedAt is the upload timestamp
// in YYYYMMDD_HHMMSS_ffffff form, which sorts lexically.
type ImageRecord struct {
	ImageName  string      `gorm:"column:image_name;type:text;primaryKey" json:"ImageName"`
	Status     ImageStatus `gorm:"column:status;type:text;index:idx_images_status" json:"Status"`
	ImagePath  string      `gorm:"column:image_path;type:text" json:"ImagePath"`
	CreatedAt  string      `gorm:"column:created_at;type:text" json:"CreatedAt"`
	FolderPath string      `gorm:"column:folder_path;type:text;index:idx_images_folder" json:"FolderPath"`
	Size       float64     `gorm:"column:size" json:"Size"`
}

// TableName returns the database table name for ImageRecord.
func (ImageRecord) TableName() string {
	return "image_detail"
}

// ObjectKey returns the blob store key for the record: the folder prefix
// plus the image name, or just the name for root-level images.
func (r *ImageRecord) ObjectKey() string {
	if r.FolderPath == "" {
		return r.ImageName
	}
	return r.FolderPath + "/" + r.ImageName
}
