package files

import "time"

// FileRecord is the gorm entity for uploaded file metadata.
type FileRecord struct {
	ID           string `gorm:"primaryKey;size:36"`
	RoomID       string `gorm:"index;size:64;not null"`
	Name         string `gorm:"size:255;not null"`
	BlobKey      string `gorm:"size:128;not null"`
	URL          string `gorm:"size:512;not null"`
	Size         int64
	UploadedBy   string `gorm:"size:36;not null"`
	UploaderName string `gorm:"size:100;not null"`
	CreatedAt    time.Time
}

// TableName specifies the table name.
func (FileRecord) TableName() string {
	return "files"
}
