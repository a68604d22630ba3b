package models

import (
	"time"

	"gorm.io/gorm"
)

// Attachment describes a file stored for a task. Filename is the generated
// name on disk, OriginalName the name supplied by the uploader.
type Attachment struct {
	ID           string    `gorm:"type:char(24);primarykey" json:"id"`
	TaskID       string    `gorm:"type:char(24);not null;index" json:"task_id"`
	Filename     string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"filename"`
	OriginalName string    `gorm:"type:varchar(255);not null" json:"original_name"`
	MimeType     string    `gorm:"type:varchar(100);not null" json:"mime_type"`
	Size         int64     `gorm:"not null" json:"size"`
	UploadedByID string    `gorm:"type:char(24);not null" json:"uploaded_by_id"`
	UploadedAt   time.Time `gorm:"autoCreateTime" json:"uploaded_at"`

	UploadedBy *User `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = NewID()
	}
	return nil
}
