package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Comment is owned by a task; it is deleted with the task.
type Comment struct {
	ID          string    `gorm:"type:char(24);primarykey" json:"id"`
	TaskID      string    `gorm:"type:char(24);not null;index" json:"task_id"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	CreatedByID string    `gorm:"type:char(24);not null" json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`

	CreatedBy *User `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	var errs fieldErrors
	if strings.TrimSpace(c.Text) == "" {
		errs.add("text", "Comment text is required")
	}
	return errs.err()
}
