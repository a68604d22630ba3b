package models

import "time"

// ProjectMember is the owning side of project membership.
type ProjectMember struct {
	ProjectID string    `gorm:"type:char(24);primarykey" json:"project_id"`
	UserID    string    `gorm:"type:char(24);primarykey;index" json:"user_id"`
	JoinedAt  time.Time `json:"joined_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
