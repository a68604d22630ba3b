package models

import "time"

// UserProject is a denormalized back-reference from a user to a project the
// user created or joined. Rows are kept in step with Project.CreatedByID and
// ProjectMember by the integrity package.
type UserProject struct {
	UserID    string    `gorm:"type:char(24);primarykey" json:"user_id"`
	ProjectID string    `gorm:"type:char(24);primarykey;index" json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}
