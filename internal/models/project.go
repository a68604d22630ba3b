package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/collab-task-api/internal/constants"
	"gorm.io/gorm"
)

type Project struct {
	ID          string    `gorm:"type:char(24);primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CreatedByID string    `gorm:"type:char(24);not null;index" json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	CreatedBy *User           `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Members   []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Tasks     []Task          `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}

func (p *Project) Validate() error {
	var errs fieldErrors

	name := strings.TrimSpace(p.Name)
	switch {
	case name == "":
		errs.add("name", "Project name is required")
	case utf8.RuneCountInString(name) > constants.MaxProjectNameLen:
		errs.add("name", "Project name cannot be more than 100 characters")
	}
	if strings.TrimSpace(p.Description) == "" {
		errs.add("description", "Project description is required")
	}
	if !IsValidID(p.CreatedByID) {
		errs.add("created_by", "Project creator must be a valid id")
	}

	return errs.err()
}

func (p *Project) BeforeSave(tx *gorm.DB) error {
	p.Name = strings.TrimSpace(p.Name)
	return p.Validate()
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}

// MemberIDs returns the ids of the loaded members.
func (p *Project) MemberIDs() []string {
	ids := make([]string, len(p.Members))
	for i, m := range p.Members {
		ids[i] = m.UserID
	}
	return ids
}
