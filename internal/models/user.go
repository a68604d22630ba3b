package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/collab-task-api/internal/constants"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleMember  Role = "Member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

type User struct {
	ID                  string     `gorm:"type:char(24);primarykey" json:"id"`
	Name                string     `gorm:"type:varchar(50);not null" json:"name"`
	Email               string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash        string     `gorm:"type:varchar(255);not null" json:"-"`
	Role                Role       `gorm:"type:varchar(20);not null;index" json:"role"`
	Avatar              string     `gorm:"type:varchar(255)" json:"avatar"`
	IsActive            bool       `gorm:"not null" json:"is_active"`
	LastLogin           *time.Time `json:"last_login"`
	ResetPasswordToken  *string    `gorm:"type:varchar(64);index" json:"-"`
	ResetPasswordExpire *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	// Denormalized back-references to the projects the user belongs to.
	Projects []UserProject `gorm:"foreignKey:UserID" json:"-"`
}

// Validate checks the stored schema of a user document.
func (u *User) Validate() error {
	var errs fieldErrors

	name := strings.TrimSpace(u.Name)
	switch {
	case name == "":
		errs.add("name", "Name is required")
	case utf8.RuneCountInString(name) > constants.MaxNameLength:
		errs.add("name", "Name cannot be more than 50 characters")
	}

	if u.Email == "" {
		errs.add("email", "Email is required")
	} else if !IsValidEmail(u.Email) {
		errs.add("email", "Please provide a valid email address")
	}

	if u.PasswordHash == "" {
		errs.add("password", "Password is required")
	}

	if !u.Role.Valid() {
		errs.add("role", "Role must be either: Admin, Manager, or Member")
	}

	return errs.err()
}

// BeforeSave normalizes and validates the user on every insert and update.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = RoleMember
	}
	if u.Avatar == "" {
		u.Avatar = constants.DefaultAvatar
	}
	return u.Validate()
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

// ProjectIDs returns the back-referenced project ids in insertion order.
func (u *User) ProjectIDs() []string {
	ids := make([]string, len(u.Projects))
	for i, p := range u.Projects {
		ids[i] = p.ProjectID
	}
	return ids
}

// ClearResetToken drops any outstanding password reset token.
func (u *User) ClearResetToken() {
	u.ResetPasswordToken = nil
	u.ResetPasswordExpire = nil
}
