package dto

import (
	"time"

	"github.com/yukikurage/collab-task-api/internal/models"
)

// UserDTO represents a user in API responses. The password hash and reset
// token never leave the server.
type UserDTO struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	Avatar    string      `json:"avatar"`
	IsActive  bool        `json:"is_active"`
	LastLogin *time.Time  `json:"last_login"`
	Projects  []string    `json:"projects"`
	CreatedAt time.Time   `json:"created_at"`
}

// UserRefDTO is the populated form of a user reference.
type UserRefDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthUserDTO is returned by register and login.
type AuthUserDTO struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	Token string      `json:"token"`
}

func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Avatar:    user.Avatar,
		IsActive:  user.IsActive,
		LastLogin: user.LastLogin,
		Projects:  user.ProjectIDs(),
		CreatedAt: user.CreatedAt,
	}
}

func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = ToUserDTO(u)
	}
	return out
}

// ToUserRef returns nil for a reference that could not be resolved, which
// renders as null.
func ToUserRef(user *models.User) *UserRefDTO {
	if user == nil || user.ID == "" {
		return nil
	}
	return &UserRefDTO{ID: user.ID, Name: user.Name, Email: user.Email}
}

func ToAuthUserDTO(user *models.User, token string) AuthUserDTO {
	return AuthUserDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		Token: token,
	}
}
