package dto

import (
	"time"

	"github.com/yukikurage/collab-task-api/internal/models"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CreatedByID string       `json:"created_by_id"`
	CreatedBy   *UserRefDTO  `json:"created_by"`
	Members     []UserRefDTO `json:"members"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ProjectRefDTO is the populated form of a task's project reference.
type ProjectRefDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ToProjectDTO converts a project. Member rows whose user is gone are skipped.
func ToProjectDTO(project models.Project) ProjectDTO {
	members := make([]UserRefDTO, 0, len(project.Members))
	for _, m := range project.Members {
		if ref := ToUserRef(m.User); ref != nil {
			members = append(members, *ref)
		}
	}

	return ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		CreatedByID: project.CreatedByID,
		CreatedBy:   ToUserRef(project.CreatedBy),
		Members:     members,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	out := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		out[i] = ToProjectDTO(p)
	}
	return out
}

func ToProjectRef(project *models.Project) *ProjectRefDTO {
	if project == nil || project.ID == "" {
		return nil
	}
	return &ProjectRefDTO{ID: project.ID, Name: project.Name}
}
