package dto

import (
	"time"

	"github.com/yukikurage/collab-task-api/internal/models"
)

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID        string      `json:"id"`
	Text      string      `json:"text"`
	CreatedBy *UserRefDTO `json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
}

// AttachmentDTO represents an attachment in API responses
type AttachmentDTO struct {
	ID           string      `json:"id"`
	Filename     string      `json:"filename"`
	OriginalName string      `json:"original_name"`
	MimeType     string      `json:"mime_type"`
	Size         int64       `json:"size"`
	UploadedBy   *UserRefDTO `json:"uploaded_by"`
	UploadedAt   time.Time   `json:"uploaded_at"`
}

// TaskDTO represents a task in API responses. Comments and attachments are
// only present when they were loaded.
type TaskDTO struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	DueDate     time.Time           `json:"due_date"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	AssigneeID  string              `json:"assignee_id"`
	ReporterID  string              `json:"reporter_id"`
	ProjectID   string              `json:"project_id"`
	Assignee    *UserRefDTO         `json:"assignee"`
	Reporter    *UserRefDTO         `json:"reporter"`
	Project     *ProjectRefDTO      `json:"project"`
	Comments    []CommentDTO        `json:"comments,omitempty"`
	Attachments []AttachmentDTO     `json:"attachments,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Status:      task.Status,
		Priority:    task.Priority,
		AssigneeID:  task.AssigneeID,
		ReporterID:  task.ReporterID,
		ProjectID:   task.ProjectID,
		Assignee:    ToUserRef(task.Assignee),
		Reporter:    ToUserRef(task.Reporter),
		Project:     ToProjectRef(task.Project),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	if len(task.Comments) > 0 {
		dto.Comments = make([]CommentDTO, len(task.Comments))
		for i, c := range task.Comments {
			dto.Comments[i] = CommentDTO{
				ID:        c.ID,
				Text:      c.Text,
				CreatedBy: ToUserRef(c.CreatedBy),
				CreatedAt: c.CreatedAt,
			}
		}
	}

	if len(task.Attachments) > 0 {
		dto.Attachments = make([]AttachmentDTO, len(task.Attachments))
		for i, a := range task.Attachments {
			dto.Attachments[i] = AttachmentDTO{
				ID:           a.ID,
				Filename:     a.Filename,
				OriginalName: a.OriginalName,
				MimeType:     a.MimeType,
				Size:         a.Size,
				UploadedBy:   ToUserRef(a.UploadedBy),
				UploadedAt:   a.UploadedAt,
			}
		}
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskDTO(t)
	}
	return out
}
