package repository

import (
	"context"

	"github.com/yukikurage/collab-task-api/internal/models"
	"gorm.io/gorm"
)

var taskFields = Fields{
	"id":          "id",
	"title":       "title",
	"description": "description",
	"due_date":    "due_date",
	"status":      "status",
	"priority":    "priority",
	"assignee":    "assignee_id",
	"reporter":    "reporter_id",
	"project":     "project_id",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
}

// TaskDetail lists the relations rendered with a single task.
var TaskDetail = []string{"Assignee", "Reporter", "Project", "Comments.CreatedBy", "Attachments.UploadedBy"}

// TaskSummary lists the relations rendered in task lists.
var TaskSummary = []string{"Assignee", "Reporter", "Project"}

// TaskRepository is the GORM store for tasks and their embedded comments and attachments.
type TaskRepository struct {
	*Resource[models.Task]
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{
		Resource: NewResource[models.Task](db, "Task", taskFields),
		db:       db,
	}
}

// InProjects limits a task query to the given projects.
func InProjects(projectIDs []string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(projectIDs) == 0 {
			return db.Where("1 = 0")
		}
		return db.Where("tasks.project_id IN ?", projectIDs)
	}
}

// AddComment appends a comment to a task.
func (r *TaskRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit("CreatedBy").Create(comment).Error
}

// AddAttachment records a stored file on a task.
func (r *TaskRepository) AddAttachment(ctx context.Context, attachment *models.Attachment) error {
	return r.db.WithContext(ctx).Omit("UploadedBy").Create(attachment).Error
}

// FindAttachment finds an attachment by task and attachment id.
func (r *TaskRepository) FindAttachment(ctx context.Context, taskID, attachmentID string) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := r.db.WithContext(ctx).Preload("UploadedBy").
		Where("task_id = ? AND id = ?", taskID, attachmentID).
		First(&attachment).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

// DeleteAttachment removes the attachment record.
func (r *TaskRepository) DeleteAttachment(ctx context.Context, attachment *models.Attachment) error {
	return r.db.WithContext(ctx).Delete(attachment).Error
}

// ListAttachmentFiles returns the stored file names of a task's attachments.
func ListAttachmentFiles(tx *gorm.DB, taskIDs []string) ([]string, error) {
	var names []string
	if len(taskIDs) == 0 {
		return names, nil
	}
	err := tx.Model(&models.Attachment{}).Where("task_id IN ?", taskIDs).Pluck("filename", &names).Error
	return names, err
}
