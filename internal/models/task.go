package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/collab-task-api/internal/constants"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "To-Do"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "Low"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityHigh   TaskPriority = "High"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          string       `gorm:"type:char(24);primarykey" json:"id"`
	Title       string       `gorm:"type:varchar(200);not null" json:"title"`
	Description string       `gorm:"type:text;not null" json:"description"`
	DueDate     time.Time    `gorm:"not null;index" json:"due_date"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(10);not null" json:"priority"`
	AssigneeID  string       `gorm:"type:char(24);not null;index" json:"assignee_id"`
	ReporterID  string       `gorm:"type:char(24);not null;index" json:"reporter_id"`
	ProjectID   string       `gorm:"type:char(24);not null;index" json:"project_id"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relations
	Assignee    *User        `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Reporter    *User        `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	Project     *Project     `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Comments    []Comment    `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
}

func (t *Task) Validate() error {
	var errs fieldErrors

	title := strings.TrimSpace(t.Title)
	switch {
	case title == "":
		errs.add("title", "Task title is required")
	case utf8.RuneCountInString(title) > constants.MaxTaskTitleLength:
		errs.add("title", "Task title cannot be more than 200 characters")
	}
	if strings.TrimSpace(t.Description) == "" {
		errs.add("description", "Task description is required")
	}
	if t.DueDate.IsZero() {
		errs.add("due_date", "Due date is required")
	}
	if !t.Status.Valid() {
		errs.add("status", "Status must be one of: To-Do, In Progress, Completed")
	}
	if !t.Priority.Valid() {
		errs.add("priority", "Priority must be one of: Low, Medium, High")
	}
	if !IsValidID(t.AssigneeID) {
		errs.add("assignee", "Assignee must be a valid id")
	}
	if !IsValidID(t.ReporterID) {
		errs.add("reporter", "Reporter must be a valid id")
	}
	if !IsValidID(t.ProjectID) {
		errs.add("project", "Project must be a valid id")
	}

	return errs.err()
}

// ValidateDueDate enforces that the due date lies strictly after now.
func (t *Task) ValidateDueDate(now time.Time) error {
	var errs fieldErrors
	if !t.DueDate.After(now) {
		errs.add("due_date", "Due date must be in the future")
	}
	return errs.err()
}

func (t *Task) BeforeSave(tx *gorm.DB) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Status == "" {
		t.Status = TaskStatusTodo
	}
	if t.Priority == "" {
		t.Priority = TaskPriorityMedium
	}
	return t.Validate()
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	return t.ValidateDueDate(time.Now())
}
