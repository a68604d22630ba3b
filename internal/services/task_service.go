package services

import (
	"context"
	"errors"
	"mime/multipart"
	"time"

	"github.com/sirupsen/logrus"
	apierrors "github.com/yukikurage/collab-task-api/internal/errors"
	"github.com/yukikurage/collab-task-api/internal/integrity"
	"github.com/yukikurage/collab-task-api/internal/models"
	"github.com/yukikurage/collab-task-api/internal/policy"
	"github.com/yukikurage/collab-task-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidProjectID   = apierrors.Validation("Invalid project id", apierrors.FieldError{Field: "project", Message: "Project must be a valid id"})
	ErrInvalidAssigneeID  = apierrors.Validation("Invalid assignee id", apierrors.FieldError{Field: "assignee", Message: "Assignee must be a valid id"})
	ErrCommentRequired    = apierrors.Validation("Please provide comment text", apierrors.FieldError{Field: "text", Message: "Comment text is required"})
	ErrFileRequired       = apierrors.Validation("Please upload a file")
	ErrAttachmentNotFound = apierrors.NotFound("Attachment")
	ErrAssigneeNotFound   = apierrors.NotFound("Assignee")
)

// taskProjectRelations loads what task authorization needs.
var taskProjectRelations = []string{"Project.Members"}

// TaskService handles task business logic
type TaskService struct {
	tasks      *repository.TaskRepository
	projects   *repository.ProjectRepository
	users      *repository.UserRepository
	maintainer *integrity.Maintainer
	files      FileStore
	ai         *AIService
	log        *logrus.Logger
	now        func() time.Time
}

// NewTaskService creates a new TaskService. ai may be nil.
func NewTaskService(tasks *repository.TaskRepository, projects *repository.ProjectRepository, users *repository.UserRepository,
	maintainer *integrity.Maintainer, files FileStore, ai *AIService, log *logrus.Logger) *TaskService {
	return &TaskService{
		tasks:      tasks,
		projects:   projects,
		users:      users,
		maintainer: maintainer,
		files:      files,
		ai:         ai,
		log:        log,
		now:        time.Now,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Status      models.TaskStatus
	Priority    models.TaskPriority
	AssigneeID  string
	ProjectID   string
}

// Create adds a task to a project the actor belongs to. The actor becomes
// the reporter.
func (s *TaskService) Create(ctx context.Context, actor policy.Actor, input CreateTaskInput) (*models.Task, error) {
	if !models.IsValidID(input.ProjectID) {
		return nil, ErrInvalidProjectID
	}
	project, err := s.projects.FindWithMembers(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(policy.TaskCreate, policy.ForProject(actor, project)); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, input.AssigneeID); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Status:      input.Status,
		Priority:    input.Priority,
		AssigneeID:  input.AssigneeID,
		ProjectID:   project.ID,
	}
	return s.tasks.CreateOne(ctx, task, repository.CreateOptions[models.Task]{
		Preload: repository.TaskDetail,
		Transform: func(t *models.Task) error {
			t.ReporterID = actor.ID
			return t.ValidateDueDate(s.now())
		},
	})
}

// List returns the tasks visible to the actor: every task for admins,
// otherwise tasks of projects the actor created or joined.
func (s *TaskService) List(ctx context.Context, actor policy.Actor, opts repository.ListOptions) (*repository.Page[models.Task], error) {
	if !actor.IsAdmin() {
		projectIDs, err := s.projects.ListVisibleIDs(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		opts.Scopes = append(opts.Scopes, repository.InProjects(projectIDs))
	}
	if opts.Preload == nil {
		opts.Preload = repository.TaskSummary
	}
	return s.tasks.GetAll(ctx, opts)
}

// Get loads a task the actor may read.
func (s *TaskService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Task, error) {
	task, err := s.authorized(ctx, actor, id, policy.TaskRead)
	if err != nil {
		return nil, err
	}
	return s.tasks.GetOne(ctx, task.ID, repository.QueryOptions{Preload: repository.TaskDetail})
}

// UpdateTaskInput represents input for updating a task. The project and
// reporter of a task never change.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	AssigneeID  *string
}

// Update changes a task. Allowed for admins, the project creator, the
// assignee and the reporter.
func (s *TaskService) Update(ctx context.Context, actor policy.Actor, id string, input UpdateTaskInput) (*models.Task, error) {
	if _, err := s.authorized(ctx, actor, id, policy.TaskUpdate); err != nil {
		return nil, err
	}
	if input.AssigneeID != nil {
		if err := s.checkAssignee(ctx, *input.AssigneeID); err != nil {
			return nil, err
		}
	}

	return s.tasks.UpdateOne(ctx, id, repository.UpdateOptions[models.Task]{
		Preload: repository.TaskDetail,
		Transform: func(t *models.Task) error {
			if input.Title != nil {
				t.Title = *input.Title
			}
			if input.Description != nil {
				t.Description = *input.Description
			}
			if input.Status != nil {
				t.Status = *input.Status
			}
			if input.Priority != nil {
				t.Priority = *input.Priority
			}
			if input.AssigneeID != nil {
				t.AssigneeID = *input.AssigneeID
			}
			if input.DueDate != nil {
				t.DueDate = *input.DueDate
				return t.ValidateDueDate(s.now())
			}
			return nil
		},
	})
}

// Delete removes a task with its comments and attachments.
func (s *TaskService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if _, err := s.authorized(ctx, actor, id, policy.TaskDelete); err != nil {
		return err
	}

	var files []string
	_, err := s.tasks.DeleteOne(ctx, id, repository.DeleteOptions[models.Task]{
		OnDelete: func(tx *gorm.DB, t *models.Task) error {
			var err error
			files, err = s.maintainer.TasksDeleted(tx, []string{t.ID})
			return err
		},
	})
	if err != nil {
		return err
	}

	s.files.RemoveAll(files)
	return nil
}

// AddComment appends a comment by the actor and returns the updated task.
func (s *TaskService) AddComment(ctx context.Context, actor policy.Actor, taskID, text string) (*models.Task, error) {
	task, err := s.authorized(ctx, actor, taskID, policy.TaskComment)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, ErrCommentRequired
	}

	comment := &models.Comment{TaskID: task.ID, Text: text, CreatedByID: actor.ID}
	if err := s.tasks.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	return s.tasks.GetOne(ctx, task.ID, repository.QueryOptions{Preload: repository.TaskDetail})
}

// AddAttachment stores an uploaded file on the task and returns the updated task.
func (s *TaskService) AddAttachment(ctx context.Context, actor policy.Actor, taskID string, header *multipart.FileHeader) (*models.Task, error) {
	task, err := s.authorized(ctx, actor, taskID, policy.TaskAttach)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, ErrFileRequired
	}

	stored, err := s.files.Save(header)
	if err != nil {
		return nil, err
	}

	attachment := &models.Attachment{
		TaskID:       task.ID,
		Filename:     stored.Filename,
		OriginalName: stored.OriginalName,
		MimeType:     stored.MimeType,
		Size:         stored.Size,
		UploadedByID: actor.ID,
	}
	if err := s.tasks.AddAttachment(ctx, attachment); err != nil {
		_ = s.files.Remove(stored.Filename)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"task_id":  task.ID,
		"file":     stored.Filename,
		"size":     stored.Size,
		"actor_id": actor.ID,
	}).Info("Attachment uploaded")

	return s.tasks.GetOne(ctx, task.ID, repository.QueryOptions{Preload: repository.TaskDetail})
}

// DeleteAttachment removes an attachment record and its stored file.
func (s *TaskService) DeleteAttachment(ctx context.Context, actor policy.Actor, taskID, attachmentID string) (*models.Task, error) {
	task, err := s.authorized(ctx, actor, taskID, policy.TaskDeleteAttachment)
	if err != nil {
		return nil, err
	}

	attachment, err := s.tasks.FindAttachment(ctx, task.ID, attachmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAttachmentNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.tasks.DeleteAttachment(ctx, attachment); err != nil {
		return nil, err
	}
	_ = s.files.Remove(attachment.Filename)

	return s.tasks.GetOne(ctx, task.ID, repository.QueryOptions{Preload: repository.TaskDetail})
}

// ListByUser returns the tasks assigned to userID. Users may only list their
// own tasks unless they are admins.
func (s *TaskService) ListByUser(ctx context.Context, actor policy.Actor, userID string, opts repository.ListOptions) (*repository.Page[models.Task], error) {
	if !models.IsValidID(userID) {
		return nil, ErrInvalidUserID
	}
	if err := policy.Authorize(policy.TaskListByUser, policy.ForUser(actor, userID)); err != nil {
		return nil, err
	}

	opts.Filter = withFilter(opts.Filter, "assignee", userID)
	opts.Preload = []string{"Project"}
	return s.tasks.GetAll(ctx, opts)
}

// ListByProject returns the tasks of a project the actor may read.
func (s *TaskService) ListByProject(ctx context.Context, actor policy.Actor, projectID string, opts repository.ListOptions) (*repository.Page[models.Task], error) {
	project, err := s.projects.FindWithMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(policy.TaskListByProject, policy.ForProject(actor, project)); err != nil {
		return nil, err
	}

	opts.Filter = withFilter(opts.Filter, "project", project.ID)
	opts.Preload = []string{"Assignee", "Reporter"}
	return s.tasks.GetAll(ctx, opts)
}

// Suggest drafts tasks for a project from free text. Nothing is stored.
func (s *TaskService) Suggest(ctx context.Context, actor policy.Actor, projectID, text string) ([]GeneratedTask, error) {
	project, err := s.projects.FindWithMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(policy.TaskCreate, policy.ForProject(actor, project)); err != nil {
		return nil, err
	}
	if s.ai == nil {
		return nil, ErrAIServiceNotConfigured
	}

	drafts, err := s.ai.GenerateTasksFromText(ctx, project.Name, text)
	if err != nil {
		s.log.WithFields(logrus.Fields{"project_id": project.ID, "error": err}).Warn("Task suggestion failed")
		return nil, ErrAIUnavailable
	}
	return drafts, nil
}

// authorized loads a task with its project members and checks op. A task
// whose project no longer exists is only visible to admins.
func (s *TaskService) authorized(ctx context.Context, actor policy.Actor, id string, op policy.Operation) (*models.Task, error) {
	task, err := s.tasks.GetOne(ctx, id, repository.QueryOptions{
		Preload: append([]string{"Attachments"}, taskProjectRelations...),
	})
	if err != nil {
		return nil, err
	}

	project := task.Project
	if project == nil {
		project = &models.Project{}
	}
	if err := policy.Authorize(op, policy.ForTask(actor, task, project)); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) checkAssignee(ctx context.Context, id string) error {
	if !models.IsValidID(id) {
		return ErrInvalidAssigneeID
	}
	exists, err := s.users.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrAssigneeNotFound
	}
	return nil
}

// withFilter adds a fixed equality condition on top of the caller's filters.
func withFilter(filter map[string]any, field string, value any) map[string]any {
	if filter == nil {
		filter = make(map[string]any, 1)
	}
	filter[field] = value
	return filter
}
