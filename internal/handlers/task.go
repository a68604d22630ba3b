package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/collab-task-api/internal/dto"
	"github.com/yukikurage/collab-task-api/internal/models"
	"github.com/yukikurage/collab-task-api/internal/services"
)

// TaskHandler serves /tasks.
type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// ListTasks returns the tasks visible to the actor.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	opts := listOptions(c, "status", "priority", "assignee", "reporter", "project")
	page, err := h.taskService.List(c.Request.Context(), actor(c), opts)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondPage(c, page, dto.ToTaskDTOs)
}

// GetTask returns a task with its comments and attachments.
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.taskService.Get(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a task reported by the actor.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Title       string              `json:"title" binding:"required,max=200"`
		Description string              `json:"description" binding:"required"`
		DueDate     time.Time           `json:"due_date" binding:"required,future"`
		Status      models.TaskStatus   `json:"status" binding:"omitempty,oneof='To-Do' 'In Progress' Completed"`
		Priority    models.TaskPriority `json:"priority" binding:"omitempty,oneof=Low Medium High"`
		Assignee    string              `json:"assignee" binding:"required,objectid"`
		Project     string              `json:"project" binding:"required,objectid"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), actor(c), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.Assignee,
		ProjectID:   req.Project,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask changes the fields present in the body.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	type UpdateTaskRequest struct {
		Title       *string              `json:"title" binding:"omitempty,max=200"`
		Description *string              `json:"description"`
		DueDate     *time.Time           `json:"due_date" binding:"omitempty,future"`
		Status      *models.TaskStatus   `json:"status" binding:"omitempty,oneof='To-Do' 'In Progress' Completed"`
		Priority    *models.TaskPriority `json:"priority" binding:"omitempty,oneof=Low Medium High"`
		Assignee    *string              `json:"assignee" binding:"omitempty,objectid"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), actor(c), c.Param("id"), services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.Assignee,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask removes a task with its comments and attachments.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.taskService.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, gin.H{})
}

// AddComment appends a comment to the task.
func (h *TaskHandler) AddComment(c *gin.Context) {
	type CommentRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	task, err := h.taskService.AddComment(c.Request.Context(), actor(c), c.Param("id"), req.Text)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, dto.ToTaskDTO(*task))
}

// AddAttachment stores the multipart "file" field on the task.
func (h *TaskHandler) AddAttachment(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(services.ErrFileRequired)
		return
	}

	task, err := h.taskService.AddAttachment(c.Request.Context(), actor(c), c.Param("id"), header)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteAttachment removes an attachment and its file.
func (h *TaskHandler) DeleteAttachment(c *gin.Context) {
	task, err := h.taskService.DeleteAttachment(c.Request.Context(), actor(c), c.Param("id"), c.Param("attachmentId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, dto.ToTaskDTO(*task))
}

// ListUserTasks returns the tasks assigned to a user.
func (h *TaskHandler) ListUserTasks(c *gin.Context) {
	page, err := h.taskService.ListByUser(c.Request.Context(), actor(c), c.Param("userId"), listOptions(c, "status", "priority"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondPage(c, page, dto.ToTaskDTOs)
}

// ListProjectTasks returns the tasks of a project.
func (h *TaskHandler) ListProjectTasks(c *gin.Context) {
	page, err := h.taskService.ListByProject(c.Request.Context(), actor(c), c.Param("projectId"), listOptions(c, "status", "priority"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondPage(c, page, dto.ToTaskDTOs)
}
