package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/collab-task-api/internal/dto"
	"github.com/yukikurage/collab-task-api/internal/services"
)

// ProjectHandler serves /projects.
type ProjectHandler struct {
	projectService *services.ProjectService
	taskService    *services.TaskService
}

func NewProjectHandler(projectService *services.ProjectService, taskService *services.TaskService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, taskService: taskService}
}

// ListProjects returns the projects visible to the actor.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	page, err := h.projectService.List(c.Request.Context(), actor(c), listOptions(c, "name", "created_by"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondPage(c, page, dto.ToProjectDTOs)
}

// GetProject returns one project
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projectService.Get(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, dto.ToProjectDTO(*project))
}

// CreateProject creates a project owned by the actor.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	type CreateProjectRequest struct {
		Name        string   `json:"name" binding:"required,max=100"`
		Description string   `json:"description" binding:"required"`
		Members     []string `json:"members" binding:"omitempty,dive,objectid"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), actor(c), services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Members:     req.Members,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusCreated, dto.ToProjectDTO(*project))
}

// UpdateProject changes a project's name or description.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	type UpdateProjectRequest struct {
		Name        *string `json:"name" binding:"omitempty,max=100"`
		Description *string `json:"description"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), actor(c), c.Param("id"), services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject removes a project and its tasks.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.projectService.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, gin.H{})
}

// AddMember adds a user to the project.
func (h *ProjectHandler) AddMember(c *gin.Context) {
	type AddMemberRequest struct {
		UserID string `json:"user_id" binding:"required,objectid"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	project, err := h.projectService.AddMember(c.Request.Context(), actor(c), c.Param("id"), req.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, dto.ToProjectDTO(*project))
}

// RemoveMember removes a user from the project.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	project, err := h.projectService.RemoveMember(c.Request.Context(), actor(c), c.Param("id"), c.Param("userId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, dto.ToProjectDTO(*project))
}

// SuggestTasks drafts tasks for the project from free text.
func (h *ProjectHandler) SuggestTasks(c *gin.Context) {
	type SuggestRequest struct {
		Text string `json:"text" binding:"required,max=5000"`
	}

	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	drafts, err := h.taskService.Suggest(c.Request.Context(), actor(c), c.Param("id"), req.Text)
	if err != nil {
		_ = c.Error(err)
		return
	}
	count := len(drafts)
	c.JSON(http.StatusOK, Response{Success: true, Data: drafts, Count: &count})
}
