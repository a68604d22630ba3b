package repository

import (
	"context"

	"github.com/yukikurage/collab-task-api/internal/models"
	"gorm.io/gorm"
)

var projectFields = Fields{
	"id":          "id",
	"name":        "name",
	"description": "description",
	"created_by":  "created_by_id",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
}

// ProjectRepository is the GORM store for project documents.
type ProjectRepository struct {
	*Resource[models.Project]
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{
		Resource: NewResource[models.Project](db, "Project", projectFields),
		db:       db,
	}
}

// VisibleTo limits a project query to projects the user created or joined.
func VisibleTo(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("projects.created_by_id = ? OR projects.id IN (SELECT project_id FROM project_members WHERE user_id = ?)",
			userID, userID)
	}
}

// FindWithMembers loads a project and its member list.
func (r *ProjectRepository) FindWithMembers(ctx context.Context, id string) (*models.Project, error) {
	return r.GetOne(ctx, id, QueryOptions{Preload: []string{"Members"}})
}

// FindMember finds a specific project member
func (r *ProjectRepository) FindMember(ctx context.Context, projectID, userID string) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := r.db.WithContext(ctx).Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a project with their user documents.
func (r *ProjectRepository) ListMembers(ctx context.Context, projectID string) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := r.db.WithContext(ctx).Preload("User").
		Where("project_id = ?", projectID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListVisibleIDs returns the ids of every project the user created or joined.
func (r *ProjectRepository) ListVisibleIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.Project{}).
		Scopes(VisibleTo(userID)).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ListBackReferences returns the project ids recorded on the user document.
func (r *ProjectRepository) ListBackReferences(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.UserProject{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("project_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
