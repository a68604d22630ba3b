package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	apierrors "github.com/yukikurage/collab-task-api/internal/errors"
	"github.com/yukikurage/collab-task-api/internal/integrity"
	"github.com/yukikurage/collab-task-api/internal/models"
	"github.com/yukikurage/collab-task-api/internal/policy"
	"github.com/yukikurage/collab-task-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrAlreadyMember = apierrors.Validation("User is already a member of this project")
	ErrInvalidUserID = apierrors.Validation("Invalid user id", apierrors.FieldError{Field: "user_id", Message: "User id must be a valid id"})
)

// ProjectDetail lists the relations rendered with a project.
var ProjectDetail = []string{"CreatedBy", "Members.User"}

// ProjectService handles project business logic
type ProjectService struct {
	db         *gorm.DB
	projects   *repository.ProjectRepository
	users      *repository.UserRepository
	maintainer *integrity.Maintainer
	files      FileStore
	log        *logrus.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(db *gorm.DB, projects *repository.ProjectRepository, users *repository.UserRepository,
	maintainer *integrity.Maintainer, files FileStore, log *logrus.Logger) *ProjectService {
	return &ProjectService{
		db:         db,
		projects:   projects,
		users:      users,
		maintainer: maintainer,
		files:      files,
		log:        log,
	}
}

// List returns the projects visible to the actor: all of them for admins,
// otherwise the ones the actor created or joined.
func (s *ProjectService) List(ctx context.Context, actor policy.Actor, opts repository.ListOptions) (*repository.Page[models.Project], error) {
	if !actor.IsAdmin() {
		opts.Scopes = append(opts.Scopes, repository.VisibleTo(actor.ID))
	}
	if opts.Preload == nil {
		opts.Preload = ProjectDetail
	}
	return s.projects.GetAll(ctx, opts)
}

// Get loads a project the actor may read.
func (s *ProjectService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Project, error) {
	project, err := s.projects.GetOne(ctx, id, repository.QueryOptions{Preload: ProjectDetail})
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(policy.ProjectRead, policy.ForProject(actor, project)); err != nil {
		return nil, err
	}
	return project, nil
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Name        string
	Description string
	Members     []string
}

// Create inserts a project owned by the actor and links its members.
func (s *ProjectService) Create(ctx context.Context, actor policy.Actor, input CreateProjectInput) (*models.Project, error) {
	members := integrity.Dedupe(input.Members)
	for _, id := range members {
		if !models.IsValidID(id) {
			return nil, apierrors.Validation("Invalid member id",
				apierrors.FieldError{Field: "members", Message: "Members must be valid ids"})
		}
	}
	if n, err := s.users.CountExisting(ctx, members); err != nil {
		return nil, err
	} else if n != int64(len(members)) {
		return nil, apierrors.NotFound("User")
	}

	project := &models.Project{Name: input.Name, Description: input.Description}
	return s.projects.CreateOne(ctx, project, repository.CreateOptions[models.Project]{
		Preload: ProjectDetail,
		Transform: func(p *models.Project) error {
			p.CreatedByID = actor.ID
			return nil
		},
		AfterCreate: func(tx *gorm.DB, p *models.Project) error {
			return s.maintainer.ProjectCreated(tx, p, members)
		},
	})
}

// UpdateProjectInput represents input for updating a project
type UpdateProjectInput struct {
	Name        *string
	Description *string
}

// Update changes the project's name and/or description. The creator is
// never changed.
func (s *ProjectService) Update(ctx context.Context, actor policy.Actor, id string, input UpdateProjectInput) (*models.Project, error) {
	return s.projects.UpdateOne(ctx, id, repository.UpdateOptions[models.Project]{
		Preload: ProjectDetail,
		Transform: func(p *models.Project) error {
			if err := policy.Authorize(policy.ProjectUpdate, policy.ForProject(actor, p)); err != nil {
				return err
			}
			if input.Name != nil {
				p.Name = *input.Name
			}
			if input.Description != nil {
				p.Description = *input.Description
			}
			return nil
		},
	})
}

// Delete removes the project, its tasks and every back-reference to it.
// Attachment files are removed once the transaction has committed.
func (s *ProjectService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	var files []string
	project, err := s.projects.DeleteOne(ctx, id, repository.DeleteOptions[models.Project]{
		OnDelete: func(tx *gorm.DB, p *models.Project) error {
			if err := policy.Authorize(policy.ProjectDelete, policy.ForProject(actor, p)); err != nil {
				return err
			}
			var err error
			files, err = s.maintainer.ProjectDeleted(tx, p)
			return err
		},
	})
	if err != nil {
		return err
	}

	s.files.RemoveAll(files)
	s.log.WithFields(logrus.Fields{"project_id": project.ID, "actor_id": actor.ID}).Info("Project deleted")
	return nil
}

// AddMember adds an existing user to the project.
func (s *ProjectService) AddMember(ctx context.Context, actor policy.Actor, projectID, userID string) (*models.Project, error) {
	project, err := s.projects.FindWithMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(policy.ProjectManageMembers, policy.ForProject(actor, project)); err != nil {
		return nil, err
	}
	if !models.IsValidID(userID) {
		return nil, ErrInvalidUserID
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apierrors.NotFound("User")
	}
	if _, err := s.projects.FindMember(ctx, project.ID, userID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.maintainer.MemberAdded(tx, project.ID, userID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyMember
	}
	if err != nil {
		return nil, err
	}

	return s.projects.GetOne(ctx, project.ID, repository.QueryOptions{Preload: ProjectDetail})
}

// RemoveMember drops userID from the project. Removing a user that is not a
// member succeeds and changes nothing.
func (s *ProjectService) RemoveMember(ctx context.Context, actor policy.Actor, projectID, userID string) (*models.Project, error) {
	project, err := s.projects.FindWithMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(policy.ProjectManageMembers, policy.ForProject(actor, project)); err != nil {
		return nil, err
	}
	if !models.IsValidID(userID) {
		return nil, ErrInvalidUserID
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.maintainer.MemberRemoved(tx, project, userID)
	}); err != nil {
		return nil, err
	}

	return s.projects.GetOne(ctx, project.ID, repository.QueryOptions{Preload: ProjectDetail})
}
