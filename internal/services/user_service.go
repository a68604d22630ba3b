package services

import (
	"context"

	apierrors "github.com/yukikurage/collab-task-api/internal/errors"
	"github.com/yukikurage/collab-task-api/internal/integrity"
	"github.com/yukikurage/collab-task-api/internal/models"
	"github.com/yukikurage/collab-task-api/internal/policy"
	"github.com/yukikurage/collab-task-api/internal/repository"
	"gorm.io/gorm"
)

var ErrUserStillReferenced = apierrors.Validation("User still owns projects or tasks; reassign them before deleting the user")

// UserService implements the admin user management operations.
type UserService struct {
	users      *repository.UserRepository
	maintainer *integrity.Maintainer
}

func NewUserService(users *repository.UserRepository, maintainer *integrity.Maintainer) *UserService {
	return &UserService{users: users, maintainer: maintainer}
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, actor policy.Actor, opts repository.ListOptions) (*repository.Page[models.User], error) {
	if err := policy.Authorize(policy.UserList, policy.ForUser(actor, "")); err != nil {
		return nil, err
	}
	return s.users.GetAll(ctx, opts)
}

// Get loads one user.
func (s *UserService) Get(ctx context.Context, actor policy.Actor, id string) (*models.User, error) {
	user, err := s.users.GetOne(ctx, id, repository.QueryOptions{Preload: []string{"Projects"}})
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(policy.UserRead, policy.ForUser(actor, user.ID)); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUserInput holds the fields an admin may change on a user.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Role     *models.Role
	Password *string
	IsActive *bool
}

// Update changes a user's profile, role, password or active flag.
func (s *UserService) Update(ctx context.Context, actor policy.Actor, id string, input UpdateUserInput) (*models.User, error) {
	var hash string
	if input.Password != nil && *input.Password != "" {
		h, err := hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	user, err := s.users.UpdateOne(ctx, id, repository.UpdateOptions[models.User]{
		Transform: func(u *models.User) error {
			if err := policy.Authorize(policy.UserUpdate, policy.ForUser(actor, u.ID)); err != nil {
				return err
			}
			if input.Name != nil && *input.Name != "" {
				u.Name = *input.Name
			}
			if input.Email != nil && *input.Email != "" {
				u.Email = *input.Email
			}
			if input.Role != nil && *input.Role != "" {
				u.Role = *input.Role
			}
			if input.IsActive != nil {
				u.IsActive = *input.IsActive
			}
			if hash != "" {
				u.PasswordHash = hash
			}
			return nil
		},
	})
	if apierrors.IsKind(err, apierrors.KindDuplicate) {
		return nil, ErrEmailTaken
	}
	return user, err
}

// Delete removes a user that no project or task depends on, dropping the
// user's memberships in the same transaction.
func (s *UserService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.Authorize(policy.UserDelete, policy.ForUser(actor, id)); err != nil {
		return err
	}

	_, err := s.users.DeleteOne(ctx, id, repository.DeleteOptions[models.User]{
		OnDelete: func(tx *gorm.DB, u *models.User) error {
			owned, err := repository.NewUserRepository(tx).Ownership(ctx, u.ID)
			if err != nil {
				return err
			}
			if owned.Any() {
				return ErrUserStillReferenced
			}
			return s.maintainer.UserDeleted(tx, u)
		},
	})
	return err
}

// Stats summarizes the user base.
type Stats struct {
	Total  int64                  `json:"total"`
	Active int64                  `json:"active"`
	ByRole []repository.RoleCount `json:"by_role"`
}

// Stats counts users per role.
func (s *UserService) Stats(ctx context.Context, actor policy.Actor) (*Stats, error) {
	if err := policy.Authorize(policy.UserList, policy.ForUser(actor, "")); err != nil {
		return nil, err
	}

	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.users.CountActive(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Active: active, ByRole: byRole}
	for _, rc := range byRole {
		stats.Total += rc.Count
	}
	return stats, nil
}
