package repository

import (
	"context"
	"time"

	"github.com/yukikurage/collab-task-api/internal/models"
	"gorm.io/gorm"
)

var userFields = Fields{
	"id":         "id",
	"name":       "name",
	"email":      "email",
	"role":       "role",
	"avatar":     "avatar",
	"is_active":  "is_active",
	"last_login": "last_login",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// RoleCount is one row of the per-role user statistics.
type RoleCount struct {
	Role  models.Role `json:"role"`
	Count int64       `json:"count"`
}

// Ownership counts the documents that still point at a user.
type Ownership struct {
	CreatedProjects int64
	AssignedTasks   int64
	ReportedTasks   int64
}

// Any reports whether the user is referenced by a project or task.
func (o Ownership) Any() bool {
	return o.CreatedProjects > 0 || o.AssignedTasks > 0 || o.ReportedTasks > 0
}

// UserRepository is the GORM store for user documents.
type UserRepository struct {
	*Resource[models.User]
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		Resource: NewResource[models.User](db, "User", userFields),
		db:       db,
	}
}

// FindByID finds a user by ID without validating the id format.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by normalized email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByResetToken finds the user holding an unexpired reset token digest.
func (r *UserRepository) FindByResetToken(ctx context.Context, digest string, now time.Time) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("reset_password_token = ? AND reset_password_expire > ?", digest, now).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a user, running schema validation.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Projects").Create(user).Error
}

// Save writes every column of the user, running schema validation.
func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Projects").Save(user).Error
}

// TouchLastLogin records a successful login without touching other columns.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("last_login", at).Error
}

// CountExisting returns how many of ids belong to existing users.
func (r *UserRepository) CountExisting(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

// Exists reports whether a user with id exists.
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	count, err := r.CountExisting(ctx, []string{id})
	return count > 0, err
}

// CountByRole groups users by role.
func (r *UserRepository) CountByRole(ctx context.Context) ([]RoleCount, error) {
	var rows []RoleCount
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Order("role").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountActive returns the number of active users.
func (r *UserRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

// Ownership counts projects created by and tasks assigned to or reported by the user.
func (r *UserRepository) Ownership(ctx context.Context, id string) (Ownership, error) {
	var o Ownership
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Project{}).Where("created_by_id = ?", id).Count(&o.CreatedProjects).Error; err != nil {
		return o, err
	}
	if err := db.Model(&models.Task{}).Where("assignee_id = ?", id).Count(&o.AssignedTasks).Error; err != nil {
		return o, err
	}
	if err := db.Model(&models.Task{}).Where("reporter_id = ?", id).Count(&o.ReportedTasks).Error; err != nil {
		return o, err
	}
	return o, nil
}
