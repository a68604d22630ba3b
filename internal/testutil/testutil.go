// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/collab-task-api/internal/config"
	"github.com/yukikurage/collab-task-api/internal/database"
	"github.com/yukikurage/collab-task-api/internal/logging"
	"github.com/yukikurage/collab-task-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Password is the plaintext password of every fixture user.
const Password = "password123"

// Config returns a test configuration with uploads in a temp dir and a
// cookie session store.
func Config(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		Env:            config.EnvTest,
		LogLevel:       "panic",
		DBDriver:       "sqlite",
		JWTSecret:      "test-secret",
		JWTExpire:      time.Hour,
		SessionStore:   "cookie",
		SessionSecret:  "test-session-secret",
		FileUploadPath: t.TempDir(),
		MaxFileSize:    1 << 20,
		ResetTokenTTL:  10 * time.Minute,
	}
}

// NewDB opens a migrated SQLite database private to the test. A file in
// the test's temp dir is used so every pooled connection sees the same data.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig(logger.Discard))
	require.NoError(t, err)
	require.NoError(t, database.MigrateDatabase(db, logging.Discard()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// CreateUser inserts an active user with the fixture password.
func CreateUser(t *testing.T, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Omit("Projects").Create(user).Error)
	return user
}

// CreateProject inserts a project with members and back-references.
func CreateProject(t *testing.T, db *gorm.DB, name string, creator *models.User, members ...*models.User) *models.Project {
	t.Helper()

	project := &models.Project{
		Name:        name,
		Description: name + " description",
		CreatedByID: creator.ID,
	}
	require.NoError(t, db.Omit("CreatedBy", "Members", "Tasks").Create(project).Error)

	now := time.Now()
	require.NoError(t, db.Create(&models.UserProject{UserID: creator.ID, ProjectID: project.ID, CreatedAt: now}).Error)
	for _, m := range members {
		require.NoError(t, db.Omit("User").Create(&models.ProjectMember{ProjectID: project.ID, UserID: m.ID, JoinedAt: now}).Error)
		if m.ID != creator.ID {
			require.NoError(t, db.Create(&models.UserProject{UserID: m.ID, ProjectID: project.ID, CreatedAt: now}).Error)
		}
	}
	return project
}

// CreateTask inserts a task due tomorrow.
func CreateTask(t *testing.T, db *gorm.DB, title string, project *models.Project, assignee, reporter *models.User) *models.Task {
	t.Helper()

	task := &models.Task{
		Title:       title,
		Description: title + " description",
		DueDate:     time.Now().Add(24 * time.Hour),
		AssigneeID:  assignee.ID,
		ReporterID:  reporter.ID,
		ProjectID:   project.ID,
	}
	require.NoError(t, db.Omit("Assignee", "Reporter", "Project", "Comments", "Attachments").Create(task).Error)
	return task
}
