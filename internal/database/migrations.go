package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/collab-task-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds composite indexes that the struct tags cannot express.
func AddIndexes(db *gorm.DB, log *logrus.Logger) error {
	indexes := []struct {
		model   any
		name    string
		columns string
	}{
		// Task listing scoped by project, newest first
		{&models.Task{}, "idx_tasks_project_created", "project_id, created_at"},
		// Task listing by assignee
		{&models.Task{}, "idx_tasks_assignee_created", "assignee_id, created_at"},
		// Comment and attachment ordering inside a task
		{&models.Comment{}, "idx_comments_task_created", "task_id, created_at"},
		{&models.Attachment{}, "idx_attachments_task_uploaded", "task_id, uploaded_at"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.WithField("index", idx.name).Debug("Index already exists, skipping")
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to parse model for index %s: %w", idx.name, err)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithField("index", idx.name).Info("Created index")
	}

	return nil
}

// MigrateDatabase runs all database migrations
func MigrateDatabase(db *gorm.DB, log *logrus.Logger) error {
	log.Info("Running database migrations...")
	if err := Migrate(db); err != nil {
		return err
	}

	if err := AddIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	log.Info("Database migrations completed")
	return nil
}
