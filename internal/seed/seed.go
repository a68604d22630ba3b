// Package seed loads demo data from a YAML fixture.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/collab-task-api/internal/database"
	"github.com/yukikurage/collab-task-api/internal/integrity"
	"github.com/yukikurage/collab-task-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures is the YAML document shape. Users are referenced by email and
// projects by name.
type Fixtures struct {
	Users    []UserFixture    `yaml:"users"`
	Projects []ProjectFixture `yaml:"projects"`
	Tasks    []TaskFixture    `yaml:"tasks"`
}

type UserFixture struct {
	Name     string      `yaml:"name"`
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Role     models.Role `yaml:"role"`
}

type ProjectFixture struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Creator     string   `yaml:"creator"`
	Members     []string `yaml:"members"`
}

type TaskFixture struct {
	Title       string              `yaml:"title"`
	Description string              `yaml:"description"`
	Project     string              `yaml:"project"`
	Assignee    string              `yaml:"assignee"`
	Reporter    string              `yaml:"reporter"`
	Status      models.TaskStatus   `yaml:"status"`
	Priority    models.TaskPriority `yaml:"priority"`
	// DueIn is a Go duration added to the import time.
	DueIn string `yaml:"due_in"`
}

// Summary counts the imported documents.
type Summary struct {
	Users    int
	Projects int
	Tasks    int
}

type Seeder struct {
	db         *gorm.DB
	maintainer *integrity.Maintainer
	log        *logrus.Logger
	cost       int
}

func New(db *gorm.DB, log *logrus.Logger) *Seeder {
	return &Seeder{
		db:         db,
		maintainer: integrity.NewMaintainer(log),
		log:        log,
		cost:       bcrypt.DefaultCost,
	}
}

// Parse decodes a fixture document. An empty document yields the embedded
// default fixtures.
func Parse(data []byte) (*Fixtures, error) {
	if len(data) == 0 {
		data = defaultFixtures
	}
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return &f, nil
}

// Import wipes every table and loads f in one transaction.
func (s *Seeder) Import(ctx context.Context, f *Fixtures) (*Summary, error) {
	summary := &Summary{}
	now := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := destroy(tx); err != nil {
			return err
		}

		users := make(map[string]string, len(f.Users))
		for _, uf := range f.Users {
			hash, err := bcrypt.GenerateFromPassword([]byte(uf.Password), s.cost)
			if err != nil {
				return fmt.Errorf("failed to hash password for %s: %w", uf.Email, err)
			}
			user := &models.User{
				Name:         uf.Name,
				Email:        uf.Email,
				PasswordHash: string(hash),
				Role:         uf.Role,
				IsActive:     true,
			}
			if err := tx.Omit("Projects").Create(user).Error; err != nil {
				return fmt.Errorf("user %s: %w", uf.Email, err)
			}
			users[user.Email] = user.ID
		}

		projects := make(map[string]string, len(f.Projects))
		for _, pf := range f.Projects {
			creator, err := lookup(users, pf.Creator)
			if err != nil {
				return fmt.Errorf("project %q: %w", pf.Name, err)
			}
			members := make([]string, 0, len(pf.Members))
			for _, email := range pf.Members {
				id, err := lookup(users, email)
				if err != nil {
					return fmt.Errorf("project %q: %w", pf.Name, err)
				}
				members = append(members, id)
			}

			project := &models.Project{Name: pf.Name, Description: pf.Description, CreatedByID: creator}
			if err := tx.Omit("CreatedBy", "Members", "Tasks").Create(project).Error; err != nil {
				return fmt.Errorf("project %q: %w", pf.Name, err)
			}
			if err := s.maintainer.ProjectCreated(tx, project, members); err != nil {
				return err
			}
			projects[project.Name] = project.ID
		}

		for _, tf := range f.Tasks {
			task, err := buildTask(tf, users, projects, now)
			if err != nil {
				return fmt.Errorf("task %q: %w", tf.Title, err)
			}
			if err := tx.Omit("Assignee", "Reporter", "Project", "Comments", "Attachments").Create(task).Error; err != nil {
				return fmt.Errorf("task %q: %w", tf.Title, err)
			}
		}

		summary.Users = len(users)
		summary.Projects = len(projects)
		summary.Tasks = len(f.Tasks)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"users":    summary.Users,
		"projects": summary.Projects,
		"tasks":    summary.Tasks,
	}).Info("Data imported")
	return summary, nil
}

// Destroy deletes every document.
func (s *Seeder) Destroy(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Transaction(destroy); err != nil {
		return err
	}
	s.log.Info("Data destroyed")
	return nil
}

func destroy(tx *gorm.DB) error {
	all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	tables := database.Models()
	for i := len(tables) - 1; i >= 0; i-- {
		if err := all.Delete(tables[i]).Error; err != nil {
			return fmt.Errorf("failed to clear %T: %w", tables[i], err)
		}
	}
	return nil
}

func buildTask(tf TaskFixture, users, projects map[string]string, now time.Time) (*models.Task, error) {
	assignee, err := lookup(users, tf.Assignee)
	if err != nil {
		return nil, err
	}
	reporter, err := lookup(users, tf.Reporter)
	if err != nil {
		return nil, err
	}
	project, ok := projects[tf.Project]
	if !ok {
		return nil, fmt.Errorf("unknown project %q", tf.Project)
	}
	dueIn, err := time.ParseDuration(tf.DueIn)
	if err != nil {
		return nil, fmt.Errorf("invalid due_in: %w", err)
	}

	return &models.Task{
		Title:       tf.Title,
		Description: tf.Description,
		DueDate:     now.Add(dueIn),
		Status:      tf.Status,
		Priority:    tf.Priority,
		AssigneeID:  assignee,
		ReporterID:  reporter,
		ProjectID:   project,
	}, nil
}

func lookup(users map[string]string, email string) (string, error) {
	id, ok := users[models.NormalizeEmail(email)]
	if !ok {
		return "", fmt.Errorf("unknown user %q", email)
	}
	return id, nil
}
