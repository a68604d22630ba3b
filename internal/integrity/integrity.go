// Package integrity keeps the denormalized user to project back-references
// in step with project ownership and membership. Every method runs inside
// the caller's transaction and writes the owning side first.
package integrity

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/collab-task-api/internal/models"
	"github.com/yukikurage/collab-task-api/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Maintainer propagates project and membership changes to related rows.
type Maintainer struct {
	log *logrus.Logger
}

func NewMaintainer(log *logrus.Logger) *Maintainer {
	return &Maintainer{log: log}
}

// ProjectCreated links the creator and the initial members to a freshly
// inserted project. Duplicate member ids are collapsed.
func (m *Maintainer) ProjectCreated(tx *gorm.DB, project *models.Project, memberIDs []string) error {
	members := Dedupe(memberIDs)
	now := time.Now()

	if len(members) > 0 {
		rows := make([]models.ProjectMember, len(members))
		for i, userID := range members {
			rows[i] = models.ProjectMember{ProjectID: project.ID, UserID: userID, JoinedAt: now}
		}
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return fmt.Errorf("insert project members: %w", err)
		}
	}

	linked := Dedupe(append([]string{project.CreatedByID}, members...))
	if err := m.link(tx, project.ID, linked, now); err != nil {
		m.failed("link project", project.ID, linked, err)
		return err
	}
	return nil
}

// MemberAdded records userID as a member of project and links the project
// back onto the user.
func (m *Maintainer) MemberAdded(tx *gorm.DB, projectID, userID string) error {
	now := time.Now()
	member := models.ProjectMember{ProjectID: projectID, UserID: userID, JoinedAt: now}
	if err := tx.Omit(clause.Associations).Create(&member).Error; err != nil {
		return fmt.Errorf("insert project member: %w", err)
	}

	if err := m.link(tx, projectID, []string{userID}, now); err != nil {
		m.failed("link member", projectID, []string{userID}, err)
		return err
	}
	return nil
}

// MemberRemoved drops userID from the member list. Removing a user that is
// not a member is a no-op. The creator keeps the back-reference because
// the creator stays authorized on the project.
func (m *Maintainer) MemberRemoved(tx *gorm.DB, project *models.Project, userID string) error {
	if err := tx.Where("project_id = ? AND user_id = ?", project.ID, userID).
		Delete(&models.ProjectMember{}).Error; err != nil {
		return fmt.Errorf("delete project member: %w", err)
	}

	if userID == project.CreatedByID {
		return nil
	}
	if err := tx.Where("project_id = ? AND user_id = ?", project.ID, userID).
		Delete(&models.UserProject{}).Error; err != nil {
		m.failed("unlink member", project.ID, []string{userID}, err)
		return fmt.Errorf("delete back-reference: %w", err)
	}
	return nil
}

// ProjectDeleted removes the project's tasks with their comments and
// attachments, its members and every back-reference to it. It returns the
// stored attachment file names so the caller can remove them after commit.
func (m *Maintainer) ProjectDeleted(tx *gorm.DB, project *models.Project) ([]string, error) {
	var taskIDs []string
	if err := tx.Model(&models.Task{}).Where("project_id = ?", project.ID).Pluck("id", &taskIDs).Error; err != nil {
		return nil, fmt.Errorf("list project tasks: %w", err)
	}

	files, err := m.TasksDeleted(tx, taskIDs)
	if err != nil {
		return nil, err
	}
	if len(taskIDs) > 0 {
		if err := tx.Where("id IN ?", taskIDs).Delete(&models.Task{}).Error; err != nil {
			return nil, fmt.Errorf("delete project tasks: %w", err)
		}
	}

	if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectMember{}).Error; err != nil {
		return nil, fmt.Errorf("delete project members: %w", err)
	}
	if err := tx.Where("project_id = ?", project.ID).Delete(&models.UserProject{}).Error; err != nil {
		m.failed("unlink project", project.ID, nil, err)
		return nil, fmt.Errorf("delete back-references: %w", err)
	}

	m.log.WithFields(logrus.Fields{
		"project_id": project.ID,
		"tasks":      len(taskIDs),
		"files":      len(files),
	}).Info("project cascade prepared")

	return files, nil
}

// TasksDeleted removes the comments and attachments owned by the given
// tasks and returns the stored attachment file names.
func (m *Maintainer) TasksDeleted(tx *gorm.DB, taskIDs []string) ([]string, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}

	files, err := repository.ListAttachmentFiles(tx, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Attachment{}).Error; err != nil {
		return nil, fmt.Errorf("delete attachments: %w", err)
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Comment{}).Error; err != nil {
		return nil, fmt.Errorf("delete comments: %w", err)
	}
	return files, nil
}

// UserDeleted removes the user from every member list and drops the
// user's back-references.
func (m *Maintainer) UserDeleted(tx *gorm.DB, user *models.User) error {
	if err := tx.Where("user_id = ?", user.ID).Delete(&models.ProjectMember{}).Error; err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserProject{}).Error; err != nil {
		return fmt.Errorf("delete back-references: %w", err)
	}
	return nil
}

func (m *Maintainer) link(tx *gorm.DB, projectID string, userIDs []string, at time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]models.UserProject, len(userIDs))
	for i, userID := range userIDs {
		rows[i] = models.UserProject{UserID: userID, ProjectID: projectID, CreatedAt: at}
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert back-references: %w", err)
	}
	return nil
}

func (m *Maintainer) failed(op, projectID string, userIDs []string, err error) {
	m.log.WithFields(logrus.Fields{
		"operation":  op,
		"project_id": projectID,
		"user_ids":   userIDs,
		"error":      err,
	}).Error("back-reference propagation failed, rolling back")
}

// Dedupe returns ids without empty entries or repeats, keeping first-seen order.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
