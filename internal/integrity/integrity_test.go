package integrity

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/collab-task-api/internal/database"
	"github.com/yukikurage/collab-task-api/internal/logging"
	"github.com/yukikurage/collab-task-api/internal/models"
	"github.com/yukikurage/collab-task-api/internal/testutil"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func backReferences(t *testing.T, db *gorm.DB, userID string) []string {
	t.Helper()
	var ids []string
	require.NoError(t, db.Model(&models.UserProject{}).Where("user_id = ?", userID).Pluck("project_id", &ids).Error)
	return ids
}

func memberIDs(t *testing.T, db *gorm.DB, projectID string) []string {
	t.Helper()
	var ids []string
	require.NoError(t, db.Model(&models.ProjectMember{}).Where("project_id = ?", projectID).Pluck("user_id", &ids).Error)
	return ids
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Dedupe([]string{"a", "b", "", "a", "c", "b"}))
	assert.Empty(t, Dedupe(nil))
}

func TestProjectCreated_LinksCreatorAndDedupedMembers(t *testing.T) {
	db := testutil.NewDB(t)
	m := NewMaintainer(logging.Discard())

	creator := testutil.CreateUser(t, db, "creator", models.RoleMember)
	alice := testutil.CreateUser(t, db, "alice", models.RoleMember)

	project := &models.Project{Name: "Apollo", Description: "Moon", CreatedByID: creator.ID}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("CreatedBy", "Members", "Tasks").Create(project).Error; err != nil {
			return err
		}
		return m.ProjectCreated(tx, project, []string{alice.ID, alice.ID, creator.ID})
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{alice.ID, creator.ID}, memberIDs(t, db, project.ID))
	assert.Equal(t, []string{project.ID}, backReferences(t, db, creator.ID))
	assert.Equal(t, []string{project.ID}, backReferences(t, db, alice.ID))
}

func TestMemberAddedAndRemoved_RoundTrip(t *testing.T) {
	db := testutil.NewDB(t)
	m := NewMaintainer(logging.Discard())

	creator := testutil.CreateUser(t, db, "creator", models.RoleMember)
	bob := testutil.CreateUser(t, db, "bob", models.RoleMember)
	project := testutil.CreateProject(t, db, "Apollo", creator)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return m.MemberAdded(tx, project.ID, bob.ID)
	}))
	assert.Equal(t, []string{bob.ID}, memberIDs(t, db, project.ID))
	assert.Equal(t, []string{project.ID}, backReferences(t, db, bob.ID))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return m.MemberRemoved(tx, project, bob.ID)
	}))
	assert.Empty(t, memberIDs(t, db, project.ID))
	assert.Empty(t, backReferences(t, db, bob.ID))

	// Removing again is a no-op
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return m.MemberRemoved(tx, project, bob.ID)
	}))
	assert.Empty(t, memberIDs(t, db, project.ID))
}

func TestMemberRemoved_CreatorKeepsBackReference(t *testing.T) {
	db := testutil.NewDB(t)
	m := NewMaintainer(logging.Discard())

	creator := testutil.CreateUser(t, db, "creator", models.RoleMember)
	project := testutil.CreateProject(t, db, "Apollo", creator, creator)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return m.MemberRemoved(tx, project, creator.ID)
	}))
	assert.Empty(t, memberIDs(t, db, project.ID))
	assert.Equal(t, []string{project.ID}, backReferences(t, db, creator.ID))
}

func TestProjectDeleted_CascadesTasksAndBackReferences(t *testing.T) {
	db := testutil.NewDB(t)
	m := NewMaintainer(logging.Discard())

	creator := testutil.CreateUser(t, db, "creator", models.RoleMember)
	bob := testutil.CreateUser(t, db, "bob", models.RoleMember)
	project := testutil.CreateProject(t, db, "Apollo", creator, bob)
	other := testutil.CreateProject(t, db, "Gemini", bob)

	task := testutil.CreateTask(t, db, "Launch", project, bob, creator)
	kept := testutil.CreateTask(t, db, "Orbit", other, bob, bob)
	require.NoError(t, db.Omit("CreatedBy").Create(&models.Comment{TaskID: task.ID, Text: "go", CreatedByID: bob.ID}).Error)
	require.NoError(t, db.Omit("UploadedBy").Create(&models.Attachment{
		TaskID: task.ID, Filename: "file-1.txt", OriginalName: "notes.txt",
		MimeType: "text/plain", Size: 4, UploadedByID: bob.ID,
	}).Error)

	var files []string
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		files, err = m.ProjectDeleted(tx, project)
		if err != nil {
			return err
		}
		return tx.Delete(project).Error
	}))

	assert.Equal(t, []string{"file-1.txt"}, files)
	assert.Empty(t, backReferences(t, db, creator.ID))
	assert.Equal(t, []string{other.ID}, backReferences(t, db, bob.ID))
	assert.Empty(t, memberIDs(t, db, project.ID))

	var count int64
	require.NoError(t, db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Task{}).Where("id = ?", kept.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Attachment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUserDeleted_RemovesMembershipsAndBackReferences(t *testing.T) {
	db := testutil.NewDB(t)
	m := NewMaintainer(logging.Discard())

	creator := testutil.CreateUser(t, db, "creator", models.RoleMember)
	bob := testutil.CreateUser(t, db, "bob", models.RoleMember)
	project := testutil.CreateProject(t, db, "Apollo", creator, bob)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return m.UserDeleted(tx, bob)
	}))
	assert.Empty(t, memberIDs(t, db, project.ID))
	assert.Empty(t, backReferences(t, db, bob.ID))
	assert.Equal(t, []string{project.ID}, backReferences(t, db, creator.ID))
}

func TestMemberAdded_BackReferenceFailureRollsBack(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), database.GormConfig(logger.Discard))
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `project_members`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `user_projects`")).
		WillReturnError(errors.New("lock wait timeout exceeded"))
	mock.ExpectRollback()

	m := NewMaintainer(logging.Discard())
	err = db.Transaction(func(tx *gorm.DB) error {
		return m.MemberAdded(tx, models.NewID(), models.NewID())
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert back-references")
	require.NoError(t, mock.ExpectationsWereMet())
}
