package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/collab-task-api/internal/integrity"
	"github.com/yukikurage/collab-task-api/internal/logging"
	"github.com/yukikurage/collab-task-api/internal/models"
	"github.com/yukikurage/collab-task-api/internal/policy"
	"github.com/yukikurage/collab-task-api/internal/repository"
	"github.com/yukikurage/collab-task-api/internal/storage"
	"github.com/yukikurage/collab-task-api/internal/testutil"
	"gorm.io/gorm"
)

type serviceEnv struct {
	db       *gorm.DB
	users    *repository.UserRepository
	projects *repository.ProjectRepository
	tasks    *repository.TaskRepository
	files    *storage.LocalStore

	auth       *AuthService
	userSvc    *UserService
	projectSvc *ProjectService
	taskSvc    *TaskService
}

func setupServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()

	db := testutil.NewDB(t)
	log := logging.Discard()

	files, err := storage.NewLocalStore(t.TempDir(), 1<<20, log)
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	projects := repository.NewProjectRepository(db)
	tasks := repository.NewTaskRepository(db)
	maintainer := integrity.NewMaintainer(log)
	tokens := NewTokenService("test-secret", time.Hour)

	return &serviceEnv{
		db:         db,
		users:      users,
		projects:   projects,
		tasks:      tasks,
		files:      files,
		auth:       NewAuthService(users, tokens, 10*time.Minute, log),
		userSvc:    NewUserService(users, maintainer),
		projectSvc: NewProjectService(db, projects, users, maintainer, files, log),
		taskSvc:    NewTaskService(tasks, projects, users, maintainer, files, nil, log),
	}
}

func (e *serviceEnv) user(t *testing.T, name string, role models.Role) (*models.User, policy.Actor) {
	t.Helper()
	u := testutil.CreateUser(t, e.db, name, role)
	return u, policy.ActorOf(u)
}

func (e *serviceEnv) createTask(t *testing.T, project *models.Project, assignee, reporter *models.User) *models.Task {
	t.Helper()
	return testutil.CreateTask(t, e.db, "Launch", project, assignee, reporter)
}
