// Package policy decides whether an actor may perform an operation on a
// resource. Decisions are pure: callers load the resource, build a Context
// and ask.
package policy

import (
	"slices"

	apierrors "github.com/yukikurage/collab-task-api/internal/errors"
	"github.com/yukikurage/collab-task-api/internal/models"
)

type Operation string

const (
	ProjectRead          Operation = "project:read"
	ProjectUpdate        Operation = "project:update"
	ProjectDelete        Operation = "project:delete"
	ProjectManageMembers Operation = "project:manage-members"

	TaskCreate           Operation = "task:create"
	TaskRead             Operation = "task:read"
	TaskUpdate           Operation = "task:update"
	TaskDelete           Operation = "task:delete"
	TaskComment          Operation = "task:comment"
	TaskAttach           Operation = "task:attach"
	TaskDeleteAttachment Operation = "task:delete-attachment"
	TaskListByProject    Operation = "task:list-by-project"
	TaskListByUser       Operation = "task:list-by-user"

	UserList   Operation = "user:list"
	UserRead   Operation = "user:read"
	UserUpdate Operation = "user:update"
	UserDelete Operation = "user:delete"
)

var deniedMessages = map[Operation]string{
	ProjectRead:          "Not authorized to access this project",
	ProjectUpdate:        "Not authorized to update this project",
	ProjectDelete:        "Not authorized to delete this project",
	ProjectManageMembers: "Not authorized to modify this project",
	TaskCreate:           "Not authorized to create tasks in this project",
	TaskRead:             "Not authorized to access this task",
	TaskUpdate:           "Not authorized to update this task",
	TaskDelete:           "Not authorized to delete this task",
	TaskComment:          "Not authorized to comment on this task",
	TaskAttach:           "Not authorized to add attachments to this task",
	TaskDeleteAttachment: "Not authorized to delete attachments from this task",
	TaskListByProject:    "Not authorized to view tasks for this project",
	TaskListByUser:       "Not authorized to view these tasks",
	UserList:             "Not authorized to list users",
	UserRead:             "Not authorized to access this user",
	UserUpdate:           "Not authorized to update this user",
	UserDelete:           "Not authorized to delete this user",
}

// Actor is the authenticated identity performing a request.
type Actor struct {
	ID   string
	Role models.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// ActorOf returns the actor view of a loaded user.
func ActorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// Context is the narrow ownership view of the resource being decided on.
// Task decisions use the fields of the task's project.
type Context struct {
	Actor            Actor
	ProjectCreatorID string
	ProjectMemberIDs []string
	AssigneeID       string
	ReporterID       string
	// SubjectID is the user targeted by a user operation.
	SubjectID string
}

// ForProject builds the context for a project decision. The project must
// have its members loaded.
func ForProject(actor Actor, project *models.Project) Context {
	return Context{
		Actor:            actor,
		ProjectCreatorID: project.CreatedByID,
		ProjectMemberIDs: project.MemberIDs(),
	}
}

// ForTask builds the context for a decision on task within project.
func ForTask(actor Actor, task *models.Task, project *models.Project) Context {
	ctx := ForProject(actor, project)
	ctx.AssigneeID = task.AssigneeID
	ctx.ReporterID = task.ReporterID
	return ctx
}

// ForUser builds the context for a decision on the user with subjectID.
func ForUser(actor Actor, subjectID string) Context {
	return Context{Actor: actor, SubjectID: subjectID}
}

func (c Context) isCreator() bool {
	return c.ProjectCreatorID != "" && c.Actor.ID == c.ProjectCreatorID
}

func (c Context) isMember() bool {
	return slices.Contains(c.ProjectMemberIDs, c.Actor.ID)
}

func (c Context) isAssignee() bool {
	return c.AssigneeID != "" && c.Actor.ID == c.AssigneeID
}

func (c Context) isReporter() bool {
	return c.ReporterID != "" && c.Actor.ID == c.ReporterID
}

func (c Context) isSelf() bool {
	return c.SubjectID != "" && c.Actor.ID == c.SubjectID
}

// Can reports whether the actor in c may perform op.
func Can(op Operation, c Context) bool {
	if c.Actor.ID == "" {
		return false
	}
	if c.Actor.IsAdmin() {
		return true
	}

	switch op {
	case ProjectRead, TaskCreate, TaskRead, TaskComment, TaskAttach, TaskListByProject:
		return c.isCreator() || c.isMember()
	case ProjectUpdate, ProjectDelete, ProjectManageMembers:
		return c.isCreator()
	case TaskUpdate:
		return c.isCreator() || c.isAssignee() || c.isReporter()
	case TaskDelete, TaskDeleteAttachment:
		return c.isCreator() || c.isReporter()
	case UserRead, UserUpdate, TaskListByUser:
		return c.isSelf()
	default:
		return false
	}
}

// Authorize returns a Forbidden error when the actor may not perform op.
func Authorize(op Operation, c Context) error {
	if Can(op, c) {
		return nil
	}
	return apierrors.Forbidden(deniedMessages[op])
}
