package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/collab-task-api/internal/models"
)

func TestToUserDTO_NeverExposesSecrets(t *testing.T) {
	token := "digest"
	user := models.User{
		ID:                 models.NewID(),
		Name:               "Alice",
		Email:              "alice@example.com",
		PasswordHash:       "$2a$10$hash",
		ResetPasswordToken: &token,
		Role:               models.RoleMember,
	}

	body, err := json.Marshal(ToUserDTO(user))
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "$2a$10$hash")
	assert.NotContains(t, string(body), "digest")
}

func TestToTaskDTO_MissingAuthorRendersNull(t *testing.T) {
	task := models.Task{
		ID:         models.NewID(),
		AssigneeID: models.NewID(),
		Comments:   []models.Comment{{ID: models.NewID(), Text: "hi", CreatedByID: models.NewID()}},
	}

	body, err := json.Marshal(ToTaskDTO(task))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Nil(t, out["assignee"])
	assert.Equal(t, task.AssigneeID, out["assignee_id"])

	comments := out["comments"].([]any)
	require.Len(t, comments, 1)
	assert.Nil(t, comments[0].(map[string]any)["created_by"])
	assert.NotContains(t, out, "attachments")
}

func TestToProjectDTO_SkipsDanglingMembers(t *testing.T) {
	alice := &models.User{ID: models.NewID(), Name: "Alice"}
	project := models.Project{
		ID: models.NewID(),
		Members: []models.ProjectMember{
			{UserID: alice.ID, User: alice},
			{UserID: models.NewID()},
		},
	}

	out := ToProjectDTO(project)
	require.Len(t, out.Members, 1)
	assert.Equal(t, "Alice", out.Members[0].Name)
	assert.Nil(t, out.CreatedBy)
}
