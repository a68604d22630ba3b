package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/collab-task-api/internal/dto"
	"github.com/yukikurage/collab-task-api/internal/models"
	"github.com/yukikurage/collab-task-api/internal/testutil"
)

type ProjectHandlerTestSuite struct {
	suite.Suite
	env *apiEnv

	alice *models.User // member who creates projects
	bob   *models.User // admin
	carol *models.User // unrelated member
}

func (s *ProjectHandlerTestSuite) SetupTest() {
	s.env = setupAPI(s.T())
	s.alice = s.env.user("alice", models.RoleMember)
	s.bob = s.env.user("bob", models.RoleAdmin)
	s.carol = s.env.user("carol", models.RoleMember)
}

func (s *ProjectHandlerTestSuite) createProject(name string, members ...string) dto.ProjectDTO {
	body := map[string]any{"name": name, "description": name + " description"}
	if len(members) > 0 {
		body["members"] = members
	}
	w, resp := s.env.do(http.MethodPost, "/api/projects", body, s.alice)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.ProjectDTO](s.T(), resp.Data)
}

func (s *ProjectHandlerTestSuite) TestCreate_CreatorIsActor() {
	project := s.createProject("Apollo", s.carol.ID)

	s.Equal(s.alice.ID, project.CreatedByID)
	s.Require().NotNil(project.CreatedBy)
	s.Equal("alice", project.CreatedBy.Name)
	s.Require().Len(project.Members, 1)
	s.Equal(s.carol.ID, project.Members[0].ID)
}

func (s *ProjectHandlerTestSuite) TestCreate_InvalidMemberID() {
	w, resp := s.env.do(http.MethodPost, "/api/projects", map[string]any{
		"name":        "Apollo",
		"description": "x",
		"members":     []string{"not-an-id"},
	}, s.alice)

	s.Equal(http.StatusBadRequest, w.Code)
	s.False(resp.Success)
}

func (s *ProjectHandlerTestSuite) TestAdminAndCreatorAllowed_OutsiderForbidden() {
	project := s.createProject("Apollo")
	path := "/api/projects/" + project.ID

	w, resp := s.env.do(http.MethodGet, path, nil, s.carol)
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("Not authorized to access this project", resp.Message)

	w, _ = s.env.do(http.MethodPut, path, map[string]string{"name": "Hijacked"}, s.carol)
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.env.do(http.MethodDelete, path, nil, s.carol)
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.env.do(http.MethodGet, path, nil, s.bob)
	s.Equal(http.StatusOK, w.Code)

	w, resp = s.env.do(http.MethodPut, path, map[string]string{"name": "Apollo 11"}, s.bob)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("Apollo 11", decode[dto.ProjectDTO](s.T(), resp.Data).Name)

	w, _ = s.env.do(http.MethodDelete, path, nil, s.bob)
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.env.do(http.MethodGet, path, nil, s.alice)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ProjectHandlerTestSuite) TestInvalidAndMissingID() {
	w, _ := s.env.do(http.MethodGet, "/api/projects/123", nil, s.alice)
	s.Equal(http.StatusBadRequest, w.Code)

	w, resp := s.env.do(http.MethodGet, "/api/projects/"+models.NewID(), nil, s.alice)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Project not found", resp.Message)
}

func (s *ProjectHandlerTestSuite) TestMembers_RoundTrip() {
	project := s.createProject("Apollo")
	membersPath := "/api/projects/" + project.ID + "/members"

	w, resp := s.env.do(http.MethodPost, membersPath, map[string]string{"user_id": s.carol.ID}, s.alice)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Len(decode[dto.ProjectDTO](s.T(), resp.Data).Members, 1)

	w, resp = s.env.do(http.MethodGet, "/api/auth/me", nil, s.carol)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(decode[dto.UserDTO](s.T(), resp.Data).Projects, project.ID)

	w, _ = s.env.do(http.MethodPost, membersPath, map[string]string{"user_id": s.carol.ID}, s.alice)
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.env.do(http.MethodPost, membersPath, map[string]string{"user_id": models.NewID()}, s.alice)
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.env.do(http.MethodPost, membersPath, map[string]string{"user_id": s.bob.ID}, s.carol)
	s.Equal(http.StatusForbidden, w.Code)

	w, resp = s.env.do(http.MethodDelete, membersPath+"/"+s.carol.ID, nil, s.alice)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Empty(decode[dto.ProjectDTO](s.T(), resp.Data).Members)

	w, resp = s.env.do(http.MethodGet, "/api/auth/me", nil, s.carol)
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotContains(decode[dto.UserDTO](s.T(), resp.Data).Projects, project.ID)
}

func (s *ProjectHandlerTestSuite) TestRemoveMember_NonMemberIsNoOp() {
	project := s.createProject("Apollo", s.carol.ID)

	w, resp := s.env.do(http.MethodDelete, "/api/projects/"+project.ID+"/members/"+s.bob.ID, nil, s.alice)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	members := decode[dto.ProjectDTO](s.T(), resp.Data).Members
	s.Require().Len(members, 1)
	s.Equal(s.carol.ID, members[0].ID)

	w, _ = s.env.do(http.MethodDelete, "/api/projects/"+project.ID+"/members/bad", nil, s.alice)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ProjectHandlerTestSuite) TestList_ScopedToCreatorOrMember() {
	s.createProject("Apollo", s.carol.ID)
	s.createProject("Gemini")

	w, resp := s.env.do(http.MethodGet, "/api/projects", nil, s.carol)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NotNil(resp.Count)
	s.Equal(1, *resp.Count)

	w, resp = s.env.do(http.MethodGet, "/api/projects", nil, s.bob)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(2, *resp.Count)
}

func (s *ProjectHandlerTestSuite) TestList_Pagination() {
	for i := 0; i < 25; i++ {
		testutil.CreateProject(s.T(), s.env.db, fmt.Sprintf("Project %02d", i), s.alice)
	}

	w, resp := s.env.do(http.MethodGet, "/api/projects?page=2&limit=10", nil, s.alice)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NotNil(resp.Pagination)
	s.Require().NotNil(resp.Pagination.Next)
	s.Require().NotNil(resp.Pagination.Prev)
	s.Equal(3, resp.Pagination.Next.Page)
	s.Equal(10, resp.Pagination.Next.Limit)
	s.Equal(1, resp.Pagination.Prev.Page)
	s.EqualValues(25, resp.Pagination.TotalItems)

	_, resp = s.env.do(http.MethodGet, "/api/projects?page=3&limit=10", nil, s.alice)
	s.Nil(resp.Pagination.Next)
	s.Equal(5, *resp.Count)

	_, resp = s.env.do(http.MethodGet, "/api/projects?page=1&limit=10", nil, s.alice)
	s.Nil(resp.Pagination.Prev)
}

func (s *ProjectHandlerTestSuite) TestList_BadSortField() {
	w, _ := s.env.do(http.MethodGet, "/api/projects?sort=password", nil, s.alice)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ProjectHandlerTestSuite) TestSuggestTasks_NotConfigured() {
	project := s.createProject("Apollo")

	w, _ := s.env.do(http.MethodPost, "/api/projects/"+project.ID+"/tasks/suggest", map[string]string{"text": "ship it"}, s.alice)
	s.Equal(http.StatusServiceUnavailable, w.Code)

	w, _ = s.env.do(http.MethodPost, "/api/projects/"+project.ID+"/tasks/suggest", map[string]string{"text": "ship it"}, s.carol)
	s.Equal(http.StatusForbidden, w.Code)
}

func TestProjectHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectHandlerTestSuite))
}

func TestProjectHandler_DeleteCascadesTasks(t *testing.T) {
	env := setupAPI(t)
	alice := env.user("alice", models.RoleMember)
	project := testutil.CreateProject(t, env.db, "Apollo", alice)
	task := testutil.CreateTask(t, env.db, "Launch", project, alice, alice)

	w, _ := env.do(http.MethodDelete, "/api/projects/"+project.ID, nil, alice)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(http.MethodGet, "/api/tasks/"+task.ID, nil, alice)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
