package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/collab-task-api/internal/dto"
	"github.com/yukikurage/collab-task-api/internal/models"
	"github.com/yukikurage/collab-task-api/internal/testutil"
)

// TaskHandlerTestSuite follows the scenario of an admin-owned project with
// one member who is assigned a task, plus an unrelated user.
type TaskHandlerTestSuite struct {
	suite.Suite
	env *apiEnv

	alice   *models.User // member and assignee
	bob     *models.User // admin, project creator and reporter
	carol   *models.User // unrelated
	project *models.Project
}

func (s *TaskHandlerTestSuite) SetupTest() {
	s.env = setupAPI(s.T())
	s.alice = s.env.user("alice", models.RoleMember)
	s.bob = s.env.user("bob", models.RoleAdmin)
	s.carol = s.env.user("carol", models.RoleMember)
	s.project = testutil.CreateProject(s.T(), s.env.db, "Apollo", s.bob, s.alice)
}

func (s *TaskHandlerTestSuite) createTask(as *models.User) dto.TaskDTO {
	w, resp := s.env.do(http.MethodPost, "/api/tasks", map[string]any{
		"title":       "Launch",
		"description": "Go for launch",
		"due_date":    time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"assignee":    s.alice.ID,
		"project":     s.project.ID,
	}, as)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.TaskDTO](s.T(), resp.Data)
}

func (s *TaskHandlerTestSuite) TestCreate_ReporterIsActor() {
	task := s.createTask(s.bob)

	s.Equal(s.bob.ID, task.ReporterID)
	s.Equal(models.TaskStatusTodo, task.Status)
	s.Equal(models.TaskPriorityMedium, task.Priority)
	s.Require().NotNil(task.Assignee)
	s.Equal("alice", task.Assignee.Name)
	s.Require().NotNil(task.Project)
	s.Equal("Apollo", task.Project.Name)
}

func (s *TaskHandlerTestSuite) TestCreate_PastDueDateRejected() {
	w, resp := s.env.do(http.MethodPost, "/api/tasks", map[string]any{
		"title":       "Launch",
		"description": "Too late",
		"due_date":    time.Now().Add(-time.Hour).Format(time.RFC3339),
		"assignee":    s.alice.ID,
		"project":     s.project.ID,
	}, s.bob)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Require().NotEmpty(resp.Errors)
	s.Equal("due_date", resp.Errors[0].Field)
}

func (s *TaskHandlerTestSuite) TestCreate_OutsiderForbidden() {
	w, _ := s.env.do(http.MethodPost, "/api/tasks", map[string]any{
		"title":       "Launch",
		"description": "x",
		"due_date":    time.Now().Add(time.Hour).Format(time.RFC3339),
		"assignee":    s.carol.ID,
		"project":     s.project.ID,
	}, s.carol)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *TaskHandlerTestSuite) TestUpdate_AssigneeAllowedOutsiderForbidden() {
	task := s.createTask(s.bob)
	path := "/api/tasks/" + task.ID

	w, resp := s.env.do(http.MethodPut, path, map[string]string{"status": "In Progress"}, s.alice)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(models.TaskStatusInProgress, decode[dto.TaskDTO](s.T(), resp.Data).Status)

	w, resp = s.env.do(http.MethodPut, path, map[string]string{"status": "Completed"}, s.carol)
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("Not authorized to update this task", resp.Message)

	w, _ = s.env.do(http.MethodPut, path, map[string]string{"status": "Done"}, s.alice)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *TaskHandlerTestSuite) TestDelete_AssigneeForbiddenReporterAllowed() {
	task := s.createTask(s.alice)
	path := "/api/tasks/" + task.ID

	w, _ := s.env.do(http.MethodDelete, path, nil, s.carol)
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.env.do(http.MethodDelete, path, nil, s.alice)
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.env.do(http.MethodGet, path, nil, s.alice)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *TaskHandlerTestSuite) TestComments() {
	task := s.createTask(s.bob)
	path := "/api/tasks/" + task.ID + "/comments"

	w, resp := s.env.do(http.MethodPost, path, map[string]string{"text": "On it"}, s.alice)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	updated := decode[dto.TaskDTO](s.T(), resp.Data)
	s.Require().Len(updated.Comments, 1)
	s.Equal("On it", updated.Comments[0].Text)
	s.Require().NotNil(updated.Comments[0].CreatedBy)
	s.Equal(s.alice.ID, updated.Comments[0].CreatedBy.ID)

	w, _ = s.env.do(http.MethodPost, path, map[string]string{"text": "Let me in"}, s.carol)
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.env.do(http.MethodPost, path, map[string]string{}, s.alice)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *TaskHandlerTestSuite) upload(taskID string, as *models.User, filename string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+taskID+"/attachments", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	token, err := s.env.tokens.Issue(as)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)

	w, _ := s.env.serve(req)
	return w
}

func (s *TaskHandlerTestSuite) TestAttachments() {
	task := s.createTask(s.bob)

	w := s.upload(task.ID, s.alice, "notes.txt", []byte("launch checklist\n"))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	_, resp := s.env.do(http.MethodGet, "/api/tasks/"+task.ID, nil, s.alice)
	updated := decode[dto.TaskDTO](s.T(), resp.Data)
	s.Require().Len(updated.Attachments, 1)
	attachment := updated.Attachments[0]
	s.Equal("notes.txt", attachment.OriginalName)
	s.Equal("text/plain", attachment.MimeType)

	w = s.upload(task.ID, s.alice, "payload.exe", []byte("MZ"))
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.upload(task.ID, s.carol, "notes.txt", []byte("hi"))
	s.Equal(http.StatusForbidden, w.Code)

	path := "/api/tasks/" + task.ID + "/attachments/" + attachment.ID
	w, _ = s.env.do(http.MethodDelete, path, nil, s.alice)
	s.Equal(http.StatusForbidden, w.Code)

	w, resp = s.env.do(http.MethodDelete, path, nil, s.bob)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Empty(decode[dto.TaskDTO](s.T(), resp.Data).Attachments)

	w, _ = s.env.do(http.MethodDelete, path, nil, s.bob)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *TaskHandlerTestSuite) TestAttachment_MissingFile() {
	task := s.createTask(s.bob)

	w, _ := s.env.do(http.MethodPost, "/api/tasks/"+task.ID+"/attachments", map[string]string{}, s.alice)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *TaskHandlerTestSuite) TestList_ScopedAndFiltered() {
	s.createTask(s.bob)
	other := testutil.CreateProject(s.T(), s.env.db, "Gemini", s.carol)
	testutil.CreateTask(s.T(), s.env.db, "Hidden", other, s.carol, s.carol)

	w, resp := s.env.do(http.MethodGet, "/api/tasks", nil, s.alice)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(1, *resp.Count)

	_, resp = s.env.do(http.MethodGet, "/api/tasks", nil, s.bob)
	s.Equal(2, *resp.Count)

	_, resp = s.env.do(http.MethodGet, "/api/tasks?status=Completed", nil, s.bob)
	s.Equal(0, *resp.Count)

	_, resp = s.env.do(http.MethodGet, "/api/tasks?project="+other.ID+"&sort=-due_date,title", nil, s.bob)
	s.Equal(1, *resp.Count)
	s.Equal("Hidden", decode[[]dto.TaskDTO](s.T(), resp.Data)[0].Title)
}

func (s *TaskHandlerTestSuite) TestListByUser() {
	s.createTask(s.bob)
	path := "/api/tasks/user/" + s.alice.ID

	w, resp := s.env.do(http.MethodGet, path, nil, s.alice)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(1, *resp.Count)

	w, _ = s.env.do(http.MethodGet, path, nil, s.carol)
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.env.do(http.MethodGet, path, nil, s.bob)
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.env.do(http.MethodGet, "/api/tasks/user/nope", nil, s.bob)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *TaskHandlerTestSuite) TestListByUser_KeepsQueryFilters() {
	s.createTask(s.bob)
	path := "/api/tasks/user/" + s.alice.ID

	_, resp := s.env.do(http.MethodGet, path+"?status=Completed", nil, s.alice)
	s.Equal(0, *resp.Count)

	_, resp = s.env.do(http.MethodGet, path+"?status=To-Do&priority=Medium", nil, s.alice)
	s.Equal(1, *resp.Count)
}

func (s *TaskHandlerTestSuite) TestListByProject() {
	s.createTask(s.bob)
	path := "/api/tasks/project/" + s.project.ID

	w, resp := s.env.do(http.MethodGet, path, nil, s.alice)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(1, *resp.Count)

	w, _ = s.env.do(http.MethodGet, path, nil, s.carol)
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.env.do(http.MethodGet, "/api/tasks/project/"+models.NewID(), nil, s.alice)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *TaskHandlerTestSuite) TestListByProject_KeepsQueryFilters() {
	s.createTask(s.bob)
	path := "/api/tasks/project/" + s.project.ID

	_, resp := s.env.do(http.MethodGet, path+"?priority=High", nil, s.alice)
	s.Equal(0, *resp.Count)

	_, resp = s.env.do(http.MethodGet, path+"?priority=Medium", nil, s.alice)
	s.Equal(1, *resp.Count)
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
