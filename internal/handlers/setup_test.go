package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/collab-task-api/internal/errors"
	"github.com/yukikurage/collab-task-api/internal/logging"
	"github.com/yukikurage/collab-task-api/internal/models"
	"github.com/yukikurage/collab-task-api/internal/router"
	"github.com/yukikurage/collab-task-api/internal/services"
	"github.com/yukikurage/collab-task-api/internal/testutil"
	"github.com/yukikurage/collab-task-api/internal/utils"
	"gorm.io/gorm"
)

type apiEnv struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	tokens *services.TokenService
}

// envelope mirrors the success and failure response bodies.
type envelope struct {
	Success    bool                   `json:"success"`
	Message    string                 `json:"message"`
	Data       json.RawMessage        `json:"data"`
	Count      *int                   `json:"count"`
	Pagination *utils.Pagination      `json:"pagination"`
	Errors     []apierrors.FieldError `json:"errors"`
}

func setupAPI(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	cfg := testutil.Config(t)

	r, err := router.New(router.Deps{Config: cfg, DB: db, Log: logging.Discard()})
	require.NoError(t, err)

	return &apiEnv{
		t:      t,
		db:     db,
		router: r,
		tokens: services.NewTokenService(cfg.JWTSecret, cfg.JWTExpire),
	}
}

func (e *apiEnv) user(name string, role models.Role) *models.User {
	e.t.Helper()
	return testutil.CreateUser(e.t, e.db, name, role)
}

// do sends a JSON request authenticated as user, or anonymously when user is nil.
func (e *apiEnv) do(method, path string, body any, user *models.User) (*httptest.ResponseRecorder, envelope) {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		token, err := e.tokens.Issue(user)
		require.NoError(e.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return e.serve(req)
}

func (e *apiEnv) serve(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	e.t.Helper()

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp envelope
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}
