package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAPIError_Status(t *testing.T) {
	tests := []struct {
		err  *APIError
		want int
	}{
		{Validation(""), http.StatusBadRequest},
		{Unauthorized(""), http.StatusUnauthorized},
		{Forbidden(""), http.StatusForbidden},
		{NotFound("Project"), http.StatusNotFound},
		{Duplicate("User"), http.StatusConflict},
		{Server("", nil), http.StatusInternalServerError},
		{Unavailable(""), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Status(), string(tt.err.Kind))
	}
}

func TestNotFound_Message(t *testing.T) {
	assert.Equal(t, "Project not found", NotFound("Project").Message)
	assert.Equal(t, "User with this email already exists", Duplicate("User with this email").Message)
}

func TestTranslate(t *testing.T) {
	wrapped := fmt.Errorf("load project: %w", Forbidden("nope"))

	assert.Nil(t, Translate(nil))
	assert.Equal(t, KindForbidden, Translate(wrapped).Kind)
	assert.Equal(t, KindNotFound, Translate(gorm.ErrRecordNotFound).Kind)
	assert.Equal(t, KindDuplicate, Translate(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)).Kind)
	assert.Equal(t, KindValidation, Translate(&json.SyntaxError{}).Kind)
	assert.Equal(t, KindValidation, Translate(&time.ParseError{}).Kind)
	assert.Equal(t, KindServer, Translate(fmt.Errorf("boom")).Kind)
}

func TestIsKind(t *testing.T) {
	assert.True(t, IsKind(fmt.Errorf("x: %w", NotFound("Task")), KindNotFound))
	assert.False(t, IsKind(fmt.Errorf("x"), KindNotFound))
}

func TestRespond_HidesDetailOutsideDevelopment(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, dev := range []bool{false, true} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		Respond(c, fmt.Errorf("connection refused"), dev)

		require.Equal(t, http.StatusInternalServerError, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "Internal server error", resp.Message)
		if dev {
			assert.Contains(t, resp.Detail, "connection refused")
		} else {
			assert.Empty(t, resp.Detail)
		}
	}
}

func TestRespond_ValidationFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Respond(c, Validation("Invalid input data", FieldError{Field: "due_date", Message: "Due date must be in the future"}), false)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "due_date", resp.Errors[0].Field)
}
