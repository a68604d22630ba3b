package middleware

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/collab-task-api/internal/errors"
	"github.com/yukikurage/collab-task-api/internal/models"
)

// RequireObjectIDs rejects the request with 400 when any of the named path
// parameters is not a valid document id.
func RequireObjectIDs(params ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range params {
			if !models.IsValidID(c.Param(name)) {
				abort(c, apierrors.Validation("Invalid id format",
					apierrors.FieldError{Field: name, Message: "Must be a valid document id"}))
				return
			}
		}
		c.Next()
	}
}
