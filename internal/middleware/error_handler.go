package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	apierrors "github.com/yukikurage/collab-task-api/internal/errors"
)

// ErrorHandler renders the last error attached to the context as the failure
// envelope. Handlers only call c.Error and return.
func ErrorHandler(dev bool, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if apiErr := apierrors.Translate(err); apiErr.Status() >= 500 {
			log.WithFields(logrus.Fields{
				"method": c.Request.Method,
				"path":   c.FullPath(),
				"error":  err.Error(),
			}).Error("request failed")
		}

		apierrors.Respond(c, err, dev)
	}
}
