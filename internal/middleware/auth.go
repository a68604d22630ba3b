package middleware

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/collab-task-api/internal/constants"
	apierrors "github.com/yukikurage/collab-task-api/internal/errors"
	"github.com/yukikurage/collab-task-api/internal/models"
	"github.com/yukikurage/collab-task-api/internal/policy"
	"github.com/yukikurage/collab-task-api/internal/repository"
	"github.com/yukikurage/collab-task-api/internal/services"
)

var (
	errNotAuthenticated = apierrors.Unauthorized("Not authorized to access this route")
	errAccountDisabled  = apierrors.Unauthorized("User account is deactivated")
)

// RequireAuth resolves the actor from a bearer token or, failing that, from
// the session set at login. The user must still exist and be active.
func RequireAuth(tokens *services.TokenService, users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := bearerUserID(c, tokens)
		if userID == "" {
			userID = sessionUserID(c)
		}
		if userID == "" {
			abort(c, errNotAuthenticated)
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			abort(c, errNotAuthenticated)
			return
		}
		if !user.IsActive {
			abort(c, errAccountDisabled)
			return
		}

		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyActor, policy.ActorOf(user))
		c.Next()
	}
}

// RequireRole only lets actors with one of roles through.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			abort(c, errNotAuthenticated)
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		abort(c, apierrors.Forbidden("User role "+string(actor.Role)+" is not authorized to access this route"))
	}
}

// GetActor retrieves the actor stored by RequireAuth.
func GetActor(c *gin.Context) (policy.Actor, bool) {
	v, exists := c.Get(constants.ContextKeyActor)
	if !exists {
		return policy.Actor{}, false
	}
	actor, ok := v.(policy.Actor)
	return actor, ok && actor.ID != ""
}

func bearerUserID(c *gin.Context, tokens *services.TokenService) string {
	header := c.GetHeader("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return ""
	}
	claims, err := tokens.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return claims.UserID
}

func sessionUserID(c *gin.Context) string {
	// Sessions are optional; routes mounted without the middleware only
	// accept bearer tokens.
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	id, _ := sessions.Default(c).Get(constants.ContextKeyUserID).(string)
	return id
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
