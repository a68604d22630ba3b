package constants

import "time"

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Validation limits
const (
	MinPasswordLength   = 6
	MinNameLength       = 3
	MaxNameLength       = 50
	MaxProjectNameLen   = 100
	MaxTaskTitleLength  = 200
	MaxTaskSuggestions  = 20
	ResetTokenByteCount = 20
)

// Context and session keys
const (
	ContextKeyUserID  = "user_id"
	ContextKeyActor   = "actor"
	SessionCookieName = "task_session"
	SessionMaxAge     = 7 * 24 * time.Hour
)

// DefaultAvatar is assigned to users that never uploaded one.
const DefaultAvatar = "default-avatar.jpg"
