package models

import (
	"regexp"
	"strings"

	apierrors "github.com/yukikurage/collab-task-api/internal/errors"
)

var emailPattern = regexp.MustCompile(`^\w+([.+-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)

// IsValidEmail checks the address format accepted for user accounts.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// fieldErrors accumulates schema violations for one document.
type fieldErrors []apierrors.FieldError

func (f *fieldErrors) add(field, message string) {
	*f = append(*f, apierrors.FieldError{Field: field, Message: message})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	messages := make([]string, len(f))
	for i, fe := range f {
		messages[i] = fe.Message
	}
	return apierrors.Validation("Invalid input data: "+strings.Join(messages, ", "), f...)
}
