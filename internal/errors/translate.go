package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	Detail  string       `json:"detail,omitempty"`
}

// Translate maps any error raised below the HTTP layer to an APIError.
// It is the only place where store and binding errors are reinterpreted.
func Translate(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	var validationErrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxBytesErr *http.MaxBytesError
	var timeErr *time.ParseError

	switch {
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("Resource")
	case stderrors.Is(err, gorm.ErrDuplicatedKey):
		return &APIError{Kind: KindDuplicate, Message: "Duplicate field value already exists", Err: err}
	case stderrors.As(err, &validationErrs):
		return Validation("Validation failed", bindingFieldErrors(validationErrs)...)
	case stderrors.As(err, &syntaxErr), stderrors.As(err, &typeErr), stderrors.Is(err, io.EOF), stderrors.Is(err, io.ErrUnexpectedEOF):
		return &APIError{Kind: KindValidation, Message: "Invalid request body", Err: err}
	case stderrors.As(err, &timeErr):
		return &APIError{Kind: KindValidation, Message: "Invalid date format", Err: err}
	case stderrors.As(err, &maxBytesErr):
		return &APIError{Kind: KindValidation, Message: "Request body too large", Err: err}
	default:
		return Server("", err)
	}
}

// Respond writes the failure envelope for err. Internal detail is only
// included when dev is true.
func Respond(c *gin.Context, err error, dev bool) {
	apiErr := Translate(err)

	resp := ErrorResponse{
		Success: false,
		Message: apiErr.Message,
		Errors:  apiErr.Errors,
	}
	if dev && apiErr.Err != nil {
		resp.Detail = apiErr.Err.Error()
	}

	c.AbortWithStatusJSON(apiErr.Status(), resp)
}

func bindingFieldErrors(errs validator.ValidationErrors) []FieldError {
	fields := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, FieldError{
			Field:   jsonFieldName(fe),
			Message: bindingMessage(fe),
		})
	}
	return fields
}

func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func bindingMessage(fe validator.FieldError) string {
	field := jsonFieldName(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "objectid":
		return fmt.Sprintf("%s must be a valid id", field)
	case "future":
		return fmt.Sprintf("%s must be in the future", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
