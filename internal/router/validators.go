package router

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/collab-task-api/internal/models"
)

// RegisterValidators adds the objectid and future tags to gin's validator
// and makes field errors report JSON names.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	v.RegisterTagNameFunc(jsonTagName)
	if err := v.RegisterValidation("objectid", validateObjectID); err != nil {
		return err
	}
	return v.RegisterValidation("future", validateFuture)
}

func jsonTagName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func validateObjectID(fl validator.FieldLevel) bool {
	id, ok := fl.Field().Interface().(string)
	return ok && models.IsValidID(id)
}

func validateFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	return ok && t.After(time.Now())
}
