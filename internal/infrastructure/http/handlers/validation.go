package handlers

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	domerrors "github.com/amirhosseinghanipour/provisioner/internal/domain/errors"
)

// Validation limits.
const (
	MaxProjectNameLength = 100
	MaxGitURLLength      = 300
)

// Project names double as group, role and index names: lower-case letters, digits and dashes.
var projectNamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// newValidator returns a validator with the "project_name" tag registered.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("project_name", func(fl validator.FieldLevel) bool {
		return projectNamePattern.MatchString(fl.Field().String())
	})
	return v
}

// SanitizeProjectName trims and lowercases name.
func SanitizeProjectName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// validationErr flattens validator errors into one ErrInvalidInput.
func validationErr(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%v: %w", err, domerrors.ErrInvalidInput)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%s: %w", strings.Join(fields, "; "), domerrors.ErrInvalidInput)
}
