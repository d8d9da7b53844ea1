package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if _, err := c.Resolver(); err != nil {
		return fmt.Errorf("invalid units: %w", err)
	}
	return nil
}

// formatValidationError formats validation errors into readable messages.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Namespace())
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
