package job

import (
	"fmt"

	"clipforge/internal/services"
)

// ValidationError reports a request field the caller must fix.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// Unwrap tags the error as a validation failure.
func (e *ValidationError) Unwrap() error {
	return services.ErrValidation
}
