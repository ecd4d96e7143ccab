package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrStorage       = errors.New("storage error")
	ErrExternalTool  = errors.New("external tool error")
	ErrTimeout       = errors.New("timeout")
	ErrCanceled      = errors.New("canceled")
	ErrDelivery      = errors.New("delivery error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsClientError reports whether err was caused by the caller rather than the
// service (bad or missing request fields).
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// Marker returns the first sentinel carried by err, or nil when err is not
// tagged. Used to pick log event types.
func Marker(err error) error {
	for _, marker := range []error{ErrValidation, ErrConfiguration, ErrStorage, ErrTimeout, ErrCanceled, ErrDelivery, ErrExternalTool} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
