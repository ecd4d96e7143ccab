package server

import (
	"net/http"

	"clipforge/internal/services"
)

// errorResponse is the JSON body of every non-200 reply.
type errorResponse struct {
	Message string   `json:"message"`
	Log     []string `json:"log,omitempty"`
}

// HTTPStatus returns the status code for an error raised while handling a
// job request.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case services.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
