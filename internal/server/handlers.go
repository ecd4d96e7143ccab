package server

import (
	"errors"
	"net/http"

	"clipforge/internal/delivery"
	"clipforge/internal/job"
	"clipforge/internal/logging"
	"clipforge/internal/pipeline"
	"clipforge/internal/preflight"
	"clipforge/internal/services"
)

type healthResponse struct {
	Status       string             `json:"status"`
	Dependencies []preflight.Status `json:"dependencies"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	deps := s.checkDeps(r.Context())
	if preflight.Healthy(deps) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Dependencies: deps})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Dependencies: deps})
}

func (s *Server) handleRecipe(recipe pipeline.Recipe) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := services.WithRecipe(r.Context(), recipe.Name)
		logger := logging.WithContext(ctx, s.logger)

		req, err := job.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			s.writeError(w, r, err, nil)
			return
		}
		j, err := job.New(req)
		if err != nil {
			s.writeError(w, r, err, nil)
			return
		}
		ctx = services.WithJobID(ctx, j.ID)
		logger = logger.With(logging.JobID(j.ID))

		release, err := s.admit(ctx)
		if err != nil {
			s.writeError(w, r, err, nil)
			return
		}
		defer release()

		outcome, err := s.controller.Run(ctx, recipe, j)
		if err != nil {
			s.writeError(w, r, err, outcome.Log.Lines())
			return
		}

		artifact := delivery.Artifact{Path: outcome.FinalPath, Filename: outcome.Filename}
		lines := outcome.Log.Lines()
		if err := delivery.Deliver(ctx, w, artifact, lines, outcome.Release); err != nil {
			var dErr *delivery.DeliveryError
			if errors.As(err, &dErr) && !dErr.Committed && ctx.Err() == nil {
				s.writeError(w, r, err, lines)
				return
			}
			logging.WarnWithContext(logger, "delivery failed", "delivery_failed",
				logging.Error(err),
				logging.String("artifact", artifact.Path),
				logging.String(logging.FieldErrorHint, "client disconnected or network write failed"),
				logging.String(logging.FieldImpact, "client did not receive the full artifact"),
			)
			return
		}
		logger.Info("job delivered",
			logging.String(logging.FieldEventType, "job_delivered"),
			logging.String("filename", artifact.Filename),
		)
	})
}

// failureEventType names the event_type logged for a 5xx response.
func failureEventType(err error) string {
	switch services.Marker(err) {
	case services.ErrTimeout:
		return "job_timed_out"
	case services.ErrCanceled:
		return "job_canceled"
	case services.ErrStorage:
		return "job_storage_failed"
	case services.ErrDelivery:
		return "job_delivery_failed"
	default:
		return "job_failed"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, log []string) {
	status := HTTPStatus(err)
	logger := logging.WithContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logger, "job request failed", failureEventType(err),
			logging.Error(err),
			logging.Int("status", status),
		)
	} else {
		logger.Info("job request rejected",
			logging.String(logging.FieldEventType, "job_rejected"),
			logging.String("reason", err.Error()),
		)
	}
	writeJSON(w, status, errorResponse{Message: err.Error(), Log: log})
}
