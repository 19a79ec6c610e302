package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/finecision/finecision/pkg/domain"
)

type errorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	var structural *domain.StructuralError
	switch {
	case errors.Is(err, domain.ErrWorkflowNotFound), errors.Is(err, domain.ErrApplicationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidWorkflow), errors.As(err, &structural):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrLockAcquire), errors.Is(err, context.DeadlineExceeded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	resp := errorResponse{Message: err.Error()}

	switch status {
	case http.StatusNotFound:
		if errors.Is(err, domain.ErrApplicationNotFound) {
			resp.Message = "Application not found"
		} else {
			resp.Message = "Workflow not found"
		}
	case http.StatusUnprocessableEntity:
		if details := domain.ValidationErrors(err); len(details) > 0 {
			resp.Message = "Invalid workflow"
			for _, d := range details {
				resp.Details = append(resp.Details, d.Error())
			}
		}
	case http.StatusInternalServerError:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		resp.Message = "Internal server error"
	}

	writeJSON(w, status, resp, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}
