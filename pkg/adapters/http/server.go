package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/finecision/finecision"
	"github.com/finecision/finecision/internal/logging"
	"github.com/finecision/finecision/pkg/domain"
	"github.com/finecision/finecision/pkg/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
)

// Server serves the REST API over the workflow and application services.
type Server struct {
	Workflows    *service.WorkflowService
	Applications *service.ApplicationService
	Streams      *StreamManager

	logger     *slog.Logger
	metrics    http.Handler
	apiVersion string
}

// Option configures the HTTP handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler exposes h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithStreams exposes decisions published to sm at GET /events.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// NewHandler creates the HTTP handler. It fails if the embedded OpenAPI
// document cannot be loaded.
func NewHandler(workflows *service.WorkflowService, applications *service.ApplicationService, opts ...Option) (http.Handler, error) {
	server := &Server{
		Workflows:    workflows,
		Applications: applications,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	doc, err := GetSwagger(context.Background())
	if err != nil {
		return nil, err
	}
	server.apiVersion = doc.Info.Version
	oaRouter, err := newRouter(doc)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if server.metrics != nil {
		r.Handle("/metrics", server.metrics)
	}
	if server.Streams != nil {
		r.Get("/events", server.SubscribeEvents)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(requestValidator(oaRouter, server.logger))

		r.Route("/workflows", func(r chi.Router) {
			r.Get("/", server.ListWorkflows)
			r.Post("/", server.CreateWorkflow)
			r.Get("/{id}", server.GetWorkflow)
			r.Put("/{id}", server.UpdateWorkflow)
			r.Delete("/{id}", server.DeleteWorkflow)
			r.Post("/{id}/execute", server.ExecuteWorkflow)
			r.Post("/{id}/preview", server.PreviewWorkflow)
		})
		r.Route("/applications", func(r chi.Router) {
			r.Get("/", server.ListApplications)
			r.Post("/", server.CreateApplication)
			r.Get("/{id}", server.GetApplication)
			r.Put("/{id}/process", server.ProcessApplication)
		})
	})

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type variablesRequest struct {
	Variables map[string]any `json:"variables"`
}

type createApplicationRequest struct {
	WorkflowID string         `json:"workflowId"`
	Variables  map[string]any `json:"variables"`
}

type decisionResponse struct {
	domain.ExecutionResult
	Path   []string           `json:"path"`
	Scores map[string]float64 `json:"scores,omitempty"`
	Steps  int                `json:"steps"`
}

// pathID binds the {id} path parameter.
func pathID(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", fmt.Errorf("invalid format for parameter id: %w", err)
	}
	return id, nil
}

// withID runs fn with the bound {id} parameter.
func (s *Server) withID(w http.ResponseWriter, r *http.Request, fn func(id string)) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()}, s.logger)
		return
	}
	fn(id)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid request body", Details: []string{err.Error()}}, s.logger)
		return false
	}
	return true
}

// ListWorkflows handles GET /api/workflows.
func (s *Server) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	list, err := s.Workflows.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list, s.logger)
}

// CreateWorkflow handles POST /api/workflows.
func (s *Server) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var body service.WorkflowInput
	if !s.decode(w, r, &body) {
		return
	}
	wf, err := s.Workflows.Create(r.Context(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wf, s.logger)
}

// GetWorkflow handles GET /api/workflows/{id}.
func (s *Server) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id string) {
		wf, err := s.Workflows.Get(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, wf, s.logger)
	})
}

// UpdateWorkflow handles PUT /api/workflows/{id}.
func (s *Server) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id string) {
		var body service.WorkflowInput
		if !s.decode(w, r, &body) {
			return
		}
		wf, err := s.Workflows.Update(r.Context(), id, body)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, wf, s.logger)
	})
}

// DeleteWorkflow handles DELETE /api/workflows/{id}.
func (s *Server) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id string) {
		if err := s.Workflows.Delete(r.Context(), id); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// ExecuteWorkflow handles POST /api/workflows/{id}/execute.
func (s *Server) ExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id string) {
		var body variablesRequest
		if !s.decode(w, r, &body) {
			return
		}
		trace, err := s.Applications.Evaluate(r.Context(), id, body.Variables)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, decisionResponse{
			ExecutionResult: trace.Result,
			Path:            trace.Path,
			Scores:          trace.Scores,
			Steps:           trace.Steps,
		}, s.logger)
	})
}

// PreviewWorkflow handles POST /api/workflows/{id}/preview.
func (s *Server) PreviewWorkflow(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id string) {
		var body variablesRequest
		if !s.decode(w, r, &body) {
			return
		}
		preview, err := s.Applications.Preview(r.Context(), id, body.Variables)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, preview, s.logger)
	})
}

// ListApplications handles GET /api/applications.
func (s *Server) ListApplications(w http.ResponseWriter, r *http.Request) {
	list, err := s.Applications.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list, s.logger)
}

// CreateApplication handles POST /api/applications.
func (s *Server) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var body createApplicationRequest
	if !s.decode(w, r, &body) {
		return
	}
	app, err := s.Applications.Create(r.Context(), body.WorkflowID, body.Variables)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app, s.logger)
}

// GetApplication handles GET /api/applications/{id}.
func (s *Server) GetApplication(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id string) {
		app, err := s.Applications.Get(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, app, s.logger)
	})
}

// ProcessApplication handles PUT /api/applications/{id}/process.
func (s *Server) ProcessApplication(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id string) {
		app, err := s.Applications.Process(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, app, s.logger)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "finecision-http",
		"version":     finecision.Version,
		"api_version": s.apiVersion,
	}, s.logger)
}
