// Package httpapi serves the local prompt-proxy API in front of the model
// daemon: completion, model listing, echo, health, and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lamactl/internal/ollama"
	"lamactl/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Complete(ctx context.Context, req types.CompleteRequest) (types.CompleteResponse, error)
	Models(ctx context.Context) ([]types.ModelInfo, error)
	Ready(ctx context.Context) bool
}

// NewMux builds the router.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Post("/api/complete", completeHandler(svc))
	r.Get("/api/models", modelsHandler(svc))
	r.Get("/api/echo", echoHandler)
	r.Post("/api/echo", echoHandler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready(r.Context()) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("daemon unreachable"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// completeHandler proxies a prompt to the daemon.
//
// @Summary      Generate a completion
// @Accept       json
// @Produce      json
// @Param        request body types.CompleteRequest true "completion request"
// @Success      200 {object} types.CompleteResponse
// @Failure      400 {object} types.ErrorResponse
// @Failure      404 {object} types.ErrorResponse
// @Failure      502 {object} types.ErrorResponse
// @Failure      503 {object} types.ErrorResponse
// @Router       /api/complete [post]
func completeHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.CompleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			writeJSONError(w, http.StatusBadRequest, "prompt is required")
			return
		}

		start := time.Now()
		logStart(r, req.Model)
		resp, err := svc.Complete(r.Context(), req)
		if err != nil {
			if r.Context().Err() != nil {
				return
			}
			status := statusForError(err)
			IncrementDaemonError(errorClass(err))
			writeJSONError(w, status, err.Error())
			logEnd(r, status, time.Since(start), err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
		logEnd(r, http.StatusOK, time.Since(start), nil)
	}
}

// modelsHandler lists the daemon's installed models.
//
// @Summary      List installed models
// @Produce      json
// @Success      200 {object} types.ModelsResponse
// @Failure      503 {object} types.ErrorResponse
// @Router       /api/models [get]
func modelsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		models, err := svc.Models(r.Context())
		if err != nil {
			writeJSONError(w, statusForError(err), err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(types.ModelsResponse{Models: models}); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		}
	}
}

// echoHandler answers connectivity tests with the caller's own message.
//
// @Summary      Echo a message
// @Produce      json
// @Success      200 {object} types.EchoResponse
// @Router       /api/echo [get]
func echoHandler(w http.ResponseWriter, r *http.Request) {
	msg := r.URL.Query().Get("msg")
	if r.Method == http.MethodPost && r.Body != nil {
		b, _ := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if len(b) > 0 {
			msg = string(b)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(types.EchoResponse{Message: msg})
}

// statusForError maps errors onto HTTP statuses. An error carrying its own
// status (HTTPError) wins; otherwise daemon error classes apply: an
// unreachable daemon is 503, an unknown model 404, everything else a 502
// because the daemon, not this proxy, failed.
func statusForError(err error) int {
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode()
	}
	switch {
	case ollama.IsUnreachable(err):
		return http.StatusServiceUnavailable
	case ollama.IsModelNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func errorClass(err error) string {
	switch {
	case ollama.IsUnreachable(err):
		return "unreachable"
	case ollama.IsModelNotFound(err):
		return "model_not_found"
	default:
		return "upstream"
	}
}
