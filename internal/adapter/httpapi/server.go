package httpapi

import (
	"context"
	"net/http"
	"time"
)

// Logger is the structured logging port used for request logs.
type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// NewRouter wires the endpoint set onto a request-logged mux.
func NewRouter(h *Handlers, logger Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/webhook", h.Webhook)
	mux.HandleFunc("GET /api/pull-requests", h.ListPullRequests)
	mux.HandleFunc("GET /api/pull-requests/{id}", h.GetPullRequest)
	mux.HandleFunc("GET /api/pull-requests/{id}/analysis", h.GetAnalysis)
	mux.HandleFunc("GET /api/settings", h.GetSettings)
	mux.HandleFunc("POST /api/settings", h.SaveSettings)
	mux.HandleFunc("GET /api/health", h.Health)

	return requestLog(mux, logger)
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLog logs method, path, status and duration for every request.
func requestLog(next http.Handler, logger Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		if logger != nil {
			logger.LogInfo(r.Context(), "http request", map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      recorder.status,
				"duration_ms": time.Since(start).Milliseconds(),
			})
		}
	})
}
