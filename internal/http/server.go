// Package http exposes the service API: read endpoints backed by the
// cached snapshot, mutation endpoints backed by the gateway.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"obras/internal/gateway"
	applog "obras/internal/log"
	"obras/internal/snapshot"
)

type Server struct {
	http.Server
	gateway     *gateway.Gateway
	loader      *snapshot.Loader
	rateLimiter *rateLimiter
	logger      *applog.StructuredLogger
	metrics     serverMetrics

	shutdownOnce sync.Once
}

// serverMetrics tracks request counters exposed on /metrics.
type serverMetrics struct {
	totalRequests  int64
	totalMutations int64
	rateLimitHits  int64
	startedAt      time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. mutationsPerMinute caps non-GET requests per client IP.
func NewServer(addr string, gw *gateway.Gateway, loader *snapshot.Loader, mutationsPerMinute int) *Server {
	mux := http.NewServeMux()
	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: applog.Middleware(logger)(mux),
		},
		gateway:     gw,
		loader:      loader,
		rateLimiter: newRateLimiter(mutationsPerMinute),
		logger:      applog.NewStructuredLogger(logger),
		metrics:     serverMetrics{startedAt: time.Now()},
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// Read endpoints
	mux.HandleFunc("GET /api/snapshot", s.withAPIDefaults(s.handleSnapshot))
	mux.HandleFunc("GET /api/dashboard", s.withAPIDefaults(s.handleDashboard))
	mux.HandleFunc("GET /api/reports/projects", s.withAPIDefaults(s.handleProjectReports))
	mux.HandleFunc("GET /api/reports/collaborators", s.withAPIDefaults(s.handleCollaboratorReports))
	mux.HandleFunc("GET /api/projects/{id}/report", s.withAPIDefaults(s.handleProjectReport))

	// Settings
	mux.HandleFunc("GET /api/settings", s.withAPIDefaults(s.handleGetSettings))
	mux.HandleFunc("PUT /api/settings", s.withAPIDefaults(s.handlePutSettings))

	// Backup
	mux.HandleFunc("GET /api/backup", s.withAPIDefaults(s.handleExport))
	mux.HandleFunc("POST /api/backup/import", s.withAPIDefaults(s.handleImport))
	mux.HandleFunc("POST /api/reset", s.withAPIDefaults(s.handleReset))

	// Generic table mutations. The literal routes above are more
	// specific and take precedence.
	mux.HandleFunc("POST /api/{table}", s.withAPIDefaults(s.handleCreate))
	mux.HandleFunc("POST /api/{table}/batch", s.withAPIDefaults(s.handleCreateBatch))
	mux.HandleFunc("PUT /api/{table}/{id}", s.withAPIDefaults(s.handleUpdate))
	mux.HandleFunc("DELETE /api/{table}/{id}", s.withAPIDefaults(s.handleDelete))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withAPIDefaults adds security headers, rate limiting, and request
// logging to API responses.
func (s *Server) withAPIDefaults(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&s.metrics.totalRequests, 1)

		clientIP := clientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		s.logger.LogHTTPStart(ctx, r, requestID, clientIP)

		// Rate limit mutations only; GETs hit the snapshot cache.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			atomic.AddInt64(&s.metrics.rateLimitHits, 1)
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		if r.Method != http.MethodGet && rw.statusCode < 400 {
			atomic.AddInt64(&s.metrics.totalMutations, 1)
		}

		s.logger.LogHTTPEnd(ctx, r, requestID, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics exposes request counters in plain text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", atomic.LoadInt64(&s.metrics.totalRequests))

	fmt.Fprintf(w, "# HELP mutations_total Total number of committed mutations\n")
	fmt.Fprintf(w, "# TYPE mutations_total counter\n")
	fmt.Fprintf(w, "mutations_total %d\n\n", atomic.LoadInt64(&s.metrics.totalMutations))

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", atomic.LoadInt64(&s.metrics.rateLimitHits))

	fmt.Fprintf(w, "# HELP uptime_seconds Server uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.metrics.startedAt).Seconds())
}
