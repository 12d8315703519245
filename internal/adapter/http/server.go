package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/weather-reading-service/internal/domain"
	"github.com/couchcryptid/weather-reading-service/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the report sink can accept traffic.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// Publisher turns submitted observations into published reports.
type Publisher interface {
	Publish(ctx context.Context, events []domain.RawEvent) (pipeline.Result, error)
}

// ReportLister returns recently stored reports for a station.
type ReportLister interface {
	Recent(ctx context.Context, stationID string, limit int) ([]domain.Report, error)
}

// Server exposes the reading API alongside health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	publisher  Publisher
	lister     ReportLister
	logger     *slog.Logger
}

// NewServer creates an HTTP server. /readyz reflects ready, and the station
// reports route is only registered when lister is non-nil.
func NewServer(addr string, publisher Publisher, ready ReadinessChecker, lister ReportLister, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		publisher: publisher,
		lister:    lister,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/readings/derive", s.handleDerive)
	mux.HandleFunc("POST /v1/observations", s.handlePublish)
	if lister != nil {
		mux.HandleFunc("GET /v1/stations/{station}/reports", s.handleStationReports)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
