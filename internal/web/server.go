// Package web serves the dashboard and the screening API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"niftywatch/internal/metrics"
	"niftywatch/internal/screener"
	"niftywatch/pkg/model"
)

//go:embed static
var staticFiles embed.FS

// screenState tracks the current async screening run. The browser starts
// a run with POST /api/screen and polls /api/screen/status until Status
// becomes done or error.
type screenState struct {
	Status    string          `json:"status"` // idle, running, done, error
	Message   string          `json:"message,omitempty"`
	StartedAt time.Time       `json:"started_at,omitempty"`
	Done      int             `json:"done"`
	Total     int             `json:"total"`
	Error     string          `json:"error,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// Server serves the embedded dashboard and the screening API
type Server struct {
	screener *screener.Screener
	fetcher  screener.Fetcher
	criteria model.FilterCriteria
	metrics  *metrics.Metrics
	log      *slog.Logger

	mu    sync.RWMutex
	state screenState

	srv *http.Server
}

// NewServer creates a web server. criteria are the default filter
// thresholds; a run request may override them with query parameters.
// metrics may be nil.
func NewServer(scr *screener.Screener, fetcher screener.Fetcher, criteria model.FilterCriteria, m *metrics.Metrics, log *slog.Logger) *Server {
	s := &Server{
		screener: scr,
		fetcher:  fetcher,
		criteria: criteria,
		metrics:  m,
		log:      log,
		state:    screenState{Status: "idle"},
	}
	scr.SetProgressCallback(func(done, total int) {
		s.mu.Lock()
		s.state.Done = done
		s.state.Total = total
		s.mu.Unlock()
	})
	return s
}

// Start builds the routes and serves until Shutdown or a listener error.
func (s *Server) Start(port int) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/screen", s.handleScreen)
	mux.HandleFunc("/api/screen/status", s.handleScreenStatus)
	mux.HandleFunc("/api/stock/", s.handleStock)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	// Dashboard assets at the root.
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("embedded static assets: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      corsMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.log.Info("dashboard listening", "addr", fmt.Sprintf("http://localhost:%d", port))

	return s.srv.ListenAndServe()
}

// Shutdown stops the HTTP server, letting in-flight requests finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware lets a dev frontend on another port call the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
