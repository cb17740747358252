package metrics

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server runs an HTTP server exposing /metrics and /healthz. Watch mode
// uses it; the web dashboard serves /metrics on its own mux instead.
type Server struct {
	addr      string
	log       *slog.Logger
	startedAt time.Time
	srv       *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, log *slog.Logger) *Server {
	s := &Server{
		addr:      addr,
		log:       log,
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.srv = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("metrics server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Error("metrics server error", "error", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
	})
}
