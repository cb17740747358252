package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"niftywatch/internal/provider"
	"niftywatch/pkg/model"
)

// StockResponse represents a single equity with chart data
type StockResponse struct {
	Symbol   string               `json:"symbol"`
	Bars     []model.PriceBar     `json:"bars"`
	Snapshot model.EquitySnapshot `json:"snapshot"`
}

// handleScreen starts an async screening run. The browser polls
// /api/screen/status for progress.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	criteria := s.criteria
	q := r.URL.Query()
	if v := q.Get("max_pe"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			criteria.MaxPE = &d
		}
	}
	if v := q.Get("min_roe"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			criteria.MinROE = &d
		}
	}
	if v := q.Get("signal"); v != "" {
		criteria.Signal = model.Signal(strings.ToUpper(v))
	}

	// Check-and-set under one lock so two posts cannot both start a run
	s.mu.Lock()
	if s.state.Status == "running" {
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "already_running"})
		return
	}
	s.state = screenState{
		Status:    "running",
		Message:   "Starting screening run...",
		StartedAt: time.Now(),
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Minute)
	s.log.Info("screening run starting")
	go s.runScreenAsync(ctx, cancel, criteria)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}

// runScreenAsync runs the screen in background, updating screenState as it goes
func (s *Server) runScreenAsync(ctx context.Context, cancel context.CancelFunc, criteria model.FilterCriteria) {
	defer cancel()

	result, err := s.screener.Run(ctx, criteria)
	if err != nil {
		s.log.Error("screening run failed", "error", err)
		s.mu.Lock()
		s.state.Status = "error"
		s.state.Error = err.Error()
		s.mu.Unlock()
		return
	}

	if s.metrics != nil {
		s.metrics.ObserveRun(result)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		s.mu.Lock()
		s.state.Status = "error"
		s.state.Error = err.Error()
		s.mu.Unlock()
		return
	}

	s.log.Info("screening run complete",
		"run_id", result.RunID,
		"universe", result.Universe,
		"failed", result.Failed,
		"filtered", len(result.Filtered),
		"took", result.ScreenTime.Round(time.Second).String(),
	)

	s.mu.Lock()
	s.state.Status = "done"
	s.state.Message = fmt.Sprintf("Screened %d symbols in %s", result.Universe, result.ScreenTime.Round(time.Second))
	s.state.Result = resultJSON
	s.mu.Unlock()
}

// handleScreenStatus returns the state of the current screening run
func (s *Server) handleScreenStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state)
}

// handleStock returns a single equity with chart data
func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Extract symbol from path: /api/stock/RELIANCE.NS
	path := strings.TrimPrefix(r.URL.Path, "/api/stock/")
	symbol := strings.ToUpper(strings.TrimSpace(path))
	if symbol == "" {
		http.Error(w, "Symbol required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	bundle, err := s.fetcher.Fetch(ctx, symbol)
	if err != nil {
		if errors.Is(err, provider.ErrDataUnavailable) {
			http.Error(w, "No data for symbol: "+symbol, http.StatusNotFound)
			return
		}
		s.log.Error("stock fetch failed", "symbol", symbol, "error", err)
		http.Error(w, "Failed to get stock data: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// The bundle is cached, so the snapshot reuses the fetch above
	snapshot := s.screener.Analyze(ctx, symbol)

	resp := StockResponse{
		Symbol:   symbol,
		Bars:     bundle.Bars,
		Snapshot: snapshot,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleHealth is the liveness endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
