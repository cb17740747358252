// Package watch runs the screening pipeline on a cron schedule.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"niftywatch/internal/export"
	"niftywatch/internal/metrics"
	"niftywatch/pkg/model"
)

// Runner produces one screening result. *screener.Screener implements it.
type Runner interface {
	Run(ctx context.Context, criteria model.FilterCriteria) (*model.ScreenResult, error)
}

// Watcher runs the screener on a cron schedule and writes the workbook
// exports after every run. Schedules are six-field cron expressions with
// a leading seconds field, so "0 30 18 * * MON-FRI" fires each weekday
// at 18:30.
type Watcher struct {
	cron      *cron.Cron
	runner    Runner
	criteria  model.FilterCriteria
	exportDir string
	metrics   *metrics.Metrics
	log       *slog.Logger
	ctx       context.Context
	running   atomic.Bool
}

// New creates a Watcher. The context bounds every screening run; cancel
// it before calling Stop to abort a run that is still in flight.
// metrics may be nil.
func New(ctx context.Context, runner Runner, criteria model.FilterCriteria, exportDir string, m *metrics.Metrics, log *slog.Logger) *Watcher {
	return &Watcher{
		cron:      cron.New(cron.WithSeconds()),
		runner:    runner,
		criteria:  criteria,
		exportDir: exportDir,
		metrics:   m,
		log:       log,
		ctx:       ctx,
	}
}

// Register adds the screening task under the given cron schedule.
func (w *Watcher) Register(schedule string) error {
	if _, err := w.cron.AddFunc(schedule, w.RunNow); err != nil {
		return fmt.Errorf("register screening task: %w", err)
	}
	return nil
}

// Start launches the cron loop.
func (w *Watcher) Start() {
	w.cron.Start()
}

// Stop halts the cron loop and waits for an in-flight run to finish.
func (w *Watcher) Stop() {
	<-w.cron.Stop().Done()
	w.log.Info("watch stopped")
}

// RunNow executes one screening run immediately. A run that overlaps a
// previous one still in progress is skipped.
func (w *Watcher) RunNow() {
	if !w.running.CompareAndSwap(false, true) {
		w.log.Warn("previous run still in progress, skipping tick")
		return
	}
	defer w.running.Store(false)

	result, err := w.runner.Run(w.ctx, w.criteria)
	if err != nil {
		w.log.Error("screening run failed", "error", err)
		return
	}
	if err := export.WriteWorkbooks(w.exportDir, result); err != nil {
		w.log.Error("workbook export failed", "run_id", result.RunID, "error", err)
	}
	if w.metrics != nil {
		w.metrics.ObserveRun(result)
	}
	w.log.Info("screening run complete",
		"run_id", result.RunID,
		"universe", result.Universe,
		"failed", result.Failed,
		"filtered", len(result.Filtered),
		"buy", countSignal(result.Snapshots, model.SignalBuy),
		"sell", countSignal(result.Snapshots, model.SignalSell),
		"took", result.ScreenTime.Round(time.Millisecond).String(),
	)
}

func countSignal(snapshots []model.EquitySnapshot, sig model.Signal) int {
	n := 0
	for _, snap := range snapshots {
		if snap.Signal == sig {
			n++
		}
	}
	return n
}
