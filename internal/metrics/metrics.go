// Package metrics exposes Prometheus metrics for the scheduled and
// web-served screening modes.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"niftywatch/pkg/model"
)

// Metrics holds the screener's Prometheus metrics. Create it once per
// process: registration on the default registry is not idempotent.
type Metrics struct {
	RunsTotal       prometheus.Counter
	RunDuration     prometheus.Histogram
	SymbolsScreened prometheus.Counter
	FetchErrors     prometheus.Counter
	Signals         *prometheus.GaugeVec
	FilteredCount   prometheus.Gauge
	LastRunUnix     prometheus.Gauge
}

// NewMetrics registers and returns the screener metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "niftywatch_runs_total",
			Help: "Total screening runs completed",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "niftywatch_run_duration_seconds",
			Help:    "Wall-clock duration of a full screening run",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		}),
		SymbolsScreened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "niftywatch_symbols_screened_total",
			Help: "Symbols processed across all runs",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "niftywatch_fetch_errors_total",
			Help: "Symbols whose fetch failed across all runs",
		}),
		Signals: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "niftywatch_signals",
			Help: "Signal counts from the most recent run",
		}, []string{"signal"}),
		FilteredCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "niftywatch_filtered_results",
			Help: "Snapshots passing the filter in the most recent run",
		}),
		LastRunUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "niftywatch_last_run_timestamp_seconds",
			Help: "Unix time the most recent run started",
		}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.SymbolsScreened,
		m.FetchErrors,
		m.Signals,
		m.FilteredCount,
		m.LastRunUnix,
	)

	return m
}

// ObserveRun folds one completed screening run into the metrics
func (m *Metrics) ObserveRun(result *model.ScreenResult) {
	m.RunsTotal.Inc()
	m.RunDuration.Observe(result.ScreenTime.Seconds())
	m.SymbolsScreened.Add(float64(result.Universe))
	m.FetchErrors.Add(float64(result.Failed))
	m.FilteredCount.Set(float64(len(result.Filtered)))
	m.LastRunUnix.Set(float64(result.StartedAt.Unix()))

	counts := map[model.Signal]int{}
	for _, snap := range result.Snapshots {
		counts[snap.Signal]++
	}
	for _, sig := range []model.Signal{model.SignalBuy, model.SignalSell, model.SignalHold} {
		m.Signals.WithLabelValues(strings.ToLower(string(sig))).Set(float64(counts[sig]))
	}
}
