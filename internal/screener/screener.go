package screener

import (
	"context"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"niftywatch/internal/cache"
	"niftywatch/internal/indicator"
	"niftywatch/internal/symbols"
	"niftywatch/pkg/model"
)

// ProgressCallback is called after each symbol completes
type ProgressCallback func(done, total int)

// Fetcher supplies one symbol's price history and fundamentals
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (*model.Bundle, error)
}

// Options controls indicator windows, signal thresholds and the
// worker pool
type Options struct {
	SMAWindow    int
	RSIWindow    int
	RSISmoothing indicator.Smoothing
	Oversold     float64
	Overbought   float64
	VolumeWindow int
	VolumeFactor float64
	Workers      int
	Timeout      time.Duration
}

// DefaultOptions returns the standard screener parameters: SMA(20),
// RSI(14) with simple smoothing, 30/70 thresholds and a volume spike
// at 1.5x the 20-day average volume.
func DefaultOptions() Options {
	return Options{
		SMAWindow:    20,
		RSIWindow:    14,
		RSISmoothing: indicator.SmoothingSimple,
		Oversold:     indicator.DefaultOversold,
		Overbought:   indicator.DefaultOverbought,
		VolumeWindow: 20,
		VolumeFactor: 1.5,
		Workers:      4,
		Timeout:      15 * time.Minute,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.SMAWindow < 1 {
		o.SMAWindow = def.SMAWindow
	}
	if o.RSIWindow < 1 {
		o.RSIWindow = def.RSIWindow
	}
	if o.RSISmoothing == "" {
		o.RSISmoothing = def.RSISmoothing
	}
	if o.Oversold <= 0 {
		o.Oversold = def.Oversold
	}
	if o.Overbought <= 0 {
		o.Overbought = def.Overbought
	}
	if o.VolumeWindow < 1 {
		o.VolumeWindow = def.VolumeWindow
	}
	if o.VolumeFactor <= 0 {
		o.VolumeFactor = def.VolumeFactor
	}
	if o.Workers < 1 {
		o.Workers = def.Workers
	}
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	return o
}

// Screener runs the full pipeline: resolve universe, fetch bundles in
// parallel, compute indicators, classify, filter.
type Screener struct {
	source       *symbols.Source
	fetcher      Fetcher
	store        cache.Store
	opts         Options
	classifier   indicator.Classifier
	progressFunc ProgressCallback
}

// New creates a screener. store may be a NoopStore; source may be nil
// when only RunSymbols and Analyze are used.
func New(source *symbols.Source, fetcher Fetcher, store cache.Store, opts Options) *Screener {
	opts = opts.withDefaults()
	return &Screener{
		source:     source,
		fetcher:    fetcher,
		store:      store,
		opts:       opts,
		classifier: indicator.Classifier{Oversold: opts.Oversold, Overbought: opts.Overbought},
	}
}

// SetProgressCallback sets the per-symbol progress callback
func (s *Screener) SetProgressCallback(fn ProgressCallback) {
	s.progressFunc = fn
}

// Run screens the resolved universe
func (s *Screener) Run(ctx context.Context, criteria model.FilterCriteria) (*model.ScreenResult, error) {
	universe, tier, err := s.source.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, universe, tier, criteria)
}

// RunSymbols screens exactly the given symbols instead of the
// resolved universe
func (s *Screener) RunSymbols(ctx context.Context, syms []string, criteria model.FilterCriteria) (*model.ScreenResult, error) {
	return s.run(ctx, syms, "", criteria)
}

func (s *Screener) run(ctx context.Context, syms []string, tier symbols.Tier, criteria model.FilterCriteria) (*model.ScreenResult, error) {
	start := time.Now()
	result := &model.ScreenResult{
		RunID:      uuid.New().String(),
		StartedAt:  start,
		Universe:   len(syms),
		TickerTier: string(tier),
	}

	if len(syms) == 0 {
		result.Snapshots = []model.EquitySnapshot{}
		result.Filtered = []model.EquitySnapshot{}
		result.ScreenTime = time.Since(start)
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	type job struct {
		index  int
		symbol string
	}

	jobChan := make(chan job, len(syms))
	snapshots := make([]model.EquitySnapshot, len(syms))
	for i, sym := range syms {
		// Overwritten on completion; survives only when the run is
		// cancelled before this symbol is reached.
		snapshots[i] = model.EquitySnapshot{Symbol: sym, Signal: model.SignalHold, FetchError: "fetch skipped"}
		jobChan <- job{index: i, symbol: sym}
	}
	close(jobChan)

	var done int64
	var wg sync.WaitGroup
	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				select {
				case <-ctx.Done():
					return
				default:
					snapshots[j.index] = s.Analyze(ctx, j.symbol)
					count := atomic.AddInt64(&done, 1)
					if s.progressFunc != nil {
						s.progressFunc(int(count), len(syms))
					}
				}
			}
		}()
	}
	wg.Wait()

	for _, snap := range snapshots {
		if snap.FetchError != "" {
			result.Failed++
		}
	}

	result.Snapshots = snapshots
	result.Filtered = ApplyFilters(snapshots, criteria)
	result.ScreenTime = time.Since(start)

	if err := s.store.RecordRun(result); err != nil {
		log.Printf("[SCREENER] Recording run %s failed: %v", result.RunID, err)
	}
	return result, nil
}

// Analyze fetches one symbol's bundle and builds its snapshot. Fetch
// failures are folded into the snapshot, never returned: the batch
// must not abort because one symbol is unavailable.
func (s *Screener) Analyze(ctx context.Context, symbol string) model.EquitySnapshot {
	snap := model.EquitySnapshot{Symbol: symbol, Signal: model.SignalHold}

	bundle, err := s.fetcher.Fetch(ctx, symbol)
	if err != nil {
		log.Printf("[SCREENER] %s: %v", symbol, err)
		snap.FetchError = err.Error()
		return snap
	}

	if bundle.Fundamentals.PE.Valid {
		snap.PE = decimalRound2(bundle.Fundamentals.PE)
	}
	if bundle.Fundamentals.ROE.Valid {
		snap.ROE = decimalRound2(bundle.Fundamentals.ROE)
	}

	bars := bundle.Bars
	last := len(bars) - 1
	closes := indicator.Closes(bars)

	sma, err := indicator.SMA(bars, s.opts.SMAWindow)
	if err != nil {
		snap.FetchError = err.Error()
		return snap
	}
	rsi, err := indicator.RSI(bars, s.opts.RSIWindow, s.opts.RSISmoothing)
	if err != nil {
		snap.FetchError = err.Error()
		return snap
	}
	volSMA, err := indicator.VolumeSMA(bars, s.opts.VolumeWindow)
	if err != nil {
		snap.FetchError = err.Error()
		return snap
	}

	closeVal := round2(closes[last])
	snap.Close = &closeVal
	snap.SMA = roundedPtr(sma, last)
	snap.RSI = roundedPtr(rsi, last)

	if avg, ok := volSMA.Last(); ok {
		snap.VolumeSpike = float64(bars[last].Volume) > s.opts.VolumeFactor*avg
	}

	snap.Signal = s.classifier.Classify(closes, sma, rsi, last)
	return snap
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundedPtr(series indicator.Series, i int) *float64 {
	p := series.Ptr(i)
	if p == nil {
		return nil
	}
	v := round2(*p)
	return &v
}

func decimalRound2(d decimal.NullDecimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d.Decimal.Round(2))
}
