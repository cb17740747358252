package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"niftywatch/internal/cache"
	"niftywatch/internal/config"
	"niftywatch/internal/export"
	"niftywatch/internal/indicator"
	"niftywatch/internal/logger"
	"niftywatch/internal/metrics"
	"niftywatch/internal/provider"
	"niftywatch/internal/screener"
	"niftywatch/internal/symbols"
	"niftywatch/internal/watch"
	"niftywatch/internal/web"
	"niftywatch/pkg/model"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

var (
	cfgFile        string
	symbolList     string
	plotList       string
	maxPE          float64
	minROE         float64
	buyOnly        bool
	signalFilter   string
	sortBy         string
	sortDesc       bool
	workers        int
	lookbackDays   int
	format         string
	noCache        bool
	noExport       bool
	refreshTickers bool
	exportDir      string
	verbose        bool

	tickersRefresh bool
	watchSchedule  string
	servePort      int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "niftywatch",
		Short: "NIFTY 50 stock screener with SMA/RSI crossover signals",
		Long: `Niftywatch screens the NSE NIFTY 50 universe using daily Yahoo Finance
data: SMA(20)/RSI(14) crossover signals, PE and ROE filters, volume
spike detection, xlsx exports and price charts.

Examples:
  niftywatch
  niftywatch --max-pe 25 --min-roe 18 --sort-by rsi
  niftywatch --symbols RELIANCE.NS,TCS.NS --format json
  niftywatch --buy-only --plot RELIANCE.NS
  niftywatch watch --schedule "0 30 18 * * MON-FRI"
  niftywatch serve --port 8080`,
		RunE: runScreen,
	}

	// Flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "show detailed output")

	rootCmd.Flags().StringVar(&symbolList, "symbols", "", "comma-separated symbols to screen (default: NIFTY 50 universe)")
	rootCmd.Flags().StringVar(&plotList, "plot", "", "comma-separated symbols to render close/SMA charts for")
	rootCmd.Flags().Float64Var(&maxPE, "max-pe", 30, "maximum trailing PE, <=0 disables the filter")
	rootCmd.Flags().Float64Var(&minROE, "min-roe", 15, "minimum ROE percent, <=0 disables the filter")
	rootCmd.Flags().BoolVar(&buyOnly, "buy-only", false, "only keep BUY signals (same as --signal BUY)")
	rootCmd.Flags().StringVar(&signalFilter, "signal", "", "only keep one signal: BUY, SELL, HOLD")
	rootCmd.Flags().StringVar(&sortBy, "sort-by", "", "sort results by field: symbol, close, sma, rsi, pe, roe, signal")
	rootCmd.Flags().BoolVar(&sortDesc, "desc", false, "sort descending")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "number of parallel fetch workers (default from config)")
	rootCmd.Flags().IntVar(&lookbackDays, "lookback-days", 0, "days of price history to fetch (default from config)")
	rootCmd.Flags().StringVar(&format, "format", "table", "output format: table, json")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the local fetch cache")
	rootCmd.Flags().BoolVar(&noExport, "no-export", false, "skip writing the xlsx workbooks")
	rootCmd.Flags().BoolVar(&refreshTickers, "refresh-tickers", false, "refresh the ticker list from the NSE index before screening")
	rootCmd.Flags().StringVar(&exportDir, "export-dir", "", "directory for xlsx exports (default from config)")

	tickersCmd := &cobra.Command{
		Use:   "tickers",
		Short: "Print the resolved NIFTY 50 universe",
		RunE:  runTickers,
	}
	tickersCmd.Flags().BoolVar(&tickersRefresh, "refresh", false, "force a refresh from the NSE index archive")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the screener on a cron schedule",
		RunE:  runWatch,
	}
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "six-field cron expression (default from config)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web dashboard",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the niftywatch version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("niftywatch %s\n", version)
		},
	}

	rootCmd.AddCommand(tickersCmd, watchCmd, serveCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired pipeline for one process
type app struct {
	store    cache.Store
	fetcher  screener.Fetcher
	source   *symbols.Source
	screener *screener.Screener
}

func newApp(cfg *config.Config) *app {
	var store cache.Store
	if cfg.Cache.Disable {
		store = cache.NewNoopStore()
	} else {
		sqlStore, err := cache.NewSQLiteStore(cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cache unavailable (%v), continuing without\n", err)
			store = cache.NewNoopStore()
		} else {
			store = sqlStore
		}
	}

	yahoo := provider.NewYahooProvider(cfg.Provider.FetchInterval)
	fetcher := provider.NewBundleFetcher(yahoo, store, cfg.Provider.LookbackDays)
	source := symbols.NewSource(cfg.Universe.IndexURL, cfg.Universe.TickersFile)

	opts := screener.Options{
		SMAWindow:    cfg.Screener.SMAWindow,
		RSIWindow:    cfg.Screener.RSIWindow,
		RSISmoothing: indicator.Smoothing(cfg.Screener.RSISmoothing),
		Oversold:     cfg.Screener.Oversold,
		Overbought:   cfg.Screener.Overbought,
		VolumeWindow: cfg.Screener.VolumeWindow,
		VolumeFactor: cfg.Screener.VolumeFactor,
		Workers:      cfg.Screener.Workers,
		Timeout:      cfg.Screener.Timeout,
	}

	return &app{
		store:    store,
		fetcher:  fetcher,
		source:   source,
		screener: screener.New(source, fetcher, store, opts),
	}
}

func (a *app) Close() {
	a.store.Close()
}

// buildCriteria maps config thresholds and signal flags to filter criteria
func buildCriteria(cfg *config.Config) (model.FilterCriteria, error) {
	var criteria model.FilterCriteria
	if cfg.Screener.MaxPE > 0 {
		d := decimal.NewFromFloat(cfg.Screener.MaxPE)
		criteria.MaxPE = &d
	}
	if cfg.Screener.MinROE > 0 {
		d := decimal.NewFromFloat(cfg.Screener.MinROE)
		criteria.MinROE = &d
	}
	switch {
	case buyOnly:
		criteria.Signal = model.SignalBuy
	case signalFilter != "":
		sig := model.Signal(strings.ToUpper(signalFilter))
		if sig != model.SignalBuy && sig != model.SignalSell && sig != model.SignalHold {
			return criteria, fmt.Errorf("unknown signal %q (use BUY, SELL or HOLD)", signalFilter)
		}
		criteria.Signal = sig
	}
	return criteria, nil
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Override config with CLI flags
	if cmd.Flags().Changed("max-pe") {
		cfg.Screener.MaxPE = maxPE
	}
	if cmd.Flags().Changed("min-roe") {
		cfg.Screener.MinROE = minROE
	}
	if workers > 0 {
		cfg.Screener.Workers = workers
	}
	if lookbackDays > 0 {
		cfg.Provider.LookbackDays = lookbackDays
	}
	if exportDir != "" {
		cfg.Export.Dir = exportDir
	}
	if noCache {
		cfg.Cache.Disable = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	criteria, err := buildCriteria(cfg)
	if err != nil {
		return err
	}

	tableOut := format != "json"

	a := newApp(cfg)
	defer a.Close()

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted. Stopping screen...")
		cancel()
	}()

	if refreshTickers {
		if tableOut {
			fmt.Println("Refreshing ticker list from NSE...")
		}
		if _, err := a.source.Refresh(ctx); err != nil {
			return fmt.Errorf("refreshing tickers: %w", err)
		}
	}

	// Setup progress bar. The universe size is only known once the run
	// starts, so the bar is created on the first progress callback.
	var bar *progressbar.ProgressBar
	if tableOut {
		var barOnce sync.Once
		a.screener.SetProgressCallback(func(done, total int) {
			barOnce.Do(func() {
				bar = newProgressBar(total)
			})
			bar.Set(done)
		})
	}

	// Run screen
	var result *model.ScreenResult
	if symbolList != "" {
		syms := splitSymbols(symbolList)
		if tableOut {
			fmt.Printf("Screening %d symbols...\n\n", len(syms))
		}
		result, err = a.screener.RunSymbols(ctx, syms, criteria)
	} else {
		if tableOut {
			fmt.Println("Screening the NIFTY 50 universe...")
			fmt.Println()
		}
		result, err = a.screener.Run(ctx, criteria)
	}
	if err != nil {
		return fmt.Errorf("screening: %w", err)
	}

	if bar != nil {
		bar.Finish()
		fmt.Println()
	}

	if sortBy != "" {
		if err := screener.SortByField(result.Filtered, sortBy, !sortDesc); err != nil {
			return err
		}
	}

	if !noExport {
		if err := export.WriteWorkbooks(cfg.Export.Dir, result); err != nil {
			return fmt.Errorf("writing exports: %w", err)
		}
		if tableOut {
			fmt.Printf("Workbooks written to %s/\n", cfg.Export.Dir)
		}
	}

	if plotList != "" {
		if err := renderCharts(ctx, a, cfg, splitSymbols(plotList), tableOut); err != nil {
			return err
		}
	}

	// Output results
	if format == "json" {
		return outputJSON(result)
	}
	return outputTable(result)
}

func renderCharts(ctx context.Context, a *app, cfg *config.Config, syms []string, tableOut bool) error {
	for _, sym := range syms {
		bundle, err := a.fetcher.Fetch(ctx, sym)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipping chart for %s: %v\n", sym, err)
			continue
		}
		sma, err := indicator.SMA(bundle.Bars, cfg.Screener.SMAWindow)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipping chart for %s: %v\n", sym, err)
			continue
		}
		path, err := export.RenderChart(cfg.Export.ScreenshotDir, sym, bundle.Bars, sma)
		if err != nil {
			return fmt.Errorf("rendering %s chart: %w", sym, err)
		}
		if tableOut {
			fmt.Printf("Chart written: %s\n", path)
		}
	}
	return nil
}

func runTickers(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	source := symbols.NewSource(cfg.Universe.IndexURL, cfg.Universe.TickersFile)
	ctx := context.Background()

	var (
		syms []string
		tier symbols.Tier
	)
	if tickersRefresh {
		fmt.Println("Refreshing ticker list from NSE...")
		syms, err = source.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("refreshing tickers: %w", err)
		}
		tier = symbols.TierUpstream
	} else {
		syms, tier, err = source.List(ctx)
		if err != nil {
			return fmt.Errorf("resolving universe: %w", err)
		}
	}

	for _, sym := range syms {
		fmt.Println(sym)
	}
	fmt.Printf("\n%d tickers (source: %s)\n", len(syms), tier)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("schedule") {
		cfg.Watch.Schedule = watchSchedule
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logger.Init("niftywatch-watch", logLevel())

	criteria, err := buildCriteria(cfg)
	if err != nil {
		return err
	}

	a := newApp(cfg)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics()
	ms := metrics.NewServer(fmt.Sprintf(":%d", cfg.Web.Port), log)
	ms.Start()

	w := watch.New(ctx, a.screener, criteria, cfg.Export.Dir, m, log)
	if err := w.Register(cfg.Watch.Schedule); err != nil {
		return err
	}
	w.Start()
	log.Info("watch started", "schedule", cfg.Watch.Schedule)

	// Immediate run before the first scheduled tick
	go w.RunNow()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutdown signal received, stopping")
	cancel()
	w.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	ms.Stop(shutdownCtx)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("port") {
		cfg.Web.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logger.Init("niftywatch-web", logLevel())

	criteria, err := buildCriteria(cfg)
	if err != nil {
		return err
	}

	a := newApp(cfg)
	defer a.Close()

	m := metrics.NewMetrics()
	srv := web.NewServer(a.screener, a.fetcher, criteria, m, log)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(cfg.Web.Port)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
	case <-sigChan:
		log.Info("shutdown signal received, stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
	}
	return nil
}

func logLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// splitSymbols parses a comma-separated symbol list; bare NSE codes get
// the .NS suffix
func splitSymbols(list string) []string {
	var syms []string
	for _, s := range strings.Split(list, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !strings.Contains(s, ".") {
			s += ".NS"
		}
		syms = append(syms, s)
	}
	return syms
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Screening"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func outputTable(result *model.ScreenResult) error {
	if len(result.Filtered) == 0 {
		fmt.Println("No stocks matched the filters.")
	} else {
		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"Symbol", "Close", "SMA20", "RSI14", "PE", "ROE (%)", "Vol Spike", "Signal"}),
		)

		for _, snap := range result.Filtered {
			table.Append([]string{
				snap.Symbol,
				fmtFloat(snap.Close),
				fmtFloat(snap.SMA),
				fmtFloat(snap.RSI),
				fmtDecimal(snap.PE),
				fmtDecimal(snap.ROE),
				yesNo(snap.VolumeSpike),
				string(snap.Signal),
			})
		}

		table.Render()
	}

	if verbose && result.Failed > 0 {
		fmt.Println("\n--- Fetch Failures ---")
		for _, snap := range result.Snapshots {
			if snap.FetchError != "" {
				fmt.Printf("  %s: %s\n", snap.Symbol, snap.FetchError)
			}
		}
	}

	fmt.Printf("\nScreened %d stocks (%d matched, %d failed) in %s [run %s]\n",
		result.Universe, len(result.Filtered), result.Failed,
		result.ScreenTime.Round(time.Second), result.RunID)
	return nil
}

func outputJSON(result *model.ScreenResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func fmtFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func fmtDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.StringFixed(2)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
