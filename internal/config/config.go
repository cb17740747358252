package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"niftywatch/internal/symbols"
)

// Config represents the application configuration
type Config struct {
	Universe UniverseConfig `yaml:"universe"`
	Provider ProviderConfig `yaml:"provider"`
	Screener ScreenerConfig `yaml:"screener"`
	Cache    CacheConfig    `yaml:"cache"`
	Export   ExportConfig   `yaml:"export"`
	Watch    WatchConfig    `yaml:"watch"`
	Web      WebConfig      `yaml:"web"`
}

// UniverseConfig controls where the ticker list comes from
type UniverseConfig struct {
	IndexURL    string `yaml:"index_url"`
	TickersFile string `yaml:"tickers_file"`
}

// ProviderConfig holds market-data fetch settings
type ProviderConfig struct {
	FetchInterval time.Duration `yaml:"fetch_interval"` // pause between upstream requests
	LookbackDays  int           `yaml:"lookback_days"`
}

// ScreenerConfig holds indicator windows, signal thresholds and the
// default filter criteria
type ScreenerConfig struct {
	SMAWindow    int           `yaml:"sma_window"`
	RSIWindow    int           `yaml:"rsi_window"`
	RSISmoothing string        `yaml:"rsi_smoothing"` // simple or wilder
	Oversold     float64       `yaml:"oversold"`
	Overbought   float64       `yaml:"overbought"`
	VolumeWindow int           `yaml:"volume_window"`
	VolumeFactor float64       `yaml:"volume_factor"`
	MaxPE        float64       `yaml:"max_pe"`
	MinROE       float64       `yaml:"min_roe"`
	Workers      int           `yaml:"workers"`
	Timeout      time.Duration `yaml:"timeout"`
}

// CacheConfig controls the local fetch cache
type CacheConfig struct {
	Path    string        `yaml:"path"`
	TTL     time.Duration `yaml:"ttl"`
	Disable bool          `yaml:"disable"`
}

// ExportConfig controls spreadsheet and chart output locations
type ExportConfig struct {
	Dir           string `yaml:"dir"`
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// WatchConfig holds scheduled-mode settings
type WatchConfig struct {
	Schedule string `yaml:"schedule"` // cron expression with a seconds field
}

// WebConfig holds dashboard settings
type WebConfig struct {
	Port int `yaml:"port"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Universe: UniverseConfig{
			IndexURL:    symbols.DefaultIndexURL,
			TickersFile: "tickers.csv",
		},
		Provider: ProviderConfig{
			FetchInterval: 1100 * time.Millisecond,
			LookbackDays:  180,
		},
		Screener: ScreenerConfig{
			SMAWindow:    20,
			RSIWindow:    14,
			RSISmoothing: "simple",
			Oversold:     30,
			Overbought:   70,
			VolumeWindow: 20,
			VolumeFactor: 1.5,
			MaxPE:        30,
			MinROE:       15,
			Workers:      4,
			Timeout:      15 * time.Minute,
		},
		Cache: CacheConfig{
			Path: "niftywatch.db",
			TTL:  time.Hour,
		},
		Export: ExportConfig{
			Dir:           "exports",
			ScreenshotDir: "screenshots",
		},
		Watch: WatchConfig{
			// Weekdays at 18:30, after the NSE close.
			Schedule: "0 30 18 * * MON-FRI",
		},
		Web: WebConfig{
			Port: 8080,
		},
	}
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if file doesn't exist
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Override with environment variables if set
	if v := os.Getenv("NIFTYWATCH_INDEX_URL"); v != "" {
		cfg.Universe.IndexURL = v
	}
	if v := os.Getenv("NIFTYWATCH_TICKERS_FILE"); v != "" {
		cfg.Universe.TickersFile = v
	}
	if v := os.Getenv("NIFTYWATCH_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := os.Getenv("NIFTYWATCH_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}
	if v := os.Getenv("NIFTYWATCH_SCREENSHOT_DIR"); v != "" {
		cfg.Export.ScreenshotDir = v
	}
	if v := os.Getenv("NIFTYWATCH_SCHEDULE"); v != "" {
		cfg.Watch.Schedule = v
	}
	if v := os.Getenv("NIFTYWATCH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing NIFTYWATCH_PORT: %w", err)
		}
		cfg.Web.Port = port
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Universe.IndexURL == "" {
		return fmt.Errorf("universe.index_url must not be empty")
	}
	if c.Universe.TickersFile == "" {
		return fmt.Errorf("universe.tickers_file must not be empty")
	}
	if c.Provider.LookbackDays < 1 {
		return fmt.Errorf("provider.lookback_days must be at least 1")
	}
	if c.Provider.FetchInterval < 0 {
		return fmt.Errorf("provider.fetch_interval must not be negative")
	}
	if c.Screener.SMAWindow < 2 {
		return fmt.Errorf("screener.sma_window must be at least 2")
	}
	if c.Screener.RSIWindow < 2 {
		return fmt.Errorf("screener.rsi_window must be at least 2")
	}
	if c.Screener.RSISmoothing != "simple" && c.Screener.RSISmoothing != "wilder" {
		return fmt.Errorf("screener.rsi_smoothing must be simple or wilder, got %q", c.Screener.RSISmoothing)
	}
	if c.Screener.Oversold >= c.Screener.Overbought {
		return fmt.Errorf("screener.oversold must be below screener.overbought")
	}
	if c.Screener.VolumeWindow < 1 {
		return fmt.Errorf("screener.volume_window must be at least 1")
	}
	if c.Screener.VolumeFactor <= 0 {
		return fmt.Errorf("screener.volume_factor must be positive")
	}
	if c.Screener.Workers < 1 {
		return fmt.Errorf("screener.workers must be at least 1")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port must be between 1 and 65535")
	}
	return nil
}
