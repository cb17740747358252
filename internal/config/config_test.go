package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Screener.SMAWindow != 20 || cfg.Screener.RSIWindow != 14 {
		t.Errorf("Expected default windows 20/14, got %d/%d", cfg.Screener.SMAWindow, cfg.Screener.RSIWindow)
	}
	if cfg.Screener.MaxPE != 30 || cfg.Screener.MinROE != 15 {
		t.Errorf("Expected default filters 30/15, got %v/%v", cfg.Screener.MaxPE, cfg.Screener.MinROE)
	}
	if cfg.Universe.TickersFile != "tickers.csv" {
		t.Errorf("Expected tickers.csv, got %s", cfg.Universe.TickersFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadAppliesFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "screener:\n  rsi_window: 21\n  rsi_smoothing: wilder\nprovider:\n  lookback_days: 90\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Writing fixture: %v", err)
	}
	t.Setenv("NIFTYWATCH_EXPORT_DIR", "out")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Screener.RSIWindow != 21 {
		t.Errorf("Expected rsi_window 21, got %d", cfg.Screener.RSIWindow)
	}
	if cfg.Screener.RSISmoothing != "wilder" {
		t.Errorf("Expected wilder smoothing, got %s", cfg.Screener.RSISmoothing)
	}
	if cfg.Provider.LookbackDays != 90 {
		t.Errorf("Expected lookback 90, got %d", cfg.Provider.LookbackDays)
	}
	// Untouched keys keep their defaults.
	if cfg.Screener.SMAWindow != 20 {
		t.Errorf("Expected sma_window default 20, got %d", cfg.Screener.SMAWindow)
	}
	if cfg.Export.Dir != "out" {
		t.Errorf("Expected env override for export dir, got %s", cfg.Export.Dir)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Screener.Workers = 0 }},
		{"unknown smoothing", func(c *Config) { c.Screener.RSISmoothing = "exponential" }},
		{"inverted thresholds", func(c *Config) { c.Screener.Oversold = 80 }},
		{"port out of range", func(c *Config) { c.Web.Port = 0 }},
		{"zero lookback", func(c *Config) { c.Provider.LookbackDays = 0 }},
		{"empty index url", func(c *Config) { c.Universe.IndexURL = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected a validation error")
			}
		})
	}
}
