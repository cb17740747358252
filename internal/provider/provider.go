package provider

import (
	"context"
	"errors"

	"niftywatch/pkg/model"
)

// ErrDataUnavailable marks a symbol the upstream has no usable data
// for. Wrapped inside a ProviderError; callers classify with errors.Is.
var ErrDataUnavailable = errors.New("no data available")

// Provider defines the interface for market data providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// History fetches daily OHLCV bars covering the trailing
	// lookbackDays calendar days, oldest first
	History(ctx context.Context, symbol string, lookbackDays int) ([]model.PriceBar, error)

	// Fundamentals fetches the trailing PE ratio and ROE for a symbol.
	// Fields the upstream has no figure for are left invalid.
	Fundamentals(ctx context.Context, symbol string) (model.Fundamentals, error)
}

// ProviderError represents a provider-specific error
type ProviderError struct {
	Provider  string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
