package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar represents a single daily OHLCV bar
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Fundamentals holds the fundamental fields used by the screener.
// Values are NullDecimal: a provider that has no figure for a symbol
// leaves the field invalid rather than zero.
type Fundamentals struct {
	PE  decimal.NullDecimal `json:"pe"`  // trailing price-to-earnings
	ROE decimal.NullDecimal `json:"roe"` // return on equity, percent
}

// Signal classifies an equity at the latest bar
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// EquitySnapshot is one screened equity: latest close, derived
// indicator values, fundamentals and the classified signal.
// Derived numeric fields are pointers; nil means undefined
// (insufficient history or a failed fetch).
type EquitySnapshot struct {
	Symbol      string              `json:"symbol"`
	Close       *float64            `json:"close"`
	SMA         *float64            `json:"sma"`
	RSI         *float64            `json:"rsi"`
	PE          decimal.NullDecimal `json:"pe"`
	ROE         decimal.NullDecimal `json:"roe"`
	VolumeSpike bool                `json:"volume_spike"`
	Signal      Signal              `json:"signal"`
	FetchError  string              `json:"fetch_error,omitempty"`
}

// FilterCriteria holds the per-run screening thresholds. Nil decimal
// pointers and empty Signal mean "criterion inactive".
type FilterCriteria struct {
	MaxPE  *decimal.Decimal `json:"max_pe,omitempty"`
	MinROE *decimal.Decimal `json:"min_roe,omitempty"`
	Signal Signal           `json:"signal,omitempty"`
}

// ScreenResult represents one full screening run
type ScreenResult struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	Universe   int              `json:"universe"`
	Failed     int              `json:"failed"`
	Snapshots  []EquitySnapshot `json:"snapshots"`
	Filtered   []EquitySnapshot `json:"filtered"`
	ScreenTime time.Duration    `json:"screen_time"`
	TickerTier string           `json:"ticker_tier,omitempty"` // upstream, persisted or builtin
}

// Bundle is the cached fetch unit for one symbol: its price history
// plus fundamentals, fetched together.
type Bundle struct {
	Symbol       string       `json:"symbol"`
	Bars         []PriceBar   `json:"bars"`
	Fundamentals Fundamentals `json:"fundamentals"`
}
