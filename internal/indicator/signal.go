package indicator

import (
	"niftywatch/pkg/model"
)

// Default RSI thresholds for the classification rules
const (
	DefaultOversold   = 30.0
	DefaultOverbought = 70.0
)

// Classifier applies the threshold + crossover rules to aligned
// close/SMA/RSI series.
type Classifier struct {
	Oversold   float64 // RSI below this qualifies for Buy
	Overbought float64 // RSI above this qualifies for Sell
}

// NewClassifier returns a classifier with the default 30/70 thresholds
func NewClassifier() Classifier {
	return Classifier{Oversold: DefaultOversold, Overbought: DefaultOverbought}
}

// Classify evaluates the signal rules at index i, in priority order:
//
//  1. RSI[i] < oversold AND close crosses above SMA between i-1 and i -> Buy
//  2. RSI[i] > overbought AND close crosses below SMA between i-1 and i -> Sell
//  3. otherwise -> Hold
//
// A crossover requires the prior bar on the other side of the SMA, so a
// price that has already been above (or below) the line keeps holding.
// If SMA or RSI is undefined at i or i-1, or i has no prior bar, the
// result is Hold: insufficient data is neutral, not an error.
func (c Classifier) Classify(closes []float64, sma, rsi Series, i int) model.Signal {
	if i < 1 || i >= len(closes) {
		return model.SignalHold
	}
	if !sma.Defined(i) || !sma.Defined(i-1) || !rsi.Defined(i) || !rsi.Defined(i-1) {
		return model.SignalHold
	}

	switch {
	case rsi[i] < c.Oversold && closes[i] > sma[i] && closes[i-1] <= sma[i-1]:
		return model.SignalBuy
	case rsi[i] > c.Overbought && closes[i] < sma[i] && closes[i-1] >= sma[i-1]:
		return model.SignalSell
	default:
		return model.SignalHold
	}
}
