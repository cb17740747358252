package indicator

import (
	"errors"
	"fmt"
	"math"

	"niftywatch/pkg/model"
)

// ErrInsufficientData is returned when an empty price series is passed
// to an indicator computation. A series that is merely shorter than the
// window is not an error: the output is simply undefined at every index.
var ErrInsufficientData = errors.New("indicator: empty price series")

// Smoothing selects the RSI averaging method
type Smoothing string

const (
	// SmoothingSimple averages gains and losses with a plain rolling
	// mean. This is the default.
	SmoothingSimple Smoothing = "simple"
	// SmoothingWilder uses Wilder's exponential smoothing with
	// alpha = 1/window.
	SmoothingWilder Smoothing = "wilder"
)

// Series is an indicator series aligned index-for-index with the price
// bars it was computed from. Entries without enough history are NaN.
type Series []float64

// Defined reports whether the series holds a value at index i
func (s Series) Defined(i int) bool {
	return i >= 0 && i < len(s) && !math.IsNaN(s[i])
}

// Last returns the value at the final index and whether it is defined
func (s Series) Last() (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	v := s[len(s)-1]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Ptr returns a pointer to the value at index i, or nil when the value
// is undefined. Used at the snapshot boundary so NaN never reaches
// JSON encoding.
func (s Series) Ptr(i int) *float64 {
	if !s.Defined(i) {
		return nil
	}
	v := s[i]
	return &v
}

// undefined returns a series of length n with every entry NaN
func undefined(n int) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

// rollingMean computes the trailing arithmetic mean over window values.
// Output at index i covers [i-window+1, i]; NaN for i < window-1.
func rollingMean(values []float64, window int) Series {
	out := undefined(len(values))
	if len(values) < window {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// SMA computes the simple moving average of closing prices. The value
// at index i is the mean of closes over [i-window+1, i]; indices before
// window-1 are undefined.
func SMA(bars []model.PriceBar, window int) (Series, error) {
	if window < 1 {
		return nil, fmt.Errorf("sma: window must be positive, got %d", window)
	}
	if len(bars) == 0 {
		return nil, ErrInsufficientData
	}
	return rollingMean(Closes(bars), window), nil
}

// VolumeSMA computes the simple moving average of volume, used for
// spike detection.
func VolumeSMA(bars []model.PriceBar, window int) (Series, error) {
	if window < 1 {
		return nil, fmt.Errorf("volume sma: window must be positive, got %d", window)
	}
	if len(bars) == 0 {
		return nil, ErrInsufficientData
	}
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		volumes[i] = float64(b.Volume)
	}
	return rollingMean(volumes, window), nil
}

// RSI computes the Relative Strength Index over day-over-day close
// deltas. Positive deltas count as gains, negative as losses; their
// averages over the window give RSI = 100 - 100/(1 + avgGain/avgLoss).
// The first delta exists at index 1, so the output is undefined for
// indices below window. A window with no losses yields 100; a window
// with no movement at all yields a neutral 50.
func RSI(bars []model.PriceBar, window int, smoothing Smoothing) (Series, error) {
	if window < 1 {
		return nil, fmt.Errorf("rsi: window must be positive, got %d", window)
	}
	if len(bars) == 0 {
		return nil, ErrInsufficientData
	}

	n := len(bars)
	out := undefined(n)
	if n <= window {
		return out, nil
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := bars[i].Close - bars[i-1].Close
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	switch smoothing {
	case SmoothingWilder:
		// Seed with the plain mean of the first window deltas, then
		// smooth: avg = (prev*(window-1) + current) / window.
		var sumG, sumL float64
		for i := 1; i <= window; i++ {
			sumG += gains[i]
			sumL += losses[i]
		}
		avgGain := sumG / float64(window)
		avgLoss := sumL / float64(window)
		out[window] = rsiValue(avgGain, avgLoss)
		for i := window + 1; i < n; i++ {
			avgGain = (avgGain*float64(window-1) + gains[i]) / float64(window)
			avgLoss = (avgLoss*float64(window-1) + losses[i]) / float64(window)
			out[i] = rsiValue(avgGain, avgLoss)
		}
	default: // SmoothingSimple
		var sumG, sumL float64
		for i := 1; i < n; i++ {
			sumG += gains[i]
			sumL += losses[i]
			if i > window {
				sumG -= gains[i-window]
				sumL -= losses[i-window]
			}
			if i >= window {
				out[i] = rsiValue(sumG/float64(window), sumL/float64(window))
			}
		}
	}

	return out, nil
}

// rsiValue maps average gain/loss to the RSI scale
func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50 // flat closes: neutral, not a fault
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// Closes extracts the closing prices from a bar sequence
func Closes(bars []model.PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
