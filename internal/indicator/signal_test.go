package indicator

import (
	"math"
	"testing"

	"niftywatch/pkg/model"
)

func TestClassifyBuyOnUpwardCrossover(t *testing.T) {
	c := NewClassifier()

	closes := []float64{100, 96, 101}
	sma := Series{math.NaN(), 97, 100}
	rsi := Series{math.NaN(), 25, 28}

	got := c.Classify(closes, sma, rsi, 2)
	if got != model.SignalBuy {
		t.Errorf("Expected BUY, got %s", got)
	}
}

func TestClassifySellOnDownwardCrossover(t *testing.T) {
	c := NewClassifier()

	closes := []float64{100, 104, 99}
	sma := Series{math.NaN(), 103, 100}
	rsi := Series{math.NaN(), 75, 72}

	got := c.Classify(closes, sma, rsi, 2)
	if got != model.SignalSell {
		t.Errorf("Expected SELL, got %s", got)
	}
}

func TestClassifyHoldCases(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name   string
		closes []float64
		sma    Series
		rsi    Series
		index  int
	}{
		{
			name:   "oversold without crossover",
			closes: []float64{100, 101, 102},
			sma:    Series{nan, 99, 100},
			rsi:    Series{nan, 28, 28},
			index:  2,
		},
		{
			name:   "overbought without crossover",
			closes: []float64{100, 98, 97},
			sma:    Series{nan, 99, 99},
			rsi:    Series{nan, 75, 75},
			index:  2,
		},
		{
			name:   "upward crossover with neutral RSI",
			closes: []float64{100, 96, 101},
			sma:    Series{nan, 97, 100},
			rsi:    Series{nan, 50, 50},
			index:  2,
		},
		{
			name:   "RSI exactly at oversold threshold",
			closes: []float64{100, 96, 101},
			sma:    Series{nan, 97, 100},
			rsi:    Series{nan, 30, 30},
			index:  2,
		},
		{
			name:   "RSI exactly at overbought threshold",
			closes: []float64{100, 104, 99},
			sma:    Series{nan, 103, 100},
			rsi:    Series{nan, 70, 70},
			index:  2,
		},
		{
			name:   "SMA undefined at prior bar",
			closes: []float64{100, 96, 101},
			sma:    Series{nan, nan, 100},
			rsi:    Series{nan, 25, 28},
			index:  2,
		},
		{
			name:   "RSI undefined at current bar",
			closes: []float64{100, 96, 101},
			sma:    Series{nan, 97, 100},
			rsi:    Series{nan, 25, nan},
			index:  2,
		},
		{
			name:   "no prior bar",
			closes: []float64{100},
			sma:    Series{100},
			rsi:    Series{50},
			index:  0,
		},
		{
			name:   "index out of range",
			closes: []float64{100, 101},
			sma:    Series{100, 100},
			rsi:    Series{50, 50},
			index:  5,
		},
	}

	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.closes, tt.sma, tt.rsi, tt.index)
			if got != model.SignalHold {
				t.Errorf("Expected HOLD, got %s", got)
			}
		})
	}
}

func TestClassifyPriorBarOnLineCountsAsCrossover(t *testing.T) {
	c := NewClassifier()

	// close[i-1] == sma[i-1] still satisfies the upward crossover.
	closes := []float64{100, 97, 101}
	sma := Series{math.NaN(), 97, 100}
	rsi := Series{math.NaN(), 25, 28}

	if got := c.Classify(closes, sma, rsi, 2); got != model.SignalBuy {
		t.Errorf("Expected BUY when prior close sits on the SMA, got %s", got)
	}
}

// A steady 30-bar uptrend ends with a high RSI but no fresh crossover:
// the price has been above its SMA for the whole back half of the
// series, so the classification stays Hold.
func TestClassifySteadyUptrendNoFreshCrossover(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := testBars(closes...)

	sma, err := SMA(bars, 20)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	rsi, err := RSI(bars, 14, SmoothingSimple)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	last := len(bars) - 1
	rsiLast, ok := rsi.Last()
	if !ok {
		t.Fatal("Expected RSI defined at the last bar")
	}
	if rsiLast <= 70 {
		t.Errorf("Expected RSI > 70 after a steady rise, got %.2f", rsiLast)
	}
	if closes[last] <= sma[last] {
		t.Errorf("Expected close above SMA, got close=%.2f sma=%.2f", closes[last], sma[last])
	}

	c := NewClassifier()
	if got := c.Classify(closes, sma, rsi, last); got != model.SignalHold {
		t.Errorf("Expected HOLD with no fresh crossover, got %s", got)
	}
}
