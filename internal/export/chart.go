package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"niftywatch/internal/indicator"
	"niftywatch/pkg/model"
)

// RenderChart writes a close-price + SMA line chart for one symbol to
// dir and returns the file path. The file is named {SYMBOL}_chart.png
// with the exchange suffix stripped, and is overwritten on rerun.
func RenderChart(dir, symbol string, bars []model.PriceBar, sma indicator.Series) (string, error) {
	if len(bars) < 2 {
		return "", fmt.Errorf("not enough bars to chart %s", symbol)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating screenshot dir: %w", err)
	}

	dates := make([]time.Time, len(bars))
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		dates[i] = bar.Date
		closes[i] = bar.Close
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name:    "Close",
			XValues: dates,
			YValues: closes,
		},
	}

	// The SMA line covers only its defined range.
	var smaDates []time.Time
	var smaValues []float64
	for i := range bars {
		if sma.Defined(i) {
			smaDates = append(smaDates, bars[i].Date)
			smaValues = append(smaValues, sma[i])
		}
	}
	if len(smaValues) >= 2 {
		series = append(series, chart.TimeSeries{
			Name:    "SMA",
			XValues: smaDates,
			YValues: smaValues,
		})
	}

	graph := chart.Chart{
		Title:  symbol,
		Width:  1000,
		Height: 500,
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	path := filepath.Join(dir, chartFileName(symbol))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		return "", fmt.Errorf("rendering chart for %s: %w", symbol, err)
	}
	return path, nil
}

func chartFileName(symbol string) string {
	return strings.TrimSuffix(symbol, ".NS") + "_chart.png"
}
