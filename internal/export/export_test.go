package export

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"niftywatch/internal/indicator"
	"niftywatch/pkg/model"
)

func TestWriteWorkbooks(t *testing.T) {
	dir := t.TempDir()
	closeVal := 101.5
	rsiVal := 64.2

	result := &model.ScreenResult{
		Snapshots: []model.EquitySnapshot{
			{
				Symbol:      "RELIANCE.NS",
				Close:       &closeVal,
				RSI:         &rsiVal,
				PE:          decimal.NewNullDecimal(decimal.NewFromFloat(27.5)),
				VolumeSpike: true,
				Signal:      model.SignalHold,
			},
			{
				Symbol:     "GONE.NS",
				Signal:     model.SignalHold,
				FetchError: "no data available",
			},
		},
		Filtered: []model.EquitySnapshot{},
	}

	if err := WriteWorkbooks(dir, result); err != nil {
		t.Fatalf("WriteWorkbooks: %v", err)
	}

	f, err := excelize.OpenFile(filepath.Join(dir, AllResultsFile))
	if err != nil {
		t.Fatalf("Opening workbook: %v", err)
	}
	defer f.Close()
	sheet := f.GetSheetName(0)

	if v, _ := f.GetCellValue(sheet, "A1"); v != "Symbol" {
		t.Errorf("Expected header Symbol, got %q", v)
	}
	if v, _ := f.GetCellValue(sheet, "A2"); v != "RELIANCE.NS" {
		t.Errorf("Expected RELIANCE.NS, got %q", v)
	}
	if v, _ := f.GetCellValue(sheet, "B2"); v != "101.5" {
		t.Errorf("Expected close 101.5, got %q", v)
	}
	if v, _ := f.GetCellValue(sheet, "G2"); v != "Yes" {
		t.Errorf("Expected volume spike Yes, got %q", v)
	}

	// Undefined fields stay blank for the failed symbol.
	if v, _ := f.GetCellValue(sheet, "B3"); v != "" {
		t.Errorf("Expected blank close for failed symbol, got %q", v)
	}
	if v, _ := f.GetCellValue(sheet, "H3"); v != "HOLD" {
		t.Errorf("Expected HOLD, got %q", v)
	}

	if _, err := os.Stat(filepath.Join(dir, FilteredResultsFile)); err != nil {
		t.Errorf("Expected filtered workbook: %v", err)
	}
}

func TestRenderChart(t *testing.T) {
	dir := t.TempDir()

	bars := make([]model.PriceBar, 30)
	sma := make(indicator.Series, 30)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		price := 100.0 + float64(i)
		bars[i] = model.PriceBar{Date: day.AddDate(0, 0, i), Close: price, Volume: 1000}
		if i < 19 {
			sma[i] = math.NaN()
		} else {
			sma[i] = price - 9.5
		}
	}

	path, err := RenderChart(dir, "TCS.NS", bars, sma)
	if err != nil {
		t.Fatalf("RenderChart: %v", err)
	}
	if filepath.Base(path) != "TCS_chart.png" {
		t.Errorf("Expected TCS_chart.png, got %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Reading chart: %v", err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Error("Expected a PNG file")
	}
}

func TestRenderChartTooFewBars(t *testing.T) {
	bars := []model.PriceBar{{Date: time.Now(), Close: 100}}
	if _, err := RenderChart(t.TempDir(), "X.NS", bars, nil); err == nil {
		t.Error("Expected an error for a one-bar history")
	}
}

func TestChartFileName(t *testing.T) {
	cases := map[string]string{
		"TCS.NS":   "TCS_chart.png",
		"M&M.NS":   "M&M_chart.png",
		"NOSUFFIX": "NOSUFFIX_chart.png",
	}
	for in, want := range cases {
		if got := chartFileName(in); got != want {
			t.Errorf("chartFileName(%q) = %q, expected %q", in, got, want)
		}
	}
}
