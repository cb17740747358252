package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"niftywatch/pkg/model"
)

// Workbook file names, overwritten on every run
const (
	AllResultsFile      = "all_results.xlsx"
	FilteredResultsFile = "filtered_results.xlsx"
)

var columns = []string{"Symbol", "Close", "SMA20", "RSI14", "PE", "ROE (%)", "Volume Spike", "Signal"}

// WriteWorkbooks writes the full and filtered result sheets under dir
func WriteWorkbooks(dir string, result *model.ScreenResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	if err := writeWorkbook(filepath.Join(dir, AllResultsFile), result.Snapshots); err != nil {
		return err
	}
	return writeWorkbook(filepath.Join(dir, FilteredResultsFile), result.Filtered)
}

func writeWorkbook(path string, snapshots []model.EquitySnapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, name := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}

	for i, snap := range snapshots {
		if err := writeRow(f, sheet, i+2, snap); err != nil {
			return fmt.Errorf("writing row for %s: %w", snap.Symbol, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// writeRow fills one snapshot row. Undefined fields stay blank cells.
func writeRow(f *excelize.File, sheet string, row int, snap model.EquitySnapshot) error {
	var firstErr error
	set := func(col int, value interface{}) {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err == nil {
			err = f.SetCellValue(sheet, cell, value)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	set(1, snap.Symbol)
	if snap.Close != nil {
		set(2, *snap.Close)
	}
	if snap.SMA != nil {
		set(3, *snap.SMA)
	}
	if snap.RSI != nil {
		set(4, *snap.RSI)
	}
	if snap.PE.Valid {
		pe, _ := snap.PE.Decimal.Float64()
		set(5, pe)
	}
	if snap.ROE.Valid {
		roe, _ := snap.ROE.Decimal.Float64()
		set(6, roe)
	}
	set(7, yesNo(snap.VolumeSpike))
	set(8, string(snap.Signal))
	return firstErr
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
