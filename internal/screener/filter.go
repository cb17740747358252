package screener

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"niftywatch/pkg/model"
)

// ApplyFilters returns the snapshots passing criteria, preserving
// their relative order. A missing PE or ROE fails only a criterion
// that needs it; the signal filter compares for equality.
func ApplyFilters(snapshots []model.EquitySnapshot, criteria model.FilterCriteria) []model.EquitySnapshot {
	filtered := make([]model.EquitySnapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		if matches(snap, criteria) {
			filtered = append(filtered, snap)
		}
	}
	return filtered
}

func matches(snap model.EquitySnapshot, c model.FilterCriteria) bool {
	if c.MaxPE != nil {
		if !snap.PE.Valid || snap.PE.Decimal.GreaterThan(*c.MaxPE) {
			return false
		}
	}
	if c.MinROE != nil {
		if !snap.ROE.Valid || snap.ROE.Decimal.LessThan(*c.MinROE) {
			return false
		}
	}
	if c.Signal != "" && snap.Signal != c.Signal {
		return false
	}
	return true
}

// SortByField stable-sorts snapshots in place by the named field:
// symbol, close, sma, rsi, pe, roe or signal. Undefined values order
// after defined ones in either direction; ties keep their original
// relative order. An empty field name leaves the order untouched.
func SortByField(snapshots []model.EquitySnapshot, field string, ascending bool) error {
	switch strings.ToLower(field) {
	case "":
		return nil
	case "symbol":
		sortByString(snapshots, func(s model.EquitySnapshot) string { return s.Symbol }, ascending)
	case "signal":
		sortByString(snapshots, func(s model.EquitySnapshot) string { return string(s.Signal) }, ascending)
	case "close":
		sortByNumber(snapshots, func(s model.EquitySnapshot) (float64, bool) { return deref(s.Close) }, ascending)
	case "sma":
		sortByNumber(snapshots, func(s model.EquitySnapshot) (float64, bool) { return deref(s.SMA) }, ascending)
	case "rsi":
		sortByNumber(snapshots, func(s model.EquitySnapshot) (float64, bool) { return deref(s.RSI) }, ascending)
	case "pe":
		sortByNumber(snapshots, func(s model.EquitySnapshot) (float64, bool) { return decimalKey(s.PE) }, ascending)
	case "roe":
		sortByNumber(snapshots, func(s model.EquitySnapshot) (float64, bool) { return decimalKey(s.ROE) }, ascending)
	default:
		return fmt.Errorf("unknown sort field %q", field)
	}
	return nil
}

func sortByString(snapshots []model.EquitySnapshot, key func(model.EquitySnapshot) string, ascending bool) {
	sort.SliceStable(snapshots, func(i, j int) bool {
		a, b := key(snapshots[i]), key(snapshots[j])
		if a == b {
			return false
		}
		if ascending {
			return a < b
		}
		return a > b
	})
}

func sortByNumber(snapshots []model.EquitySnapshot, key func(model.EquitySnapshot) (float64, bool), ascending bool) {
	sort.SliceStable(snapshots, func(i, j int) bool {
		a, aok := key(snapshots[i])
		b, bok := key(snapshots[j])
		if aok != bok {
			return aok // defined sorts before undefined
		}
		if !aok || a == b {
			return false
		}
		if ascending {
			return a < b
		}
		return a > b
	})
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func decimalKey(d decimal.NullDecimal) (float64, bool) {
	if !d.Valid {
		return 0, false
	}
	return d.Decimal.InexactFloat64(), true
}
