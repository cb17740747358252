package screener

import (
	"testing"

	"github.com/shopspring/decimal"

	"niftywatch/pkg/model"
)

func fptr(v float64) *float64 {
	return &v
}

func dec(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func ndec(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

func symbolsOf(snapshots []model.EquitySnapshot) []string {
	out := make([]string, len(snapshots))
	for i, s := range snapshots {
		out[i] = s.Symbol
	}
	return out
}

func assertOrder(t *testing.T, got []model.EquitySnapshot, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected %d snapshots, got %v", len(want), symbolsOf(got))
	}
	for i := range want {
		if got[i].Symbol != want[i] {
			t.Fatalf("Expected order %v, got %v", want, symbolsOf(got))
		}
	}
}

func TestApplyFiltersMaxPE(t *testing.T) {
	snapshots := []model.EquitySnapshot{
		{Symbol: "A.NS", PE: ndec(25)},
		{Symbol: "B.NS", PE: ndec(35)},
		{Symbol: "C.NS"}, // no PE reported
		{Symbol: "D.NS", PE: ndec(30)},
	}

	got := ApplyFilters(snapshots, model.FilterCriteria{MaxPE: dec(30)})
	assertOrder(t, got, "A.NS", "D.NS")
}

func TestApplyFiltersMinROE(t *testing.T) {
	snapshots := []model.EquitySnapshot{
		{Symbol: "A.NS", ROE: ndec(18)},
		{Symbol: "B.NS", ROE: ndec(8)},
		{Symbol: "C.NS"},
		{Symbol: "D.NS", ROE: ndec(15)},
	}

	got := ApplyFilters(snapshots, model.FilterCriteria{MinROE: dec(15)})
	assertOrder(t, got, "A.NS", "D.NS")
}

func TestApplyFiltersSignal(t *testing.T) {
	snapshots := []model.EquitySnapshot{
		{Symbol: "A.NS", Signal: model.SignalBuy},
		{Symbol: "B.NS", Signal: model.SignalHold},
		{Symbol: "C.NS", Signal: model.SignalBuy},
	}

	got := ApplyFilters(snapshots, model.FilterCriteria{Signal: model.SignalBuy})
	assertOrder(t, got, "A.NS", "C.NS")
}

func TestApplyFiltersInactiveCriteriaKeepEverything(t *testing.T) {
	snapshots := []model.EquitySnapshot{
		{Symbol: "A.NS", PE: ndec(99)},
		{Symbol: "B.NS"}, // even a fully undefined snapshot survives
	}

	got := ApplyFilters(snapshots, model.FilterCriteria{})
	assertOrder(t, got, "A.NS", "B.NS")
}

func TestApplyFiltersIdempotent(t *testing.T) {
	snapshots := []model.EquitySnapshot{
		{Symbol: "A.NS", PE: ndec(10), ROE: ndec(20), Signal: model.SignalHold},
		{Symbol: "B.NS", PE: ndec(40), ROE: ndec(20), Signal: model.SignalHold},
		{Symbol: "C.NS", PE: ndec(20), ROE: ndec(5), Signal: model.SignalHold},
	}
	criteria := model.FilterCriteria{MaxPE: dec(30), MinROE: dec(15)}

	once := ApplyFilters(snapshots, criteria)
	twice := ApplyFilters(once, criteria)

	if len(once) != len(twice) {
		t.Fatalf("Expected idempotent filtering, got %d then %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Symbol != twice[i].Symbol {
			t.Errorf("Position %d changed: %s vs %s", i, once[i].Symbol, twice[i].Symbol)
		}
	}
}

func TestSortByFieldStable(t *testing.T) {
	snapshots := []model.EquitySnapshot{
		{Symbol: "A.NS", RSI: fptr(55)},
		{Symbol: "B.NS", RSI: fptr(40)},
		{Symbol: "C.NS", RSI: fptr(55)},
		{Symbol: "D.NS", RSI: fptr(40)},
	}

	if err := SortByField(snapshots, "rsi", true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// Ties keep their pre-sort relative order.
	assertOrder(t, snapshots, "B.NS", "D.NS", "A.NS", "C.NS")
}

func TestSortByFieldUndefinedLast(t *testing.T) {
	ascending := []model.EquitySnapshot{
		{Symbol: "A.NS"},
		{Symbol: "B.NS", RSI: fptr(70)},
		{Symbol: "C.NS", RSI: fptr(30)},
	}
	if err := SortByField(ascending, "rsi", true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	assertOrder(t, ascending, "C.NS", "B.NS", "A.NS")

	descending := []model.EquitySnapshot{
		{Symbol: "A.NS"},
		{Symbol: "B.NS", RSI: fptr(70)},
		{Symbol: "C.NS", RSI: fptr(30)},
	}
	if err := SortByField(descending, "rsi", false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// Undefined still sorts last when descending.
	assertOrder(t, descending, "B.NS", "C.NS", "A.NS")
}

func TestSortByPE(t *testing.T) {
	snapshots := []model.EquitySnapshot{
		{Symbol: "A.NS", PE: ndec(32.5)},
		{Symbol: "B.NS", PE: ndec(12.1)},
		{Symbol: "C.NS", PE: ndec(21.7)},
	}
	if err := SortByField(snapshots, "pe", true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	assertOrder(t, snapshots, "B.NS", "C.NS", "A.NS")
}

func TestSortBySymbolDescending(t *testing.T) {
	snapshots := []model.EquitySnapshot{
		{Symbol: "INFY.NS"},
		{Symbol: "TCS.NS"},
		{Symbol: "HDFCBANK.NS"},
	}
	if err := SortByField(snapshots, "symbol", false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	assertOrder(t, snapshots, "TCS.NS", "INFY.NS", "HDFCBANK.NS")
}

func TestSortBySignalAlphabetical(t *testing.T) {
	snapshots := []model.EquitySnapshot{
		{Symbol: "A.NS", Signal: model.SignalSell},
		{Symbol: "B.NS", Signal: model.SignalBuy},
		{Symbol: "C.NS", Signal: model.SignalHold},
	}
	if err := SortByField(snapshots, "signal", true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	assertOrder(t, snapshots, "B.NS", "C.NS", "A.NS")
}

func TestSortByUnknownField(t *testing.T) {
	if err := SortByField(nil, "volume", true); err == nil {
		t.Error("Expected an error for an unknown sort field")
	}
}

func TestSortByEmptyFieldKeepsOrder(t *testing.T) {
	snapshots := []model.EquitySnapshot{
		{Symbol: "B.NS"},
		{Symbol: "A.NS"},
	}
	if err := SortByField(snapshots, "", true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	assertOrder(t, snapshots, "B.NS", "A.NS")
}
