package symbols

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const indexCSV = `Company Name,Industry,Symbol,Series,ISIN Code
Reliance Industries Ltd.,Oil Gas & Consumable Fuels,RELIANCE,EQ,INE002A01018
Tata Consultancy Services Ltd.,Information Technology, tcs ,EQ,INE467B01029
HDFC Bank Ltd.,Financial Services,HDFCBANK,EQ,INE040A01034
`

func newTestSource(t *testing.T, handler http.HandlerFunc) (*Source, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	tickersFile := filepath.Join(t.TempDir(), "tickers.csv")
	return NewSource(server.URL, tickersFile), tickersFile
}

func TestListFromUpstream(t *testing.T) {
	source, tickersFile := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(indexCSV))
	})

	symbols, tier, err := source.List(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if tier != TierUpstream {
		t.Errorf("Expected tier upstream, got %s", tier)
	}

	want := []string{"RELIANCE.NS", "TCS.NS", "HDFCBANK.NS"}
	if len(symbols) != len(want) {
		t.Fatalf("Expected %d symbols, got %d", len(want), len(symbols))
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], symbols[i])
		}
	}

	// A successful fetch refreshes the last-known-good file.
	data, err := os.ReadFile(tickersFile)
	if err != nil {
		t.Fatalf("Expected tickers file to be written: %v", err)
	}
	if !strings.Contains(string(data), "TCS.NS") {
		t.Errorf("Persisted file missing TCS.NS:\n%s", data)
	}
}

func TestListFallsBackToPersisted(t *testing.T) {
	source, tickersFile := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	persisted := "Ticker\nINFY.NS\nWIPRO.NS\n"
	if err := os.WriteFile(tickersFile, []byte(persisted), 0644); err != nil {
		t.Fatalf("Writing fixture: %v", err)
	}

	symbols, tier, err := source.List(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if tier != TierPersisted {
		t.Errorf("Expected tier persisted, got %s", tier)
	}
	if len(symbols) != 2 || symbols[0] != "INFY.NS" || symbols[1] != "WIPRO.NS" {
		t.Errorf("Expected persisted list, got %v", symbols)
	}
}

func TestListFallsBackToBuiltin(t *testing.T) {
	source, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	symbols, tier, err := source.List(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if tier != TierBuiltin {
		t.Errorf("Expected tier builtin, got %s", tier)
	}
	if len(symbols) != 50 {
		t.Errorf("Expected 50 built-in symbols, got %d", len(symbols))
	}
}

func TestCorruptUpstreamFallsThrough(t *testing.T) {
	// A response without a Symbol column must count as a failed fetch,
	// not produce a truncated universe.
	source, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Name,ISIN\nReliance,INE002A01018\n"))
	})

	symbols, tier, err := source.List(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if tier != TierBuiltin {
		t.Errorf("Expected tier builtin, got %s", tier)
	}
	if len(symbols) != len(Nifty50) {
		t.Errorf("Expected full built-in list, got %d symbols", len(symbols))
	}
}

func TestRefreshDoesNotFallBack(t *testing.T) {
	source, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := source.Refresh(context.Background())
	if err == nil {
		t.Fatal("Expected an error from Refresh")
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Errorf("Expected FetchError, got %T", err)
	}
}

func TestParseIndexCSVEmptyBody(t *testing.T) {
	if _, err := parseIndexCSV(strings.NewReader("")); err == nil {
		t.Error("Expected an error for an empty body")
	}
	if _, err := parseIndexCSV(strings.NewReader("Company Name,Symbol\n")); err == nil {
		t.Error("Expected an error for a header-only body")
	}
}
