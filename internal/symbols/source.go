package symbols

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// DefaultIndexURL is the NIFTY 50 constituent file published by NSE
	DefaultIndexURL = "https://archives.nseindia.com/content/indices/ind_nifty50list.csv"

	yahooSuffix = ".NS"
	userAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Tier identifies which source actually supplied the universe
type Tier string

const (
	TierUpstream  Tier = "upstream"
	TierPersisted Tier = "persisted"
	TierBuiltin   Tier = "builtin"
)

// FetchError reports that the upstream index file could not be turned
// into a usable ticker list.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching ticker universe from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Source resolves the screening universe. Order: fresh NSE index CSV,
// then the persisted tickers.csv last-known-good copy, then the
// built-in list. A corrupt upstream response counts as a failed fetch;
// a truncated universe is never returned.
type Source struct {
	client      *http.Client
	url         string
	tickersFile string
}

// NewSource creates a symbol source backed by the given index CSV URL.
// Successful fetches are persisted to tickersFile.
func NewSource(url, tickersFile string) *Source {
	return &Source{
		client:      &http.Client{Timeout: 30 * time.Second},
		url:         url,
		tickersFile: tickersFile,
	}
}

// List returns the ordered screening universe and the tier that
// supplied it
func (s *Source) List(ctx context.Context) ([]string, Tier, error) {
	symbols, err := s.Refresh(ctx)
	if err == nil {
		return symbols, TierUpstream, nil
	}
	if ctx.Err() != nil {
		return nil, "", err
	}
	log.Printf("[SYMBOLS] Upstream fetch failed: %v", err)

	symbols, ferr := s.loadPersisted()
	if ferr == nil {
		log.Printf("[SYMBOLS] Using last-known-good list from %s (%d symbols)", s.tickersFile, len(symbols))
		return symbols, TierPersisted, nil
	}
	if !os.IsNotExist(ferr) {
		log.Printf("[SYMBOLS] Reading %s failed: %v", s.tickersFile, ferr)
	}

	log.Printf("[SYMBOLS] Using built-in NIFTY 50 list (%d symbols)", len(Nifty50))
	return Nifty50, TierBuiltin, nil
}

// Refresh fetches the index CSV from upstream, persists it as the new
// last-known-good list and returns it. Unlike List it never falls
// back: callers asking for fresh data get fresh data or a FetchError.
func (s *Source) Refresh(ctx context.Context) ([]string, error) {
	symbols, err := s.fetchUpstream(ctx)
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: err}
	}
	if err := s.persist(symbols); err != nil {
		log.Printf("[SYMBOLS] Persisting %s failed: %v", s.tickersFile, err)
	}
	return symbols, nil
}

func (s *Source) fetchUpstream(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseIndexCSV(resp.Body)
}

// parseIndexCSV extracts the Symbol column from an NSE index file and
// converts each entry to its Yahoo form
func parseIndexCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing index CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("index CSV has no data rows")
	}

	col := -1
	for i, name := range records[0] {
		if strings.EqualFold(strings.TrimSpace(name), "Symbol") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("index CSV has no Symbol column")
	}

	var symbols []string
	for _, record := range records[1:] {
		if col >= len(record) {
			continue
		}
		sym := strings.ToUpper(strings.TrimSpace(record[col]))
		if sym == "" {
			continue
		}
		symbols = append(symbols, sym+yahooSuffix)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("index CSV has no symbols")
	}
	return symbols, nil
}

// persist writes the list to tickersFile in the same single-column
// layout the file has always had, so hand-edited copies keep working
func (s *Source) persist(symbols []string) error {
	f, err := os.Create(s.tickersFile)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	w.Write([]string{"Ticker"})
	for _, sym := range symbols {
		w.Write([]string{sym})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *Source) loadPersisted() ([]string, error) {
	f, err := os.Open(s.tickersFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.tickersFile, err)
	}

	var symbols []string
	for i, record := range records {
		if len(record) == 0 {
			continue
		}
		sym := strings.TrimSpace(record[0])
		if i == 0 && strings.EqualFold(sym, "Ticker") {
			continue
		}
		if sym != "" {
			symbols = append(symbols, sym)
		}
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%s contains no symbols", s.tickersFile)
	}
	return symbols, nil
}
