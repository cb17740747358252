package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"niftywatch/internal/ratelimit"
	"niftywatch/pkg/model"
)

const (
	yahooChartURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
	yahooSummaryURL = "https://query1.finance.yahoo.com/v10/finance/quoteSummary"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// YahooProvider implements the Provider interface for Yahoo Finance
// (unofficial API). All requests share one pacing limiter so a
// full-universe screen never hammers the endpoint.
type YahooProvider struct {
	client     *http.Client
	limiter    *ratelimit.Pacer
	chartURL   string
	summaryURL string
}

// NewYahooProvider creates a new Yahoo Finance provider. interval is
// the minimum spacing between requests.
func NewYahooProvider(interval time.Duration) *YahooProvider {
	return &YahooProvider{
		client:     &http.Client{Timeout: 30 * time.Second},
		limiter:    ratelimit.New(interval),
		chartURL:   yahooChartURL,
		summaryURL: yahooSummaryURL,
	}
}

// Name returns the provider name
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// yahooChartResponse represents the Yahoo Finance chart API response.
// OHLC fields are pointers because the API emits null entries for
// non-trading timestamps.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooSummaryResponse represents the quoteSummary API response
type yahooSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				TrailingPE yahooRawValue `json:"trailingPE"`
			} `json:"summaryDetail"`
			FinancialData struct {
				ReturnOnEquity yahooRawValue `json:"returnOnEquity"`
			} `json:"financialData"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// yahooRawValue is Yahoo's {raw, fmt} numeric wrapper; only raw matters
type yahooRawValue struct {
	Raw *float64 `json:"raw"`
}

// History fetches daily bars for the trailing lookbackDays window
func (p *YahooProvider) History(ctx context.Context, symbol string, lookbackDays int) ([]model.PriceBar, error) {
	now := time.Now()
	start := now.AddDate(0, 0, -lookbackDays)
	url := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d&includePrePost=false",
		p.chartURL, symbol, start.Unix(), now.Unix())

	var data yahooChartResponse
	if err := p.fetchJSON(ctx, url, &data); err != nil {
		return nil, err
	}

	if data.Chart.Error != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %s", symbol, data.Chart.Error.Description), Retryable: false}
	}
	if len(data.Chart.Result) == 0 || len(data.Chart.Result[0].Timestamp) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrDataUnavailable), Retryable: false}
	}

	result := data.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrDataUnavailable), Retryable: false}
	}
	quotes := result.Indicators.Quote[0]

	bars := make([]model.PriceBar, 0, len(result.Timestamp))
	for i := range result.Timestamp {
		// Null bars are holidays or halted sessions; skip them.
		if i >= len(quotes.Close) || quotes.Close[i] == nil {
			continue
		}
		bar := model.PriceBar{
			Date:  time.Unix(result.Timestamp[i], 0).UTC(),
			Close: *quotes.Close[i],
		}
		if i < len(quotes.Open) && quotes.Open[i] != nil {
			bar.Open = *quotes.Open[i]
		}
		if i < len(quotes.High) && quotes.High[i] != nil {
			bar.High = *quotes.High[i]
		}
		if i < len(quotes.Low) && quotes.Low[i] != nil {
			bar.Low = *quotes.Low[i]
		}
		if i < len(quotes.Volume) && quotes.Volume[i] != nil {
			bar.Volume = *quotes.Volume[i]
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrDataUnavailable), Retryable: false}
	}

	return bars, nil
}

// Fundamentals fetches trailing PE and ROE via the quoteSummary API.
// ROE arrives as a fraction and is stored as a percentage.
func (p *YahooProvider) Fundamentals(ctx context.Context, symbol string) (model.Fundamentals, error) {
	url := fmt.Sprintf("%s/%s?modules=summaryDetail%%2CfinancialData", p.summaryURL, symbol)

	var data yahooSummaryResponse
	if err := p.fetchJSON(ctx, url, &data); err != nil {
		return model.Fundamentals{}, err
	}

	if data.QuoteSummary.Error != nil {
		return model.Fundamentals{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %s", symbol, data.QuoteSummary.Error.Description), Retryable: false}
	}
	if len(data.QuoteSummary.Result) == 0 {
		return model.Fundamentals{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrDataUnavailable), Retryable: false}
	}

	result := data.QuoteSummary.Result[0]
	var f model.Fundamentals
	if raw := result.SummaryDetail.TrailingPE.Raw; raw != nil {
		f.PE = decimal.NewNullDecimal(decimal.NewFromFloat(*raw))
	}
	if raw := result.FinancialData.ReturnOnEquity.Raw; raw != nil {
		f.ROE = decimal.NewNullDecimal(decimal.NewFromFloat(*raw).Mul(decimal.NewFromInt(100)))
	}
	return f, nil
}

// fetchJSON performs a rate-limited GET and decodes the JSON body
func (p *YahooProvider) fetchJSON(ctx context.Context, url string, out interface{}) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return &ProviderError{Provider: p.Name(), Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		p.limiter.NoteRateLimited()
		return &ProviderError{Provider: p.Name(), Err: fmt.Errorf("rate limited"), Retryable: true}
	}
	if resp.StatusCode != http.StatusOK {
		return &ProviderError{Provider: p.Name(), Err: fmt.Errorf("status %d", resp.StatusCode), Retryable: false}
	}

	p.limiter.NoteSuccess()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
