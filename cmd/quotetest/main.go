package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"niftywatch/internal/cache"
	"niftywatch/internal/indicator"
	"niftywatch/internal/provider"
)

// Manual probe for the unofficial Yahoo endpoints. Run it when screener
// output looks wrong to see what Yahoo actually returns for a symbol:
//
//	go run ./cmd/quotetest RELIANCE.NS INFY.NS
func main() {
	syms := os.Args[1:]
	if len(syms) == 0 {
		syms = []string{"RELIANCE.NS", "TCS.NS", "HDFCBANK.NS"}
	}

	yahoo := provider.NewYahooProvider(1100 * time.Millisecond)
	fetcher := provider.NewBundleFetcher(yahoo, cache.NewNoopStore(), 180)
	classifier := indicator.Classifier{
		Oversold:   indicator.DefaultOversold,
		Overbought: indicator.DefaultOverbought,
	}
	ctx := context.Background()

	fmt.Println("=== Yahoo Finance API Test ===")

	for i, sym := range syms {
		fmt.Printf("\n[%d] %s\n", i+1, sym)

		start := time.Now()
		bundle, err := fetcher.Fetch(ctx, sym)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("    ERROR: %v (%.1fs)\n", err, elapsed.Seconds())
			continue
		}

		bars := bundle.Bars
		fmt.Printf("    OK: %d bars in %s\n", len(bars), elapsed)
		last := bars[len(bars)-1]
		fmt.Printf("    Last: %s O=%.2f H=%.2f L=%.2f C=%.2f V=%d\n",
			last.Date.Format("2006-01-02"), last.Open, last.High, last.Low, last.Close, last.Volume)

		if bundle.Fundamentals.PE.Valid {
			fmt.Printf("    PE: %s\n", bundle.Fundamentals.PE.Decimal.StringFixed(2))
		} else {
			fmt.Println("    PE: unavailable")
		}
		if bundle.Fundamentals.ROE.Valid {
			fmt.Printf("    ROE: %s%%\n", bundle.Fundamentals.ROE.Decimal.StringFixed(2))
		} else {
			fmt.Println("    ROE: unavailable")
		}

		sma, err := indicator.SMA(bars, 20)
		if err != nil {
			fmt.Printf("    SMA: ERROR - %v\n", err)
			continue
		}
		rsi, err := indicator.RSI(bars, 14, indicator.SmoothingSimple)
		if err != nil {
			fmt.Printf("    RSI: ERROR - %v\n", err)
			continue
		}

		idx := len(bars) - 1
		fmt.Printf("    SMA(20)=%s RSI(14)=%s -> %s\n",
			fmtSeries(sma, idx), fmtSeries(rsi, idx),
			classifier.Classify(indicator.Closes(bars), sma, rsi, idx))
	}

	fmt.Println("\n=== Test Complete ===")
}

func fmtSeries(s indicator.Series, i int) string {
	p := s.Ptr(i)
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *p)
}
