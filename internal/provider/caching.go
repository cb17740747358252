package provider

import (
	"context"

	"niftywatch/internal/cache"
	"niftywatch/pkg/model"
)

// BundleFetcher fetches per-symbol bundles (price history plus
// fundamentals) through the cache store, so repeated screens inside the
// TTL window never refetch. A history failure fails the bundle; a
// fundamentals failure only leaves PE/ROE undefined, since the
// screener can still classify on price data alone.
type BundleFetcher struct {
	inner        Provider
	store        cache.Store
	lookbackDays int
}

// NewBundleFetcher creates a caching bundle fetcher
func NewBundleFetcher(inner Provider, store cache.Store, lookbackDays int) *BundleFetcher {
	return &BundleFetcher{
		inner:        inner,
		store:        store,
		lookbackDays: lookbackDays,
	}
}

// Fetch returns the bundle for symbol, from cache when fresh
func (f *BundleFetcher) Fetch(ctx context.Context, symbol string) (*model.Bundle, error) {
	if cached, ok, err := f.store.GetBundle(symbol); err == nil && ok {
		return cached, nil
	}

	bars, err := f.inner.History(ctx, symbol, f.lookbackDays)
	if err != nil {
		return nil, err
	}

	bundle := &model.Bundle{Symbol: symbol, Bars: bars}
	if fund, err := f.inner.Fundamentals(ctx, symbol); err == nil {
		bundle.Fundamentals = fund
	}

	// A failed cache write leaves the bundle uncached but usable.
	_ = f.store.PutBundle(bundle)
	return bundle, nil
}
