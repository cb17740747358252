package cache

import (
	"niftywatch/pkg/model"
)

// NoopStore is a Store that caches nothing. Used for --no-cache runs
// and as the fallback when the cache database cannot be opened.
type NoopStore struct{}

// NewNoopStore creates a no-op store
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (n *NoopStore) GetBundle(symbol string) (*model.Bundle, bool, error) { return nil, false, nil }
func (n *NoopStore) PutBundle(bundle *model.Bundle) error                 { return nil }
func (n *NoopStore) RecordRun(result *model.ScreenResult) error           { return nil }
func (n *NoopStore) Close() error                                         { return nil }
