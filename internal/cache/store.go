package cache

import (
	"niftywatch/pkg/model"
)

// Store caches per-symbol fetch bundles with a TTL and records run
// metadata. It is the explicit cache object injected into the
// screening pipeline; exports remain the only authoritative output.
type Store interface {
	// GetBundle returns the cached bundle for a symbol, or ok=false on
	// a miss or an expired entry
	GetBundle(symbol string) (*model.Bundle, bool, error)

	// PutBundle stores a freshly fetched bundle
	PutBundle(bundle *model.Bundle) error

	// RecordRun appends one screening run's metadata
	RecordRun(result *model.ScreenResult) error

	// Close releases the underlying storage
	Close() error
}
