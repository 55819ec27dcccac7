// Package admin implements the key-provisioning and usage-reporting API.
package admin

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/tokengate/tokengate/internal/ledger"
	"github.com/tokengate/tokengate/internal/storage"
	"github.com/tokengate/tokengate/internal/transport/http/middleware/auth"
)

// UsageSummarizer reads a user's consumption totals from the usage ledger.
type UsageSummarizer interface {
	Summarize(userID int64) (ledger.Summary, error)
}

// Handlers holds the dependencies for admin HTTP handlers.
type Handlers struct {
	Storage   storage.Storage
	Ledger    UsageSummarizer
	StartTime time.Time
	KeyCache  *ristretto.Cache[string, *auth.CachedAllocation]
}

// New creates a new instance of admin handlers.
func New(store storage.Storage, led UsageSummarizer, startTime time.Time, keyCache *ristretto.Cache[string, *auth.CachedAllocation]) *Handlers {
	return &Handlers{
		Storage:   store,
		Ledger:    led,
		StartTime: startTime,
		KeyCache:  keyCache,
	}
}

// InvalidateKeyCache removes a cached key entry by its prefix, so key
// updates take effect without waiting out the cache TTL.
func (h *Handlers) InvalidateKeyCache(keyPrefix string) {
	if h.KeyCache != nil && keyPrefix != "" {
		h.KeyCache.Del("apikey:" + keyPrefix)
	}
}
