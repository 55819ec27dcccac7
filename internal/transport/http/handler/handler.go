// Package handler composes the HTTP handler groups behind the router.
package handler

import (
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/tokengate/tokengate/internal/storage"
	"github.com/tokengate/tokengate/internal/transport/http/handler/admin"
	"github.com/tokengate/tokengate/internal/transport/http/handler/infra"
	"github.com/tokengate/tokengate/internal/transport/http/handler/proxy"
	"github.com/tokengate/tokengate/internal/transport/http/middleware/auth"
)

// Repo composes all domain-specific handlers.
type Repo struct {
	Proxy *proxy.Handlers
	Admin *admin.Handlers
	Infra *infra.Handlers
}

// NewRepo creates a new instance of the composed handler repository.
func NewRepo(
	gate proxy.Admitter,
	up proxy.Forwarder,
	rec proxy.UsageRecorder,
	store storage.Storage,
	led admin.UsageSummarizer,
	keyCache *ristretto.Cache[string, *auth.CachedAllocation],
	logger *slog.Logger,
) *Repo {
	startTime := time.Now()
	return &Repo{
		Proxy: proxy.New(gate, up, rec, logger),
		Admin: admin.New(store, led, startTime, keyCache),
		Infra: infra.New(startTime),
	}
}
