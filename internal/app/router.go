package app

import (
	"log/slog"
	"net/http"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/tokengate/tokengate/internal/storage"
	"github.com/tokengate/tokengate/internal/transport/http/handler"
	"github.com/tokengate/tokengate/internal/transport/http/middleware"
	"github.com/tokengate/tokengate/internal/transport/http/middleware/auth"
)

// RouterOptions configures the HTTP router behavior.
type RouterOptions struct {
	Logger   *slog.Logger
	Storage  storage.Storage
	KeyCache *ristretto.Cache[string, *auth.CachedAllocation]
}

// NewRouter creates and configures the HTTP router with all application routes.
// Returns an http.Handler with middleware applied.
// opts must not be nil - all routes require authentication configuration.
func NewRouter(repo *handler.Repo, opts *RouterOptions) http.Handler {
	mux := http.NewServeMux()

	// Public routes (no auth)
	mux.HandleFunc("GET /api/health", repo.Infra.HealthCheck)

	// Create API key auth middleware for proxy routes (always required)
	apiKeyAuth := auth.APIKeyAuth(opts.Storage, opts.KeyCache)

	// Proxy routes (require user identity + API key)
	mux.Handle("POST /v1/chat/completions", apiKeyAuth(http.HandlerFunc(repo.Proxy.ChatCompletions)))
	mux.Handle("POST /v1/completions", apiKeyAuth(http.HandlerFunc(repo.Proxy.Completions)))
	mux.Handle("POST /v1/moderations", apiKeyAuth(http.HandlerFunc(repo.Proxy.Moderations)))
	mux.Handle("POST /v1/images/generations", apiKeyAuth(http.HandlerFunc(repo.Proxy.ImageGenerations)))
	mux.Handle("POST /v1/images/variations", apiKeyAuth(http.HandlerFunc(repo.Proxy.ImageVariations)))
	mux.Handle("POST /v1/images/edits", apiKeyAuth(http.HandlerFunc(repo.Proxy.ImageEdits)))
	mux.Handle("POST /v1/batches", apiKeyAuth(http.HandlerFunc(repo.Proxy.CreateBatch)))
	mux.Handle("GET /v1/batches", apiKeyAuth(http.HandlerFunc(repo.Proxy.ListBatches)))
	mux.Handle("GET /v1/batches/{batchId}", apiKeyAuth(http.HandlerFunc(repo.Proxy.GetBatch)))
	mux.Handle("POST /v1/batches/{batchId}/cancel", apiKeyAuth(http.HandlerFunc(repo.Proxy.CancelBatch)))
	mux.Handle("POST /v1/files", apiKeyAuth(http.HandlerFunc(repo.Proxy.UploadFile)))
	mux.Handle("GET /v1/files", apiKeyAuth(http.HandlerFunc(repo.Proxy.ListFiles)))
	mux.Handle("GET /v1/files/{fileId}", apiKeyAuth(http.HandlerFunc(repo.Proxy.GetFile)))
	mux.Handle("GET /v1/files/{fileId}/content", apiKeyAuth(http.HandlerFunc(repo.Proxy.GetFileContent)))
	mux.Handle("DELETE /v1/files/{fileId}", apiKeyAuth(http.HandlerFunc(repo.Proxy.DeleteFile)))

	// Admin API routes (require admin auth)
	registerAdminRoutes(mux, repo, opts)

	// Root returns JSON status
	mux.HandleFunc("GET /", repo.Infra.RootStatus)

	// Apply middleware chain (order: outer to inner)
	var h http.Handler = mux

	// Request logging (if logger provided)
	if opts.Logger != nil {
		h = middleware.RequestLogger(opts.Logger)(h)
	}

	// Request ID (always applied)
	h = middleware.RequestID(h)

	// CORS (always applied)
	h = middleware.CORS(h)

	return h
}

// registerAdminRoutes adds all admin API routes to the router.
func registerAdminRoutes(mux *http.ServeMux, repo *handler.Repo, opts *RouterOptions) {
	// Create admin auth middleware using stored password hash
	adminAuth := auth.AdminAuth(opts.Storage)

	// Helper to wrap handler with admin auth
	withAuth := func(h http.HandlerFunc) http.Handler {
		return adminAuth(h)
	}

	// Key provisioning
	mux.Handle("POST /api/admin/keys", withAuth(repo.Admin.CreateKey))
	mux.Handle("GET /api/admin/keys", withAuth(repo.Admin.ListKeys))
	mux.Handle("PUT /api/admin/keys/{keyId}", withAuth(repo.Admin.UpdateKey))

	// Usage reporting
	mux.Handle("GET /api/admin/usage/{userId}", withAuth(repo.Admin.GetUserUsage))
}
