// Package auth provides authentication middleware for HTTP routes.
package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/tokengate/tokengate/internal/storage"
	"github.com/tokengate/tokengate/internal/storage/models"
	"github.com/tokengate/tokengate/internal/types"
)

// IdentityContextKey is the context key for the authenticated caller.
type IdentityContextKey struct{}

// Identity is the authenticated caller: the WordPress user the request is
// made on behalf of, plus the allocation its key resolved to.
type Identity struct {
	WPUserID   int64
	Allocation *models.Allocation
}

// CachedAllocation holds a validated allocation for caching.
type CachedAllocation struct {
	Allocation *models.Allocation
	ValidUntil time.Time
}

// APIKeyAuth authenticates requests using gateway API keys. The caller
// identifies as a WordPress user via X-WP-User-ID and presents the key in
// X-API-Key (or the api_key query parameter as a fallback). Only keys
// starting with "tg_" are accepted, and the key must belong to that user.
func APIKeyAuth(store storage.Storage, cache *ristretto.Cache[string, *CachedAllocation]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Resolve the user the request is on behalf of
			rawUserID := r.Header.Get("X-WP-User-ID")
			if rawUserID == "" {
				types.WriteError(w, types.ErrAuthentication("X-WP-User-ID header required"))
				return
			}
			wpUserID, err := strconv.ParseInt(rawUserID, 10, 64)
			if err != nil || wpUserID <= 0 {
				types.WriteError(w, types.ErrAuthentication("Invalid X-WP-User-ID header"))
				return
			}

			// Once the user is known, every rejection names them
			unauthorized := func(message string) {
				ge := types.ErrAuthentication(message)
				ge.WPUserID = strconv.FormatInt(wpUserID, 10)
				types.WriteError(w, ge)
			}

			// 2. Extract the key: header first, query fallback
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				apiKey = r.URL.Query().Get("api_key")
			}
			if apiKey == "" {
				unauthorized("API key required")
				return
			}
			if !strings.HasPrefix(apiKey, storage.APIKeyPrefix) {
				unauthorized("Invalid API key")
				return
			}

			alloc := resolveAllocation(store, cache, apiKey)
			if alloc == nil || !alloc.IsActive || alloc.WPUserID != wpUserID {
				unauthorized("Invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), IdentityContextKey{},
				&Identity{WPUserID: wpUserID, Allocation: alloc})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveAllocation finds the allocation matching a presented key, checking
// the cache before falling back to a prefix lookup and hash verification.
func resolveAllocation(store storage.Storage, cache *ristretto.Cache[string, *CachedAllocation], apiKey string) *models.Allocation {
	prefix := storage.ExtractKeyPrefix(apiKey)
	cacheKey := "apikey:" + prefix

	if cache != nil {
		if cached, found := cache.Get(cacheKey); found {
			if time.Now().Before(cached.ValidUntil) {
				valid, _ := storage.VerifySecret(apiKey, cached.Allocation.KeyHash)
				if valid {
					return cached.Allocation
				}
			}
		}
	}

	allocs, err := store.GetAllocationsByPrefix(prefix)
	if err != nil || len(allocs) == 0 {
		return nil
	}

	// Prefixes can collide; verify the hash against each candidate.
	var match *models.Allocation
	for _, a := range allocs {
		valid, _ := storage.VerifySecret(apiKey, a.KeyHash)
		if valid {
			match = a
			break
		}
	}
	if match == nil {
		return nil
	}

	if cache != nil {
		cache.Set(cacheKey, &CachedAllocation{
			Allocation: match,
			ValidUntil: time.Now().Add(5 * time.Minute),
		}, 1)
	}
	return match
}

// GetIdentity retrieves the authenticated identity from context.
func GetIdentity(ctx context.Context) *Identity {
	if id, ok := ctx.Value(IdentityContextKey{}).(*Identity); ok {
		return id
	}
	return nil
}
