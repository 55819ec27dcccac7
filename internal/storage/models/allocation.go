// Package models defines the persistent data model for API key
// allocations.
package models

import "time"

// Allocation is the token budget granted to one API key for its
// accounting period. Rows are created through the provisioning API; the
// usage recorder only ever increments TokensUsed.
type Allocation struct {
	ID                   string     `json:"id"`
	KeyPrefix            string     `json:"key_prefix"`
	KeyHash              string     `json:"-"` // argon2id encoded hash, never serialized
	WPUserID             int64      `json:"wp_user_id"`
	TotalTokensAllocated int64      `json:"total_tokens_allocated"`
	TokensUsed           int64      `json:"tokens_used"`
	IsActive             bool       `json:"is_active"`
	LastSyncWithWP       *time.Time `json:"last_sync_with_wp,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
