package main

import (
	"fmt"

	"github.com/tokengate/tokengate/internal/storage"
	"github.com/tokengate/tokengate/internal/transport/http/handler/shared"
)

// ensureAdminPassword seeds the admin credential from ADMIN_PASSWORD on
// first start. The gateway runs headless, so there is no interactive
// prompt; a missing password with no stored hash is a startup error.
func ensureAdminPassword(store storage.Storage, password string) error {
	hasPassword, err := store.HasAdminPassword()
	if err != nil {
		return fmt.Errorf("failed to check admin password: %w", err)
	}

	if hasPassword {
		return nil
	}

	if password == "" {
		return fmt.Errorf("no admin password configured; set ADMIN_PASSWORD")
	}
	if !shared.IsValidAdminPassword(password) {
		return fmt.Errorf("ADMIN_PASSWORD must be alphanumeric with at least 8 characters")
	}

	hash, err := storage.HashSecret(password, nil)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := store.SetAdminPasswordHash(hash); err != nil {
		return fmt.Errorf("failed to save password: %w", err)
	}

	return nil
}
