package sqlite

import (
	"database/sql"
	"fmt"
)

// adminPasswordKey is the settings row holding the admin password hash.
const adminPasswordKey = "admin_password_hash"

// GetAdminPasswordHash returns the stored admin password hash, or empty
// string when none is configured.
func (s *Storage) GetAdminPasswordHash() (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}

	var hash string
	err := s.db.QueryRow(
		`SELECT value FROM settings WHERE key = ?`, adminPasswordKey).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read admin password: %w", err)
	}
	return hash, nil
}

// SetAdminPasswordHash stores the admin password hash.
func (s *Storage) SetAdminPasswordHash(hash string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		adminPasswordKey, hash)
	if err != nil {
		return fmt.Errorf("failed to store admin password: %w", err)
	}
	return nil
}

// HasAdminPassword reports whether an admin password is configured.
func (s *Storage) HasAdminPassword() (bool, error) {
	hash, err := s.GetAdminPasswordHash()
	if err != nil {
		return false, err
	}
	return hash != "", nil
}
