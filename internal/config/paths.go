package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the path to the Tokengate data directory.
// - Windows: %APPDATA%\tokengate
// - Other OS: ~/.tokengate
func DataDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "tokengate")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".tokengate"
	}
	return filepath.Join(home, ".tokengate")
}

// DBPath returns the path to the SQLite database file.
func DBPath() string {
	return filepath.Join(DataDir(), "tokengate.db")
}

// LedgerDir returns the default directory for per-user usage logs.
func LedgerDir() string {
	return filepath.Join(DataDir(), "api_logs")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}
