package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file structure.
type FileConfig struct {
	ServerPort      string `toml:"server_port"`
	UpstreamBaseURL string `toml:"upstream_base_url"`
	UpstreamAPIKey  string `toml:"upstream_api_key"`
	UpstreamTimeout string `toml:"upstream_timeout"`
	DBPath          string `toml:"db_path"`
	LedgerDir       string `toml:"ledger_dir"`
	RateLimit       *int64 `toml:"rate_limit"`
	RateWindow      string `toml:"rate_window"`
	RedisURL        string `toml:"redis_url"`
	LogFile         string `toml:"log_file"`
}

// ConfigPath returns the path to the config file (~/.tokengate/config.toml).
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// LoadFile loads configuration from the TOML file.
// Returns an empty FileConfig if the file doesn't exist.
func LoadFile() (*FileConfig, error) {
	cfg := &FileConfig{}

	path := ConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnsureConfigFile creates a default config file with commented examples if none exists.
func EnsureConfigFile() error {
	path := ConfigPath()

	// If config already exists, do nothing
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	// Ensure directory exists
	if err := EnsureDataDir(); err != nil {
		return err
	}

	defaultConfig := `# Tokengate Configuration
# server_port = ":8080"

# Upstream provider
# upstream_base_url = "https://api.openai.com"
# upstream_api_key = "sk-..."
# upstream_timeout = "120s"

# Storage
# db_path = "/var/lib/tokengate/tokengate.db"
# ledger_dir = "/var/lib/tokengate/api_logs"

# Rate limiting (fixed window per user)
# rate_limit = 60
# rate_window = "1m"
# redis_url = "redis://localhost:6379/0"

# Logging
# log_file = "/var/log/tokengate/gateway.log"
`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
