package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config is the root configuration for harvest, stored in ~/.harvest/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	Harvest HarvestConfig `json:"harvest"`
	Cache   CacheConfig   `json:"cache"`
}

// HarvestConfig holds the account credentials and API client settings.
type HarvestConfig struct {
	// Account is the subdomain in https://<account>.harvestapp.com.
	Account  string `json:"account"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// Token is a personal access token sent as a bearer token instead of
	// email and password.
	Token string `json:"token"`
	// UserID is the default person for entries and report.
	UserID int64 `json:"user_id"`
	// URLTemplate overrides the API base URL; %s is replaced with Account.
	URLTemplate string `json:"url_template"`
	// StrictStatus turns non-2xx responses into errors.
	StrictStatus   bool   `json:"strict_status"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	UserAgent      string `json:"user_agent"`
}

// CacheConfig selects the cache backend for directory and project entry lookups.
type CacheConfig struct {
	// Backend is one of none, memory, file, sqlite.
	Backend string `json:"backend"`
	// Path is the cache directory (file) or database (sqlite). Empty = default.
	Path string `json:"path"`
	// Size bounds the memory backend.
	Size int `json:"size"`
}

const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	// DefaultBackend persists lookups across invocations.
	DefaultBackend = BackendSQLite
	// DefaultTimeoutSeconds matches the API client's request timeout.
	DefaultTimeoutSeconds = 60
)

// defaultConfig returns a Config pre-filled with sensible defaults.
func defaultConfig() Config {
	return Config{
		Harvest: HarvestConfig{
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Cache: CacheConfig{
			Backend: DefaultBackend,
		},
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// harvest configuration – ~/.harvest/config.json
//
// Credentials may also come from HARVEST_ACCOUNT, HARVEST_EMAIL,
// HARVEST_PASSWORD and HARVEST_TOKEN, which take precedence over this
// file. When no password is configured anywhere, harvest prompts for it
// on a terminal.
{
  // ── Harvest account ──────────────────────────────────────────────────────
  "harvest": {
    // Account subdomain, e.g. "acme" for acme.harvestapp.com.
    "account": "",
    "email": "",
    "password": "",

    // Personal access token; replaces email/password when set.
    "token": "",

    // Your Harvest person id; used when --user is omitted.
    "user_id": 0,

    // Treat non-2xx API responses as errors instead of printing the body.
    "strict_status": false,

    // Request timeout in seconds.
    "timeout_seconds": 60
  },

  // ── Lookup cache ─────────────────────────────────────────────────────────
  "cache": {
    // • "sqlite" – ~/.harvest/cache.db (default)
    // • "file"   – one JSON file per entry in ~/.harvest/cache/
    // • "memory" – per invocation only
    // • "none"   – always ask the API
    // Clear it with: harvest cache purge
    "backend": "sqlite",
    "path": ""
  }
}
`

// FilePath returns the config file path: HARVEST_CONFIG if set, otherwise
// ~/.harvest/config.json.
func FilePath() (string, error) {
	if p := os.Getenv("HARVEST_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".harvest", "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads the config file, creating it with annotated defaults on first
// run, and applies environment overrides.
func Load() (Config, error) {
	path, err := FilePath()
	if err != nil {
		return applyEnv(defaultConfig()), err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. A missing file is created from the
// annotated template.
func LoadFrom(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return applyEnv(defaultConfig()), nil
	}
	if err != nil {
		return applyEnv(defaultConfig()), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := json.Unmarshal(cleaned, &cfg); err != nil {
		return applyEnv(defaultConfig()), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	// Fill zero-value fields with built-in defaults so callers always get
	// a usable Config even if the user only partially fills in the file.
	if cfg.Harvest.TimeoutSeconds <= 0 {
		cfg.Harvest.TimeoutSeconds = DefaultTimeoutSeconds
	}
	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultBackend
	}
	switch cfg.Cache.Backend {
	case BackendNone, BackendMemory, BackendFile, BackendSQLite:
	default:
		return applyEnv(cfg), fmt.Errorf("config file %s: unknown cache backend %q", path, cfg.Cache.Backend)
	}

	return applyEnv(cfg), nil
}

// applyEnv overlays HARVEST_ACCOUNT, HARVEST_EMAIL, HARVEST_PASSWORD,
// HARVEST_TOKEN and HARVEST_CACHE (a backend name, or "0"/"false" for none).
func applyEnv(cfg Config) Config {
	if v, ok := os.LookupEnv("HARVEST_ACCOUNT"); ok && v != "" {
		cfg.Harvest.Account = v
	}
	if v, ok := os.LookupEnv("HARVEST_EMAIL"); ok && v != "" {
		cfg.Harvest.Email = v
	}
	if v, ok := os.LookupEnv("HARVEST_PASSWORD"); ok && v != "" {
		cfg.Harvest.Password = v
	}
	if v, ok := os.LookupEnv("HARVEST_TOKEN"); ok && v != "" {
		cfg.Harvest.Token = v
	}
	if v, ok := os.LookupEnv("HARVEST_CACHE"); ok && v != "" {
		switch v = strings.ToLower(v); v {
		case "0", "false":
			cfg.Cache.Backend = BackendNone
		case BackendNone, BackendMemory, BackendFile, BackendSQLite:
			cfg.Cache.Backend = v
		}
	}
	return cfg
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
