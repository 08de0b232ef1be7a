package config

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/scribe/internal/errors"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Environment variables that override file configuration.
const (
	EnvAdminEmail = "ADMIN_EMAIL"
	EnvBackend    = "SCRIBE_BACKEND"
)

// Config holds application configuration.
type Config struct {
	// AdminEmail is the single identity allowed to create, update and delete posts.
	// Required; ADMIN_EMAIL overrides the file value.
	AdminEmail string `json:"admin_email"`

	// Backend selects the post store: "sqlite" (default) or "bolt".
	Backend string `json:"backend,omitempty"`

	// UserHeader is the trusted request header carrying the authenticated user's email,
	// set by the fronting auth proxy.
	UserHeader string `json:"user_header,omitempty"`

	// Bind and Port control the web server listen address.
	Bind string `json:"bind,omitempty"`
	Port int    `json:"port,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools lists MCP tool names that should not be registered.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
// AdminEmail has no default.
func DefaultConfig() *Config {
	return &Config{
		Backend:    BackendSQLite,
		UserHeader: "X-Forwarded-Email",
		Bind:       "127.0.0.1",
		Port:       8080,
	}
}

// Load loads configuration from baseDir/config.json and applies environment overrides.
// Returns default config (plus env) if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.scribe.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return ApplyEnv(cfg, os.Getenv), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// ApplyEnv returns a copy of cfg with non-empty environment values applied.
func ApplyEnv(cfg *Config, getenv func(string) string) *Config {
	result := *cfg
	if v := strings.TrimSpace(getenv(EnvAdminEmail)); v != "" {
		result.AdminEmail = v
	}
	if v := strings.TrimSpace(getenv(EnvBackend)); v != "" {
		result.Backend = v
	}
	return &result
}

// Merge combines base and overlay configs.
// Overlay values take precedence when non-zero.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.AdminEmail = pickString(overlay.AdminEmail, base.AdminEmail)
	result.Backend = pickString(overlay.Backend, base.Backend)
	result.UserHeader = pickString(overlay.UserHeader, base.UserHeader)
	result.Bind = pickString(overlay.Bind, base.Bind)

	result.Port = overlay.Port
	if result.Port == 0 {
		result.Port = base.Port
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.DisabledTools = overlay.DisabledTools
	if result.DisabledTools == nil {
		result.DisabledTools = base.DisabledTools
	}

	return result
}

// Validate checks the settings the process cannot run without.
// A missing admin email is a CONFIGURATION error: the server must refuse to start.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AdminEmail) == "" {
		return errors.NewConfiguration("admin email is required (set ADMIN_EMAIL or admin_email in config.json)")
	}
	switch c.Backend {
	case BackendSQLite, BackendBolt:
	default:
		return errors.NewConfiguration("backend must be one of: sqlite, bolt")
	}
	if strings.TrimSpace(c.UserHeader) == "" {
		return errors.NewConfiguration("user_header must not be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return errors.NewConfiguration("port must be between 0 and 65535")
	}
	return nil
}

func pickString(overlay, base string) string {
	if s := strings.TrimSpace(overlay); s != "" {
		return s
	}
	return base
}
