package codebuddy

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eringen/codebuddy/identity"
	"github.com/eringen/codebuddy/passcode"
)

// SiteConfig holds all configuration for a CodeBuddy site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "CodeBuddy")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Meta description

	Addr                 string `yaml:"addr"`                   // Listen address (default ":3000")
	DatabasePath         string `yaml:"database_path"`          // SQLite path (default "data/codebuddy.db")
	ProgressDatabasePath string `yaml:"progress_database_path"` // Progress SQLite path (default "data/progress.db")
	CatalogPath          string `yaml:"catalog_path"`           // Optional catalog YAML; empty uses the built-in seed

	SessionSecret string `yaml:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true for HTTPS

	CatalogCacheTTL time.Duration `yaml:"catalog_cache_ttl"` // Catalog cache TTL (default 5min)

	Google   GoogleConfig   `yaml:"google"`
	Passcode PasscodeConfig `yaml:"passcode"`
	Chat     ChatConfig     `yaml:"chat"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GoogleConfig enables Google sign-in. Without a client ID the simulated
// provider is used.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// PasscodeConfig tunes phone sign-in codes.
type PasscodeConfig struct {
	Cooldown    time.Duration `yaml:"cooldown"`
	TTL         time.Duration `yaml:"ttl"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// ChatConfig throttles the assistant endpoint per client.
type ChatConfig struct {
	PerMinute int `yaml:"per_minute"` // default 20
	Burst     int `yaml:"burst"`      // default 5
}

// LoggingConfig selects the zap logger built by the command.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default info)
	Format string `yaml:"format"` // json or console (default json)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "CodeBuddy"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Description == "" {
		c.Description = "Learn to code by fixing real bugs, building projects and following career roadmaps."
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/codebuddy.db"
	}
	if c.ProgressDatabasePath == "" {
		c.ProgressDatabasePath = "data/progress.db"
	}
	if c.CatalogCacheTTL == 0 {
		c.CatalogCacheTTL = 5 * time.Minute
	}
	if c.Chat.PerMinute <= 0 {
		c.Chat.PerMinute = 20
	}
	if c.Chat.Burst <= 0 {
		c.Chat.Burst = 5
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

func (c SiteConfig) validate() error {
	if c.SessionSecret == "" {
		return errors.New("codebuddy: SessionSecret is required")
	}
	return nil
}

func (c SiteConfig) passcodeConfig() passcode.Config {
	return passcode.Config{
		Cooldown:    c.Passcode.Cooldown,
		TTL:         c.Passcode.TTL,
		MaxAttempts: c.Passcode.MaxAttempts,
	}
}

// LoadConfig reads a YAML config file (optional when path is empty), then
// applies environment overrides and defaults.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) applyEnv() error {
	overrides := []struct {
		key string
		dst *string
	}{
		{"SITE_URL", &c.URL},
		{"SESSION_SECRET", &c.SessionSecret},
		{"DATABASE_PATH", &c.DatabasePath},
		{"PROGRESS_DATABASE_PATH", &c.ProgressDatabasePath},
		{"CATALOG_PATH", &c.CatalogPath},
		{"GOOGLE_CLIENT_ID", &c.Google.ClientID},
		{"GOOGLE_CLIENT_SECRET", &c.Google.ClientSecret},
		{"CODEBUDDY_ADDR", &c.Addr},
	}
	for _, o := range overrides {
		*o.dst = EnvOr(o.key, *o.dst)
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		c.CookieSecure = b
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithLogger sets the application logger (default no-op).
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.Logger = l
		}
	}
}

// WithIdentityProvider registers a sign-in provider. Providers are looked up
// by their Name in /auth/:provider/ routes.
func WithIdentityProvider(p identity.Provider) Option {
	return func(a *App) {
		if p != nil {
			a.Providers[p.Name()] = p
		}
	}
}

// WithPasscodeSender replaces the log-only passcode sender.
func WithPasscodeSender(s passcode.Sender) Option {
	return func(a *App) {
		a.passcodeSender = s
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
