package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fitsync-app/fitsync/internal/common"
)

// Config holds runtime settings for the FitSync client.
//
// Fields:
//   - BackendURL / BackendAnonKey: base URL and anonymous API key of the
//     managed backend (auth service + row store).
//   - PolarClientID / PolarClientSecret / PolarRedirectURI: vendor OAuth2
//     parameters for device linking.
//   - PolarAuthURL / PolarTokenURL / PolarAPIURL: vendor endpoints. Defaults
//     point at the production AccessLink service; tests override them.
//   - CachePath: local SQLite file backing the secure token cache.
//   - StorageKey: passphrase the secure cache derives its encryption key from.
//   - HTTPTimeout: per-request timeout for outbound HTTP calls.
type Config struct {
	BackendURL     string
	BackendAnonKey string

	PolarClientID     string
	PolarClientSecret string
	PolarRedirectURI  string
	PolarAuthURL      string
	PolarTokenURL     string
	PolarAPIURL       string

	CachePath   string
	StorageKey  string
	HTTPTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults. Backend and vendor
// credentials have no defaults and must come from the environment or flags.
func (c *Config) LoadDefaults() {
	c.PolarRedirectURI = "fitsync://auth/polar/callback"
	c.PolarAuthURL = "https://flow.polar.com/oauth2/authorization"
	c.PolarTokenURL = "https://polarremote.com/v2/oauth2/token"
	c.PolarAPIURL = "https://www.polaraccesslink.com/v3"
	c.CachePath = "fitsync.db"
	c.StorageKey = "fitsync-dev-storage-key"
	c.HTTPTimeout = 15 * time.Second
}

// Validate checks that every required setting is present. A missing value is
// a startup-time error, not a runtime one.
func (c *Config) Validate() error {
	var missing []string
	if c.BackendURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if c.BackendAnonKey == "" {
		missing = append(missing, "SUPABASE_ANON_KEY")
	}
	if c.PolarClientID == "" {
		missing = append(missing, "POLAR_CLIENT_ID")
	}
	if c.PolarClientSecret == "" {
		missing = append(missing, "POLAR_CLIENT_SECRET")
	}
	if c.PolarRedirectURI == "" {
		missing = append(missing, "POLAR_REDIRECT_URI")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", common.ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (optionally seeded from an env file) and command-line
// flags. Later sources take precedence over earlier ones. The returned error
// wraps common.ErrConfiguration when a required value is absent.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
