package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/fitsync-app/fitsync/internal/flagx"
)

// parseEnv overlays Config with values from the process environment.
//
// If an env file was named via -e/-envfile it is loaded first (without
// overriding variables already present in the environment), mirroring how
// the mobile build injected the same variables at bundle time.
func parseEnv(cfg *Config) {
	if envFile := flagx.EnvFileFlags(); envFile != "" {
		// Missing file is not fatal: the environment may already be complete.
		_ = godotenv.Load(envFile)
	}

	setIfPresent(&cfg.BackendURL, "SUPABASE_URL")
	setIfPresent(&cfg.BackendAnonKey, "SUPABASE_ANON_KEY")
	setIfPresent(&cfg.PolarClientID, "POLAR_CLIENT_ID")
	setIfPresent(&cfg.PolarClientSecret, "POLAR_CLIENT_SECRET")
	setIfPresent(&cfg.PolarRedirectURI, "POLAR_REDIRECT_URI")
	setIfPresent(&cfg.PolarAuthURL, "POLAR_AUTH_URL")
	setIfPresent(&cfg.PolarTokenURL, "POLAR_TOKEN_URL")
	setIfPresent(&cfg.PolarAPIURL, "POLAR_API_URL")
	setIfPresent(&cfg.CachePath, "FITSYNC_CACHE_PATH")
	setIfPresent(&cfg.StorageKey, "FITSYNC_STORAGE_KEY")

	if v := os.Getenv("FITSYNC_HTTP_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.HTTPTimeout = time.Duration(secs) * time.Second
		}
	}
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
