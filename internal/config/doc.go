// Package config loads runtime configuration for the FitSync client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional env file (see parseEnv) selected via flags: -e or -envfile.
//  3. Process environment variables.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Required settings
//
// SUPABASE_URL, SUPABASE_ANON_KEY, POLAR_CLIENT_ID, POLAR_CLIENT_SECRET and
// POLAR_REDIRECT_URI must be present after all sources are applied; a missing
// value makes LoadConfig fail with an error wrapping common.ErrConfiguration.
//
// Primary API
//
//   - type Config                      — all client settings
//   - func LoadConfig() (*Config, error) — defaults, env file, env, flags, validate
//   - func (*Config) LoadDefaults()    — sets sensible defaults
package config
