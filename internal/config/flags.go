package config

import (
	"flag"
	"os"
	"time"

	"github.com/fitsync-app/fitsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-b string   backend base URL
//	-k string   backend anonymous key
//	-i string   vendor OAuth client id
//	-s string   vendor OAuth client secret
//	-r string   vendor OAuth redirect URI
//	-p string   local cache path
//	-t int      HTTP timeout in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-b", "-k", "-i", "-s", "-r", "-p", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendURL, "b", cfg.BackendURL, "backend base URL")
	fs.StringVar(&cfg.BackendAnonKey, "k", cfg.BackendAnonKey, "backend anonymous key")
	fs.StringVar(&cfg.PolarClientID, "i", cfg.PolarClientID, "vendor OAuth client id")
	fs.StringVar(&cfg.PolarClientSecret, "s", cfg.PolarClientSecret, "vendor OAuth client secret")
	fs.StringVar(&cfg.PolarRedirectURI, "r", cfg.PolarRedirectURI, "vendor OAuth redirect URI")
	fs.StringVar(&cfg.CachePath, "p", cfg.CachePath, "local cache path")
	httpTimeout := fs.Int("t", int(cfg.HTTPTimeout.Seconds()), "HTTP timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.HTTPTimeout = time.Duration(*httpTimeout) * time.Second
}
