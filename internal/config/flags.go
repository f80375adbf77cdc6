package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/digitalchief/clientauth/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     base URL of the authorization service
//	-i duration   status check interval ("15m" or bare seconds)
//	-t duration   per-request timeout ("10s" or bare seconds)
//	-s string     path of the encrypted state file
//
// os.Args is filtered to only the flags handled here so the CLI's own
// subcommand arguments pass through untouched.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i", "-t", "-s"})

	fs := flag.NewFlagSet("clientauth", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "authorization service base URL")
	interval := fs.String("i", "", "status check interval, e.g. 15m or seconds")
	timeout := fs.String("t", "", "request timeout, e.g. 10s or seconds")
	fs.StringVar(&cfg.StateFile, "s", cfg.StateFile, "path of the encrypted state file")

	if err := fs.Parse(args); err != nil {
		return
	}

	if d, err := parseDuration(*interval); err == nil {
		cfg.StatusInterval = d
	}
	if d, err := parseDuration(*timeout); err == nil {
		cfg.RequestTimeout = d
	}
}

// parseDuration accepts either a bare number of seconds ("900") or a Go
// duration string ("15m"), the same forms the JSON and env sources take.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}
