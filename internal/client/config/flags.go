package config

import (
	"flag"
	"os"
	"time"

	"github.com/ljthub/authcli/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the auth API (default from Config)
//	-d string   path to the local session database
//	-i int      token revalidation interval in seconds
//	-t int      non-remembered session lifetime in seconds
//
// Arguments are pre-filtered with flagx.FilterArgs so flags owned by other
// layers (like -config) do not trip the parse.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-i", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "base URL of the auth API")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local session database")
	revalidate := fs.Int("i", int(cfg.RevalidateInterval.Seconds()), "token revalidation interval (in seconds)")
	ttl := fs.Int("t", int(cfg.SessionTTL.Seconds()), "non-remembered session lifetime (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RevalidateInterval = time.Duration(*revalidate) * time.Second
	cfg.SessionTTL = time.Duration(*ttl) * time.Second
}
