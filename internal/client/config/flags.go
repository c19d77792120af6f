package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/flagx"
)

// parseFlags applies -a, -p and -t from args. Other flags are filtered out
// with flagx.FilterArgs so the config-file flag does not trip the parser.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-p", "-t"})

	fs := flag.NewFlagSet("cli", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the API server")
	fs.StringVar(&cfg.APIPrefix, "p", cfg.APIPrefix, "API route prefix")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
