package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/eventportal/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, hours
//	-n int      lab system capacity
//	-k int      daily registration cutoff hour (negative disables)
//	-z string   timezone for the cutoff (IANA name)
//	-p string   roll number prefix
//	-r string   redis address for the delivery queue
//	-l string   log backend (slog|zap)
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, so the -c/-config flag handled by parseJson does not
// collide with these.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-t", "-n", "-k", "-z", "-p", "-r", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run HTTP server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run gRPC health server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Hours()), "access_token_validity_duration (in hours)")

	fs.IntVar(&config.SystemCapacity, "n", config.SystemCapacity, "lab system capacity")
	fs.IntVar(&config.CutoffHour, "k", config.CutoffHour, "registration cutoff hour")
	fs.StringVar(&config.Timezone, "z", config.Timezone, "timezone for the cutoff hour")
	fs.StringVar(&config.RollPrefix, "p", config.RollPrefix, "roll number prefix")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.LogBackend, "l", config.LogBackend, "log backend")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only override when -t was given so sub-hour JSON/env values survive
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Hour
		}
	})
}
