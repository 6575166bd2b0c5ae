package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags overlays Config with command-line flags.
//
//	-a string   gRPC bind address
//	-l string   HTTP bind address
//	-d string   PostgreSQL DSN (empty: in-memory store)
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes (0 disables refresh tokens)
//	-k int      clock skew tolerance, seconds
//	-x string   hash algorithm (bcrypt, argon2id)
//	-b int      bcrypt cost
//	-w int      concurrent hashing workers
//	-f int      failed logins before lockout (0 disables)
//	-e string   Redis URL for lockout counters
//	-v string   log level
//
// Only these flags are read from os.Args, so flags meant for other parsers do
// not cause errors here.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-l", "-d", "-s", "-t", "-r", "-k", "-x", "-b", "-w", "-f", "-e", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "l", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTTL := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTTL := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")
	skew := fs.Int("k", int(config.ClockSkew.Seconds()), "clock skew tolerance (in seconds)")

	fs.StringVar(&config.HashAlgorithm, "x", config.HashAlgorithm, "password hash algorithm")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.IntVar(&config.HashWorkers, "w", config.HashWorkers, "concurrent hashing workers")
	fs.IntVar(&config.LockoutThreshold, "f", config.LockoutThreshold, "failed logins before lockout")
	fs.StringVar(&config.RedisURL, "e", config.RedisURL, "redis URL")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// durations are only overwritten when the flag is given
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTTL) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTTL) * time.Minute
		case "k":
			config.ClockSkew = time.Duration(*skew) * time.Second
		}
	})
	return nil
}
