package folio

import (
	"flag"
	"fmt"
	"time"
)

// Parse parses command line arguments and returns the command to execute,
// the application configuration, and any error that occurred. Flags take
// precedence over environment variables; neither carries secret defaults.
func Parse(args []string) (Command, *Config, error) {
	flagSet := flag.NewFlagSet("folio", flag.ContinueOnError)

	var (
		port      = flagSet.String("port", "8080", "Server port")
		live      = flagSet.Bool("live", false, "Serve from live subscriptions instead of one-shot fetches")
		readOnly  = flagSet.Bool("read-only", false, "Reject all write operations")
		cachePath = flagSet.String("cache", "", "Path to the local cache database (empty disables caching)")
		cacheTTL  = flagSet.Duration("cache-ttl", 0, "Freshness window for cached snapshots")
		uploadDir = flagSet.String("upload-dir", "", "Directory for locally stored uploads")
		rateLimit = flagSet.Int("rate-limit", 60, "Public endpoint requests per minute per IP (0 disables)")

		seedPassword = flagSet.String("seed-password", "", "Admin password to provision (seed command)")
		seedSample   = flagSet.Bool("seed-sample", false, "Also insert sample projects and clients (seed command)")
	)

	if err := flagSet.Parse(args); err != nil {
		return nil, nil, err
	}

	remainingArgs := flagSet.Args()
	if len(remainingArgs) == 0 {
		return nil, nil, fmt.Errorf(`subcommand required

Usage: folio [flags] <command>

Commands:
  run       Start the portfolio server
  migrate   Initialize the singleton documents
  seed      Provision the admin credential and optional sample content

Examples:
  folio run                          # One-shot reads, no local cache
  folio -live run                    # Live subscriptions
  folio -cache folio.db run          # Cache-first reads
  folio -read-only run               # Maintenance mode
  folio migrate
  folio -seed-password s3cret seed
  folio -seed-password s3cret -seed-sample seed`)
	}

	var cmd Command
	switch remainingArgs[0] {
	case "run":
		cmd = &RunCommand{}
	case "migrate":
		cmd = &MigrateCommand{}
	case "seed":
		if *seedPassword == "" {
			return nil, nil, fmt.Errorf("seed requires -seed-password")
		}
		cmd = &SeedCommand{
			AdminPassword: *seedPassword,
			Sample:        *seedSample,
		}
	default:
		return nil, nil, fmt.Errorf("unknown command: %s\n\nValid commands: run, migrate, seed", remainingArgs[0])
	}

	config := &Config{
		ServerPort:      *port,
		Live:            *live,
		ReadOnly:        *readOnly,
		CachePath:       *cachePath,
		CacheTTL:        *cacheTTL,
		UploadDir:       *uploadDir,
		RateLimitPerMin: *rateLimit,
	}

	// Connection and identity configuration comes from the environment.
	// Credentials, the admin identity, and the signing secret deliberately
	// have no default; a blank user/pass connects unauthenticated.
	config.SurrealDBURL = getEnv("SURREALDB_URL", "ws://localhost:8000/rpc")
	config.SurrealDBNS = getEnv("SURREALDB_NS", "folio")
	config.SurrealDBDB = getEnv("SURREALDB_DB", "folio")
	config.SurrealDBUser = getEnv("SURREALDB_USER", "")
	config.SurrealDBPass = getEnv("SURREALDB_PASS", "")
	config.AdminEmail = getEnv("FOLIO_ADMIN_EMAIL", "")
	config.JWTSecret = getEnv("FOLIO_JWT_SECRET", "")
	config.CDNUploadURL = getEnv("FOLIO_CDN_UPLOAD_URL", "")
	config.CDNPreset = getEnv("FOLIO_CDN_PRESET", "")

	if ttl := getEnv("FOLIO_SESSION_TTL", ""); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid FOLIO_SESSION_TTL: %w", err)
		}
		config.SessionTTL = d
	}

	return cmd, config, nil
}
