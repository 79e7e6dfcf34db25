/*
Package config handles loading and validating application configuration
from environment variables. Connectivity- and security-critical values
(REDIS_URL, DATABASE_URL, DOCKER_HOST, DOCKER_COMPOSE_NETWORK,
AUTH_JWT_SECRET) have no default: the process fails fast at startup if
any of them is missing, rather than silently booting against the wrong
backend. Everything else has a sensible default for local development.
*/
package config

import (
	"log"
	"log/slog"      // slog = structured log. used for json logging in this app
	"os"            // used .Getenv calls and write logs to stdout.
	"path/filepath" // used to extract file base name form absolute path in logging.
	"strconv"

	"github.com/joho/godotenv"
)

// AppConfig struct holds all configuration values for the application.
// values are read once at startup and passed through the app via dependency injection.
// no global config variable is used. callers receive a *AppConfig explicitly,
// making dependencies visible and the code easier to test.
type AppConfig struct {
	// ServerHost is the interface the HTTP server binds to.
	ServerHost string

	// ServerPort is the TCP port the HTTP server listens on.
	ServerPort string

	// RedisURL is the connection string for the instance cache backend.
	RedisURL string

	// DatabaseURL is the Postgres DSN for the function catalog.
	DatabaseURL string

	// DockerHost is the Docker daemon socket/address, e.g.
	// unix:///var/run/docker.sock or tcp://docker:2375.
	DockerHost string

	// ComposeNetwork is the Docker network every function container and
	// this control plane itself must share so containers are reachable
	// from the request proxy by container name.
	ComposeNetwork string

	// JWTSecret signs and verifies bearer tokens issued at register/login.
	JWTSecret string

	// DefaultRuntime is used when a bundle's config.json omits "runtime".
	DefaultRuntime string

	// MaxFunctionSize bounds the size, in bytes, of an uploaded bundle.
	MaxFunctionSize int64

	// LogFormat controls the output format of slog (logging library)
	// accepted values: "text" (default) | "json"
	// set to "text" during local development for readable terminal output
	LogFormat string
}

// NewLogger constructs a *slog.Logger based on the LogFormat field of the config.
// "text" produces human-readable output for local development
// any other value (including "json") produces structured JSON output for production
// and Docker log shipping.
// *AppConfig is a pointer receiver rather than a value receiver cuz copying AppConfig struct unnecessary
// returning a pointer *slog.Logger rather than value is standard for complex objects
// like loggers, database connections, or servers. It forces things to use the same logger instance.
func (config *AppConfig) NewLogger() *slog.Logger {
	var handler slog.Handler // declaration of slog.Handler interface variable to hold the chosen log handler

	options := &slog.HandlerOptions{
		// AddSource adds the file name and line number to each log record
		// useful during development to trace log origins.
		AddSource: true, // this returns the absolute file path which is too long and eyesore
		Level:     slog.LevelInfo,

		ReplaceAttr: func(groups []string, attribute slog.Attr) slog.Attr {
			// Check if the current attribute is the "source" (file path/line info)
			if attribute.Key == slog.SourceKey {
				source := attribute.Value.Any().(*slog.Source)
				// This takes the file's absolute path and just returns the filename
				source.File = filepath.Base(source.File)
			}
			return attribute
		},
	}

	if config.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, options) // text for local dev
	} else {
		handler = slog.NewJSONHandler(os.Stdout, options) // json for prod
	}

	// returns new logger with chosen handler
	return slog.New(handler)
}

// LoadAppConfig reads configuration from environment variables and
// returns a populated AppConfig struct. Required variables that are
// missing cause an immediate log.Fatalf: a FaaS control plane with no
// reachable cache, catalog, container daemon, or signing secret cannot
// serve a single request correctly, so there is no value in limping
// along with a zero-value default for any of them.
func LoadAppConfig() *AppConfig {
	// .env is optional: in production, the environment is populated by the
	// orchestrator (systemd, Docker, Kubernetes) and no file is present.
	// godotenv.Load never overrides a variable that is already set, so a
	// real environment always wins over a stale .env left on disk.
	_ = godotenv.Load()

	port := getEnv("SERVER_PORT", "3000")
	if _, err := strconv.Atoi(port); err != nil {
		log.Fatalf("invalid SERVER_PORT %q: must be numeric", port)
	}

	maxSizeStr := getEnv("MAX_FUNCTION_SIZE", "10485760")
	maxSize, err := strconv.ParseInt(maxSizeStr, 10, 64)
	if err != nil || maxSize <= 0 {
		log.Fatalf("invalid MAX_FUNCTION_SIZE %q: must be a positive integer", maxSizeStr)
	}

	return &AppConfig{
		ServerHost:      getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:      port,
		RedisURL:        requireEnv("REDIS_URL"),
		DatabaseURL:     requireEnv("DATABASE_URL"),
		DockerHost:      requireEnv("DOCKER_HOST"),
		ComposeNetwork:  requireEnv("DOCKER_COMPOSE_NETWORK"),
		JWTSecret:       requireEnv("AUTH_JWT_SECRET"),
		DefaultRuntime:  getEnv("DEFAULT_RUNTIME", "go"),
		MaxFunctionSize: maxSize,
		LogFormat:       getEnv("LOG_FORMAT", "text"),
	}
}

// getEnv retrieves the value of an environment variable by key.
// if the variable is not set or is empty, the provided fallback value is returned.
// this avoids scattered os.Getenv calls with inline fallback logic throughout the codebase.
func getEnv(key, fallbackValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallbackValue
}

// requireEnv is like getEnv but has no fallback: an unset or empty
// value here means the process cannot do its job, so it fails fast
// with a log line naming the offending variable rather than booting
// into a broken state.
func requireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("missing required environment variable: %s", key)
	}
	return value
}
