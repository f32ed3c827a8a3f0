package cliparse

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type Config struct {
	Port          int
	DatabaseURL   string
	DatabaseType  string
	ElectionName  string
	Administrator string
	JWTSecret     string
	TokenTTL      time.Duration
	RedisURL      string
	RedisChannel  string
	KafkaBrokers  []string
	KafkaTopic    string
	NotifyBuffer  int
	LogLevel      string
	LogFormat     string
}

// envFallback maps flag names to the environment variable consulted when the
// flag is not given on the command line.
var envFallback = map[string]string{
	"port":          "PORT",
	"database-url":  "DATABASE_URL",
	"database-type": "DATABASE_TYPE",
	"election-name": "ELECTION_NAME",
	"admin":         "ELECTION_ADMIN",
	"jwt-secret":    "JWT_SECRET",
	"token-ttl":     "TOKEN_TTL",
	"redis-url":     "REDIS_URL",
	"redis-channel": "REDIS_CHANNEL",
	"kafka-brokers": "KAFKA_BROKERS",
	"kafka-topic":   "KAFKA_TOPIC",
	"notify-buffer": "NOTIFY_BUFFER",
	"log-level":     "LOG_LEVEL",
	"log-format":    "LOG_FORMAT",
}

// NewFlagSet declares every configuration flag on a fresh set bound to cfg.
func NewFlagSet(name string, cfg *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	// Network and storage
	fs.IntVarP(&cfg.Port, "port", "p", 3318, "Server port")
	fs.StringVarP(&cfg.DatabaseURL, "database-url", "d", "file:election.db", "Database URL")
	fs.StringVarP(&cfg.DatabaseType, "database-type", "t", "sqlite", "Database type (sqlite, postgres or memory)")

	// Election bootstrap, used only when the store is empty
	fs.StringVar(&cfg.ElectionName, "election-name", "Election", "Name of a newly created election")
	fs.StringVar(&cfg.Administrator, "admin", "", "Administrator principal of a newly created election")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "Bearer token signing secret (prefer env)")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", 24*time.Hour, "Lifetime of issued tokens")

	// Notifications
	fs.StringVar(&cfg.RedisURL, "redis-url", "", "Redis URL for event notifications")
	fs.StringVar(&cfg.RedisChannel, "redis-channel", "ballot-events", "Redis channel for event notifications")
	fs.StringSliceVar(&cfg.KafkaBrokers, "kafka-brokers", nil, "Kafka seed brokers for event notifications")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", "ballot-events", "Kafka topic for event notifications")
	fs.IntVar(&cfg.NotifyBuffer, "notify-buffer", 256, "Undelivered notifications held before dropping")

	// Logging
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "text", "Log format (text or json)")

	return fs
}

// ParseFlags parses args, falls back to environment variables for flags not
// given, and validates the result.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	fs := NewFlagSet("ballot", &cfg)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := ApplyEnv(fs); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv sets every flag of fs that was not given on the command line from
// its environment variable, when that variable is non-empty.
func ApplyEnv(fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		env, ok := envFallback[f.Name]
		if !ok || f.Changed {
			return
		}
		if v := os.Getenv(env); v != "" {
			if err := fs.Set(f.Name, v); err != nil {
				errs = append(errs, fmt.Errorf("invalid %s env variable: %w", env, err))
			}
		}
	})
	return errors.Join(errs...)
}

// Validate checks values that do not depend on the command being run.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.DatabaseType {
	case "sqlite", "postgres":
		if c.DatabaseURL == "" {
			return errors.New("database URL required (use -d or DATABASE_URL env)")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database type %q (want sqlite, postgres or memory)", c.DatabaseType)
	}
	if c.TokenTTL <= 0 {
		return errors.New("token TTL must be positive")
	}
	if c.NotifyBuffer < 1 {
		return errors.New("notify buffer must be at least 1")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("kafka topic required when brokers are set")
	}
	return nil
}

// LoadEnvFile loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
