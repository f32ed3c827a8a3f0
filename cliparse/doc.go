// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Flags are POSIX style (spf13/pflag): -p 8080 and --port=8080 both work.

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: SQLite path or PostgreSQL connection string (default: file:election.db)
  - DatabaseType: sqlite, postgres or memory (default: sqlite)
  - ElectionName, Administrator: used to create the election when the store is empty
  - JWTSecret, TokenTTL: bearer token signing secret and token lifetime (default: 24h)
  - RedisURL, RedisChannel: Redis PUBLISH sink for events (off when RedisURL is empty)
  - KafkaBrokers, KafkaTopic: Kafka sink for events (off when no brokers)
  - NotifyBuffer: undelivered notifications held before new ones are dropped (default: 256)
  - LogLevel, LogFormat: debug|info|warn|error and text|json

# CLI Flags and Environment Variables

	-p, --port            PORT
	-d, --database-url    DATABASE_URL
	-t, --database-type   DATABASE_TYPE
	--election-name       ELECTION_NAME
	--admin               ELECTION_ADMIN
	--jwt-secret          JWT_SECRET
	--token-ttl           TOKEN_TTL
	--redis-url           REDIS_URL
	--redis-channel       REDIS_CHANNEL
	--kafka-brokers       KAFKA_BROKERS (comma separated)
	--kafka-topic         KAFKA_TOPIC
	--notify-buffer       NOTIFY_BUFFER
	--log-level           LOG_LEVEL
	--log-format          LOG_FORMAT

CLI flags take precedence over environment variables, which take precedence
over defaults. Empty variables count as unset.

LoadEnvFile reads a .env file into the environment first. Variables that are
already set are kept and a missing file is ignored:

	_ = cliparse.LoadEnvFile(".env")

# Validation

ParseFlags returns an error when:

  - the port is outside 1-65535
  - the database type is unknown, or the URL is empty for sqlite/postgres
  - TokenTTL is not positive or NotifyBuffer is below 1
  - an environment variable cannot be parsed for its flag's type

JWTSecret is checked by the commands that sign or verify tokens.
*/
package cliparse
