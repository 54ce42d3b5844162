// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"time"
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.  The hold TTL and sweep
// interval are UX tunables, not protocol constants: long enough to
// pick out a seat map, short enough that an abandoned hold does not
// block a seat for minutes.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret string // secret used to verify operator JWTs

	HoldTTL       time.Duration // how long a seat hold survives without activity
	SweepInterval time.Duration // how often the expiry sweeper runs
	WSReadLimit   int64         // max inbound websocket frame size in bytes
	WSSendBuffer  int           // per-session outbound frame buffer
}

// Load reads configuration values from environment variables and
// returns a Config.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message;
// tunables fall back to defaults.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     must("JWT_SECRET"),
		HoldTTL:       envDur("SEAT_HOLD_TTL", 90*time.Second),
		SweepInterval: envDur("SWEEP_INTERVAL", 5*time.Second),
		WSReadLimit:   int64(envInt("WS_READ_LIMIT_BYTES", 4096)),
		WSSendBuffer:  envInt("WS_SEND_BUFFER", 64),
	}
}

// must retrieves the value of a required environment variable.  If
// the variable is unset or empty, the application logs a fatal error
// and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
