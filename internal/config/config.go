// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/evcraddock/frontdesk/internal/db"
	"github.com/evcraddock/frontdesk/internal/notify"
	"github.com/evcraddock/frontdesk/internal/sweep"
)

// Prefix is prepended to every environment variable name.
const Prefix = "FRONTDESK_"

// Config holds server configuration.
type Config struct {
	Port        int
	DBDriver    db.Dialect
	DBPath      string // SQLite file
	DatabaseURL string // Postgres DSN
	DevMode     bool

	SweepEnabled bool
	SweepAt      string // HH:MM
	Location     *time.Location

	Notify notify.Config
}

// Load reads an optional .env file, then the environment.
// A missing .env is not an error.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv creates a Config from FRONTDESK_* environment variables.
func FromEnv() (Config, error) {
	port, err := strconv.Atoi(envOrDefault("PORT", "3001"))
	if err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid %sPORT %q", Prefix, os.Getenv(Prefix+"PORT"))
	}

	driver, err := db.ParseDialect(envOrDefault("DB_DRIVER", string(db.SQLite)))
	if err != nil {
		return Config{}, err
	}

	dbPath := env("DB_PATH")
	if dbPath == "" && driver == db.SQLite {
		if dbPath, err = db.DefaultPath(); err != nil {
			return Config{}, err
		}
	}

	databaseURL := env("DATABASE_URL")
	if driver == db.Postgres && databaseURL == "" {
		return Config{}, fmt.Errorf("%sDATABASE_URL is required for the postgres driver", Prefix)
	}

	sweepAt := envOrDefault("SWEEP_AT", sweep.DefaultAt)
	if _, err := time.Parse("15:04", sweepAt); err != nil {
		return Config{}, fmt.Errorf("invalid %sSWEEP_AT %q: want HH:MM", Prefix, sweepAt)
	}

	loc := time.Local
	if tz := env("TIMEZONE"); tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			return Config{}, fmt.Errorf("invalid %sTIMEZONE: %w", Prefix, err)
		}
	}

	redisDB, err := strconv.Atoi(envOrDefault("REDIS_DB", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %sREDIS_DB: %w", Prefix, err)
	}

	return Config{
		Port:         port,
		DBDriver:     driver,
		DBPath:       dbPath,
		DatabaseURL:  databaseURL,
		DevMode:      boolEnv("DEV_MODE", false),
		SweepEnabled: boolEnv("SWEEP_ENABLED", true),
		SweepAt:      sweepAt,
		Location:     loc,
		Notify: notify.Config{
			Backend:         envOrDefault("NOTIFY_BACKEND", "log"),
			MQTTBroker:      envOrDefault("MQTT_BROKER", "tcp://localhost:1883"),
			MQTTClientID:    envOrDefault("MQTT_CLIENT_ID", "frontdesk"),
			MQTTUsername:    env("MQTT_USERNAME"),
			MQTTPassword:    env("MQTT_PASSWORD"),
			MQTTTopicPrefix: envOrDefault("MQTT_TOPIC_PREFIX", "frontdesk"),
			RedisAddr:       envOrDefault("REDIS_ADDR", "localhost:6379"),
			RedisPassword:   env("REDIS_PASSWORD"),
			RedisDB:         redisDB,
			RedisStream:     envOrDefault("REDIS_STREAM", "frontdesk:events"),
			SMTP: notify.SMTPConfig{
				Host: env("SMTP_HOST"),
				Port: envOrDefault("SMTP_PORT", "587"),
				User: env("SMTP_USER"),
				Pass: env("SMTP_PASS"),
				From: env("SMTP_FROM"),
				To:   listEnv("SMTP_TO"),
			},
		},
	}, nil
}

// DSN returns the data source for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == db.Postgres {
		return c.DatabaseURL
	}
	return c.DBPath
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(Prefix + key))
}

func envOrDefault(key, fallback string) string {
	if v := env(key); v != "" {
		return v
	}
	return fallback
}

// listEnv splits a comma-separated variable, dropping blanks.
func listEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(env(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func boolEnv(key string, fallback bool) bool {
	v, err := strconv.ParseBool(env(key))
	if err != nil {
		return fallback
	}
	return v
}
