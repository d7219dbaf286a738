// Package config reads service configuration from the environment.
// Every knob has a default suitable for local development except the
// token signing secret, which must be provided.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr string
	GRPCAddr   string

	PGDSN        string
	PGMaxConns   int
	PGIdleConns  int
	PGConnMaxAge time.Duration

	TokenSecret string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration

	CacheBackend    string
	SessionTTL      time.Duration
	CacheMaxEntries int

	RedisAddr     string
	RedisDB       int
	RedisPassword string
	RedisPrefix   string
	RedisPoolSize int
}

// FromEnv builds a Config from CLASSHUB_* variables.
func FromEnv() Config {
	return Config{
		ListenAddr: getenv("CLASSHUB_LISTEN_ADDR", ":8080"),
		GRPCAddr:   getenv("CLASSHUB_GRPC_ADDR", ":9090"),

		PGDSN:        os.Getenv("CLASSHUB_PG_DSN"),
		PGMaxConns:   getint("CLASSHUB_PG_MAX_CONNS", 10),
		PGIdleConns:  getint("CLASSHUB_PG_IDLE_CONNS", 10),
		PGConnMaxAge: getdur("CLASSHUB_PG_CONN_MAX_AGE", 30*time.Minute),

		TokenSecret: os.Getenv("CLASSHUB_TOKEN_SECRET"),
		AccessTTL:   getdur("CLASSHUB_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:  getdur("CLASSHUB_REFRESH_TTL", 7*24*time.Hour),

		CacheBackend:    getenv("CLASSHUB_CACHE_BACKEND", "memory"),
		SessionTTL:      getdur("CLASSHUB_SESSION_TTL", 10*time.Minute),
		CacheMaxEntries: getint("CLASSHUB_CACHE_MAX_ENTRIES", 10000),

		RedisAddr:     getenv("CLASSHUB_REDIS_ADDR", "localhost:6379"),
		RedisDB:       getint("CLASSHUB_REDIS_DB", 0),
		RedisPassword: os.Getenv("CLASSHUB_REDIS_PASSWORD"),
		RedisPrefix:   getenv("CLASSHUB_REDIS_PREFIX", "classhub:"),
		RedisPoolSize: getint("CLASSHUB_REDIS_POOL_SIZE", 10),
	}
}

// Validate checks the settings that have no workable default.
func (c Config) Validate() error {
	if c.TokenSecret == "" {
		return errors.New("config: CLASSHUB_TOKEN_SECRET is required")
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getdur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
