package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr    string
	TLSCert string
	TLSKey  string

	CatalogPath  string
	CatalogDSN   string
	CatalogTable string

	SessionKey   []byte
	SessionTTL   time.Duration
	CookieSecure bool

	TolerancePolicy string
	OptionsPath     string

	RateLimit float64
	RateBurst int

	LogLevel string
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		Addr:            getenv("ADDR", ":8080"),
		TLSCert:         os.Getenv("TLS_CERT"),
		TLSKey:          os.Getenv("TLS_KEY"),
		CatalogPath:     getenv("CATALOG_PATH", "ventosas.xlsx"),
		CatalogDSN:      os.Getenv("CATALOG_DSN"),
		CatalogTable:    getenv("CATALOG_TABLE", "ventosas"),
		TolerancePolicy: getenv("TOLERANCE_POLICY", "none"),
		OptionsPath:     os.Getenv("OPTIONS_PATH"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
	}

	key := os.Getenv("SESSION_KEY")
	if key == "" {
		return Config{}, errors.New("SESSION_KEY environment variable is not set")
	}
	cfg.SessionKey = []byte(key)

	var err error
	if cfg.SessionTTL, err = time.ParseDuration(getenv("SESSION_TTL", "24h")); err != nil {
		return Config{}, fmt.Errorf("SESSION_TTL: %w", err)
	}
	if cfg.CookieSecure, err = strconv.ParseBool(getenv("COOKIE_SECURE", "false")); err != nil {
		return Config{}, fmt.Errorf("COOKIE_SECURE: %w", err)
	}
	if cfg.RateLimit, err = strconv.ParseFloat(getenv("RATE_LIMIT", "5"), 64); err != nil {
		return Config{}, fmt.Errorf("RATE_LIMIT: %w", err)
	}
	if cfg.RateBurst, err = strconv.Atoi(getenv("RATE_BURST", "10")); err != nil {
		return Config{}, fmt.Errorf("RATE_BURST: %w", err)
	}
	return cfg, nil
}

func (c Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
