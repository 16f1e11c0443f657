// Package config reads the service settings from the environment.
package config

import (
	"os"
	"path/filepath"

	"github.com/piwi3910/DrapeCalc/internal/logger"
)

const (
	defaultPort      = "8080"
	defaultDBName    = "quotes.db"
	defaultLogFormat = "text"
)

// Config holds the process-level settings. Workroom defaults (currency,
// hem allowance, markup tiers) live in the data directory, not here.
type Config struct {
	Port      string
	DataDir   string // Empty means ~/.drapecalc
	DBPath    string // Empty means <DataDir>/quotes.db
	LogLevel  logger.LogLevel
	LogFormat string
}

// Load reads .env (when present) and then the environment.
func Load() Config {
	_ = loadDotEnv(".env")
	return fromEnv()
}

func fromEnv() Config {
	cfg := Config{
		Port:      os.Getenv("PORT"),
		DataDir:   os.Getenv("DATA_DIR"),
		DBPath:    os.Getenv("DB_PATH"),
		LogLevel:  logger.ParseLevel(os.Getenv("LOG_LEVEL")),
		LogFormat: os.Getenv("LOG_FORMAT"),
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.LogFormat != "json" {
		cfg.LogFormat = defaultLogFormat
	}
	return cfg
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// ResolveDBPath returns DBPath, or the default database inside dataDir.
func (c Config) ResolveDBPath(dataDir string) string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(dataDir, defaultDBName)
}

// Logger returns the logger settings for this config.
func (c Config) Logger() logger.Config {
	return logger.Config{
		Level:     c.LogLevel,
		Format:    c.LogFormat,
		Output:    "stdout",
		Component: "drapecalc",
	}
}
