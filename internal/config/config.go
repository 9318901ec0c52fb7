// Package config provides configuration management for the key-value store.
// It loads settings from YAML files and environment variables, with
// thread-safe singleton access.
package config

import (
	"log/slog"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config holds all application configuration values.
type Config struct {
	DATA_DIR          string `yaml:"DATA_DIR"`          // Directory where store files are kept
	ADDR              string `yaml:"ADDR"`               // Default listen/connect address, host:port
	ENGINE            string `yaml:"ENGINE"`             // Storage engine to use: "kvs" or "bolt"
	COMPACT_THRESHOLD uint64 `yaml:"COMPACT_THRESHOLD"` // Uncompacted record count that triggers compaction
	POOL_SIZE         uint32 `yaml:"POOL_SIZE"`          // Worker count for the server's connection pool
}

const configPath = "internal/config/config.yml"

var (
	appConfig *Config
	once      sync.Once
	initErr   error
)

// Default returns the built-in defaults used when no config file is
// present, e.g. under go test or a fresh checkout.
func Default() *Config {
	return &Config{
		DATA_DIR:          "db",
		ADDR:              "127.0.0.1:4000",
		ENGINE:            "kvs",
		COMPACT_THRESHOLD: 512,
		POOL_SIZE:         4,
	}
}

// LoadConfig reads configuration values from config.yml and optionally from .env file.
// It uses a sync.Once to ensure configuration is loaded only once, even with
// concurrent calls. Environment variables in the YAML file are expanded using
// os.ExpandEnv. Falls back to Default() if no config.yml is present. Returns
// the loaded configuration and any error encountered.
func LoadConfig() (*Config, error) {
	once.Do(func() {
		// Load .env file if it exists (optional - no error if missing)
		if err := godotenv.Load(); err != nil {
			slog.Debug("config: no .env file found or error loading it", "error", err)
		} else {
			slog.Debug("config: .env file loaded successfully")
		}

		file, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				slog.Debug("config: no config.yml found, using defaults")
				appConfig = Default()
				return
			}
			initErr = err
			return
		}

		cfg := Default()
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(file))), cfg); err != nil {
			initErr = err
			return
		}
		appConfig = cfg
	})
	if initErr != nil {
		return nil, initErr
	}
	return appConfig, initErr
}

// GetConfig returns the singleton configuration instance.
// Panics if configuration has not been loaded yet. This function should
// only be called after LoadConfig has been successfully called.
func GetConfig() *Config {
	if appConfig == nil {
		panic("config not loaded - call LoadConfig() first")
	}
	return appConfig
}
