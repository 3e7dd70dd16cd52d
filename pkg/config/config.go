package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config carries everything the client needs from the environment.
type Config struct {
	API      APIConfig
	Storage  StorageConfig
	Location LocationConfig
	Log      LogConfig
}

type APIConfig struct {
	// BaseURL of the backend, e.g. https://api.example.com
	BaseURL           string
	RequestsPerSecond float64
	Burst             int
}

type StorageConfig struct {
	// TokenPath is the JSON file holding the access/refresh pair.
	TokenPath string
	// SnapshotPath is the JSON file holding the last-used coordinates.
	SnapshotPath string
}

type LocationConfig struct {
	AcquireTimeout time.Duration
	PositionMaxAge time.Duration
}

type LogConfig struct {
	Level string
}

// Load builds the config from environment variables with sensible
// defaults. Only the API base URL is required.
func Load() (*Config, error) {
	base := os.Getenv("SPOTFINDER_API_BASE_URL")
	if base == "" {
		return nil, fmt.Errorf("SPOTFINDER_API_BASE_URL is required")
	}

	stateDir := os.Getenv("SPOTFINDER_STATE_DIR")
	if stateDir == "" {
		home, err := os.UserConfigDir()
		if err != nil {
			home = "."
		}
		stateDir = filepath.Join(home, "spotfinder")
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:           base,
			RequestsPerSecond: envFloat("SPOTFINDER_RATE_LIMIT_PER_SECOND", 10),
			Burst:             envInt("SPOTFINDER_RATE_LIMIT_BURST", 20),
		},
		Storage: StorageConfig{
			TokenPath:    filepath.Join(stateDir, "tokens.json"),
			SnapshotPath: filepath.Join(stateDir, "last_coords.json"),
		},
		Location: LocationConfig{
			AcquireTimeout: envDuration("SPOTFINDER_GEO_TIMEOUT", 8*time.Second),
			PositionMaxAge: envDuration("SPOTFINDER_GEO_MAX_AGE", 30*time.Second),
		},
		Log: LogConfig{
			Level: envString("SPOTFINDER_LOG_LEVEL", "info"),
		},
	}
	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
