// Package config loads client and CLI settings from environment variables,
// with optional .env file support.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the client and the admin CLI need.
type Config struct {
	// URL is the PocketBase base URL. POCKETBASE_URL wins; the frontend's
	// VITE_POCKETBASE_URL is honored as a fallback so one .env serves both.
	URL string

	// Admin credentials for the collection-management commands. Optional;
	// the CLI prompts interactively when they are missing.
	AdminEmail    string
	AdminPassword string

	// Reviewer credentials (a regular user account) for the moderation
	// commands. Optional; the CLI prompts when missing.
	ReviewerEmail    string
	ReviewerPassword string

	HTTPTimeout time.Duration
	Debug       bool
}

// Load reads configuration from the environment, preceded by a best-effort
// .env load.
func Load() (*Config, error) {
	_ = godotenv.Load()

	url := getEnv("POCKETBASE_URL", "")
	if url == "" {
		url = getEnv("VITE_POCKETBASE_URL", "http://127.0.0.1:8090")
	}

	cfg := &Config{
		URL:              url,
		AdminEmail:       getEnv("POCKETBASE_ADMIN_EMAIL", ""),
		AdminPassword:    getEnv("POCKETBASE_ADMIN_PASSWORD", ""),
		ReviewerEmail:    getEnv("LEPAK_REVIEWER_EMAIL", ""),
		ReviewerPassword: getEnv("LEPAK_REVIEWER_PASSWORD", ""),
		HTTPTimeout:      time.Duration(getEnvInt("LEPAK_HTTP_TIMEOUT_SEC", 30)) * time.Second,
		Debug:            getEnvBool("LEPAK_DEBUG", false),
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
