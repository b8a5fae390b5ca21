/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters by reading operating system environment variables,
including the running environment, port, CORS allowed origins, Proof-of-Work (PoW)
difficulty, and transport limits.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment   string
	Port          int
	PowDifficulty int

	// Security Settings
	AllowedOrigins []string

	// Transport Settings
	MaxMessageBytes int64
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary
// type conversions and validation.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	// Environment
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Port
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// PowDifficulty (0 disables the PoW gate on the WebSocket endpoint)
	difficultyStr := os.Getenv("POW_DIFFICULTY")
	if difficultyStr == "" {
		difficultyStr = "4"
	}
	difficulty, err := strconv.Atoi(difficultyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid POW_DIFFICULTY environment variable: %w", err)
	}
	if difficulty < 0 {
		return nil, fmt.Errorf("POW_DIFFICULTY must not be negative, got %d", difficulty)
	}
	cfg.PowDifficulty = difficulty

	// --- Security Settings ---
	// AllowedOrigins
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	// --- Transport Settings ---
	// MaxMessageBytes caps the size of a single inbound WebSocket frame.
	maxMsgStr := os.Getenv("MAX_MESSAGE_BYTES")
	if maxMsgStr == "" {
		maxMsgStr = "65536"
	}
	maxMsg, err := strconv.ParseInt(maxMsgStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_MESSAGE_BYTES environment variable: %w", err)
	}
	if maxMsg < 1024 {
		return nil, fmt.Errorf("MAX_MESSAGE_BYTES must be at least 1024, got %d", maxMsg)
	}
	cfg.MaxMessageBytes = maxMsg

	return cfg, nil
}
