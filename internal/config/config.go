package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/web3guy0/chainpool/internal/chains"
)

// Config holds all configuration for the service
type Config struct {
	// Mode
	Debug bool

	// Admin HTTP API
	AdminAddr string

	// Telegram ops alerts (optional; alerting disabled when token empty)
	TelegramToken  string
	TelegramChatID int64

	// RPC pool
	HealthCheckInterval  time.Duration
	MaxRequestsPerSecond int
	MaxRetries           int

	// Endpoint sources
	EndpointsFile string            // optional YAML file with the full per-chain endpoint list
	RPCOverrides  map[string]string // chain -> primary endpoint URL, from <CHAIN>_RPC_URL

	// Probe history / stats persistence. A postgres:// DSN or an SQLite path.
	DatabasePath string

	// Stats snapshot cadence for the history store
	SnapshotInterval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Debug:     getEnvBool("DEBUG", false),
		AdminAddr: getEnv("ADMIN_ADDR", ":8080"),

		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		HealthCheckInterval:  getEnvDuration("HEALTH_CHECK_INTERVAL", 120*time.Second),
		MaxRequestsPerSecond: getEnvInt("MAX_REQUESTS_PER_SECOND", 10),
		MaxRetries:           getEnvInt("RPC_MAX_RETRIES", 3),

		EndpointsFile: getEnv("ENDPOINTS_FILE", ""),
		RPCOverrides:  make(map[string]string),

		DatabasePath:     getEnv("DATABASE_PATH", "data/chainpool.db"),
		SnapshotInterval: getEnvDuration("SNAPSHOT_INTERVAL", 5*time.Minute),
	}

	// One primary-endpoint override per chain, e.g. ETHEREUM_RPC_URL
	for _, chain := range chains.All() {
		key := strings.ToUpper(chain) + "_RPC_URL"
		if url := os.Getenv(key); url != "" {
			cfg.RPCOverrides[chain] = url
		}
	}

	// Parse chat ID
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	if cfg.HealthCheckInterval < 10*time.Second {
		return nil, fmt.Errorf("HEALTH_CHECK_INTERVAL too short: %s", cfg.HealthCheckInterval)
	}
	if cfg.MaxRequestsPerSecond <= 0 {
		return nil, fmt.Errorf("MAX_REQUESTS_PER_SECOND must be positive")
	}

	return cfg, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
