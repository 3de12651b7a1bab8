package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Bridge   BridgeConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
	YouTube  YouTubeConfig
	Cache    CacheTimingConfig
	Logging  LoggingConfig
}

type BridgeConfig struct {
	WSURL             string
	ReconnectAttempts int
	ReconnectDelay    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type GeminiConfig struct {
	APIKey string
}

type OpenAIConfig struct {
	APIKey         string
	EnableFallback bool
}

type YouTubeConfig struct {
	APIKey string
}

// CacheTimingConfig bounds the search cache state machine: how long a pending
// claim is honored and how long a resolved verdict stays fresh.
type CacheTimingConfig struct {
	PendingTimeout time.Duration
	ResolvedTTL    time.Duration
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Bridge: BridgeConfig{
			WSURL:             getEnv("BRIDGE_WS_URL", "ws://localhost:7321/ws"),
			ReconnectAttempts: getEnvInt("BRIDGE_RECONNECT_ATTEMPTS", 5),
			ReconnectDelay:    time.Duration(getEnvInt("BRIDGE_RECONNECT_DELAY_SECONDS", 5)) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "trackwarden"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "trackwarden"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
		},
		YouTube: YouTubeConfig{
			APIKey: getEnv("YOUTUBE_API_KEY", ""),
		},
		Cache: CacheTimingConfig{
			PendingTimeout: time.Duration(getEnvInt("SEARCH_PENDING_TIMEOUT_SECONDS", 60)) * time.Second,
			ResolvedTTL:    time.Duration(getEnvInt("SEARCH_RESOLVED_TTL_HOURS", 24)) * time.Hour,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", "logs/warden.log"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Bridge.WSURL == "" {
		return fmt.Errorf("BRIDGE_WS_URL is required")
	}
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Cache.PendingTimeout <= 0 {
		return fmt.Errorf("SEARCH_PENDING_TIMEOUT_SECONDS must be positive")
	}
	if c.Cache.ResolvedTTL <= 0 {
		return fmt.Errorf("SEARCH_RESOLVED_TTL_HOURS must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
