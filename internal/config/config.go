package config

import (
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// LLM settings
	LLMProvider     string // "anthropic" or "ollama"
	ModelName       string
	AnthropicAPIKey string
	OllamaURL       string

	// Storage
	RedisURL string

	// Context builder depth: "room", "adjacent", or "full"
	ContextDetail string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LLMProvider:     getEnv("LLM_PROVIDER", "ollama"),
		ModelName:       getEnv("MODEL_NAME", "llama3"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		ContextDetail:   getEnv("CONTEXT_DETAIL", "adjacent"),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
