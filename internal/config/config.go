// Package config provides configuration for the chatbot server.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server configuration.
type Config struct {
	// Server settings
	HTTPPort int
	LogLevel string

	// Storage
	DBDriver    string // "sqlite" or "postgres"
	DatabaseURL string
	RedisURL    string // optional history cache; empty disables it

	// Completion / embedding endpoint
	OpenAIBaseURL string
	OpenAIAPIKey  string
	ChatModel     string
	EmbedModel    string
	LLMTimeout    time.Duration

	// Search index
	SearchEndpoint string
	SearchAPIKey   string
	SearchIndex    string
	SearchTimeout  time.Duration

	// Conversation budget
	MaxTokens         int
	CompressThreshold float64
	Temperature       float64

	// Retention window after compression. The system prompt plus the first
	// exchange survive every compression; the tail is the most recent
	// exchanges.
	RetainHead      int
	RetainTail      int
	RetainCap       int
	ShortRetainTail int

	// Retrieval
	RetrievalK     int
	RetrievalTop   int
	NeighborWindow int

	// Grounding mode: "rag" retrieves on every user turn, "tools" lets the
	// model decide via function calling.
	GroundingMode string

	// System prompt override; empty keeps the built-in default.
	SystemPrompt string
}

// Load loads configuration from the environment, reading a .env file first
// if one is present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPPort: getEnvInt("HTTP_PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		DatabaseURL: getEnv("DATABASE_URL", "file:dealerchat.db?cache=shared&mode=rwc"),
		RedisURL:    getEnv("REDIS_URL", ""),

		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		ChatModel:     getEnv("CHAT_MODEL", "gpt-4o-mini"),
		EmbedModel:    getEnv("EMBED_MODEL", "text-embedding-3-small"),
		LLMTimeout:    time.Duration(getEnvInt("LLM_TIMEOUT_MS", 120000)) * time.Millisecond,

		SearchEndpoint: getEnv("SEARCH_ENDPOINT", ""),
		SearchAPIKey:   getEnv("SEARCH_API_KEY", ""),
		SearchIndex:    getEnv("SEARCH_INDEX", "vehicles"),
		SearchTimeout:  time.Duration(getEnvInt("SEARCH_TIMEOUT_MS", 15000)) * time.Millisecond,

		MaxTokens:         getEnvInt("MAX_TOKENS", 3000),
		CompressThreshold: getEnvFloat("COMPRESS_THRESHOLD", 0.8),
		Temperature:       getEnvFloat("TEMPERATURE", 0.75),

		RetainHead:      getEnvInt("RETAIN_HEAD", 2),
		RetainTail:      getEnvInt("RETAIN_TAIL", 7),
		RetainCap:       getEnvInt("RETAIN_CAP", 10),
		ShortRetainTail: getEnvInt("SHORT_RETAIN_TAIL", 2),

		RetrievalK:     getEnvInt("RETRIEVAL_K", 5),
		RetrievalTop:   getEnvInt("RETRIEVAL_TOP", 5),
		NeighborWindow: getEnvInt("NEIGHBOR_WINDOW", 1),

		GroundingMode: getEnv("GROUNDING_MODE", "rag"),
		SystemPrompt:  getEnv("SYSTEM_PROMPT", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
