package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseDBURL   string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string
	TablePrefix     string
	LogLevel        string

	// Auth
	AuthDisabled bool   // Local development only: every request runs as DevUserID
	DevUserID    string

	// Storage
	StorageDriver string // "postgres" or "sqlite"
	SQLitePath    string

	// LLM Configuration
	AnthropicAPIKey  string
	GeminiAPIKey     string
	OpenRouterAPIKey string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	TextProvider     string
	TextModel        string
	VisionProvider   string
	VisionModel      string
	TextTimeout      time.Duration
	VisionTimeout    time.Duration
	LLMMaxConcurrent int
	LLMRatePerSecond float64
	OutputLanguage   string

	// Decomposition
	MaxDepth        int
	RetryAttempts   int
	RetryBaseDelay  time.Duration
	CardConcurrency int
	WorkspaceTTL    time.Duration

	// Image search
	PexelsAPIKey string
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	supabaseURL := getEnv("SUPABASE_URL", "")

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		SupabaseURL:     supabaseURL,
		SupabaseDBURL:   getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL: supabaseURL + "/auth/v1/.well-known/jwks.json",
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:     getTablePrefix(env),
		LogLevel:        getEnv("LOG_LEVEL", getDefaultLogLevel(env)),

		AuthDisabled: env == "dev" && getEnv("AUTH_DISABLED", "false") == "true",
		DevUserID:    getEnv("DEV_USER_ID", "00000000-0000-0000-0000-000000000001"),

		StorageDriver: getEnv("STORAGE_DRIVER", "postgres"),
		SQLitePath:    getEnv("SQLITE_PATH", "breakdown.db"),

		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		TextProvider:     getEnv("LLM_TEXT_PROVIDER", "anthropic"),
		TextModel:        getEnv("LLM_TEXT_MODEL", "claude-haiku-4-5-20251001"),
		VisionProvider:   getEnv("LLM_VISION_PROVIDER", "anthropic"),
		VisionModel:      getEnv("LLM_VISION_MODEL", "claude-haiku-4-5-20251001"),
		TextTimeout:      getEnvDuration("LLM_TEXT_TIMEOUT", 90*time.Second),
		VisionTimeout:    getEnvDuration("LLM_VISION_TIMEOUT", 120*time.Second),
		LLMMaxConcurrent: getEnvInt("LLM_MAX_CONCURRENT", 8),
		LLMRatePerSecond: getEnvFloat("LLM_RATE_PER_SECOND", 5),
		OutputLanguage:   getEnv("OUTPUT_LANGUAGE", "Chinese"),

		MaxDepth:        getEnvInt("MAX_DEPTH", DefaultMaxDepth),
		RetryAttempts:   getEnvInt("RETRY_ATTEMPTS", 3),
		RetryBaseDelay:  getEnvDuration("RETRY_BASE_DELAY", time.Second),
		CardConcurrency: getEnvInt("CARD_CONCURRENCY", 4),
		WorkspaceTTL:    getEnvDuration("WORKSPACE_TTL", 2*time.Hour),

		PexelsAPIKey: getEnv("PEXELS_API_KEY", ""),
	}
}

func getDefaultLogLevel(env string) string {
	if env == "prod" {
		return "info"
	}
	return "debug"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("90s") or bare seconds ("90").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}
