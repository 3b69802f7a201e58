package core

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

// Config holds all configuration values for the service.
type Config struct {
	// Concept service (OpenRouter-compatible chat completions API)
	OpenRouterAPIKey string
	OpenRouterModel  string
	OpenRouterURL    string

	// Image service (OpenAI images API)
	OpenAIAPIKey string
	ImageModel   string
	ImageSize    string
	ImageQuality string

	// Pipeline
	MaxConcurrent   int           // parallel image renders per batch
	DefaultQuantity int           // ideas per batch when the request omits a count
	MaxQuantity     int           // upper bound on ideas per batch
	AITimeout       time.Duration // per AI call
	RenderTimeout   time.Duration // per painting render, end to end

	// Persistence
	DBPath         string
	MigrationsPath string
	UploadsDir     string

	// HTTP server
	Port       int
	SessionTTL time.Duration

	// Logging
	LogFilePath string
	Development bool
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. Only the two AI keys are required; everything else has a default
// suitable for local development.
func LoadConfig() (*Config, error) {
	// Both AI surfaces need credentials up front. Failing at startup beats
	// failing on the first batch.
	requiredVars := []string{
		"OPENROUTER_API_KEY",
		"OPENAI_API_KEY",
	}

	var missingVars []string
	for _, v := range requiredVars {
		if os.Getenv(v) == "" {
			missingVars = append(missingVars, v)
		}
	}
	if len(missingVars) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v. See .env.example for configuration template", missingVars)
	}

	// 120s AI timeout accommodates slow image models while preventing hangs
	aiTimeout := ParseDurationEnv("AI_TIMEOUT", 120*time.Second)
	// 300s render timeout covers download + decode + persistence around the AI call
	renderTimeout := ParseDurationEnv("RENDER_TIMEOUT", 300*time.Second)
	// 5 concurrent renders balances throughput against provider rate limits
	maxConcurrent := ParseIntEnv("MAX_CONCURRENT", 5)
	if maxConcurrent < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT must be at least 1, got %d", maxConcurrent)
	}

	defaultQuantity := ParseIntEnv("DEFAULT_QUANTITY", 5)
	maxQuantity := ParseIntEnv("MAX_QUANTITY", 20)
	if defaultQuantity < 1 || defaultQuantity > maxQuantity {
		return nil, fmt.Errorf("DEFAULT_QUANTITY must be between 1 and %d, got %d", maxQuantity, defaultQuantity)
	}

	sessionTTL := ParseDurationEnv("SESSION_TTL", 24*time.Hour)

	return &Config{
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:  GetEnvOrDefault("OPENROUTER_MODEL", "google/gemini-2.5-pro-preview"),
		OpenRouterURL:    GetEnvOrDefault("OPENROUTER_URL", "https://openrouter.ai/api/v1"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		ImageModel:   GetEnvOrDefault("IMAGE_GEN_MODEL", "gpt-image-1"),
		ImageSize:    GetEnvOrDefault("IMAGE_SIZE", "1536x1024"),
		ImageQuality: GetEnvOrDefault("IMAGE_QUALITY", "high"),

		MaxConcurrent:   maxConcurrent,
		DefaultQuantity: defaultQuantity,
		MaxQuantity:     maxQuantity,
		AITimeout:       aiTimeout,
		RenderTimeout:   renderTimeout,

		DBPath:         GetEnvOrDefault("DB_PATH", "./data/paintflow.db"),
		MigrationsPath: GetEnvOrDefault("MIGRATIONS_PATH", "./db/migrations"),
		UploadsDir:     GetEnvOrDefault("UPLOADS_DIR", "./uploads"),

		Port:       ParseIntEnv("PORT", 3001),
		SessionTTL: sessionTTL,

		LogFilePath: GetEnvOrDefault("LOG_FILE", "paintflow.log"),
		Development: GetEnvOrDefault("APP_ENV", "development") != "production",
	}, nil
}

// GetHTTPClient returns an HTTP client with the given timeout. Used for all
// requests to external AI APIs so timeout configuration is respected.
func GetHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}
