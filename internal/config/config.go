package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	LLM       LLMConfig
	Extractor ExtractorConfig
	Storage   StorageConfig
	Worker    WorkerConfig
	Chunking  ChunkingConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port          string        `validate:"required,numeric"`
	Env           string        `validate:"required"`
	AllowedOrigin string        `validate:"required"`
	ReadTimeout   time.Duration `validate:"gt=0"`
	WriteTimeout  time.Duration `validate:"gt=0"`
}

type LLMConfig struct {
	Provider        string        `validate:"oneof=deepseek openai gemini"`
	APIKey          string        `validate:"-"`
	BaseURL         string        `validate:"omitempty,url"`
	Model           string        `validate:"required"`
	RequestTimeout  time.Duration `validate:"gt=0"`
	MaxOutputTokens int           `validate:"gte=0"`
}

type ExtractorConfig struct {
	Backend       string `validate:"oneof=pdf fitz affinda"`
	AffindaAPIKey string `validate:"-"`
	AffindaRegion string `validate:"-"`
}

type StorageConfig struct {
	MaxFileSize int64 `validate:"gt=0"`
}

type WorkerConfig struct {
	Concurrency       int           `validate:"gte=1"`
	QueueSize         int           `validate:"gte=1"`
	RequestsPerMinute int           `validate:"gte=0"`
	RetryMaxAttempts  int           `validate:"gte=1,lte=10"`
	RetryInitialDelay time.Duration `validate:"gte=0"`
	RetryMaxDelay     time.Duration `validate:"gte=0"`
}

type ChunkingConfig struct {
	MaxChunkChars int `validate:"gt=0"`
	OverlapChars  int `validate:"gte=0,ltfield=MaxChunkChars"`
}

type RateLimitConfig struct {
	Max    int           `validate:"gte=0"`
	Window time.Duration `validate:"gt=0"`
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment and default values.")
	}

	provider := strings.ToLower(getEnv("LLM_PROVIDER", "deepseek"))

	return &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", "5000"),
			Env:           getEnv("ENV", "development"),
			AllowedOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),
			ReadTimeout:   getEnvAsDuration("SERVER_READ_TIMEOUT", "30s"),
			WriteTimeout:  getEnvAsDuration("SERVER_WRITE_TIMEOUT", "180s"),
		},
		LLM: LLMConfig{
			Provider:        provider,
			APIKey:          getEnv("LLM_API_KEY", getEnv(defaultKeyEnv(provider), "")),
			BaseURL:         getEnv("LLM_BASE_URL", defaultBaseURL(provider)),
			Model:           getEnv("LLM_MODEL", defaultModel(provider)),
			RequestTimeout:  getEnvAsDuration("LLM_REQUEST_TIMEOUT", "90s"),
			MaxOutputTokens: getEnvAsInt("LLM_MAX_OUTPUT_TOKENS", 8192),
		},
		Extractor: ExtractorConfig{
			Backend:       strings.ToLower(getEnv("PDF_EXTRACTOR", "pdf")),
			AffindaAPIKey: getEnv("AFFINDA_API_KEY", ""),
			AffindaRegion: getEnv("AFFINDA_REGION", "api"),
		},
		Storage: StorageConfig{
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
		Worker: WorkerConfig{
			Concurrency:       getEnvAsInt("WORKER_CONCURRENCY", 3),
			QueueSize:         getEnvAsInt("WORKER_QUEUE_SIZE", 100),
			RequestsPerMinute: getEnvAsInt("LLM_REQUESTS_PER_MINUTE", 60),
			RetryMaxAttempts:  getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			RetryInitialDelay: getEnvAsDuration("RETRY_INITIAL_DELAY", "2s"),
			RetryMaxDelay:     getEnvAsDuration("RETRY_MAX_DELAY", "30s"),
		},
		Chunking: ChunkingConfig{
			MaxChunkChars: getEnvAsInt("CHUNK_MAX_CHARS", 1000),
			OverlapChars:  getEnvAsInt("CHUNK_OVERLAP_CHARS", 200),
		},
		RateLimit: RateLimitConfig{
			Max:    getEnvAsInt("RATE_LIMIT_MAX", 20),
			Window: getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),
		},
	}
}

// Validate checks the loaded values. The API key is checked separately
// because commands that never reach the LLM do not need one.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Extractor.Backend == "affinda" && c.Extractor.AffindaAPIKey == "" {
		return fmt.Errorf("invalid configuration: AFFINDA_API_KEY is required when PDF_EXTRACTOR=affinda")
	}
	return nil
}

func (c *Config) RequireAPIKey() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("missing API key for LLM provider %q (set LLM_API_KEY or %s)", c.LLM.Provider, defaultKeyEnv(c.LLM.Provider))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func defaultKeyEnv(provider string) string {
	switch provider {
	case "gemini":
		return "GEMINI_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return "DEEPSEEK_API_KEY"
	}
}

func defaultBaseURL(provider string) string {
	switch provider {
	case "openai":
		return "https://api.openai.com/v1"
	case "gemini":
		return ""
	default:
		return "https://api.deepseek.com"
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "gemini":
		return "gemini-2.5-flash"
	case "openai":
		return "gpt-4o-mini"
	default:
		return "deepseek-reasoner"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
