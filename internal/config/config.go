package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

type Config struct {
	Port            string
	DatabaseURL     string
	ShutdownTimeout time.Duration

	S3     S3Config
	Valkey ValkeyConfig
	LLM    LLMConfig

	// Worker settings
	CleanupRetries int
}

type S3Config struct {
	EndpointURL string
	Region      string
	AccessKey   string
	SecretKey   string
	Bucket      string
}

type ValkeyConfig struct {
	URL      string
	Password string
}

type LLMConfig struct {
	Provider string

	GeminiAPIKey string
	GeminiModel  string

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string
	AppTitle          string
	Referer           string

	// use Gemini to read PDFs that have no text layer
	OCRFallback bool
}

// Load reads environment variables, optionally from a .env file if present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		S3: S3Config{
			EndpointURL: os.Getenv("S3_ENDPOINT_URL"),
			Region:      getEnv("S3_REGION", "us-east-1"),
			AccessKey:   os.Getenv("S3_ACCESS_KEY"),
			SecretKey:   os.Getenv("S3_SECRET_KEY"),
			Bucket:      os.Getenv("S3_BUCKET_NAME"),
		},
		Valkey: ValkeyConfig{
			URL:      os.Getenv("VALKEY_URL"),
			Password: os.Getenv("VALKEY_PASSWORD"),
		},
		LLM: LLMConfig{
			Provider:          strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
			GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
			GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
			OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			OpenRouterModel:   getEnv("OPENROUTER_MODEL", "qwen/qwen2.5-32b-instruct"),
			AppTitle:          getEnv("OPENROUTER_APP_TITLE", "resume-analyzer"),
			Referer:           os.Getenv("OPENROUTER_REFERER"),
			OCRFallback:       getEnvBool("OCR_FALLBACK", true),
		},
		CleanupRetries: getEnvInt("CLEANUP_RETRIES", 3),
	}
}

// Validate reports every setting the API server is missing at once.
func (c Config) Validate() error {
	errs := c.storageErrors()

	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is not set"))
		}
	case ProviderOpenRouter:
		if c.LLM.OpenRouterAPIKey == "" {
			errs = append(errs, errors.New("OPENROUTER_API_KEY is not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider))
	}

	return errors.Join(errs...)
}

// ValidateWorker checks what the compensation worker needs. It never calls an LLM.
func (c Config) ValidateWorker() error {
	return errors.Join(c.storageErrors()...)
}

func (c Config) storageErrors() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.S3.Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET_NAME is not set"))
	}
	if c.Valkey.URL == "" {
		errs = append(errs, errors.New("VALKEY_URL is not set"))
	}
	return errs
}

// NeedsGemini reports whether a Gemini client has to be built.
func (c Config) NeedsGemini() bool {
	return c.LLM.Provider == ProviderGemini || (c.LLM.OCRFallback && c.LLM.GeminiAPIKey != "")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
