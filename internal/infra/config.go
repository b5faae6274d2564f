package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Supported image backends, selected once at startup via IMAGE_BACKEND.
const (
	BackendGetimg     = "getimg"
	BackendDalle      = "dalle"
	BackendReplicate  = "replicate"
	BackendOpenAIEdit = "openai-edit"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv              string
	Port                string
	FrontendURL         string
	ImageBackend        string
	GetimgAPIKey        string
	OpenAIAPIKey        string
	ReplicateAPIToken   string
	StripeSecretKey     string
	StripeWebhookSecret string
	PriceAmountCents    int64
	ImageBackendTimeout time.Duration
	HTTPReadTimeout     time.Duration
	HTTPWriteTimeout    time.Duration
	HTTPIdleTimeout     time.Duration
	RateLimitPerMin     int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. Required secrets are validated eagerly so the
// process refuses to start instead of failing on the first request. The
// webhook signing secret is deliberately optional: its absence degrades
// webhook verification to an acknowledged no-op.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:3000"),
		ImageBackend:        getEnv("IMAGE_BACKEND", BackendGetimg),
		GetimgAPIKey:        os.Getenv("GETIMG_API_KEY"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		ReplicateAPIToken:   os.Getenv("REPLICATE_API_TOKEN"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PriceAmountCents:    int64(getEnvInt("PRICE_AMOUNT", 500)),
		ImageBackendTimeout: time.Second * time.Duration(getEnvInt("IMAGE_BACKEND_TIMEOUT_SECONDS", 60)),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 90)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.StripeSecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}

	switch cfg.ImageBackend {
	case BackendGetimg:
		if cfg.GetimgAPIKey == "" {
			return nil, fmt.Errorf("GETIMG_API_KEY is required for the %s backend", cfg.ImageBackend)
		}
	case BackendDalle, BackendOpenAIEdit:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the %s backend", cfg.ImageBackend)
		}
	case BackendReplicate:
		if cfg.ReplicateAPIToken == "" {
			return nil, fmt.Errorf("REPLICATE_API_TOKEN is required for the %s backend", cfg.ImageBackend)
		}
	default:
		return nil, fmt.Errorf("unsupported IMAGE_BACKEND %q", cfg.ImageBackend)
	}

	if cfg.PriceAmountCents <= 0 {
		return nil, fmt.Errorf("PRICE_AMOUNT must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
