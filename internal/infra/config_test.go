package infra

import (
	"strings"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("GETIMG_API_KEY", "key-abc")
	t.Setenv("FRONTEND_URL", "")
	t.Setenv("IMAGE_BACKEND", "")
	t.Setenv("PRICE_AMOUNT", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.FrontendURL != "http://localhost:3000" {
		t.Fatalf("FrontendURL mismatch: got %q", cfg.FrontendURL)
	}
	if cfg.ImageBackend != BackendGetimg {
		t.Fatalf("ImageBackend mismatch: got %q", cfg.ImageBackend)
	}
	if cfg.PriceAmountCents != 500 {
		t.Fatalf("PriceAmountCents mismatch: got %d want 500", cfg.PriceAmountCents)
	}
	if cfg.ImageBackendTimeout.Seconds() != 60 {
		t.Fatalf("ImageBackendTimeout mismatch: got %v", cfg.ImageBackendTimeout)
	}
}

func TestLoadConfigRequiresStripeSecret(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("GETIMG_API_KEY", "key-abc")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing STRIPE_SECRET_KEY")
	}
}

func TestLoadConfigRequiresActiveBackendKey(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("GETIMG_API_KEY", "key-abc")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("IMAGE_BACKEND", "dalle")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected error for missing OPENAI_API_KEY")
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("IMAGE_BACKEND", "midjourney")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestLoadConfigWebhookSecretOptional(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("GETIMG_API_KEY", "key-abc")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.StripeWebhookSecret != "" {
		t.Fatalf("expected empty webhook secret, got %q", cfg.StripeWebhookSecret)
	}
}
