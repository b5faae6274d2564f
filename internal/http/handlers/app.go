package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/stripe/stripe-go/v78"

	"stylizer/internal/infra"
	providerimage "stylizer/internal/providers/image"
)

// CheckoutService builds provider-hosted payment sessions.
type CheckoutService interface {
	CreateSession(ctx context.Context, priceID string) (*stripe.CheckoutSession, error)
}

// ConfirmService reads payment state for a checkout session.
type ConfirmService interface {
	Confirm(ctx context.Context, sessionID string) (int, error)
}

// WebhookService verifies and dispatches inbound provider events.
type WebhookService interface {
	HandleEvent(payload []byte, signatureHeader string) error
}

// App carries the request-scoped dependencies for all handlers. Everything
// here is established once at startup and read-only afterwards.
type App struct {
	Config      *infra.Config
	Logger      infra.Logger
	Transformer providerimage.Transformer
	Checkout    CheckoutService
	Confirmer   ConfirmService
	Webhook     WebhookService
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
