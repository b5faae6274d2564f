package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v78"

	"stylizer/internal/domain"
	"stylizer/internal/payments"
)

type checkoutResponse struct {
	URL string `json:"url"`
}

type confirmResponse struct {
	Credits int `json:"credits"`
}

// CheckoutSession maps a price selector to a hosted checkout session and
// returns its redirect URL. A missing selector falls back to the legacy
// single pack.
func (a *App) CheckoutSession(w http.ResponseWriter, r *http.Request) {
	priceID := r.URL.Query().Get("price_id")
	if priceID == "" {
		priceID = payments.DefaultPriceID
	}

	session, err := a.Checkout.CreateSession(r.Context(), priceID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPrice) {
			a.error(w, http.StatusBadRequest, "Invalid price option selected")
			return
		}
		a.Logger.Error().Err(err).Str("price_id", priceID).Msg("checkout session creation failed")
		a.error(w, vendorStatus(err), "Checkout session creation failed")
		return
	}
	a.json(w, http.StatusOK, checkoutResponse{URL: session.URL})
}

// ConfirmPayment reads a session by id and returns the purchased credits.
// The read is idempotent; this service never records which sessions were
// already confirmed.
func (a *App) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		a.error(w, http.StatusBadRequest, "Missing session_id")
		return
	}

	credits, err := a.Confirmer.Confirm(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPaymentIncomplete):
			a.error(w, http.StatusPaymentRequired, "Payment not successful")
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "Session not found")
		case errors.Is(err, domain.ErrCreditsMetadata):
			a.Logger.Error().Err(err).Str("session_id", sessionID).Msg("paid session has malformed credits metadata")
			a.error(w, http.StatusBadRequest, "Invalid credits metadata")
		default:
			a.Logger.Error().Err(err).Str("session_id", sessionID).Msg("payment confirmation failed")
			a.error(w, vendorStatus(err), "Payment confirmation failed")
		}
		return
	}
	a.json(w, http.StatusOK, confirmResponse{Credits: credits})
}

// StripeWebhook verifies the signature over the raw body and acknowledges
// the event. Fulfillment is deliberately absent: crediting happens through
// the confirmation endpoint.
func (a *App) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		a.error(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	if err := a.Webhook.HandleEvent(payload, r.Header.Get("Stripe-Signature")); err != nil {
		switch {
		case errors.Is(err, payments.ErrMissingSignature):
			a.error(w, http.StatusBadRequest, "Missing signature header")
		case errors.Is(err, payments.ErrBadSignature):
			a.error(w, http.StatusBadRequest, "Invalid signature")
		case errors.Is(err, payments.ErrBadPayload):
			a.error(w, http.StatusBadRequest, "Invalid payload")
		default:
			a.Logger.Error().Err(err).Msg("webhook handling failed")
			a.error(w, http.StatusBadRequest, "Invalid payload")
		}
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// vendorStatus surfaces the payment provider's own status code when it is a
// usable HTTP error, else 502.
func vendorStatus(err error) int {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode >= http.StatusBadRequest {
		return stripeErr.HTTPStatusCode
	}
	return http.StatusBadGateway
}
