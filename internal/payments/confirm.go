package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v78"

	"stylizer/internal/domain"
)

// Confirmer performs point-in-time reads of checkout sessions. The read is
// idempotent: a paid session returns the same credit count on every call.
// Nothing here tracks which sessions were already confirmed; double-credit
// protection is the caller's responsibility.
type Confirmer struct {
	sessions SessionAPI
}

// NewConfirmer wires the confirmation reader.
func NewConfirmer(sessions SessionAPI) *Confirmer {
	return &Confirmer{sessions: sessions}
}

// Confirm fetches the session and returns the purchased credit count.
// Distinguishes three failure classes: domain.ErrNotFound for unknown or
// expired session ids, domain.ErrPaymentIncomplete when the session exists
// but is not paid, and domain.ErrCreditsMetadata when a paid session lacks a
// positive integer credits stamp (a data-integrity problem, not a payment
// failure).
func (c *Confirmer) Confirm(ctx context.Context, sessionID string) (int, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := c.sessions.Get(sessionID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			if stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound {
				return 0, fmt.Errorf("session %q: %w", sessionID, domain.ErrNotFound)
			}
		}
		return 0, err
	}

	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return 0, fmt.Errorf("session %q status %q: %w", sessionID, session.PaymentStatus, domain.ErrPaymentIncomplete)
	}

	raw := strings.TrimSpace(session.Metadata["credits"])
	if raw == "" {
		return 0, fmt.Errorf("session %q has no credits stamp: %w", sessionID, domain.ErrCreditsMetadata)
	}
	credits, err := strconv.Atoi(raw)
	if err != nil || credits <= 0 {
		return 0, fmt.Errorf("session %q credits %q: %w", sessionID, raw, domain.ErrCreditsMetadata)
	}
	return credits, nil
}
