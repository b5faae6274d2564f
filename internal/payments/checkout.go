package payments

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"stylizer/internal/domain"
	"stylizer/internal/infra"
)

// SessionAPI is the slice of the Stripe checkout-session surface this
// service uses. The concrete implementation is stripe-go's session client;
// tests substitute a fake.
type SessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// NewStripeClient builds the vendor API client bound to the configured
// secret key.
func NewStripeClient(secretKey string) *client.API {
	return client.New(secretKey, nil)
}

// Checkout builds provider-hosted payment sessions from price selectors.
// Every call creates fresh vendor-side state; there is no idempotency key.
type Checkout struct {
	sessions    SessionAPI
	prices      *PriceTable
	frontendURL string
	logger      *infra.Logger
}

// NewCheckout wires the session builder.
func NewCheckout(sessions SessionAPI, prices *PriceTable, frontendURL string, logger *infra.Logger) *Checkout {
	return &Checkout{sessions: sessions, prices: prices, frontendURL: frontendURL, logger: logger}
}

// CreateSession validates the selector against the static price table and
// requests a hosted checkout session for the exact configured amount. The
// selector's credit count is stamped into session metadata as a string so
// the confirmation read can recover it; the success URL echoes the session
// id through the provider's template placeholder. Unknown selectors fail
// before any provider call.
func (c *Checkout) CreateSession(ctx context.Context, priceID string) (*stripe.CheckoutSession, error) {
	opt, ok := c.prices.Lookup(priceID)
	if !ok {
		return nil, fmt.Errorf("price %q: %w", priceID, domain.ErrInvalidPrice)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(opt.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(opt.DisplayName),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(c.frontendURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(c.frontendURL),
	}
	params.Context = ctx
	params.AddMetadata("credits", strconv.Itoa(opt.Credits))
	params.AddMetadata("price_id", opt.ID)

	session, err := c.sessions.New(params)
	if err != nil {
		return nil, err
	}

	if c.logger != nil {
		c.logger.Info().
			Str("session_id", session.ID).
			Str("price_id", opt.ID).
			Int("credits", opt.Credits).
			Msg("checkout session created")
	}
	return session, nil
}
