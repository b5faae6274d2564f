package payments

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stripe/stripe-go/v78"

	"stylizer/internal/domain"
)

func paidSession(credits string) *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:            "cs_test_paid",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:      map[string]string{"credits": credits},
	}
}

func TestConfirmPaidSessionReturnsCredits(t *testing.T) {
	api := &fakeSessionAPI{getSession: paidSession("10")}
	confirmer := NewConfirmer(api)

	credits, err := confirmer.Confirm(context.Background(), "cs_test_paid")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if credits != 10 {
		t.Fatalf("credits = %d, want 10", credits)
	}
	if api.lastGetID != "cs_test_paid" {
		t.Fatalf("queried session = %q", api.lastGetID)
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	api := &fakeSessionAPI{getSession: paidSession("5")}
	confirmer := NewConfirmer(api)

	first, err := confirmer.Confirm(context.Background(), "cs_test_paid")
	if err != nil {
		t.Fatalf("first Confirm: %v", err)
	}
	second, err := confirmer.Confirm(context.Background(), "cs_test_paid")
	if err != nil {
		t.Fatalf("second Confirm: %v", err)
	}
	if first != second {
		t.Fatalf("reads differ: %d vs %d", first, second)
	}
}

func TestConfirmUnpaidSession(t *testing.T) {
	api := &fakeSessionAPI{getSession: &stripe.CheckoutSession{
		ID:            "cs_test_open",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
		Metadata:      map[string]string{"credits": "5"},
	}}
	confirmer := NewConfirmer(api)

	_, err := confirmer.Confirm(context.Background(), "cs_test_open")
	if !errors.Is(err, domain.ErrPaymentIncomplete) {
		t.Fatalf("error = %v, want ErrPaymentIncomplete", err)
	}
}

func TestConfirmUnknownSession(t *testing.T) {
	api := &fakeSessionAPI{getErr: &stripe.Error{
		Code:           stripe.ErrorCodeResourceMissing,
		HTTPStatusCode: http.StatusNotFound,
	}}
	confirmer := NewConfirmer(api)

	_, err := confirmer.Confirm(context.Background(), "cs_gone")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestConfirmMalformedCreditsMetadata(t *testing.T) {
	for _, credits := range []string{"", "zero", "-3", "0"} {
		api := &fakeSessionAPI{getSession: paidSession(credits)}
		confirmer := NewConfirmer(api)

		_, err := confirmer.Confirm(context.Background(), "cs_test_paid")
		if !errors.Is(err, domain.ErrCreditsMetadata) {
			t.Fatalf("credits %q: error = %v, want ErrCreditsMetadata", credits, err)
		}
		if errors.Is(err, domain.ErrPaymentIncomplete) {
			t.Fatalf("credits %q: integrity error must not read as payment failure", credits)
		}
	}
}

func TestConfirmPassesThroughOtherStripeErrors(t *testing.T) {
	api := &fakeSessionAPI{getErr: &stripe.Error{HTTPStatusCode: http.StatusInternalServerError}}
	confirmer := NewConfirmer(api)

	_, err := confirmer.Confirm(context.Background(), "cs_test")
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want passthrough", err)
	}
}
