package wallet

import (
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v76"

	"github.com/malwarebo/payper/utils"
)

// The debit path retries only errors classified as transient, so the
// classification decides whether a retried attempt can double-charge. Card
// declines must never be retried; transport and server errors must be.
func TestClassifyStripeError_RetryClasses(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		want      error
		transient bool
	}{
		{
			name:      "card declined",
			err:       &stripe.Error{Code: stripe.ErrorCodeCardDeclined, Msg: "card declined"},
			want:      utils.ErrInsufficientFunds,
			transient: false,
		},
		{
			name:      "insufficient funds decline code",
			err:       &stripe.Error{DeclineCode: stripe.DeclineCodeInsufficientFunds, Msg: "insufficient funds"},
			want:      utils.ErrInsufficientFunds,
			transient: false,
		},
		{
			name:      "invalid request",
			err:       &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Msg: "no such customer"},
			want:      utils.ErrUpstreamRejected,
			transient: false,
		},
		{
			name:      "api error",
			err:       &stripe.Error{Type: stripe.ErrorTypeAPI, Msg: "server error"},
			want:      utils.ErrWalletUnavailable,
			transient: true,
		},
		{
			name:      "transport failure",
			err:       errors.New("connection reset"),
			want:      utils.ErrWalletUnavailable,
			transient: true,
		},
	}

	for _, tc := range cases {
		got := classifyStripeError(tc.err)
		if !errors.Is(got, tc.want) {
			t.Errorf("%s: classifyStripeError() = %v, want %v class", tc.name, got, tc.want)
		}
		if utils.IsTransient(got) != tc.transient {
			t.Errorf("%s: IsTransient() = %v, want %v", tc.name, utils.IsTransient(got), tc.transient)
		}
	}
}

func TestCreateStripeWallet_RetryConfigured(t *testing.T) {
	w := CreateStripeWallet("sk_test_key", "")
	if w.retry == nil {
		t.Fatal("stripe wallet has no retry config")
	}
	if w.currency != string(stripe.CurrencyUSD) {
		t.Errorf("currency = %q, want usd default", w.currency)
	}
}
