package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/balance"
	"github.com/stripe/stripe-go/v76/charge"
	"github.com/stripe/stripe-go/v76/refund"

	"github.com/malwarebo/payper/models"
	"github.com/malwarebo/payper/utils"
)

// StripeWallet debits the user's card on file instead of a prepaid balance.
// Stripe's native idempotency keys give the same at-most-once guarantee as
// the ledger wallet: a retried charge with the same key returns the original
// charge instead of creating a second one, which is what makes the transient
// retries here safe.
type StripeWallet struct {
	currency string
	retry    *utils.RetryConfig
}

func CreateStripeWallet(apiKey, currency string) *StripeWallet {
	stripe.Key = apiKey
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeWallet{
		currency: currency,
		retry:    utils.DefaultRetryConfig(),
	}
}

func (w *StripeWallet) Debit(ctx context.Context, req *models.DebitRequest) (*models.DebitResponse, error) {
	var out *models.DebitResponse

	err := utils.Retry(ctx, w.retry, func() error {
		params := &stripe.ChargeParams{
			Amount:      stripe.Int64(req.AmountCents),
			Currency:    stripe.String(w.currency),
			Customer:    stripe.String(req.UserID),
			Description: stripe.String(req.Description),
		}
		params.Context = ctx
		params.SetIdempotencyKey(req.IdempotencyKey)

		ch, err := charge.New(params)
		if err != nil {
			return classifyStripeError(err)
		}
		if ch.ID == "" {
			return fmt.Errorf("%w: charge response missing id", utils.ErrWalletUnavailable)
		}

		out = &models.DebitResponse{
			TransactionID: ch.ID,
			// Card charges have no running balance; callers treat 0 as unknown.
			NewBalanceCents: 0,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (w *StripeWallet) Credit(ctx context.Context, req *models.CreditRequest) (*models.CreditResponse, error) {
	if req.TransactionID == "" {
		return nil, fmt.Errorf("%w: credit requires the original transaction id", utils.ErrInvalidRequest)
	}

	var out *models.CreditResponse

	err := utils.Retry(ctx, w.retry, func() error {
		params := &stripe.RefundParams{
			Charge: stripe.String(req.TransactionID),
			Amount: stripe.Int64(req.AmountCents),
		}
		params.Context = ctx
		params.SetIdempotencyKey(req.IdempotencyKey)

		r, err := refund.New(params)
		if err != nil {
			return classifyStripeError(err)
		}

		out = &models.CreditResponse{TransactionID: r.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (w *StripeWallet) IsAvailable(ctx context.Context) bool {
	params := &stripe.BalanceParams{}
	params.Context = ctx
	_, err := balance.Get(params)
	return err == nil
}

func classifyStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return fmt.Errorf("%w: %v", utils.ErrWalletUnavailable, err)
	}

	switch {
	case stripeErr.Code == stripe.ErrorCodeCardDeclined,
		stripeErr.DeclineCode == stripe.DeclineCodeInsufficientFunds:
		return fmt.Errorf("%w: %s", utils.ErrInsufficientFunds, stripeErr.Msg)
	case stripeErr.Type == stripe.ErrorTypeInvalidRequest:
		return fmt.Errorf("%w: %s", utils.ErrUpstreamRejected, stripeErr.Msg)
	default:
		return fmt.Errorf("%w: %s", utils.ErrWalletUnavailable, stripeErr.Msg)
	}
}
