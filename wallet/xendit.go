package wallet

import (
	"context"
	"fmt"

	"github.com/xendit/xendit-go"
	"github.com/xendit/xendit-go/invoice"

	"github.com/malwarebo/payper/models"
	"github.com/malwarebo/payper/utils"
)

// XenditFunder creates hosted top-up invoices so a user who hit
// insufficient-funds can add balance and retry. The invoice external ID is
// derived from the request so a retried top-up call reuses the same external
// reference.
type XenditFunder struct{}

func CreateXenditFunder(secretKey string) *XenditFunder {
	xendit.Opt.SecretKey = secretKey
	return &XenditFunder{}
}

func (f *XenditFunder) CreateTopUp(ctx context.Context, req *models.TopUpRequest) (*models.TopUpResponse, error) {
	if req.UserID == "" || req.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: top-up requires user_id and a positive amount", utils.ErrInvalidRequest)
	}

	inv, err := invoice.CreateWithContext(ctx, &invoice.CreateParams{
		ExternalID:  fmt.Sprintf("topup_%s_%d", req.UserID, req.AmountCents),
		Amount:      float64(req.AmountCents) / 100,
		PayerEmail:  req.Email,
		Description: fmt.Sprintf("Wallet top-up for %s", req.UserID),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrWalletUnavailable, err)
	}

	if inv.ID == "" || inv.InvoiceURL == "" {
		return nil, fmt.Errorf("%w: invoice response missing id or url", utils.ErrWalletUnavailable)
	}

	return &models.TopUpResponse{
		InvoiceID:  inv.ID,
		InvoiceURL: inv.InvoiceURL,
	}, nil
}
