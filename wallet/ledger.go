package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/malwarebo/payper/models"
	"github.com/malwarebo/payper/utils"
)

// LedgerWallet talks to the wallet ledger service over JSON HTTP. The
// idempotency key travels in the Idempotency-Key header; the ledger applies
// each key at most once, so a retried debit after a timeout is safe even when
// the original request actually landed.
type LedgerWallet struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      *utils.RetryConfig
}

func CreateLedgerWallet(baseURL, apiKey string, timeout time.Duration) *LedgerWallet {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LedgerWallet{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		retry:      utils.DefaultRetryConfig(),
	}
}

type ledgerResponse struct {
	TransactionID   string `json:"transaction_id"`
	NewBalanceCents *int64 `json:"new_balance_cents"`
}

func (w *LedgerWallet) Debit(ctx context.Context, req *models.DebitRequest) (*models.DebitResponse, error) {
	var out *models.DebitResponse

	err := utils.Retry(ctx, w.retry, func() error {
		resp, err := w.call(ctx, "/v1/debits", req.IdempotencyKey, map[string]interface{}{
			"user_id":      req.UserID,
			"amount_cents": req.AmountCents,
			"description":  req.Description,
		})
		if err != nil {
			return err
		}

		out = &models.DebitResponse{
			TransactionID:   resp.TransactionID,
			NewBalanceCents: *resp.NewBalanceCents,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (w *LedgerWallet) Credit(ctx context.Context, req *models.CreditRequest) (*models.CreditResponse, error) {
	var out *models.CreditResponse

	err := utils.Retry(ctx, w.retry, func() error {
		resp, err := w.call(ctx, "/v1/credits", req.IdempotencyKey, map[string]interface{}{
			"user_id":      req.UserID,
			"amount_cents": req.AmountCents,
			"reason":       req.Reason,
		})
		if err != nil {
			return err
		}

		out = &models.CreditResponse{
			TransactionID:   resp.TransactionID,
			NewBalanceCents: *resp.NewBalanceCents,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (w *LedgerWallet) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/v1/health", nil)
	if err != nil {
		return false
	}
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (w *LedgerWallet) call(ctx context.Context, path, idempotencyKey string, body map[string]interface{}) (*ledgerResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrWalletUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var out ledgerResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("%w: malformed response body: %v", utils.ErrWalletUnavailable, err)
		}
		// A response that parses but lacks the expected fields is still a
		// wallet failure; fields are never guessed.
		if out.TransactionID == "" || out.NewBalanceCents == nil {
			return nil, fmt.Errorf("%w: response missing transaction_id or new_balance_cents", utils.ErrWalletUnavailable)
		}
		return &out, nil
	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, utils.ErrInsufficientFunds
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: ledger returned %d", utils.ErrWalletUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: ledger returned %d", utils.ErrUpstreamRejected, resp.StatusCode)
	}
}
