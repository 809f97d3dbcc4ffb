package models

// DebitRequest instructs the wallet to debit a user's balance. The
// idempotency key makes retried debits safe: the wallet applies the effect at
// most once per key.
type DebitRequest struct {
	UserID         string `json:"user_id"`
	AmountCents    int64  `json:"amount_cents"`
	IdempotencyKey string `json:"idempotency_key"`
	Description    string `json:"description,omitempty"`
}

type DebitResponse struct {
	TransactionID   string `json:"transaction_id"`
	NewBalanceCents int64  `json:"new_balance_cents"`
}

type CreditRequest struct {
	UserID         string `json:"user_id"`
	AmountCents    int64  `json:"amount_cents"`
	IdempotencyKey string `json:"idempotency_key"`
	// TransactionID of the debit being compensated; required by card-backed
	// wallets, ignored by the ledger wallet.
	TransactionID string `json:"transaction_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

type CreditResponse struct {
	TransactionID   string `json:"transaction_id"`
	NewBalanceCents int64  `json:"new_balance_cents"`
}

// TopUpRequest asks for a hosted funding flow so the user can add balance
// after an insufficient-funds failure.
type TopUpRequest struct {
	UserID      string `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
	Email       string `json:"email,omitempty"`
}

type TopUpResponse struct {
	InvoiceID  string `json:"invoice_id"`
	InvoiceURL string `json:"invoice_url"`
}
