// Package wallet abstracts the user-balance service that purchases debit.
// Every mutating call carries an idempotency key so retries after timeouts
// can never double-apply.
package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/malwarebo/payper/models"
)

type Wallet interface {
	Debit(ctx context.Context, req *models.DebitRequest) (*models.DebitResponse, error)
	Credit(ctx context.Context, req *models.CreditRequest) (*models.CreditResponse, error)
	IsAvailable(ctx context.Context) bool
}

// Funder issues hosted top-up flows for users whose balance cannot cover a
// purchase.
type Funder interface {
	CreateTopUp(ctx context.Context, req *models.TopUpRequest) (*models.TopUpResponse, error)
}

// IdempotencyKey derives the stable debit key for one (user, content) pair.
// The same pair always yields the same key, across processes and retries,
// which is what makes the at-most-once charge guarantee hold.
func IdempotencyKey(userID, contentID string) string {
	sum := sha256.Sum256([]byte(userID + ":" + contentID))
	return hex.EncodeToString(sum[:])[:32]
}
