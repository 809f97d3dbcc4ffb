// Package licensing resolves sources to license prices and access rights,
// polymorphic over a fixed, closed set of provider protocols.
package licensing

import (
	"context"
	"time"

	"github.com/malwarebo/payper/models"
	"github.com/malwarebo/payper/utils"
)

// FullAccessMultiplier scales a snippet quote up to full access for providers
// that only publish snippet pricing.
const FullAccessMultiplier = 2.4

// Provider is one licensing protocol. AppliesTo and Quote are used while
// quoting; MintToken is only invoked after a successful charge.
type Provider interface {
	Name() string
	AppliesTo(src models.Source) bool
	Quote(ctx context.Context, src models.Source, tier models.LicenseTier) (int64, error)
	MintToken(ctx context.Context, src models.Source, tier models.LicenseTier) (string, error)
	IsAvailable(ctx context.Context) bool
}

// RightsAPI is the slice of the rights-service client the providers need.
type RightsAPI interface {
	Quote(ctx context.Context, sourceID string, tier models.LicenseTier) (int64, error)
	MintToken(ctx context.Context, sourceID string, tier models.LicenseTier) (string, error)
}

// ProviderWrapper adds a circuit breaker around a provider's upstream calls.
type ProviderWrapper struct {
	provider       Provider
	circuitBreaker *utils.CircuitBreaker
}

func WrapProvider(provider Provider) *ProviderWrapper {
	return &ProviderWrapper{
		provider:       provider,
		circuitBreaker: utils.CreateCircuitBreaker(5, 30*time.Second),
	}
}

func (w *ProviderWrapper) Name() string {
	return w.provider.Name()
}

func (w *ProviderWrapper) AppliesTo(src models.Source) bool {
	return w.provider.AppliesTo(src)
}

func (w *ProviderWrapper) Quote(ctx context.Context, src models.Source, tier models.LicenseTier) (int64, error) {
	var price int64
	err := w.circuitBreaker.Execute(ctx, func() error {
		var err error
		price, err = w.provider.Quote(ctx, src, tier)
		return err
	})
	return price, err
}

func (w *ProviderWrapper) MintToken(ctx context.Context, src models.Source, tier models.LicenseTier) (string, error) {
	var token string
	err := w.circuitBreaker.Execute(ctx, func() error {
		var err error
		token, err = w.provider.MintToken(ctx, src, tier)
		return err
	})
	return token, err
}

func (w *ProviderWrapper) IsAvailable(ctx context.Context) bool {
	return w.circuitBreaker.GetState() != utils.StateOpen && w.provider.IsAvailable(ctx)
}
