package licensing

import (
	"context"
	"errors"
	"fmt"

	"github.com/malwarebo/payper/models"
	"github.com/malwarebo/payper/utils"
)

// SourceResolver enriches a source ID with catalog metadata (license
// descriptor, title) so providers can detect applicability. Resolution is a
// local lookup, never a network call.
type SourceResolver interface {
	Resolve(id string) models.Source
}

// StaticResolver resolves from a fixed map; unknown IDs resolve to a bare
// source carrying only the ID.
type StaticResolver map[string]models.Source

func (r StaticResolver) Resolve(id string) models.Source {
	if src, ok := r[id]; ok {
		return src
	}
	return models.Source{ID: id}
}

// Selector dispatches each source to the first applicable provider in a
// fixed ordered list. The last provider is expected to be a catch-all
// fallback.
type Selector struct {
	providers []Provider
	resolver  SourceResolver
}

func CreateSelector(resolver SourceResolver, providers ...Provider) *Selector {
	if resolver == nil {
		resolver = StaticResolver(nil)
	}
	return &Selector{providers: providers, resolver: resolver}
}

func (s *Selector) providerFor(src models.Source) (Provider, error) {
	for _, p := range s.providers {
		if p.AppliesTo(src) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no licensing provider for source %s", utils.ErrPricingUnavailable, src.ID)
}

// Quote prices the whole source set at the given tier: per-source quotes from
// each source's provider, summed.
func (s *Selector) Quote(ctx context.Context, sourceIDs []string, tier models.LicenseTier) (int64, error) {
	if len(sourceIDs) == 0 {
		return 0, fmt.Errorf("%w: empty source set", utils.ErrInvalidRequest)
	}
	if !tier.IsValid() {
		return 0, fmt.Errorf("%w: %q", utils.ErrUnsupportedTier, tier)
	}

	var total int64
	for _, id := range sourceIDs {
		src := s.resolver.Resolve(id)

		provider, err := s.providerFor(src)
		if err != nil {
			return 0, err
		}

		price, err := provider.Quote(ctx, src, tier)
		if err != nil {
			return 0, classifyQuoteError(err, provider.Name(), id)
		}
		total += price
	}

	return total, nil
}

// MintTokens issues access tokens for every source in the set. Called by the
// orchestrator strictly after a successful charge.
func (s *Selector) MintTokens(ctx context.Context, sourceIDs []string, tier models.LicenseTier) ([]string, error) {
	tokens := make([]string, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		src := s.resolver.Resolve(id)

		provider, err := s.providerFor(src)
		if err != nil {
			return nil, err
		}

		token, err := provider.MintToken(ctx, src, tier)
		if err != nil {
			return nil, fmt.Errorf("minting token for %s via %s: %w", id, provider.Name(), err)
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// classifyQuoteError keeps the taxonomy tight: anything that is not already a
// known class (unsupported tier, upstream rejection) surfaces as pricing
// unavailability, including open circuit breakers.
func classifyQuoteError(err error, provider, sourceID string) error {
	if errors.Is(err, utils.ErrUnsupportedTier) ||
		errors.Is(err, utils.ErrUpstreamRejected) ||
		errors.Is(err, utils.ErrPricingUnavailable) {
		return err
	}
	return fmt.Errorf("%w: provider %s failed for source %s: %v", utils.ErrPricingUnavailable, provider, sourceID, err)
}
