package licensing

import (
	"context"
	"math"

	"github.com/malwarebo/payper/models"
)

// FallbackProvider applies to every source and charges a flat default price,
// keeping the system usable for sources with no licensing data. It sits last
// in the provider list.
type FallbackProvider struct {
	rights            RightsAPI
	snippetPriceCents int64
}

func CreateFallbackProvider(rights RightsAPI, snippetPriceCents int64) *FallbackProvider {
	return &FallbackProvider{rights: rights, snippetPriceCents: snippetPriceCents}
}

func (p *FallbackProvider) Name() string {
	return "fallback"
}

func (p *FallbackProvider) AppliesTo(src models.Source) bool {
	return true
}

func (p *FallbackProvider) Quote(ctx context.Context, src models.Source, tier models.LicenseTier) (int64, error) {
	switch tier {
	case models.TierAISnippet:
		return p.snippetPriceCents, nil
	case models.TierFullAccess:
		return int64(math.Round(float64(p.snippetPriceCents) * FullAccessMultiplier)), nil
	default:
		return 0, errUnsupportedTier(p.Name(), tier)
	}
}

func (p *FallbackProvider) MintToken(ctx context.Context, src models.Source, tier models.LicenseTier) (string, error) {
	return p.rights.MintToken(ctx, src.ID, tier)
}

func (p *FallbackProvider) IsAvailable(ctx context.Context) bool {
	return true
}
