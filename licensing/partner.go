package licensing

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/malwarebo/payper/models"
	"github.com/malwarebo/payper/utils"
)

func errUnsupportedTier(provider string, tier models.LicenseTier) error {
	return fmt.Errorf("%w: provider %s does not support tier %q", utils.ErrUnsupportedTier, provider, tier)
}

// PartnerProvider covers sources from partner catalogs that only publish
// snippet pricing. Source-id prefixes map to a snippet price; full access is
// derived with the standard multiplier.
type PartnerProvider struct {
	rights RightsAPI
	// Sorted longest prefix first so the most specific catalog entry wins
	// when prefixes overlap.
	catalog []catalogEntry
}

type catalogEntry struct {
	prefix     string
	priceCents int64
}

func CreatePartnerProvider(rights RightsAPI, catalog map[string]int64) *PartnerProvider {
	entries := make([]catalogEntry, 0, len(catalog))
	for prefix, price := range catalog {
		entries = append(entries, catalogEntry{prefix: prefix, priceCents: price})
	}
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].prefix) != len(entries[j].prefix) {
			return len(entries[i].prefix) > len(entries[j].prefix)
		}
		return entries[i].prefix < entries[j].prefix
	})
	return &PartnerProvider{rights: rights, catalog: entries}
}

func (p *PartnerProvider) Name() string {
	return "partner"
}

func (p *PartnerProvider) AppliesTo(src models.Source) bool {
	_, ok := p.lookup(src.ID)
	return ok
}

func (p *PartnerProvider) lookup(sourceID string) (int64, bool) {
	for _, entry := range p.catalog {
		if strings.HasPrefix(sourceID, entry.prefix) {
			return entry.priceCents, true
		}
	}
	return 0, false
}

func (p *PartnerProvider) Quote(ctx context.Context, src models.Source, tier models.LicenseTier) (int64, error) {
	snippet, ok := p.lookup(src.ID)
	if !ok {
		return 0, fmt.Errorf("%w: source %s not in partner catalog", utils.ErrPricingUnavailable, src.ID)
	}

	switch tier {
	case models.TierAISnippet:
		return snippet, nil
	case models.TierFullAccess:
		return int64(math.Round(float64(snippet) * FullAccessMultiplier)), nil
	default:
		return 0, errUnsupportedTier(p.Name(), tier)
	}
}

func (p *PartnerProvider) MintToken(ctx context.Context, src models.Source, tier models.LicenseTier) (string, error) {
	return p.rights.MintToken(ctx, src.ID, tier)
}

func (p *PartnerProvider) IsAvailable(ctx context.Context) bool {
	return true
}
