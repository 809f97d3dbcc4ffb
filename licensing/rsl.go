package licensing

import (
	"context"
	"strings"

	"github.com/malwarebo/payper/models"
)

// RSLProvider handles sources that publish an RSL-style license descriptor.
// Per-tier prices live with the rights service, which parses the descriptor;
// this provider just routes quoting and minting there.
type RSLProvider struct {
	rights RightsAPI
}

func CreateRSLProvider(rights RightsAPI) *RSLProvider {
	return &RSLProvider{rights: rights}
}

func (p *RSLProvider) Name() string {
	return "rsl"
}

func (p *RSLProvider) AppliesTo(src models.Source) bool {
	return strings.HasPrefix(src.License, "rsl:")
}

func (p *RSLProvider) Quote(ctx context.Context, src models.Source, tier models.LicenseTier) (int64, error) {
	if !tier.IsValid() {
		return 0, errUnsupportedTier(p.Name(), tier)
	}
	return p.rights.Quote(ctx, src.ID, tier)
}

func (p *RSLProvider) MintToken(ctx context.Context, src models.Source, tier models.LicenseTier) (string, error) {
	return p.rights.MintToken(ctx, src.ID, tier)
}

func (p *RSLProvider) IsAvailable(ctx context.Context) bool {
	return true
}
