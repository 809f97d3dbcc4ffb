package licensing

import (
	"context"
	"testing"

	"github.com/malwarebo/payper/models"
)

func TestPartnerProvider_MostSpecificPrefixWins(t *testing.T) {
	catalog := map[string]int64{
		"src_":         100,
		"src_partner_": 250,
	}
	src := models.Source{ID: "src_partner_042"}

	// Map iteration order varies per run; the chosen price must not.
	for i := 0; i < 20; i++ {
		p := CreatePartnerProvider(&fakeRights{}, catalog)
		price, err := p.Quote(context.Background(), src, models.TierAISnippet)
		if err != nil {
			t.Fatalf("Quote() error = %v", err)
		}
		if price != 250 {
			t.Fatalf("Quote() = %d, want 250 (most specific prefix)", price)
		}
	}
}

func TestPartnerProvider_UncataloguedSourceDoesNotApply(t *testing.T) {
	p := CreatePartnerProvider(&fakeRights{}, map[string]int64{"src_partner_": 250})
	if p.AppliesTo(models.Source{ID: "src_other_1"}) {
		t.Error("AppliesTo() = true for a source outside the catalog")
	}
}
