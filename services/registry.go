package services

import (
	"context"
	"fmt"

	"github.com/malwarebo/payper/fingerprint"
	"github.com/malwarebo/payper/models"
	"github.com/malwarebo/payper/monitoring"
	"github.com/malwarebo/payper/utils"
)

// ContentStore is the durable half of the registry. GetByFingerprint returns
// (nil, nil) when no row exists; CreateIfAbsent reports whether this call
// inserted the row.
type ContentStore interface {
	GetByFingerprint(ctx context.Context, fingerprint string) (*models.ContentRecord, error)
	CreateIfAbsent(ctx context.Context, record *models.ContentRecord) (bool, error)
}

// ContentCache is a look-aside front for the store. It is never
// authoritative; errors and misses both fall through to the store.
type ContentCache interface {
	GetContentID(ctx context.Context, fingerprint string) (string, error)
	SetContentID(ctx context.Context, fingerprint, contentID string) error
}

// Registrar mints content IDs at the rights service.
type Registrar interface {
	Register(ctx context.Context, query string, sourceIDs []string, priceCents int64) (string, error)
}

// RegistryService resolves (query, source_ids, price) to a content ID,
// minting one externally at most once per fingerprint. Concurrent
// registrations of the same fingerprint converge on a single record; losers
// of the insert race discard their freshly minted ID and adopt the winner's.
type RegistryService struct {
	store  ContentStore
	rights Registrar
	cache  ContentCache // optional, nil when redis is not configured
}

func CreateRegistryService(store ContentStore, rights Registrar, cache ContentCache) *RegistryService {
	return &RegistryService{
		store:  store,
		rights: rights,
		cache:  cache,
	}
}

// RegisterOrReuse returns the content ID for the fingerprint of
// (query, sourceIDs, priceCents), registering it with the rights service only
// when no record exists yet. The returned fingerprint lets callers correlate
// audit rows with the content record.
func (s *RegistryService) RegisterOrReuse(ctx context.Context, query string, sourceIDs []string, priceCents int64) (contentID, fp string, err error) {
	fp, err = fingerprint.Compute(query, sourceIDs, priceCents)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", utils.ErrInvalidRequest, err)
	}

	if id := s.cachedContentID(ctx, fp); id != "" {
		monitoring.RecordRegistryLookup("cache_hit")
		return id, fp, nil
	}

	record, err := s.store.GetByFingerprint(ctx, fp)
	if err != nil {
		return "", fp, utils.WrapError(err, "registry lookup")
	}
	if record != nil {
		monitoring.RecordRegistryLookup("store_hit")
		s.backfillCache(ctx, fp, record.ContentID)
		return record.ContentID, fp, nil
	}

	// No record yet. Mint an ID externally, then try to claim the
	// fingerprint. The rights call is retried inside the client; a failure
	// here persists nothing.
	mintedID, err := s.rights.Register(ctx, query, sourceIDs, priceCents)
	if err != nil {
		return "", fp, err
	}

	inserted, err := s.store.CreateIfAbsent(ctx, &models.ContentRecord{
		Fingerprint: fp,
		ContentID:   mintedID,
	})
	if err != nil {
		return "", fp, utils.WrapError(err, "registry insert")
	}

	if !inserted {
		// Lost the race. The winner's ID is the canonical one; ours is
		// discarded. Self-healing, never surfaced to the caller.
		winner, err := s.store.GetByFingerprint(ctx, fp)
		if err != nil {
			return "", fp, utils.WrapError(err, "registry re-read after conflict")
		}
		if winner == nil {
			return "", fp, utils.WrapError(utils.ErrRegistrationFailed, "conflict row vanished")
		}
		utils.Info(ctx, "registration race resolved to existing record", map[string]interface{}{
			"fingerprint":  fp,
			"content_id":   winner.ContentID,
			"discarded_id": mintedID,
		})
		mintedID = winner.ContentID
	}

	monitoring.RecordRegistryLookup("minted")
	s.backfillCache(ctx, fp, mintedID)
	return mintedID, fp, nil
}

func (s *RegistryService) cachedContentID(ctx context.Context, fp string) string {
	if s.cache == nil {
		return ""
	}
	id, err := s.cache.GetContentID(ctx, fp)
	if err != nil {
		utils.Warn(ctx, "content cache read failed", map[string]interface{}{"error": err.Error()})
		return ""
	}
	return id
}

func (s *RegistryService) backfillCache(ctx context.Context, fp, contentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetContentID(ctx, fp, contentID); err != nil {
		utils.Warn(ctx, "content cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
