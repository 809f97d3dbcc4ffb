package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/malwarebo/payper/models"
	"github.com/malwarebo/payper/monitoring"
	"github.com/malwarebo/payper/utils"
	"github.com/malwarebo/payper/wallet"
)

// Licensing prices source sets and mints access tokens after a charge.
type Licensing interface {
	Quote(ctx context.Context, sourceIDs []string, tier models.LicenseTier) (int64, error)
	MintTokens(ctx context.Context, sourceIDs []string, tier models.LicenseTier) ([]string, error)
}

// AuditRecorder appends terminal purchase outcomes. Failures to record are
// logged and swallowed; the audit trail must never change a purchase result.
type AuditRecorder interface {
	Create(ctx context.Context, audit *models.PurchaseAudit) error
}

// QuoteCache memoizes advisory quotes for a short window so repeated pricing
// of the same source set skips the providers. Never authoritative: the
// purchase path always re-quotes fresh before charging.
type QuoteCache interface {
	GetQuote(ctx context.Context, key string) (int64, bool, error)
	SetQuote(ctx context.Context, key string, amountCents int64, ttl time.Duration) error
}

// quoteCacheTTL is deliberately short; a stale advisory quote is caught by
// the fresh quote at purchase time but still annoys the caller.
const quoteCacheTTL = 30 * time.Second

// PurchaseService drives a purchase attempt through
// QUOTED -> REGISTERED -> ENTITLEMENT_CHECKED -> {ALREADY_OWNED | CHARGED -> FULFILLED}.
// The intent lives only for the attempt; what survives is an entitlement row
// on success and an audit row either way. All cross-attempt races are
// resolved by conditional inserts and the wallet idempotency key, never by
// in-process locks.
type PurchaseService struct {
	registry     *RegistryService
	entitlements *EntitlementService
	licensing    Licensing
	wallet       wallet.Wallet
	audits       AuditRecorder
	quotes       QuoteCache // optional, nil when redis is not configured
}

func CreatePurchaseService(registry *RegistryService, entitlements *EntitlementService, licensing Licensing, w wallet.Wallet, audits AuditRecorder, quotes QuoteCache) *PurchaseService {
	return &PurchaseService{
		registry:     registry,
		entitlements: entitlements,
		licensing:    licensing,
		wallet:       w,
		audits:       audits,
		quotes:       quotes,
	}
}

// Quote prices a source set without side effects.
func (s *PurchaseService) Quote(ctx context.Context, query string, sourceIDs []string, tier models.LicenseTier) (*models.QuoteResponse, error) {
	if tier == "" {
		tier = models.TierAISnippet
	}
	if !tier.IsValid() {
		return nil, utils.WrapError(utils.ErrUnsupportedTier, string(tier))
	}
	if len(sourceIDs) == 0 {
		return nil, utils.WrapError(utils.ErrInvalidRequest, "empty source set")
	}

	key := quoteCacheKey(sourceIDs, tier)
	if cents, ok := s.cachedQuote(ctx, key); ok {
		return &models.QuoteResponse{PriceCents: cents, Tier: tier}, nil
	}

	price, err := s.licensing.Quote(ctx, sourceIDs, tier)
	if err != nil {
		return nil, err
	}
	s.backfillQuote(ctx, key, price)
	return &models.QuoteResponse{PriceCents: price, Tier: tier}, nil
}

// quoteCacheKey canonicalizes the source set so callers quoting the same set
// in a different order share an entry.
func quoteCacheKey(sourceIDs []string, tier models.LicenseTier) string {
	sorted := make([]string, len(sourceIDs))
	copy(sorted, sourceIDs)
	sort.Strings(sorted)
	return strings.Join(sorted, ",") + ":" + string(tier)
}

func (s *PurchaseService) cachedQuote(ctx context.Context, key string) (int64, bool) {
	if s.quotes == nil {
		return 0, false
	}
	cents, ok, err := s.quotes.GetQuote(ctx, key)
	if err != nil {
		utils.Warn(ctx, "quote cache read failed", map[string]interface{}{"error": err.Error()})
		return 0, false
	}
	return cents, ok
}

func (s *PurchaseService) backfillQuote(ctx context.Context, key string, cents int64) {
	if s.quotes == nil {
		return
	}
	if err := s.quotes.SetQuote(ctx, key, cents, quoteCacheTTL); err != nil {
		utils.Warn(ctx, "quote cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

// Purchase executes one attempt end to end. Retrying a failed or interrupted
// attempt with the same request is safe at every stage: registration
// converges on one content record, the debit carries a key stable across
// retries, and the grant is idempotent.
func (s *PurchaseService) Purchase(ctx context.Context, req *models.PurchaseRequest) (*models.PurchaseResponse, error) {
	intent, err := s.newIntent(req)
	if err != nil {
		return nil, s.fail(ctx, intent, models.StageQuote, err)
	}

	// QUOTED. The fresh quote is authoritative; a caller-supplied price that
	// no longer matches means the quote went stale between render and buy.
	price, err := s.licensing.Quote(ctx, intent.SourceIDs, intent.Tier)
	if err != nil {
		return nil, s.fail(ctx, intent, models.StageQuote, err)
	}
	if intent.PriceCents > 0 && intent.PriceCents != price {
		return nil, s.fail(ctx, intent, models.StageQuote,
			utils.WrapError(utils.ErrInvalidRequest, "quoted price is stale"))
	}
	intent.PriceCents = price
	intent.Status = models.StatusQuoted

	// REGISTERED. Skipped when the caller already holds a content ID from a
	// prior register call.
	if intent.ContentID == "" {
		contentID, fp, err := s.registry.RegisterOrReuse(ctx, intent.Query, intent.SourceIDs, intent.PriceCents)
		if err != nil {
			return nil, s.fail(ctx, intent, models.StageRegister, err)
		}
		intent.ContentID = contentID
		intent.Fingerprint = fp
	}
	intent.Status = models.StatusRegistered

	// ENTITLEMENT_CHECKED.
	owned, err := s.entitlements.Has(ctx, intent.UserID, intent.ContentID)
	if err != nil {
		return nil, s.fail(ctx, intent, models.StageEntitlement, err)
	}
	intent.Status = models.StatusEntitlementChecked

	if owned {
		intent.Status = models.StatusAlreadyOwned
		s.record(ctx, intent)
		return &models.PurchaseResponse{
			ContentID:           intent.ContentID,
			Tier:                intent.Tier,
			Status:              models.StatusAlreadyOwned,
			AlreadyOwned:        true,
			FulfillmentArtifact: s.mintArtifact(ctx, intent),
		}, nil
	}

	// CHARGED. The key is derived from (user, content), so a retried attempt
	// after a timeout reuses it and the wallet debits at most once.
	debit := &models.DebitRequest{
		UserID:         intent.UserID,
		AmountCents:    intent.PriceCents,
		IdempotencyKey: wallet.IdempotencyKey(intent.UserID, intent.ContentID),
		Description:    "content purchase " + intent.ContentID,
	}
	if _, err := s.wallet.Debit(ctx, debit); err != nil {
		return nil, s.fail(ctx, intent, models.StageCharge, err)
	}
	intent.Status = models.StatusCharged
	monitoring.RecordWalletDebit()

	// FULFILLED. A duplicate grant returns the existing row, so a crash
	// between debit and grant is repaired by retrying the whole attempt.
	if _, err := s.entitlements.Grant(ctx, intent.UserID, intent.ContentID); err != nil {
		return nil, s.fail(ctx, intent, models.StageFulfill, err)
	}
	intent.Status = models.StatusFulfilled
	s.record(ctx, intent)

	return &models.PurchaseResponse{
		ContentID:           intent.ContentID,
		Tier:                intent.Tier,
		Status:              models.StatusFulfilled,
		FulfillmentArtifact: s.mintArtifact(ctx, intent),
	}, nil
}

func (s *PurchaseService) newIntent(req *models.PurchaseRequest) (*models.PurchaseIntent, error) {
	if req == nil || req.UserID == "" {
		return &models.PurchaseIntent{}, utils.WrapError(utils.ErrInvalidRequest, "user_id is required")
	}

	intent := &models.PurchaseIntent{
		UserID:     req.UserID,
		Query:      req.Query,
		SourceIDs:  req.SourceIDs,
		ContentID:  req.ContentID,
		PriceCents: req.PriceCents,
		Tier:       req.Tier,
		StartedAt:  time.Now().UTC(),
	}
	if intent.Tier == "" {
		intent.Tier = models.TierAISnippet
	}

	if !intent.Tier.IsValid() {
		return intent, utils.WrapError(utils.ErrUnsupportedTier, string(intent.Tier))
	}
	if len(intent.SourceIDs) == 0 {
		return intent, utils.WrapError(utils.ErrInvalidRequest, "empty source set")
	}
	if intent.ContentID == "" && intent.Query == "" {
		return intent, utils.WrapError(utils.ErrInvalidRequest, "query is required to register content")
	}
	if intent.PriceCents < 0 {
		return intent, utils.WrapError(utils.ErrInvalidRequest, "negative price")
	}
	return intent, nil
}

// mintArtifact asks licensing for access tokens. The purchase is already
// settled when this runs, so a mint failure degrades to an empty artifact
// instead of failing a paid attempt; the caller can re-fetch through the
// entitlement path.
func (s *PurchaseService) mintArtifact(ctx context.Context, intent *models.PurchaseIntent) string {
	if len(intent.SourceIDs) == 0 {
		return ""
	}
	tokens, err := s.licensing.MintTokens(ctx, intent.SourceIDs, intent.Tier)
	if err != nil {
		utils.Warn(ctx, "token mint failed after settlement", map[string]interface{}{
			"content_id": intent.ContentID,
			"error":      err.Error(),
		})
		return ""
	}
	return strings.Join(tokens, ",")
}

func (s *PurchaseService) fail(ctx context.Context, intent *models.PurchaseIntent, stage models.PurchaseStage, err error) error {
	intent.Status = models.StatusFailed
	intent.FailedStage = stage
	intent.FailReason = err.Error()
	s.record(ctx, intent)
	monitoring.RecordPurchaseFailure(string(stage))

	utils.Error(ctx, "purchase failed", map[string]interface{}{
		"user_id":    intent.UserID,
		"content_id": intent.ContentID,
		"stage":      string(stage),
		"error":      err.Error(),
	})
	return utils.NewPurchaseError(string(stage), failReason(err), err)
}

func (s *PurchaseService) record(ctx context.Context, intent *models.PurchaseIntent) {
	monitoring.RecordPurchase(string(intent.Status))
	if s.audits == nil {
		return
	}
	audit := &models.PurchaseAudit{
		UserID:      intent.UserID,
		Fingerprint: intent.Fingerprint,
		ContentID:   intent.ContentID,
		PriceCents:  intent.PriceCents,
		Status:      intent.Status,
		FailedStage: intent.FailedStage,
		FailReason:  intent.FailReason,
	}
	if err := s.audits.Create(ctx, audit); err != nil {
		utils.Warn(ctx, "audit write failed", map[string]interface{}{"error": err.Error()})
	}
}

// failReason collapses an error chain into the short reason code surfaced to
// callers alongside the stage.
func failReason(err error) string {
	switch {
	case errors.Is(err, utils.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, utils.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, utils.ErrUnsupportedTier):
		return "unsupported_tier"
	case errors.Is(err, utils.ErrPricingUnavailable):
		return "pricing_unavailable"
	case errors.Is(err, utils.ErrRegistrationFailed):
		return "registration_failed"
	case errors.Is(err, utils.ErrWalletUnavailable):
		return "wallet_unavailable"
	case errors.Is(err, utils.ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, utils.ErrUpstreamRejected):
		return "upstream_rejected"
	default:
		return "internal"
	}
}
