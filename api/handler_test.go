package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/malwarebo/payper/models"
	"github.com/malwarebo/payper/monitoring"
	"github.com/malwarebo/payper/services"
	"github.com/malwarebo/payper/utils"
)

type memContentStore struct {
	mu   sync.Mutex
	rows map[string]*models.ContentRecord
}

func (s *memContentStore) GetByFingerprint(ctx context.Context, fp string) (*models.ContentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rows[fp]; ok {
		return r, nil
	}
	return nil, nil
}

func (s *memContentStore) CreateIfAbsent(ctx context.Context, record *models.ContentRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows == nil {
		s.rows = make(map[string]*models.ContentRecord)
	}
	if _, ok := s.rows[record.Fingerprint]; ok {
		return false, nil
	}
	s.rows[record.Fingerprint] = record
	return true, nil
}

type memRegistrar struct {
	mu    sync.Mutex
	calls int
}

func (r *memRegistrar) Register(ctx context.Context, query string, sourceIDs []string, priceCents int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return fmt.Sprintf("content_%03d", r.calls), nil
}

type memEntitlementStore struct {
	mu   sync.Mutex
	rows map[string]*models.Entitlement
}

func (s *memEntitlementStore) Has(ctx context.Context, userID, contentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[userID+"/"+contentID]
	return ok, nil
}

func (s *memEntitlementStore) GrantIfAbsent(ctx context.Context, userID, contentID string) (*models.Entitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows == nil {
		s.rows = make(map[string]*models.Entitlement)
	}
	k := userID + "/" + contentID
	if e, ok := s.rows[k]; ok {
		return e, nil
	}
	e := &models.Entitlement{UserID: userID, ContentID: contentID}
	s.rows[k] = e
	return e, nil
}

func (s *memEntitlementStore) ListByUser(ctx context.Context, userID string) ([]*models.Entitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Entitlement
	for _, e := range s.rows {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memWallet struct {
	insufficient bool
}

func (w *memWallet) Debit(ctx context.Context, req *models.DebitRequest) (*models.DebitResponse, error) {
	if w.insufficient {
		return nil, utils.ErrInsufficientFunds
	}
	return &models.DebitResponse{TransactionID: "txn_001", NewBalanceCents: 500}, nil
}

func (w *memWallet) Credit(ctx context.Context, req *models.CreditRequest) (*models.CreditResponse, error) {
	return &models.CreditResponse{TransactionID: "txn_002"}, nil
}

func (w *memWallet) IsAvailable(ctx context.Context) bool {
	return true
}

type memLicensing struct{}

func (memLicensing) Quote(ctx context.Context, sourceIDs []string, tier models.LicenseTier) (int64, error) {
	return 100 * int64(len(sourceIDs)), nil
}

func (memLicensing) MintTokens(ctx context.Context, sourceIDs []string, tier models.LicenseTier) ([]string, error) {
	tokens := make([]string, len(sourceIDs))
	for i, id := range sourceIDs {
		tokens[i] = "tok_" + id
	}
	return tokens, nil
}

type testEnv struct {
	purchase     *PurchaseHandler
	content      *ContentHandler
	entitlements *EntitlementHandler
	wallet       *memWallet
	entStore     *memEntitlementStore
}

func newTestEnv() *testEnv {
	w := &memWallet{}
	entStore := &memEntitlementStore{}
	registry := services.CreateRegistryService(&memContentStore{}, &memRegistrar{}, nil)
	entSvc := services.CreateEntitlementService(entStore)
	purchaseSvc := services.CreatePurchaseService(registry, entSvc, memLicensing{}, w, nil, nil)

	return &testEnv{
		purchase:     CreatePurchaseHandler(purchaseSvc),
		content:      CreateContentHandler(registry),
		entitlements: CreateEntitlementHandler(entSvc),
		wallet:       w,
		entStore:     entStore,
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewBuffer(data))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestHandlePurchase_Success(t *testing.T) {
	env := newTestEnv()

	w := postJSON(t, env.purchase.HandlePurchase, "/api/v1/purchases", models.PurchaseRequest{
		UserID:    "user_42",
		Query:     "ai trends in 2024",
		SourceIDs: []string{"src_001", "src_002"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("HandlePurchase() status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp models.PurchaseResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != models.StatusFulfilled {
		t.Errorf("status = %s, want %s", resp.Status, models.StatusFulfilled)
	}
	if resp.ContentID == "" {
		t.Error("missing content_id")
	}
	if resp.FulfillmentArtifact == "" {
		t.Error("missing fulfillment artifact")
	}
}

func TestHandlePurchase_InsufficientFundsMapsTo402(t *testing.T) {
	env := newTestEnv()
	env.wallet.insufficient = true

	w := postJSON(t, env.purchase.HandlePurchase, "/api/v1/purchases", models.PurchaseRequest{
		UserID:    "user_42",
		Query:     "ai trends in 2024",
		SourceIDs: []string{"src_001"},
	})

	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("HandlePurchase() status = %d, want %d", w.Code, http.StatusPaymentRequired)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Stage != string(models.StageCharge) {
		t.Errorf("stage = %q, want %q", resp.Stage, models.StageCharge)
	}
	if resp.Reason != "insufficient_funds" {
		t.Errorf("reason = %q, want insufficient_funds", resp.Reason)
	}
}

func TestHandlePurchase_InvalidBody(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest("POST", "/api/v1/purchases", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	env.purchase.HandlePurchase(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("HandlePurchase() status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandlePurchase_EmptySourceSetMapsTo400(t *testing.T) {
	env := newTestEnv()

	w := postJSON(t, env.purchase.HandlePurchase, "/api/v1/purchases", models.PurchaseRequest{
		UserID: "user_42",
		Query:  "no sources",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("HandlePurchase() status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleQuote_Success(t *testing.T) {
	env := newTestEnv()

	w := postJSON(t, env.purchase.HandleQuote, "/api/v1/quotes", models.QuoteRequest{
		Query:     "ai trends in 2024",
		SourceIDs: []string{"src_001", "src_002", "src_003"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("HandleQuote() status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp models.QuoteResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PriceCents != 300 {
		t.Errorf("price_cents = %d, want 300", resp.PriceCents)
	}
	if resp.Tier != models.TierAISnippet {
		t.Errorf("tier = %s, want %s", resp.Tier, models.TierAISnippet)
	}
}

func TestHandleRegister_RepeatReturnsSameContentID(t *testing.T) {
	env := newTestEnv()

	req := models.RegisterContentRequest{
		Query:      "ai trends in 2024",
		SourceIDs:  []string{"src_001", "src_002"},
		PriceCents: 300,
	}

	var ids [2]string
	for i := 0; i < 2; i++ {
		w := postJSON(t, env.content.HandleRegister, "/api/v1/content/register", req)
		if w.Code != http.StatusOK {
			t.Fatalf("HandleRegister() status = %d, want %d", w.Code, http.StatusOK)
		}
		var resp models.RegisterContentResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		ids[i] = resp.ContentID
	}

	if ids[0] == "" || ids[0] != ids[1] {
		t.Errorf("content IDs = %q, %q; want identical non-empty", ids[0], ids[1])
	}
}

func TestHandleCheck_OwnershipFlag(t *testing.T) {
	env := newTestEnv()

	check := func(want bool) {
		t.Helper()
		req := httptest.NewRequest("GET", "/api/v1/entitlements?user_id=user_42&content_id=content_001", nil)
		w := httptest.NewRecorder()
		env.entitlements.HandleCheck(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("HandleCheck() status = %d, want %d", w.Code, http.StatusOK)
		}
		var resp models.EntitlementCheckResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Owned != want {
			t.Errorf("owned = %v, want %v", resp.Owned, want)
		}
	}

	check(false)
	if _, err := env.entStore.GrantIfAbsent(context.Background(), "user_42", "content_001"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	check(true)
}

func TestHandleCheck_MissingUserIDMapsTo400(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest("GET", "/api/v1/entitlements?content_id=content_001", nil)
	w := httptest.NewRecorder()
	env.entitlements.HandleCheck(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("HandleCheck() status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHealthHandler_AllChecksPassing(t *testing.T) {
	checker := monitoring.CreateHealthChecker()
	checker.AddCheck("database", func(ctx context.Context) error { return nil })
	checker.AddCheck("wallet", func(ctx context.Context) error { return nil })
	h := CreateHealthHandler(checker)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h.HandleCheck(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("HandleCheck() status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
	if len(resp.Checks) != 2 {
		t.Errorf("len(checks) = %d, want 2", len(resp.Checks))
	}
}

func TestHealthHandler_FailingProbeMapsTo503(t *testing.T) {
	checker := monitoring.CreateHealthChecker()
	checker.AddCheck("database", func(ctx context.Context) error { return nil })
	checker.AddCheck("redis", func(ctx context.Context) error { return errors.New("connection refused") })
	h := CreateHealthHandler(checker)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h.HandleCheck(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("HandleCheck() status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("status = %q, want unhealthy", resp.Status)
	}
	if resp.Checks["redis"].Status != monitoring.Unhealthy {
		t.Errorf("redis check status = %q, want %q", resp.Checks["redis"].Status, monitoring.Unhealthy)
	}
	if resp.Checks["database"].Status != monitoring.Healthy {
		t.Errorf("database check status = %q, want %q", resp.Checks["database"].Status, monitoring.Healthy)
	}
}
