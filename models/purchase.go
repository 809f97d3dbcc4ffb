package models

import (
	"time"
)

// PurchaseStage identifies where in the flow a purchase attempt is, or where
// it failed.
type PurchaseStage string

const (
	StageQuote       PurchaseStage = "quote"
	StageRegister    PurchaseStage = "register"
	StageEntitlement PurchaseStage = "entitlement"
	StageCharge      PurchaseStage = "charge"
	StageFulfill     PurchaseStage = "fulfill"
)

// PurchaseStatus is the state-machine status of a purchase attempt.
type PurchaseStatus string

const (
	StatusQuoted             PurchaseStatus = "quoted"
	StatusRegistered         PurchaseStatus = "registered"
	StatusEntitlementChecked PurchaseStatus = "entitlement_checked"
	StatusCharged            PurchaseStatus = "charged"
	StatusFulfilled          PurchaseStatus = "fulfilled"
	StatusAlreadyOwned       PurchaseStatus = "already_owned"
	StatusFailed             PurchaseStatus = "failed"
)

// PurchaseIntent is the transient per-attempt state owned by the orchestrator.
// It is never persisted; only the terminal outcome leaves the attempt, as an
// entitlement row or an audit row.
type PurchaseIntent struct {
	UserID      string
	Query       string
	SourceIDs   []string
	Fingerprint string
	ContentID   string
	PriceCents  int64
	Tier        LicenseTier
	Status      PurchaseStatus
	FailedStage PurchaseStage
	FailReason  string
	StartedAt   time.Time
}

type PurchaseRequest struct {
	UserID     string   `json:"user_id"`
	Query      string   `json:"query"`
	SourceIDs  []string `json:"source_ids"`
	PriceCents int64    `json:"price_cents"`
	// Tier defaults to ai_snippet when empty.
	Tier LicenseTier `json:"tier,omitempty"`
	// ContentID skips inline registration when the caller already holds one
	// from a prior register call.
	ContentID string `json:"content_id,omitempty"`
}

type PurchaseResponse struct {
	ContentID           string         `json:"content_id"`
	Tier                LicenseTier    `json:"tier"`
	Status              PurchaseStatus `json:"status"`
	AlreadyOwned        bool           `json:"already_owned"`
	FulfillmentArtifact string         `json:"fulfillment_artifact,omitempty"`
}

// PurchaseAudit records the terminal outcome of a purchase attempt. It is an
// operational trail only; nothing in the purchase path reads it back.
type PurchaseAudit struct {
	ID          string         `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID      string         `json:"user_id" gorm:"not null;index"`
	Fingerprint string         `json:"fingerprint" gorm:"size:32;index"`
	ContentID   string         `json:"content_id"`
	PriceCents  int64          `json:"price_cents"`
	Status      PurchaseStatus `json:"status" gorm:"not null"`
	FailedStage PurchaseStage  `json:"failed_stage,omitempty"`
	FailReason  string         `json:"fail_reason,omitempty"`
	Metadata    JSON           `json:"metadata" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

func (PurchaseAudit) TableName() string {
	return "purchase_audits"
}
