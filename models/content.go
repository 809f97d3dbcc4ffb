package models

import (
	"time"
)

// LicenseTier is the scope of access granted by a license.
type LicenseTier string

const (
	TierAISnippet  LicenseTier = "ai_snippet"
	TierFullAccess LicenseTier = "full_access"
)

func (t LicenseTier) IsValid() bool {
	return t == TierAISnippet || t == TierFullAccess
}

// Source is an externally discovered content source. Only the ID participates
// in fingerprinting and pricing; the URL is never stored or hashed here.
type Source struct {
	ID      string `json:"id"`
	URL     string `json:"url,omitempty"`
	Title   string `json:"title,omitempty"`
	License string `json:"license,omitempty"`
}

// ContentRecord maps a fingerprint to the content ID issued by the rights
// service. Rows are created exactly once and never updated or deleted.
type ContentRecord struct {
	Fingerprint string    `json:"fingerprint" gorm:"primaryKey;size:32"`
	ContentID   string    `json:"content_id" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (ContentRecord) TableName() string {
	return "content_records"
}

type QuoteRequest struct {
	Query     string   `json:"query"`
	SourceIDs []string `json:"source_ids"`
	Tier      string   `json:"tier,omitempty"`
}

type QuoteResponse struct {
	PriceCents int64       `json:"price_cents"`
	Tier       LicenseTier `json:"tier"`
}

type RegisterContentRequest struct {
	Query      string   `json:"query"`
	SourceIDs  []string `json:"source_ids"`
	PriceCents int64    `json:"price_cents"`
}

type RegisterContentResponse struct {
	ContentID string `json:"content_id"`
}
