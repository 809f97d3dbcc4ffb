package models

import (
	"time"
)

// Entitlement records that a user has paid for a content ID. Unique per
// (user_id, content_id); created only on a successful charge.
type Entitlement struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID    string    `json:"user_id" gorm:"not null;uniqueIndex:idx_entitlements_user_content"`
	ContentID string    `json:"content_id" gorm:"not null;uniqueIndex:idx_entitlements_user_content"`
	GrantedAt time.Time `json:"granted_at" gorm:"autoCreateTime"`
}

func (Entitlement) TableName() string {
	return "entitlements"
}

type EntitlementCheckResponse struct {
	Owned bool `json:"owned"`
}
