package models

import "time"

const (
	EarningSourceSubscription = "subscription"
	EarningSourcePurchase     = "purchase"
	EarningSourceTip          = "tip"
)

// EarningEntry is an immutable, append-only ledger row. There is no update or
// delete path; corrections are written as offsetting negative entries. The
// (source_type, source_id) unique index is the second line of defense against
// replayed charge events.
type EarningEntry struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	CreatorID           uint      `gorm:"not null;index:idx_earnings_creator_created,priority:1" json:"creator_id"`
	SourceType          string    `gorm:"type:varchar(20);not null;index:ux_earnings_source,unique,priority:1" json:"source_type"`
	SourceID            string    `gorm:"type:varchar(191);not null;index:ux_earnings_source,unique,priority:2" json:"source_id"`
	GrossCents          int64     `gorm:"not null" json:"gross_cents"`
	PlatformFeeCents    int64     `gorm:"not null" json:"platform_fee_cents"`
	ProcessingFeeCents  int64     `gorm:"not null" json:"processing_fee_cents"`
	NetCents            int64     `gorm:"not null" json:"net_cents"`
	Currency            string    `gorm:"type:char(3);not null;default:'usd'" json:"currency"`
	CreatedAt           time.Time `gorm:"autoCreateTime;index:idx_earnings_creator_created,priority:2" json:"created_at"`
}
