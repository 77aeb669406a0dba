package models

import "time"

const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
	PurchaseStatusRefunded  = "refunded"
)

// PurchaseRecord is a one-time sale of one article to one buyer. At most one
// completed row may exist per (buyer, article); the purchase service enforces
// this before creating a new pending row.
type PurchaseRecord struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	ArticleID              uint      `gorm:"not null;index:idx_purchases_buyer_article,priority:2" json:"article_id"`
	BuyerID                uint      `gorm:"not null;index:idx_purchases_buyer_article,priority:1" json:"buyer_id"`
	CreatorID              uint      `gorm:"not null;index" json:"creator_id"`
	AmountCents            int64     `gorm:"not null" json:"amount_cents"`
	Currency               string    `gorm:"type:char(3);not null;default:'usd'" json:"currency"`
	GatewayPaymentIntentID string    `gorm:"type:varchar(191);index:ux_purchases_gateway_intent,unique" json:"-"`
	Status                 string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt              time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
