package models

import "time"

// SubscriptionPlan is a creator-owned recurring price. The price is immutable
// once subscriptions exist against the plan; price changes require a new plan
// and never rewrite existing billing periods.
type SubscriptionPlan struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatorID      uint      `gorm:"not null;index" json:"creator_id"`
	Name           string    `gorm:"type:varchar(100);not null" json:"name"`
	PriceCents     int64     `gorm:"not null" json:"price_cents"`
	Currency       string    `gorm:"type:char(3);not null;default:'usd'" json:"currency"`
	BenefitsJSON   string    `gorm:"type:text" json:"benefits_json"`
	IsActive       bool      `gorm:"default:true;index" json:"is_active"`
	GatewayPriceID string    `gorm:"type:varchar(191)" json:"-"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
