package models

import "time"

// ArticlePricing is the per-article paywall override. An article without a
// pricing row is free.
type ArticlePricing struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	ArticleID            uint      `gorm:"not null;unique" json:"article_id"`
	CreatorID            uint      `gorm:"not null;index" json:"creator_id"`
	PriceCents           *int64    `gorm:"default:null" json:"price_cents,omitempty"`
	SubscriptionRequired bool      `gorm:"default:false" json:"subscription_required"`
	PreviewPercent       int       `gorm:"not null;default:30" json:"preview_percent"`
	PaywallMessage       string    `gorm:"type:varchar(255)" json:"paywall_message"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// AllowsOneTimePurchase reports whether the article can be bought outright.
func (p *ArticlePricing) AllowsOneTimePurchase() bool {
	return p.PriceCents != nil && *p.PriceCents > 0
}

// AllowsPreview reports whether non-paying readers get a partial rendering.
func (p *ArticlePricing) AllowsPreview() bool {
	return p.PreviewPercent > 0
}
