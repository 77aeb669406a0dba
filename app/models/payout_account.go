package models

import "time"

// PayoutAccount links a creator to their Connect account at the payment
// gateway. Disbursements are refused until onboarding is complete and the
// gateway reports payouts as enabled.
type PayoutAccount struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"not null;unique" json:"user_id"`
	GatewayAccountID   string    `gorm:"type:varchar(191);not null;unique" json:"-"`
	OnboardingComplete bool      `gorm:"default:false" json:"onboarding_complete"`
	PayoutsEnabled     bool      `gorm:"default:false" json:"payouts_enabled"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
