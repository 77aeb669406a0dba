package models

import "time"

const (
	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusFailed     = "failed"
	PayoutStatusCancelled  = "cancelled"
)

// PayoutRequest reserves part of a creator's available balance at creation
// time and is advanced only by the payout orchestrator.
type PayoutRequest struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UUID            string     `gorm:"type:varchar(36);not null;unique" json:"uuid"`
	CreatorID       uint       `gorm:"not null;index:idx_payouts_creator_status,priority:1" json:"creator_id"`
	AmountCents     int64      `gorm:"not null" json:"amount_cents"`
	Currency        string     `gorm:"type:char(3);not null;default:'usd'" json:"currency"`
	DestinationID   string     `gorm:"type:varchar(191);not null" json:"destination_id"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_payouts_creator_status,priority:2" json:"status"`
	GatewayPayoutID string     `gorm:"type:varchar(191);index" json:"-"`
	FailureReason   string     `gorm:"type:text" json:"failure_reason,omitempty"`
	RequestedAt     time.Time  `gorm:"type:timestamp;not null" json:"requested_at"`
	SubmittedAt     *time.Time `gorm:"type:timestamp;default:null" json:"submitted_at,omitempty"`
	CompletedAt     *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	FailedAt        *time.Time `gorm:"type:timestamp;default:null" json:"failed_at,omitempty"`
	CancelledAt     *time.Time `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the request can no longer change state.
func (p *PayoutRequest) IsTerminal() bool {
	switch p.Status {
	case PayoutStatusCompleted, PayoutStatusFailed, PayoutStatusCancelled:
		return true
	default:
		return false
	}
}

// Reserves reports whether the request still claims funds out of the
// creator's available balance. Failed and cancelled requests release their
// reservation; completed requests keep the funds settled.
func (p *PayoutRequest) Reserves() bool {
	switch p.Status {
	case PayoutStatusPending, PayoutStatusProcessing, PayoutStatusCompleted:
		return true
	default:
		return false
	}
}
