package models

import "time"

const (
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusActive            = "active"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusUnpaid            = "unpaid"
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
)

// Subscription is the subscriber↔creator relationship. One row per pair,
// enforced by ux_subscriptions_subscriber_creator. Status is mutated only
// through the subscriptions state machine.
type Subscription struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	SubscriberID          uint       `gorm:"not null;index:ux_subscriptions_subscriber_creator,unique,priority:1" json:"subscriber_id"`
	CreatorID             uint       `gorm:"not null;index:ux_subscriptions_subscriber_creator,unique,priority:2;index" json:"creator_id"`
	PlanID                uint       `gorm:"not null;index" json:"plan_id"`
	Status                string     `gorm:"type:varchar(32);not null;default:'incomplete';index" json:"status"`
	StartedAt             time.Time  `gorm:"type:timestamp;not null" json:"started_at"`
	CurrentPeriodEnd      *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CanceledAt            *time.Time `gorm:"type:timestamp;default:null" json:"canceled_at,omitempty"`
	CancelAtPeriodEnd     bool       `gorm:"default:false" json:"cancel_at_period_end"`
	FailedPaymentCount    int        `gorm:"not null;default:0" json:"failed_payment_count"`
	GatewaySubscriptionID string     `gorm:"type:varchar(191);index:ux_subscriptions_gateway_id,unique" json:"-"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// GrantsPaidAccess reports whether the subscription entitles the subscriber
// to paid content at the given instant. A cancellation is effective at period
// end, not immediately, so canceled rows keep granting access until
// CurrentPeriodEnd passes.
func (s *Subscription) GrantsPaidAccess(now time.Time) bool {
	switch s.Status {
	case SubscriptionStatusTrialing, SubscriptionStatusActive, SubscriptionStatusPastDue:
		return s.CurrentPeriodEnd == nil || s.CurrentPeriodEnd.After(now)
	case SubscriptionStatusCanceled:
		return s.CancelAtPeriodEnd && s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.After(now)
	default:
		return false
	}
}
