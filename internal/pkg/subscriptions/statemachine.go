package subscriptions

import (
	"time"

	"github.com/inkhub-io/inkhub/app/models"
)

// maxFailedPayments is the number of failed renewal charges tolerated in
// past_due before the subscription drops to unpaid.
const maxFailedPayments = 3

// transitions is the closed set of legal status changes. Statuses are driven
// only by user create/cancel actions and confirmed gateway events.
var transitions = map[string][]string{
	models.SubscriptionStatusIncomplete: {
		models.SubscriptionStatusActive,
		models.SubscriptionStatusTrialing,
		models.SubscriptionStatusIncompleteExpired,
		models.SubscriptionStatusCanceled,
	},
	models.SubscriptionStatusTrialing: {
		models.SubscriptionStatusActive,
		models.SubscriptionStatusPastDue,
		models.SubscriptionStatusCanceled,
		models.SubscriptionStatusUnpaid,
	},
	models.SubscriptionStatusActive: {
		models.SubscriptionStatusPastDue,
		models.SubscriptionStatusCanceled,
		models.SubscriptionStatusUnpaid,
	},
	models.SubscriptionStatusPastDue: {
		models.SubscriptionStatusActive,
		models.SubscriptionStatusUnpaid,
		models.SubscriptionStatusCanceled,
	},
	models.SubscriptionStatusUnpaid: {
		models.SubscriptionStatusActive,
		models.SubscriptionStatusCanceled,
	},
	models.SubscriptionStatusCanceled:          {},
	models.SubscriptionStatusIncompleteExpired: {},
}

// CanTransition reports whether moving from one status to another is legal.
// A no-op transition (same status) is always allowed so replayed gateway
// events stay idempotent.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Store is the minimal persistence surface the transition functions need.
// The payment event processor supplies a transaction-bound implementation.
type Store interface {
	GetSubscriptionByGatewayID(gatewayID string) (*models.Subscription, error)
	UpdateSubscription(sub *models.Subscription) error
}

// MarkPaymentSucceeded activates the subscription after a confirmed charge
// and clears the failure counter.
func MarkPaymentSucceeded(store Store, sub *models.Subscription, periodEnd *time.Time) error {
	if !CanTransition(sub.Status, models.SubscriptionStatusActive) {
		return nil
	}
	sub.Status = models.SubscriptionStatusActive
	sub.FailedPaymentCount = 0
	if periodEnd != nil {
		sub.CurrentPeriodEnd = periodEnd
	}
	return store.UpdateSubscription(sub)
}

// MarkPaymentFailed counts a failed renewal charge. The subscription moves to
// past_due, and to unpaid once the retry budget is exhausted.
func MarkPaymentFailed(store Store, sub *models.Subscription) error {
	sub.FailedPaymentCount++
	target := models.SubscriptionStatusPastDue
	if sub.FailedPaymentCount >= maxFailedPayments {
		target = models.SubscriptionStatusUnpaid
	}
	if !CanTransition(sub.Status, target) {
		return nil
	}
	sub.Status = target
	return store.UpdateSubscription(sub)
}

// ApplyGatewayStatus syncs a confirmed provider-side status change.
func ApplyGatewayStatus(store Store, sub *models.Subscription, status string, cancelAtPeriodEnd bool, periodEnd *time.Time) error {
	if !CanTransition(sub.Status, status) {
		return nil
	}
	sub.Status = status
	sub.CancelAtPeriodEnd = cancelAtPeriodEnd
	if periodEnd != nil {
		sub.CurrentPeriodEnd = periodEnd
	}
	if status == models.SubscriptionStatusCanceled && sub.CanceledAt == nil {
		now := time.Now()
		sub.CanceledAt = &now
	}
	return store.UpdateSubscription(sub)
}
