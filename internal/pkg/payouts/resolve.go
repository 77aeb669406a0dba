package payouts

import (
	"errors"
	"time"

	"github.com/inkhub-io/inkhub/app/models"
	"gorm.io/gorm"
)

// Store is the minimal persistence surface for resolving payouts from
// confirmed gateway callbacks. The payment event processor supplies a
// transaction-bound implementation.
type Store interface {
	GetPayoutByUUID(uuid string) (*models.PayoutRequest, error)
	GetPayoutByGatewayID(gatewayID string) (*models.PayoutRequest, error)
	UpdatePayout(p *models.PayoutRequest) error
	ListPayoutsByCreator(creatorID uint) ([]models.PayoutRequest, error)
}

// ErrPayoutNotFound is returned when neither the idempotency key nor the
// gateway payout id matches a local record.
var ErrPayoutNotFound = errors.New("payouts: payout not found")

// findPayout resolves a payout by the idempotency key echoed back by the
// gateway, falling back to the gateway's own payout id.
func findPayout(store Store, key, gatewayID string) (*models.PayoutRequest, error) {
	if key != "" {
		payout, err := store.GetPayoutByUUID(key)
		if err == nil {
			return payout, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	payout, err := store.GetPayoutByGatewayID(gatewayID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPayoutNotFound
	}
	return payout, err
}

// ResolvePaid completes a payout on a confirmed disbursement callback.
// Replays are no-ops.
func ResolvePaid(store Store, key, gatewayID string, now time.Time) error {
	payout, err := findPayout(store, key, gatewayID)
	if err != nil {
		return err
	}
	if payout.Status == models.PayoutStatusCompleted {
		return nil
	}
	if payout.IsTerminal() {
		return errors.New("payouts: paid callback for terminal payout")
	}

	payout.Status = models.PayoutStatusCompleted
	payout.CompletedAt = &now
	if payout.GatewayPayoutID == "" {
		payout.GatewayPayoutID = gatewayID
	}
	return store.UpdatePayout(payout)
}

// ResolveFailed fails a payout on a confirmed gateway failure, releasing its
// reservation. Replays are no-ops.
func ResolveFailed(store Store, key, gatewayID, reason string, now time.Time) error {
	payout, err := findPayout(store, key, gatewayID)
	if err != nil {
		return err
	}
	if payout.Status == models.PayoutStatusFailed {
		return nil
	}
	if payout.IsTerminal() {
		return errors.New("payouts: failed callback for terminal payout")
	}

	payout.Status = models.PayoutStatusFailed
	payout.FailureReason = reason
	payout.FailedAt = &now
	if payout.GatewayPayoutID == "" {
		payout.GatewayPayoutID = gatewayID
	}
	return store.UpdatePayout(payout)
}
