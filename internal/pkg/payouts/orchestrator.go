package payouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/inkhub-io/inkhub/app/models"
	"github.com/inkhub-io/inkhub/internal/pkg/gateway"
	"github.com/inkhub-io/inkhub/internal/pkg/ledger"
)

var (
	// ErrInsufficientBalance is returned when the requested amount exceeds
	// the creator's available balance at request time.
	ErrInsufficientBalance = errors.New("payouts: insufficient available balance")
	// ErrBelowMinimum is returned when the requested amount is under the
	// configured payout floor.
	ErrBelowMinimum = errors.New("payouts: amount below minimum payout")
	// ErrNotOwner is returned when a caller acts on a payout they do not own.
	ErrNotOwner = errors.New("payouts: not the payout owner")
	// ErrNotCancellable is returned when cancelling a payout that already
	// left pending.
	ErrNotCancellable = errors.New("payouts: only pending payouts can be cancelled")
	// ErrInvalidDestination is returned for an empty destination reference.
	ErrInvalidDestination = errors.New("payouts: destination is required")
)

// DefaultMinimumPayoutCents is the payout floor when none is configured.
const DefaultMinimumPayoutCents = 5000

// Repository provides DB operations used by the payout orchestrator. It
// embeds the ledger repository because every payout decision starts from a
// freshly derived balance.
type Repository interface {
	ledger.Repository
	Store
	CreatePayout(p *models.PayoutRequest) error
	GetPayoutByID(id uint) (*models.PayoutRequest, error)
	ListPayoutsInStatusOlderThan(status string, cutoff time.Time) ([]models.PayoutRequest, error)
}

// Locker serializes the balance-read-then-reserve critical section per
// creator. Production wires a redsync mutex; tests use an in-process one.
type Locker interface {
	WithLock(name string, fn func() error) error
}

// Orchestrator drives payout requests from creation through gateway
// disbursement to a terminal state.
type Orchestrator struct {
	repo      Repository
	ledgerSvc *ledger.Service
	gw        gateway.PaymentGateway
	locker    Locker
	minPayout int64
	now       func() time.Time
}

// NewOrchestrator creates a payout orchestrator.
func NewOrchestrator(repo Repository, gw gateway.PaymentGateway, locker Locker, minPayoutCents int64) *Orchestrator {
	if minPayoutCents <= 0 {
		minPayoutCents = DefaultMinimumPayoutCents
	}
	return &Orchestrator{
		repo:      repo,
		ledgerSvc: ledger.NewService(repo),
		gw:        gw,
		locker:    locker,
		minPayout: minPayoutCents,
		now:       time.Now,
	}
}

// Request reserves balance and creates a pending payout. The balance read
// and the reservation happen under a per-creator lock, so two concurrent
// requests can never both claim the same funds.
func (o *Orchestrator) Request(ctx context.Context, creatorID uint, amountCents int64, destinationID string) (*models.PayoutRequest, error) {
	if amountCents <= 0 {
		return nil, ErrBelowMinimum
	}
	if strings.TrimSpace(destinationID) == "" {
		return nil, ErrInvalidDestination
	}

	var payout *models.PayoutRequest
	err := o.locker.WithLock(fmt.Sprintf("payout:creator:%d", creatorID), func() error {
		now := o.now()
		balance, err := o.ledgerSvc.BalanceFor(ctx, creatorID, now)
		if err != nil {
			return err
		}
		if amountCents < o.minPayout {
			return ErrBelowMinimum
		}
		if amountCents > balance.AvailableCents {
			return ErrInsufficientBalance
		}

		payout = &models.PayoutRequest{
			UUID:          uuid.NewString(),
			CreatorID:     creatorID,
			AmountCents:   amountCents,
			Currency:      balance.Currency,
			DestinationID: destinationID,
			Status:        models.PayoutStatusPending,
			RequestedAt:   now,
		}
		return o.repo.CreatePayout(payout)
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// Submit moves a pending payout to processing and sends the disbursement to
// the gateway. Transient gateway failures leave the row in processing for
// the reconciler; permanent failures terminate it and release the funds.
func (o *Orchestrator) Submit(ctx context.Context, payout *models.PayoutRequest) error {
	if payout.Status != models.PayoutStatusPending {
		return fmt.Errorf("payouts: cannot submit payout in status %s", payout.Status)
	}

	now := o.now()
	payout.Status = models.PayoutStatusProcessing
	payout.SubmittedAt = &now
	if err := o.repo.UpdatePayout(payout); err != nil {
		return err
	}

	var gwPayout *gateway.Payout
	err := gateway.WithRetry(ctx, func(ctx context.Context) error {
		var callErr error
		gwPayout, callErr = o.gw.CreatePayout(ctx, gateway.PayoutInput{
			AccountID:      payout.DestinationID,
			AmountCents:    payout.AmountCents,
			Currency:       payout.Currency,
			IdempotencyKey: payout.UUID,
		})
		return callErr
	})
	if err != nil {
		if gateway.IsTransient(err) {
			// Leave the row in processing; the reconciler or the gateway
			// callback resolves it.
			log.Warnf("[Payouts] disbursement for %s still unresolved: %v", payout.UUID, err)
			return err
		}
		return o.failLocked(payout, err.Error())
	}

	payout.GatewayPayoutID = gwPayout.ID
	return o.repo.UpdatePayout(payout)
}

// Cancel aborts a pending payout and releases its reservation. A processing
// payout can only be unwound by the gateway's own failure path.
func (o *Orchestrator) Cancel(ctx context.Context, creatorID, payoutID uint) (*models.PayoutRequest, error) {
	_ = ctx
	payout, err := o.repo.GetPayoutByID(payoutID)
	if err != nil {
		return nil, err
	}
	if payout.CreatorID != creatorID {
		return nil, ErrNotOwner
	}
	if payout.Status != models.PayoutStatusPending {
		return nil, ErrNotCancellable
	}

	now := o.now()
	payout.Status = models.PayoutStatusCancelled
	payout.CancelledAt = &now
	if err := o.repo.UpdatePayout(payout); err != nil {
		return nil, err
	}
	return payout, nil
}

// ListForCreator returns a creator's payout history.
func (o *Orchestrator) ListForCreator(ctx context.Context, creatorID uint) ([]models.PayoutRequest, error) {
	_ = ctx
	return o.repo.ListPayoutsByCreator(creatorID)
}

func (o *Orchestrator) failLocked(payout *models.PayoutRequest, reason string) error {
	now := o.now()
	payout.Status = models.PayoutStatusFailed
	payout.FailureReason = reason
	payout.FailedAt = &now
	return o.repo.UpdatePayout(payout)
}
