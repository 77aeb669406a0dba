package reconcile

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/robfig/cron/v3"

	"github.com/inkhub-io/inkhub/app/models"
	"github.com/inkhub-io/inkhub/internal/pkg/gateway"
	"github.com/inkhub-io/inkhub/internal/pkg/payouts"
	"github.com/inkhub-io/inkhub/internal/pkg/subscriptions"
)

const (
	// payoutStaleAfter is how long a payout may sit in processing before we
	// ask the gateway what happened to it.
	payoutStaleAfter = 15 * time.Minute

	// incompleteExpiredAfter matches the gateway's own expiry for
	// subscriptions whose first payment never arrived.
	incompleteExpiredAfter = 24 * time.Hour

	lockName = "reconcile:run"
)

// Repository is the persistence surface of the reconciler.
type Repository interface {
	payouts.Store
	subscriptions.Store
	ListPayoutsInStatusOlderThan(status string, cutoff time.Time) ([]models.PayoutRequest, error)
	ListSubscriptionsInStatusOlderThan(status string, cutoff time.Time) ([]models.Subscription, error)
}

// Reconciler repairs state the webhook stream missed. It confirms stuck
// payouts against the gateway and expires subscriptions that never
// completed their first payment. The redsync lock keeps concurrent
// instances from running the same sweep.
type Reconciler struct {
	repo   Repository
	gw     gateway.PaymentGateway
	locker payouts.Locker
	cron   *cron.Cron
	now    func() time.Time
}

func NewReconciler(repo Repository, gw gateway.PaymentGateway, locker payouts.Locker) *Reconciler {
	return &Reconciler{
		repo:   repo,
		gw:     gw,
		locker: locker,
		cron:   cron.New(),
		now:    time.Now,
	}
}

// Start schedules the sweep on the given cron spec and runs until Stop.
func (r *Reconciler) Start(spec string) error {
	_, err := r.cron.AddFunc(spec, func() {
		if err := r.RunOnce(context.Background()); err != nil {
			log.Errorf("Reconcile sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	log.Infof("Reconciler started with schedule %q", spec)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (r *Reconciler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// RunOnce performs a single sweep under the cluster-wide lock.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	return r.locker.WithLock(lockName, func() error {
		if err := r.reconcilePayouts(ctx); err != nil {
			return err
		}
		return r.expireIncompleteSubscriptions()
	})
}

func (r *Reconciler) reconcilePayouts(ctx context.Context) error {
	cutoff := r.now().Add(-payoutStaleAfter)
	stuck, err := r.repo.ListPayoutsInStatusOlderThan(models.PayoutStatusProcessing, cutoff)
	if err != nil {
		return err
	}

	for i := range stuck {
		payout := &stuck[i]
		if payout.GatewayPayoutID == "" {
			// Submission never reached the gateway. The orchestrator's
			// idempotency key makes a resubmit safe, but that is an
			// operator decision; just surface it.
			log.Warnf("Payout %s stuck in processing with no gateway id", payout.UUID)
			continue
		}

		remote, err := r.gw.GetPayout(ctx, payout.DestinationID, payout.GatewayPayoutID)
		if err != nil {
			log.Warnf("Failed to look up payout %s at gateway: %v", payout.UUID, err)
			continue
		}

		switch remote.Status {
		case "paid":
			err = payouts.ResolvePaid(r.repo, payout.UUID, remote.ID, r.now())
		case "failed", "canceled":
			err = payouts.ResolveFailed(r.repo, payout.UUID, remote.ID, remote.FailureMessage, r.now())
		default:
			// Still in flight at the gateway.
			continue
		}
		if err != nil {
			log.Errorf("Failed to resolve payout %s: %v", payout.UUID, err)
			continue
		}
		log.Infof("Reconciled payout %s to gateway status %s", payout.UUID, remote.Status)
	}
	return nil
}

func (r *Reconciler) expireIncompleteSubscriptions() error {
	cutoff := r.now().Add(-incompleteExpiredAfter)
	stale, err := r.repo.ListSubscriptionsInStatusOlderThan(models.SubscriptionStatusIncomplete, cutoff)
	if err != nil {
		return err
	}

	for i := range stale {
		sub := &stale[i]
		if err := subscriptions.ApplyGatewayStatus(r.repo, sub, models.SubscriptionStatusIncompleteExpired, false, nil); err != nil {
			log.Errorf("Failed to expire subscription %d: %v", sub.ID, err)
			continue
		}
		log.Infof("Expired incomplete subscription %d", sub.ID)
	}
	return nil
}
