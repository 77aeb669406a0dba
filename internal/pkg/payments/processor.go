package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/inkhub-io/inkhub/app/models"
	"github.com/inkhub-io/inkhub/internal/pkg/ledger"
	"github.com/inkhub-io/inkhub/internal/pkg/payouts"
	"github.com/inkhub-io/inkhub/internal/pkg/subscriptions"
)

var (
	ErrSignatureInvalid = errors.New("webhook signature invalid")

	// errUnlinked marks events that reference no known local record. They
	// are acknowledged and recorded but produce no state change.
	errUnlinked = errors.New("event references no known record")
)

// Repository is the persistence surface the processor needs. It embeds the
// store interfaces of the downstream packages so one transaction-bound
// instance can drive ledger writes, subscription transitions, payout
// resolution and event bookkeeping atomically.
type Repository interface {
	ledger.Repository
	subscriptions.Store
	payouts.Store

	// CreateEventIfNotExists inserts the event keyed by external_event_id.
	// It reports created=false and returns the stored row when the id was
	// already present.
	CreateEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkEventProcessed(eventID uint, processingError string) error

	GetPurchaseByGatewayIntentID(intentID string) (*models.PurchaseRecord, error)
	UpdatePurchase(purchase *models.PurchaseRecord) error

	// InTransaction runs fn against a repository bound to a single database
	// transaction; fn returning an error rolls everything back.
	InTransaction(fn func(Repository) error) error
}

// Ack is the processor's answer to one delivery. Duplicate and Ignored
// both still acknowledge so the gateway stops retrying.
type Ack struct {
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
	Ignored   bool   `json:"ignored"`
}

// Processor consumes gateway webhook deliveries exactly once.
type Processor struct {
	repo   Repository
	secret string
	now    func() time.Time
}

func NewProcessor(repo Repository, webhookSecret string) *Processor {
	return &Processor{repo: repo, secret: webhookSecret, now: time.Now}
}

// Handle verifies, deduplicates and dispatches one raw webhook delivery.
// A nil error means the delivery is acknowledged; ErrSignatureInvalid and
// ErrMalformedEvent must be answered with a client error, everything else
// with a server error so the gateway redelivers.
func (p *Processor) Handle(ctx context.Context, rawBody []byte, signature string) (*Ack, error) {
	if !VerifySignature(rawBody, signature, p.secret) {
		return nil, ErrSignatureInvalid
	}

	var env Envelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedEvent, err)
	}
	if env.EventID == "" || env.EventType == "" {
		return nil, fmt.Errorf("%w: missing event_id or event_type", ErrMalformedEvent)
	}

	created, stored, err := p.repo.CreateEventIfNotExists(&models.WebhookEvent{
		ExternalEventID: env.EventID,
		EventType:       env.EventType,
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record webhook event: %w", err)
	}
	if !created && stored.Processed() {
		log.Debugf("Webhook event %s already processed, acknowledging", env.EventID)
		return &Ack{EventID: env.EventID, Duplicate: true}, nil
	}

	event, err := ParseEvent(&env)
	if err != nil {
		return nil, err
	}
	if event == nil {
		// Unknown event type. Remember it and move on.
		if err := p.repo.MarkEventProcessed(stored.ID, "unhandled event type"); err != nil {
			return nil, err
		}
		return &Ack{EventID: env.EventID, Ignored: true}, nil
	}

	err = p.repo.InTransaction(func(tx Repository) error {
		if err := p.dispatch(ctx, tx, event); err != nil {
			return err
		}
		return tx.MarkEventProcessed(stored.ID, "")
	})
	if errors.Is(err, errUnlinked) {
		log.Warnf("Webhook event %s (%s): %v", env.EventID, env.EventType, err)
		if markErr := p.repo.MarkEventProcessed(stored.ID, err.Error()); markErr != nil {
			return nil, markErr
		}
		return &Ack{EventID: env.EventID, Ignored: true}, nil
	}
	if err != nil {
		return nil, err
	}

	log.Infof("Processed webhook event %s (%s)", env.EventID, env.EventType)
	return &Ack{EventID: env.EventID}, nil
}

func (p *Processor) dispatch(ctx context.Context, tx Repository, event Event) error {
	switch e := event.(type) {
	case ChargeSucceeded:
		return p.handleChargeSucceeded(ctx, tx, e.ChargeData)
	case ChargeFailed:
		return p.handleChargeFailed(tx, e.ChargeData)
	case ChargeRefunded:
		return p.handleChargeRefunded(ctx, tx, e.RefundData)
	case SubscriptionUpdated:
		return p.handleSubscriptionChange(tx, e.SubscriptionData)
	case SubscriptionDeleted:
		d := e.SubscriptionData
		d.Status = models.SubscriptionStatusCanceled
		return p.handleSubscriptionChange(tx, d)
	case PayoutPaid:
		return p.resolvePayout(tx, e.PayoutData, true)
	case PayoutFailed:
		return p.resolvePayout(tx, e.PayoutData, false)
	default:
		return fmt.Errorf("no handler for event type %s", event.eventType())
	}
}

func (p *Processor) handleChargeSucceeded(ctx context.Context, tx Repository, d ChargeData) error {
	ledgerSvc := ledger.NewService(tx)

	switch d.Purpose {
	case PurposePurchase:
		purchase, err := tx.GetPurchaseByGatewayIntentID(d.PaymentIntentID)
		if err != nil {
			return fmt.Errorf("%w: no purchase for intent %s", errUnlinked, d.PaymentIntentID)
		}
		if purchase.Status != models.PurchaseStatusCompleted {
			purchase.Status = models.PurchaseStatusCompleted
			if err := tx.UpdatePurchase(purchase); err != nil {
				return err
			}
		}
		_, err = ledgerSvc.RecordEarning(ctx, purchase.CreatorID, models.EarningSourcePurchase, d.ChargeID, purchase.AmountCents, purchase.Currency)
		if errors.Is(err, ledger.ErrDuplicateSource) {
			return nil
		}
		return err

	case PurposeSubscription:
		sub, err := tx.GetSubscriptionByGatewayID(d.SubscriptionID)
		if err != nil {
			return fmt.Errorf("%w: no subscription %s", errUnlinked, d.SubscriptionID)
		}
		if err := subscriptions.MarkPaymentSucceeded(tx, sub, nil); err != nil {
			return err
		}
		_, err = ledgerSvc.RecordEarning(ctx, sub.CreatorID, models.EarningSourceSubscription, d.ChargeID, d.AmountCents, d.Currency)
		if errors.Is(err, ledger.ErrDuplicateSource) {
			return nil
		}
		return err

	case PurposeTip:
		if d.CreatorID == 0 {
			return fmt.Errorf("%w: tip charge %s has no creator", errUnlinked, d.ChargeID)
		}
		_, err := ledgerSvc.RecordEarning(ctx, d.CreatorID, models.EarningSourceTip, d.ChargeID, d.AmountCents, d.Currency)
		if errors.Is(err, ledger.ErrDuplicateSource) {
			return nil
		}
		return err

	default:
		return fmt.Errorf("%w: charge %s has unknown purpose %q", errUnlinked, d.ChargeID, d.Purpose)
	}
}

func (p *Processor) handleChargeFailed(tx Repository, d ChargeData) error {
	switch d.Purpose {
	case PurposePurchase:
		purchase, err := tx.GetPurchaseByGatewayIntentID(d.PaymentIntentID)
		if err != nil {
			return fmt.Errorf("%w: no purchase for intent %s", errUnlinked, d.PaymentIntentID)
		}
		if purchase.Status == models.PurchaseStatusPending {
			purchase.Status = models.PurchaseStatusFailed
			return tx.UpdatePurchase(purchase)
		}
		return nil

	case PurposeSubscription:
		sub, err := tx.GetSubscriptionByGatewayID(d.SubscriptionID)
		if err != nil {
			return fmt.Errorf("%w: no subscription %s", errUnlinked, d.SubscriptionID)
		}
		return subscriptions.MarkPaymentFailed(tx, sub)

	default:
		// A failed tip never produced local state.
		return nil
	}
}

func (p *Processor) handleChargeRefunded(ctx context.Context, tx Repository, d RefundData) error {
	original, err := tx.GetEntryBySource(models.EarningSourcePurchase, d.ChargeID)
	if err != nil || original == nil {
		if original, err = tx.GetEntryBySource(models.EarningSourceTip, d.ChargeID); err != nil || original == nil {
			if original, err = tx.GetEntryBySource(models.EarningSourceSubscription, d.ChargeID); err != nil || original == nil {
				return fmt.Errorf("%w: no earning for refunded charge %s", errUnlinked, d.ChargeID)
			}
		}
	}

	ledgerSvc := ledger.NewService(tx)
	if _, err := ledgerSvc.RecordOffset(ctx, original, d.RefundID); err != nil && !errors.Is(err, ledger.ErrDuplicateSource) {
		return err
	}

	if d.PaymentIntentID != "" {
		if purchase, err := tx.GetPurchaseByGatewayIntentID(d.PaymentIntentID); err == nil {
			if purchase.Status != models.PurchaseStatusRefunded {
				purchase.Status = models.PurchaseStatusRefunded
				return tx.UpdatePurchase(purchase)
			}
		}
	}
	return nil
}

func (p *Processor) handleSubscriptionChange(tx Repository, d SubscriptionData) error {
	sub, err := tx.GetSubscriptionByGatewayID(d.SubscriptionID)
	if err != nil {
		return fmt.Errorf("%w: no subscription %s", errUnlinked, d.SubscriptionID)
	}
	var periodEnd *time.Time
	if d.CurrentPeriodEnd > 0 {
		t := time.Unix(d.CurrentPeriodEnd, 0).UTC()
		periodEnd = &t
	}
	return subscriptions.ApplyGatewayStatus(tx, sub, d.Status, d.CancelAtPeriodEnd, periodEnd)
}

func (p *Processor) resolvePayout(tx Repository, d PayoutData, paid bool) error {
	var err error
	if paid {
		err = payouts.ResolvePaid(tx, d.IdempotencyKey, d.PayoutID, p.now())
	} else {
		err = payouts.ResolveFailed(tx, d.IdempotencyKey, d.PayoutID, d.FailureCode, p.now())
	}
	if errors.Is(err, payouts.ErrPayoutNotFound) {
		return fmt.Errorf("%w: no payout for %s", errUnlinked, d.PayoutID)
	}
	return err
}
