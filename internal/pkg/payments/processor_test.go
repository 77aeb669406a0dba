package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkhub-io/inkhub/app/models"
)

const testSecret = "whsec_test"

type fakeRepository struct {
	events        []models.WebhookEvent
	entries       []models.EarningEntry
	subscriptions []models.Subscription
	payouts       []models.PayoutRequest
	purchases     []models.PurchaseRecord
}

func (f *fakeRepository) CreateEntry(entry *models.EarningEntry) error {
	entry.ID = uint(len(f.entries) + 1)
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeRepository) GetEntryBySource(sourceType, sourceID string) (*models.EarningEntry, error) {
	for i := range f.entries {
		if f.entries[i].SourceType == sourceType && f.entries[i].SourceID == sourceID {
			return &f.entries[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListEntriesByCreator(creatorID uint) ([]models.EarningEntry, error) {
	var out []models.EarningEntry
	for _, e := range f.entries {
		if e.CreatorID == creatorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListRecentEntriesByCreator(creatorID uint, limit int) ([]models.EarningEntry, error) {
	return f.ListEntriesByCreator(creatorID)
}

func (f *fakeRepository) ListPayoutsByCreator(creatorID uint) ([]models.PayoutRequest, error) {
	var out []models.PayoutRequest
	for _, p := range f.payouts {
		if p.CreatorID == creatorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepository) GetSubscriptionByGatewayID(gatewayID string) (*models.Subscription, error) {
	for i := range f.subscriptions {
		if f.subscriptions[i].GatewaySubscriptionID == gatewayID {
			return &f.subscriptions[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) UpdateSubscription(sub *models.Subscription) error {
	for i := range f.subscriptions {
		if f.subscriptions[i].ID == sub.ID {
			f.subscriptions[i] = *sub
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetPayoutByUUID(uuid string) (*models.PayoutRequest, error) {
	for i := range f.payouts {
		if f.payouts[i].UUID == uuid {
			return &f.payouts[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetPayoutByGatewayID(gatewayID string) (*models.PayoutRequest, error) {
	for i := range f.payouts {
		if f.payouts[i].GatewayPayoutID == gatewayID && gatewayID != "" {
			return &f.payouts[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) UpdatePayout(p *models.PayoutRequest) error {
	for i := range f.payouts {
		if f.payouts[i].ID == p.ID {
			f.payouts[i] = *p
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreateEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	for i := range f.events {
		if f.events[i].ExternalEventID == event.ExternalEventID {
			return false, &f.events[i], nil
		}
	}
	event.ID = uint(len(f.events) + 1)
	f.events = append(f.events, *event)
	return true, event, nil
}

func (f *fakeRepository) MarkEventProcessed(eventID uint, processingError string) error {
	for i := range f.events {
		if f.events[i].ID == eventID {
			now := time.Now()
			f.events[i].ProcessedAt = &now
			f.events[i].ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetPurchaseByGatewayIntentID(intentID string) (*models.PurchaseRecord, error) {
	for i := range f.purchases {
		if f.purchases[i].GatewayPaymentIntentID == intentID {
			return &f.purchases[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) UpdatePurchase(purchase *models.PurchaseRecord) error {
	for i := range f.purchases {
		if f.purchases[i].ID == purchase.ID {
			f.purchases[i] = *purchase
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepository) InTransaction(fn func(Repository) error) error {
	return fn(f)
}

func signedEvent(t *testing.T, eventID, eventType string, data interface{}) ([]byte, string) {
	t.Helper()

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	body, err := json.Marshal(Envelope{EventID: eventID, EventType: eventType, Data: raw})
	require.NoError(t, err)
	return body, ComputeSignature(body, testSecret)
}

func TestHandleRejectsBadSignature(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{}
	p := NewProcessor(repo, testSecret)

	body, _ := signedEvent(t, "evt_1", EventChargeSucceeded, ChargeData{ChargeID: "ch_1"})
	_, err := p.Handle(context.Background(), body, "deadbeef")
	assert.ErrorIs(t, err, ErrSignatureInvalid)
	assert.Empty(t, repo.events)
}

func TestHandleRejectsMalformedEnvelope(t *testing.T) {
	t.Parallel()

	p := NewProcessor(&fakeRepository{}, testSecret)

	body := []byte(`{"event_type":"charge.succeeded"}`)
	_, err := p.Handle(context.Background(), body, ComputeSignature(body, testSecret))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestHandleTipChargeWritesOneEntry(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{}
	p := NewProcessor(repo, testSecret)

	body, sig := signedEvent(t, "evt_tip", EventChargeSucceeded, ChargeData{
		ChargeID:    "ch_tip",
		AmountCents: 1000,
		Currency:    "usd",
		Purpose:     PurposeTip,
		CreatorID:   9,
	})

	ack, err := p.Handle(context.Background(), body, sig)
	require.NoError(t, err)
	assert.False(t, ack.Duplicate)

	require.Len(t, repo.entries, 1)
	assert.Equal(t, uint(9), repo.entries[0].CreatorID)
	assert.Equal(t, int64(871), repo.entries[0].NetCents)
	require.Len(t, repo.events, 1)
	assert.True(t, repo.events[0].Processed())
}

func TestHandleReplayIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{}
	p := NewProcessor(repo, testSecret)

	body, sig := signedEvent(t, "evt_replay", EventChargeSucceeded, ChargeData{
		ChargeID:    "ch_replay",
		AmountCents: 2000,
		Currency:    "usd",
		Purpose:     PurposeTip,
		CreatorID:   3,
	})

	first, err := p.Handle(context.Background(), body, sig)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := p.Handle(context.Background(), body, sig)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)

	assert.Len(t, repo.entries, 1)
}

func TestHandleDuplicateChargeAcrossEvents(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{}
	p := NewProcessor(repo, testSecret)

	// Same charge delivered under two different event ids; the ledger's
	// source dedup keeps it to one entry.
	for i := 0; i < 2; i++ {
		body, sig := signedEvent(t, fmt.Sprintf("evt_dup_%d", i), EventChargeSucceeded, ChargeData{
			ChargeID:    "ch_same",
			AmountCents: 1500,
			Currency:    "usd",
			Purpose:     PurposeTip,
			CreatorID:   4,
		})
		_, err := p.Handle(context.Background(), body, sig)
		require.NoError(t, err)
	}

	assert.Len(t, repo.entries, 1)
	assert.Len(t, repo.events, 2)
}

func TestHandlePurchaseChargeCompletesPurchase(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{
		purchases: []models.PurchaseRecord{
			{ID: 1, ArticleID: 5, BuyerID: 2, CreatorID: 7, AmountCents: 999, Currency: "usd", GatewayPaymentIntentID: "pi_1", Status: models.PurchaseStatusPending},
		},
	}
	p := NewProcessor(repo, testSecret)

	body, sig := signedEvent(t, "evt_purchase", EventChargeSucceeded, ChargeData{
		ChargeID:        "ch_p1",
		PaymentIntentID: "pi_1",
		AmountCents:     999,
		Currency:        "usd",
		Purpose:         PurposePurchase,
	})

	_, err := p.Handle(context.Background(), body, sig)
	require.NoError(t, err)

	assert.Equal(t, models.PurchaseStatusCompleted, repo.purchases[0].Status)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, uint(7), repo.entries[0].CreatorID)
	assert.Equal(t, int64(999), repo.entries[0].GrossCents)
	assert.Equal(t, int64(872), repo.entries[0].NetCents)
}

func TestHandleUnlinkedPurchaseIsAcknowledged(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{}
	p := NewProcessor(repo, testSecret)

	body, sig := signedEvent(t, "evt_orphan", EventChargeSucceeded, ChargeData{
		ChargeID:        "ch_orphan",
		PaymentIntentID: "pi_missing",
		Purpose:         PurposePurchase,
	})

	ack, err := p.Handle(context.Background(), body, sig)
	require.NoError(t, err)
	assert.True(t, ack.Ignored)
	assert.Empty(t, repo.entries)
	assert.True(t, repo.events[0].Processed())
	assert.NotEmpty(t, repo.events[0].ProcessingError)
}

func TestHandleSubscriptionChargeActivates(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{
		subscriptions: []models.Subscription{
			{ID: 1, SubscriberID: 2, CreatorID: 7, Status: models.SubscriptionStatusIncomplete, GatewaySubscriptionID: "sub_1"},
		},
	}
	p := NewProcessor(repo, testSecret)

	body, sig := signedEvent(t, "evt_sub_pay", EventChargeSucceeded, ChargeData{
		ChargeID:       "ch_s1",
		SubscriptionID: "sub_1",
		AmountCents:    500,
		Currency:       "usd",
		Purpose:        PurposeSubscription,
	})

	_, err := p.Handle(context.Background(), body, sig)
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionStatusActive, repo.subscriptions[0].Status)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, models.EarningSourceSubscription, repo.entries[0].SourceType)
}

func TestHandleChargeFailedEscalates(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{
		subscriptions: []models.Subscription{
			{ID: 1, Status: models.SubscriptionStatusActive, GatewaySubscriptionID: "sub_2"},
		},
	}
	p := NewProcessor(repo, testSecret)

	for i := 0; i < 3; i++ {
		body, sig := signedEvent(t, fmt.Sprintf("evt_fail_%d", i), EventChargeFailed, ChargeData{
			ChargeID:       fmt.Sprintf("ch_f%d", i),
			SubscriptionID: "sub_2",
			Purpose:        PurposeSubscription,
		})
		_, err := p.Handle(context.Background(), body, sig)
		require.NoError(t, err)
	}

	assert.Equal(t, models.SubscriptionStatusUnpaid, repo.subscriptions[0].Status)
	assert.Equal(t, 3, repo.subscriptions[0].FailedPaymentCount)
}

func TestHandleSubscriptionDeleted(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{
		subscriptions: []models.Subscription{
			{ID: 1, Status: models.SubscriptionStatusActive, GatewaySubscriptionID: "sub_3"},
		},
	}
	p := NewProcessor(repo, testSecret)

	body, sig := signedEvent(t, "evt_sub_del", EventSubscriptionDeleted, SubscriptionData{
		SubscriptionID: "sub_3",
	})

	_, err := p.Handle(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCanceled, repo.subscriptions[0].Status)
	assert.NotNil(t, repo.subscriptions[0].CanceledAt)
}

func TestHandleRefundWritesOffset(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{
		purchases: []models.PurchaseRecord{
			{ID: 1, GatewayPaymentIntentID: "pi_r1", Status: models.PurchaseStatusCompleted},
		},
		entries: []models.EarningEntry{
			{ID: 1, CreatorID: 7, SourceType: models.EarningSourcePurchase, SourceID: "ch_r1", GrossCents: 1000, PlatformFeeCents: 100, ProcessingFeeCents: 29, NetCents: 871, Currency: "usd"},
		},
	}
	p := NewProcessor(repo, testSecret)

	body, sig := signedEvent(t, "evt_refund", EventChargeRefunded, RefundData{
		RefundID:        "re_1",
		ChargeID:        "ch_r1",
		PaymentIntentID: "pi_r1",
	})

	_, err := p.Handle(context.Background(), body, sig)
	require.NoError(t, err)

	require.Len(t, repo.entries, 2)
	assert.Equal(t, int64(-871), repo.entries[1].NetCents)
	assert.Equal(t, models.PurchaseStatusRefunded, repo.purchases[0].Status)
}

func TestHandlePayoutPaid(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{
		payouts: []models.PayoutRequest{
			{ID: 1, UUID: "payout-uuid-1", CreatorID: 7, AmountCents: 8000, Status: models.PayoutStatusProcessing, GatewayPayoutID: "po_1"},
		},
	}
	p := NewProcessor(repo, testSecret)

	body, sig := signedEvent(t, "evt_po_paid", EventPayoutPaid, PayoutData{
		PayoutID:       "po_1",
		IdempotencyKey: "payout-uuid-1",
	})

	_, err := p.Handle(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusCompleted, repo.payouts[0].Status)
}

func TestHandleUnknownEventTypeIsIgnored(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{}
	p := NewProcessor(repo, testSecret)

	body, sig := signedEvent(t, "evt_unknown", "invoice.finalized", map[string]string{})
	ack, err := p.Handle(context.Background(), body, sig)
	require.NoError(t, err)
	assert.True(t, ack.Ignored)
	assert.True(t, repo.events[0].Processed())
}
