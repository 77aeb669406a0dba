package subscriptions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkhub-io/inkhub/app/models"
)

type fakeStore struct {
	subs []models.Subscription
}

func (f *fakeStore) GetSubscriptionByGatewayID(gatewayID string) (*models.Subscription, error) {
	for i := range f.subs {
		if f.subs[i].GatewaySubscriptionID == gatewayID {
			return &f.subs[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) UpdateSubscription(sub *models.Subscription) error {
	for i := range f.subs {
		if f.subs[i].ID == sub.ID {
			f.subs[i] = *sub
			return nil
		}
	}
	f.subs = append(f.subs, *sub)
	return nil
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from string
		to   string
		want bool
	}{
		{models.SubscriptionStatusIncomplete, models.SubscriptionStatusActive, true},
		{models.SubscriptionStatusIncomplete, models.SubscriptionStatusIncompleteExpired, true},
		{models.SubscriptionStatusActive, models.SubscriptionStatusPastDue, true},
		{models.SubscriptionStatusPastDue, models.SubscriptionStatusActive, true},
		{models.SubscriptionStatusPastDue, models.SubscriptionStatusUnpaid, true},
		{models.SubscriptionStatusUnpaid, models.SubscriptionStatusActive, true},
		{models.SubscriptionStatusCanceled, models.SubscriptionStatusActive, false},
		{models.SubscriptionStatusIncompleteExpired, models.SubscriptionStatusActive, false},
		{models.SubscriptionStatusActive, models.SubscriptionStatusIncomplete, false},
		// Replays of the current status are no-ops, not violations.
		{models.SubscriptionStatusActive, models.SubscriptionStatusActive, true},
		{models.SubscriptionStatusCanceled, models.SubscriptionStatusCanceled, true},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestMarkPaymentSucceededClearsFailures(t *testing.T) {
	t.Parallel()

	store := &fakeStore{subs: []models.Subscription{
		{ID: 1, Status: models.SubscriptionStatusPastDue, FailedPaymentCount: 2},
	}}
	sub := &store.subs[0]

	periodEnd := time.Now().Add(30 * 24 * time.Hour)
	require.NoError(t, MarkPaymentSucceeded(store, sub, &periodEnd))

	assert.Equal(t, models.SubscriptionStatusActive, store.subs[0].Status)
	assert.Equal(t, 0, store.subs[0].FailedPaymentCount)
	require.NotNil(t, store.subs[0].CurrentPeriodEnd)
}

func TestMarkPaymentFailedEscalation(t *testing.T) {
	t.Parallel()

	store := &fakeStore{subs: []models.Subscription{
		{ID: 1, Status: models.SubscriptionStatusActive},
	}}
	sub := &store.subs[0]

	require.NoError(t, MarkPaymentFailed(store, sub))
	assert.Equal(t, models.SubscriptionStatusPastDue, sub.Status)

	require.NoError(t, MarkPaymentFailed(store, sub))
	assert.Equal(t, models.SubscriptionStatusPastDue, sub.Status)

	require.NoError(t, MarkPaymentFailed(store, sub))
	assert.Equal(t, models.SubscriptionStatusUnpaid, sub.Status)
	assert.Equal(t, 3, sub.FailedPaymentCount)
}

func TestApplyGatewayStatusIgnoresIllegalMove(t *testing.T) {
	t.Parallel()

	store := &fakeStore{subs: []models.Subscription{
		{ID: 1, Status: models.SubscriptionStatusCanceled},
	}}
	sub := &store.subs[0]

	require.NoError(t, ApplyGatewayStatus(store, sub, models.SubscriptionStatusActive, false, nil))
	assert.Equal(t, models.SubscriptionStatusCanceled, store.subs[0].Status)
}

func TestGrantsPaidAccess(t *testing.T) {
	t.Parallel()

	now := time.Now()
	future := now.Add(7 * 24 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		sub  models.Subscription
		want bool
	}{
		{"active", models.Subscription{Status: models.SubscriptionStatusActive, CurrentPeriodEnd: &future}, true},
		{"trialing", models.Subscription{Status: models.SubscriptionStatusTrialing, CurrentPeriodEnd: &future}, true},
		{"past_due keeps access", models.Subscription{Status: models.SubscriptionStatusPastDue, CurrentPeriodEnd: &future}, true},
		{"active but period lapsed", models.Subscription{Status: models.SubscriptionStatusActive, CurrentPeriodEnd: &past}, false},
		{"canceled at period end, period running", models.Subscription{Status: models.SubscriptionStatusCanceled, CancelAtPeriodEnd: true, CurrentPeriodEnd: &future}, true},
		{"canceled at period end, period over", models.Subscription{Status: models.SubscriptionStatusCanceled, CancelAtPeriodEnd: true, CurrentPeriodEnd: &past}, false},
		{"canceled immediately", models.Subscription{Status: models.SubscriptionStatusCanceled, CurrentPeriodEnd: &future}, false},
		{"unpaid", models.Subscription{Status: models.SubscriptionStatusUnpaid, CurrentPeriodEnd: &future}, false},
		{"incomplete", models.Subscription{Status: models.SubscriptionStatusIncomplete, CurrentPeriodEnd: &future}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.GrantsPaidAccess(now))
		})
	}
}
