package purchases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkhub-io/inkhub/app/models"
	"github.com/inkhub-io/inkhub/internal/pkg/gateway"
)

type fakeRepository struct {
	articles  []models.Article
	pricings  []models.ArticlePricing
	purchases []models.PurchaseRecord
	subs      []models.Subscription
	users     []models.User
}

func (f *fakeRepository) GetArticleByID(id uint) (*models.Article, error) {
	for i := range f.articles {
		if f.articles[i].ID == id {
			return &f.articles[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetPricingByArticleID(articleID uint) (*models.ArticlePricing, error) {
	for i := range f.pricings {
		if f.pricings[i].ArticleID == articleID {
			return &f.pricings[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetCompletedPurchase(buyerID, articleID uint) (*models.PurchaseRecord, error) {
	return f.purchaseInStatus(buyerID, articleID, models.PurchaseStatusCompleted)
}

func (f *fakeRepository) GetPendingPurchase(buyerID, articleID uint) (*models.PurchaseRecord, error) {
	return f.purchaseInStatus(buyerID, articleID, models.PurchaseStatusPending)
}

func (f *fakeRepository) purchaseInStatus(buyerID, articleID uint, status string) (*models.PurchaseRecord, error) {
	for i := range f.purchases {
		if f.purchases[i].BuyerID == buyerID && f.purchases[i].ArticleID == articleID && f.purchases[i].Status == status {
			return &f.purchases[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreatePurchase(p *models.PurchaseRecord) error {
	p.ID = uint(len(f.purchases) + 1)
	f.purchases = append(f.purchases, *p)
	return nil
}

func (f *fakeRepository) GetSubscriptionByPair(subscriberID, creatorID uint) (*models.Subscription, error) {
	for i := range f.subs {
		if f.subs[i].SubscriberID == subscriberID && f.subs[i].CreatorID == creatorID {
			return &f.subs[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetUserByID(id uint) (*models.User, error) {
	for i := range f.users {
		if f.users[i].ID == id {
			return &f.users[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) UpdateUser(user *models.User) error {
	for i := range f.users {
		if f.users[i].ID == user.ID {
			f.users[i] = *user
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeGateway struct {
	customers int
	intents   []gateway.PaymentIntentInput
}

func (g *fakeGateway) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	g.customers++
	return "cus_new", nil
}

func (g *fakeGateway) CreatePaymentIntent(ctx context.Context, in gateway.PaymentIntentInput) (*gateway.PaymentIntent, error) {
	g.intents = append(g.intents, in)
	return &gateway.PaymentIntent{ID: "pi_new", ClientSecret: "pi_new_secret"}, nil
}

func (g *fakeGateway) CreateSetupIntent(ctx context.Context, customerID, idempotencyKey string) (*gateway.SetupIntent, error) {
	return &gateway.SetupIntent{ID: "seti_new"}, nil
}

func (g *fakeGateway) CreateRecurringPrice(ctx context.Context, in gateway.RecurringPriceInput) (string, error) {
	return "price_new", nil
}

func (g *fakeGateway) CreateSubscription(ctx context.Context, in gateway.SubscriptionInput) (*gateway.Subscription, error) {
	return &gateway.Subscription{ID: "sub_new"}, nil
}

func (g *fakeGateway) CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) error {
	return nil
}

func (g *fakeGateway) CreateConnectAccount(ctx context.Context, email, idempotencyKey string) (*gateway.ConnectAccount, error) {
	return &gateway.ConnectAccount{ID: "acct_new"}, nil
}

func (g *fakeGateway) GetAccountStatus(ctx context.Context, accountID string) (*gateway.AccountStatus, error) {
	return &gateway.AccountStatus{}, nil
}

func (g *fakeGateway) CreatePayout(ctx context.Context, in gateway.PayoutInput) (*gateway.Payout, error) {
	return &gateway.Payout{ID: "po_new"}, nil
}

func (g *fakeGateway) GetPayout(ctx context.Context, accountID, payoutID string) (*gateway.Payout, error) {
	return &gateway.Payout{ID: payoutID}, nil
}

func price(v int64) *int64 { return &v }

func sellableRepo() *fakeRepository {
	return &fakeRepository{
		articles: []models.Article{{ID: 1, AuthorID: 10}},
		pricings: []models.ArticlePricing{{ArticleID: 1, CreatorID: 10, PriceCents: price(500)}},
		users: []models.User{
			{ID: 2, Username: "reader", Email: "reader@example.com"},
			{ID: 10, Username: "author", Email: "author@example.com"},
		},
	}
}

func TestPurchaseCreatesPendingRecord(t *testing.T) {
	t.Parallel()

	repo := sellableRepo()
	gw := &fakeGateway{}
	svc := NewService(repo, gw)

	result, err := svc.Purchase(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, "pi_new_secret", result.ClientSecret)

	require.Len(t, repo.purchases, 1)
	stored := repo.purchases[0]
	assert.Equal(t, models.PurchaseStatusPending, stored.Status)
	assert.Equal(t, uint(10), stored.CreatorID)
	assert.Equal(t, int64(500), stored.AmountCents)
	assert.Equal(t, "pi_new", stored.GatewayPaymentIntentID)

	// The buyer got a gateway customer on first use.
	assert.Equal(t, 1, gw.customers)
	assert.Equal(t, "cus_new", repo.users[0].GatewayCustomerID)

	require.Len(t, gw.intents, 1)
	assert.Equal(t, "purchase", gw.intents[0].Metadata["purpose"])
}

func TestPurchaseRejectsSelfPurchase(t *testing.T) {
	t.Parallel()

	svc := NewService(sellableRepo(), &fakeGateway{})
	_, err := svc.Purchase(context.Background(), 10, 1)
	assert.ErrorIs(t, err, ErrSelfPurchase)
}

func TestPurchaseRejectsUnpricedArticle(t *testing.T) {
	t.Parallel()

	repo := sellableRepo()
	repo.pricings = nil
	svc := NewService(repo, &fakeGateway{})

	_, err := svc.Purchase(context.Background(), 2, 1)
	assert.ErrorIs(t, err, ErrNotPurchasable)
}

func TestPurchaseRejectsRepeatBuy(t *testing.T) {
	t.Parallel()

	repo := sellableRepo()
	repo.purchases = []models.PurchaseRecord{
		{ID: 1, BuyerID: 2, ArticleID: 1, Status: models.PurchaseStatusCompleted},
	}
	svc := NewService(repo, &fakeGateway{})

	_, err := svc.Purchase(context.Background(), 2, 1)
	assert.ErrorIs(t, err, ErrAlreadyPurchased)
}

func TestPurchaseRejectsActiveSubscriber(t *testing.T) {
	t.Parallel()

	periodEnd := time.Now().Add(10 * 24 * time.Hour)
	repo := sellableRepo()
	repo.subs = []models.Subscription{
		{SubscriberID: 2, CreatorID: 10, Status: models.SubscriptionStatusActive, CurrentPeriodEnd: &periodEnd},
	}
	svc := NewService(repo, &fakeGateway{})

	_, err := svc.Purchase(context.Background(), 2, 1)
	assert.ErrorIs(t, err, ErrAlreadyEntitled)
}

func TestPurchaseResumesPendingRecord(t *testing.T) {
	t.Parallel()

	repo := sellableRepo()
	repo.purchases = []models.PurchaseRecord{
		{ID: 1, BuyerID: 2, ArticleID: 1, CreatorID: 10, AmountCents: 500, Currency: "usd", GatewayPaymentIntentID: "pi_old", Status: models.PurchaseStatusPending},
	}
	svc := NewService(repo, &fakeGateway{})

	result, err := svc.Purchase(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.NotNil(t, result.Purchase)

	// No second record was created.
	assert.Len(t, repo.purchases, 1)
}

func TestTip(t *testing.T) {
	t.Parallel()

	repo := sellableRepo()
	gw := &fakeGateway{}
	svc := NewService(repo, gw)

	result, err := svc.Tip(context.Background(), 2, 10, 1500)
	require.NoError(t, err)
	assert.Equal(t, "pi_new_secret", result.ClientSecret)
	require.Len(t, gw.intents, 1)
	assert.Equal(t, "tip", gw.intents[0].Metadata["purpose"])

	_, err = svc.Tip(context.Background(), 2, 2, 1500)
	assert.ErrorIs(t, err, ErrSelfTip)

	_, err = svc.Tip(context.Background(), 2, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidTipAmount)

	_, err = svc.Tip(context.Background(), 2, 99, 1500)
	assert.ErrorIs(t, err, ErrCreatorNotFound)
}
