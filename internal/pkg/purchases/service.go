package purchases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/inkhub-io/inkhub/app/models"
	"github.com/inkhub-io/inkhub/internal/pkg/gateway"
)

var (
	ErrNotPurchasable   = errors.New("purchases: article is not for sale")
	ErrAlreadyPurchased = errors.New("purchases: article already purchased")
	ErrAlreadyEntitled  = errors.New("purchases: already entitled through subscription")
	ErrSelfPurchase     = errors.New("purchases: cannot buy own article")
	ErrArticleNotFound  = errors.New("purchases: article not found")
	ErrInvalidTipAmount = errors.New("purchases: tip amount must be positive")
	ErrCreatorNotFound  = errors.New("purchases: creator not found")
	ErrSelfTip          = errors.New("purchases: cannot tip yourself")
)

// Repository is the persistence surface of the purchase service.
type Repository interface {
	GetArticleByID(id uint) (*models.Article, error)
	GetPricingByArticleID(articleID uint) (*models.ArticlePricing, error)
	GetCompletedPurchase(buyerID, articleID uint) (*models.PurchaseRecord, error)
	GetPendingPurchase(buyerID, articleID uint) (*models.PurchaseRecord, error)
	CreatePurchase(p *models.PurchaseRecord) error
	GetSubscriptionByPair(subscriberID, creatorID uint) (*models.Subscription, error)
	GetUserByID(id uint) (*models.User, error)
	UpdateUser(user *models.User) error
}

// Service creates payment intents for one-time article purchases and tips.
// The matching charge.succeeded webhook completes the records.
type Service struct {
	repo Repository
	gw   gateway.PaymentGateway
}

func NewService(repo Repository, gw gateway.PaymentGateway) *Service {
	return &Service{repo: repo, gw: gw}
}

// CheckoutResult carries what the client needs to confirm the payment.
type CheckoutResult struct {
	Purchase     *models.PurchaseRecord `json:"purchase,omitempty"`
	ClientSecret string                 `json:"client_secret"`
}

// Purchase starts a one-time purchase of an article. The record stays
// pending until the gateway confirms the charge.
func (s *Service) Purchase(ctx context.Context, buyerID, articleID uint) (*CheckoutResult, error) {
	article, err := s.repo.GetArticleByID(articleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	if article.AuthorID == buyerID {
		return nil, ErrSelfPurchase
	}

	pricing, err := s.repo.GetPricingByArticleID(article.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotPurchasable
		}
		return nil, err
	}
	if !pricing.AllowsOneTimePurchase() {
		return nil, ErrNotPurchasable
	}

	if existing, err := s.repo.GetCompletedPurchase(buyerID, article.ID); err == nil && existing != nil {
		return nil, ErrAlreadyPurchased
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if sub, err := s.repo.GetSubscriptionByPair(buyerID, article.AuthorID); err == nil && sub != nil && sub.GrantsPaidAccess(time.Now()) {
		return nil, ErrAlreadyEntitled
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// A pending purchase for the same pair is resumed, not duplicated.
	if pending, err := s.repo.GetPendingPurchase(buyerID, article.ID); err == nil && pending != nil {
		intent, err := s.retrieveOrRecreateIntent(ctx, buyerID, pending)
		if err != nil {
			return nil, err
		}
		return &CheckoutResult{Purchase: pending, ClientSecret: intent.ClientSecret}, nil
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	customerID, err := s.ensureGatewayCustomer(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	var intent *gateway.PaymentIntent
	err = gateway.WithRetry(ctx, func(ctx context.Context) error {
		var callErr error
		intent, callErr = s.gw.CreatePaymentIntent(ctx, gateway.PaymentIntentInput{
			CustomerID:     customerID,
			AmountCents:    *pricing.PriceCents,
			Currency:       "usd",
			IdempotencyKey: fmt.Sprintf("purchase-%d-%d", buyerID, article.ID),
			Metadata: map[string]string{
				"purpose":    "purchase",
				"article_id": fmt.Sprintf("%d", article.ID),
				"buyer_id":   fmt.Sprintf("%d", buyerID),
				"creator_id": fmt.Sprintf("%d", article.AuthorID),
			},
		})
		return callErr
	})
	if err != nil {
		return nil, err
	}

	purchase := &models.PurchaseRecord{
		ArticleID:              article.ID,
		BuyerID:                buyerID,
		CreatorID:              article.AuthorID,
		AmountCents:            *pricing.PriceCents,
		Currency:               "usd",
		GatewayPaymentIntentID: intent.ID,
		Status:                 models.PurchaseStatusPending,
	}
	if err := s.repo.CreatePurchase(purchase); err != nil {
		return nil, err
	}

	return &CheckoutResult{Purchase: purchase, ClientSecret: intent.ClientSecret}, nil
}

// Tip starts a direct tip payment to a creator. Nothing is stored locally;
// the charge.succeeded webhook writes the ledger entry.
func (s *Service) Tip(ctx context.Context, tipperID, creatorID uint, amountCents int64) (*CheckoutResult, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidTipAmount
	}
	if tipperID == creatorID {
		return nil, ErrSelfTip
	}
	if _, err := s.repo.GetUserByID(creatorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCreatorNotFound
		}
		return nil, err
	}

	customerID, err := s.ensureGatewayCustomer(ctx, tipperID)
	if err != nil {
		return nil, err
	}

	var intent *gateway.PaymentIntent
	err = gateway.WithRetry(ctx, func(ctx context.Context) error {
		var callErr error
		intent, callErr = s.gw.CreatePaymentIntent(ctx, gateway.PaymentIntentInput{
			CustomerID:     customerID,
			AmountCents:    amountCents,
			Currency:       "usd",
			IdempotencyKey: fmt.Sprintf("tip-%d-%d-%d", tipperID, creatorID, time.Now().Unix()),
			Metadata: map[string]string{
				"purpose":    "tip",
				"tipper_id":  fmt.Sprintf("%d", tipperID),
				"creator_id": fmt.Sprintf("%d", creatorID),
			},
		})
		return callErr
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{ClientSecret: intent.ClientSecret}, nil
}

func (s *Service) ensureGatewayCustomer(ctx context.Context, userID uint) (string, error) {
	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	if user.GatewayCustomerID != "" {
		return user.GatewayCustomerID, nil
	}

	customerID, err := s.gw.CreateCustomer(ctx, user.Email, user.Username)
	if err != nil {
		return "", err
	}
	user.GatewayCustomerID = customerID
	if err := s.repo.UpdateUser(user); err != nil {
		return "", err
	}
	return customerID, nil
}

// retrieveOrRecreateIntent reissues an intent for a resumed pending purchase.
// The idempotency key makes this a retrieve on the gateway side.
func (s *Service) retrieveOrRecreateIntent(ctx context.Context, buyerID uint, pending *models.PurchaseRecord) (*gateway.PaymentIntent, error) {
	customerID, err := s.ensureGatewayCustomer(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	var intent *gateway.PaymentIntent
	err = gateway.WithRetry(ctx, func(ctx context.Context) error {
		var callErr error
		intent, callErr = s.gw.CreatePaymentIntent(ctx, gateway.PaymentIntentInput{
			CustomerID:     customerID,
			AmountCents:    pending.AmountCents,
			Currency:       pending.Currency,
			IdempotencyKey: fmt.Sprintf("purchase-%d-%d", buyerID, pending.ArticleID),
			Metadata: map[string]string{
				"purpose":    "purchase",
				"article_id": fmt.Sprintf("%d", pending.ArticleID),
				"buyer_id":   fmt.Sprintf("%d", buyerID),
				"creator_id": fmt.Sprintf("%d", pending.CreatorID),
			},
		})
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return intent, nil
}
