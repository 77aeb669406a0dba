package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkhub-io/inkhub/app/models"
	"github.com/inkhub-io/inkhub/internal/pkg/gateway"
	"gorm.io/gorm"
)

var (
	// ErrAlreadySubscribed is returned when an entitling subscription for
	// the (subscriber, creator) pair already exists.
	ErrAlreadySubscribed = errors.New("subscriptions: already subscribed to this creator")
	// ErrSelfSubscribe is returned when a creator subscribes to themselves.
	ErrSelfSubscribe = errors.New("subscriptions: cannot subscribe to yourself")
	// ErrPlanInactive is returned for inactive or foreign plans.
	ErrPlanInactive = errors.New("subscriptions: plan is not available")
	// ErrNotOwner is returned when a caller acts on a subscription or plan
	// they do not own.
	ErrNotOwner = errors.New("subscriptions: not the owner")
	// ErrPlanPriceLocked is returned when a price edit targets a plan that
	// subscriptions already reference.
	ErrPlanPriceLocked = errors.New("subscriptions: plan price is locked while subscriptions reference it")
)

// Repository provides DB operations used by the subscription service.
type Repository interface {
	Store
	CreateSubscription(sub *models.Subscription) error
	GetSubscriptionByID(id uint) (*models.Subscription, error)
	GetSubscriptionByPair(subscriberID, creatorID uint) (*models.Subscription, error)
	ListSubscriptionsBySubscriber(subscriberID uint) ([]models.Subscription, error)
	GetPlanByID(id uint) (*models.SubscriptionPlan, error)
	UpdatePlan(plan *models.SubscriptionPlan) error
	CountSubscriptionsByPlan(planID uint) (int64, error)
	GetUserByID(id uint) (*models.User, error)
	UpdateUser(user *models.User) error
}

// Service owns the subscription lifecycle. Status mutations happen only here
// and in the package-level transition functions used by webhook dispatch.
type Service struct {
	repo Repository
	gw   gateway.PaymentGateway
}

// NewService creates a subscription service.
func NewService(repo Repository, gw gateway.PaymentGateway) *Service {
	return &Service{repo: repo, gw: gw}
}

// CreateResult carries the new local row plus the client secret the consumer
// needs to confirm the first payment at the gateway.
type CreateResult struct {
	Subscription *models.Subscription
	ClientSecret string
}

// Create starts a subscription to a creator's plan. The local row is created
// in incomplete and only confirmed gateway events move it to active.
func (s *Service) Create(ctx context.Context, subscriberID, planID uint) (*CreateResult, error) {
	plan, err := s.repo.GetPlanByID(planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}
	if plan.CreatorID == subscriberID {
		return nil, ErrSelfSubscribe
	}

	existing, err := s.repo.GetSubscriptionByPair(subscriberID, plan.CreatorID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil && existing.GrantsPaidAccess(time.Now()) {
		return nil, ErrAlreadySubscribed
	}

	subscriber, err := s.repo.GetUserByID(subscriberID)
	if err != nil {
		return nil, err
	}
	if subscriber.GatewayCustomerID == "" {
		customerID, err := s.gw.CreateCustomer(ctx, subscriber.Email, subscriber.Username)
		if err != nil {
			return nil, err
		}
		subscriber.GatewayCustomerID = customerID
		if err := s.repo.UpdateUser(subscriber); err != nil {
			return nil, err
		}
	}

	if plan.GatewayPriceID == "" {
		priceID, err := s.gw.CreateRecurringPrice(ctx, gateway.RecurringPriceInput{
			ProductName:    plan.Name,
			AmountCents:    plan.PriceCents,
			Currency:       plan.Currency,
			Interval:       "month",
			IdempotencyKey: fmt.Sprintf("plan-price-%d-%d", plan.ID, plan.PriceCents),
		})
		if err != nil {
			return nil, err
		}
		plan.GatewayPriceID = priceID
		if err := s.repo.UpdatePlan(plan); err != nil {
			return nil, err
		}
	}

	var gwSub *gateway.Subscription
	err = gateway.WithRetry(ctx, func(ctx context.Context) error {
		var callErr error
		gwSub, callErr = s.gw.CreateSubscription(ctx, gateway.SubscriptionInput{
			CustomerID:     subscriber.GatewayCustomerID,
			PriceID:        plan.GatewayPriceID,
			IdempotencyKey: fmt.Sprintf("sub-create-%d-%d", subscriberID, plan.ID),
			Metadata: map[string]string{
				"subscriber_id": fmt.Sprintf("%d", subscriberID),
				"creator_id":    fmt.Sprintf("%d", plan.CreatorID),
				"plan_id":       fmt.Sprintf("%d", plan.ID),
			},
		})
		return callErr
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	periodEnd := gwSub.CurrentPeriodEnd
	sub := existing
	if sub == nil {
		sub = &models.Subscription{
			SubscriberID: subscriberID,
			CreatorID:    plan.CreatorID,
		}
	}
	sub.PlanID = plan.ID
	sub.Status = models.SubscriptionStatusIncomplete
	sub.StartedAt = now
	sub.CurrentPeriodEnd = &periodEnd
	sub.CanceledAt = nil
	sub.CancelAtPeriodEnd = false
	sub.FailedPaymentCount = 0
	sub.GatewaySubscriptionID = gwSub.ID

	if sub.ID == 0 {
		err = s.repo.CreateSubscription(sub)
	} else {
		err = s.repo.UpdateSubscription(sub)
	}
	if err != nil {
		return nil, err
	}

	return &CreateResult{Subscription: sub, ClientSecret: gwSub.ClientSecret}, nil
}

// Cancel flags the subscription for cancellation at period end. Access
// persists until CurrentPeriodEnd; the gateway's deletion event later moves
// the row to canceled.
func (s *Service) Cancel(ctx context.Context, subscriberID, subscriptionID uint) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscriptionByID(subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.SubscriberID != subscriberID {
		return nil, ErrNotOwner
	}

	err = gateway.WithRetry(ctx, func(ctx context.Context) error {
		return s.gw.CancelSubscription(ctx, sub.GatewaySubscriptionID, true)
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sub.CancelAtPeriodEnd = true
	sub.CanceledAt = &now
	if err := s.repo.UpdateSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// PlanUpdate carries the editable plan fields. Nil leaves a field unchanged.
type PlanUpdate struct {
	Name         *string
	PriceCents   *int64
	BenefitsJSON *string
}

// UpdatePlan edits a creator's plan. The price is frozen once any
// subscription references the plan; existing subscribers keep the terms
// they agreed to.
func (s *Service) UpdatePlan(ctx context.Context, creatorID, planID uint, update PlanUpdate) (*models.SubscriptionPlan, error) {
	_ = ctx
	plan, err := s.repo.GetPlanByID(planID)
	if err != nil {
		return nil, err
	}
	if plan.CreatorID != creatorID {
		return nil, ErrNotOwner
	}

	if update.PriceCents != nil && *update.PriceCents != plan.PriceCents {
		count, err := s.repo.CountSubscriptionsByPlan(plan.ID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrPlanPriceLocked
		}
		plan.PriceCents = *update.PriceCents
		// The gateway price no longer matches; the next subscribe
		// registers a fresh one.
		plan.GatewayPriceID = ""
	}
	if update.Name != nil {
		plan.Name = *update.Name
	}
	if update.BenefitsJSON != nil {
		plan.BenefitsJSON = *update.BenefitsJSON
	}

	if err := s.repo.UpdatePlan(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ListForSubscriber returns all subscription rows a user holds.
func (s *Service) ListForSubscriber(ctx context.Context, subscriberID uint) ([]models.Subscription, error) {
	_ = ctx
	return s.repo.ListSubscriptionsBySubscriber(subscriberID)
}
