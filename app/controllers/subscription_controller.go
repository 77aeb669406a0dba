package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/inkhub-io/inkhub/internal/pkg/database"
	"github.com/inkhub-io/inkhub/internal/pkg/gateway"
	"github.com/inkhub-io/inkhub/internal/pkg/subscriptions"
	"github.com/inkhub-io/inkhub/internal/pkg/usercontext"
)

// CreateSubscriptionRequest subscribes the caller to a creator's plan.
type CreateSubscriptionRequest struct {
	PlanID uint `json:"plan_id" validate:"required,gt=0"`
}

func subscriptionService() *subscriptions.Service {
	return subscriptions.NewService(
		subscriptions.NewRepository(database.GetDB()),
		gateway.NewStripeGatewayFromEnv(),
	)
}

// HandleCreateSubscription starts a subscription. The returned client secret
// confirms the first payment; the subscription activates via webhook.
func HandleCreateSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req CreateSubscriptionRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "Invalid subscription payload")
	}

	result, err := subscriptionService().Create(c.UserContext(), userCtx.UserID, req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return notFound(c, "Plan not found")
		case errors.Is(err, subscriptions.ErrPlanInactive):
			return conflict(c, "Plan is not available")
		case errors.Is(err, subscriptions.ErrSelfSubscribe):
			return conflict(c, "Cannot subscribe to yourself")
		case errors.Is(err, subscriptions.ErrAlreadySubscribed):
			return conflict(c, "Already subscribed to this creator")
		}
		return internalError(c, "Failed to create subscription")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"subscription":  result.Subscription,
		"client_secret": result.ClientSecret,
	})
}

// HandleCancelSubscription flags a subscription for cancellation at period
// end. Access runs until the paid period expires.
func HandleCancelSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	subID, err := c.ParamsInt("id")
	if err != nil || subID <= 0 {
		return badRequest(c, "Invalid subscription id")
	}

	sub, err := subscriptionService().Cancel(c.UserContext(), userCtx.UserID, uint(subID))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return notFound(c, "Subscription not found")
		case errors.Is(err, subscriptions.ErrNotOwner):
			return forbidden(c, "Not your subscription")
		}
		return internalError(c, "Failed to cancel subscription")
	}

	return c.Status(fiber.StatusOK).JSON(sub)
}

// HandleListSubscriptions returns the caller's subscriptions.
func HandleListSubscriptions(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	subs, err := subscriptionService().ListForSubscriber(c.UserContext(), userCtx.UserID)
	if err != nil {
		return internalError(c, "Failed to load subscriptions")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"subscriptions": subs})
}
