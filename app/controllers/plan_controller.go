package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/inkhub-io/inkhub/app/models"
	"github.com/inkhub-io/inkhub/app/repository"
	"github.com/inkhub-io/inkhub/internal/pkg/subscriptions"
	"github.com/inkhub-io/inkhub/internal/pkg/usercontext"
)

// CreatePlanRequest describes a new subscription tier.
type CreatePlanRequest struct {
	Name         string `json:"name" validate:"required,min=3,max=100"`
	PriceCents   int64  `json:"price_cents" validate:"required,gt=0"`
	Currency     string `json:"currency" validate:"omitempty,len=3"`
	BenefitsJSON string `json:"benefits_json"`
}

// HandleCreatePlan registers a subscription tier for the calling creator.
func HandleCreatePlan(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsCreator {
		return forbidden(c, "Only creators can offer plans")
	}

	var req CreatePlanRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "Invalid plan payload")
	}
	if req.Currency == "" {
		req.Currency = "usd"
	}

	plan := &models.SubscriptionPlan{
		CreatorID:    userCtx.UserID,
		Name:         req.Name,
		PriceCents:   req.PriceCents,
		Currency:     req.Currency,
		BenefitsJSON: req.BenefitsJSON,
		IsActive:     true,
	}
	if err := repository.GetGlobalFactory().GetPlanRepository().Create(plan); err != nil {
		return internalError(c, "Failed to create plan")
	}

	return c.Status(fiber.StatusCreated).JSON(plan)
}

// HandleListPlans returns the active plans of one creator.
func HandleListPlans(c *fiber.Ctx) error {
	creatorID := c.QueryInt("creator_id")
	if creatorID <= 0 {
		return badRequest(c, "creator_id is required")
	}

	plans, err := repository.GetGlobalFactory().GetPlanRepository().ListByCreator(uint(creatorID))
	if err != nil {
		return internalError(c, "Failed to load plans")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"plans": plans})
}

// UpdatePlanRequest edits a plan. Omitted fields stay unchanged.
type UpdatePlanRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=3,max=100"`
	PriceCents   *int64  `json:"price_cents" validate:"omitempty,gt=0"`
	BenefitsJSON *string `json:"benefits_json"`
}

// HandleUpdatePlan edits a plan's name, benefits, or price. Price changes
// are refused once subscriptions reference the plan.
func HandleUpdatePlan(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	planID, err := c.ParamsInt("id")
	if err != nil || planID <= 0 {
		return badRequest(c, "Invalid plan id")
	}

	var req UpdatePlanRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "Invalid plan payload")
	}

	plan, err := subscriptionService().UpdatePlan(c.UserContext(), userCtx.UserID, uint(planID), subscriptions.PlanUpdate{
		Name:         req.Name,
		PriceCents:   req.PriceCents,
		BenefitsJSON: req.BenefitsJSON,
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return notFound(c, "Plan not found")
		case errors.Is(err, subscriptions.ErrNotOwner):
			return forbidden(c, "Only the plan owner can edit it")
		case errors.Is(err, subscriptions.ErrPlanPriceLocked):
			return conflict(c, "Plan price cannot change while subscriptions reference it")
		}
		return internalError(c, "Failed to update plan")
	}

	return c.Status(fiber.StatusOK).JSON(plan)
}

// HandleDeactivatePlan retires a plan. Existing subscriptions keep running;
// new subscribers are refused by the subscription service.
func HandleDeactivatePlan(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	planID, err := c.ParamsInt("id")
	if err != nil || planID <= 0 {
		return badRequest(c, "Invalid plan id")
	}

	repo := repository.GetGlobalFactory().GetPlanRepository()
	plan, err := repo.GetByID(uint(planID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Plan not found")
		}
		return internalError(c, "Failed to load plan")
	}
	if plan.CreatorID != userCtx.UserID {
		return forbidden(c, "Only the plan owner can deactivate it")
	}

	plan.IsActive = false
	if err := repo.Update(plan); err != nil {
		return internalError(c, "Failed to deactivate plan")
	}

	return c.Status(fiber.StatusOK).JSON(plan)
}
