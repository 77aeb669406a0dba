package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/inkhub-io/inkhub/app/repository"
	"github.com/inkhub-io/inkhub/internal/pkg/database"
	"github.com/inkhub-io/inkhub/internal/pkg/env"
	"github.com/inkhub-io/inkhub/internal/pkg/gateway"
	"github.com/inkhub-io/inkhub/internal/pkg/payouts"
	"github.com/inkhub-io/inkhub/internal/pkg/usercontext"
)

// CreatePayoutRequest asks for a disbursement of available balance.
type CreatePayoutRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"required,gt=0"`
}

func payoutOrchestrator() *payouts.Orchestrator {
	return payouts.NewOrchestrator(
		payouts.NewRepository(database.GetDB()),
		gateway.NewStripeGatewayFromEnv(),
		payouts.NewRedsyncLocker(),
		env.GetEnvInt64("MINIMUM_PAYOUT_CENTS", payouts.DefaultMinimumPayoutCents),
	)
}

// HandleRequestPayout reserves available balance and submits a disbursement
// to the creator's Connect account.
func HandleRequestPayout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsCreator {
		return forbidden(c, "Only creators can request payouts")
	}

	var req CreatePayoutRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "Invalid payout payload")
	}

	account, err := repository.GetGlobalFactory().GetPayoutAccountRepository().GetByUserID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conflict(c, "No payout account; complete Connect onboarding first")
		}
		return internalError(c, "Failed to load payout account")
	}
	if !account.OnboardingComplete || !account.PayoutsEnabled {
		return conflict(c, "Payout account is not ready for disbursements")
	}

	orch := payoutOrchestrator()
	payout, err := orch.Request(c.UserContext(), userCtx.UserID, req.AmountCents, account.GatewayAccountID)
	if err != nil {
		switch {
		case errors.Is(err, payouts.ErrBelowMinimum):
			return badRequest(c, "Amount is below the minimum payout")
		case errors.Is(err, payouts.ErrInsufficientBalance):
			return conflict(c, "Insufficient available balance")
		}
		return internalError(c, "Failed to create payout")
	}

	// Submission failures leave the row for the reconciler; the request
	// itself already succeeded.
	if err := orch.Submit(c.UserContext(), payout); err != nil {
		log.Warnf("Payout %s submitted with error: %v", payout.UUID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(payout)
}

// HandleListPayouts returns the caller's payout history.
func HandleListPayouts(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsCreator {
		return forbidden(c, "Only creators have payouts")
	}

	list, err := payoutOrchestrator().ListForCreator(c.UserContext(), userCtx.UserID)
	if err != nil {
		return internalError(c, "Failed to load payouts")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"payouts": list})
}

// HandleCancelPayout aborts a payout that has not been submitted yet.
func HandleCancelPayout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	payoutID, err := c.ParamsInt("id")
	if err != nil || payoutID <= 0 {
		return badRequest(c, "Invalid payout id")
	}

	payout, err := payoutOrchestrator().Cancel(c.UserContext(), userCtx.UserID, uint(payoutID))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return notFound(c, "Payout not found")
		case errors.Is(err, payouts.ErrNotOwner):
			return forbidden(c, "Not your payout")
		case errors.Is(err, payouts.ErrNotCancellable):
			return conflict(c, "Only pending payouts can be cancelled")
		}
		return internalError(c, "Failed to cancel payout")
	}

	return c.Status(fiber.StatusOK).JSON(payout)
}
