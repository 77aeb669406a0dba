package controllers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/inkhub-io/inkhub/app/models"
	"github.com/inkhub-io/inkhub/app/repository"
	"github.com/inkhub-io/inkhub/internal/pkg/gateway"
	"github.com/inkhub-io/inkhub/internal/pkg/usercontext"
)

// HandleCreateConnectAccount starts Connect onboarding for the calling
// creator. Re-calling returns a fresh onboarding link for the same account.
func HandleCreateConnectAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsCreator {
		return forbidden(c, "Only creators can onboard for payouts")
	}

	repos := repository.GetGlobalFactory().GetRepositories()
	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		return internalError(c, "Failed to load user")
	}

	gw := gateway.NewStripeGatewayFromEnv()
	account, err := gw.CreateConnectAccount(c.UserContext(), user.Email, fmt.Sprintf("connect-%d", user.ID))
	if err != nil {
		return internalError(c, "Failed to create payout account")
	}

	if err := repos.PayoutAccount.Upsert(&models.PayoutAccount{
		UserID:           user.ID,
		GatewayAccountID: account.ID,
	}); err != nil {
		return internalError(c, "Failed to save payout account")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"onboarding_url": account.OnboardingURL,
	})
}

// HandleConnectAccountStatus refreshes and returns the onboarding state of
// the caller's payout account.
func HandleConnectAccountStatus(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetPayoutAccountRepository()
	account, err := repo.GetByUserID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "No payout account")
		}
		return internalError(c, "Failed to load payout account")
	}

	gw := gateway.NewStripeGatewayFromEnv()
	status, err := gw.GetAccountStatus(c.UserContext(), account.GatewayAccountID)
	if err != nil {
		return internalError(c, "Failed to query account status")
	}

	if status.DetailsSubmitted != account.OnboardingComplete || status.PayoutsEnabled != account.PayoutsEnabled {
		account.OnboardingComplete = status.DetailsSubmitted
		account.PayoutsEnabled = status.PayoutsEnabled
		if err := repo.Upsert(account); err != nil {
			return internalError(c, "Failed to update payout account")
		}
	}

	return c.Status(fiber.StatusOK).JSON(account)
}
