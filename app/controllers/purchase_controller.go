package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/inkhub-io/inkhub/internal/pkg/database"
	"github.com/inkhub-io/inkhub/internal/pkg/gateway"
	"github.com/inkhub-io/inkhub/internal/pkg/purchases"
	"github.com/inkhub-io/inkhub/internal/pkg/usercontext"
)

// CreatePurchaseRequest buys one article outright.
type CreatePurchaseRequest struct {
	ArticleID uint `json:"article_id" validate:"required,gt=0"`
}

// CreateTipRequest sends a voluntary payment to a creator.
type CreateTipRequest struct {
	CreatorID   uint  `json:"creator_id" validate:"required,gt=0"`
	AmountCents int64 `json:"amount_cents" validate:"required,gt=0"`
}

func purchaseService() *purchases.Service {
	return purchases.NewService(
		purchases.NewRepository(database.GetDB()),
		gateway.NewStripeGatewayFromEnv(),
	)
}

// HandleCreatePurchase starts a one-time article purchase. The purchase
// completes when the gateway confirms the charge.
func HandleCreatePurchase(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req CreatePurchaseRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "Invalid purchase payload")
	}

	result, err := purchaseService().Purchase(c.UserContext(), userCtx.UserID, req.ArticleID)
	if err != nil {
		switch {
		case errors.Is(err, purchases.ErrArticleNotFound):
			return notFound(c, "Article not found")
		case errors.Is(err, purchases.ErrNotPurchasable):
			return conflict(c, "Article is not for sale")
		case errors.Is(err, purchases.ErrSelfPurchase):
			return conflict(c, "Cannot buy your own article")
		case errors.Is(err, purchases.ErrAlreadyPurchased):
			return conflict(c, "Article already purchased")
		case errors.Is(err, purchases.ErrAlreadyEntitled):
			return conflict(c, "Already entitled through a subscription")
		}
		return internalError(c, "Failed to start purchase")
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleCreateTip starts a tip payment to a creator.
func HandleCreateTip(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req CreateTipRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "Invalid tip payload")
	}

	result, err := purchaseService().Tip(c.UserContext(), userCtx.UserID, req.CreatorID, req.AmountCents)
	if err != nil {
		switch {
		case errors.Is(err, purchases.ErrCreatorNotFound):
			return notFound(c, "Creator not found")
		case errors.Is(err, purchases.ErrSelfTip):
			return conflict(c, "Cannot tip yourself")
		case errors.Is(err, purchases.ErrInvalidTipAmount):
			return badRequest(c, "Tip amount must be positive")
		}
		return internalError(c, "Failed to start tip")
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}
