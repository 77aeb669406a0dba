package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/inkhub-io/inkhub/app/models"
	"github.com/inkhub-io/inkhub/app/repository"
	"github.com/inkhub-io/inkhub/internal/pkg/usercontext"
)

// UpdatePricingRequest is the author's paywall configuration for one article.
type UpdatePricingRequest struct {
	PriceCents           *int64 `json:"price_cents" validate:"omitempty,gt=0"`
	SubscriptionRequired bool   `json:"subscription_required"`
	PreviewPercent       int    `json:"preview_percent" validate:"gte=0,lte=100"`
	PaywallMessage       string `json:"paywall_message" validate:"max=255"`
}

// HandleUpdatePricing sets or replaces the paywall for an article. Only the
// article's author may change it.
func HandleUpdatePricing(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	articleID, err := c.ParamsInt("id")
	if err != nil || articleID <= 0 {
		return badRequest(c, "Invalid article id")
	}

	var req UpdatePricingRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "Invalid pricing payload")
	}

	repos := repository.GetGlobalFactory().GetRepositories()
	article, err := repos.Article.GetByID(uint(articleID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Article not found")
		}
		return internalError(c, "Failed to load article")
	}
	if article.AuthorID != userCtx.UserID {
		return forbidden(c, "Only the author can change pricing")
	}

	pricing := &models.ArticlePricing{
		ArticleID:            article.ID,
		CreatorID:            article.AuthorID,
		PriceCents:           req.PriceCents,
		SubscriptionRequired: req.SubscriptionRequired,
		PreviewPercent:       req.PreviewPercent,
		PaywallMessage:       req.PaywallMessage,
	}
	if err := repos.Pricing.Upsert(pricing); err != nil {
		return internalError(c, "Failed to save pricing")
	}

	return c.Status(fiber.StatusOK).JSON(pricing)
}
