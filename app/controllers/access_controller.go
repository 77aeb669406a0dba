package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/inkhub-io/inkhub/internal/pkg/access"
	"github.com/inkhub-io/inkhub/internal/pkg/database"
	"github.com/inkhub-io/inkhub/internal/pkg/usercontext"
)

// HandleCheckAccess answers whether the caller may read an article.
// Anonymous callers get the public view (free, preview or denied).
func HandleCheckAccess(c *fiber.Ctx) error {
	articleID, err := c.ParamsInt("articleID")
	if err != nil || articleID <= 0 {
		return badRequest(c, "Invalid article id")
	}

	engine := access.NewEngine(access.NewRepository(database.GetDB()))
	decision, err := engine.Decide(c.UserContext(), usercontext.GetUserID(c), uint(articleID))
	if err != nil {
		if errors.Is(err, access.ErrArticleNotFound) {
			return notFound(c, "Article not found")
		}
		return internalError(c, "Failed to evaluate access")
	}

	return c.Status(fiber.StatusOK).JSON(decision)
}
