package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/inkhub-io/inkhub/internal/pkg/database"
	"github.com/inkhub-io/inkhub/internal/pkg/ledger"
	"github.com/inkhub-io/inkhub/internal/pkg/usercontext"
)

const defaultEarningsLimit = 50

// HandleGetEarnings returns the caller's balance snapshot and their most
// recent ledger entries.
func HandleGetEarnings(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsCreator {
		return forbidden(c, "Only creators have earnings")
	}

	limit := c.QueryInt("limit", defaultEarningsLimit)
	if limit <= 0 || limit > 200 {
		limit = defaultEarningsLimit
	}

	svc := ledger.NewService(ledger.NewRepository(database.GetDB()))

	balance, err := svc.BalanceFor(c.UserContext(), userCtx.UserID, time.Now())
	if err != nil {
		return internalError(c, "Failed to compute balance")
	}

	entries, err := svc.RecentEntries(c.UserContext(), userCtx.UserID, limit)
	if err != nil {
		return internalError(c, "Failed to load earnings")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"balance": balance,
		"entries": entries,
	})
}
