package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/inkhub-io/inkhub/app/controllers"
	"github.com/inkhub-io/inkhub/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{Max: 120}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "inkhub monetization api",
		})
	})

	v1 := api.Group("/v1")

	// The webhook endpoint authenticates by signature, not by token.
	v1.Post("/webhooks/payment", controllers.HandlePaymentWebhook)

	// Access checks work for anonymous readers too.
	v1.Get("/access/:articleID", middleware.OptionalAuth, controllers.HandleCheckAccess)

	authed := v1.Group("", middleware.RequireAuth)

	authed.Put("/articles/:id/pricing", controllers.HandleUpdatePricing)

	authed.Post("/plans", controllers.HandleCreatePlan)
	authed.Get("/plans", controllers.HandleListPlans)
	authed.Put("/plans/:id", controllers.HandleUpdatePlan)
	authed.Delete("/plans/:id", controllers.HandleDeactivatePlan)

	authed.Post("/subscriptions", controllers.HandleCreateSubscription)
	authed.Get("/subscriptions", controllers.HandleListSubscriptions)
	authed.Delete("/subscriptions/:id", controllers.HandleCancelSubscription)

	authed.Post("/purchases", controllers.HandleCreatePurchase)
	authed.Post("/tips", controllers.HandleCreateTip)

	authed.Get("/earnings", controllers.HandleGetEarnings)

	authed.Post("/payouts", controllers.HandleRequestPayout)
	authed.Get("/payouts", controllers.HandleListPayouts)
	authed.Delete("/payouts/:id", controllers.HandleCancelPayout)

	authed.Post("/connect/accounts", controllers.HandleCreateConnectAccount)
	authed.Get("/connect/accounts/status", controllers.HandleConnectAccountStatus)
}
