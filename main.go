package main

import (
	"fmt"
	"log"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/inkhub-io/inkhub/app/repository"
	"github.com/inkhub-io/inkhub/internal/pkg/cache"
	"github.com/inkhub-io/inkhub/internal/pkg/database"
	"github.com/inkhub-io/inkhub/internal/pkg/env"
	"github.com/inkhub-io/inkhub/internal/pkg/gateway"
	"github.com/inkhub-io/inkhub/internal/pkg/payouts"
	"github.com/inkhub-io/inkhub/internal/pkg/reconcile"
	"github.com/inkhub-io/inkhub/internal/pkg/router"
)

func main() {
	app := NewApplication()

	reconciler := reconcile.NewReconciler(
		reconcile.NewRepository(database.GetDB()),
		gateway.NewStripeGatewayFromEnv(),
		payouts.NewRedsyncLocker(),
	)
	if err := reconciler.Start(env.GetEnv("RECONCILE_SCHEDULE", "@every 10m")); err != nil {
		log.Fatal(err)
	}
	defer reconciler.Stop()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		AppName: "inkhub-monetization",
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}
