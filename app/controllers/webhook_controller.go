package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/inkhub-io/inkhub/internal/pkg/database"
	"github.com/inkhub-io/inkhub/internal/pkg/env"
	"github.com/inkhub-io/inkhub/internal/pkg/payments"
)

// SignatureHeader carries the gateway's HMAC over the raw request body.
const SignatureHeader = "X-Inkhub-Signature"

// HandlePaymentWebhook receives gateway event deliveries. Anything the
// processor acknowledges answers 200 so the gateway stops retrying; only
// internal faults answer 5xx.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	processor := payments.NewProcessor(
		payments.NewRepository(database.GetDB()),
		env.GetEnv("PAYMENT_WEBHOOK_SECRET", ""),
	)

	ack, err := processor.Handle(c.UserContext(), c.Body(), c.Get(SignatureHeader))
	if err != nil {
		if errors.Is(err, payments.ErrSignatureInvalid) {
			return badRequest(c, "Invalid webhook signature")
		}
		if errors.Is(err, payments.ErrMalformedEvent) {
			return badRequest(c, "Malformed event payload")
		}
		log.Errorf("Webhook processing failed: %v", err)
		return internalError(c, "Event processing failed")
	}

	return c.Status(fiber.StatusOK).JSON(ack)
}
