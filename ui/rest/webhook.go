package rest

import (
	"context"
	"crypto/hmac"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/wadesk/wadesk/config"
	domainInbound "github.com/wadesk/wadesk/domains/inbound"
	"github.com/wadesk/wadesk/pkg/utils"
)

type Webhook struct {
	Service domainInbound.IInboundUsecase
}

func InitRestWebhook(app fiber.Router, service domainInbound.IInboundUsecase) Webhook {
	rest := Webhook{Service: service}
	app.Post("/webhook/whatsapp", rest.Receive)
	return rest
}

// Receive acknowledges the gateway immediately and processes the event in the
// background. The gateway retries on non-2xx, so a failed event must never
// surface here; it is logged inside the usecase instead.
func (h *Webhook) Receive(c *fiber.Ctx) error {
	body := make([]byte, len(c.Body()))
	copy(body, c.Body())

	if config.WebhookSecret != "" && !h.verifySignature(c, body) {
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ResponseData{
			Status:  401,
			Code:    "INVALID_SIGNATURE",
			Message: "Webhook signature mismatch",
		})
	}

	var envelope domainInbound.EventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		logrus.Warnf("[WEBHOOK] Discarding unparseable payload: %v", err)
		return c.JSON(fiber.Map{"success": true})
	}

	go h.Service.Process(context.Background(), envelope)

	return c.JSON(fiber.Map{"success": true})
}

func (h *Webhook) verifySignature(c *fiber.Ctx, body []byte) bool {
	signature := c.Get("X-Webhook-Signature")
	if signature == "" {
		return false
	}
	expected, err := utils.GetMessageDigestOrSignature(body, []byte(config.WebhookSecret))
	if err != nil {
		logrus.Errorf("[WEBHOOK] Signature computation failed: %v", err)
		return false
	}
	return hmac.Equal([]byte(signature), []byte(expected))
}
