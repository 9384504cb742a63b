package rest

import (
	"github.com/gofiber/fiber/v2"

	domainHealth "github.com/wadesk/wadesk/domains/health"
)

type Health struct {
	Service domainHealth.IHealthUsecase
}

func InitRestHealth(app fiber.Router, service domainHealth.IHealthUsecase) Health {
	rest := Health{Service: service}
	app.Get("/health", rest.Check)
	return rest
}

func (h *Health) Check(c *fiber.Ctx) error {
	status := h.Service.Check(c.UserContext())

	code := fiber.StatusOK
	if !status.Healthy {
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(status)
}
