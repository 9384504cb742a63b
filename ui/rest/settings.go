package rest

import (
	"github.com/gofiber/fiber/v2"

	settingsApp "github.com/wadesk/wadesk/core/settings/application"
	"github.com/wadesk/wadesk/pkg/utils"
)

type Settings struct {
	Service *settingsApp.SettingsService
}

func InitRestSettings(app fiber.Router, service *settingsApp.SettingsService) Settings {
	rest := Settings{Service: service}
	app.Get("/settings", rest.List)
	app.Get("/settings/:key", rest.Get)
	app.Put("/settings/:key", rest.Set)
	return rest
}

func (h *Settings) List(c *fiber.Ctx) error {
	settings, err := h.Service.List(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Settings fetched",
		Results: settings,
	})
}

func (h *Settings) Get(c *fiber.Ctx) error {
	value, err := h.Service.Get(c.UserContext(), c.Params("key"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Setting fetched",
		Results: fiber.Map{"key": c.Params("key"), "value": value},
	})
}

func (h *Settings) Set(c *fiber.Ctx) error {
	var body struct {
		Value any `json:"value"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: err.Error(),
		})
	}

	err := h.Service.Set(c.UserContext(), c.Params("key"), body.Value)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Setting updated",
		Results: fiber.Map{"key": c.Params("key"), "value": body.Value},
	})
}
