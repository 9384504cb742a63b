package rest

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	domainChatStorage "github.com/wadesk/wadesk/domains/chatstorage"
	"github.com/wadesk/wadesk/pkg/utils"
	"github.com/wadesk/wadesk/usecase"
)

type Tag struct {
	Service *usecase.TagService
}

func InitRestTag(app fiber.Router, service *usecase.TagService) Tag {
	rest := Tag{Service: service}
	app.Get("/tags", rest.List)
	app.Post("/tags", rest.Create)
	app.Delete("/tags/:id", rest.Delete)
	return rest
}

func (h *Tag) List(c *fiber.Ctx) error {
	tags, err := h.Service.List(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tags fetched",
		Results: tags,
	})
}

func (h *Tag) Create(c *fiber.Ctx) error {
	var tag domainChatStorage.Tag
	if err := c.BodyParser(&tag); err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: err.Error(),
		})
	}

	err := h.Service.Create(c.UserContext(), &tag)
	utils.PanicIfNeeded(err)

	return c.Status(201).JSON(utils.ResponseData{
		Status:  201,
		Code:    "SUCCESS",
		Message: "Tag created",
		Results: tag,
	})
}

func (h *Tag) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: "invalid tag id",
		})
	}

	err = h.Service.Delete(c.UserContext(), uint(id))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tag deleted",
	})
}
