package rest

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	domainChatStorage "github.com/wadesk/wadesk/domains/chatstorage"
	"github.com/wadesk/wadesk/pkg/utils"
	"github.com/wadesk/wadesk/usecase"
)

type QuickReply struct {
	Service *usecase.QuickReplyService
}

func InitRestQuickReply(app fiber.Router, service *usecase.QuickReplyService) QuickReply {
	rest := QuickReply{Service: service}
	app.Get("/quick-replies", rest.List)
	app.Post("/quick-replies", rest.Create)
	app.Put("/quick-replies/:id", rest.Update)
	app.Delete("/quick-replies/:id", rest.Delete)
	return rest
}

func (h *QuickReply) List(c *fiber.Ctx) error {
	replies, err := h.Service.List(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Quick replies fetched",
		Results: replies,
	})
}

func (h *QuickReply) Create(c *fiber.Ctx) error {
	var qr domainChatStorage.QuickReply
	if err := c.BodyParser(&qr); err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: err.Error(),
		})
	}

	err := h.Service.Create(c.UserContext(), &qr)
	utils.PanicIfNeeded(err)

	return c.Status(201).JSON(utils.ResponseData{
		Status:  201,
		Code:    "SUCCESS",
		Message: "Quick reply created",
		Results: qr,
	})
}

func (h *QuickReply) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: "invalid quick reply id",
		})
	}

	var qr domainChatStorage.QuickReply
	if err := c.BodyParser(&qr); err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: err.Error(),
		})
	}
	qr.ID = uint(id)

	err = h.Service.Update(c.UserContext(), &qr)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Quick reply updated",
		Results: qr,
	})
}

func (h *QuickReply) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: "invalid quick reply id",
		})
	}

	err = h.Service.Delete(c.UserContext(), uint(id))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Quick reply deleted",
	})
}
