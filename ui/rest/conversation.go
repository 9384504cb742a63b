package rest

import (
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	domainConversation "github.com/wadesk/wadesk/domains/conversation"
	"github.com/wadesk/wadesk/pkg/media"
	"github.com/wadesk/wadesk/pkg/utils"
)

type Conversation struct {
	Service domainConversation.IConversationUsecase
}

func InitRestConversation(app fiber.Router, service domainConversation.IConversationUsecase) Conversation {
	rest := Conversation{Service: service}
	app.Get("/conversations", rest.List)
	app.Post("/conversations", rest.Create)
	app.Get("/conversations/:phone", rest.Get)
	app.Get("/conversations/:phone/messages", rest.Messages)
	app.Post("/conversations/:phone/reply", rest.Reply)
	app.Post("/conversations/:phone/read", rest.MarkRead)
	app.Post("/conversations/:phone/ai", rest.ToggleAI)
	app.Post("/conversations/:phone/archive", rest.Archive)
	app.Put("/conversations/:phone/agent", rest.AssignAgent)
	app.Post("/conversations/:phone/tags/:tagId", rest.AssignTag)
	app.Delete("/conversations/:phone/tags/:tagId", rest.RemoveTag)
	return rest
}

func (h *Conversation) List(c *fiber.Ctx) error {
	var request domainConversation.ListRequest
	if err := c.QueryParser(&request); err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: err.Error(),
		})
	}

	response, err := h.Service.List(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Conversations fetched",
		Results: response,
	})
}

func (h *Conversation) Create(c *fiber.Ctx) error {
	var request domainConversation.CreateRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: err.Error(),
		})
	}

	conv, err := h.Service.Create(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.Status(201).JSON(utils.ResponseData{
		Status:  201,
		Code:    "SUCCESS",
		Message: "Conversation created",
		Results: conv,
	})
}

func (h *Conversation) Get(c *fiber.Ctx) error {
	conv, err := h.Service.Get(c.UserContext(), c.Params("phone"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Conversation fetched",
		Results: conv,
	})
}

func (h *Conversation) Messages(c *fiber.Ctx) error {
	var request domainConversation.MessagesRequest
	if err := c.QueryParser(&request); err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: err.Error(),
		})
	}
	request.Phone = c.Params("phone")

	response, err := h.Service.Messages(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Messages fetched",
		Results: response,
	})
}

// Reply accepts JSON or multipart. A multipart "file" field is stored locally
// and its public URL takes precedence over any media_url form value.
func (h *Conversation) Reply(c *fiber.Ctx) error {
	var request domainConversation.ReplyRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: err.Error(),
		})
	}
	request.Phone = c.Params("phone")

	if fileHeader, err := c.FormFile("file"); err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		utils.PanicIfNeeded(err)
		raw, err := io.ReadAll(file)
		_ = file.Close()
		utils.PanicIfNeeded(err)

		url, err := media.SaveUpload(raw, fileHeader.Filename)
		utils.PanicIfNeeded(err)
		request.MediaURL = url
		if request.MediaType == "" {
			request.MediaType = media.KindFromURL(url)
		}
	}

	if username, ok := c.Locals("agent_username").(string); ok {
		request.AgentName = username
	}

	message, err := h.Service.Reply(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Reply sent",
		Results: message,
	})
}

func (h *Conversation) MarkRead(c *fiber.Ctx) error {
	err := h.Service.MarkRead(c.UserContext(), c.Params("phone"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Conversation marked as read",
	})
}

func (h *Conversation) ToggleAI(c *fiber.Ctx) error {
	var request domainConversation.ToggleAIRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: err.Error(),
		})
	}
	request.Phone = c.Params("phone")

	conv, err := h.Service.ToggleAI(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "AI state updated",
		Results: conv,
	})
}

func (h *Conversation) Archive(c *fiber.Ctx) error {
	err := h.Service.Archive(c.UserContext(), c.Params("phone"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Conversation archived",
	})
}

func (h *Conversation) AssignAgent(c *fiber.Ctx) error {
	var body struct {
		AgentID *uint `json:"agent_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: err.Error(),
		})
	}

	err := h.Service.AssignAgent(c.UserContext(), c.Params("phone"), body.AgentID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Agent assignment updated",
	})
}

func (h *Conversation) AssignTag(c *fiber.Ctx) error {
	tagID, err := strconv.ParseUint(c.Params("tagId"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: "invalid tag id",
		})
	}

	err = h.Service.AssignTag(c.UserContext(), c.Params("phone"), uint(tagID))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tag assigned",
	})
}

func (h *Conversation) RemoveTag(c *fiber.Ctx) error {
	tagID, err := strconv.ParseUint(c.Params("tagId"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: "invalid tag id",
		})
	}

	err = h.Service.RemoveTag(c.UserContext(), c.Params("phone"), uint(tagID))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tag removed",
	})
}
