package rest

import (
	"io"

	"github.com/gofiber/fiber/v2"

	domainChatStorage "github.com/wadesk/wadesk/domains/chatstorage"
	"github.com/wadesk/wadesk/pkg/media"
	"github.com/wadesk/wadesk/pkg/utils"
	"github.com/wadesk/wadesk/usecase"
)

type Knowledge struct {
	Service *usecase.KnowledgeService
}

func InitRestKnowledge(app fiber.Router, service *usecase.KnowledgeService) Knowledge {
	rest := Knowledge{Service: service}
	app.Get("/knowledge", rest.List)
	app.Post("/knowledge", rest.Create)
	app.Get("/knowledge/:id", rest.Get)
	app.Put("/knowledge/:id", rest.Update)
	app.Delete("/knowledge/:id", rest.Delete)
	return rest
}

type knowledgeRequest struct {
	Type      string    `json:"type" form:"type"`
	Title     string    `json:"title" form:"title"`
	Content   string    `json:"content" form:"content"`
	MediaURL  *string   `json:"media_url" form:"media_url"`
	Keywords  string    `json:"keywords" form:"keywords"`
	Embedding []float64 `json:"embedding"`
}

func (h *Knowledge) List(c *fiber.Ctx) error {
	resources, err := h.Service.List(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Knowledge resources fetched",
		Results: resources,
	})
}

// Create accepts JSON or multipart. An uploaded "file" field becomes the
// resource media and wins over any media_url form value.
func (h *Knowledge) Create(c *fiber.Ctx) error {
	var req knowledgeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: err.Error(),
		})
	}

	if fileHeader, err := c.FormFile("file"); err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		utils.PanicIfNeeded(err)
		raw, err := io.ReadAll(file)
		_ = file.Close()
		utils.PanicIfNeeded(err)

		url, err := media.SaveUpload(raw, fileHeader.Filename)
		utils.PanicIfNeeded(err)
		req.MediaURL = &url
		if req.Type == "" {
			req.Type = media.KindFromURL(url)
		}
	}

	resource := domainChatStorage.AIKnowledge{
		Type:     req.Type,
		Title:    req.Title,
		Content:  req.Content,
		MediaURL: req.MediaURL,
		Keywords: req.Keywords,
	}

	err := h.Service.Create(c.UserContext(), &resource, req.Embedding)
	utils.PanicIfNeeded(err)

	return c.Status(201).JSON(utils.ResponseData{
		Status:  201,
		Code:    "SUCCESS",
		Message: "Knowledge resource created",
		Results: resource,
	})
}

func (h *Knowledge) Get(c *fiber.Ctx) error {
	resource, err := h.Service.Get(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Knowledge resource fetched",
		Results: resource,
	})
}

func (h *Knowledge) Update(c *fiber.Ctx) error {
	var req knowledgeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: err.Error(),
		})
	}

	resource := domainChatStorage.AIKnowledge{
		ID:       c.Params("id"),
		Type:     req.Type,
		Title:    req.Title,
		Content:  req.Content,
		MediaURL: req.MediaURL,
		Keywords: req.Keywords,
	}

	err := h.Service.Update(c.UserContext(), &resource, req.Embedding)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Knowledge resource updated",
		Results: resource,
	})
}

func (h *Knowledge) Delete(c *fiber.Ctx) error {
	err := h.Service.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Knowledge resource deleted",
	})
}
