package infrastructure

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/wadesk/wadesk/agents/application"
	pkgError "github.com/wadesk/wadesk/pkg/error"
)

type AuthHandler struct {
	authService *application.AuthService
}

func NewAuthHandler(service *application.AuthService) *AuthHandler {
	return &AuthHandler{authService: service}
}

// Request Models
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// Login handles agent authentication
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	token, agent, err := h.authService.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		panic(pkgError.AuthError("invalid credentials"))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"agent": fiber.Map{
			"id":           agent.ID,
			"username":     agent.Username,
			"display_name": agent.DisplayName,
			"email":        agent.Email,
		},
	})
}

// Register handles new agent registration. The first agent can self-register;
// later registrations go through the auth middleware.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing required fields"})
	}

	hasAgents, err := h.authService.HasAgents(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if hasAgents {
		if _, ok := c.Locals("agent_id").(uint); !ok {
			panic(pkgError.AuthError("registration requires authentication"))
		}
	}

	agent, err := h.authService.Register(c.Context(), req.Username, req.Password, req.DisplayName, req.Email)
	if err != nil {
		if strings.Contains(err.Error(), "exists") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "username already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "agent created successfully",
		"agent_id": agent.ID,
	})
}

// Me returns the logged-in agent information
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	agentID, ok := c.Locals("agent_id").(uint)
	if !ok {
		panic(pkgError.AuthError("unauthorized"))
	}

	agent, err := h.authService.GetProfile(c.Context(), agentID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch profile"})
	}

	return c.JSON(agent)
}
