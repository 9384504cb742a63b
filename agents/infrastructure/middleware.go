package infrastructure

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/wadesk/wadesk/agents/security"
	pkgError "github.com/wadesk/wadesk/pkg/error"
)

// NewAuthMiddleware creates the middleware to protect dashboard routes.
// Failures panic with an AuthError so the recovery middleware renders the
// same envelope every other endpoint uses.
func NewAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			panic(pkgError.AuthError("missing authorization header"))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			panic(pkgError.AuthError("invalid authorization format"))
		}

		claims, err := security.ValidateToken(parts[1])
		if err != nil {
			panic(pkgError.AuthError("invalid or expired token"))
		}

		c.Locals("agent_id", claims.AgentID)
		c.Locals("agent_username", claims.Username)

		return c.Next()
	}
}

// NewOptionalAuthMiddleware injects agent claims when a valid token is
// present but lets unauthenticated requests through. Used on the register
// route, where the handler itself decides whether bootstrap is still open.
func NewOptionalAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Next()
		}

		if claims, err := security.ValidateToken(parts[1]); err == nil {
			c.Locals("agent_id", claims.AgentID)
			c.Locals("agent_username", claims.Username)
		}

		return c.Next()
	}
}
