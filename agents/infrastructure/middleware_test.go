package infrastructure

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadesk/wadesk/agents/security"
	"github.com/wadesk/wadesk/pkg/utils"
	"github.com/wadesk/wadesk/ui/rest/middleware"
)

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Use(middleware.Recovery())
	app.Get("/me", NewAuthMiddleware(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"agent_id": c.Locals("agent_id")})
	})
	return app
}

func decodeResponse(t *testing.T, body io.Reader) utils.ResponseData {
	t.Helper()
	var res utils.ResponseData
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res
}

func TestAuthMiddleware_MissingHeaderReturnsAuthError(t *testing.T) {
	app := newProtectedApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	res := decodeResponse(t, resp.Body)
	assert.Equal(t, 401, res.Status)
	assert.Equal(t, "AUTHENTICATION_ERROR", res.Code)
	assert.Equal(t, "missing authorization header", res.Message)
}

func TestAuthMiddleware_MalformedHeaderReturnsAuthError(t *testing.T) {
	app := newProtectedApp()

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Token abc")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTHENTICATION_ERROR", decodeResponse(t, resp.Body).Code)
}

func TestAuthMiddleware_InvalidTokenReturnsAuthError(t *testing.T) {
	app := newProtectedApp()

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTHENTICATION_ERROR", decodeResponse(t, resp.Body).Code)
}

func TestAuthMiddleware_ValidTokenPassesThrough(t *testing.T) {
	app := newProtectedApp()

	token, err := security.GenerateToken(7, "laura")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(7), body["agent_id"])
}
