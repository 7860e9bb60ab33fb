package middleware

import (
	"net/http"
	"testing"
	"time"

	"contentflow/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	InitMiddleware(&config.Config{SecretKey: "middleware-test-secret"})
}

func protectedApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/secret", AuthRequired, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("userID")})
	})
	app.Get("/open", AuthOptional, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("userID")})
	})
	return app
}

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := NewSessionToken(42)
	require.NoError(t, err)

	userID, ok := parseSession(token)
	require.True(t, ok)
	assert.Equal(t, uint(42), userID)
}

func TestParseSessionRejectsBadTokens(t *testing.T) {
	_, ok := parseSession("")
	assert.False(t, ok)

	_, ok = parseSession("not.a.jwt")
	assert.False(t, ok)

	// Token signed with a different key.
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "42"})
	signed, err := forged.SignedString([]byte("some-other-key"))
	require.NoError(t, err)
	_, ok = parseSession(signed)
	assert.False(t, ok)

	// Expired token signed with the right key.
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	signed, err = expired.SignedString([]byte(cfg.SecretKey))
	require.NoError(t, err)
	_, ok = parseSession(signed)
	assert.False(t, ok)
}

func TestAuthRequiredRedirectsWithoutSession(t *testing.T) {
	app := protectedApp(t)

	req, _ := http.NewRequest(http.MethodGet, "/secret", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, LoginPath, resp.Header.Get("Location"))
}

func TestAuthRequiredAcceptsCookieAndBearer(t *testing.T) {
	app := protectedApp(t)
	token, err := NewSessionToken(7)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/secret", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// A malformed Authorization header does not fall back to the cookie.
	req, _ = http.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set("Authorization", "Token "+token)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestAuthOptionalNeverBlocks(t *testing.T) {
	app := protectedApp(t)

	req, _ := http.NewRequest(http.MethodGet, "/open", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	token, err := NewSessionToken(9)
	require.NoError(t, err)
	req, _ = http.NewRequest(http.MethodGet, "/open", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
