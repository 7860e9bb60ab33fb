package middleware

import (
	"strconv"
	"strings"
	"time"

	"contentflow/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionLifetime bounds how long an issued session token stays valid.
const SessionLifetime = 14 * 24 * time.Hour

// SessionCookieName is the cookie carrying the signed session token for
// browser flows. API clients may send the same token as a Bearer header.
const SessionCookieName = "cf_session"

// LoginPath is where unauthenticated browser requests are redirected.
const LoginPath = "/users/login/"

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// NewSessionToken issues a signed session token for the given user.
func NewSessionToken(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(SessionLifetime)),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SecretKey))
}

// sessionToken extracts the raw token from the Authorization header or the
// session cookie.
func sessionToken(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Cookies(SessionCookieName)
}

// parseSession validates the token and returns the user ID from the subject claim.
func parseSession(tokenString string) (uint, bool) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}

	subClaim, ok := claims["sub"]
	if !ok {
		return 0, false
	}
	subStr, ok := subClaim.(string)
	if !ok {
		return 0, false
	}

	userID, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(userID), true
}

// AuthRequired enforces an authenticated session. Unauthenticated requests
// are redirected to the login page (302), matching browser-form semantics.
func AuthRequired(c *fiber.Ctx) error {
	userID, ok := parseSession(sessionToken(c))
	if !ok {
		return c.Redirect(LoginPath, fiber.StatusFound)
	}

	c.Locals("userID", userID)
	return c.Next()
}

// AuthOptional resolves the session when present but never blocks the request.
func AuthOptional(c *fiber.Ctx) error {
	if userID, ok := parseSession(sessionToken(c)); ok {
		c.Locals("userID", userID)
	}
	return c.Next()
}
