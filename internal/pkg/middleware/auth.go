package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/inkhub-io/inkhub/internal/pkg/env"
	"github.com/inkhub-io/inkhub/internal/pkg/usercontext"
)

// parseToken validates a bearer token and builds the user context from its
// claims. Tokens are issued by the identity service; this service only
// verifies them.
func parseToken(tokenStr string) (usercontext.UserContext, error) {
	secret := []byte(env.GetEnv("JWT_SECRET", ""))
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return usercontext.UserContext{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return usercontext.UserContext{}, fmt.Errorf("invalid claims")
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return usercontext.UserContext{}, fmt.Errorf("missing subject")
	}

	uc := usercontext.UserContext{
		UserID:     uint(sub),
		IsLoggedIn: true,
	}
	if username, ok := claims["username"].(string); ok {
		uc.Username = username
	}
	if isCreator, ok := claims["is_creator"].(bool); ok {
		uc.IsCreator = isCreator
	}
	return uc, nil
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(c *fiber.Ctx) error {
	tokenStr := bearerToken(c)
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "bearer token required",
		})
	}

	uc, err := parseToken(tokenStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "invalid or expired token",
		})
	}

	usercontext.SetUserContext(c, uc)
	return c.Next()
}

// OptionalAuth populates the user context when a valid token is present and
// falls through as anonymous otherwise.
func OptionalAuth(c *fiber.Ctx) error {
	if tokenStr := bearerToken(c); tokenStr != "" {
		if uc, err := parseToken(tokenStr); err == nil {
			usercontext.SetUserContext(c, uc)
		}
	}
	return c.Next()
}
