package middleware

import (
	"strings"

	"go-bazaar-admin/internal/repository"
	"go-bazaar-admin/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Keys of the values RequireAuth stores in fiber locals
const (
	LocalUserID   = "user_id"
	LocalUsername = "username"
)

// RequireAuth is middleware that validates JWT token and sets user info in context
func RequireAuth(tokens *jwt.Manager, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get Authorization header
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "Missing authorization token")
		}

		// Extract token from "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return unauthorized(c, "Invalid authorization format. Use: Bearer <token>")
		}

		// Validate token
		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}

		// The account must still exist
		user, err := users.FindByID(claims.UserID)
		if err != nil {
			return unauthorized(c, "User not found")
		}

		c.Locals(LocalUserID, user.ID.String())
		c.Locals(LocalUsername, user.Username)

		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg, "code": "UNAUTHORIZED"})
}
