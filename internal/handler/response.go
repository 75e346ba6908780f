package handler

import (
	"errors"

	"go-bazaar-admin/internal/apperror"
	"go-bazaar-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respondError renders err with the status of its kind
func respondError(c *fiber.Ctx, err error) error {
	return c.Status(apperror.HTTPStatus(apperror.KindOf(err))).JSON(fiber.Map{
		"error": apperror.MessageOf(err),
		"code":  apperror.CodeOf(err),
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg, "code": apperror.Validation.String()})
}

// ErrorHandler renders errors that escape handlers, such as unknown routes
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message, "code": "HTTP_ERROR"})
	}
	return respondError(c, err)
}

// Helper untuk ambil user info dari JWT context (set by auth middleware)
func actorName(c *fiber.Ctx) string {
	if name, ok := c.Locals(middleware.LocalUsername).(string); ok {
		return name
	}
	return "system"
}

func actorID(c *fiber.Ctx) (uuid.UUID, bool) {
	raw, ok := c.Locals(middleware.LocalUserID).(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	return id, err == nil
}

func paramID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}
