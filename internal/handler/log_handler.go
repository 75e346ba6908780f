package handler

import (
	"strings"

	"go-bazaar-admin/internal/repository"
	"go-bazaar-admin/internal/service"

	"github.com/gofiber/fiber/v2"
)

type LogHandler struct {
	service service.AuditService
}

func NewLogHandler(s service.AuditService) *LogHandler {
	return &LogHandler{service: s}
}

// GetLogs lists audit entries
// Query params: name (substring), order (desc default, asc)
func (h *LogHandler) GetLogs(c *fiber.Ctx) error {
	opts := repository.ListLogsOptions{Name: strings.TrimSpace(c.Query("name"))}
	switch strings.ToLower(c.Query("order", "desc")) {
	case "desc":
		opts.NewestFirst = true
	case "asc":
	default:
		return badRequest(c, "order must be asc or desc")
	}

	entries, err := h.service.List(opts)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

func (h *LogHandler) ClearLogs(c *fiber.Ctx) error {
	n, err := h.service.Clear()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logs cleared", "deleted": n})
}

func (h *LogHandler) DeleteLog(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid log ID")
	}

	if err := h.service.Delete(id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Log deleted"})
}

func (h *LogHandler) UndoDelete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid log ID")
	}

	product, err := h.service.UndoDelete(id, actorName(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product restored", "data": product})
}
