package handler

import (
	"go-bazaar-admin/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	response, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(response)
}

// Register queues an account for admin approval
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if err := h.authService.Register(&req); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Registration received and awaiting admin approval"})
}

// VerifyAccount applies the admin decision carried by the emailed link
// GET /api/v1/auth/verify-account?token=...&action=accept|reject
func (h *AuthHandler) VerifyAccount(c *fiber.Ctx) error {
	action, err := service.ParseDecisionAction(c.Query("action"))
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.authService.Decide(c.Query("token"), action)
	if err != nil {
		return respondError(c, err)
	}

	msg := "Account approved"
	if result.Action == service.DecisionReject {
		msg = "Account request rejected"
	}
	return c.JSON(fiber.Map{"message": msg, "data": result})
}

// ForgotPassword mails a reset link
// POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if err := h.authService.ForgotPassword(req.Email); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password reset link sent"})
}

// ResetPassword handles password change with an emailed token
// POST /api/v1/auth/reset-password/:token
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if err := h.authService.ResetPassword(c.Params("token"), req.Password); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

// EditAccount updates the signed-in user's profile
// PUT /api/v1/auth/edit-account
func (h *AuthHandler) EditAccount(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized", "code": "UNAUTHORIZED"})
	}

	var req service.EditAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	result, err := h.authService.EditAccount(userID, &req)
	if err != nil {
		return respondError(c, err)
	}

	if result.VerificationSent {
		return c.JSON(fiber.Map{"message": "Verification email sent to the new address"})
	}
	return c.JSON(fiber.Map{"message": "Account updated", "data": result.User})
}

// VerifyEmail confirms a pending email change
// GET /api/v1/auth/verify-email/:token
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	user, err := h.authService.VerifyEmailChange(c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Email updated", "data": user})
}

// Me returns the signed-in user
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized", "code": "UNAUTHORIZED"})
	}

	user, err := h.authService.CurrentUser(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
