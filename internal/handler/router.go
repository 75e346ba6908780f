package handler

import (
	"strings"

	"go-bazaar-admin/internal/middleware"
	"go-bazaar-admin/internal/repository"
	"go-bazaar-admin/internal/service"
	"go-bazaar-admin/internal/ws"
	"go-bazaar-admin/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

type Dependencies struct {
	AppName string
	Origins []string
	Log     *zap.Logger

	Tokens *jwt.Manager
	Users  repository.UserRepository

	Auth      service.AuthService
	Inventory service.InventoryService
	Audit     service.AuditService
	Dashboard service.DashboardService

	// Hub is optional; without it /ws is not mounted
	Hub *ws.Hub
}

func NewRouter(deps Dependencies) *fiber.App {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:      deps.AppName,
		ErrorHandler: ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${status} ${method} ${path} ${latency} ${locals:requestid}\n",
		Output: zap.NewStdLog(log.Named("http")).Writer(),
	}))
	origins := "*"
	if len(deps.Origins) > 0 {
		origins = strings.Join(deps.Origins, ",")
	}
	app.Use(cors.New(cors.Config{AllowOrigins: origins}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "app": deps.AppName})
	})

	authHandler := NewAuthHandler(deps.Auth)
	invHandler := NewInventoryHandler(deps.Inventory)
	logHandler := NewLogHandler(deps.Audit)
	dashHandler := NewDashboardHandler(deps.Dashboard)
	requireAuth := middleware.RequireAuth(deps.Tokens, deps.Users)

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/register", authHandler.Register)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password/:token", authHandler.ResetPassword)
	auth.Get("/verify-account", authHandler.VerifyAccount)
	auth.Get("/verify-email/:token", authHandler.VerifyEmail)
	auth.Put("/edit-account", requireAuth, authHandler.EditAccount)
	auth.Get("/me", requireAuth, authHandler.Me)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	protected.Get("/dashboard/stats", dashHandler.GetDashboardStats)

	protected.Post("/products", invHandler.CreateProduct)
	protected.Get("/products", invHandler.GetProducts)
	protected.Put("/products", invHandler.UpdateProductByName)
	protected.Delete("/products", invHandler.DeleteProductByName)
	protected.Get("/products/search", invHandler.SearchProducts)
	protected.Get("/products/export", invHandler.ExportCSV)
	protected.Get("/products/overview", invHandler.Overview)
	protected.Get("/products/:id", invHandler.GetProduct)
	protected.Put("/products/:id", invHandler.UpdateProduct)
	protected.Delete("/products/:id", invHandler.DeleteProduct)

	protected.Get("/logs", logHandler.GetLogs)
	protected.Delete("/logs", logHandler.ClearLogs)
	protected.Delete("/logs/:id", logHandler.DeleteLog)
	protected.Post("/logs/:id/undo", logHandler.UndoDelete)

	// WebSocket Route
	if deps.Hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return c.SendStatus(fiber.StatusUpgradeRequired)
		})
		app.Get("/ws", websocket.New(deps.Hub.Serve))
	}

	return app
}
