package app

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-bazaar-admin/internal/config"
	"go-bazaar-admin/internal/handler"
	"go-bazaar-admin/internal/model"
	"go-bazaar-admin/internal/notify"
	"go-bazaar-admin/internal/repository"
	"go-bazaar-admin/internal/service"
	"go-bazaar-admin/internal/ws"
	"go-bazaar-admin/pkg/database"
	"go-bazaar-admin/pkg/jwt"
	"go-bazaar-admin/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Application owns the long-lived pieces of the API process
type Application struct {
	cfg *config.Config
	log *zap.Logger
	hub *ws.Hub
	app *fiber.App
}

func New(cfg *config.Config) (*Application, error) {
	log, err := logger.New(logger.Options{Mode: cfg.LogMode, Filename: cfg.LogFile})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	db, err := database.ConnectDB(cfg.DBURL, log)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	store := repository.NewStore(db)
	if err := SeedAdmin(store, cfg, log); err != nil {
		log.Warn("admin seed failed", zap.Error(err))
	}

	hub := ws.NewHub(log)
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTExpiry)
	notifier := notify.New(cfg.SMTP, log)

	router := handler.NewRouter(handler.Dependencies{
		AppName:   cfg.AppName,
		Origins:   cfg.Origins,
		Log:       log,
		Tokens:    tokens,
		Users:     store.Users(),
		Auth:      service.NewAuthService(store, tokens, notifier, hub, service.AuthConfigFrom(cfg), log),
		Inventory: service.NewInventoryService(store, hub, cfg.LowStockThreshold, log),
		Audit:     service.NewAuditService(store, cfg.UndoPolicy, hub, log),
		Dashboard: service.NewDashboardService(store, cfg.LowStockThreshold, log),
		Hub:       hub,
	})

	return &Application{cfg: cfg, log: log, hub: hub, app: router}, nil
}

// Run serves until SIGINT/SIGTERM, then drains connections
func (a *Application) Run() error {
	defer func() { _ = a.log.Sync() }()

	go a.hub.Run()
	defer a.hub.Stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", zap.String("port", a.cfg.Port), zap.String("env", a.cfg.Env))
		errCh <- a.app.Listen(":" + a.cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		a.log.Info("shutting down server", zap.String("signal", sig.String()))
	}

	if err := a.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.log.Info("server exited")
	return nil
}

// SeedAdmin creates the configured admin account when it does not exist yet.
// Nothing happens unless username, email and password are all set.
func SeedAdmin(store repository.Store, cfg *config.Config, log *zap.Logger) error {
	if cfg.SeedAdminUsername == "" || cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		return nil
	}

	_, err := store.Users().FindByUsername(cfg.SeedAdminUsername)
	if err == nil {
		return nil
	}
	if !repository.IsNotFound(err) {
		return err
	}

	admin := &model.User{
		Username: cfg.SeedAdminUsername,
		Email:    cfg.SeedAdminEmail,
		Verified: true,
		Role:     model.RoleAdmin,
	}
	if err := admin.SetPassword(cfg.SeedAdminPassword); err != nil {
		return err
	}
	if err := store.Users().Create(admin); err != nil {
		if repository.IsDuplicate(err) {
			return errors.New("seed admin email already belongs to another account")
		}
		return err
	}

	log.Info("admin user created", zap.String("username", admin.Username))
	return nil
}
