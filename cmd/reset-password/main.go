package main

import (
	"flag"
	"log"

	"go-bazaar-admin/internal/config"
	"go-bazaar-admin/internal/model"
	"go-bazaar-admin/internal/repository"
	"go-bazaar-admin/pkg/database"
	"go-bazaar-admin/pkg/logger"

	"go.uber.org/zap"
)

// Sets a new password for an existing account from the command line
func main() {
	username := flag.String("username", "", "account username")
	password := flag.String("password", "", "new password")
	flag.Parse()

	if *username == "" || *password == "" {
		flag.Usage()
		log.Fatal("username and password are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(logger.Options{Mode: cfg.LogMode})
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if len(*password) < cfg.PasswordMinLen {
		zlog.Fatal("password too short", zap.Int("min", cfg.PasswordMinLen))
	}

	db, err := database.ConnectDB(cfg.DBURL, zlog)
	if err != nil {
		zlog.Fatal("connect database", zap.Error(err))
	}

	users := repository.NewUserRepo(db)
	user, err := users.FindByUsername(*username)
	if err != nil {
		zlog.Fatal("user not found", zap.String("username", *username), zap.Error(err))
	}

	hashed, err := model.HashPassword(*password)
	if err != nil {
		zlog.Fatal("hash password", zap.Error(err))
	}

	if err := users.UpdatePassword(user.ID, hashed); err != nil {
		zlog.Fatal("update password", zap.Error(err))
	}

	zlog.Info("password reset", zap.String("username", user.Username))
}
