// Package main provides the API server entry point for the gift exchange
// service.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gift-exchange/internal/api"
	"github.com/gift-exchange/internal/config"
	"github.com/gift-exchange/internal/logging"
	"github.com/gift-exchange/internal/mail"
	"github.com/gift-exchange/internal/service"
	"github.com/gift-exchange/internal/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.WithFields(logrus.Fields{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Initialize database connections
	logger.Info("Connecting to databases...")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	sessions, err := storage.NewSessionStore(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer sessions.Close()

	logger.Info("Database connections established")

	// Initialize repositories
	userRepo := storage.NewUserRepository(postgres)
	listRepo := storage.NewListRepository(postgres)
	itemRepo := storage.NewItemRepository(postgres)
	claimRepo := storage.NewClaimRepository(postgres)

	// Outbound email
	mailer := mail.NewSMTPSender(&cfg.SMTP)
	templates := &mail.Templates{
		AppName: cfg.App.Name,
		BaseURL: cfg.App.BaseURL,
	}

	// Initialize services
	logger.Info("Initializing services...")

	authService := service.NewAuthService(userRepo, listRepo, mailer, templates, logger)
	accountService := service.NewAccountService(userRepo, listRepo, mailer, templates, logger)
	listService := service.NewListService(userRepo, listRepo, itemRepo, claimRepo, logger)
	itemService := service.NewItemService(userRepo, listRepo, itemRepo, claimRepo, mailer, templates, logger)
	claimService := service.NewClaimService(listRepo, itemRepo, claimRepo, logger)

	logger.Info("Services initialized")

	// Create server configuration
	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		SessionTTL:      cfg.Session.TTL,
		RememberTTL:     cfg.Session.RememberTTL,
		LoginPerMinute:  cfg.RateLimit.LoginPerMinute,
		LoginBurst:      cfg.RateLimit.LoginBurst,
		SecureCookies:   cfg.Session.SecureCookies,
	}

	server := api.NewServer(
		serverConfig,
		authService,
		accountService,
		listService,
		itemService,
		claimService,
		userRepo,
		sessions,
		logger,
	)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started")

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}
