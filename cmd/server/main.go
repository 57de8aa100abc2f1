package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/discovery"
	"github.com/example/storefront/pkg/notification"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/service"
	"github.com/example/storefront/server"
	"go.uber.org/zap"
)

func main() {
	// Load config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting storefront API",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	// Relational store
	db, err := repository.NewMySQLRepository(&cfg.MySQL)
	if err != nil {
		logger.Fatal("Failed to connect to MySQL", zap.Error(err))
	}

	// Cart cache
	cache := repository.NewRedisRepository(&cfg.Redis)
	defer cache.Close()

	ctx := context.Background()
	if err := cache.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}

	// Event log
	events, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		events.Close(closeCtx)
	}()

	// Notification actor
	notifier, err := notification.New(&cfg.SendGrid, logger)
	if err != nil {
		logger.Fatal("Failed to start notification actor", zap.Error(err))
	}
	defer notifier.Close()

	// Services
	cartSvc := service.NewCartService(cache, db, logger)
	orderSvc := service.NewOrderService(cache, db, db, notifier, logger)
	catalogSvc := service.NewCatalogService(db, db, events, logger)
	authSvc := service.NewAuthService(db, db, cfg.Auth.Secret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, logger)

	// HTTP server
	srv := server.NewServer(cfg, logger, cartSvc, orderSvc, catalogSvc, authSvc, db, events)
	srv.SetupRoutes()

	// Register this instance in etcd
	instance := &discovery.Instance{
		Name: cfg.Server.Name,
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}
	registry, err := discovery.NewRegistry(&cfg.Etcd)
	if err != nil {
		logger.Warn("Failed to connect to etcd, continuing without registration", zap.Error(err))
		registry = nil
	} else if err := registry.Register(ctx, instance); err != nil {
		logger.Warn("Failed to register instance", zap.Error(err))
	} else {
		logger.Info("Instance registered in etcd",
			zap.String("name", instance.Name),
			zap.String("address", fmt.Sprintf("%s:%d", instance.Host, instance.Port)))
	}

	// Start server in goroutine
	srvErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			srvErr <- err
		}
	}()

	logger.Info("Storefront API started")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-srvErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	if registry != nil {
		if err := registry.Deregister(ctx, instance); err != nil {
			logger.Error("Failed to deregister instance", zap.Error(err))
		}
		registry.Close()
	}

	logger.Info("Storefront API stopped")
}
