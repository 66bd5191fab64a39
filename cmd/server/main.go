package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/configurator-backend/config"
	"github.com/ikkim/configurator-backend/internal/app/controller"
	"github.com/ikkim/configurator-backend/internal/app/repository"
	"github.com/ikkim/configurator-backend/internal/app/service"
	"github.com/ikkim/configurator-backend/internal/db"
	"github.com/ikkim/configurator-backend/internal/middleware"
	"github.com/ikkim/configurator-backend/internal/notification"
	"github.com/ikkim/configurator-backend/internal/router"
	"github.com/ikkim/configurator-backend/internal/scheduler"
	"github.com/ikkim/configurator-backend/internal/storage"
	ws "github.com/ikkim/configurator-backend/internal/websocket"
	"github.com/ikkim/configurator-backend/pkg/logger"
	"github.com/ikkim/configurator-backend/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
		Service:     "configurator-api",
	})

	logger.Info("Starting Configurator Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"storage":     cfg.Storage.Driver,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if err := db.BootstrapAdmin(db.GetDB(), cfg.JWT.AdminEmail, cfg.JWT.AdminPassword); err != nil {
		logger.Fatal("Failed to create bootstrap admin", err)
	}

	assets, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to prepare asset storage", err)
	}
	// only the S3 store can hand out direct upload URLs
	presigner, _ := assets.(controller.Presigner)

	// Preview cache is optional; previews are re-rendered without it
	var previewCache service.PreviewCache
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, preview cache disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			previewCache = redis.NewPreviewCache(redis.GetClient(), cfg.Preview.Retention)
			defer func() {
				if err := redis.Close(); err != nil {
					logger.Error("Failed to close Redis connection", err)
				}
			}()
		}
	}

	// Notifications
	hub := ws.NewHub()
	go hub.Run(ctx)

	notifiers := []notification.Notifier{hub}
	emailNotifier, err := notification.NewEmailNotifier(notification.NewSMTPMailer(cfg.SMTP), cfg.SMTP)
	if err != nil {
		logger.Fatal("Failed to prepare email notifier", err)
	}
	notifiers = append(notifiers, emailNotifier)
	dispatcher := notification.NewDispatcher(notifiers...)

	// Repositories
	productRepo := repository.NewProductRepository(db.GetDB())
	layerRepo := repository.NewLayerRepository(db.GetDB())
	rfqRepo := repository.NewRFQRepository(db.GetDB())
	staffRepo := repository.NewStaffUserRepository(db.GetDB())

	// Services
	validator := service.NewConfigurationValidator(cfg.RFQ.DefaultMinQuantity)
	pricing := service.NewPricingCalculator()
	patterns := service.NewAssetPatternFetcher(assets, cfg.Preview.FetchTimeout, cfg.Preview.MaxPatternBytes)

	authService := service.NewAuthService(staffRepo, cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	catalogService := service.NewCatalogService(productRepo, layerRepo, assets, cfg.RFQ.DefaultMinQuantity)
	configurationService := service.NewConfigurationService(productRepo, validator, pricing)
	previewService := service.NewPreviewService(productRepo, validator, assets, patterns, previewCache)
	rfqService := service.NewRFQService(rfqRepo, productRepo, validator, pricing, previewService, dispatcher, cfg.RFQ.StrictTransitions)

	// Controllers
	authController := controller.NewAuthController(authService)
	configurationController := controller.NewConfigurationController(catalogService, configurationService, previewService)
	catalogController := controller.NewCatalogController(catalogService)
	rfqController := controller.NewRFQController(rfqService)
	adminRFQController := controller.NewAdminRFQController(rfqService)
	uploadController := controller.NewUploadController(presigner)
	dashboardController := controller.NewDashboardController(hub, cfg.CORS.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	r := router.NewRouter(
		authController,
		configurationController,
		catalogController,
		rfqController,
		adminRFQController,
		uploadController,
		dashboardController,
		authMiddleware,
		cfg,
	)

	// Preview cleanup
	cleanup := scheduler.NewPreviewCleanupScheduler(assets, service.PreviewPrefix, cfg.Preview.CleanupSchedule, cfg.Preview.Retention)
	if err := cleanup.Start(); err != nil {
		logger.Fatal("Failed to start preview cleanup scheduler", err)
	}
	defer cleanup.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown did not complete", err)
	}

	logger.Info("Server stopped successfully")
}
