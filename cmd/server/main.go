package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlas-express/service-delivery/internal/application"
	"github.com/atlas-express/service-delivery/internal/auth"
	"github.com/atlas-express/service-delivery/internal/config"
	"github.com/atlas-express/service-delivery/internal/domain/delivery"
	"github.com/atlas-express/service-delivery/internal/events"
	"github.com/atlas-express/service-delivery/internal/geo"
	"github.com/atlas-express/service-delivery/internal/handler"
	"github.com/atlas-express/service-delivery/internal/logger"
	"github.com/atlas-express/service-delivery/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-delivery")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-delivery",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := repository.Connect(cfg.DB.DSN(), log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.QuoteModel{},
			&repository.BookingModel{},
			&repository.BookingRequestModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := repository.RunMigrations(cfg.DB.URL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTSecret)

	// Initialize Kafka producer when brokers are configured
	var publisher application.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(cfg.KafkaBrokers, log)
		defer func() { _ = producer.Close() }()
		publisher = producer
	} else {
		log.Info("no kafka brokers configured, event publishing disabled")
	}

	// Shared HTTP client for the external geo providers
	geoClient := &http.Client{Timeout: 10 * time.Second}

	geocoder := geo.NewNominatimGeocoder(cfg.NominatimBaseURL, geoClient)
	routeResolver := geo.NewFallbackRouteResolver(
		"", cfg.ORSAPIKey, cfg.OSRMBaseURL, geoClient, log,
	)
	if cfg.ORSAPIKey == "" {
		log.Info("no openrouteservice key configured, primary routing tier disabled")
	}

	// Initialize repositories
	quoteRepo := repository.NewGormQuoteRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	requestRepo := repository.NewGormBookingRequestRepository(db)

	// Initialize pricing engine
	pricingEngine := delivery.NewStandardPricingEngine()

	// Initialize application service
	deliveryService := application.NewDeliveryService(
		geocoder,
		routeResolver,
		pricingEngine,
		quoteRepo,
		bookingRepo,
		requestRepo,
		publisher,
		log,
	)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(log, jwtManager, deliveryService, db)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-delivery...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-delivery stopped")
}
