package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/medgrid/resqroute/internal/adapters/http"
	natsadapter "github.com/medgrid/resqroute/internal/adapters/nats"
	"github.com/medgrid/resqroute/internal/adapters/postgres"
	"github.com/medgrid/resqroute/internal/adapters/valkey"
	"github.com/medgrid/resqroute/internal/core/ports"
	"github.com/medgrid/resqroute/internal/core/usecases"
	"github.com/medgrid/resqroute/internal/pkg/config"
	"github.com/medgrid/resqroute/internal/pkg/logging"
	"github.com/medgrid/resqroute/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("resqroute-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		publisher = pub
		defer pub.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Repos
	dispatchRepo := postgres.NewDispatchRepo(db)
	positionRepo := postgres.NewAmbulancePositionRepo(db)

	// Use cases
	routeSvc := usecases.NewRouteService(
		usecases.DirectRouteBuilder{},
		usecases.SystemRand{},
		cfg.Engine.BaseSpeedKmh,
		time.Duration(cfg.Engine.ComputeLatencyMs)*time.Millisecond,
	)
	trafficSvc := usecases.NewTrafficService(
		usecases.SystemRand{},
		time.Duration(cfg.Engine.ComputeLatencyMs)*time.Millisecond,
	)
	facilitySvc := usecases.NewFacilityService(cfg.Facilities)
	dispatchSvc := usecases.NewDispatchService(
		facilitySvc, routeSvc, trafficSvc, dispatchRepo, publisher, cfg.Engine.Candidates,
	)
	trackingSvc := usecases.NewTrackingService(positionRepo, publisher)

	deps := &http.Dependencies{
		Routes:     routeSvc,
		Traffic:    trafficSvc,
		Facilities: facilitySvc,
		Dispatch:   dispatchSvc,
		Tracking:   trackingSvc,
		Publisher:  publisher,
		Zones:      cfg.Sampler.Zones,
		NATS:       natsConn,
		DB:         db,
		Cache:      cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "ResQRoute API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.resqroute.in",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "facilities", len(cfg.Facilities))
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
