package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geofence-tracker/internal/core/cache"
	"geofence-tracker/internal/core/config"
	"geofence-tracker/internal/core/httpclient"
	"geofence-tracker/internal/core/logger"
	"geofence-tracker/internal/core/server"
	"geofence-tracker/internal/features/geofence/adapters"
	"geofence-tracker/internal/features/geofence/domain"
	"geofence-tracker/internal/features/geofence/engine"
	"geofence-tracker/internal/features/geofence/handler"
	"geofence-tracker/internal/features/geofence/ports"
	"geofence-tracker/internal/features/geofence/service"
	"geofence-tracker/internal/features/geofence/store"

	firebase "firebase.google.com/go/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

const shutdownTimeout = 10 * time.Second

// @title Geofence Tracker API
// @version 1.0
// @description Tracks parking bookings against geofences around the booked space and triggers automatic checkout.
// @contact.name API Support
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Live status cache
	redisCache, err := cache.NewRedisAdapter(cfg.Redis.URL, "geofence:")
	if err != nil {
		l.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		l.Fatal("Redis Health Check Failed", zap.Error(err))
	}
	l.Info("Redis connection verified")
	statusCache := adapters.NewRedisStatusCache(redisCache, cfg.Redis.StatusTTL)

	// Analytics sink
	var analytics ports.AnalyticsSink = adapters.NewLogAnalyticsSink(logger.Named("analytics"))
	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			l.Fatal("Failed to create Postgres pool", zap.Error(err))
		}
		defer pool.Close()

		sink := adapters.NewPostgresAnalyticsSink(pool)
		if err := sink.EnsureSchema(ctx); err != nil {
			l.Fatal("Failed to prepare analytics schema", zap.Error(err))
		}
		analytics = sink
		l.Info("Postgres analytics sink ready")
	}

	// Notification delivery
	var notifier ports.Notifier = adapters.NewLogNotifier(logger.Named("notifications"))
	if cfg.Firebase.ProjectID != "" {
		var opts []option.ClientOption
		if cfg.Firebase.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
		}
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID}, opts...)
		if err != nil {
			l.Fatal("Failed to init Firebase", zap.Error(err))
		}
		messagingClient, err := app.Messaging(ctx)
		if err != nil {
			l.Fatal("Failed to init Firebase messaging", zap.Error(err))
		}
		notifier = adapters.NewFCMNotifier(messagingClient)
		l.Info("FCM notifier ready", zap.String("project_id", cfg.Firebase.ProjectID))
	}

	checkout := adapters.NewBookingCheckoutClient(cfg.Booking.ServiceURL, httpclient.NewClient(cfg.Booking.Timeout))

	// Engine
	classifier, err := domain.NewClassifier(cfg.Geofence.Thresholds())
	if err != nil {
		l.Fatal("Invalid geofence thresholds", zap.Error(err))
	}
	geoEngine := engine.New(store.New(), classifier)

	reaper, err := engine.NewReaper(geoEngine, cfg.Lifecycle.SessionMaxAge, cfg.Lifecycle.ReaperSchedule, logger.Named("reaper"))
	if err != nil {
		l.Fatal("Failed to create session reaper", zap.Error(err))
	}

	// Geofence Service & Handler
	geoService := service.NewGeofenceService(geoEngine, notifier, analytics, statusCache, checkout, logger.Named("geofence"))
	geoHandler := handler.NewGeofenceHandler(geoService, cfg.RateLimits.PingsPerSecond, cfg.RateLimits.PingBurst)

	srv := server.New(cfg)

	// Register Routes
	srv.App.Post("/bookings/:id/tracking", geoHandler.StartTracking)
	srv.App.Delete("/bookings/:id/tracking", geoHandler.EndTracking)
	srv.App.Post("/bookings/:id/parking", geoHandler.StartParking)
	srv.App.Delete("/bookings/:id/parking", geoHandler.EndParking)
	srv.App.Post("/bookings/:id/location", geoHandler.UpdateLocation)
	srv.App.Get("/bookings/:id/session", geoHandler.GetSession)
	srv.App.Get("/bookings/:id/status", geoHandler.GetStatus)

	reaper.OnSweep(geoService.SessionsReaped)
	reaper.OnSweep(geoHandler.SessionsReaped)
	reaper.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := reaper.Stop(shutdownCtx); err != nil {
			l.Warn("Session reaper did not stop in time", zap.Error(err))
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		l.Fatal("Server stopped with error", zap.Error(err))
	}
	l.Info("Application stopped", zap.Int("active_sessions", geoEngine.ActiveSessions()))
}
