// Package main initializes and starts the inventory server, setting
// up configuration, logging, database and redis connections,
// repositories, services, the broadcast hub, and HTTP handlers.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/akozyrev/stocktake/internal/broadcast"
	"github.com/akozyrev/stocktake/internal/config"
	"github.com/akozyrev/stocktake/internal/db"
	"github.com/akozyrev/stocktake/internal/event"
	"github.com/akozyrev/stocktake/internal/logger"
	"github.com/akozyrev/stocktake/internal/models"
	"github.com/akozyrev/stocktake/internal/repository"
	"github.com/akozyrev/stocktake/internal/server/handler/http"
	"github.com/akozyrev/stocktake/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// Stale active sessions are force-completed after this long.
const (
	cleanInterval    = 10 * time.Minute
	sessionRetention = 8 * time.Hour
)

// orDefault mirrors cmp.Or for two strings; cmp.Or needs Go 1.22 and
// this module must build with the installed Go 1.21 toolchain.
func orDefault(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func main() {
	// Load .env before flags and env overrides are read.
	_ = godotenv.Load()

	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", orDefault(version, "N/A"))
	fmt.Printf("Build date: %s\n", orDefault(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	if err := db.Seed(ctx, postgresDB); err != nil {
		zapLogger.Fatal("cannot seed database", zap.Error(err))
	}

	// Redis backs the broadcast bridge, the login throttle, and the
	// token store.
	redisClient := redis.NewClient(&redis.Options{Addr: options.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("cannot reach redis", zap.Error(err))
	}

	bridge := broadcast.NewRedisBridge(redisClient, zapLogger)
	hub := broadcast.NewBridgedHub(zapLogger, bridge)
	go bridge.Run(ctx)

	// Initialize repositories.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	sessionRepo := repository.NewPostgresSessionRepository(postgresDB)
	inventoryRepo := repository.NewPostgresInventoryRepository(postgresDB)
	prefsRepo := repository.NewPostgresPreferencesRepository(postgresDB)
	tokenStore := repository.NewRedisTokenStore(redisClient)

	// Initialize business-logic services.
	authService := service.NewAuthService(userRepo, tokenStore)
	inventoryService := service.NewInventoryService(inventoryRepo)
	auditService := service.NewAuditService(sessionRepo, inventoryRepo, hub, options.Room)
	prefsService := service.NewPreferencesService(prefsRepo, hub, options.Room)

	// Force-complete abandoned sessions and tell connected clients.
	db.StartStaleSessionCleaner(ctx, postgresDB, cleanInterval, sessionRetention, zapLogger,
		func(sess models.AuditSession) {
			payload := event.AuditCompletedPayload{
				SessionID:          sess.SessionID,
				User:               sess.User,
				ItemsScanned:       sess.ItemsScanned,
				DiscrepanciesFound: sess.DiscrepanciesFound,
			}
			if sess.EndTime != nil {
				payload.EndTime = sess.EndTime.Format(time.RFC3339)
			}
			hub.Publish(options.Room, event.AuditCompleted, payload)
		})

	// Create HTTP handlers.
	authHandler := &http.AuthHandler{AuthService: authService}
	inventoryHandler := &http.InventoryHandler{InventoryService: inventoryService}
	sessionHandler := &http.SessionHandler{AuditService: auditService}
	prefsHandler := &http.PreferencesHandler{PreferencesService: prefsService}
	wsHandler := &http.WSHandler{Hub: hub, Log: zapLogger}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, inventoryHandler, sessionHandler,
		prefsHandler, wsHandler, authService, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Port,
		Handler: router,
	}

	go func() {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		if err := server.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("shutdown", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
