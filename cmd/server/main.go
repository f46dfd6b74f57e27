package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/blobs-io/blobs.live/internal/api/controller"
	apirepository "github.com/blobs-io/blobs.live/internal/api/repository"
	"github.com/blobs-io/blobs.live/internal/api/service"
	"github.com/blobs-io/blobs.live/internal/captcha"
	"github.com/blobs-io/blobs.live/internal/config"
	"github.com/blobs-io/blobs.live/internal/db"
	"github.com/blobs-io/blobs.live/internal/gamemap"
	"github.com/blobs-io/blobs.live/internal/hub"
	"github.com/blobs-io/blobs.live/internal/logger"
	"github.com/blobs-io/blobs.live/internal/registry"
	"github.com/blobs-io/blobs.live/internal/repository"
	"github.com/blobs-io/blobs.live/internal/server"
	"github.com/blobs-io/blobs.live/internal/telemetry"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Parse("config.json")
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()
	logger.Init()

	// Initialize Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("failed to initialize redis: %v", err)
	}

	// Initialize SQLite DB
	pool, err := db.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to initialize sqlite db: %v", err)
	}

	// Create repositories
	accountRepo := apirepository.NewAccountRepository(pool)
	sessionRepo := apirepository.NewSessionRepository(pool)
	feedRepo := apirepository.NewFeedRepository(pool)
	presenceRepo := repository.NewPresenceRepository(rdb)
	instanceRepo := repository.NewInstanceRepository(rdb)

	// Create services
	captchas := captcha.NewStore()
	userService := service.NewUserService(accountRepo, sessionRepo, captchas)
	feedService := service.NewFeedService(feedRepo)

	// Create controllers
	userController := controller.NewUserController(userService, captchas)
	feedController := controller.NewFeedController(feedService)

	// Create hub
	instanceID := uuid.New().String()
	reg := registry.New()
	gameHub := hub.New(hub.Deps{
		InstanceID: instanceID,
		Registry:   reg,
		Captchas:   captchas,
		Maps:       gamemap.NewStore(),
		Accounts:   accountRepo,
		Sessions:   sessionRepo,
		Feed:       feedRepo,
		Presence:   presenceRepo,
	})
	if err := gameHub.SeedRooms(); err != nil {
		log.Fatalf("failed to seed rooms: %v", err)
	}
	go gameHub.Run()

	addr := fmt.Sprintf(":%d", cfg.Port)

	if cfg.Loadbalancer.Enabled {
		go announceInstance(instanceRepo, instanceID, cfg.Loadbalancer.Host)
	}

	// Create the Gin-based server
	srv := server.NewServer(cfg, gameHub, reg, userController, feedController)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.Engine(),
	}

	go func() {
		slog.Info("http server started", "addr", addr, "instance.id", instanceID)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop

	slog.Info("shutting down server")
	gameHub.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	slog.Info("server exiting")
}

// announceInstance registers with the loadbalancer and keeps the registration
// alive. Failures are logged and retried on the next beat; the game never
// depends on the loadbalancer being up.
func announceInstance(instances repository.InstanceRepository, instanceID, addr string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := instances.Register(ctx, instanceID, addr); err != nil {
		slog.Warn("failed to register instance", "error", err)
	}
	cancel()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := instances.Heartbeat(ctx, instanceID); err != nil {
			slog.Warn("failed to refresh instance registration", "error", err)
		}
		cancel()
	}
}
