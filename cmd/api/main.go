package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/major-app/notify-engine/config"
	healthHandler "github.com/major-app/notify-engine/internal/handler/health"
	notificationHandler "github.com/major-app/notify-engine/internal/handler/notification"
	sessionHandler "github.com/major-app/notify-engine/internal/handler/session"
	"github.com/major-app/notify-engine/internal/middleware"
	"github.com/major-app/notify-engine/internal/repository"
	memoryRepo "github.com/major-app/notify-engine/internal/repository/memory"
	postgresRepo "github.com/major-app/notify-engine/internal/repository/postgres"
	redisRepo "github.com/major-app/notify-engine/internal/repository/redis"
	"github.com/major-app/notify-engine/internal/router"
	notificationService "github.com/major-app/notify-engine/internal/service/notification"
	"github.com/major-app/notify-engine/internal/service/stats"
	"github.com/major-app/notify-engine/internal/service/suppression"
	"github.com/major-app/notify-engine/internal/session"
	"github.com/major-app/notify-engine/internal/store"
	"github.com/major-app/notify-engine/pkg/auth"
	"github.com/major-app/notify-engine/pkg/logger"
	redisBroker "github.com/major-app/notify-engine/pkg/messaging/redis"
	"github.com/major-app/notify-engine/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
	})

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.New(registry, "notify")

	// Persistence backend for per-session notification lists.
	var (
		persister   repository.Persister
		storagePing healthHandler.Pinger
	)
	switch cfg.Storage.Backend {
	case "redis":
		p, err := redisRepo.NewPersister(redisRepo.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis storage")
		}
		defer p.Close()
		persister = p
		storagePing = p
	case "postgres":
		db, err := postgresRepo.NewDB(postgresRepo.DatabaseConfig{
			Host:     cfg.Storage.Postgres.Host,
			Port:     cfg.Storage.Postgres.Port,
			User:     cfg.Storage.Postgres.User,
			Password: cfg.Storage.Postgres.Password,
			Name:     cfg.Storage.Postgres.Name,
			SSLMode:  cfg.Storage.Postgres.SSLMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres storage")
		}
		defer db.Close()
		p := postgresRepo.NewPersister(db)
		if err := p.Migrate(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate postgres storage")
		}
		persister = p
		storagePing = p
	default:
		persister = memoryRepo.NewPersister()
	}

	// Live event stream.
	broker, err := redisBroker.NewBroker(redisBroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, appLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to event stream")
	}
	defer broker.Close()

	// Core engine.
	notificationStore := store.New(persister, appLogger, engineMetrics)
	notificationSvc := notificationService.NewService(notificationStore, appLogger)
	locationTracker := suppression.NewTracker()
	policy := suppression.NewPolicy(locationTracker)
	detector := stats.NewDetector(notificationSvc, appLogger)
	binder := session.NewBinder(broker, notificationStore, notificationSvc, policy, detector, engineMetrics, appLogger)

	// HTTP surface.
	tokenValidator := auth.NewValidator(cfg.JWT.Secret)
	authMiddleware := middleware.NewAuthMiddleware(tokenValidator)

	notificationH := notificationHandler.NewHandler(notificationSvc)
	sessionH := sessionHandler.NewHandler(binder, locationTracker, detector)
	healthH := healthHandler.NewHandler(storagePing, broker)

	r := router.NewRouter(authMiddleware, notificationH, sessionH, healthH, registry, appLogger, router.Config{
		RateLimit: rate.Limit(cfg.Server.RateLimit),
		RateBurst: cfg.Server.RateBurst,
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("notify engine started")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	// Unbind first so handlers are unregistered before the broker closes.
	binder.Unbind(binder.Current())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
