// Command console runs the People Management System admin console.
//
// Startup sequence:
//
//  1. Load configuration from environment variables.
//  2. Initialise the structured logger.
//  3. Connect to Redis (sessions, flashes, mutation locks).
//  4. Connect to MongoDB (activity trail) and ensure its indexes.
//  5. Start the activity dispatcher.
//  6. Wire the People API clients and the HTTP router.
//  7. Serve until SIGINT/SIGTERM, then shut down gracefully.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/people-admin/console/docs"
	"github.com/people-admin/console/internal/api"
	"github.com/people-admin/console/internal/api/middleware"
	"github.com/people-admin/console/internal/core/domain"
	mongostore "github.com/people-admin/console/internal/infrastructure/db/mongo"
	redisstore "github.com/people-admin/console/internal/infrastructure/db/redis"
	"github.com/people-admin/console/internal/infrastructure/http/handlers"
	"github.com/people-admin/console/internal/infrastructure/queue"
	"github.com/people-admin/console/internal/infrastructure/upstream"
	"github.com/people-admin/console/internal/pkg/config"
	"github.com/people-admin/console/pkg/logger"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 15 * time.Second
	probeTimeout    = 2 * time.Second
)

// @title        People Console API
// @version      1.0
// @description  Session and table endpoints of the People Management System console.
// @BasePath     /
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "people-console",
		Env:     cfg.Env,
	})
	log.Info().Str("port", cfg.Port).Str("api", cfg.API.BaseURL()).Msg("console starting")

	startupCtx, startupCancel := context.WithTimeout(context.Background(), startupTimeout)
	defer startupCancel()

	// Redis
	rdb, err := redisstore.Connect(startupCtx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	must(log, err, "connect to redis")
	defer func() {
		if cerr := rdb.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("redis close error")
		}
	}()

	// MongoDB
	store, err := mongostore.Connect(startupCtx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	must(log, err, "connect to mongodb")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := store.Close(ctx); cerr != nil {
			log.Error().Err(cerr).Msg("mongodb close error")
		}
	}()

	// Activity dispatcher
	activityRepo := store.Activity()
	dispatcher := queue.NewDispatcher(cfg.Activity.Workers, activityRepo, logger.Component("activity"))
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	// People API
	routes := domain.DefaultPublicRoutes()
	apiClient := upstream.New(upstream.Config{
		BaseURL:      cfg.API.BaseURL(),
		Timeout:      cfg.API.Timeout,
		PublicRoutes: routes,
	}, log)

	var refreshes sync.WaitGroup
	e, err := api.NewRouter(api.Dependencies{
		Sessions:    redisstore.NewSessionRepository(rdb),
		Flashes:     redisstore.NewFlashRepository(rdb),
		Lock:        redisstore.NewMutationLock(rdb),
		Auth:        upstream.NewAuthClient(apiClient),
		Users:       upstream.NewUserClient(apiClient, log),
		Roles:       upstream.NewRoleClient(apiClient, log),
		ActivityLog: activityRepo,
		Activity:    dispatcher,
		Session: middleware.SessionConfig{
			CookieName:   cfg.Session.CookieName,
			CookieSecure: cfg.Session.CookieSecure,
			MaxTTL:       cfg.Session.MaxTTL,
			RefreshAfter: cfg.Session.RefreshInterval,
			Routes:       routes,
			Refreshes:    &refreshes,
		},
		CookieSecure: cfg.Session.CookieSecure,
		Checks: map[string]handlers.Check{
			"redis": func(ctx context.Context) error {
				return redisstore.Ping(ctx, rdb, probeTimeout)
			},
			"mongodb":    store.Ping,
			"people_api": apiClient.Ping,
		},
		Log: log,
	})
	must(log, err, "build router")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ":"+cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("http server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	// Requests are drained; finish profile refreshes and flush queued
	// activity before closing stores.
	refreshes.Wait()
	stopWorkers()
	dispatcher.Wait()

	log.Info().Msg("console stopped cleanly")
}

// must stops the process on a startup failure. After startup every error is
// returned and handled.
func must(log zerolog.Logger, err error, step string) {
	if err != nil {
		log.Fatal().Err(err).Str("step", step).Msg("startup failure")
	}
}
