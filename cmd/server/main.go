// Command server runs the CareerFix HTTP API.
//
//	@title						CareerFix API
//	@version					1.0
//	@description				Career roadmaps and resume reviews with per-identity free quotas.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/careerfix-backend/internal/ai"
	"github.com/tbourn/careerfix-backend/internal/auth"
	"github.com/tbourn/careerfix-backend/internal/config"
	httpapi "github.com/tbourn/careerfix-backend/internal/http"
	"github.com/tbourn/careerfix-backend/internal/http/middleware"
	"github.com/tbourn/careerfix-backend/internal/observability"
	"github.com/tbourn/careerfix-backend/internal/repo"
	"github.com/tbourn/careerfix-backend/internal/services"
	"github.com/tbourn/careerfix-backend/internal/sysutil"
	"github.com/tbourn/careerfix-backend/internal/tasks"
)

const (
	shutdownTimeout = 20 * time.Second
	taskTimeout     = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("application error")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)
	version := sysutil.Version()
	log.Info().Str("version", version).Str("db_driver", cfg.DB.Driver).Msg("starting")

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
		shutdownOTel = func(context.Context) error { return nil }
	}

	db, err := repo.Open(cfg.DB)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	if err := observability.InstrumentDB(db, cfg.OTEL); err != nil {
		log.Warn().Err(err).Msg("database tracing disabled")
	}

	var gen services.Generator
	gemini, err := ai.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout)
	switch {
	case errors.Is(err, ai.ErrDisabled):
		log.Warn().Msg("no AI key configured; generation requests will fail with generation_unavailable")
		gen = ai.Disabled{}
	case err != nil:
		return err
	default:
		gen = gemini
	}

	var verifier middleware.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		v, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
		if err != nil {
			return err
		}
		verifier = v
	} else {
		log.Warn().Msg("JWT_SECRET not set; every request is served as a guest")
	}

	var rdb *redis.Client
	if cfg.Guards.RedisURL != "" {
		rdb, err = services.NewRedisClient(ctx, cfg.Guards.RedisURL)
		if err != nil {
			// guards fall back to in-process state
			log.Warn().Err(err).Msg("redis unavailable; using in-process cool-downs")
			rdb = nil
		}
	}

	dispatcher := tasks.New(taskTimeout, observability.RecordSoftFailure)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:       db,
		AI:       gen,
		Verifier: verifier,
		Redis:    rdb,
		Tasks:    dispatcher,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("background tasks still running at shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("telemetry shutdown error")
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close error")
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("database close error")
		}
	}

	log.Info().Msg("stopped")
	return nil
}
