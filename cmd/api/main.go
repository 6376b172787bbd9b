package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/identity-platform/auth-service/internal/api"
	"github.com/identity-platform/auth-service/internal/core/service"
	"github.com/identity-platform/auth-service/internal/infrastructure/config"
	"github.com/identity-platform/auth-service/internal/infrastructure/crypto"
	mongodb "github.com/identity-platform/auth-service/internal/infrastructure/db/mongo"
	redisdb "github.com/identity-platform/auth-service/internal/infrastructure/db/redis"
	"github.com/identity-platform/auth-service/pkg/logger"
)

func main() {
	// Root context that cancels on shutdown signals.
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(rootCtx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Service: "auth-service",
		Pretty:  cfg.Env == "development",
	})

	mongoClient, db, err := mongodb.Connect(rootCtx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		AppName:     "auth-service",
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect failed")
	}
	defer func() { _ = mongodb.Disconnect(mongoClient) }()

	rdb, err := redisdb.Connect(rootCtx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}
	defer func() { _ = rdb.Close() }()

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(rootCtx); err != nil {
		log.Fatal().Err(err).Msg("index setup failed")
	}

	e := api.NewRouter(api.Dependencies{
		Log:         log,
		Users:       users,
		Hasher:      crypto.NewBcryptHasher(cfg.Auth.BcryptCost),
		Tokens:      service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL()),
		Revoker:     redisdb.NewRevocationStore(rdb),
		UseDatabase: cfg.Auth.UseDatabase,
		Mongo:       db,
		Redis:       rdb,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting auth service")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-rootCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
	log.Info().Msg("server stopped cleanly")
}
