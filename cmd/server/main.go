package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/bank-customer-api/internal/auth"
	"github.com/hongminglow/bank-customer-api/internal/config"
	"github.com/hongminglow/bank-customer-api/internal/http/handlers"
	"github.com/hongminglow/bank-customer-api/internal/metrics"
	"github.com/hongminglow/bank-customer-api/internal/server"
	"github.com/hongminglow/bank-customer-api/internal/storage"
	"github.com/hongminglow/bank-customer-api/internal/storage/memory"
	"github.com/hongminglow/bank-customer-api/internal/storage/postgres"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logrus.SetLevel(cfg.Level())
	log := logrus.WithField("service", "bank-customer-api")

	ctx := context.Background()
	store, db, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("init storage")
	}
	defer closeStore()

	hasher, err := auth.NewPasswordHasher(cfg.PasswordHashAlgorithm)
	if err != nil {
		log.WithError(err).Fatal("init password hasher")
	}
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL())
	if err != nil {
		log.WithError(err).Fatal("init token manager")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	authMetrics := metrics.NewAuth(registry)

	svc := auth.NewService(store, hasher, tokens, auth.Options{
		Lockout:  auth.NewLockoutPolicy(cfg.LockoutMaxFailures, cfg.LockDuration()),
		Logger:   log,
		Observer: authMetrics,
	})

	srv := server.New(cfg, server.Deps{
		Auth:    svc,
		Users:   store,
		Tokens:  tokens,
		Metrics: authMetrics,
		DB:      db,
		Logger:  log,
	})

	go func() {
		log.WithField("addr", cfg.HTTPAddress()).Info("bank customer API listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Error("graceful shutdown error")
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, handlers.Pinger, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		logrus.Warn("using in-memory storage; data is lost on restart")
		return memory.NewSeeded(storage.DefaultSeed()), nil, func() {}, nil
	}
	pg, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	return pg, pg, pg.Close, nil
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found; relying on existing environment")
	}
}
