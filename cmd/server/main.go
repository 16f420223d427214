package main

import (
	"context"
	"direct-messages-api/internal/logging"
	"direct-messages-api/internal/provider"
	"direct-messages-api/internal/server"
	"direct-messages-api/internal/storage"
	"direct-messages-api/internal/storage/postgres"
	"direct-messages-api/internal/storage/sqlite"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"log"
	"time"
)

// store is what both storage backends provide to the providers
type store interface {
	provider.UserStore
	provider.MessageStore
	Close() error
}

func main() {
	// .env is optional, real environment wins
	_ = godotenv.Load()

	logCfg := logging.Config{}
	if err := env.Parse(&logCfg); err != nil {
		log.Fatalf("Cannot parse logging env config: %v", err)
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		log.Fatalf("logging.New: %v", err)
	}
	defer logger.Sync()

	sugar := logger.Sugar()
	sugar.Info("Application is starting")

	cfg := server.EnvConfig{}
	if err := env.Parse(&cfg); err != nil {
		sugar.Fatalf("Cannot parse env config: %v", err)
	}

	storageCfg := storage.Config{}
	if err := env.Parse(&storageCfg); err != nil {
		sugar.Fatalf("Cannot parse storage env config: %v", err)
	}

	s, err := openStore(context.Background(), sugar, storageCfg)
	if err != nil {
		sugar.Fatalf("Cannot create Store instance: %v", err)
	}

	serverOpts := []server.Option{
		server.WithEnvConfig(cfg),
		server.RegisterAfterShutdown(func() {
			sugar.Info("Closing store")
			if err := s.Close(); err != nil {
				sugar.Errorf("store.Close: %v", err)
			}
			sugar.Info("Store is closed")
		}),
	}

	users := provider.NewUsers(sugar, s, provider.NewBcryptHasher())
	messages := provider.NewMessages(sugar, s, s)

	srv, err := server.NewServer(sugar, users, messages, serverOpts...)
	if err != nil {
		sugar.Fatalf("Cannot create Server instance: %v", err)
	}

	if err := srv.Start(); err != nil {
		sugar.Fatalf("Cannot start http srv: %v", err)
	}
}

func openStore(ctx context.Context, logger *zap.SugaredLogger, cfg storage.Config) (store, error) {
	switch cfg.Driver {
	case storage.DriverSQLite:
		logger.Infof("Using sqlite storage at %s", cfg.SQLitePath)
		return sqlite.New(ctx, logger, cfg.SQLitePath)
	default:
		logger.Infof("Using postgres storage at %s:%d", cfg.Host, cfg.Port)
		return postgres.New(ctx, logger, cfg.DSN(), postgres.ConnectionTimeout(30*time.Second))
	}
}
