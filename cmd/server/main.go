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
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/hongminglow/debt-ledger/internal/config"
	"github.com/hongminglow/debt-ledger/internal/server"
	"github.com/hongminglow/debt-ledger/internal/storage"
	"github.com/hongminglow/debt-ledger/internal/storage/postgres"
	"github.com/hongminglow/debt-ledger/internal/storage/sqlite"
)

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	port := flag.String("port", "", "HTTP port, overrides PORT")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	loadLocalEnv(log, *envFile)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if *port != "" {
		cfg.Port = *port
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level; using info")
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).WithField("driver", cfg.StoreDriver).Fatal("init store")
	}
	defer store.Close()

	srv := server.New(cfg, store, log)

	go func() {
		log.WithFields(logrus.Fields{
			"addr":   cfg.HTTPAddress(),
			"prefix": cfg.APIPrefix,
			"driver": cfg.StoreDriver,
		}).Info("debt ledger listening")
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

func openStore(ctx context.Context, cfg config.Config, log *logrus.Logger) (storage.Store, error) {
	if cfg.StoreDriver == config.DriverSQLite {
		return sqlite.Open(ctx, sqlite.Config{
			Path:   cfg.SQLitePath,
			Logger: log.WithField("component", "sqlite"),
		})
	}
	return postgres.NewStore(ctx, cfg.DatabaseURL)
}

func loadLocalEnv(log *logrus.Logger, path string) {
	if err := godotenv.Load(path); err != nil {
		log.WithField("path", path).Info("no .env file found; relying on existing environment")
	}
}
