package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/felo/mailroom/internal/config"
	"github.com/felo/mailroom/internal/db"
	"github.com/felo/mailroom/internal/handlers"
	"github.com/felo/mailroom/internal/indexer"
	"github.com/felo/mailroom/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		logger.Fatal("failed to create database directory", zap.Error(err))
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	logger.Info("database opened", zap.String("path", cfg.DBPath))

	if _, err := os.Stat(cfg.MailDir); os.IsNotExist(err) {
		logger.Info("mail directory not found, creating it",
			zap.String("dir", cfg.MailDir))
		if err := os.MkdirAll(cfg.MailDir, 0o755); err != nil {
			logger.Fatal("failed to create mail directory", zap.Error(err))
		}
	} else {
		idx := indexer.NewIndexer(database, cfg.MailDir, logger).
			WithConcurrency(cfg.Workers)
		if _, err := idx.IndexAll(); err != nil {
			logger.Warn("ingest failed", zap.Error(err))
		}
	}

	h := handlers.New(database, logger)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	h.Routes(r)

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Address()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
}
