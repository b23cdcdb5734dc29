package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photomark/internal/logging"
	"photomark/internal/metrics"
	"photomark/internal/models"
	"photomark/internal/objstore"
	"photomark/internal/queue"
	"photomark/internal/server"
	"photomark/internal/storage"
	"photomark/internal/worker"
)

func main() {
	cfg, err := models.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.Log)
	metrics.MustRegister()

	db, err := storage.NewStorage(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init storage")
	}
	defer db.Close()

	objects := objstore.New(cfg.Storage)

	// Logo assets are loaded once; a missing asset is fatal at startup
	// rather than a per-job failure.
	assets, err := worker.LoadAssets(cfg.Logo)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load logo assets")
	}

	wrk, err := worker.New(db, objects, assets, cfg.ScratchDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init worker")
	}

	q := queue.New(cfg, logger)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go q.Consume(ctx, cfg.Workers, wrk.Process)

	srv := server.NewServer(cfg, db, objects, q, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	logger.Info().
		Str("addr", cfg.ServerAddr).
		Int("workers", cfg.Workers).
		Msg("photomark started")

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Stop(shutdownCtx)
}
