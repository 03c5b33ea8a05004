package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/lumenmedia/mediacenter/internal/config"
	"github.com/lumenmedia/mediacenter/internal/domain/pipeline"
	"github.com/lumenmedia/mediacenter/internal/hls"
	"github.com/lumenmedia/mediacenter/internal/infrastructure/fetch"
	gormpersistence "github.com/lumenmedia/mediacenter/internal/infrastructure/persistence/gorm"
	"github.com/lumenmedia/mediacenter/internal/infrastructure/publish"
	"github.com/lumenmedia/mediacenter/internal/infrastructure/thumbnail"
	"github.com/lumenmedia/mediacenter/internal/infrastructure/transcode"
	"github.com/lumenmedia/mediacenter/internal/logger"
	"github.com/lumenmedia/mediacenter/internal/server"
	"github.com/lumenmedia/mediacenter/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Server.Environment, cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("service exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	db, cleanup, err := gormpersistence.Open(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer cleanup()

	records := gormpersistence.NewMediaRepository(db)

	encoder, err := transcode.NewFFmpegEncoder(cfg.Extract.FFmpegPath, cfg.Extract.FFprobePath, cfg.Pipeline.EncodeTimeout, log)
	if err != nil {
		return err
	}

	publisher, err := publish.NewS3Publisher(cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}

	orchestrator := hls.NewOrchestrator(
		fetch.NewHTTPFetcher(cfg.Pipeline.FetchTimeout, log),
		encoder,
		transcode.NewComposer(),
		publisher,
		records,
		pipeline.DefaultLadder,
		cfg.Storage.MediaRoot,
		cfg.Pipeline.PlaylistBase,
		cfg.Pipeline.EncodeParallelism,
		log,
	)

	dispatcher := hls.NewDispatcher(orchestrator, cfg.Pipeline.QueueWorkers, cfg.Pipeline.QueueSize, log)
	defer dispatcher.Shutdown()

	extractor := thumbnail.NewExtractor(encoder, cfg.Extract, log)
	mediaSvc := service.NewMediaService(records, extractor, dispatcher, cfg.Storage.MediaRoot, cfg.Pipeline.MediaHost, log)

	srv := server.New(mediaSvc, cfg.Storage.MediaRoot, log)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
		log.Info("starting HTTP server", zap.String("addr", addr))
		errCh <- srv.Start(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTime)
	defer cancel()
	return srv.Shutdown(ctx)
}
