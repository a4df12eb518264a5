package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"audio2sign/pkg/api"
	"audio2sign/pkg/assets"
	"audio2sign/pkg/config"
	"audio2sign/pkg/logger"
	"audio2sign/pkg/pipeline"
	"audio2sign/pkg/storage"
	"audio2sign/pkg/transcribe"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a config file")
	debug := pflag.Bool("debug", false, "enable debug logging")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath, nil)
	if err != nil {
		logger.New(true).Fatalw("Failed to load config", "error", err)
	}
	log := logger.New(cfg.Debug || *debug)
	defer log.Sync()

	// Initialize storage
	memStore := storage.NewMemoryStore(cfg.Storage.RecentLimit)
	var diskStore storage.DiskStore
	if !cfg.Storage.Disabled {
		diskStore, err = storage.NewDiskStore(cfg.Storage.Path)
		if err != nil {
			log.Fatalw("Failed to initialize disk storage", "path", cfg.Storage.Path, "error", err)
		}
		defer diskStore.Close()
	}

	// Initialize transcription engine
	engine, err := transcribe.New(cfg.Engine, log.Named("engine"))
	if err != nil {
		log.Fatalw("Failed to initialize transcription engine", "error", err)
	}
	if c, ok := engine.(io.Closer); ok {
		defer c.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Asset lookup, optionally through an in-memory index
	fs := afero.NewOsFs()
	roots := cfg.Assets.Roots()
	var lookup assets.Lookup = assets.NewFSLookup(fs)
	if cfg.Assets.UseIndex {
		index := assets.NewIndex(fs, []string{cfg.Assets.Primary.Dir, cfg.Assets.Secondary.Dir}, log.Named("assets"))
		if err := index.Refresh(); err != nil {
			log.Fatalw("Failed to build asset index", "error", err)
		}
		log.Infow("Asset index built", "clips", index.Len())
		go index.Run(ctx, cfg.Assets.RefreshInterval)
		lookup = index
	}
	resolver := assets.NewResolver(lookup, roots, log.Named("assets"))

	// Initialize pipeline
	hub := api.NewHub(log.Named("ws"))
	pipelineManager := pipeline.NewManager(cfg.Pipeline, engine, resolver, memStore, diskStore, hub, log.Named("pipeline"))
	if err := pipelineManager.Start(ctx); err != nil {
		log.Fatalw("Failed to start pipeline", "error", err)
	}

	// Initialize API handlers
	handlers := api.NewHandlers(pipelineManager, memStore, diskStore, hub,
		cfg.Server.UploadDir, cfg.Server.MaxUploadBytes, log.Named("api"))

	// Start HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(handlers, roots),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infow("Server starting", "address", cfg.Server.Address, "engine", engine.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("Server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server forced to shutdown", "error", err)
	}
	hub.CloseAll()
	pipelineManager.Stop()

	log.Info("Server exited")
}
