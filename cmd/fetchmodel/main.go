package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"audio2sign/pkg/config"
	"audio2sign/pkg/logger"
	"audio2sign/pkg/transcribe"

	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a config file")
	url := pflag.String("url", "", "model download URL (defaults to engine.whisper.model_url)")
	dest := pflag.String("out", "", "destination path (defaults to engine.whisper.model_path)")
	pflag.Parse()

	cfg, err := config.Load(*configPath, nil)
	if err != nil {
		logger.New(true).Fatalw("Failed to load config", "error", err)
	}
	log := logger.New(cfg.Debug)
	defer log.Sync()

	if *url == "" {
		*url = cfg.Engine.Whisper.ModelURL
	}
	if *dest == "" {
		*dest = cfg.Engine.Whisper.ModelPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := transcribe.FetchModel(ctx, http.DefaultClient, *url, *dest, log); err != nil {
		log.Errorw("Model download failed", "url", *url, "error", err)
		log.Sync()
		os.Exit(1)
	}
	log.Infow("Model ready", "path", *dest)
}
