package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"audio2sign/pkg/audiodev"
	"audio2sign/pkg/capture"
	"audio2sign/pkg/config"
	"audio2sign/pkg/logger"

	"github.com/gordonklaus/portaudio"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("capture", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "", "path to a config file")
	flags.Bool("debug", false, "log and save captured audio instead of sending it to the server")
	flags.Int("device", -1, "audio device index to capture from")
	flags.Bool("allow-mic", false, "allow microphone devices as a capture source")
	flags.String("server", "http://127.0.0.1:8000", "translation service base URL")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		logger.New(true).Fatalw("Failed to load config", "error", err)
	}
	capCfg := cfg.Capture
	log := logger.New(cfg.Debug || capCfg.Debug)
	defer log.Sync()

	if err := portaudio.Initialize(); err != nil {
		log.Fatalw("Failed to initialize portaudio", "error", err)
	}
	defer portaudio.Terminate()

	if err := audiodev.List(log); err != nil {
		log.Warnw("Could not list audio devices", "error", err)
	}

	mic := "BLOCKED"
	if capCfg.AllowMic {
		mic = "ALLOWED"
	}
	log.Infow("Audio Speech To Sign Language Converter", "microphone", mic, "server", capCfg.ServerURL, "debug", capCfg.Debug)

	fs := afero.NewOsFs()
	var sink capture.BufferSink
	if capCfg.Debug {
		sink = capture.NewDebugSink(fs, capCfg.SampleRate, capCfg.Channels, log.Named("sink"))
	} else {
		sink = capture.NewHTTPSink(fs, capCfg.ServerURL, capCfg.SampleRate, capCfg.Channels,
			capCfg.ConnectTimeout, capCfg.UploadTimeout, log.Named("sink"))
	}

	page := capture.NewPage(fs, capCfg.PagePath, capCfg.PageEntries, capCfg.AllowMic)
	display := capture.NewDisplay(capCfg.DisplayAddress, filepath.Dir(capCfg.PagePath), log.Named("display"))
	agent := capture.NewAgent(capCfg, sink, page, display, log)

	stream, device, err := audiodev.Open(capCfg, agent.OnAudio, log.Named("audiodev"))
	if err != nil {
		log.Errorw("No usable audio device", "error", err)
		portaudio.Terminate()
		os.Exit(1)
	}
	log.Infow("Audio capture started. Press Ctrl+C to stop", "device", device.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := agent.Run(ctx, stream); err != nil {
		log.Errorw("Audio capture stopped with errors", "error", err)
		if ctx.Err() == nil {
			portaudio.Terminate()
			os.Exit(1)
		}
	}
	log.Info("Audio capture stopped.")
}
