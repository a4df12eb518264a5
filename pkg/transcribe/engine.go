package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"audio2sign/pkg/config"
	"audio2sign/pkg/logger"
)

var (
	// ErrEngineUnavailable means the engine was not compiled in or configured.
	ErrEngineUnavailable = errors.New("transcription engine unavailable")
	ErrEmptyAudio        = errors.New("audio file is empty")
)

// Engine turns an audio file into text. Implementations must be safe for
// concurrent use; the pipeline shares one engine across its workers.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// New builds the configured engine once at startup and wraps it with retries.
func New(cfg config.EngineConfig, log *logger.Logger) (Engine, error) {
	var (
		engine Engine
		err    error
	)

	switch strings.ToLower(cfg.Kind) {
	case "openai":
		engine, err = NewOpenAI(cfg.OpenAI, cfg.Language)
	case "http":
		engine, err = NewHTTP(cfg.HTTP, cfg.Language, log)
	case "whispercpp", "whisper":
		engine, err = newWhisperCPP(cfg.Whisper, cfg.Language, log)
	case "static":
		engine = NewStatic(cfg.StaticText)
	default:
		return nil, fmt.Errorf("unknown engine kind %q", cfg.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s engine: %w", cfg.Kind, err)
	}

	if cfg.Attempts > 1 {
		engine = WithRetry(engine, cfg.Attempts, cfg.RetryDelay, log)
	}
	return engine, nil
}

// Static always returns the same text. Useful for running the service
// without an ASR backend.
type Static struct {
	Text string
	Err  error
}

var _ Engine = (*Static)(nil)

func NewStatic(text string) *Static {
	return &Static{Text: text}
}

func (s *Static) Name() string { return "static" }

func (s *Static) Transcribe(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.Text, nil
}
