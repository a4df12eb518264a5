package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"audio2sign/pkg/logger"
)

type retrying struct {
	engine   Engine
	attempts int
	delay    time.Duration
	logger   *logger.Logger
}

// WithRetry retries failed transcriptions up to attempts times, waiting delay
// between tries. Context cancellation and empty audio are not retried.
func WithRetry(engine Engine, attempts int, delay time.Duration, log *logger.Logger) Engine {
	if attempts < 1 {
		attempts = 1
	}
	return &retrying{engine: engine, attempts: attempts, delay: delay, logger: log}
}

func (r *retrying) Name() string { return r.engine.Name() }

// Close releases the wrapped engine if it holds resources.
func (r *retrying) Close() error {
	if c, ok := r.engine.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (r *retrying) Transcribe(ctx context.Context, audioPath string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		text, err := r.engine.Transcribe(ctx, audioPath)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil || errors.Is(err, ErrEmptyAudio) || errors.Is(err, ErrEngineUnavailable) {
			break
		}

		r.logger.Warnw("Transcription failed",
			"engine", r.engine.Name(), "attempt", attempt, "of", r.attempts, "error", err)
		if attempt == r.attempts {
			break
		}

		timer := time.NewTimer(r.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return "", fmt.Errorf("%s: %w", r.engine.Name(), lastErr)
}
