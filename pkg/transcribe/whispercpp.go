//go:build whispercpp

package transcribe

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"audio2sign/pkg/config"
	"audio2sign/pkg/logger"

	"github.com/go-audio/wav"
	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// whisperSampleRate is what the model was trained on.
const whisperSampleRate = 16000

// WhisperCPPEngine runs a local ggml model. The model is loaded once and
// inference is serialized: whisper.cpp state is not safe for concurrent
// Process calls.
type WhisperCPPEngine struct {
	model    whisper.Model
	language string
	threads  uint
	logger   *logger.Logger

	inferenceMu sync.Mutex
}

func newWhisperCPP(cfg config.WhisperConfig, language string, log *logger.Logger) (Engine, error) {
	model, err := whisper.New(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load whisper model %s: %w", cfg.ModelPath, err)
	}
	log.Infow("Whisper model loaded", "path", cfg.ModelPath)

	threads := uint(0)
	if cfg.Threads > 0 {
		threads = uint(cfg.Threads)
	}
	return &WhisperCPPEngine{model: model, language: language, threads: threads, logger: log}, nil
}

func (e *WhisperCPPEngine) Name() string { return "whispercpp" }

func (e *WhisperCPPEngine) Close() error {
	return e.model.Close()
}

func (e *WhisperCPPEngine) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if err := checkAudioFile(audioPath); err != nil {
		return "", err
	}

	// cpu bound, parallel safe: decode outside the lock
	samples, err := decodeWAV(audioPath)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	wctx, err := e.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("failed to create whisper context: %w", err)
	}
	if e.language != "" {
		if err := wctx.SetLanguage(e.language); err != nil {
			return "", fmt.Errorf("failed to set language %s: %w", e.language, err)
		}
	}
	wctx.SetTranslate(false)
	if e.threads > 0 {
		wctx.SetThreads(e.threads)
	}

	var text strings.Builder
	onSegment := func(segment whisper.Segment) {
		text.WriteString(segment.Text)
	}

	e.inferenceMu.Lock()
	err = wctx.Process(samples, nil, onSegment, nil)
	e.inferenceMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("whisper process: %w", err)
	}

	out := strings.TrimSpace(text.String())
	if out == "[BLANK_AUDIO]" || out == "BLANK_AUDIO" {
		return "", nil
	}
	return out, nil
}

// decodeWAV reads a 16 kHz WAV file into mono float32 samples.
func decodeWAV(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV: %w", err)
	}
	if buf.Format.SampleRate != whisperSampleRate {
		return nil, fmt.Errorf("unsupported sample rate %d, want %d", buf.Format.SampleRate, whisperSampleRate)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := float32(int64(1) << (dec.BitDepth - 1))
	samples := make([]float32, len(buf.Data)/channels)
	for i := range samples {
		samples[i] = float32(buf.Data[i*channels]) / scale
	}
	return samples, nil
}
