package transcribe

import (
	"context"
	"fmt"
	"os"
	"strings"

	"audio2sign/pkg/config"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIEngine uses the hosted Whisper transcription endpoint.
type OpenAIEngine struct {
	client   openai.Client
	model    string
	language string
}

var _ Engine = (*OpenAIEngine)(nil)

func NewOpenAI(cfg config.OpenAIConfig, language string) (*OpenAIEngine, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set: %w", ErrEngineUnavailable)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}

	return &OpenAIEngine{
		client:   openai.NewClient(opts...),
		model:    model,
		language: language,
	}, nil
}

func (e *OpenAIEngine) Name() string { return "openai" }

func (e *OpenAIEngine) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if err := checkAudioFile(audioPath); err != nil {
		return "", err
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio: %w", err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  file,
		Model: openai.AudioModel(e.model),
	}
	if e.language != "" {
		params.Language = openai.String(e.language)
	}

	resp, err := e.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai transcription failed: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func checkAudioFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("audio file not found at %s: %w", path, err)
	}
	if info.Size() == 0 {
		return ErrEmptyAudio
	}
	return nil
}
