package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audio2sign/pkg/config"
	"audio2sign/pkg/logger"
)

// HTTPEngine talks to a self-hosted Whisper ASR webservice.
type HTTPEngine struct {
	baseURL    string
	language   string
	httpClient *http.Client
	logger     *logger.Logger
}

var _ Engine = (*HTTPEngine)(nil)

type asrResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func NewHTTP(cfg config.HTTPEngineConfig, language string, log *logger.Logger) (*HTTPEngine, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("engine.http.url is empty: %w", ErrEngineUnavailable)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPEngine{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		language:   language,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}, nil
}

func (e *HTTPEngine) Name() string { return "http" }

func (e *HTTPEngine) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if err := checkAudioFile(audioPath); err != nil {
		return "", err
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio_file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to copy audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	q := url.Values{}
	q.Set("encode", "true")
	q.Set("task", "transcribe")
	q.Set("output", "json")
	if e.language != "" {
		q.Set("language", e.language)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/asr?"+q.Encode(), &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("asr request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read asr response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("asr service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed asrResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// Some deployments answer with plain text regardless of output=json.
		e.logger.Debugw("ASR response is not JSON, using it as text", "length", len(raw))
		return strings.TrimSpace(string(raw)), nil
	}
	return strings.TrimSpace(parsed.Text), nil
}
