package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"audio2sign/pkg/logger"
	"audio2sign/pkg/models"

	"github.com/spf13/afero"
)

var ErrServerUnreachable = errors.New("translation service unreachable")

// BufferSink consumes flushed audio. A nil response means there is nothing
// to display.
type BufferSink interface {
	Process(ctx context.Context, f *Flush) (*models.TranscribeResponse, error)
}

// HTTPSink uploads each flush to the translation service.
type HTTPSink struct {
	ServerURL      string
	SampleRate     int
	Channels       int
	ConnectTimeout time.Duration
	UploadTimeout  time.Duration

	fs     afero.Fs
	client *http.Client
	logger *logger.Logger
}

func NewHTTPSink(fs afero.Fs, serverURL string, sampleRate, channels int,
	connectTimeout, uploadTimeout time.Duration, log *logger.Logger) *HTTPSink {
	return &HTTPSink{
		ServerURL:      strings.TrimRight(serverURL, "/"),
		SampleRate:     sampleRate,
		Channels:       channels,
		ConnectTimeout: connectTimeout,
		UploadTimeout:  uploadTimeout,
		fs:             fs,
		client:         &http.Client{},
		logger:         log,
	}
}

func (s *HTTPSink) Process(ctx context.Context, f *Flush) (*models.TranscribeResponse, error) {
	path, err := writeTempWAV(s.fs, f.Samples, s.SampleRate, s.Channels)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.fs.Remove(path); err != nil {
			s.logger.Errorw("Error removing temporary file", "path", path, "error", err)
		}
	}()
	s.logger.Infow("Processing audio chunk", "samples", len(f.Samples), "trigger", f.Trigger)

	if err := s.probe(ctx); err != nil {
		return nil, err
	}

	body, ctype, err := s.multipartBody(path)
	if err != nil {
		return nil, err
	}

	uctx, cancel := context.WithTimeout(ctx, s.UploadTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(uctx, http.MethodPost, s.ServerURL+"/transcribe/", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", ctype)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	var out models.TranscribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("bad response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || out.Error != "" {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, out.Error)
	}
	return &out, nil
}

// probe checks the service root is reachable before uploading.
func (s *HTTPSink) probe(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, s.ConnectTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(pctx, http.MethodGet, s.ServerURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

func (s *HTTPSink) multipartBody(path string) (*bytes.Buffer, string, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to read audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// DebugSink logs what would be sent and keeps a WAV copy for inspection.
type DebugSink struct {
	SampleRate int
	Channels   int

	fs     afero.Fs
	logger *logger.Logger
}

func NewDebugSink(fs afero.Fs, sampleRate, channels int, log *logger.Logger) *DebugSink {
	return &DebugSink{SampleRate: sampleRate, Channels: channels, fs: fs, logger: log}
}

const debugWindow = 1024

func (s *DebugSink) Process(ctx context.Context, f *Flush) (*models.TranscribeResponse, error) {
	s.logger.Infow("DEBUG: Captured audio chunk", "level", f.Level, "samples", len(f.Samples))

	if len(f.Samples) > debugWindow*s.Channels {
		feat := Analyze(f.Samples, s.Channels, debugWindow)
		s.logger.Infow("DEBUG: Speech-like ratio", "ratio", feat.SpeechRatio, "speech_like", feat.SpeechLike)
	}

	path, err := writeTempWAV(s.fs, f.Samples, s.SampleRate, s.Channels)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("DEBUG: Saved audio sample", "path", path)
	return nil, nil
}

func writeTempWAV(fs afero.Fs, samples []float32, sampleRate, channels int) (string, error) {
	tmp, err := afero.TempFile(fs, "", "audio2sign-*.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create temp wav: %w", err)
	}
	werr := EncodeWAV(tmp, samples, sampleRate, channels)
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		fs.Remove(tmp.Name())
		return "", werr
	}
	return tmp.Name(), nil
}
