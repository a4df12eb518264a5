package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"audio2sign/pkg/logger"
	"audio2sign/pkg/models"

	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

func wavFiles(t *testing.T, fs afero.Fs) []string {
	t.Helper()
	var out []string
	err := afero.Walk(fs, "/", func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && filepath.Ext(path) == ".wav" {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestHTTPSinkUploads(t *testing.T) {
	var probes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		probes.Add(1)
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/transcribe/", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("audio")
		if err != nil {
			http.Error(w, `{"error":"missing audio"}`, http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "audio.wav" || !wav.NewDecoder(bytes.NewReader(data)).IsValidFile() {
			http.Error(w, `{"error":"bad file"}`, http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(models.TranscribeResponse{
			Text:           "hello",
			FormattedWords: []string{"Hello"},
			Videos:         []string{"/static/Hello.mp4"},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fs := afero.NewMemMapFs()
	sink := NewHTTPSink(fs, srv.URL, 16000, 1, 2*time.Second, 5*time.Second, logger.Nop())

	resp, err := sink.Process(context.Background(), &Flush{Samples: constant(0.2, 2048)})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != "hello" || len(resp.Videos) != 1 {
		t.Errorf("response = %+v", resp)
	}
	if probes.Load() != 1 {
		t.Errorf("probes = %d, want 1", probes.Load())
	}

	if left := wavFiles(t, fs); len(left) != 0 {
		t.Errorf("temp wav files left: %v", left)
	}
}

func TestHTTPSinkServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"engine down"}`))
		}
	}))
	defer srv.Close()

	sink := NewHTTPSink(afero.NewMemMapFs(), srv.URL, 16000, 1, time.Second, time.Second, logger.Nop())
	if _, err := sink.Process(context.Background(), &Flush{Samples: constant(0.2, 16)}); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestHTTPSinkUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	sink := NewHTTPSink(afero.NewMemMapFs(), url, 16000, 1, 200*time.Millisecond, time.Second, logger.Nop())
	_, err := sink.Process(context.Background(), &Flush{Samples: constant(0.2, 16)})
	if !errors.Is(err, ErrServerUnreachable) {
		t.Fatalf("err = %v, want ErrServerUnreachable", err)
	}
}

func TestDebugSinkKeepsWAV(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := NewDebugSink(fs, 16000, 1, logger.Nop())

	resp, err := sink.Process(context.Background(), &Flush{Samples: sine(1000, 0.1, 16000, 4096), Level: 0.06})
	if err != nil || resp != nil {
		t.Fatalf("resp = %v err = %v, want nil nil", resp, err)
	}
	if saved := wavFiles(t, fs); len(saved) != 1 {
		t.Errorf("saved files = %v, want one", saved)
	}
}
