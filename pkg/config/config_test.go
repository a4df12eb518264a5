package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Address != ":8000" {
		t.Errorf("server address = %q, want :8000", cfg.Server.Address)
	}
	if cfg.Capture.MaxSilenceFrames != 5 {
		t.Errorf("max silence frames = %d, want 5", cfg.Capture.MaxSilenceFrames)
	}
	if cfg.Capture.MinInterval != 800*time.Millisecond {
		t.Errorf("min interval = %v, want 800ms", cfg.Capture.MinInterval)
	}
	if got := cfg.Capture.TargetSamples(); got != 32000 {
		t.Errorf("target samples = %d, want 32000", got)
	}
	if cfg.Assets.Primary.URLPrefix != "/assets" || cfg.Assets.Secondary.URLPrefix != "/static" {
		t.Errorf("unexpected asset roots: %+v", cfg.Assets.Roots())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("A2S_SERVER_ADDRESS", ":9999")
	t.Setenv("A2S_CAPTURE_MAX_SILENCE_FRAMES", "7")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != ":9999" {
		t.Errorf("server address = %q, want :9999", cfg.Server.Address)
	}
	if cfg.Capture.MaxSilenceFrames != 7 {
		t.Errorf("max silence frames = %d, want 7", cfg.Capture.MaxSilenceFrames)
	}
	if cfg.Engine.OpenAI.APIKey != "sk-test" {
		t.Errorf("api key = %q, want sk-test", cfg.Engine.OpenAI.APIKey)
	}
}

func TestLoadFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "engine:\n  kind: static\n  static_text: hello world\ncapture:\n  device: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("debug", false, "")
	flags.Int("device", -1, "")
	flags.Bool("allow-mic", false, "")
	flags.String("server", "", "")
	if err := flags.Parse([]string{"--allow-mic", "--device=4"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.Kind != "static" || cfg.Engine.StaticText != "hello world" {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if !cfg.Capture.AllowMic {
		t.Error("allow-mic flag not applied")
	}
	if cfg.Capture.Device != 4 {
		t.Errorf("device = %d, want flag value 4", cfg.Capture.Device)
	}
}

func TestLoadRejectsBadWorkers(t *testing.T) {
	t.Setenv("A2S_PIPELINE_WORKERS", "0")
	if _, err := Load("", nil); err == nil {
		t.Fatal("expected error for zero workers")
	}
}
