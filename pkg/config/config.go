package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Assets   AssetsConfig   `mapstructure:"assets"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Capture  CaptureConfig  `mapstructure:"capture"`
	Debug    bool           `mapstructure:"debug"`
}

type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	UploadDir      string        `mapstructure:"upload_dir"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

type PipelineConfig struct {
	Workers           int           `mapstructure:"workers"`
	QueueSize         int           `mapstructure:"queue_size"`
	ProcessingTimeout time.Duration `mapstructure:"processing_timeout"`
}

// AssetRoot is a directory of <Token>.mp4 clips served under URLPrefix.
type AssetRoot struct {
	Dir       string `mapstructure:"dir"`
	URLPrefix string `mapstructure:"url_prefix"`
}

type AssetsConfig struct {
	Primary         AssetRoot     `mapstructure:"primary"`
	Secondary       AssetRoot     `mapstructure:"secondary"`
	UseIndex        bool          `mapstructure:"use_index"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

func (a AssetsConfig) Roots() []AssetRoot {
	return []AssetRoot{a.Primary, a.Secondary}
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type HTTPEngineConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WhisperConfig struct {
	ModelPath string `mapstructure:"model_path"`
	ModelURL  string `mapstructure:"model_url"`
	Threads   int    `mapstructure:"threads"`
}

type EngineConfig struct {
	Kind       string           `mapstructure:"kind"`
	Language   string           `mapstructure:"language"`
	Attempts   int              `mapstructure:"attempts"`
	RetryDelay time.Duration    `mapstructure:"retry_delay"`
	StaticText string           `mapstructure:"static_text"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	HTTP       HTTPEngineConfig `mapstructure:"http"`
	Whisper    WhisperConfig    `mapstructure:"whisper"`
}

type StorageConfig struct {
	Path        string `mapstructure:"path"`
	Disabled    bool   `mapstructure:"disabled"`
	RecentLimit int    `mapstructure:"recent_limit"`
}

type CaptureConfig struct {
	ServerURL         string        `mapstructure:"server_url"`
	Debug             bool          `mapstructure:"debug"`
	Device            int           `mapstructure:"device"`
	AllowMic          bool          `mapstructure:"allow_mic"`
	SampleRate        int           `mapstructure:"sample_rate"`
	Channels          int           `mapstructure:"channels"`
	BlockSize         int           `mapstructure:"block_size"`
	QueueSize         int           `mapstructure:"queue_size"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	OwnVoiceThreshold float64       `mapstructure:"own_voice_threshold"`
	FloorLevel        float64       `mapstructure:"floor_level"`
	SilenceThreshold  float64       `mapstructure:"silence_threshold"`
	MaxSilenceFrames  int           `mapstructure:"max_silence_frames"`
	MinInterval       time.Duration `mapstructure:"min_interval"`
	BufferDuration    time.Duration `mapstructure:"buffer_duration"`
	MinAudibleLevel   float64       `mapstructure:"min_audible_level"`
	PlaceholderLevel  float64       `mapstructure:"placeholder_level"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	UploadTimeout     time.Duration `mapstructure:"upload_timeout"`
	FillerWords       []string      `mapstructure:"filler_words"`
	PagePath          string        `mapstructure:"page_path"`
	PageEntries       int           `mapstructure:"page_entries"`
	DisplayAddress    string        `mapstructure:"display_address"`
}

// TargetSamples is the buffered sample count that forces a flush.
func (c CaptureConfig) TargetSamples() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.upload_dir", "")
	v.SetDefault("server.max_upload_bytes", int64(32<<20))

	v.SetDefault("pipeline.workers", 2)
	v.SetDefault("pipeline.queue_size", 32)
	v.SetDefault("pipeline.processing_timeout", 2*time.Minute)

	v.SetDefault("assets.primary.dir", "./assets")
	v.SetDefault("assets.primary.url_prefix", "/assets")
	v.SetDefault("assets.secondary.dir", "./static")
	v.SetDefault("assets.secondary.url_prefix", "/static")
	v.SetDefault("assets.use_index", true)
	v.SetDefault("assets.refresh_interval", time.Minute)

	v.SetDefault("engine.kind", "openai")
	v.SetDefault("engine.language", "en")
	v.SetDefault("engine.attempts", 3)
	v.SetDefault("engine.retry_delay", 2*time.Second)
	v.SetDefault("engine.static_text", "")
	v.SetDefault("engine.openai.api_key", "")
	v.SetDefault("engine.openai.base_url", "")
	v.SetDefault("engine.openai.model", "whisper-1")
	v.SetDefault("engine.http.url", "http://127.0.0.1:9000")
	v.SetDefault("engine.http.timeout", 30*time.Second)
	v.SetDefault("engine.whisper.model_path", "./models/ggml-base.en.bin")
	v.SetDefault("engine.whisper.model_url", "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.en.bin")
	v.SetDefault("engine.whisper.threads", 0)

	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.disabled", false)
	v.SetDefault("storage.recent_limit", 200)

	v.SetDefault("capture.server_url", "http://127.0.0.1:8000")
	v.SetDefault("capture.debug", false)
	v.SetDefault("capture.device", -1)
	v.SetDefault("capture.allow_mic", false)
	v.SetDefault("capture.sample_rate", 16000)
	v.SetDefault("capture.channels", 1)
	v.SetDefault("capture.block_size", 1024)
	v.SetDefault("capture.queue_size", 256)
	v.SetDefault("capture.poll_interval", 100*time.Millisecond)
	v.SetDefault("capture.own_voice_threshold", 0.45)
	v.SetDefault("capture.floor_level", 0.0002)
	v.SetDefault("capture.silence_threshold", 0.00015)
	v.SetDefault("capture.max_silence_frames", 5)
	v.SetDefault("capture.min_interval", 800*time.Millisecond)
	v.SetDefault("capture.buffer_duration", 2*time.Second)
	v.SetDefault("capture.min_audible_level", 0.00015)
	v.SetDefault("capture.placeholder_level", 0.3)
	v.SetDefault("capture.connect_timeout", 2*time.Second)
	v.SetDefault("capture.upload_timeout", 30*time.Second)
	v.SetDefault("capture.filler_words", []string{"um", "uh", "er", "ah", "like", "hmm", "so", "well", "actually", "basically"})
	v.SetDefault("capture.page_path", "./static/videos.html")
	v.SetDefault("capture.page_entries", 10)
	v.SetDefault("capture.display_address", "localhost:8002")
}

// flagKeys maps capture agent flags onto config keys.
var flagKeys = map[string]string{
	"debug":     "capture.debug",
	"device":    "capture.device",
	"allow-mic": "capture.allow_mic",
	"server":    "capture.server_url",
}

// Load layers defaults, an optional config file, A2S_* environment variables
// and, when given, command line flags. A .env file in the working directory is
// loaded first.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: .env file not loaded: %v", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("A2S")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("engine.openai.api_key", "A2S_ENGINE_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind api key env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be at least 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.QueueSize < 1 {
		return fmt.Errorf("pipeline.queue_size must be at least 1, got %d", c.Pipeline.QueueSize)
	}
	if c.Capture.SampleRate <= 0 || c.Capture.Channels <= 0 {
		return fmt.Errorf("capture sample rate and channels must be positive")
	}
	if c.Capture.MaxSilenceFrames < 1 {
		return fmt.Errorf("capture.max_silence_frames must be at least 1")
	}
	return nil
}
