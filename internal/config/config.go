package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the YAML file Load reads when HEADLINES_CONFIG_PATH is unset.
const DefaultPath = "config/headlinescore.yaml"

// Config holds all headlinescore configuration. It is read-only once Load
// returns.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Model  ModelConfig  `yaml:"model"`
	Log    LogConfig    `yaml:"log"`
	Client ClientConfig `yaml:"client"`
	Output OutputConfig `yaml:"output"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	MaxBatch        int      `yaml:"max_batch"`
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
}

// ModelConfig locates the embedding model and the classifier artifact.
// LocalDir is the preferred on-disk copy of the embedding model; Name is the
// pretrained model fetched into CacheDir when LocalDir holds none. HubToken
// is read from the environment only.
type ModelConfig struct {
	LocalDir        string   `yaml:"local_dir"`
	Name            string   `yaml:"name"`
	CacheDir        string   `yaml:"cache_dir"`
	HubURL          string   `yaml:"hub_url"`
	HubToken        string   `yaml:"-"`
	DownloadTimeout Duration `yaml:"download_timeout"`
	RuntimeLibrary  string   `yaml:"runtime_library"`
	ClassifierPath  string   `yaml:"classifier_path"`
	IntraOpThreads  int      `yaml:"intra_op_threads"`
	MaxSeqLen       int      `yaml:"max_seq_len"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// ClientConfig holds interactive client settings.
type ClientConfig struct {
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
}

// OutputConfig holds batch runner output settings.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// Duration wraps time.Duration so YAML values like "30s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads configuration with precedence: defaults → YAML file → .env →
// environment variables. path may be empty, in which case
// HEADLINES_CONFIG_PATH or DefaultPath is used. A missing YAML or .env file
// is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	// gotenv never overrides variables already present in the environment.
	envFile := getenv("HEADLINES_ENV_FILE", ".env")
	if err := gotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: loading %s: %w", envFile, err)
	}

	if path == "" {
		path = getenv("HEADLINES_CONFIG_PATH", DefaultPath)
	}

	cfg := Defaults()
	if err := loadYAMLFile(cfg, path); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns a Config with every default applied.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8006,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(60 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
			MaxBatch:        512,
			MaxBodyBytes:    1 << 20,
		},
		Model: ModelConfig{
			LocalDir:        "/opt/huggingface_models/all-MiniLM-L6-v2",
			Name:            "sentence-transformers/all-MiniLM-L6-v2",
			CacheDir:        "models",
			HubURL:          "https://huggingface.co",
			DownloadTimeout: Duration(10 * time.Minute),
			RuntimeLibrary:  "models/libonnxruntime.so",
			ClassifierPath:  "models/svm.safetensors",
			IntraOpThreads:  4,
			MaxSeqLen:       256,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Client: ClientConfig{
			URL:     "http://localhost:8006",
			Timeout: Duration(10 * time.Second),
		},
		Output: OutputConfig{
			Dir: ".",
		},
	}
}

func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Server.Port = getenvInt("HEADLINES_PORT", cfg.Server.Port)
	cfg.Server.MaxBatch = getenvInt("HEADLINES_MAX_BATCH", cfg.Server.MaxBatch)
	cfg.Server.ShutdownTimeout = getenvDuration("HEADLINES_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Model.LocalDir = getenv("HEADLINES_MODEL_DIR", cfg.Model.LocalDir)
	cfg.Model.Name = getenv("HEADLINES_MODEL_NAME", cfg.Model.Name)
	cfg.Model.CacheDir = getenv("HEADLINES_MODEL_CACHE", cfg.Model.CacheDir)
	cfg.Model.HubURL = getenv("HEADLINES_HUB_URL", cfg.Model.HubURL)
	cfg.Model.HubToken = getenv("HF_TOKEN", cfg.Model.HubToken)
	cfg.Model.DownloadTimeout = getenvDuration("HEADLINES_DOWNLOAD_TIMEOUT", cfg.Model.DownloadTimeout)
	cfg.Model.RuntimeLibrary = getenv("HEADLINES_ORT_LIBRARY", cfg.Model.RuntimeLibrary)
	cfg.Model.ClassifierPath = getenv("HEADLINES_CLASSIFIER_PATH", cfg.Model.ClassifierPath)
	cfg.Model.MaxSeqLen = getenvInt("HEADLINES_MAX_SEQ_LEN", cfg.Model.MaxSeqLen)

	cfg.Log.Level = getenv("HEADLINES_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getenv("HEADLINES_LOG_FORMAT", cfg.Log.Format)

	cfg.Client.URL = getenv("HEADLINES_API_URL", cfg.Client.URL)
	cfg.Client.Timeout = getenvDuration("HEADLINES_CLIENT_TIMEOUT", cfg.Client.Timeout)

	cfg.Output.Dir = getenv("HEADLINES_OUTPUT_DIR", cfg.Output.Dir)
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}
	if c.Server.MaxBatch <= 0 {
		errs = append(errs, fmt.Errorf("server.max_batch must be positive, got %d", c.Server.MaxBatch))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes))
	}
	if c.Model.ClassifierPath == "" {
		errs = append(errs, errors.New("model.classifier_path is required"))
	}
	if c.Model.LocalDir == "" && c.Model.Name == "" {
		errs = append(errs, errors.New("one of model.local_dir or model.name is required"))
	}
	if c.Model.DownloadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("model.download_timeout must be positive, got %s", c.Model.DownloadTimeout.Std()))
	}
	if c.Model.MaxSeqLen < 3 {
		errs = append(errs, fmt.Errorf("model.max_seq_len must be at least 3, got %d", c.Model.MaxSeqLen))
	}
	if c.Client.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("client.timeout must be positive, got %s", c.Client.Timeout.Std()))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback Duration) Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return Duration(d)
}
