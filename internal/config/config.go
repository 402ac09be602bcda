// Package config loads tool configuration from the environment and an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the transcription tools.
type Config struct {
	Service       ServiceConfig       `yaml:"service"`
	Provider      ProviderConfig      `yaml:"provider"`
	Poll          PollConfig          `yaml:"poll"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Observability ObservabilityConfig `yaml:"observability"`
	Batch         BatchConfig         `yaml:"batch"`
}

// ServiceConfig holds identity settings.
type ServiceConfig struct {
	Principal string `yaml:"principal"`
}

// ProviderConfig selects and configures the remote transcription service.
type ProviderConfig struct {
	Name            string `yaml:"name"` // aws, google, mock
	Region          string `yaml:"region"`
	OutputDir       string `yaml:"output_dir"`
	MockPolls       int    `yaml:"mock_in_progress_polls"`
	GoogleEndpoint  string `yaml:"google_endpoint"`
	GoogleProjectID string `yaml:"google_project_id"`
}

// PollConfig controls how long AwaitCompletion waits.
// Zero MaxAttempts and zero Timeout mean wait indefinitely.
type PollConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"max_attempts"`
	Timeout     time.Duration `yaml:"timeout"`
}

// KafkaConfig holds job event publishing settings.
type KafkaConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Brokers   []string `yaml:"brokers"`
	Topic     string   `yaml:"topic"`
	Principal string   `yaml:"principal"`
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	MetricsAddr    string `yaml:"metrics_addr"`
	PushgatewayURL string `yaml:"pushgateway_url"`
}

// BatchConfig holds extractor tool settings.
type BatchConfig struct {
	Parallel int `yaml:"parallel"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Principal: "svc-speech-batch",
		},
		Provider: ProviderConfig{
			Name:      "aws",
			OutputDir: ".",
			MockPolls: 3,
		},
		Poll: PollConfig{
			Interval: 5 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: "transcription.job.events",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
		Batch: BatchConfig{
			Parallel: 1,
		},
	}
}

// Load returns the defaults overridden by environment variables.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := Defaults()
	applyEnv(cfg)
	return cfg
}

// LoadFile reads a YAML file on top of the defaults, then applies environment overrides.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks values that cannot be corrected by falling back to defaults.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "aws", "google", "mock":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider.Name)
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.Poll.Interval)
	}
	if c.Poll.MaxAttempts < 0 {
		return fmt.Errorf("poll max attempts must not be negative, got %d", c.Poll.MaxAttempts)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka enabled without brokers")
	}
	if c.Batch.Parallel < 1 {
		return fmt.Errorf("batch parallel must be at least 1, got %d", c.Batch.Parallel)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Service.Principal = envOrDefault("SERVICE_PRINCIPAL", cfg.Service.Principal)

	cfg.Provider.Name = strings.ToLower(envOrDefault("STT_PROVIDER", cfg.Provider.Name))
	cfg.Provider.Region = envOrDefault("AWS_REGION", cfg.Provider.Region)
	cfg.Provider.OutputDir = envOrDefault("STT_OUTPUT_DIR", cfg.Provider.OutputDir)
	cfg.Provider.MockPolls = envOrDefaultInt("MOCK_IN_PROGRESS_POLLS", cfg.Provider.MockPolls)
	cfg.Provider.GoogleEndpoint = envOrDefault("GOOGLE_SPEECH_ENDPOINT", cfg.Provider.GoogleEndpoint)
	cfg.Provider.GoogleProjectID = envOrDefault("GOOGLE_CLOUD_PROJECT", cfg.Provider.GoogleProjectID)

	cfg.Poll.Interval = envOrDefaultDuration("POLL_INTERVAL", cfg.Poll.Interval)
	cfg.Poll.MaxAttempts = envOrDefaultInt("POLL_MAX_ATTEMPTS", cfg.Poll.MaxAttempts)
	cfg.Poll.Timeout = envOrDefaultDuration("POLL_TIMEOUT", cfg.Poll.Timeout)

	cfg.Kafka.Enabled = envOrDefaultBool("KAFKA_ENABLED", cfg.Kafka.Enabled)
	cfg.Kafka.Brokers = envOrDefaultList("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.Topic = envOrDefault("KAFKA_TOPIC", cfg.Kafka.Topic)
	cfg.Kafka.Principal = envOrDefault("KAFKA_PRINCIPAL", cfg.Kafka.Principal)
	if cfg.Kafka.Principal == "" {
		cfg.Kafka.Principal = cfg.Service.Principal
	}

	cfg.Observability.LogLevel = envOrDefault("LOG_LEVEL", cfg.Observability.LogLevel)
	cfg.Observability.LogFormat = envOrDefault("LOG_FORMAT", cfg.Observability.LogFormat)
	cfg.Observability.MetricsAddr = envOrDefault("METRICS_ADDR", cfg.Observability.MetricsAddr)
	cfg.Observability.PushgatewayURL = envOrDefault("PUSHGATEWAY_URL", cfg.Observability.PushgatewayURL)

	cfg.Batch.Parallel = envOrDefaultInt("BATCH_PARALLEL", cfg.Batch.Parallel)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
