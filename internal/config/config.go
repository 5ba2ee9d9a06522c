package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the talentflow worker configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Queue      QueueConfig      `yaml:"queue"`
	Callback   CallbackConfig   `yaml:"callback"`
	Generative GenerativeConfig `yaml:"generative"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Filter     FilterConfig     `yaml:"filter"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// AuthConfig holds interactive-channel authentication settings. An
// empty key list disables authentication.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds the interactive-channel server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// QueueConfig holds the Redis task-queue settings. Tasks are delivered
// at-least-once; the broker owns timeouts and redelivery.
type QueueConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Name             string   `yaml:"name"`
	Concurrency      int      `yaml:"concurrency"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CallbackConfig holds the document-store callback endpoint settings.
type CallbackConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// GenerativeConfig holds the generative model settings.
type GenerativeConfig struct {
	APIKey          string  `yaml:"api_key"`
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	TopP            float32 `yaml:"top_p"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	GroupSize  int    `yaml:"group_size"` // texts per provider call
}

// ChunkingConfig holds the résumé chunker settings (token counts).
type ChunkingConfig struct {
	Size     int `yaml:"size"`
	Overlap  int `yaml:"overlap"`
	MinChars int `yaml:"min_chars"` // discard floor for noise fragments
}

// FilterConfig holds interactive-filter settings.
type FilterConfig struct {
	SuitabilityThreshold int `yaml:"suitability_threshold"`
	CandidateLimit       int `yaml:"candidate_limit"` // pool size fetched per query
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Queue.Name == "" {
		c.Queue.Name = "talentflow:tasks"
	}
	if c.Queue.Concurrency <= 0 {
		c.Queue.Concurrency = 4
	}
	if c.Queue.ReadinessTimeout <= 0 {
		c.Queue.ReadinessTimeout = 10
	}
	if c.Callback.TimeoutSec <= 0 {
		c.Callback.TimeoutSec = 30
	}
	if c.Generative.Model == "" {
		c.Generative.Model = "gemini-1.5-pro-002"
	}
	if c.Generative.Temperature <= 0 {
		c.Generative.Temperature = 0.5
	}
	if c.Generative.TopP <= 0 {
		c.Generative.TopP = 0.05
	}
	if c.Generative.MaxOutputTokens <= 0 {
		c.Generative.MaxOutputTokens = 8192
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-multilingual-embedding-002"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 768
	}
	if c.Embedding.GroupSize <= 0 {
		c.Embedding.GroupSize = 150
	}
	if c.Chunking.Size <= 0 {
		c.Chunking.Size = 512
	}
	if c.Chunking.Overlap <= 0 {
		c.Chunking.Overlap = 64
	}
	if c.Chunking.MinChars <= 0 {
		c.Chunking.MinChars = 50
	}
	if c.Filter.SuitabilityThreshold <= 0 {
		c.Filter.SuitabilityThreshold = 30
	}
	if c.Filter.CandidateLimit <= 0 {
		c.Filter.CandidateLimit = 200
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Queue.Addrs) == 0 {
		return fmt.Errorf("queue.addrs is required")
	}
	if c.Callback.BaseURL == "" {
		return fmt.Errorf("callback.base_url is required")
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf(
			"chunking.overlap must be smaller than chunking.size, got %d >= %d",
			c.Chunking.Overlap, c.Chunking.Size,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
