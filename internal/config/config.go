package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the roomfinder API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Search     SearchConfig     `yaml:"search"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds vector store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, memory (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	Collection       string   `yaml:"collection"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	Dimensions        int     `yaml:"dimensions"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int     `yaml:"burst"`
	Cache             bool    `yaml:"cache"`
	CacheTTLHours     int     `yaml:"cache_ttl_hours"`
}

// ClassifierConfig holds the chat model settings shared by the optional room-type
// classifier and the query assistant.
type ClassifierConfig struct {
	Enabled         bool    `yaml:"enabled"`
	EnhanceQueries  bool    `yaml:"enhance_queries"`  // rewrite flat-search queries per vector
	CompleteQueries bool    `yaml:"complete_queries"` // complete partial queries in suggestions
	BaseURL         string  `yaml:"base_url"`
	Token           string  `yaml:"token"`
	Model           string  `yaml:"model"`
	MinConfidence   float64 `yaml:"min_confidence"`
	TimeoutMs       int     `yaml:"timeout_ms"`
}

// AssistantEnabled reports whether any query assistant feature is on.
func (c ClassifierConfig) AssistantEnabled() bool {
	return c.EnhanceQueries || c.CompleteQueries
}

// SearchConfig holds search pipeline tuning.
type SearchConfig struct {
	OverfetchFactor     int     `yaml:"overfetch_factor"`
	DefaultLimit        int     `yaml:"default_limit"`
	MaxLimit            int     `yaml:"max_limit"`
	TimeoutMs           int     `yaml:"timeout_ms"`
	FlatFallback        *bool   `yaml:"flat_fallback"`
	HistoryCapacity     int     `yaml:"history_capacity"`
	LearningEnabled     *bool   `yaml:"learning_enabled"`
	CorpusTTLSec        int     `yaml:"corpus_ttl_sec"`
	CorpusScanLimit     int     `yaml:"corpus_scan_limit"`
	SemanticThreshold   float64 `yaml:"semantic_threshold"`
	HistoryThreshold    float64 `yaml:"history_threshold"`
	SemanticConcurrency int     `yaml:"semantic_concurrency"`
}

// Timeout returns the per-request search timeout.
func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// CorpusTTL returns the tag corpus cache lifetime.
func (s SearchConfig) CorpusTTL() time.Duration {
	return time.Duration(s.CorpusTTLSec) * time.Second
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, if present, is loaded first.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes raw YAML, expanding ${VAR} references, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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

	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "roomfinder:"
	}
	if c.Database.Collection == "" {
		c.Database.Collection = "interior_images"
	}
	if c.Database.HNSWM <= 0 {
		c.Database.HNSWM = 16
	}
	if c.Database.HNSWEFConstruct <= 0 {
		c.Database.HNSWEFConstruct = 200
	}

	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.Burst <= 0 {
		c.Embedding.Burst = 1
	}
	if c.Embedding.CacheTTLHours <= 0 {
		c.Embedding.CacheTTLHours = 24 * 7
	}

	if c.Classifier.Model == "" {
		c.Classifier.Model = "gpt-4o-mini"
	}
	if c.Classifier.MinConfidence <= 0 {
		c.Classifier.MinConfidence = 0.8
	}
	if c.Classifier.TimeoutMs <= 0 {
		c.Classifier.TimeoutMs = 3000
	}

	c.Search.applyDefaults()
}

func (s *SearchConfig) applyDefaults() {
	if s.OverfetchFactor <= 0 {
		s.OverfetchFactor = 10
	}
	if s.DefaultLimit <= 0 {
		s.DefaultLimit = 10
	}
	if s.MaxLimit <= 0 {
		s.MaxLimit = 100
	}
	if s.TimeoutMs <= 0 {
		s.TimeoutMs = 15000
	}
	if s.FlatFallback == nil {
		on := true
		s.FlatFallback = &on
	}
	if s.HistoryCapacity <= 0 {
		s.HistoryCapacity = 1000
	}
	if s.LearningEnabled == nil {
		on := true
		s.LearningEnabled = &on
	}
	if s.CorpusTTLSec <= 0 {
		s.CorpusTTLSec = 60
	}
	if s.CorpusScanLimit <= 0 {
		s.CorpusScanLimit = 1000
	}
	if s.SemanticThreshold <= 0 {
		s.SemanticThreshold = 0.7
	}
	if s.HistoryThreshold <= 0 {
		s.HistoryThreshold = 0.6
	}
	if s.SemanticConcurrency <= 0 {
		s.SemanticConcurrency = 8
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "valkey", "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("database.driver must be valkey, redis or memory, got %q", c.Database.Driver)
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit (%d) exceeds search.max_limit (%d)",
			c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if c.Search.SemanticThreshold >= 1 {
		return fmt.Errorf("search.semantic_threshold must be below 1, got %g", c.Search.SemanticThreshold)
	}
	if c.Search.HistoryThreshold >= 1 {
		return fmt.Errorf("search.history_threshold must be below 1, got %g", c.Search.HistoryThreshold)
	}
	if c.Classifier.Enabled && c.Classifier.MinConfidence > 1 {
		return fmt.Errorf("classifier.min_confidence must be within (0, 1], got %g", c.Classifier.MinConfidence)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests run from package dirs.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

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
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
