package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the idintake API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Reference  ReferenceConfig  `yaml:"reference"`
	Cache      CacheConfig      `yaml:"cache"`
	Refiner    RefinerConfig    `yaml:"refiner"`
	Intake     IntakeConfig     `yaml:"intake"`
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
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// RecognizerConfig holds settings of the external text-recognition service.
type RecognizerConfig struct {
	Endpoint        string `yaml:"endpoint"`
	SubscriptionKey string `yaml:"subscription_key"`
	PollIntervalMS  int    `yaml:"poll_interval_ms"`
	MaxAttempts     int    `yaml:"max_attempts"`
	RequestTimeout  int    `yaml:"request_timeout_sec"`
}

// ReferenceConfig holds the geographic reference database settings.
type ReferenceConfig struct {
	Driver        string  `yaml:"driver"` // postgres, sqlite (default: sqlite)
	DSN           string  `yaml:"dsn"`
	ResultLimit   int     `yaml:"result_limit"`
	Ranking       string  `yaml:"ranking"` // first, similarity (default: first)
	MinSimilarity float64 `yaml:"min_similarity"`
	Migrate       bool    `yaml:"migrate"`
}

// CacheConfig holds the reference lookup cache settings. Empty addrs disables caching.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	FlushOnStart     bool     `yaml:"flush_on_start"` // drop cached searches after reseeding the reference
}

// RefinerConfig holds the optional LLM field refiner settings. Empty api_key disables it.
type RefinerConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// IntakeConfig bounds the scan pipeline.
type IntakeConfig struct {
	TimeoutSec int `yaml:"timeout_sec"`
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
		c.HTTP.WriteTimeoutSec = 45
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 10 << 20
	}
	if c.Recognizer.PollIntervalMS <= 0 {
		c.Recognizer.PollIntervalMS = 1500
	}
	if c.Recognizer.MaxAttempts <= 0 {
		c.Recognizer.MaxAttempts = 20
	}
	if c.Recognizer.RequestTimeout <= 0 {
		c.Recognizer.RequestTimeout = 10
	}
	if c.Reference.Driver == "" {
		c.Reference.Driver = "sqlite"
	}
	if c.Reference.ResultLimit <= 0 {
		c.Reference.ResultLimit = 20
	}
	if c.Reference.Ranking == "" {
		c.Reference.Ranking = "first"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "idintake:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Refiner.Model == "" {
		c.Refiner.Model = "gpt-4o-mini"
	}
	if c.Intake.TimeoutSec <= 0 {
		c.Intake.TimeoutSec = 40
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Recognizer.Endpoint == "" {
		return fmt.Errorf("recognizer.endpoint is required")
	}
	if c.Recognizer.SubscriptionKey == "" {
		return fmt.Errorf("recognizer.subscription_key is required")
	}
	switch c.Reference.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("reference.driver must be \"postgres\" or \"sqlite\", got %q", c.Reference.Driver)
	}
	if c.Reference.DSN == "" {
		return fmt.Errorf("reference.dsn is required")
	}
	switch c.Reference.Ranking {
	case "first", "similarity":
	default:
		return fmt.Errorf("reference.ranking must be \"first\" or \"similarity\", got %q", c.Reference.Ranking)
	}
	if c.Reference.MinSimilarity < 0 || c.Reference.MinSimilarity > 1 {
		return fmt.Errorf("reference.min_similarity must be within [0, 1], got %v", c.Reference.MinSimilarity)
	}
	return nil
}

// PollInterval returns the recognizer poll interval as a duration.
func (c RecognizerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// CacheEnabled reports whether a reference cache is configured.
func (c *Config) CacheEnabled() bool {
	return len(c.Cache.Addrs) > 0
}

// RefinerEnabled reports whether the LLM refiner is configured.
func (c *Config) RefinerEnabled() bool {
	return c.Refiner.APIKey != ""
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
