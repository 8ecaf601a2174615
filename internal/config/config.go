// Package config loads and validates moderation service configuration from a
// YAML file with environment-variable overrides. Validation is strict and
// happens once at load time: a threshold outside [0, 1] or a malformed
// address prevents startup, it is never silently clamped at evaluation time.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration.
type Config struct {
	// MetricsAddr is the HTTP listen address for /metrics.
	MetricsAddr string `yaml:"metrics_addr"`

	// RedisAddr is the detection ledger Redis address.
	RedisAddr string `yaml:"redis_addr"`

	// NATSURL is the messaging transport URL.
	NATSURL string `yaml:"nats_url"`

	// DatabaseURL is the PostgreSQL connection string for the keyword and
	// audit stores.
	DatabaseURL string `yaml:"database_url"`

	// AIEnabled toggles sentiment analysis. When false the pipeline runs
	// with a neutral sentiment contribution even if a model is installed.
	AIEnabled bool `yaml:"ai_enabled"`

	// RiskThreshold is the filter threshold for the risk score, in [0, 1].
	RiskThreshold float64 `yaml:"risk_threshold"`

	// SentimentModelDir is the directory holding sentiment.onnx and its
	// tokenizer assets. Empty means no model installed.
	SentimentModelDir string `yaml:"sentiment_model_dir"`

	// SentimentSeqLen is the tokenizer sequence length.
	SentimentSeqLen int `yaml:"sentiment_seq_len"`

	// KeywordRefresh is how often the keyword snapshot is rebuilt from the
	// store, in addition to refreshes after operator commands.
	KeywordRefresh time.Duration `yaml:"keyword_refresh"`

	// WarningTTL is how long a posted warning message lives before its
	// cleanup deletion is issued.
	WarningTTL time.Duration `yaml:"warning_ttl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MetricsAddr:     ":9100",
		RedisAddr:       "localhost:6379",
		NATSURL:         "nats://localhost:4222",
		DatabaseURL:     "postgres://localhost:5432/copyguard?sslmode=disable",
		AIEnabled:       true,
		RiskThreshold:   0.7,
		SentimentSeqLen: 128,
		KeywordRefresh:  30 * time.Second,
		WarningTTL:      30 * time.Second,
	}
}

// Load reads configuration from a YAML file, then applies environment
// overrides, then validates. A missing file is not an error: defaults plus
// environment are used, matching container deployments that configure
// everything through the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.NATSURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("SENTIMENT_MODEL_DIR"); v != "" {
		c.SentimentModelDir = v
	}
	if v := os.Getenv("AI_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: AI_ENABLED=%q: %w", v, err)
		}
		c.AIEnabled = b
	}
	if v := os.Getenv("RISK_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: RISK_THRESHOLD=%q: %w", v, err)
		}
		c.RiskThreshold = f
	}
	if v := os.Getenv("KEYWORD_REFRESH"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: KEYWORD_REFRESH=%q: %w", v, err)
		}
		c.KeywordRefresh = d
	}
	if v := os.Getenv("WARNING_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: WARNING_TTL=%q: %w", v, err)
		}
		c.WarningTTL = d
	}
	return nil
}
