package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks a loaded configuration for values the service cannot run
// with. It returns all problems joined, not just the first one.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}

	var problems []string

	if cfg.RiskThreshold < 0 || cfg.RiskThreshold > 1 {
		problems = append(problems, fmt.Sprintf("risk_threshold %v outside [0, 1]", cfg.RiskThreshold))
	}
	if cfg.MetricsAddr == "" {
		problems = append(problems, "metrics_addr is empty")
	}
	if cfg.RedisAddr == "" {
		problems = append(problems, "redis_addr is empty")
	}
	if cfg.NATSURL == "" {
		problems = append(problems, "nats_url is empty")
	}
	if cfg.DatabaseURL == "" {
		problems = append(problems, "database_url is empty")
	}
	if cfg.SentimentSeqLen <= 0 {
		problems = append(problems, fmt.Sprintf("sentiment_seq_len %d must be positive", cfg.SentimentSeqLen))
	}
	if cfg.KeywordRefresh <= 0 {
		problems = append(problems, fmt.Sprintf("keyword_refresh %v must be positive", cfg.KeywordRefresh))
	}
	if cfg.WarningTTL <= 0 {
		problems = append(problems, fmt.Sprintf("warning_ttl %v must be positive", cfg.WarningTTL))
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
