package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// requiredKeys are the top-level sections the bot refuses to start without.
var requiredKeys = []string{"telegram", "apis", "blacklists", "thresholds"}

// ConfigError reports an incomplete configuration document.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required config key %q", e.Key)
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken  string `yaml:"bot_token"`
		ChannelID string `yaml:"channel_id"`
	} `yaml:"telegram"`
	APIs struct {
		TradeEndpoint  string `yaml:"trade_endpoint"`
		TradeKey       string `yaml:"trade_key"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"apis"`
	Blacklists struct {
		Tokens []string `yaml:"tokens"`
	} `yaml:"blacklists"`
	Thresholds struct {
		RugPullDropPct float64 `yaml:"rug_pull_drop_pct"`
		PumpChangePct  float64 `yaml:"pump_change_pct"`
	} `yaml:"thresholds"`
	Delivery struct {
		DedupMaxKeys   int `yaml:"dedup_max_keys"`
		DedupWindowSec int `yaml:"dedup_window_sec"`
		BucketSec      int `yaml:"bucket_sec"`
	} `yaml:"delivery"`
	Schedule struct {
		SummaryCron string `yaml:"summary_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, verifies the required top-level keys
// are present, then applies environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Required-key check runs against the raw document, before struct
	// decoding fills absent sections with zero values.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return nil, &ConfigError{Key: key}
		}
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHANNEL_ID"); v != "" {
		cfg.Telegram.ChannelID = v
	}
	if v := os.Getenv("TRADE_ENDPOINT"); v != "" {
		cfg.APIs.TradeEndpoint = v
	}
	if v := os.Getenv("TRADE_API_KEY"); v != "" {
		cfg.APIs.TradeKey = v
	}
	if v := os.Getenv("TRADE_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.APIs.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.APIs.TimeoutSeconds <= 0 {
		cfg.APIs.TimeoutSeconds = 10
	}
	if cfg.Delivery.DedupMaxKeys <= 0 {
		cfg.Delivery.DedupMaxKeys = 1000
	}
	if cfg.Delivery.DedupWindowSec <= 0 {
		cfg.Delivery.DedupWindowSec = 600
	}
	if cfg.Delivery.BucketSec <= 0 {
		cfg.Delivery.BucketSec = 60
	}
	if cfg.Schedule.SummaryCron == "" {
		cfg.Schedule.SummaryCron = "0 0 8 * * *"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChannelID == "" {
		return fmt.Errorf("telegram.channel_id is required")
	}
	if c.APIs.TradeEndpoint == "" {
		return fmt.Errorf("apis.trade_endpoint is required")
	}
	if c.APIs.TradeKey == "" {
		return fmt.Errorf("apis.trade_key is required")
	}
	return nil
}
