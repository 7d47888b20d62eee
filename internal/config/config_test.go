package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const fullConfig = `
telegram:
  bot_token: "tok"
  channel_id: "-100123"
apis:
  trade_endpoint: "https://bonkbot.example/api/trade"
  trade_key: "key"
blacklists:
  tokens: ["SCAM", "RUG"]
thresholds:
  rug_pull_drop_pct: 50
  pump_change_pct: 30
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Full(t *testing.T) {
	cfg, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if cfg.Telegram.ChannelID != "-100123" {
		t.Errorf("unexpected channel id: %q", cfg.Telegram.ChannelID)
	}
	if len(cfg.Blacklists.Tokens) != 2 {
		t.Errorf("unexpected blacklist: %v", cfg.Blacklists.Tokens)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIs.TimeoutSeconds != 10 {
		t.Errorf("expected 10s default trade timeout, got %d", cfg.APIs.TimeoutSeconds)
	}
	if cfg.Delivery.DedupMaxKeys != 1000 || cfg.Delivery.DedupWindowSec != 600 {
		t.Errorf("unexpected dedup defaults: %+v", cfg.Delivery)
	}
}

func TestLoad_MissingRequiredKey(t *testing.T) {
	for _, missing := range []string{"telegram", "apis", "blacklists", "thresholds"} {
		content := ""
		for _, section := range []struct{ key, body string }{
			{"telegram", "telegram:\n  bot_token: t\n  channel_id: c\n"},
			{"apis", "apis:\n  trade_endpoint: e\n  trade_key: k\n"},
			{"blacklists", "blacklists:\n  tokens: []\n"},
			{"thresholds", "thresholds:\n  rug_pull_drop_pct: 50\n"},
		} {
			if section.key != missing {
				content += section.body
			}
		}
		_, err := Load(writeConfig(t, content))
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("missing %q: expected ConfigError, got %v", missing, err)
		}
		if cfgErr.Key != missing {
			t.Errorf("expected key %q in error, got %q", missing, cfgErr.Key)
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-tok")
	t.Setenv("TRADE_TIMEOUT_SECONDS", "3")
	cfg, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Telegram.BotToken != "env-tok" {
		t.Errorf("expected env override for bot token, got %q", cfg.Telegram.BotToken)
	}
	if cfg.APIs.TimeoutSeconds != 3 {
		t.Errorf("expected env override for timeout, got %d", cfg.APIs.TimeoutSeconds)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	cfg, err := Load(writeConfig(t, "telegram: {}\napis: {}\nblacklists: {}\nthresholds: {}\n"))
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation failure for empty telegram section")
	}
}
