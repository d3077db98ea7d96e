package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Analysis.MinCrawls != 5 {
		t.Errorf("MinCrawls = %d, want 5", cfg.Analysis.MinCrawls)
	}
	if cfg.Analysis.TrapThreshold != 100 {
		t.Errorf("TrapThreshold = %d, want 100", cfg.Analysis.TrapThreshold)
	}
	if cfg.Analysis.ErrorStatus != 404 {
		t.Errorf("ErrorStatus = %d, want 404", cfg.Analysis.ErrorStatus)
	}
	if cfg.Report.Format != "table" {
		t.Errorf("Format = %q, want table", cfg.Report.Format)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
input:
  path: /var/log/nginx/access.log
  limit: 5000
  workers: 4
analysis:
  min_crawls: 3
report:
  format: json
  interval: 30s
logging:
  level: debug
  json: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Input.Path != "/var/log/nginx/access.log" {
		t.Errorf("Input.Path = %q", cfg.Input.Path)
	}
	if cfg.Input.Limit != 5000 || cfg.Input.Workers != 4 {
		t.Errorf("Input = %+v", cfg.Input)
	}
	if cfg.Analysis.MinCrawls != 3 {
		t.Errorf("MinCrawls = %d, want 3", cfg.Analysis.MinCrawls)
	}
	// Unset thresholds keep their defaults.
	if cfg.Analysis.TrapThreshold != 100 {
		t.Errorf("TrapThreshold = %d, want 100", cfg.Analysis.TrapThreshold)
	}
	if cfg.Report.Format != "json" || cfg.Report.Interval != Duration(30*time.Second) {
		t.Errorf("Report = %+v", cfg.Report)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.JSON {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadRejectsBadFormat(t *testing.T) {
	path := writeConfig(t, "report:\n  format: xml\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadRejectsFollowAndWatch(t *testing.T) {
	path := writeConfig(t, "input:\n  path: /tmp/a.log\n  follow: true\n  watch: true\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for follow+watch")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SEOLOG_INPUT", "/tmp/env.log")
	t.Setenv("SEOLOG_LIMIT", "250")
	t.Setenv("SEOLOG_FORMAT", "csv")
	t.Setenv("SEOLOG_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Input.Path != "/tmp/env.log" {
		t.Errorf("Input.Path = %q", cfg.Input.Path)
	}
	if cfg.Input.Limit != 250 {
		t.Errorf("Limit = %d, want 250", cfg.Input.Limit)
	}
	if cfg.Report.Format != "csv" {
		t.Errorf("Format = %q, want csv", cfg.Report.Format)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestBotTableOverride(t *testing.T) {
	path := writeConfig(t, `
bot_patterns:
  - name: custombot
    pattern: CustomBot
  - name: otherbot
    pattern: OtherBot
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	table, err := cfg.BotTable()
	if err != nil {
		t.Fatalf("BotTable: %v", err)
	}
	if got := table.Classify("Mozilla CustomBot/1.0"); got != "custombot" {
		t.Errorf("Classify = %q, want custombot", got)
	}
	// A configured table replaces the default, it does not extend it.
	if got := table.Classify("Googlebot/2.1"); got != "" {
		t.Errorf("Classify = %q, want empty", got)
	}
}

func TestBotTableDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	table, err := cfg.BotTable()
	if err != nil {
		t.Fatalf("BotTable: %v", err)
	}
	if got := table.Classify("Googlebot/2.1"); got != "googlebot" {
		t.Errorf("Classify = %q, want googlebot", got)
	}
}

func TestBotTableRejectsMissingFields(t *testing.T) {
	path := writeConfig(t, "bot_patterns:\n  - name: broken\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for pattern without regex")
	}
}
