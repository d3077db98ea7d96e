package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/petersawicki/seo-log-analyzer/internal/parser"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Report   ReportConfig   `yaml:"report"`
	Logging  LoggingConfig  `yaml:"logging"`

	// BotPatterns overrides the built-in bot table when set. Order is
	// preserved: the first matching pattern classifies a user agent.
	BotPatterns []parser.BotPatternSpec `yaml:"bot_patterns,omitempty"`
}

// InputConfig describes the access log being analyzed.
type InputConfig struct {
	Path    string `yaml:"path"`    // e.g. /var/log/nginx/access.log, or "-" for stdin
	Limit   int    `yaml:"limit"`   // max lines examined; 0 = unlimited
	Workers int    `yaml:"workers"` // parallel parse workers; <=1 = sequential
	Follow  bool   `yaml:"follow"`  // tail the log and keep ingesting
	Watch   bool   `yaml:"watch"`   // re-analyze the whole file on change
}

// AnalysisConfig carries the query thresholds.
type AnalysisConfig struct {
	MinCrawls     int    `yaml:"min_crawls"`
	TrapThreshold int    `yaml:"trap_threshold"`
	ErrorStatus   int    `yaml:"error_status"`
	BotFilter     string `yaml:"bot_filter,omitempty"` // time series filter, "" = all bots
}

// Duration wraps time.Duration so YAML values like "30s" decode.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(dur)
	return nil
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	Format   string   `yaml:"format"` // "table", "json", "csv"
	Output   string   `yaml:"output"` // file path, "" = stdout
	Interval Duration `yaml:"interval"`
}

// LoggingConfig controls log verbosity and format.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g. "info", "debug"
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Input: InputConfig{Workers: 1},
		Analysis: AnalysisConfig{
			MinCrawls:     5,
			TrapThreshold: 100,
			ErrorStatus:   404,
		},
		Report:  ReportConfig{Format: "table", Interval: Duration(10 * time.Second)},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads, parses, and validates configuration from the provided path.
// An empty path yields the defaults. Environment variables (optionally from
// a .env file) override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays SEOLOG_* environment variables. A .env file in the
// working directory is honored when present.
func applyEnv(cfg *Config) {
	_ = godotenv.Load(".env")

	if v, ok := os.LookupEnv("SEOLOG_INPUT"); ok {
		cfg.Input.Path = v
	}
	if v, ok := os.LookupEnv("SEOLOG_LIMIT"); ok {
		cfg.Input.Limit = cast.ToInt(v)
	}
	if v, ok := os.LookupEnv("SEOLOG_WORKERS"); ok {
		cfg.Input.Workers = cast.ToInt(v)
	}
	if v, ok := os.LookupEnv("SEOLOG_FORMAT"); ok {
		cfg.Report.Format = v
	}
	if v, ok := os.LookupEnv("SEOLOG_OUTPUT"); ok {
		cfg.Report.Output = v
	}
	if v, ok := os.LookupEnv("SEOLOG_LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := os.LookupEnv("SEOLOG_LOG_JSON"); ok {
		cfg.Logging.JSON = cast.ToBool(v)
	}
}

func validate(c *Config) error {
	switch c.Report.Format {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("unsupported report.format %q", c.Report.Format)
	}

	if c.Input.Limit < 0 {
		return fmt.Errorf("input.limit must be >= 0")
	}
	if c.Input.Workers < 0 {
		return fmt.Errorf("input.workers must be >= 0")
	}
	if c.Input.Follow && c.Input.Watch {
		return fmt.Errorf("input.follow and input.watch are mutually exclusive")
	}

	if c.Analysis.MinCrawls <= 0 {
		c.Analysis.MinCrawls = 5
	}
	if c.Analysis.TrapThreshold <= 0 {
		c.Analysis.TrapThreshold = 100
	}
	if c.Analysis.ErrorStatus <= 0 {
		c.Analysis.ErrorStatus = 404
	}
	if c.Report.Interval <= 0 {
		c.Report.Interval = Duration(10 * time.Second)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	for i, spec := range c.BotPatterns {
		if spec.Name == "" {
			return fmt.Errorf("bot_patterns[%d] is missing name", i)
		}
		if spec.Pattern == "" {
			return fmt.Errorf("bot_patterns[%d] (%s) is missing pattern", i, spec.Name)
		}
	}
	return nil
}

// BotTable compiles the configured bot patterns, falling back to the
// built-in table when none are configured.
func (c *Config) BotTable() (parser.Table, error) {
	if len(c.BotPatterns) == 0 {
		return parser.DefaultBotPatterns, nil
	}
	return parser.CompileBotPatterns(c.BotPatterns)
}
