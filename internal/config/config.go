package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "WEBOPTOUT_CONFIG"
	databaseEnv   = "WEBOPTOUT_DB"
	cacheDirEnv   = "WEBOPTOUT_CACHE_DIR"
	renderEnv     = "WEBOPTOUT_RENDER"
)

// Duration wraps time.Duration so YAML files can say "5s" or "250ms".
type Duration time.Duration

// UnmarshalYAML parses Go duration syntax.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Or returns the configured duration, or fallback when unset.
func (d Duration) Or(fallback time.Duration) time.Duration {
	if d == 0 {
		return fallback
	}
	return time.Duration(d)
}

// Config holds high-level settings required across the application.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Crawl    CrawlConfig    `yaml:"crawl"`
	Render   RenderConfig   `yaml:"render"`
	Cache    CacheConfig    `yaml:"cache"`
	Database DatabaseConfig `yaml:"database"`
	Classify ClassifyConfig `yaml:"classify"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// HTTPConfig describes the static-fetch client.
type HTTPConfig struct {
	ConnectTimeout Duration `yaml:"connectTimeout"`
	RequestTimeout Duration `yaml:"requestTimeout"`
	UserAgent      string   `yaml:"userAgent"`
	AcceptLanguage string   `yaml:"acceptLanguage"`
	ForwardedFor   string   `yaml:"forwardedFor"`
}

// CrawlConfig bounds one domain crawl and the cross-domain fan-out.
type CrawlConfig struct {
	AttemptBudget int `yaml:"attemptBudget"`
	MaxConcurrent int `yaml:"maxConcurrent"`
}

// RenderConfig tunes the browser-rendering fallback.
type RenderConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Timeout      Duration `yaml:"timeout"`
	PollInterval Duration `yaml:"pollInterval"`
	MaxPolls     int      `yaml:"maxPolls"`
	SettleDelay  Duration `yaml:"settleDelay"`
}

// CacheConfig describes the page cache layers.
type CacheConfig struct {
	Dir         string `yaml:"dir"`
	MemoEntries int    `yaml:"memoEntries"`
}

// DatabaseConfig describes the reservation lookup table.
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ClassifyConfig tunes the text classifier thresholds.
type ClassifyConfig struct {
	LanguageCheckLength int `yaml:"languageCheckLength"`
	ShortTextLength     int `yaml:"shortTextLength"`
	MinLegalWords       int `yaml:"minLegalWords"`
	MaxExcerptLength    int `yaml:"maxExcerptLength"`
}

// LoggingConfig selects the console log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseEnv); v != "" {
		c.Database.Enabled = true
		c.Database.Path = v
	}

	if v := os.Getenv(cacheDirEnv); v != "" {
		c.Cache.Dir = v
	}

	if v := os.Getenv(renderEnv); v != "" {
		c.Render.Enabled = v == "1" || v == "true"
	}
}

func mergeConfig(base, override Config) Config {
	if override.HTTP.ConnectTimeout != 0 {
		base.HTTP.ConnectTimeout = override.HTTP.ConnectTimeout
	}
	if override.HTTP.RequestTimeout != 0 {
		base.HTTP.RequestTimeout = override.HTTP.RequestTimeout
	}
	if override.HTTP.UserAgent != "" {
		base.HTTP.UserAgent = override.HTTP.UserAgent
	}
	if override.HTTP.AcceptLanguage != "" {
		base.HTTP.AcceptLanguage = override.HTTP.AcceptLanguage
	}
	if override.HTTP.ForwardedFor != "" {
		base.HTTP.ForwardedFor = override.HTTP.ForwardedFor
	}

	if override.Crawl.AttemptBudget != 0 {
		base.Crawl.AttemptBudget = override.Crawl.AttemptBudget
	}
	if override.Crawl.MaxConcurrent != 0 {
		base.Crawl.MaxConcurrent = override.Crawl.MaxConcurrent
	}

	if override.Render.Enabled {
		base.Render.Enabled = true
	}
	if override.Render.Timeout != 0 {
		base.Render.Timeout = override.Render.Timeout
	}
	if override.Render.PollInterval != 0 {
		base.Render.PollInterval = override.Render.PollInterval
	}
	if override.Render.MaxPolls != 0 {
		base.Render.MaxPolls = override.Render.MaxPolls
	}
	if override.Render.SettleDelay != 0 {
		base.Render.SettleDelay = override.Render.SettleDelay
	}

	if override.Cache.Dir != "" {
		base.Cache.Dir = override.Cache.Dir
	}
	if override.Cache.MemoEntries != 0 {
		base.Cache.MemoEntries = override.Cache.MemoEntries
	}

	if override.Database.Enabled {
		base.Database.Enabled = true
	}
	if override.Database.Path != "" {
		base.Database.Path = override.Database.Path
	}

	if override.Classify.LanguageCheckLength != 0 {
		base.Classify.LanguageCheckLength = override.Classify.LanguageCheckLength
	}
	if override.Classify.ShortTextLength != 0 {
		base.Classify.ShortTextLength = override.Classify.ShortTextLength
	}
	if override.Classify.MinLegalWords != 0 {
		base.Classify.MinLegalWords = override.Classify.MinLegalWords
	}
	if override.Classify.MaxExcerptLength != 0 {
		base.Classify.MaxExcerptLength = override.Classify.MaxExcerptLength
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			ConnectTimeout: Duration(5 * time.Second),
			RequestTimeout: Duration(10 * time.Second),
			UserAgent:      "WebOptOut/0.9",
			AcceptLanguage: "en",
			ForwardedFor:   "8.8.8.8",
		},
		Crawl: CrawlConfig{
			AttemptBudget: 4,
			MaxConcurrent: 2,
		},
		Render: RenderConfig{
			Enabled:      false,
			Timeout:      Duration(30 * time.Second),
			PollInterval: Duration(10 * time.Millisecond),
			MaxPolls:     1000,
			SettleDelay:  Duration(time.Second),
		},
		Cache: CacheConfig{
			Dir:         "cache/www",
			MemoEntries: 256,
		},
		Database: DatabaseConfig{
			Enabled: false,
			Path:    "data/reservations.db",
		},
		Classify: ClassifyConfig{
			LanguageCheckLength: 1000,
			ShortTextLength:     2000,
			MinLegalWords:       36,
			MaxExcerptLength:    512,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
