package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/lead-cli/internal/db"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Yelp       YelpConfig       `yaml:"yelp" mapstructure:"yelp"`
	SERP       SERPConfig       `yaml:"serp" mapstructure:"serp"`
	BBB        BBBConfig        `yaml:"bbb" mapstructure:"bbb"`
	Crawl4AI   Crawl4AIConfig   `yaml:"crawl4ai" mapstructure:"crawl4ai"`
	Enrichment EnrichmentConfig `yaml:"enrichment" mapstructure:"enrichment"`
	Discovery  DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Delta      DeltaConfig      `yaml:"delta" mapstructure:"delta"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Outreach   OutreachConfig   `yaml:"outreach" mapstructure:"outreach"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the state store backend.
type StoreConfig struct {
	Driver      string        `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	Pool        db.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// PageDelayMs waits between result pages; the next page token needs a
	// moment before it becomes valid.
	PageDelayMs int `yaml:"page_delay_ms" mapstructure:"page_delay_ms"`
}

// YelpConfig holds Yelp Fusion API settings.
type YelpConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	PageDelayMs int    `yaml:"page_delay_ms" mapstructure:"page_delay_ms"`
}

// SERPConfig configures the search results scraper.
type SERPConfig struct {
	BaseURL         string   `yaml:"base_url" mapstructure:"base_url"`
	UserAgent       string   `yaml:"user_agent" mapstructure:"user_agent"`
	DirectoryHosts  []string `yaml:"directory_hosts" mapstructure:"directory_hosts"`
	RequestsPerSecs float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// BBBConfig configures the BBB directory scraper.
type BBBConfig struct {
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent       string  `yaml:"user_agent" mapstructure:"user_agent"`
	PageDelayMs     int     `yaml:"page_delay_ms" mapstructure:"page_delay_ms"`
	RequestsPerSecs float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// Crawl4AIConfig points at an optional Crawl4AI service.
type Crawl4AIConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// EnrichmentConfig configures website crawling.
type EnrichmentConfig struct {
	Concurrency       int      `yaml:"concurrency" mapstructure:"concurrency"`
	PageConcurrency   int      `yaml:"page_concurrency" mapstructure:"page_concurrency"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	CacheTTLHours     int      `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	TimeoutSecs       int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent         string   `yaml:"user_agent" mapstructure:"user_agent"`
	ExcludePaths      []string `yaml:"exclude_paths" mapstructure:"exclude_paths"`
	RespectRobots     bool     `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// DiscoveryConfig configures the discovery fan-out.
type DiscoveryConfig struct {
	Concurrency             int     `yaml:"concurrency" mapstructure:"concurrency"`
	DefaultRate             float64 `yaml:"default_rate" mapstructure:"default_rate"`
	Region                  string  `yaml:"region" mapstructure:"region"`
	MaxAttempts             int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs        int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs            int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	BreakerFailureThreshold int     `yaml:"breaker_failure_threshold" mapstructure:"breaker_failure_threshold"`
	BreakerResetSecs        int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// ScoringConfig locates extra weight presets.
type ScoringConfig struct {
	PresetsPath string `yaml:"presets_path" mapstructure:"presets_path"`
}

// DeltaConfig configures delta tracking.
type DeltaConfig struct {
	StateKey string `yaml:"state_key" mapstructure:"state_key"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key      string `yaml:"key" mapstructure:"key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	Model    string `yaml:"model" mapstructure:"model"`
	CacheTTL string `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// OutreachConfig configures outreach drafting.
type OutreachConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// ExportConfig configures output defaults.
type ExportConfig struct {
	Format      string `yaml:"format" mapstructure:"format"`
	Path        string `yaml:"path" mapstructure:"path"`
	Table       string `yaml:"table" mapstructure:"table"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a real default are still registered so that
	// their LEADS_* variables reach Unmarshal.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leads.db")
	v.SetDefault("store.pool.max_conns", 4)
	v.SetDefault("store.pool.min_conns", 1)
	v.SetDefault("google.key", "")
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.page_delay_ms", 2000)
	v.SetDefault("yelp.key", "")
	v.SetDefault("yelp.base_url", "https://api.yelp.com/v3")
	v.SetDefault("yelp.page_delay_ms", 200)
	v.SetDefault("serp.base_url", "https://www.google.com")
	v.SetDefault("serp.user_agent", "")
	v.SetDefault("serp.directory_hosts", []string{})
	v.SetDefault("serp.requests_per_second", 0.5)
	v.SetDefault("bbb.base_url", "https://www.bbb.org")
	v.SetDefault("bbb.user_agent", "")
	v.SetDefault("bbb.page_delay_ms", 1000)
	v.SetDefault("bbb.requests_per_second", 0.5)
	v.SetDefault("crawl4ai.base_url", "")
	v.SetDefault("crawl4ai.timeout_secs", 30)
	v.SetDefault("enrichment.concurrency", 4)
	v.SetDefault("enrichment.page_concurrency", 2)
	v.SetDefault("enrichment.requests_per_second", 2)
	v.SetDefault("enrichment.cache_ttl_hours", 24)
	v.SetDefault("enrichment.timeout_secs", 20)
	v.SetDefault("enrichment.user_agent", "")
	v.SetDefault("enrichment.exclude_paths", []string{"/blog/*", "/news/*", "/careers/*"})
	v.SetDefault("enrichment.respect_robots", true)
	v.SetDefault("discovery.concurrency", 4)
	v.SetDefault("discovery.default_rate", 1)
	v.SetDefault("discovery.region", "US")
	v.SetDefault("discovery.max_attempts", 3)
	v.SetDefault("discovery.initial_backoff_ms", 500)
	v.SetDefault("discovery.max_backoff_ms", 10000)
	v.SetDefault("discovery.breaker_failure_threshold", 5)
	v.SetDefault("discovery.breaker_reset_secs", 30)
	v.SetDefault("scoring.presets_path", "")
	v.SetDefault("delta.state_key", "LEAD_STATE")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.cache_ttl", "")
	v.SetDefault("openai.key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("outreach.provider", "openai")
	v.SetDefault("outreach.concurrency", 2)
	v.SetDefault("export.format", "csv")
	v.SetDefault("export.path", "leads.csv")
	v.SetDefault("export.table", "leads")
	v.SetDefault("export.database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is "run", "process",
// or "state".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "memory":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		errs = append(errs, "store.driver must be one of sqlite, postgres, memory")
	}

	switch mode {
	case "run":
		if c.Discovery.Concurrency < 1 || c.Discovery.Concurrency > 32 {
			errs = append(errs, "discovery.concurrency must be between 1 and 32")
		}
		if c.Enrichment.Concurrency < 1 || c.Enrichment.Concurrency > 32 {
			errs = append(errs, "enrichment.concurrency must be between 1 and 32")
		}
		if c.Outreach.Concurrency < 1 || c.Outreach.Concurrency > 16 {
			errs = append(errs, "outreach.concurrency must be between 1 and 16")
		}
		if c.Discovery.DefaultRate <= 0 {
			errs = append(errs, "discovery.default_rate must be > 0")
		}
		fallthrough
	case "process":
		switch c.Export.Format {
		case "csv", "xlsx", "json":
		case "postgres":
			if c.Export.DatabaseURL == "" && c.Store.DatabaseURL == "" {
				errs = append(errs, "export.database_url is required for postgres output")
			}
		default:
			errs = append(errs, "export.format must be one of csv, xlsx, json, postgres")
		}
	case "state":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
