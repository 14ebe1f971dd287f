package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/scoutline/sourcing-cli/internal/budget"
	"github.com/scoutline/sourcing-cli/internal/enrich"
	"github.com/scoutline/sourcing-cli/internal/resilience"
	"github.com/scoutline/sourcing-cli/internal/scheduler"
)

// Config holds the full application configuration.
type Config struct {
	GitHub        GitHubConfig        `yaml:"github" mapstructure:"github"`
	StackOverflow StackOverflowConfig `yaml:"stackoverflow" mapstructure:"stackoverflow"`
	WebSearch     WebSearchConfig     `yaml:"websearch" mapstructure:"websearch"`
	Anthropic     AnthropicConfig     `yaml:"anthropic" mapstructure:"anthropic"`
	Budget        BudgetConfig        `yaml:"budget" mapstructure:"budget"`
	Scheduler     SchedulerConfig     `yaml:"scheduler" mapstructure:"scheduler"`
	Enrichment    EnrichmentConfig    `yaml:"enrichment" mapstructure:"enrichment"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Breaker       BreakerConfig       `yaml:"breaker" mapstructure:"breaker"`
	Catalog       CatalogConfig       `yaml:"catalog" mapstructure:"catalog"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
}

// GitHubConfig holds GitHub API settings.
type GitHubConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// StackOverflowConfig holds Stack Exchange API settings.
type StackOverflowConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// WebSearchConfig holds web search API settings.
type WebSearchConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// BudgetConfig configures the time budget allocator. Durations are in
// seconds to keep the YAML readable.
type BudgetConfig struct {
	DefaultSeconds        int     `yaml:"default_seconds" mapstructure:"default_seconds"`
	SourceCeilingSecs     int     `yaml:"source_ceiling_secs" mapstructure:"source_ceiling_secs"`
	SourceFloorSecs       int     `yaml:"source_floor_secs" mapstructure:"source_floor_secs"`
	EnrichmentSliceSecs   int     `yaml:"enrichment_slice_secs" mapstructure:"enrichment_slice_secs"`
	EnrichmentMinimumSecs int     `yaml:"enrichment_minimum_secs" mapstructure:"enrichment_minimum_secs"`
	StopCandidates        int     `yaml:"stop_candidates" mapstructure:"stop_candidates"`
	StopSources           int     `yaml:"stop_sources" mapstructure:"stop_sources"`
	StopMeanScore         float64 `yaml:"stop_mean_score" mapstructure:"stop_mean_score"`
}

// SchedulerConfig configures wave scheduling.
type SchedulerConfig struct {
	WaveSize     int `yaml:"wave_size" mapstructure:"wave_size"`
	MaxPerSource int `yaml:"max_per_source" mapstructure:"max_per_source"`
}

// EnrichmentConfig configures the enrichment stage.
type EnrichmentConfig struct {
	TopK   int `yaml:"top_k" mapstructure:"top_k"`
	FanOut int `yaml:"fan_out" mapstructure:"fan_out"`
}

// CacheConfig configures the source result cache.
type CacheConfig struct {
	TTLMinutes int `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// BreakerConfig configures the per-service circuit breakers.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	CoolDownSecs     int `yaml:"cool_down_secs" mapstructure:"cool_down_secs"`
}

// CatalogConfig points at an optional source catalog file.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// BudgetSettings converts the YAML-facing budget section into the
// allocator's native config.
func (c BudgetConfig) BudgetSettings() budget.Config {
	return budget.Config{
		SourceCeiling:     time.Duration(c.SourceCeilingSecs) * time.Second,
		SourceFloor:       time.Duration(c.SourceFloorSecs) * time.Second,
		EnrichmentSlice:   time.Duration(c.EnrichmentSliceSecs) * time.Second,
		EnrichmentMinimum: time.Duration(c.EnrichmentMinimumSecs) * time.Second,
		StopCandidates:    c.StopCandidates,
		StopSources:       c.StopSources,
		StopMeanScore:     c.StopMeanScore,
	}
}

// SchedulerSettings converts to the scheduler's native config.
func (c SchedulerConfig) SchedulerSettings() scheduler.Config {
	return scheduler.Config{WaveSize: c.WaveSize, MaxPerSource: c.MaxPerSource}
}

// EnrichmentSettings converts to the enrichment stage's native config.
func (c EnrichmentConfig) EnrichmentSettings() enrich.Config {
	return enrich.Config{TopK: c.TopK, FanOut: c.FanOut}
}

// BreakerSettings converts to the breaker's native config.
func (c BreakerConfig) BreakerSettings() resilience.Config {
	return resilience.Config{
		FailureThreshold: c.FailureThreshold,
		CoolDown:         time.Duration(c.CoolDownSecs) * time.Second,
	}
}

// TTL converts the cache section to a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("stackoverflow.base_url", "https://api.stackexchange.com/2.3")
	v.SetDefault("websearch.base_url", "https://s.jina.ai")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("budget.default_seconds", 30)
	v.SetDefault("budget.source_ceiling_secs", 20)
	v.SetDefault("budget.source_floor_secs", 2)
	v.SetDefault("budget.enrichment_slice_secs", 5)
	v.SetDefault("budget.enrichment_minimum_secs", 3)
	v.SetDefault("budget.stop_candidates", 15)
	v.SetDefault("budget.stop_sources", 2)
	v.SetDefault("budget.stop_mean_score", 60.0)
	v.SetDefault("scheduler.wave_size", 3)
	v.SetDefault("scheduler.max_per_source", 8)
	v.SetDefault("enrichment.top_k", 5)
	v.SetDefault("enrichment.fan_out", 3)
	v.SetDefault("cache.ttl_minutes", 10)
	v.SetDefault("breaker.failure_threshold", 3)
	v.SetDefault("breaker.cool_down_secs", 60)

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
