// Package config loads service configuration from an optional YAML file, the
// environment and, when a database is configured, the settings table.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/stake-plus/newsfilter/src/ai/core"
	"github.com/stake-plus/newsfilter/src/factcheck"
)

// AI holds the LLM provider configuration.
type AI struct {
	Provider      string  `mapstructure:"ai_provider"`
	OpenAIKey     string  `mapstructure:"openai_api_key"`
	BaseURL       string  `mapstructure:"openai_base_url"`
	SystemPrompt  string  `mapstructure:"ai_system_prompt"`
	Model         string  `mapstructure:"gpt_model"`
	BaselineModel string  `mapstructure:"baseline_model"`
	RPS           float64 `mapstructure:"openai_rps"`
	RetryAttempts int     `mapstructure:"openai_retry_attempts"`
}

// Pipeline holds the fact-check tuning knobs.
type Pipeline struct {
	MaxDomains      int     `mapstructure:"max_source_domains"`
	InitialLimit    int     `mapstructure:"stage2_initial_domain_limit"`
	RetryLimit      int     `mapstructure:"stage2_retry_domain_limit"`
	TimeoutSeconds  float64 `mapstructure:"fact_check_timeout"`
	PollSeconds     float64 `mapstructure:"poll_interval"`
	Stage1MaxTokens int     `mapstructure:"stage1_max_tokens"`
	Stage2MaxTokens int     `mapstructure:"stage2_max_tokens"`
	Translate       bool    `mapstructure:"translate_comments"`
	TargetLanguage  string  `mapstructure:"target_language"`
	CatalogPath     string  `mapstructure:"catalog_path"`
}

// Discord holds the ingestion and delivery configuration.
type Discord struct {
	Token          string   `mapstructure:"discord_token"`
	GuildID        string   `mapstructure:"guild_id"`
	SourceChannels []string `mapstructure:"discord_source_channels"`
	TargetChannel  string   `mapstructure:"discord_target_channel"`
	SendDebugInfo  bool     `mapstructure:"send_debug_info"`
	ShowAll        bool     `mapstructure:"show_all_messages"`
}

// API holds the HTTP surface configuration.
type API struct {
	Listen    string   `mapstructure:"api_listen"`
	JWTSecret string   `mapstructure:"jwt_secret"`
	RateLimit float64  `mapstructure:"api_rate_limit"`
	Origins   []string `mapstructure:"api_allowed_origins"`
}

// Storage holds the backing store addresses. Both are optional.
type Storage struct {
	MySQLDSN string `mapstructure:"mysql_dsn"`
	RedisURL string `mapstructure:"redis_url"`
}

// Dedup sizes the recently-seen message set.
type Dedup struct {
	Capacity      int     `mapstructure:"dedup_capacity"`
	WindowSeconds float64 `mapstructure:"dedup_window"`
}

// Log configures the process logger.
type Log struct {
	Level  string `mapstructure:"log_level"`
	Format string `mapstructure:"log_format"`
	Debug  bool   `mapstructure:"debug_mode"`
}

// Config is the complete service configuration.
type Config struct {
	AI       AI       `mapstructure:",squash"`
	Pipeline Pipeline `mapstructure:",squash"`
	Discord  Discord  `mapstructure:",squash"`
	API      API      `mapstructure:",squash"`
	Storage  Storage  `mapstructure:",squash"`
	Dedup    Dedup    `mapstructure:",squash"`
	Log      Log      `mapstructure:",squash"`
}

var defaults = map[string]any{
	"ai_provider":                 "openai",
	"openai_api_key":              "",
	"openai_base_url":             "",
	"ai_system_prompt":            "You are a careful fact-checking assistant. Answer in the requested format only.",
	"gpt_model":                   "gpt-5",
	"baseline_model":              core.BaselineModel,
	"openai_rps":                  2.0,
	"openai_retry_attempts":       3,
	"max_source_domains":          20,
	"stage2_initial_domain_limit": 5,
	"stage2_retry_domain_limit":   8,
	"fact_check_timeout":          45.0,
	"poll_interval":               1.0,
	"stage1_max_tokens":           1500,
	"stage2_max_tokens":           2000,
	"translate_comments":          false,
	"target_language":             "Russian",
	"catalog_path":                "",
	"discord_token":               "",
	"guild_id":                    "",
	"discord_source_channels":     []string{},
	"discord_target_channel":      "",
	"send_debug_info":             false,
	"show_all_messages":           false,
	"api_listen":                  ":8080",
	"jwt_secret":                  "",
	"api_rate_limit":              5.0,
	"api_allowed_origins":         []string{"*"},
	"mysql_dsn":                   "",
	"redis_url":                   "",
	"dedup_capacity":              10000,
	"dedup_window":                86400.0,
	"log_level":                   "info",
	"log_format":                  "json",
	"debug_mode":                  false,
}

// Keys lists every configuration key in order. Each key is also read from the
// upper-cased environment variable of the same name.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load reads path (optional) and the environment. Non-empty overrides, usually rows
// of the settings table, win over both; unknown names are ignored.
func Load(path string, overrides map[string]string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	for name, val := range overrides {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, known := defaults[name]; !known || strings.TrimSpace(val) == "" {
			continue
		}
		v.Set(name, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Discord.SourceChannels = splitList(cfg.Discord.SourceChannels)
	cfg.API.Origins = splitList(cfg.API.Origins)
	if cfg.Log.Debug {
		cfg.Log.Level = "debug"
	}
	return &cfg, nil
}

// splitList flattens comma separated entries, which is how lists arrive from the
// environment.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate reports configuration errors that make the service unusable.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.AI.OpenAIKey) == "" {
		errs = append(errs, errors.New("openai_api_key is required"))
	}
	if c.Pipeline.MaxDomains <= 0 {
		errs = append(errs, fmt.Errorf("max_source_domains must be positive, got %d", c.Pipeline.MaxDomains))
	}
	if c.Pipeline.InitialLimit < 0 || c.Pipeline.RetryLimit < 0 {
		errs = append(errs, errors.New("stage2 domain limits must not be negative"))
	}
	if c.Pipeline.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("fact_check_timeout must be positive, got %v", c.Pipeline.TimeoutSeconds))
	}
	if c.Dedup.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("dedup_capacity must be positive, got %d", c.Dedup.Capacity))
	}
	return errors.Join(errs...)
}

// FactcheckSettings converts the pipeline section.
func (c *Config) FactcheckSettings() factcheck.Settings {
	return factcheck.Settings{
		Model:           c.AI.Model,
		BaselineModel:   c.AI.BaselineModel,
		MaxDomains:      c.Pipeline.MaxDomains,
		TightTier:       c.Pipeline.InitialLimit,
		RelaxedTier:     c.Pipeline.RetryLimit,
		AttemptTimeout:  seconds(c.Pipeline.TimeoutSeconds),
		PollInterval:    seconds(c.Pipeline.PollSeconds),
		Stage1MaxTokens: c.Pipeline.Stage1MaxTokens,
		Stage2MaxTokens: c.Pipeline.Stage2MaxTokens,
		Translate:       c.Pipeline.Translate,
		TargetLanguage:  c.Pipeline.TargetLanguage,
	}
}

// FactoryConfig converts the AI section for core.NewClient.
func (c *Config) FactoryConfig() core.FactoryConfig {
	return core.FactoryConfig{
		Provider:          c.AI.Provider,
		SystemPrompt:      c.AI.SystemPrompt,
		Model:             c.AI.Model,
		OpenAIKey:         c.AI.OpenAIKey,
		BaseURL:           c.AI.BaseURL,
		RequestsPerSecond: c.AI.RPS,
		RetryAttempts:     c.AI.RetryAttempts,
	}
}

// DedupWindow returns the redis de-dup window.
func (c *Config) DedupWindow() time.Duration {
	return seconds(c.Dedup.WindowSeconds)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
