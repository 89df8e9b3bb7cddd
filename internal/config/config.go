// Package config handles application configuration using Viper: defaults,
// an optional YAML file, and VIS_-prefixed environment variables, merged
// in priority order. The loaded Config is an explicit value handed to the
// router and orchestrators at construction — there is no global instance.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/discoverly/visibility-service/internal/model"
)

// Config is the root configuration struct.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Testing   TestingConfig   `mapstructure:"testing"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProviderConfig enables one vendor: its credential and which models to
// test against. A provider with no key or no models stays disabled.
type ProviderConfig struct {
	APIKey string   `mapstructure:"api_key"`
	Models []string `mapstructure:"models"`
}

type ProvidersConfig struct {
	OpenAI    ProviderConfig `mapstructure:"openai"`
	Anthropic ProviderConfig `mapstructure:"anthropic"`
	Google    ProviderConfig `mapstructure:"google"`
	Replicate ProviderConfig `mapstructure:"replicate"`
	Together  ProviderConfig `mapstructure:"together"`
}

// TestingConfig tunes the run pipelines.
type TestingConfig struct {
	// SpacingMs is the courtesy delay between consecutive calls to one
	// provider, in milliseconds.
	SpacingMs int `mapstructure:"spacing_ms"`
	// TimeoutSeconds bounds each individual provider call.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// WorkerLimit sizes the dispatch pool.
	WorkerLimit int `mapstructure:"worker_limit"`
	// RetryMaxAttempts and RetryInitialMs shape the shared backoff policy.
	RetryMaxAttempts int `mapstructure:"retry_max_attempts"`
	RetryInitialMs   int `mapstructure:"retry_initial_ms"`
	// PollIntervalMs and PollMaxAttempts bound job-style providers.
	PollIntervalMs  int `mapstructure:"poll_interval_ms"`
	PollMaxAttempts int `mapstructure:"poll_max_attempts"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.database_path", "./storage/visibility.db")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	// api_key defaults are registered empty so Unmarshal picks the values
	// up from the environment.
	v.SetDefault("providers.openai.api_key", "")
	v.SetDefault("providers.anthropic.api_key", "")
	v.SetDefault("providers.google.api_key", "")
	v.SetDefault("providers.replicate.api_key", "")
	v.SetDefault("providers.together.api_key", "")
	v.SetDefault("providers.openai.models", []string{"gpt-4o-mini"})
	v.SetDefault("providers.anthropic.models", []string{"claude-sonnet-4-5-20250929"})
	v.SetDefault("providers.google.models", []string{"gemini-2.0-flash"})
	v.SetDefault("providers.replicate.models", []string{"meta/meta-llama-3-70b-instruct"})
	v.SetDefault("providers.together.models", []string{"meta-llama/Llama-3.3-70B-Instruct-Turbo"})
	v.SetDefault("testing.spacing_ms", 150)
	v.SetDefault("testing.timeout_seconds", 120)
	v.SetDefault("testing.worker_limit", 4)
	v.SetDefault("testing.retry_max_attempts", 3)
	v.SetDefault("testing.retry_initial_ms", 500)
	v.SetDefault("testing.poll_interval_ms", 1000)
	v.SetDefault("testing.poll_max_attempts", 30)
	v.SetDefault("rate_limit.requests_per_second", 5)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("log.level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Missing config file is fine — defaults plus env cover everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// VIS_ prefix + nested keys: VIS_PROVIDERS_OPENAI_API_KEY=sk-...
	v.SetEnvPrefix("VIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Address returns the listen address string like "0.0.0.0:8080".
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Spacing returns the courtesy delay as a duration.
func (t TestingConfig) Spacing() time.Duration {
	return time.Duration(t.SpacingMs) * time.Millisecond
}

// Timeout returns the per-call bound as a duration.
func (t TestingConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// enabled reports whether a provider block is usable.
func (p ProviderConfig) enabled() bool {
	return p.APIKey != "" && len(p.Models) > 0
}

// EnabledPairs expands the provider blocks into the flat list of
// (provider, model) pairs the orchestrator dispatches against. Order is
// fixed so run output ordering is stable.
func (p ProvidersConfig) EnabledPairs() []model.ProviderModel {
	var pairs []model.ProviderModel
	add := func(provider model.Provider, pc ProviderConfig) {
		if !pc.enabled() {
			return
		}
		for _, m := range pc.Models {
			pairs = append(pairs, model.ProviderModel{Provider: provider, Model: m})
		}
	}

	add(model.ProviderOpenAI, p.OpenAI)
	add(model.ProviderAnthropic, p.Anthropic)
	add(model.ProviderGoogle, p.Google)
	add(model.ProviderReplicate, p.Replicate)
	add(model.ProviderTogether, p.Together)
	return pairs
}
