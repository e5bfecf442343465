// Package config handles configuration loading for TradeWinds.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"      yaml:"llm"`
	Market   MarketConfig   `mapstructure:"market"   yaml:"market"`
	News     NewsConfig     `mapstructure:"news"     yaml:"news"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// LLMConfig holds completion provider configuration.
type LLMConfig struct {
	TogetherKey      string        `mapstructure:"together_key"      yaml:"together_key"`
	Model            string        `mapstructure:"model"             yaml:"model"`
	MaxTokens        int           `mapstructure:"max_tokens"        yaml:"max_tokens"`
	Temperature      float64       `mapstructure:"temperature"       yaml:"temperature"`
	SynthesisTimeout time.Duration `mapstructure:"synthesis_timeout" yaml:"synthesis_timeout"`
}

// MarketConfig holds market data settings.
type MarketConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"  yaml:"timeout"`
	Lookback time.Duration `mapstructure:"lookback" yaml:"lookback"`
}

// NewsConfig holds news collection settings.
type NewsConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"     yaml:"timeout"`
	MaxResults int           `mapstructure:"max_results" yaml:"max_results"`
}

// AnalysisConfig holds indicator and risk thresholds.
type AnalysisConfig struct {
	VolatilityAlert float64 `mapstructure:"volatility_alert" yaml:"volatility_alert"`
	RiskMedium      float64 `mapstructure:"risk_medium"      yaml:"risk_medium"`
	RiskHigh        float64 `mapstructure:"risk_high"        yaml:"risk_high"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.tradewinds/config.yaml (home directory)
//  3. /etc/tradewinds/config.yaml (system)
//
// Environment variables override config file values.
// Format: TRADEWINDS_<SECTION>_<KEY>, e.g., TRADEWINDS_LLM_TOGETHER_KEY
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".tradewinds"))
	v.AddConfigPath("/etc/tradewinds")

	v.SetEnvPrefix("TRADEWINDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("TRADEWINDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("llm.model", "meta-llama/Llama-3.3-70B-Instruct-Turbo")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.synthesis_timeout", "60s")

	// Market data defaults
	v.SetDefault("market.timeout", "15s")
	v.SetDefault("market.lookback", "744h") // 31 days of daily bars

	// News defaults
	v.SetDefault("news.timeout", "15s")
	v.SetDefault("news.max_results", 5)

	// Analysis defaults
	v.SetDefault("analysis.volatility_alert", 0.05)
	v.SetDefault("analysis.risk_medium", 0.05)
	v.SetDefault("analysis.risk_high", 0.10)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("TRADEWINDS_LLM_TOGETHER_KEY"); key != "" {
		cfg.LLM.TogetherKey = key
	}
	// Accept the provider's conventional variable name too.
	if cfg.LLM.TogetherKey == "" {
		cfg.LLM.TogetherKey = os.Getenv("TOGETHER_API_KEY")
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
