package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	os.Unsetenv("TRADEWINDS_LLM_TOGETHER_KEY")
	os.Unsetenv("TOGETHER_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// LLM defaults
	if cfg.LLM.Model != "meta-llama/Llama-3.3-70B-Instruct-Turbo" {
		t.Errorf("LLM.Model: got %q", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 1024 {
		t.Errorf("LLM.MaxTokens: got %d, want 1024", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.Temperature != 0.7 {
		t.Errorf("LLM.Temperature: got %f, want 0.7", cfg.LLM.Temperature)
	}
	if cfg.LLM.SynthesisTimeout != 60*time.Second {
		t.Errorf("LLM.SynthesisTimeout: got %v, want 60s", cfg.LLM.SynthesisTimeout)
	}

	// Market defaults
	if cfg.Market.Timeout != 15*time.Second {
		t.Errorf("Market.Timeout: got %v, want 15s", cfg.Market.Timeout)
	}
	if cfg.Market.Lookback != 744*time.Hour {
		t.Errorf("Market.Lookback: got %v, want 744h", cfg.Market.Lookback)
	}

	// News defaults
	if cfg.News.Timeout != 15*time.Second {
		t.Errorf("News.Timeout: got %v, want 15s", cfg.News.Timeout)
	}
	if cfg.News.MaxResults != 5 {
		t.Errorf("News.MaxResults: got %d, want 5", cfg.News.MaxResults)
	}

	// Analysis defaults
	if cfg.Analysis.VolatilityAlert != 0.05 {
		t.Errorf("Analysis.VolatilityAlert: got %f, want 0.05", cfg.Analysis.VolatilityAlert)
	}
	if cfg.Analysis.RiskMedium != 0.05 {
		t.Errorf("Analysis.RiskMedium: got %f, want 0.05", cfg.Analysis.RiskMedium)
	}
	if cfg.Analysis.RiskHigh != 0.10 {
		t.Errorf("Analysis.RiskHigh: got %f, want 0.10", cfg.Analysis.RiskHigh)
	}

	// API defaults
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
llm:
  together_key: "tk-file-key-1234567890"
  model: "mistralai/Mixtral-8x7B-Instruct-v0.1"
  max_tokens: 2048
  temperature: 0.3
market:
  timeout: 5s
news:
  max_results: 3
analysis:
  volatility_alert: 0.08
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	os.Unsetenv("TRADEWINDS_LLM_TOGETHER_KEY")
	os.Unsetenv("TOGETHER_API_KEY")

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.LLM.TogetherKey != "tk-file-key-1234567890" {
		t.Errorf("LLM.TogetherKey: got %q", cfg.LLM.TogetherKey)
	}
	if cfg.LLM.Model != "mistralai/Mixtral-8x7B-Instruct-v0.1" {
		t.Errorf("LLM.Model: got %q", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 2048 {
		t.Errorf("LLM.MaxTokens: got %d, want 2048", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Errorf("LLM.Temperature: got %f, want 0.3", cfg.LLM.Temperature)
	}
	if cfg.Market.Timeout != 5*time.Second {
		t.Errorf("Market.Timeout: got %v, want 5s", cfg.Market.Timeout)
	}
	if cfg.News.MaxResults != 3 {
		t.Errorf("News.MaxResults: got %d, want 3", cfg.News.MaxResults)
	}
	if cfg.Analysis.VolatilityAlert != 0.08 {
		t.Errorf("Analysis.VolatilityAlert: got %f, want 0.08", cfg.Analysis.VolatilityAlert)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	cfg := &Config{}

	os.Setenv("TRADEWINDS_LLM_TOGETHER_KEY", "tk-env-key-123456")
	defer os.Unsetenv("TRADEWINDS_LLM_TOGETHER_KEY")

	overrideFromEnv(cfg)

	if cfg.LLM.TogetherKey != "tk-env-key-123456" {
		t.Errorf("TogetherKey: got %q", cfg.LLM.TogetherKey)
	}
}

func TestOverrideFromEnvFallsBackToProviderVar(t *testing.T) {
	os.Unsetenv("TRADEWINDS_LLM_TOGETHER_KEY")
	os.Setenv("TOGETHER_API_KEY", "tk-provider-var-key")
	defer os.Unsetenv("TOGETHER_API_KEY")

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.LLM.TogetherKey != "tk-provider-var-key" {
		t.Errorf("TogetherKey: got %q, want fallback env value", cfg.LLM.TogetherKey)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	os.Unsetenv("TRADEWINDS_LLM_TOGETHER_KEY")
	os.Unsetenv("TOGETHER_API_KEY")

	cfg := &Config{
		LLM: LLMConfig{TogetherKey: "from-config"},
	}
	overrideFromEnv(cfg)

	// Should retain the original value when env is not set
	if cfg.LLM.TogetherKey != "from-config" {
		t.Errorf("TogetherKey should stay as 'from-config' when env is unset, got %q", cfg.LLM.TogetherKey)
	}
}

// ── maskKey ──

func TestMaskKeyShort(t *testing.T) {
	// Keys with 8 or fewer characters should be fully masked
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"a", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestMaskKeyLong(t *testing.T) {
	// Keys with more than 8 characters show first 3 + ... + last 3
	tests := []struct {
		input string
		want  string
	}{
		{"123456789", "123...789"},
		{"tk-abcdef1234567890xyz", "tk-...xyz"},
		{"ABCDEFGHIJKLMNOP", "ABC...NOP"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckAPIKeys / checkKey ──

func TestCheckAPIKeysEmpty(t *testing.T) {
	os.Unsetenv("TRADEWINDS_LLM_TOGETHER_KEY")
	os.Unsetenv("TOGETHER_API_KEY")

	cfg := &Config{}
	statuses := CheckAPIKeys(cfg)

	if len(statuses) != 1 {
		t.Fatalf("CheckAPIKeys: got %d statuses, want 1", len(statuses))
	}
	if statuses[0].IsSet {
		t.Errorf("Key %q should not be set", statuses[0].Name)
	}
	if statuses[0].Source != KeySourceNone {
		t.Errorf("Source: got %q, want %q", statuses[0].Source, KeySourceNone)
	}
}

func TestCheckAPIKeysFromConfig(t *testing.T) {
	os.Unsetenv("TRADEWINDS_LLM_TOGETHER_KEY")
	os.Unsetenv("TOGETHER_API_KEY")

	cfg := &Config{
		LLM: LLMConfig{TogetherKey: "tk-test-very-long-key-value"},
	}
	statuses := CheckAPIKeys(cfg)

	if !statuses[0].IsSet {
		t.Error("Together key should be set")
	}
	if statuses[0].Source != KeySourceConfig {
		t.Errorf("Source: got %q, want %q", statuses[0].Source, KeySourceConfig)
	}
	if statuses[0].Masked != "tk-...lue" {
		t.Errorf("Masked: got %q, want %q", statuses[0].Masked, "tk-...lue")
	}
}

func TestCheckAPIKeysFromEnv(t *testing.T) {
	os.Setenv("TRADEWINDS_LLM_TOGETHER_KEY", "tk-env-key-for-testing")
	defer os.Unsetenv("TRADEWINDS_LLM_TOGETHER_KEY")

	cfg := &Config{
		LLM: LLMConfig{TogetherKey: "tk-env-key-for-testing"},
	}
	statuses := CheckAPIKeys(cfg)

	if statuses[0].Source != KeySourceEnv {
		t.Errorf("Source: got %q, want %q", statuses[0].Source, KeySourceEnv)
	}
}

func TestCheckKeySourceDetection(t *testing.T) {
	// No env, no value
	os.Unsetenv("TEST_VAR")
	s := checkKey("Test", "", "TEST_VAR")
	if s.Source != KeySourceNone {
		t.Errorf("empty value: got source %q, want %q", s.Source, KeySourceNone)
	}
	if s.IsSet {
		t.Error("empty value should not be set")
	}

	// Value from config (no env)
	s = checkKey("Test", "config-value-long-enough", "TEST_VAR")
	if s.Source != KeySourceConfig {
		t.Errorf("config value: got source %q, want %q", s.Source, KeySourceConfig)
	}
	if !s.IsSet {
		t.Error("config value should be set")
	}

	// Value from env
	os.Setenv("TEST_VAR", "env-value-long-enough")
	defer os.Unsetenv("TEST_VAR")
	s = checkKey("Test", "env-value-long-enough", "TEST_VAR")
	if s.Source != KeySourceEnv {
		t.Errorf("env value: got source %q, want %q", s.Source, KeySourceEnv)
	}
}

// ── homeDir ──

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	h := homeDir()
	if h == "" {
		t.Error("homeDir() should not return empty string")
	}
}
