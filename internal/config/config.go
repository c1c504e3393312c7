package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LOGRAG_"

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr             string `yaml:"addr"`
	ReadTimeoutSecs  int    `yaml:"read_timeout_secs"`
	WriteTimeoutSecs int    `yaml:"write_timeout_secs"`
	EnableReload     bool   `yaml:"enable_reload"`
}

// StoreConfig locates the vector file and sets the retrieval cutoff.
type StoreConfig struct {
	VectorsFile string `yaml:"vectors_file"`
	TopK        int    `yaml:"top_k"`
}

// OllamaEmbedderConfig holds configuration for the Ollama embedder.
type OllamaEmbedderConfig struct {
	URL         string `yaml:"url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	CacheSize int                   `yaml:"cache_size"`
	Ollama    *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// LLMConfig configures the generation backend.
type LLMConfig struct {
	URL                 string `yaml:"url"`
	Model               string `yaml:"model"`
	ModelPrefix         string `yaml:"model_prefix"`
	ProbeTimeoutSecs    int    `yaml:"probe_timeout_secs"`
	GenerateTimeoutSecs int    `yaml:"generate_timeout_secs"`
}

// SanitizerConfig extends or replaces the redacted phrase list.
type SanitizerConfig struct {
	Marker          string   `yaml:"marker"`
	ExtraPatterns   []string `yaml:"extra_patterns,omitempty"`
	ReplaceDefaults bool     `yaml:"replace_defaults"`
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	LLM       LLMConfig       `yaml:"llm"`
	Sanitizer SanitizerConfig `yaml:"sanitizer"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Load reads a config from a specified path, then applies environment
// overrides and defaults. If the file does not exist, defaults are used.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		cfg = defaultConfig()
	default:
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := defaultConfig()
	applyConfigDefaults(cfg)
	return cfg
}

// Validate reports every invalid setting at once.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Store.VectorsFile == "" {
		errs = append(errs, errors.New("store.vectors_file is required"))
	}
	if c.Store.TopK < 1 {
		errs = append(errs, fmt.Errorf("store.top_k must be at least 1, got %d", c.Store.TopK))
	}
	switch c.Embedder.Type {
	case "hashing", "ollama", "openai":
	default:
		errs = append(errs, fmt.Errorf("unknown embedder type %q", c.Embedder.Type))
	}
	if c.Embedder.CacheSize < 0 {
		errs = append(errs, errors.New("embedder.cache_size must not be negative"))
	}
	if c.LLM.ProbeTimeoutSecs <= 0 {
		errs = append(errs, errors.New("llm.probe_timeout_secs must be positive"))
	}
	if c.LLM.GenerateTimeoutSecs <= 0 {
		errs = append(errs, errors.New("llm.generate_timeout_secs must be positive"))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Server:   ServerConfig{Addr: ":8000", ReadTimeoutSecs: 30, WriteTimeoutSecs: 150, EnableReload: true},
		Store:    StoreConfig{VectorsFile: "/data/logs_index/data.jsonl", TopK: 3},
		Embedder: EmbedderConfig{Type: "hashing", CacheSize: 1024},
		LLM:      LLMConfig{URL: "http://localhost:11434", Model: "mistral:latest"},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.ReadTimeoutSecs == 0 {
		cfg.Server.ReadTimeoutSecs = 30
	}
	if cfg.Server.WriteTimeoutSecs == 0 {
		cfg.Server.WriteTimeoutSecs = 150
	}
	if cfg.Store.TopK == 0 {
		cfg.Store.TopK = 3
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hashing"
	}
	if cfg.Embedder.Type == "ollama" {
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaEmbedderConfig{}
		}
		if cfg.Embedder.Ollama.URL == "" {
			cfg.Embedder.Ollama.URL = "http://localhost:11434"
		}
		if cfg.Embedder.Ollama.Model == "" {
			cfg.Embedder.Ollama.Model = "all-minilm"
		}
		if cfg.Embedder.Ollama.TimeoutSecs == 0 {
			cfg.Embedder.Ollama.TimeoutSecs = 30
		}
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.MaxRetries == 0 {
			cfg.Embedder.OpenAI.MaxRetries = 5
		}
	}
	if cfg.LLM.URL == "" {
		cfg.LLM.URL = "http://localhost:11434"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "mistral:latest"
	}
	if cfg.LLM.ModelPrefix == "" {
		cfg.LLM.ModelPrefix = strings.SplitN(cfg.LLM.Model, ":", 2)[0]
	}
	if cfg.LLM.ProbeTimeoutSecs == 0 {
		cfg.LLM.ProbeTimeoutSecs = 5
	}
	if cfg.LLM.GenerateTimeoutSecs == 0 {
		cfg.LLM.GenerateTimeoutSecs = 120
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// applyEnvOverrides lets deployments override file settings, e.g.
// LOGRAG_VECTORS_FILE or LOGRAG_LLM_MODEL.
func applyEnvOverrides(cfg *AppConfig) error {
	str := map[string]*string{
		"SERVER_ADDR":      &cfg.Server.Addr,
		"VECTORS_FILE":     &cfg.Store.VectorsFile,
		"EMBEDDER_TYPE":    &cfg.Embedder.Type,
		"LLM_URL":          &cfg.LLM.URL,
		"LLM_MODEL":        &cfg.LLM.Model,
		"LLM_MODEL_PREFIX": &cfg.LLM.ModelPrefix,
		"LOG_LEVEL":        &cfg.Logging.Level,
		"LOG_FORMAT":       &cfg.Logging.Format,
		"LOG_FILE":         &cfg.Logging.File,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	ints := map[string]*int{
		"TOP_K":                     &cfg.Store.TopK,
		"EMBEDDER_DIMENSION":        &cfg.Embedder.Dimension,
		"LLM_PROBE_TIMEOUT_SECS":    &cfg.LLM.ProbeTimeoutSecs,
		"LLM_GENERATE_TIMEOUT_SECS": &cfg.LLM.GenerateTimeoutSecs,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}
	return nil
}

// LoadDefault tries ./lograg.yaml first, then ~/.config/lograg/config.yaml.
// If neither exists, built-in defaults are returned with an empty path.
func LoadDefault() (*AppConfig, string, error) {
	candidates := []string{"lograg.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "lograg", "config.yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}
	cfg, err := Load("")
	return cfg, "", err
}
