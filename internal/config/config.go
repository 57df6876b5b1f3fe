package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPath          = "config.json"
	DefaultServerAddress = ":8090"
	DefaultSystemPrompt  = "You are the L'Oréal Product Assistant. Only answer questions related to L'Oréal products, routines, and recommendations. " +
		"Provide clear, concise product suggestions, step-by-step routine guidance, and explain why a product fits a user's need. " +
		"Ask clarifying questions if a user's request is ambiguous. Do not provide medical diagnoses. " +
		"If a user asks about topics outside L'Oréal products, routines, recommendations, or general beauty topics, politely refuse and steer the conversation back to L'Oréal-related assistance. " +
		"Be polite and professional."
	DefaultGreeting       = "👋 Hello! I can help you discover L'Oréal products, build routines, and give recommendations. What would you like to know?"
	DefaultAssistantLabel = "L'Oréal Assistant"
	DefaultWorkerURL      = "https://lorealbotworker.ams63tube.workers.dev/"
	// Seconds allowed for one completion request.
	DefaultRequestTimeout = 120
)

const (
	BackendWorker = "worker"
	StoreMemory   = "memory"
	StoreRedis    = "redis"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config" yaml:"basic_config"`
	Assistant   AssistantConfig           `json:"assistant" yaml:"assistant"`
	Completion  CompletionConfig          `json:"completion" yaml:"completion"`
	Providers   map[string]ProviderConfig `json:"providers" yaml:"providers"`
	Redis       RedisConfig               `json:"redis" yaml:"redis"`
	Logging     LoggingConfig             `json:"logging" yaml:"logging"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address" yaml:"server_address"`
	SessionStore  string `json:"session_store" yaml:"session_store"`
	// Minutes a session may stay idle before it is discarded.
	SessionIdleTimeout int `json:"session_idle_timeout" yaml:"session_idle_timeout"`
}

type AssistantConfig struct {
	SystemPrompt       string `json:"system_prompt" yaml:"system_prompt"`
	Greeting           string `json:"greeting" yaml:"greeting"`
	NameGreeting       string `json:"name_greeting" yaml:"name_greeting"`
	AssistantLabel     string `json:"assistant_label" yaml:"assistant_label"`
	ClosingInstruction string `json:"closing_instruction" yaml:"closing_instruction"`
}

type CompletionConfig struct {
	// Backend is "worker" or the name of an entry in Providers.
	Backend   string `json:"backend" yaml:"backend"`
	WorkerURL string `json:"worker_url" yaml:"worker_url"`
	Model     string `json:"model" yaml:"model"`
	// Seconds; non-positive values fall back to DefaultRequestTimeout.
	RequestTimeout int `json:"request_timeout" yaml:"request_timeout"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
	Model   string `json:"model" yaml:"model"`
	APIKey  string `json:"api_key" yaml:"api_key"`
}

type RedisConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

type LoggingConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

var providerKeyEnv = map[string]string{
	"openai": "OPENAI_API_KEY",
	"claude": "ANTHROPIC_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from path. An empty path falls back to
// LOREALCHAT_CONFIG, then config.json; a missing default file yields the
// built-in defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv("LOREALCHAT_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			cfg := &Config{}
			cfg.applyEnvOverrides()
			cfg.applyDefaults()
			return cfg, cfg.validate()
		}
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("LOREALCHAT_WORKER_URL"); url != "" {
		c.Completion.WorkerURL = url
	}
	for provider, env := range providerKeyEnv {
		key := os.Getenv(env)
		if key == "" {
			continue
		}
		if c.Providers == nil {
			c.Providers = make(map[string]ProviderConfig)
		}
		prov := c.Providers[provider]
		if prov.APIKey == "" {
			prov.APIKey = key
			c.Providers[provider] = prov
		}
	}
}

func (c *Config) applyDefaults() {
	if c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = DefaultServerAddress
	}
	if c.BasicConfig.SessionStore == "" {
		c.BasicConfig.SessionStore = StoreMemory
	}
	if c.BasicConfig.SessionIdleTimeout <= 0 {
		c.BasicConfig.SessionIdleTimeout = 60
	}
	if c.Assistant.SystemPrompt == "" {
		c.Assistant.SystemPrompt = DefaultSystemPrompt
	}
	if c.Assistant.Greeting == "" {
		c.Assistant.Greeting = DefaultGreeting
	}
	if c.Assistant.AssistantLabel == "" {
		c.Assistant.AssistantLabel = DefaultAssistantLabel
	}
	if c.Completion.Backend == "" {
		c.Completion.Backend = BackendWorker
	}
	if c.Completion.Backend == BackendWorker && c.Completion.WorkerURL == "" {
		c.Completion.WorkerURL = DefaultWorkerURL
	}
	if c.Completion.RequestTimeout <= 0 {
		c.Completion.RequestTimeout = DefaultRequestTimeout
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "127.0.0.1"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// TurnTimeout bounds one completion request.
func (c *Config) TurnTimeout() time.Duration {
	return time.Duration(c.Completion.RequestTimeout) * time.Second
}

func (c *Config) validate() error {
	switch c.BasicConfig.SessionStore {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unsupported session_store: %s", c.BasicConfig.SessionStore)
	}
	if g := c.Assistant.NameGreeting; g != "" && strings.Count(g, "%s") != 1 {
		return fmt.Errorf("assistant.name_greeting must contain exactly one %%s for the user name: %q", g)
	}
	if c.Completion.Backend == BackendWorker {
		return nil
	}
	if _, ok := c.Providers[c.Completion.Backend]; !ok {
		return fmt.Errorf("provider %s not configured", c.Completion.Backend)
	}
	return nil
}
