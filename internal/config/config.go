package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vampirenirmal/ritual/internal/agent"
	"github.com/vampirenirmal/ritual/internal/consistency"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"

	appName = "ritual"
)

type Config struct {
	AI          AIConfig            `yaml:"ai" validate:"required"`
	Paths       PathsConfig         `yaml:"paths"`
	Limits      Limits              `yaml:"limits"`
	Input       InputConfig         `yaml:"input"`
	Cache       CacheConfig         `yaml:"cache"`
	Scoring     consistency.Weights `yaml:"scoring"`
	Debug       bool                `yaml:"debug"`
	LogLevel    string              `yaml:"log_level" validate:"oneof=debug info warn error"`
	CostLogging bool                `yaml:"cost_logging"`
}

type AIConfig struct {
	Provider    string        `yaml:"provider" validate:"required,oneof=anthropic openai gemini"`
	APIKey      string        `yaml:"api_key" validate:"omitempty,min=20"`
	Model       string        `yaml:"model" validate:"required"`
	BaseURL     string        `yaml:"base_url" validate:"omitempty,url"`
	Temperature float64       `yaml:"temperature" validate:"min=0,max=2"`
	Timeout     int           `yaml:"timeout" validate:"required,min=10,max=3600"`
	MaxTokens   agent.Budgets `yaml:"max_tokens"`

	// Embeddings always go through Gemini, whatever the generator.
	EmbeddingModel string `yaml:"embedding_model"`
	GeminiAPIKey   string `yaml:"gemini_api_key"`
}

type PathsConfig struct {
	OutputDir     string `yaml:"output_dir" validate:"required"`
	KnowledgeBase string `yaml:"knowledge_base" validate:"required"`
	PromptsDir    string `yaml:"prompts_dir"`
}

type InputConfig struct {
	MinLength int `yaml:"min_length" validate:"min=1"`
	MaxLength int `yaml:"max_length" validate:"gtfield=MinLength"`
}

type CacheConfig struct {
	TTL      time.Duration `yaml:"ttl" validate:"min=0"`
	Capacity int           `yaml:"capacity" validate:"min=1"`
}

// Default is the configuration used when no file exists.
func Default() *Config {
	data := dataDir()
	return &Config{
		AI: AIConfig{
			Provider:    ProviderAnthropic,
			Temperature: agent.DefaultTemperature,
			Timeout:     120,
			MaxTokens:   agent.DefaultBudgets(),
		},
		Paths: PathsConfig{
			OutputDir:     filepath.Join(data, "output"),
			KnowledgeBase: filepath.Join(data, "knowledge.db"),
		},
		Limits:   DefaultLimits(),
		Input:    InputConfig{MinLength: 10, MaxLength: 2000},
		Cache:    CacheConfig{TTL: time.Hour, Capacity: 256},
		Scoring:  consistency.DefaultWeights(),
		LogLevel: "info",
	}
}

// Load reads .env, the config file at Path and the environment, in that
// order of increasing precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFile(Path(), os.Getenv)
}

// LoadFile loads the config at path over the defaults. A missing file is not
// an error.
func LoadFile(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv(getenv)
	cfg.applyProviderDefaults()
	cfg.Paths.OutputDir = expandTilde(cfg.Paths.OutputDir)
	cfg.Paths.KnowledgeBase = expandTilde(cfg.Paths.KnowledgeBase)
	cfg.Paths.PromptsDir = expandTilde(cfg.Paths.PromptsDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Path locates the config file: RITUAL_CONFIG, then the XDG config home.
func Path() string {
	if path := os.Getenv("RITUAL_CONFIG"); path != "" {
		return path
	}
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName, "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName, "config.yaml")
}

func dataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

var providerKeyEnv = map[string]string{
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
}

func (c *Config) applyEnv(getenv func(string) string) {
	// A saved config holds a ${VAR} placeholder instead of the key.
	c.AI.APIKey = os.Expand(c.AI.APIKey, getenv)
	if key := getenv(providerKeyEnv[c.AI.Provider]); key != "" && c.AI.APIKey == "" {
		c.AI.APIKey = key
	}
	c.AI.GeminiAPIKey = os.Expand(c.AI.GeminiAPIKey, getenv)
	if key := getenv("GEMINI_API_KEY"); key != "" && c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = key
	}

	if model := getenv("CLAUDE_MODEL"); model != "" && c.AI.Provider == ProviderAnthropic {
		c.AI.Model = model
	}
	if path := getenv("RITUAL_KB_PATH"); path != "" {
		c.Paths.KnowledgeBase = path
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = strings.ToLower(level)
	}
	if v, err := strconv.ParseBool(getenv("AGENT_DEBUG")); err == nil {
		c.Debug = v
	}
	if v, err := strconv.ParseBool(getenv("ENABLE_COST_LOGGING")); err == nil {
		c.CostLogging = v
	}
}

func (c *Config) applyProviderDefaults() {
	switch c.AI.Provider {
	case ProviderOpenAI:
		if c.AI.Model == "" {
			c.AI.Model = "gpt-4o-mini"
		}
		if c.AI.BaseURL == "" {
			c.AI.BaseURL = "https://api.openai.com/v1"
		}
	case ProviderGemini:
		if c.AI.Model == "" {
			c.AI.Model = "gemini-2.0-flash"
		}
		if c.AI.GeminiAPIKey == "" {
			c.AI.GeminiAPIKey = c.AI.APIKey
		}
	default:
		if c.AI.Model == "" {
			c.AI.Model = agent.DefaultModel
		}
		if c.AI.BaseURL == "" {
			c.AI.BaseURL = "https://api.anthropic.com/v1"
		}
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// SlogLevel maps LogLevel onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Save writes c to path with the API keys replaced by environment
// placeholders.
func (c *Config) Save(path string) error {
	out := *c
	out.AI.APIKey = "${" + providerKeyEnv[c.AI.Provider] + "}"
	out.AI.GeminiAPIKey = "${GEMINI_API_KEY}"

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
