package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI    = "openai"
	ProviderGroq      = "groq"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

type Config struct {
	Port    int           `yaml:"port"`
	Log     LogConfig     `yaml:"log"`
	LLM     LLMConfig     `yaml:"llm"`
	API     APIConfig     `yaml:"api"`
	Queue   QueueConfig   `yaml:"queue"`
	Storage StorageConfig `yaml:"storage"`
	Discord DiscordConfig `yaml:"discord"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	// QPM is the request budget per minute. Zero disables throttling.
	QPM        int `yaml:"qpm"`
	MaxRetries int `yaml:"max_retries"`
}

type APIConfig struct {
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

type QueueConfig struct {
	URL      string `yaml:"url"`
	Queue    string `yaml:"queue"`
	Exchange string `yaml:"exchange"`
	Workers  int    `yaml:"workers"`
}

type StorageConfig struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type DiscordConfig struct {
	Token string `yaml:"token"`
}

// Mode names a runnable surface for Validate.
type Mode string

const (
	ModeServe  Mode = "serve"
	ModeWorker Mode = "worker"
	ModeBot    Mode = "bot"
)

func Default() *Config {
	return &Config{
		Port: 8080,
		Log: LogConfig{
			Level:  "info",
			Format: "pretty",
		},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Timeout:     30 * time.Second,
			MaxTokens:   1000,
			Temperature: 0.7,
			MaxRetries:  2,
		},
		API: APIConfig{
			RateLimitRPS:   5,
			RateLimitBurst: 10,
		},
		Queue: QueueConfig{
			Queue:    "analysis_requests",
			Exchange: "analysis_results",
			Workers:  2,
		},
		Storage: StorageConfig{
			Region: "auto",
		},
	}
}

// Load layers defaults, the optional YAML file at path, a .env file and the
// process environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var err error
	setInt := func(key string, dst *int) {
		if err != nil {
			return
		}
		if v, ok := lookup(key); ok {
			n, convErr := strconv.Atoi(v)
			if convErr != nil {
				err = fmt.Errorf("invalid %s %q: %w", key, v, convErr)
				return
			}
			*dst = n
		}
	}
	setFloat := func(key string, dst *float64) {
		if err != nil {
			return
		}
		if v, ok := lookup(key); ok {
			f, convErr := strconv.ParseFloat(v, 64)
			if convErr != nil {
				err = fmt.Errorf("invalid %s %q: %w", key, v, convErr)
				return
			}
			*dst = f
		}
	}
	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	setInt("PORT", &c.Port)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)

	setString("AI_PROVIDER", &c.LLM.Provider)
	setString("LLM_MODEL", &c.LLM.Model)
	setString("LLM_BASE_URL", &c.LLM.BaseURL)
	if v, ok := lookup("LLM_TIMEOUT"); ok {
		d, convErr := time.ParseDuration(v)
		if convErr != nil {
			return fmt.Errorf("invalid LLM_TIMEOUT %q: %w", v, convErr)
		}
		c.LLM.Timeout = d
	}
	setInt("LLM_MAX_TOKENS", &c.LLM.MaxTokens)
	setFloat("LLM_TEMPERATURE", &c.LLM.Temperature)
	setInt("LLM_QPM", &c.LLM.QPM)
	setInt("LLM_MAX_RETRIES", &c.LLM.MaxRetries)

	setFloat("API_RATE_LIMIT_RPS", &c.API.RateLimitRPS)
	setInt("API_RATE_LIMIT_BURST", &c.API.RateLimitBurst)

	setString("RABBITMQ_URL", &c.Queue.URL)
	setInt("WORKER_COUNT", &c.Queue.Workers)

	setString("S3_BUCKET", &c.Storage.Bucket)
	setString("S3_REGION", &c.Storage.Region)
	setString("S3_ENDPOINT", &c.Storage.Endpoint)
	setString("S3_ACCESS_KEY", &c.Storage.AccessKey)
	setString("S3_SECRET_KEY", &c.Storage.SecretKey)

	setString("DISCORD_BOT_TOKEN", &c.Discord.Token)

	if err != nil {
		return err
	}

	if c.LLM.APIKey == "" {
		c.LLM.APIKey = apiKeyFor(strings.ToLower(strings.TrimSpace(c.LLM.Provider)))
	}
	return nil
}

func apiKeyFor(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderGroq:
		return os.Getenv("GROQ_API_KEY")
	case ProviderGemini:
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GEMINI_KEY")
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Validate reports the settings mode cannot run without. An LLM key is never
// required: analyses fall back to fixed suggestions without one.
func (c *Config) Validate(mode Mode) error {
	var missing []string

	switch mode {
	case ModeServe:
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("invalid port %d", c.Port)
		}
	case ModeWorker:
		if c.Queue.URL == "" {
			missing = append(missing, "RABBITMQ_URL")
		}
		if c.Queue.Workers <= 0 {
			return fmt.Errorf("worker count must be positive, got %d", c.Queue.Workers)
		}
	case ModeBot:
		if c.Discord.Token == "" {
			missing = append(missing, "DISCORD_BOT_TOKEN")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// HasStorage reports whether an object store is configured.
func (c *Config) HasStorage() bool {
	return c.Storage.Bucket != ""
}
