package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/p-shah256/atsmatch/internal/config"
)

// Provider turns a system and user prompt into free text.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

var (
	ErrUnknownProvider = errors.New("unknown LLM provider")
	ErrMissingAPIKey   = errors.New("missing LLM API key")
	ErrEmptyResponse   = errors.New("empty response from LLM")
)

type defaults struct {
	baseURL string
	model   string
}

var providerDefaults = map[string]defaults{
	config.ProviderOpenAI:    {baseURL: "https://api.openai.com/v1", model: "gpt-3.5-turbo"},
	config.ProviderGroq:      {baseURL: "https://api.groq.com/openai/v1", model: "llama3-70b-8192"},
	config.ProviderGemini:    {model: "gemini-2.0-flash"},
	config.ProviderAnthropic: {model: "claude-3-5-haiku-latest"},
}

const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
)

// New builds the provider named by cfg.Provider, wrapped with retries and,
// when cfg.QPM is positive, a rate limit.
func New(cfg config.LLMConfig) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	def, ok := providerDefaults[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for provider %s", ErrMissingAPIKey, name)
	}
	if cfg.Model == "" {
		cfg.Model = def.model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.baseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	var (
		p   Provider
		err error
	)
	switch name {
	case config.ProviderOpenAI, config.ProviderGroq:
		p = NewOpenAI(cfg)
	case config.ProviderGemini:
		p, err = NewGemini(context.Background(), cfg)
	case config.ProviderAnthropic:
		p = NewAnthropic(cfg)
	}
	if err != nil {
		return nil, err
	}

	if cfg.MaxRetries > 0 {
		rc := DefaultRetryConfig
		rc.MaxRetries = cfg.MaxRetries
		p = WithRetry(p, rc)
	}
	if cfg.QPM > 0 {
		p = WithRateLimit(p, cfg.QPM)
	}
	return p, nil
}

// Close releases provider resources when the provider (or the one it wraps) holds any.
func Close(p Provider) {
	for p != nil {
		if c, ok := p.(interface{ Close() }); ok {
			c.Close()
			return
		}
		u, ok := p.(interface{ Unwrap() Provider })
		if !ok {
			return
		}
		p = u.Unwrap()
	}
}

func since(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
