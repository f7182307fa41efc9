package llm

import (
	"fmt"
	"os"
	"time"
)

// Config selects one provider. An empty Provider disables AI drafting.
type Config struct {
	// Provider is anthropic, openai, openrouter, gemini or mock.
	Provider string        `yaml:"provider" validate:"omitempty,oneof=anthropic openai openrouter gemini mock"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url" validate:"omitempty,url"`
	Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`
	Retry    RetryConfig   `yaml:"retry"`
}

// RetryConfig configures backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" validate:"gte=1"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier" validate:"gte=1"`
}

// DefaultConfig leaves drafting disabled.
func DefaultConfig() Config {
	return Config{
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 30 * time.Second,
	}
}

// Enabled reports whether a provider is selected.
func (c Config) Enabled() bool { return c.Provider != "" }

// Discover fills an unset provider from the vendors' standard API key
// variables, checked in the order Gemini, OpenAI, Anthropic, OpenRouter.
func (c Config) Discover() Config {
	if c.Provider != "" {
		return c
	}
	for _, v := range []struct{ env, provider string }{
		{"GEMINI_API_KEY", "gemini"},
		{"OPENAI_API_KEY", "openai"},
		{"ANTHROPIC_API_KEY", "anthropic"},
		{"OPENROUTER_API_KEY", "openrouter"},
	} {
		if k := os.Getenv(v.env); k != "" {
			c.Provider = v.provider
			c.APIKey = k
			return c
		}
	}
	return c
}

// Check reports a selected provider that cannot be built.
func (c Config) Check() error {
	switch c.Provider {
	case "", "mock":
		return nil
	case "anthropic", "openai", "openrouter", "gemini":
		if c.APIKey == "" {
			return fmt.Errorf("llm: %s provider needs an API key (SKILLTREE_LLM_API_KEY)", c.Provider)
		}
		return nil
	default:
		return fmt.Errorf("llm: unknown provider %q", c.Provider)
	}
}
