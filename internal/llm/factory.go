package llm

import (
	"context"
	"fmt"
)

// New builds the configured provider wrapped as caller → retry → recorder
// → provider, so every attempt is recorded. It returns nil, nil when no
// provider is configured.
func New(ctx context.Context, cfg Config, rec Recorder) (Provider, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "":
		return nil, nil
	case "mock":
		base = NewMockProvider()
	case "anthropic":
		base, err = NewAnthropic(cfg)
	case "openai":
		base, err = NewOpenAI(cfg)
	case "openrouter":
		base, err = NewOpenRouter(cfg)
	case "gemini":
		base, err = NewGemini(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return WithRetry(WithRecorder(base, rec), cfg.Retry), nil
}
