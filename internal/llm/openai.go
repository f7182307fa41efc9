package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

var openaiAliases = map[string]string{
	"": "gpt-4o-mini",
}

var openRouterAliases = map[string]string{
	"": "google/gemini-2.0-flash-exp",
}

// openaiProvider serves OpenAI and any OpenAI-compatible API.
type openaiProvider struct {
	name   string
	client *openai.Client
	model  string
}

// NewOpenAI builds a provider on the OpenAI chat completions API.
func NewOpenAI(cfg Config) (Provider, error) {
	p, err := newOpenAICompatible("openai", cfg, cfg.BaseURL, openaiAliases)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewOpenRouter builds a provider on OpenRouter's OpenAI-compatible API.
func NewOpenRouter(cfg Config) (Provider, error) {
	base := cfg.BaseURL
	if base == "" {
		base = openRouterBaseURL
	}
	p, err := newOpenAICompatible("openrouter", cfg, base, openRouterAliases)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func newOpenAICompatible(name string, cfg Config, baseURL string, aliases map[string]string) (*openaiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", name)
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if baseURL != "" {
		oc.BaseURL = baseURL
	}
	return &openaiProvider{
		name:   name,
		client: openai.NewClientWithConfig(oc),
		model:  resolveModel(cfg.Model, aliases),
	}, nil
}

func (p *openaiProvider) Name() string    { return p.name }
func (p *openaiProvider) ModelID() string { return p.model }

func (p *openaiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	chat := openai.ChatCompletionRequest{
		Model:               p.model,
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         float32(req.Temperature),
	}
	if req.System != "" {
		chat.Messages = append(chat.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		chat.Messages = append(chat.Messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	if req.Schema != nil {
		def, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return nil, fmt.Errorf("marshal schema %s: %w", req.Schema.Name, err)
		}
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: json.RawMessage(def),
				Strict: true,
			},
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, classify(p.name, apiErr.HTTPStatusCode, err)
		}
		return nil, &UnavailableError{Provider: p.name, Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &InvalidResponseError{Err: fmt.Errorf("no choices in %s response", p.name)}
	}

	choice := resp.Choices[0]
	stop := StopEnd
	if choice.FinishReason == openai.FinishReasonLength {
		stop = StopMaxTokens
	}
	usage := Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens}
	return finish(req, json.RawMessage(choice.Message.Content), usage, resp.Model, stop)
}
