// Package relay is the chat gateway core. It validates incoming chat
// requests, fills in configured defaults, anchors the system prompt, and
// forwards the request to the configured backend either buffered or as a
// live token stream.
package relay

import (
	"context"
	"fmt"

	"github.com/whuclubsynapse/synapse-ai/pkg/llm"
	"go.uber.org/zap"
)

// Defaults are the generation parameters applied when a request leaves a
// knob unset.
type Defaults struct {
	MaxTokens    int     `mapstructure:"max_tokens"`
	Temperature  float64 `mapstructure:"temperature"`
	TopP         float64 `mapstructure:"top_p"`
	SystemPrompt string  `mapstructure:"system_prompt"`
}

// DefaultDefaults returns the stock generation parameters.
func DefaultDefaults() Defaults {
	return Defaults{
		MaxTokens:    1024,
		Temperature:  0.7,
		TopP:         0.9,
		SystemPrompt: "You are a helpful assistant.",
	}
}

// ChatRequest is the wire shape accepted by the chat endpoints. Temperature
// and TopP are pointers so an explicit zero is distinguishable from unset.
type ChatRequest struct {
	Messages    []llm.Message `json:"messages"`
	Model       string        `json:"model,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// Engine validates and completes chat requests against one backend.
type Engine struct {
	provider llm.Provider
	defaults Defaults
	logger   *zap.Logger
}

// NewEngine creates an engine over the given backend.
func NewEngine(provider llm.Provider, defaults Defaults, logger *zap.Logger) *Engine {
	return &Engine{
		provider: provider,
		defaults: defaults,
		logger:   logger,
	}
}

// Prepare validates req and returns the backend request with defaults
// applied. Requests without a system message get the configured system
// prompt prepended; a caller-supplied system message always wins.
func (e *Engine) Prepare(req ChatRequest) (llm.Request, error) {
	if err := e.validate(req); err != nil {
		return llm.Request{}, err
	}

	messages := req.Messages
	if !hasSystemMessage(messages) && e.defaults.SystemPrompt != "" {
		messages = append([]llm.Message{
			{Role: llm.RoleSystem, Content: e.defaults.SystemPrompt},
		}, messages...)
	}

	out := llm.Request{
		Messages:    messages,
		Model:       req.Model,
		MaxTokens:   e.defaults.MaxTokens,
		Temperature: e.defaults.Temperature,
		TopP:        e.defaults.TopP,
	}
	if req.MaxTokens > 0 {
		out.MaxTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		out.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		out.TopP = *req.TopP
	}
	return out, nil
}

// Complete runs req buffered and returns the full completion.
func (e *Engine) Complete(ctx context.Context, req ChatRequest) (*llm.Response, error) {
	prepared, err := e.Prepare(req)
	if err != nil {
		return nil, err
	}
	return e.provider.Complete(ctx, prepared)
}

// Stream runs req streamed, forwarding each chunk through fn.
func (e *Engine) Stream(ctx context.Context, req ChatRequest, fn llm.ChunkFunc) error {
	prepared, err := e.Prepare(req)
	if err != nil {
		return err
	}
	return e.provider.StreamComplete(ctx, prepared, fn)
}

// CompleteText is the one-shot form used by the generation features: a
// feature-specific system prompt plus a single user prompt, buffered.
func (e *Engine) CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := e.Complete(ctx, ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (e *Engine) validate(req ChatRequest) error {
	if len(req.Messages) == 0 {
		return llm.NewProviderError(llm.ErrCodeInvalidRequest, "messages must not be empty", nil)
	}
	for i, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem, llm.RoleUser, llm.RoleAssistant:
		default:
			return llm.NewProviderError(llm.ErrCodeInvalidRequest,
				fmt.Sprintf("messages[%d] has unknown role %q", i, m.Role), nil)
		}
		if m.Content == "" {
			return llm.NewProviderError(llm.ErrCodeInvalidRequest,
				fmt.Sprintf("messages[%d] has empty content", i), nil)
		}
	}
	if req.MaxTokens < 0 {
		return llm.NewProviderError(llm.ErrCodeInvalidRequest, "max_tokens must not be negative", nil)
	}
	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		return llm.NewProviderError(llm.ErrCodeInvalidRequest, "temperature must be between 0 and 2", nil)
	}
	if req.TopP != nil && (*req.TopP <= 0 || *req.TopP > 1) {
		return llm.NewProviderError(llm.ErrCodeInvalidRequest, "top_p must be in (0, 1]", nil)
	}
	return nil
}

func hasSystemMessage(messages []llm.Message) bool {
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			return true
		}
	}
	return false
}
