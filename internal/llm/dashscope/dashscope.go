// Package dashscope implements llm.Provider for Alibaba Cloud's DashScope
// service (qwen models) through its OpenAI-compatible endpoint, using the
// go-openai client.
package dashscope

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"github.com/whuclubsynapse/synapse-ai/pkg/llm"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ llm.Provider       = (*Provider)(nil)
	_ llm.HealthReporter = (*Provider)(nil)
)

// Provider implements llm.Provider for DashScope.
type Provider struct {
	client *openai.Client
	cfg    Config
	logger *zap.Logger
}

// New creates a DashScope provider.
func New(cfg Config, logger *zap.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("dashscope: api key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Provider{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Complete executes req and returns the full completion.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if len(req.Messages) == 0 {
		return nil, llm.NewProviderError(llm.ErrCodeInvalidRequest, "messages must not be empty", nil)
	}

	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(req, false))
	if err != nil {
		return nil, mapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.NewProviderError(llm.ErrCodeProtocol, "dashscope response has no choices", nil)
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}

	return &llm.Response{
		Content: resp.Choices[0].Message.Content,
		Model:   model,
		Usage: &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// StreamComplete executes req and forwards each streamed chunk through fn,
// in upstream order.
func (p *Provider) StreamComplete(ctx context.Context, req llm.Request, fn llm.ChunkFunc) error {
	if len(req.Messages) == 0 {
		return llm.NewProviderError(llm.ErrCodeInvalidRequest, "messages must not be empty", nil)
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, p.buildRequest(req, true))
	if err != nil {
		return mapError(err)
	}
	defer stream.Close()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return fn(ctx, llm.Chunk{Final: true})
		}
		if err != nil {
			return mapError(err)
		}

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if err := fn(ctx, llm.Chunk{Delta: chunk.Choices[0].Delta.Content}); err != nil {
				return err
			}
		}
	}
}

// Heartbeat checks whether the DashScope endpoint is reachable.
func (p *Provider) Heartbeat(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return mapError(err)
	}
	return nil
}

// ListModels returns the model IDs available to this account.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	list, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	names := make([]string, len(list.Models))
	for i := range list.Models {
		names[i] = list.Models[i].ID
	}
	return names, nil
}

// buildRequest maps the common request onto the go-openai request type.
func (p *Provider) buildRequest(req llm.Request, stream bool) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		TopP:        float32(req.TopP),
		Stream:      stream,
	}
}
