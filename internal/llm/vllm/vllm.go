// Package vllm implements llm.Provider for a self-hosted vLLM server
// speaking the OpenAI-compatible chat completions API.
package vllm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/whuclubsynapse/synapse-ai/pkg/llm"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ llm.Provider       = (*Provider)(nil)
	_ llm.HealthReporter = (*Provider)(nil)
)

// Provider implements llm.Provider for vLLM using its REST API.
type Provider struct {
	baseURL    string
	httpClient *http.Client
	cfg        Config
	logger     *zap.Logger
}

// New creates a vLLM provider. It does not verify connectivity;
// call Heartbeat explicitly if you need an early health check.
func New(cfg Config, logger *zap.Logger) (*Provider, error) {
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("parse vllm url %q: %w", cfg.URL, err)
	}

	return &Provider{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Complete executes req and returns the full completion.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if len(req.Messages) == 0 {
		return nil, llm.NewProviderError(llm.ErrCodeInvalidRequest, "messages must not be empty", nil)
	}

	body, err := json.Marshal(p.buildRequest(req, false))
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	respBody, err := p.doPost(ctx, "/v1/chat/completions", body)
	if err != nil {
		return nil, mapError(err)
	}
	defer respBody.Close()

	var resp chatResponse
	if err := json.NewDecoder(respBody).Decode(&resp); err != nil {
		return nil, llm.NewProviderError(llm.ErrCodeProtocol, "vllm returned an unreadable body", err)
	}

	// vLLM reports some failures inside a 200 body.
	if resp.Error != nil {
		return nil, llm.NewProviderError(llm.ErrCodeProtocol, resp.Error.Message, nil)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.NewProviderError(llm.ErrCodeProtocol, "vllm response has no choices", nil)
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}

	out := &llm.Response{
		Content: resp.Choices[0].Message.Content,
		Model:   model,
	}
	if resp.Usage != nil {
		out.Usage = &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out, nil
}

// StreamComplete executes req and forwards each SSE chunk through fn, in
// upstream order. Content arriving before an upstream error is delivered
// before the error is returned.
func (p *Provider) StreamComplete(ctx context.Context, req llm.Request, fn llm.ChunkFunc) error {
	if len(req.Messages) == 0 {
		return llm.NewProviderError(llm.ErrCodeInvalidRequest, "messages must not be empty", nil)
	}

	body, err := json.Marshal(p.buildRequest(req, true))
	if err != nil {
		return fmt.Errorf("marshal chat request: %w", err)
	}

	respBody, err := p.doPost(ctx, "/v1/chat/completions", body)
	if err != nil {
		return mapError(err)
	}
	defer respBody.Close()

	scanner := bufio.NewScanner(respBody)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

		if data == "[DONE]" {
			return fn(ctx, llm.Chunk{Final: true})
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}

		// Content carried in the same frame as an error field is still
		// delivered; partial output is never retracted.
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if err := fn(ctx, llm.Chunk{Delta: chunk.Choices[0].Delta.Content}); err != nil {
				return err
			}
		}

		if chunk.Error != nil {
			return llm.NewProviderError(llm.ErrCodeProtocol, chunk.Error.Message, nil)
		}
	}
	if err := scanner.Err(); err != nil {
		return mapError(err)
	}

	// Stream ended without a [DONE] marker; treat it as a clean close.
	return fn(ctx, llm.Chunk{Final: true})
}

// Heartbeat checks whether the vLLM server is reachable.
func (p *Provider) Heartbeat(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", http.NoBody)
	if err != nil {
		return mapError(err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return mapError(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return mapError(&vllmStatusError{StatusCode: resp.StatusCode, Message: "heartbeat failed"})
	}
	return nil
}

// ListModels returns the model IDs served by the vLLM server.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return nil, mapError(err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, mapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, mapError(parseStatusError(resp))
	}

	var result listResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, llm.NewProviderError(llm.ErrCodeProtocol, "decode model list", err)
	}

	names := make([]string, len(result.Data))
	for i := range result.Data {
		names[i] = result.Data[i].ID
	}
	return names, nil
}

// buildRequest maps the common request onto the OpenAI-compatible wire shape.
func (p *Provider) buildRequest(req llm.Request, stream bool) chatRequest {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}
	apiMessages := make([]chatMessage, len(req.Messages))
	for i, m := range req.Messages {
		apiMessages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	return chatRequest{
		Model:       model,
		Messages:    apiMessages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stream:      stream,
	}
}

// doPost sends a POST request and returns the response body.
// The caller must close the returned body.
func (p *Provider) doPost(ctx context.Context, path string, body []byte) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, parseStatusError(resp)
	}

	return resp.Body, nil
}

// parseStatusError reads an error response body into a vllmStatusError.
func parseStatusError(resp *http.Response) *vllmStatusError {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}

	limited := io.LimitReader(resp.Body, 1<<16)
	raw, _ := io.ReadAll(limited)

	if err := json.Unmarshal(raw, &errResp); err != nil {
		return &vllmStatusError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	msg := errResp.Error.Message
	if msg == "" {
		msg = errResp.Message
	}
	if msg == "" {
		msg = resp.Status
	}
	return &vllmStatusError{StatusCode: resp.StatusCode, Message: msg}
}

// --- OpenAI-compatible REST types (internal) ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *wireError) UnmarshalJSON(b []byte) error {
	// vLLM sometimes emits {"error": "text"} instead of an object.
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		e.Message = s
		return nil
	}
	type alias wireError
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*e = wireError(a)
	return nil
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *wireError `json:"error"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *wireError `json:"error"`
}

type listResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}
