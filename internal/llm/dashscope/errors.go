package dashscope

import (
	"context"
	"errors"
	"net"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/whuclubsynapse/synapse-ai/pkg/llm"
)

// mapError translates go-openai and network errors into typed
// llm.ProviderError values.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return llm.NewProviderError(llm.ErrCodeTimeout, "dashscope request timed out or cancelled", err)
	}

	// API-level errors carry the upstream HTTP status.
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode >= 500:
			return llm.NewProviderError(llm.ErrCodeUnavailable, apiErr.Message, err)
		case apiErr.HTTPStatusCode >= 400:
			return llm.NewProviderError(llm.ErrCodeInvalidRequest, apiErr.Message, err)
		}
		return llm.NewProviderError(llm.ErrCodeProtocol, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode >= 500 {
			return llm.NewProviderError(llm.ErrCodeUnavailable, "dashscope server error", err)
		}
		return llm.NewProviderError(llm.ErrCodeInvalidRequest, "dashscope rejected the request", err)
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return llm.NewProviderError(llm.ErrCodeTimeout, "dashscope request timed out", err)
	}

	msg := err.Error()
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "dial tcp") {
		return llm.NewProviderError(llm.ErrCodeUnavailable, "dashscope unreachable", err)
	}

	return llm.NewProviderError(llm.ErrCodeProtocol, "dashscope error", err)
}
