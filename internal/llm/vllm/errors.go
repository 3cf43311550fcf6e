package vllm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/whuclubsynapse/synapse-ai/pkg/llm"
)

// vllmStatusError is a non-2xx response from the vLLM server.
type vllmStatusError struct {
	StatusCode int
	Message    string
}

func (e *vllmStatusError) Error() string {
	return fmt.Sprintf("vllm: status %d: %s", e.StatusCode, e.Message)
}

// mapError translates vLLM and network errors into typed llm.ProviderError values.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	// Context errors.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return llm.NewProviderError(llm.ErrCodeTimeout, "vllm request timed out or cancelled", err)
	}

	// Non-2xx statuses. 5xx counts as an outage so operators can alert on
	// it separately from client mistakes.
	var se *vllmStatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode >= 500:
			return llm.NewProviderError(llm.ErrCodeUnavailable, se.Message, err)
		case se.StatusCode >= 400:
			return llm.NewProviderError(llm.ErrCodeInvalidRequest, se.Message, err)
		}
	}

	// Client-side timeouts surface as net.Error with Timeout() == true.
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return llm.NewProviderError(llm.ErrCodeTimeout, "vllm request timed out", err)
	}

	// Connection refused, DNS errors, etc.
	msg := err.Error()
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "dial tcp") {
		return llm.NewProviderError(llm.ErrCodeUnavailable, "vllm server unreachable", err)
	}

	return llm.NewProviderError(llm.ErrCodeProtocol, "vllm error", err)
}
