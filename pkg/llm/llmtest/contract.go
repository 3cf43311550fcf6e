// Package llmtest provides shared contract tests that verify any
// llm.Provider implementation behaves correctly, plus a scripted stub
// provider for tests of code built on top of the adapter boundary.
//
// Providers point their factory at an httptest mock of the upstream API
// and call RunProviderContract with the content the mock produces.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/whuclubsynapse/synapse-ai/pkg/llm"
)

// RunProviderContract runs a suite of behavioral contract tests against an
// llm.Provider implementation. The factory must return a provider whose
// upstream (usually an httptest server) deterministically completes with
// wantContent. Call this from each provider's _test.go:
//
//	func TestContract(t *testing.T) {
//	    llmtest.RunProviderContract(t, newMockedProvider, "Hello!")
//	}
func RunProviderContract(t *testing.T, factory func(t *testing.T) llm.Provider, wantContent string) {
	t.Helper()

	req := llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
		Model:       "test-model",
		MaxTokens:   64,
		Temperature: 0.7,
		TopP:        0.9,
	}

	t.Run("Complete_returns_full_content", func(t *testing.T) {
		p := factory(t)
		resp, err := p.Complete(context.Background(), req)
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if resp.Content != wantContent {
			t.Errorf("Content = %q, want %q", resp.Content, wantContent)
		}
		if resp.Model == "" {
			t.Error("Response.Model must not be empty")
		}
	})

	t.Run("StreamComplete_concatenation_matches_buffered", func(t *testing.T) {
		p := factory(t)

		var sb strings.Builder
		finals := 0
		err := p.StreamComplete(context.Background(), req, func(_ context.Context, c llm.Chunk) error {
			sb.WriteString(c.Delta)
			if c.Final {
				finals++
			}
			return nil
		})
		if err != nil {
			t.Fatalf("StreamComplete() error = %v", err)
		}
		if sb.String() != wantContent {
			t.Errorf("concatenated deltas = %q, want %q", sb.String(), wantContent)
		}
		if finals != 1 {
			t.Errorf("final chunks = %d, want exactly 1", finals)
		}
	})

	t.Run("StreamComplete_aborts_on_callback_error", func(t *testing.T) {
		p := factory(t)

		abort := errors.New("consumer gone")
		calls := 0
		err := p.StreamComplete(context.Background(), req, func(_ context.Context, c llm.Chunk) error {
			calls++
			return abort
		})
		if err == nil {
			t.Fatal("StreamComplete() = nil, want abort error")
		}
		if !errors.Is(err, abort) {
			t.Errorf("StreamComplete() error = %v, want %v", err, abort)
		}
		if calls != 1 {
			t.Errorf("callback called %d times after abort, want 1", calls)
		}
	})

	t.Run("Complete_cancelled_context", func(t *testing.T) {
		p := factory(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := p.Complete(ctx, req); err == nil {
			t.Fatal("expected error for cancelled context")
		}
	})
}
