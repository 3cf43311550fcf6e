package llmtest

import (
	"context"

	"github.com/whuclubsynapse/synapse-ai/pkg/llm"
)

// Compile-time interface guard.
var _ llm.Provider = (*StubProvider)(nil)

// StubProvider is a scripted llm.Provider for tests of the relay and the
// feature services. It records the last request it received and replays a
// fixed response or chunk sequence.
type StubProvider struct {
	// Content is returned by Complete and, when Chunks is nil, streamed as
	// a single chunk by StreamComplete.
	Content string
	// Model is echoed in the buffered response; defaults to "stub-model".
	Model string
	// Usage is attached to buffered responses when non-nil.
	Usage *llm.Usage
	// Chunks, when set, is the exact delta sequence StreamComplete emits
	// before the final chunk.
	Chunks []string
	// Err, when set, is returned by Complete; StreamComplete emits all
	// scripted chunks first and then returns it (partial output is
	// delivered before the error, matching the adapter contract).
	Err error

	// LastRequest holds the request from the most recent call.
	LastRequest llm.Request
	// Calls counts Complete and StreamComplete invocations.
	Calls int
}

func (s *StubProvider) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.LastRequest = req
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	model := s.Model
	if model == "" {
		model = "stub-model"
	}
	return &llm.Response{Content: s.Content, Model: model, Usage: s.Usage}, nil
}

func (s *StubProvider) StreamComplete(ctx context.Context, req llm.Request, fn llm.ChunkFunc) error {
	s.LastRequest = req
	s.Calls++

	deltas := s.Chunks
	if deltas == nil && s.Content != "" {
		deltas = []string{s.Content}
	}
	for _, d := range deltas {
		if err := fn(ctx, llm.Chunk{Delta: d}); err != nil {
			return err
		}
	}
	if s.Err != nil {
		return s.Err
	}
	return fn(ctx, llm.Chunk{Final: true})
}
