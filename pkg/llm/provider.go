// Package llm defines the common types for chat completion backends.
// Both backend adapters (the self-hosted vLLM server and the DashScope
// cloud API) implement these interfaces; everything above the adapter
// boundary works exclusively with the types in this package and never
// inspects provider wire formats.
package llm

import "context"

// Provider is implemented by every chat completion backend.
type Provider interface {
	// Complete executes req against the backend and returns the full
	// completion. Exactly one outbound call is made; no retries.
	Complete(ctx context.Context, req Request) (*Response, error)

	// StreamComplete executes req and invokes fn once per chunk, in the
	// order produced upstream. If fn returns a non-nil error, forwarding
	// stops and the upstream connection is released.
	//
	// When the upstream reports an error after content has been produced,
	// the content chunks are delivered through fn before the error is
	// returned; partial output is never retracted.
	StreamComplete(ctx context.Context, req Request, fn ChunkFunc) error
}

// HealthReporter is optionally implemented by providers that can report
// upstream reachability and model availability. Detected via type assertion.
type HealthReporter interface {
	// Heartbeat checks whether the upstream server is reachable.
	Heartbeat(ctx context.Context) error

	// ListModels returns the model IDs available from this provider.
	ListModels(ctx context.Context) ([]string, error)
}

// ChunkFunc receives one streamed chunk. Returning a non-nil error aborts
// the stream.
type ChunkFunc func(ctx context.Context, chunk Chunk) error
