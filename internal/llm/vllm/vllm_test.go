package vllm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/whuclubsynapse/synapse-ai/pkg/llm"
	"github.com/whuclubsynapse/synapse-ai/pkg/llm/llmtest"
	"go.uber.org/zap"
)

func newTestProvider(t *testing.T, serverURL string) *Provider {
	t.Helper()
	p, err := New(Config{
		URL:     serverURL,
		Model:   "test-model",
		Timeout: 10 * time.Second,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

// mockVLLM returns an httptest server speaking the OpenAI-compatible API.
// Buffered requests complete with "Hello!"; streamed requests emit the
// same text as the chunks "He", "llo", "!".
func mockVLLM(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if !req.Stream {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"model":%q,"choices":[{"message":{"role":"assistant","content":"Hello!"}}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`, req.Model)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range []string{"He", "llo", "!"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", delta)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	mux.HandleFunc("GET /v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"id":"Qwen/Qwen2.5-7B-Instruct"},{"id":"test-model"}]}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_InvalidURL(t *testing.T) {
	if _, err := New(Config{URL: "://bad"}, zap.NewNop()); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestContract(t *testing.T) {
	llmtest.RunProviderContract(t, func(t *testing.T) llm.Provider {
		return newTestProvider(t, mockVLLM(t).URL)
	}, "Hello!")
}

func TestComplete_Usage(t *testing.T) {
	srv := mockVLLM(t)
	p := newTestProvider(t, srv.URL)

	resp, err := p.Complete(context.Background(), llm.Request{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
		MaxTokens: 16,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Usage == nil {
		t.Fatal("Usage = nil, want populated")
	}
	if resp.Usage.TotalTokens != 5 {
		t.Errorf("TotalTokens = %d, want 5", resp.Usage.TotalTokens)
	}
}

func TestComplete_DefaultModel(t *testing.T) {
	srv := mockVLLM(t)
	p := newTestProvider(t, srv.URL)

	resp, err := p.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Model != "test-model" {
		t.Errorf("Model = %q, want configured default %q", resp.Model, "test-model")
	}
}

func TestComplete_EmptyMessages(t *testing.T) {
	srv := mockVLLM(t)
	p := newTestProvider(t, srv.URL)

	_, err := p.Complete(context.Background(), llm.Request{})
	if !llm.IsInvalidRequestError(err) {
		t.Errorf("Complete() error = %v, want invalid request", err)
	}
}

func TestComplete_UpstreamErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"error":{"message":"model overloaded","type":"server_error"}}`)
	}))
	t.Cleanup(srv.Close)

	p := newTestProvider(t, srv.URL)
	_, err := p.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	if !llm.IsProtocolError(err) {
		t.Errorf("Complete() error = %v, want protocol error", err)
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("error message %q does not carry the upstream detail", err)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"model":"m","choices":[]}`)
	}))
	t.Cleanup(srv.Close)

	p := newTestProvider(t, srv.URL)
	_, err := p.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	if !llm.IsProtocolError(err) {
		t.Errorf("Complete() error = %v, want protocol error", err)
	}
}

func TestComplete_Upstream500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	p := newTestProvider(t, srv.URL)
	_, err := p.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	if !llm.IsUnavailableError(err) {
		t.Errorf("Complete() error = %v, want unavailable", err)
	}
}

func TestComplete_Upstream400(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"max_tokens too large"}}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	p := newTestProvider(t, srv.URL)
	_, err := p.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	if !llm.IsInvalidRequestError(err) {
		t.Errorf("Complete() error = %v, want invalid request", err)
	}
}

func TestComplete_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	p := newTestProvider(t, srv.URL)
	_, err := p.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	if !llm.IsUnavailableError(err) {
		t.Errorf("Complete() error = %v, want unavailable", err)
	}
}

func TestStreamComplete_MidStreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"backend died\"}}\n\n")
	}))
	t.Cleanup(srv.Close)

	p := newTestProvider(t, srv.URL)

	var got strings.Builder
	err := p.StreamComplete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	}, func(_ context.Context, c llm.Chunk) error {
		got.WriteString(c.Delta)
		return nil
	})

	if !llm.IsProtocolError(err) {
		t.Fatalf("StreamComplete() error = %v, want protocol error", err)
	}
	if got.String() != "partial" {
		t.Errorf("content before error = %q, want %q (partial output must be delivered)", got.String(), "partial")
	}
}

func TestStreamComplete_ContentAndErrorSameChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"last words\"}}],\"error\":{\"message\":\"boom\"}}\n\n")
	}))
	t.Cleanup(srv.Close)

	p := newTestProvider(t, srv.URL)

	var got strings.Builder
	err := p.StreamComplete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	}, func(_ context.Context, c llm.Chunk) error {
		got.WriteString(c.Delta)
		return nil
	})

	if !llm.IsProtocolError(err) {
		t.Fatalf("StreamComplete() error = %v, want protocol error", err)
	}
	if got.String() != "last words" {
		t.Errorf("content delivered before error = %q, want %q", got.String(), "last words")
	}
}

func TestStreamComplete_StringErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"error\":\"plain text failure\"}\n\n")
	}))
	t.Cleanup(srv.Close)

	p := newTestProvider(t, srv.URL)
	err := p.StreamComplete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	}, func(_ context.Context, c llm.Chunk) error { return nil })

	if !llm.IsProtocolError(err) {
		t.Fatalf("StreamComplete() error = %v, want protocol error", err)
	}
	if !strings.Contains(err.Error(), "plain text failure") {
		t.Errorf("error %q missing upstream message", err)
	}
}

func TestHeartbeat(t *testing.T) {
	srv := mockVLLM(t)
	p := newTestProvider(t, srv.URL)

	if err := p.Heartbeat(context.Background()); err != nil {
		t.Errorf("Heartbeat() error = %v", err)
	}
}

func TestListModels(t *testing.T) {
	srv := mockVLLM(t)
	p := newTestProvider(t, srv.URL)

	models, err := p.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("ListModels() returned %d models, want 2", len(models))
	}
	if models[0] != "Qwen/Qwen2.5-7B-Instruct" {
		t.Errorf("models[0] = %q", models[0])
	}
}

func TestMapError_ContextDeadline(t *testing.T) {
	if err := mapError(context.DeadlineExceeded); !llm.IsTimeoutError(err) {
		t.Errorf("expected timeout error, got %v", err)
	}
}

func TestMapError_Nil(t *testing.T) {
	if err := mapError(nil); err != nil {
		t.Errorf("mapError(nil) = %v, want nil", err)
	}
}
