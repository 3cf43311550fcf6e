package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/whuclubsynapse/synapse-ai/internal/extract"
	"github.com/whuclubsynapse/synapse-ai/pkg/llm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   string
		wantStatus int
	}{
		{
			name:       "invalid request",
			err:        llm.NewProviderError(llm.ErrCodeInvalidRequest, "empty messages", nil),
			wantKind:   KindBadRequest,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "timeout",
			err:        llm.NewProviderError(llm.ErrCodeTimeout, "deadline", context.DeadlineExceeded),
			wantKind:   KindTimeout,
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "unavailable",
			err:        llm.NewProviderError(llm.ErrCodeUnavailable, "down", nil),
			wantKind:   KindUnavailable,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "protocol",
			err:        llm.NewProviderError(llm.ErrCodeProtocol, "garbage body", nil),
			wantKind:   KindProtocol,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "unparsable output",
			err:        fmt.Errorf("extract intro: %w", extract.ErrUnparsable),
			wantKind:   KindUnparsableOutput,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "schema violation",
			err:        &extract.SchemaError{Field: "introduction", Reason: "missing"},
			wantKind:   KindSchemaViolation,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "unknown",
			err:        errors.New("disk full"),
			wantKind:   KindInternal,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, status := Classify(tt.err)
			if kind != tt.wantKind || status != tt.wantStatus {
				t.Errorf("Classify() = (%q, %d), want (%q, %d)", kind, status, tt.wantKind, tt.wantStatus)
			}
		})
	}
}

func TestWriteError_ProblemShape(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, llm.NewProviderError(llm.ErrCodeUnavailable, "backend down", nil), "/api/v1/chat")

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content-type = %q", ct)
	}

	var p Problem
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if p.Kind != KindUnavailable {
		t.Errorf("kind = %q, want %q", p.Kind, KindUnavailable)
	}
	if p.Instance != "/api/v1/chat" {
		t.Errorf("instance = %q", p.Instance)
	}
	if p.Detail == "" {
		t.Error("detail should carry the provider message")
	}
}

func TestWriteError_InternalHidesDetail(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("pq: password authentication failed"), "/api/v1/chat")

	var p Problem
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if p.Detail == "pq: password authentication failed" {
		t.Error("internal error detail leaked to the client")
	}
}

func TestBadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	BadRequest(w, "messages must not be empty", "/api/v1/chat")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	var p Problem
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if p.Kind != KindBadRequest || p.Title != "Bad Request" {
		t.Errorf("problem = %+v", p)
	}
}
