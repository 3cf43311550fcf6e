package relay

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/whuclubsynapse/synapse-ai/internal/api"
	"github.com/whuclubsynapse/synapse-ai/pkg/llm"
	"go.uber.org/zap"
)

// Wire shapes for SSE data frames. Content frames mirror the OpenAI chunk
// layout so existing client parsers keep working.
type (
	sseFrame struct {
		Choices []sseChoice `json:"choices"`
	}
	sseChoice struct {
		Delta sseDelta `json:"delta"`
	}
	sseDelta struct {
		Content string `json:"content"`
	}
	sseErrorFrame struct {
		Error sseError `json:"error"`
	}
	sseError struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	}
)

// streamChat relays req as a server-sent event stream. Each content chunk
// becomes one data frame, flushed immediately. A failure after the stream
// has started is reported in-band as an error frame; either way the stream
// is closed with exactly one [DONE] marker.
func (h *Handler) streamChat(w http.ResponseWriter, r *http.Request, req ChatRequest) {
	// Validate before committing to the SSE response: a rejected request
	// must surface as a plain HTTP error, not a poisoned stream.
	prepared, err := h.engine.Prepare(req)
	if err != nil {
		relayRequestsTotal.WithLabelValues("stream", "rejected").Inc()
		api.WriteError(w, err, r.URL.Path)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		relayRequestsTotal.WithLabelValues("stream", "error").Inc()
		api.InternalError(w, "streaming unsupported by connection", r.URL.Path)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	streamErr := h.engine.provider.StreamComplete(r.Context(), prepared, func(_ context.Context, chunk llm.Chunk) error {
		if chunk.Delta == "" {
			return nil
		}
		if err := writeFrame(w, sseFrame{Choices: []sseChoice{{Delta: sseDelta{Content: chunk.Delta}}}}); err != nil {
			return err
		}
		flusher.Flush()
		relayStreamChunks.Inc()
		return nil
	})

	if streamErr != nil {
		kind, _ := api.Classify(streamErr)
		h.logger.Warn("stream ended with error",
			zap.String("kind", kind),
			zap.Error(streamErr))
		_ = writeFrame(w, sseErrorFrame{Error: sseError{Kind: kind, Message: streamErr.Error()}})
		relayRequestsTotal.WithLabelValues("stream", "error").Inc()
	} else {
		relayRequestsTotal.WithLabelValues("stream", "ok").Inc()
	}

	// Exactly one terminator, on every path.
	_, _ = w.Write([]byte("data: [DONE]\n\n"))
	flusher.Flush()
}

func writeFrame(w http.ResponseWriter, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n\n"))
	return err
}
