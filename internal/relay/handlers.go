package relay

import (
	"encoding/json"
	"net/http"

	"github.com/whuclubsynapse/synapse-ai/internal/api"
	"github.com/whuclubsynapse/synapse-ai/pkg/llm"
	"go.uber.org/zap"
)

// ConfigInfo is the sanitized runtime configuration exposed on the config
// endpoint. Credentials never appear here.
type ConfigInfo struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

// SimpleChatRequest is the single-prompt convenience shape.
type SimpleChatRequest struct {
	Prompt    string `json:"prompt"`
	Model     string `json:"model,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// ChatResponse is the buffered completion wire shape.
type ChatResponse struct {
	Response string     `json:"response"`
	Model    string     `json:"model"`
	Usage    *llm.Usage `json:"usage,omitempty"`
}

// Handler provides the chat relay HTTP endpoints.
type Handler struct {
	engine   *Engine
	provider llm.Provider
	info     ConfigInfo
	logger   *zap.Logger
}

// NewHandler creates a relay Handler.
func NewHandler(engine *Engine, provider llm.Provider, info ConfigInfo, logger *zap.Logger) *Handler {
	return &Handler{
		engine:   engine,
		provider: provider,
		info:     info,
		logger:   logger,
	}
}

// RegisterRoutes registers the chat relay routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /chat", h.handleChat)
	mux.HandleFunc("POST /simple_chat", h.handleSimpleChat)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /models", h.handleModels)
	mux.HandleFunc("GET /config", h.handleConfig)
}

// handleChat serves a full chat conversation, buffered by default or as an
// SSE stream when the request sets stream=true.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		relayRequestsTotal.WithLabelValues("buffered", "rejected").Inc()
		api.BadRequest(w, "invalid JSON body: "+err.Error(), r.URL.Path)
		return
	}

	if req.Stream {
		h.streamChat(w, r, req)
		return
	}

	resp, err := h.engine.Complete(r.Context(), req)
	if err != nil {
		relayRequestsTotal.WithLabelValues("buffered", outcomeFor(err)).Inc()
		api.WriteError(w, err, r.URL.Path)
		return
	}

	relayRequestsTotal.WithLabelValues("buffered", "ok").Inc()
	api.RespondJSON(w, http.StatusOK, ChatResponse{
		Response: resp.Content,
		Model:    resp.Model,
		Usage:    resp.Usage,
	})
}

// handleSimpleChat serves a one-shot prompt with no conversation history.
func (h *Handler) handleSimpleChat(w http.ResponseWriter, r *http.Request) {
	var req SimpleChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error(), r.URL.Path)
		return
	}
	if req.Prompt == "" {
		api.BadRequest(w, "prompt must not be empty", r.URL.Path)
		return
	}

	resp, err := h.engine.Complete(r.Context(), ChatRequest{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: req.Prompt}},
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		relayRequestsTotal.WithLabelValues("buffered", outcomeFor(err)).Inc()
		api.WriteError(w, err, r.URL.Path)
		return
	}

	relayRequestsTotal.WithLabelValues("buffered", "ok").Inc()
	api.RespondJSON(w, http.StatusOK, ChatResponse{
		Response: resp.Content,
		Model:    resp.Model,
	})
}

// handleHealth reports whether the configured backend is reachable.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	reporter, ok := h.provider.(llm.HealthReporter)
	if !ok {
		api.RespondJSON(w, http.StatusOK, map[string]string{
			"status":   "unknown",
			"provider": h.info.Provider,
		})
		return
	}

	if err := reporter.Heartbeat(r.Context()); err != nil {
		h.logger.Warn("backend heartbeat failed", zap.Error(err))
		api.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unreachable",
			"provider": h.info.Provider,
			"error":    err.Error(),
		})
		return
	}

	api.RespondJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"provider": h.info.Provider,
	})
}

// handleModels lists models available on the backend. Backends without
// model discovery report just the configured default.
func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	if reporter, ok := h.provider.(llm.HealthReporter); ok {
		models, err := reporter.ListModels(r.Context())
		if err != nil {
			api.WriteError(w, err, r.URL.Path)
			return
		}
		api.RespondJSON(w, http.StatusOK, map[string][]string{"models": models})
		return
	}
	api.RespondJSON(w, http.StatusOK, map[string][]string{"models": {h.info.Model}})
}

// handleConfig exposes the sanitized runtime configuration.
func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	api.RespondJSON(w, http.StatusOK, h.info)
}

// outcomeFor buckets an error for the request counter.
func outcomeFor(err error) string {
	if llm.IsInvalidRequestError(err) {
		return "rejected"
	}
	return "error"
}
