// Package llm selects and constructs the configured chat completion backend.
package llm

import (
	"fmt"

	"github.com/whuclubsynapse/synapse-ai/internal/llm/dashscope"
	"github.com/whuclubsynapse/synapse-ai/internal/llm/vllm"
	pkgllm "github.com/whuclubsynapse/synapse-ai/pkg/llm"
	"go.uber.org/zap"
)

// Config holds the backend selection with per-provider sub-configs.
type Config struct {
	Provider  string           `mapstructure:"provider"` // "vllm" (default) or "dashscope"
	VLLM      vllm.Config      `mapstructure:"vllm"`
	DashScope dashscope.Config `mapstructure:"dashscope"`
}

// DefaultConfig returns the default backend configuration.
func DefaultConfig() Config {
	return Config{
		Provider:  "vllm",
		VLLM:      vllm.DefaultConfig(),
		DashScope: dashscope.DefaultConfig(),
	}
}

// New creates the provider named by cfg.Provider.
func New(cfg Config, logger *zap.Logger) (pkgllm.Provider, error) {
	switch cfg.Provider {
	case "vllm", "":
		return vllm.New(cfg.VLLM, logger)

	case "dashscope":
		return dashscope.New(cfg.DashScope, logger)

	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
