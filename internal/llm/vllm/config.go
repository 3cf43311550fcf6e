package vllm

import "time"

// Config holds settings for the self-hosted vLLM backend.
type Config struct {
	URL     string        `mapstructure:"url"`     // base URL of the vLLM server
	Model   string        `mapstructure:"model"`   // default model when the request names none
	Timeout time.Duration `mapstructure:"timeout"` // wall-clock limit per upstream call
}

// DefaultConfig returns the default vLLM configuration.
func DefaultConfig() Config {
	return Config{
		URL:     "http://localhost:8000",
		Model:   "Qwen/Qwen2.5-7B-Instruct",
		Timeout: 120 * time.Second,
	}
}
