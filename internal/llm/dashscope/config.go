package dashscope

import "time"

// Config holds settings for the DashScope (Tongyi) cloud backend, reached
// through its OpenAI-compatible endpoint.
type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns the default DashScope configuration.
// The API key has no default; it comes from config or SYNAPSE_LLM_DASHSCOPE_API_KEY.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Model:   "qwen-plus",
		Timeout: 120 * time.Second,
	}
}
