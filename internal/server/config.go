package server

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	EnableCORS     bool     `mapstructure:"enable_cors"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.enable_cors", true)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 50.0)
	v.SetDefault("server.rate_limit_burst", 100)

	v.SetDefault("llm.provider", "vllm")
	v.SetDefault("llm.vllm.url", "http://localhost:8000")
	v.SetDefault("llm.vllm.model", "Qwen/Qwen2.5-7B-Instruct")
	v.SetDefault("llm.vllm.timeout", "120s")
	v.SetDefault("llm.dashscope.base_url", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("llm.dashscope.model", "qwen-plus")
	v.SetDefault("llm.dashscope.api_key", "")
	v.SetDefault("llm.dashscope.timeout", "120s")

	v.SetDefault("chat.max_tokens", 1024)
	v.SetDefault("chat.temperature", 0.7)
	v.SetDefault("chat.top_p", 0.9)
	v.SetDefault("chat.system_prompt", "You are a helpful assistant.")

	v.SetDefault("ledger.path", "./data/ledgers.json")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("synapse")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/synapse")
	}

	// Environment variable support: SYNAPSE_LLM_DASHSCOPE_API_KEY=sk-...
	v.SetEnvPrefix("SYNAPSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}
