package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// AIConfig holds all model-provider configuration
type AIConfig struct {
	Provider  string `json:"provider"`
	APIKey    string `json:"-"` // Never serialize
	Model     string `json:"model"`
	BaseURL   string `json:"baseUrl"`
	TimeoutMS int    `json:"timeoutMs"`
}

// DefaultAIConfig returns the AI configuration read from the environment
func DefaultAIConfig() *AIConfig {
	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderOpenAI))

	cfg := &AIConfig{
		Provider:  provider,
		BaseURL:   strings.TrimRight(getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		TimeoutMS: getEnvInt("OPENAI_TIMEOUT_MS", 90000),
	}

	switch provider {
	case ProviderGemini:
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
		cfg.Model = getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash")
	default:
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		cfg.Model = getEnvOrDefault("OPENAI_MODEL", "gpt-5.1")
	}
	return cfg
}

// IsEnabled returns true if the provider API key is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// Timeout converts TimeoutMS to a duration
func (c *AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// ChatCompletionsURL returns the full chat completions endpoint
func (c *AIConfig) ChatCompletionsURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
