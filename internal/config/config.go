package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort       string
	AllowedOrigins []string
	LogLevel       string
	StyleGuidePath string
	InsidersPath   string
	AI             *AIConfig
}

func Load() *Config {
	port := getEnv("SERVER_PORT", "")
	if port == "" {
		port = getEnv("PORT", "5005")
	}

	return &Config{
		HTTPPort:       port,
		AllowedOrigins: splitList(os.Getenv("FRONTEND_ORIGIN")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StyleGuidePath: getEnv("STYLE_GUIDE_PATH", "summary_prompt.md"),
		InsidersPath:   getEnv("INSIDERS_PATH", "insiders.json"),
		AI:             DefaultAIConfig(),
	}
}

// LoadEnvFiles loads KEY=VALUE files into the environment. Variables that are
// already set win, and missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
