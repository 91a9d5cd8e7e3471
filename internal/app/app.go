package app

import (
	"fmt"
	"net/http"

	"roastnote/internal/config"
	"roastnote/internal/logger"
	"roastnote/internal/service"
	"roastnote/internal/transport/rest"
	"roastnote/internal/transport/ws"
)

type App struct {
	Config  *config.Config
	Content *config.Content
	Summary *service.SummaryService
	WSHub   *ws.Hub
	Handler http.Handler
}

// New wires the content, provider, service and router for cfg
func New(cfg *config.Config, log logger.Logger) (*App, error) {
	content, err := config.LoadContent(cfg.StyleGuidePath, cfg.InsidersPath)
	if err != nil {
		return nil, err
	}

	completer, err := NewCompleter(cfg.AI)
	if err != nil {
		return nil, err
	}

	summary := service.NewSummaryService(cfg.AI, content, completer, log)
	hub := ws.NewHub()

	handler := rest.NewRouter(&rest.Container{
		Summarizer:     summary,
		AllowedOrigins: cfg.AllowedOrigins,
		WSHub:          hub,
		Logger:         log,
	})

	return &App{
		Config:  cfg,
		Content: content,
		Summary: summary,
		WSHub:   hub,
		Handler: handler,
	}, nil
}

// NewCompleter returns the provider named by ai.Provider
func NewCompleter(ai *config.AIConfig) (service.Completer, error) {
	switch ai.Provider {
	case config.ProviderOpenAI, "":
		return service.NewOpenAIClient(ai, nil), nil
	case config.ProviderGemini:
		return service.NewGeminiClient(ai), nil
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", ai.Provider)
	}
}
