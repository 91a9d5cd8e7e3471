package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roastnote/internal/app"
	"roastnote/internal/config"
	"roastnote/internal/logger"
)

func main() {
	log.Println("started")

	if err := config.LoadEnvFiles(".env"); err != nil {
		log.Fatal("Failed to load .env:", err)
	}
	cfg := config.Load()
	appLog := logger.New(cfg.LogLevel)

	// Log AI settings
	log.Printf("AI Config:")
	log.Printf("  Provider:  %s", cfg.AI.Provider)
	log.Printf("  Model:     %s", cfg.AI.Model)
	log.Printf("  Timeout:   %dms", cfg.AI.TimeoutMS)
	if cfg.AI.IsEnabled() {
		log.Println("  API Key:   configured ✓")
	} else {
		log.Println("  API Key:   NOT SET (summaries will fail)")
	}

	a, err := app.New(cfg, appLog)
	if err != nil {
		log.Fatal("Failed to initialize:", err)
	}
	log.Printf("Loaded style guide (%d bytes) and %d insiders", len(a.Content.StyleGuide), len(a.Content.Insiders))
	if len(cfg.AllowedOrigins) == 0 {
		log.Println("Warning: FRONTEND_ORIGIN not set, allowing any origin")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server running on http://localhost:%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  GET  /api/health")
		log.Println("  POST /api/summarize")
		log.Println("  WS   /api/summarize/ws")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// websocket connections are hijacked, Shutdown does not see them
	a.WSHub.CloseAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
