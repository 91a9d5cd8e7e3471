package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"roastnote/internal/config"
	"roastnote/internal/logger"
	"roastnote/internal/service"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		HTTPPort:       "0",
		StyleGuidePath: filepath.Join(dir, "summary_prompt.md"),
		InsidersPath:   filepath.Join(dir, "insiders.json"),
		AI:             &config.AIConfig{Provider: config.ProviderOpenAI, TimeoutMS: 1000},
	}
}

func TestNewCompleter(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  bool
		check    func(service.Completer) bool
	}{
		{config.ProviderOpenAI, false, func(c service.Completer) bool { _, ok := c.(*service.OpenAIClient); return ok }},
		{"", false, func(c service.Completer) bool { _, ok := c.(*service.OpenAIClient); return ok }},
		{config.ProviderGemini, false, func(c service.Completer) bool { _, ok := c.(*service.GeminiClient); return ok }},
		{"claude", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			c, err := NewCompleter(&config.AIConfig{Provider: tt.provider})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewCompleter() error = %v", err)
			}
			if !tt.check(c) {
				t.Errorf("unexpected completer %T", c)
			}
		})
	}
}

func TestNewServesHealth(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "insiders.json"), []byte(`[{"raw":"I snore"}]`), 0o600)

	a, err := New(testConfig(dir), logger.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(a.Content.Insiders) != 1 || a.Content.Insiders[0].Normalized != "she snore" {
		t.Errorf("unexpected insiders %+v", a.Content.Insiders)
	}

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestNewFailsOnMalformedInsiders(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "insiders.json"), []byte(`[{"raw":`), 0o600)

	if _, err := New(testConfig(dir), logger.Nop()); err == nil {
		t.Fatal("expected startup error")
	}
}
