package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENV", "PORT", "OBJECT_STORE", "LLM_PROVIDER", "RATE_LIMIT_AI_PER_MINUTE", "FEEDBACK_QUEUE_URL"} {
		t.Setenv(key, "")
	}
	chdir(t, t.TempDir())

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.ObjectStoreType != "local" {
		t.Fatalf("expected local store, got %q", cfg.ObjectStoreType)
	}
	if cfg.AIRateLimitPerMinute != 10 {
		t.Fatalf("expected default AI rate limit 10, got %d", cfg.AIRateLimitPerMinute)
	}
	if cfg.LLMProvider != "openai" {
		t.Fatalf("expected openai provider, got %q", cfg.LLMProvider)
	}
}

func TestLoadNormalizesValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENV", "PROD")
	t.Setenv("OBJECT_STORE", " S3 ")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("RATE_LIMIT_AI_PER_MINUTE", "nope")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "s3" {
		t.Fatalf("expected s3, got %q", cfg.ObjectStoreType)
	}
	if cfg.LLMProvider != "none" {
		t.Fatalf("expected unknown provider to map to none, got %q", cfg.LLMProvider)
	}
	if cfg.AIRateLimitPerMinute != 10 {
		t.Fatalf("expected invalid int to keep default, got %d", cfg.AIRateLimitPerMinute)
	}
	if len(cfg.CORSAllowOrigin) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowOrigin)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("LLM_MODEL", "")
	content := "# comment\nLLM_MODEL=\"gpt-4o-mini\"\nBROKEN_LINE\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg := Load()
	if cfg.LLMModel != "gpt-4o-mini" {
		t.Fatalf("expected model from .env, got %q", cfg.LLMModel)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir in Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}
