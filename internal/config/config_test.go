package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"SERVER_PORT", "WHISPER_MODEL_SIZE", "OPENAI_WHISPER_MODEL", "OPENAI_API_KEY",
		"TEMP_AUDIO_DIR", "DOWNLOAD_TIMEOUT", "REDIS_ADDR", "LOG_LEVEL",
		"WHISPER_BIN", "WHISPER_SERVER_PORT", "WHISPER_SERVER_URL", "WHISPER_START_TIMEOUT",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("expected addr 0.0.0.0:8080, got %q", cfg.Addr())
	}
	if cfg.Whisper.ModelSize != "base" {
		t.Errorf("expected model size base, got %q", cfg.Whisper.ModelSize)
	}
	if cfg.OpenAI.Model != "whisper-1" {
		t.Errorf("expected openai model whisper-1, got %q", cfg.OpenAI.Model)
	}
	if cfg.Fetcher.Timeout != 1200*time.Second {
		t.Errorf("expected download timeout 1200s, got %v", cfg.Fetcher.Timeout)
	}
	if cfg.Fetcher.Retries != 10 {
		t.Errorf("expected 10 retries, got %d", cfg.Fetcher.Retries)
	}
	if cfg.Fetcher.SocketTimeout != 60*time.Second {
		t.Errorf("expected socket timeout 60s, got %v", cfg.Fetcher.SocketTimeout)
	}
	if cfg.Fetcher.TempDir != "temp_audio_files" {
		t.Errorf("expected temp dir temp_audio_files, got %q", cfg.Fetcher.TempDir)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("expected cache disabled by default, got addr %q", cfg.Redis.Addr)
	}
	if cfg.Whisper.BinaryPath != "whisper-server" || cfg.Whisper.ServerPort != 8178 {
		t.Errorf("unexpected whisper server defaults %q:%d", cfg.Whisper.BinaryPath, cfg.Whisper.ServerPort)
	}
	if cfg.Whisper.ServerURL != "" {
		t.Errorf("expected a managed whisper server by default, got %q", cfg.Whisper.ServerURL)
	}
	if cfg.Whisper.StartTimeout != 2*time.Minute {
		t.Errorf("expected 2m start timeout, got %v", cfg.Whisper.StartTimeout)
	}
	if cfg.Log.Level != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.Log.Level)
	}
}

func TestLoad_UnsupportedModelSizeFallsBack(t *testing.T) {
	t.Setenv("WHISPER_MODEL_SIZE", "gigantic")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unsupported model size must not fail startup: %v", err)
	}
	if cfg.Whisper.ModelSize != DefaultModelSize {
		t.Errorf("expected fallback to %q, got %q", DefaultModelSize, cfg.Whisper.ModelSize)
	}
}

func TestResolveModelSize(t *testing.T) {
	tests := map[string]string{
		"tiny":           "tiny",
		"large-v3-turbo": "large-v3-turbo",
		"turbo":          "turbo",
		"medium.en":      "medium.en",
		"":               "base",
		"LARGE":          "base",
		"xl":             "base",
	}
	for in, want := range tests {
		if got := ResolveModelSize(in); got != want {
			t.Errorf("ResolveModelSize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("OPENAI_WHISPER_MODEL", "gpt-4o-transcribe")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TRANSCRIPT_CACHE_TTL", "2h")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.OpenAI.Model != "gpt-4o-transcribe" {
		t.Errorf("unexpected model %q", cfg.OpenAI.Model)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Redis.CacheTTL != 2*time.Hour {
		t.Errorf("expected ttl 2h, got %v", cfg.Redis.CacheTTL)
	}
	if cfg.Log.Level != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.Log.Level)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"SERVER_PORT":      "eighty",
		"DOWNLOAD_TIMEOUT": "soon",
		"REDIS_DB":         "x",
		"LOG_LEVEL":        "loud",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, val)
			}
		})
	}
}
