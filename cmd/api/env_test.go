package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLoadEnvFile_Missing(t *testing.T) {
	logs := captureLogs(t)
	loadEnvFile(filepath.Join(t.TempDir(), ".env"))

	if !strings.Contains(logs.String(), "no .env file found") {
		t.Errorf("expected missing-file message, got %s", logs)
	}
}

func TestLoadEnvFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("OPENAI_API_KEY=\"unterminated\n"), 0644); err != nil {
		t.Fatal(err)
	}
	logs := captureLogs(t)
	loadEnvFile(path)

	out := logs.String()
	if strings.Contains(out, "no .env file found") {
		t.Errorf("a broken file must not be reported as missing: %s", out)
	}
	if !strings.Contains(out, `"level":"WARN"`) || !strings.Contains(out, "failed to load .env file") {
		t.Errorf("expected a warning with the parse error, got %s", out)
	}
}

func TestLoadEnvFile_SetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("YTT_ENV_FILE_TEST=loaded\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("YTT_ENV_FILE_TEST", "")
	os.Unsetenv("YTT_ENV_FILE_TEST")
	captureLogs(t)
	loadEnvFile(path)

	if got := os.Getenv("YTT_ENV_FILE_TEST"); got != "loaded" {
		t.Errorf("expected variable from file, got %q", got)
	}
}
