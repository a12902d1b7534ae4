package stt

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestOpenAI(ts *httptest.Server, key string) *OpenAIWhisper {
	return NewOpenAIWhisper(OpenAIWhisperConfig{
		APIKey:  key,
		BaseURL: ts.URL + "/v1",
	})
}

func TestOpenAIWhisper_Success(t *testing.T) {
	var gotLanguage, gotModel, gotAuth string
	var hadLanguage bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotAuth = r.Header.Get("Authorization")
		gotModel = r.FormValue("model")
		_, hadLanguage = r.MultipartForm.Value["language"]
		gotLanguage = r.FormValue("language")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"hello from the api"}`))
	}))
	defer ts.Close()

	audio := filepath.Join(t.TempDir(), "clip.m4a")
	if err := os.WriteFile(audio, []byte("fake audio"), 0644); err != nil {
		t.Fatal(err)
	}

	o := newTestOpenAI(ts, "sk-test")
	res, err := o.Transcribe(context.Background(), audio, "de")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "hello from the api" {
		t.Errorf("unexpected text %q", res.Text)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if gotModel != "whisper-1" {
		t.Errorf("expected default model whisper-1, got %q", gotModel)
	}
	if gotLanguage != "de" {
		t.Errorf("expected language de, got %q", gotLanguage)
	}

	if _, err := o.Transcribe(context.Background(), audio, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hadLanguage {
		t.Error("language must not be sent when omitted")
	}
}

func TestOpenAIWhisper_MissingKey(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	_, err := newTestOpenAI(ts, "").Transcribe(context.Background(), "clip.m4a", "")
	var tErr *TranscriptionError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TranscriptionError, got %v", err)
	}
	if !strings.Contains(err.Error(), "API key not configured") {
		t.Errorf("unexpected message %v", err)
	}
	if called {
		t.Error("no request should be made without an API key")
	}
}

func TestOpenAIWhisper_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer ts.Close()

	audio := filepath.Join(t.TempDir(), "clip.m4a")
	os.WriteFile(audio, []byte("fake audio"), 0644)

	_, err := newTestOpenAI(ts, "sk-bad").Transcribe(context.Background(), audio, "")
	var tErr *TranscriptionError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TranscriptionError, got %v", err)
	}
	if !strings.Contains(err.Error(), "authentication failed") {
		t.Errorf("expected authentication failure, got %v", err)
	}
}

func TestOpenAIWhisper_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`upstream exploded`))
	}))
	defer ts.Close()

	audio := filepath.Join(t.TempDir(), "clip.m4a")
	os.WriteFile(audio, []byte("fake audio"), 0644)

	_, err := newTestOpenAI(ts, "sk-test").Transcribe(context.Background(), audio, "")
	var tErr *TranscriptionError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TranscriptionError, got %v", err)
	}
	if tErr.Backend != "openai-whisper" {
		t.Errorf("unexpected backend %q", tErr.Backend)
	}
}
