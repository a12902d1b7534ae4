package stt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIWhisperConfig holds configuration for the OpenAI transcription backend.
type OpenAIWhisperConfig struct {
	APIKey  string
	Model   string // default: "whisper-1"
	BaseURL string // default: go-openai's "https://api.openai.com/v1"
	Timeout time.Duration
}

// OpenAIWhisper transcribes audio using OpenAI's transcription API (or a compatible endpoint).
type OpenAIWhisper struct {
	cfg    OpenAIWhisperConfig
	client *openai.Client
}

// NewOpenAIWhisper creates an OpenAIWhisper with sensible defaults applied.
func NewOpenAIWhisper(cfg OpenAIWhisperConfig) *OpenAIWhisper {
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIWhisper{
		cfg:    cfg,
		client: openai.NewClientWithConfig(oc),
	}
}

func (o *OpenAIWhisper) Name() string { return "openai-whisper" }

// Transcribe uploads the file. The language field is only sent when set so the
// service falls back to its own detection.
func (o *OpenAIWhisper) Transcribe(ctx context.Context, filePath, language string) (*Result, error) {
	if o.cfg.APIKey == "" {
		slog.Error("OpenAI API key not found in environment variables")
		return nil, &TranscriptionError{Backend: o.Name(), Err: errors.New("OpenAI API key not configured")}
	}

	slog.Info("starting OpenAI transcription", "file", filePath, "model", o.cfg.Model, "language", languageOrAuto(language))
	start := time.Now()

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.cfg.Model,
		FilePath: filePath,
		Language: language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusUnauthorized {
			err = fmt.Errorf("authentication failed: %w", err)
		}
		slog.Error("OpenAI transcription failed", "file", filePath, "error", err)
		return nil, &TranscriptionError{Backend: o.Name(), Err: fmt.Errorf("OpenAI Whisper API error: %w", err)}
	}

	slog.Info("OpenAI transcription finished", "file", filePath, "elapsed", time.Since(start).String())
	return &Result{Text: resp.Text, Language: resp.Language, Backend: o.Name()}, nil
}
