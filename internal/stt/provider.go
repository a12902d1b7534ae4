// Package stt holds the speech-to-text backends. Every backend turns an audio
// file on disk into text and reports failures as *TranscriptionError.
package stt

import (
	"context"
	"fmt"
)

// Result holds the transcription output.
type Result struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	Backend  string `json:"backend"`
}

// Transcriber is the interface for speech-to-text backends.
// An empty language asks the backend to detect it.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath, language string) (*Result, error)
	Name() string
}

// TranscriptionError wraps any backend failure.
type TranscriptionError struct {
	Backend string
	Err     error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("%s transcription failed: %v", e.Backend, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

func languageOrAuto(language string) string {
	if language == "" {
		return "auto"
	}
	return language
}
