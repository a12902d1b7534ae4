// Package media wraps ffmpeg for the audio conversions the local model needs.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// FFmpeg runs the ffmpeg binary.
type FFmpeg struct {
	path string
}

// NewFFmpeg creates an FFmpeg wrapper. An empty path means "ffmpeg" from PATH.
func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path}
}

// Path returns the ffmpeg executable path.
func (f *FFmpeg) Path() string { return f.path }

// CheckInstalled verifies ffmpeg can be resolved.
func (f *FFmpeg) CheckInstalled() error {
	if _, err := exec.LookPath(f.path); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", f.path, err)
	}
	return nil
}

// ToWhisperWAV converts any audio input to 16 kHz mono 16-bit PCM WAV.
func (f *FFmpeg) ToWhisperWAV(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-i", inputPath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-acodec", "pcm_s16le",
		"-y",
		outputPath,
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.path, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg wav conversion failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
