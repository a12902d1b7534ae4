// Package fetcher downloads the audio track of a video URL into a private
// temporary file using the yt-dlp command line tool.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds configuration for the yt-dlp fetcher.
type Config struct {
	BinaryPath    string        // default: "yt-dlp"
	TempDir       string        // required
	CookiesFile   string        // Netscape format; attached only when present
	Timeout       time.Duration // wall clock for the whole download, default 1200s
	SocketTimeout time.Duration // per attempt, default 60s
	Retries       int           // default 10
	UserAgent     string
}

// YTDLP fetches audio by running yt-dlp as a subprocess.
type YTDLP struct {
	cfg Config
}

// New creates a YTDLP fetcher and makes sure the temporary directory exists.
func New(cfg Config) (*YTDLP, error) {
	if cfg.TempDir == "" {
		return nil, fmt.Errorf("fetcher: temp dir is required")
	}
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = "yt-dlp"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 1200 * time.Second
	}
	if cfg.SocketTimeout <= 0 {
		cfg.SocketTimeout = 60 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 10
	}
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("fetcher: create temp dir: %w", err)
	}
	slog.Info("temporary audio directory ready", "dir", cfg.TempDir)
	return &YTDLP{cfg: cfg}, nil
}

// Fetch downloads the audio of rawURL. The caller owns the returned artifact
// and must remove it. On error nothing is left in the temp directory.
func (f *YTDLP) Fetch(ctx context.Context, rawURL string) (*Artifact, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, &DownloadError{Op: "validate", URL: rawURL, Err: err}
	}

	id := uuid.NewString()
	base := filepath.Join(f.cfg.TempDir, id)

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	args := f.buildArgs(base, rawURL)
	cmd := exec.CommandContext(ctx, f.cfg.BinaryPath, args...)
	killProcessGroup(cmd)
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Info("running yt-dlp", "url", Truncate(rawURL, 80), "id", id, "args", strings.Join(args, " "))
	start := time.Now()

	if err := cmd.Run(); err != nil {
		f.removePartial(id)
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			slog.Error("yt-dlp timed out", "url", Truncate(rawURL, 80), "timeout", f.cfg.Timeout)
			return nil, &DownloadError{Op: "download", URL: rawURL, Err: fmt.Errorf("download timed out after %s", f.cfg.Timeout)}
		case ctx.Err() != nil:
			return nil, &DownloadError{Op: "download", URL: rawURL, Err: ctx.Err()}
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		slog.Error("yt-dlp failed", "url", Truncate(rawURL, 80), "error", msg)
		return nil, &DownloadError{Op: "download", URL: rawURL, Err: fmt.Errorf("yt-dlp error: %s", tail(msg, 1000))}
	}

	slog.Debug("yt-dlp output", "stdout", tail(stdout.String(), 2000))

	art, err := f.locate(id, base)
	if err != nil {
		f.removePartial(id)
		return nil, &DownloadError{Op: "locate", URL: rawURL, Err: err}
	}

	slog.Info("audio download completed", "path", art.Path, "format", art.Format, "elapsed", time.Since(start).String())
	return art, nil
}

func (f *YTDLP) buildArgs(base, rawURL string) []string {
	args := []string{
		"--no-warnings",
		"--no-playlist",
		"--format", "bestaudio[ext=m4a]/bestaudio",
		"--extract-audio",
		"--audio-format", string(FormatM4A),
		"--output", base + ".%(ext)s",
		"--socket-timeout", strconv.Itoa(int(f.cfg.SocketTimeout.Seconds())),
		"--retries", strconv.Itoa(f.cfg.Retries),
	}
	if f.cfg.UserAgent != "" {
		args = append(args, "--user-agent", f.cfg.UserAgent)
	}
	if f.cookiesAvailable() {
		args = append(args, "--cookies", f.cfg.CookiesFile)
	}
	return append(args, rawURL)
}

func (f *YTDLP) cookiesAvailable() bool {
	if f.cfg.CookiesFile == "" {
		return false
	}
	info, err := os.Stat(f.cfg.CookiesFile)
	return err == nil && !info.IsDir()
}

// locate finds the file yt-dlp produced, preferring m4a.
func (f *YTDLP) locate(id, base string) (*Artifact, error) {
	for _, format := range probeOrder {
		path := base + "." + string(format)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.Size() == 0 {
			return nil, fmt.Errorf("downloaded audio file is empty: %s", filepath.Base(path))
		}
		return &Artifact{ID: id, Path: path, Format: format}, nil
	}
	return nil, fmt.Errorf("downloaded audio file not found for: %s", id)
}

// removePartial deletes every file yt-dlp may have left for id
// (.part, .ytdl, intermediate formats).
func (f *YTDLP) removePartial(id string) {
	entries, err := os.ReadDir(f.cfg.TempDir)
	if err != nil {
		slog.Warn("could not list temp dir for cleanup", "dir", f.cfg.TempDir, "error", err)
		return
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), id) {
			continue
		}
		path := filepath.Join(f.cfg.TempDir, e.Name())
		if err := os.Remove(path); err != nil {
			slog.Warn("failed to remove partial download", "path", path, "error", err)
			continue
		}
		slog.Info("removed partial download", "path", path)
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
