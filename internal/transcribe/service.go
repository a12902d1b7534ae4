// Package transcribe runs the download-then-transcribe pipeline for a single
// request and guarantees the downloaded audio is removed on every exit path.
package transcribe

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nikhilbhutani/yttranscriber/internal/cache"
	"github.com/nikhilbhutani/yttranscriber/internal/fetcher"
	"github.com/nikhilbhutani/yttranscriber/internal/stt"
)

// Fetcher produces a private audio artifact for a video URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Artifact, error)
}

// Cache is the optional transcript cache.
type Cache interface {
	Get(ctx context.Context, key string) (*cache.Entry, error)
	Set(ctx context.Context, key string, e *cache.Entry) error
}

// Request is a validated transcription request.
type Request struct {
	YouTubeURL string
	Language   string // empty means auto-detect
}

// Service binds one fetcher to one transcription backend.
type Service struct {
	fetcher Fetcher
	backend stt.Transcriber
	cache   Cache
}

// NewService creates a pipeline. c may be nil to disable caching.
func NewService(f Fetcher, b stt.Transcriber, c Cache) *Service {
	return &Service{fetcher: f, backend: b, cache: c}
}

// Backend returns the name of the bound transcription backend.
func (s *Service) Backend() string { return s.backend.Name() }

// Run downloads the audio for req, transcribes it and removes the artifact.
// Errors are *fetcher.DownloadError or *stt.TranscriptionError.
func (s *Service) Run(ctx context.Context, req Request) (*stt.Result, error) {
	videoURL := fetcher.CleanURL(req.YouTubeURL)
	log := slog.With("backend", s.backend.Name(), "url", fetcher.Truncate(videoURL, 80))
	log.Info("cleaned video url", "language", req.Language)

	key := cache.Key(s.backend.Name(), req.Language, videoURL)
	if res := s.lookup(ctx, log, key); res != nil {
		return res, nil
	}

	log.Info("initiating download")
	art, err := s.fetcher.Fetch(ctx, videoURL)
	if err != nil {
		var dlErr *fetcher.DownloadError
		if !errors.As(err, &dlErr) {
			err = &fetcher.DownloadError{Op: "download", URL: videoURL, Err: err}
		}
		log.Error("audio download failed", "error", err)
		return nil, err
	}
	defer release(log, art)
	log.Info("audio download successful", "path", art.Path)

	res, err := s.backend.Transcribe(ctx, art.Path, req.Language)
	if err != nil {
		var tErr *stt.TranscriptionError
		if !errors.As(err, &tErr) {
			err = &stt.TranscriptionError{Backend: s.backend.Name(), Err: err}
		}
		log.Error("transcription failed", "error", err)
		return nil, err
	}
	log.Info("transcription successful", "chars", len(res.Text))

	s.store(ctx, log, key, res)
	return res, nil
}

// release deletes the artifact. A failure here is logged and never changes
// the outcome of the request.
func release(log *slog.Logger, art *fetcher.Artifact) {
	if err := art.Remove(); err != nil {
		log.Warn("failed to remove temporary file", "path", art.Path, "error", err)
		return
	}
	log.Info("temporary file removed", "path", art.Path)
}

func (s *Service) lookup(ctx context.Context, log *slog.Logger, key string) *stt.Result {
	if s.cache == nil {
		return nil
	}
	e, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn("transcript cache lookup failed", "error", err)
		return nil
	}
	if e == nil {
		return nil
	}
	log.Info("transcript cache hit", "cached_at", e.CreatedAt)
	return &stt.Result{Text: e.Text, Language: e.Language, Backend: e.Backend}
}

func (s *Service) store(ctx context.Context, log *slog.Logger, key string, res *stt.Result) {
	if s.cache == nil {
		return
	}
	e := &cache.Entry{Text: res.Text, Language: res.Language, Backend: res.Backend, CreatedAt: time.Now().UTC()}
	if err := s.cache.Set(ctx, key, e); err != nil {
		log.Warn("transcript cache store failed", "error", err)
	}
}
