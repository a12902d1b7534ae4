// Package testutil provides in-memory stand-ins for the fetcher, the
// transcription backends and the transcript cache.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/yttranscriber/internal/cache"
	"github.com/nikhilbhutani/yttranscriber/internal/fetcher"
	"github.com/nikhilbhutani/yttranscriber/internal/stt"
)

// FileFetcher writes "audio:<url>" to a uniquely named file in Dir.
type FileFetcher struct {
	Dir      string
	FailWith error

	mu    sync.Mutex
	urls  []string
	paths []string
}

func (f *FileFetcher) Fetch(ctx context.Context, rawURL string) (*fetcher.Artifact, error) {
	f.mu.Lock()
	f.urls = append(f.urls, rawURL)
	f.mu.Unlock()

	if f.FailWith != nil {
		return nil, f.FailWith
	}

	id := uuid.NewString()
	path := filepath.Join(f.Dir, id+".m4a")
	if err := os.WriteFile(path, []byte("audio:"+rawURL), 0o644); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()
	return &fetcher.Artifact{ID: id, Path: path, Format: fetcher.FormatM4A}, nil
}

// URLs returns the URLs passed to Fetch.
func (f *FileFetcher) URLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

// Paths returns every artifact path that was created.
func (f *FileFetcher) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

// Call records one Transcribe invocation.
type Call struct {
	FilePath string
	Language string
}

// EchoBackend returns "transcript of <file contents>" so results can be
// matched to the request that produced them.
type EchoBackend struct {
	BackendName string
	FailWith    error

	mu    sync.Mutex
	calls []Call
}

func (b *EchoBackend) Name() string {
	if b.BackendName == "" {
		return "echo"
	}
	return b.BackendName
}

func (b *EchoBackend) Transcribe(ctx context.Context, filePath, language string) (*stt.Result, error) {
	b.mu.Lock()
	b.calls = append(b.calls, Call{FilePath: filePath, Language: language})
	b.mu.Unlock()

	if b.FailWith != nil {
		return nil, b.FailWith
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, &stt.TranscriptionError{Backend: b.Name(), Err: err}
	}
	return &stt.Result{Text: fmt.Sprintf("transcript of %s", data), Language: language, Backend: b.Name()}, nil
}

// Calls returns the recorded invocations.
func (b *EchoBackend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// MemoryCache is a map-backed transcript cache.
type MemoryCache struct {
	GetErr error

	mu      sync.Mutex
	entries map[string]*cache.Entry
}

func (c *MemoryCache) Get(ctx context.Context, key string) (*cache.Entry, error) {
	if c.GetErr != nil {
		return nil, c.GetErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key], nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, e *cache.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]*cache.Entry)
	}
	c.entries[key] = e
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Files lists the names in dir, failing the test on error.
func Files(t interface {
	Helper()
	Fatalf(string, ...any)
}, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
