package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nikhilbhutani/yttranscriber/internal/media"
)

// inferencePath is where the whisper.cpp server is told to accept uploads, so
// that go-openai's CreateTranscription reaches it unchanged.
const inferencePath = "/v1/audio/transcriptions"

// LocalWhisperConfig holds configuration for the local whisper.cpp backend.
type LocalWhisperConfig struct {
	BinaryPath   string // default: "whisper-server"
	ModelsDir    string // directory holding ggml-<size>.bin files
	ModelSize    string // already validated by config
	Threads      int    // 0 = whisper default
	Host         string // default: "127.0.0.1"
	Port         int    // default: 8178
	ServerURL    string // an already running server; nothing is spawned when set
	StartTimeout time.Duration
	FFmpeg       *media.FFmpeg
}

// LocalWhisper transcribes with a whisper.cpp server that keeps the ggml model
// resident. The server is started and the model loaded once, in Load, and
// every request goes to it over its OpenAI-compatible endpoint.
// Inference calls are serialized.
type LocalWhisper struct {
	cfg    LocalWhisperConfig
	ffmpeg *media.FFmpeg

	once    sync.Once
	loadErr error
	client  atomic.Pointer[openai.Client]

	server    *exec.Cmd
	serverLog *tailBuffer
	exited    chan struct{}
	stopping  atomic.Bool
	closeOnce sync.Once

	mu sync.Mutex // one inference at a time
}

// NewLocalWhisper creates a LocalWhisper. Call Load before serving requests.
func NewLocalWhisper(cfg LocalWhisperConfig) *LocalWhisper {
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = "whisper-server"
	}
	if cfg.ModelSize == "" {
		cfg.ModelSize = "base"
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8178
	}
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = 2 * time.Minute
	}
	ff := cfg.FFmpeg
	if ff == nil {
		ff = media.NewFFmpeg("")
	}
	return &LocalWhisper{cfg: cfg, ffmpeg: ff}
}

func (l *LocalWhisper) Name() string { return "local-whisper" }

// ModelFile maps a model size to its ggml file name.
func ModelFile(size string) string {
	switch size {
	case "turbo":
		size = "large-v3-turbo"
	case "large":
		size = "large-v3"
	}
	return "ggml-" + size + ".bin"
}

// Load starts the whisper.cpp server with the configured model and waits until
// the model is in memory. It runs once; later calls return the first result.
func (l *LocalWhisper) Load() error {
	l.once.Do(func() {
		start := time.Now()
		slog.Info("loading whisper model", "size", l.cfg.ModelSize)

		if err := l.ffmpeg.CheckInstalled(); err != nil {
			l.loadErr = err
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), l.cfg.StartTimeout)
		defer cancel()

		baseURL := strings.TrimRight(l.cfg.ServerURL, "/")
		if baseURL == "" {
			model, err := l.modelPath()
			if err != nil {
				l.loadErr = err
				return
			}
			if err := l.startServer(model); err != nil {
				l.loadErr = err
				return
			}
			baseURL = "http://" + net.JoinHostPort(l.cfg.Host, strconv.Itoa(l.cfg.Port))
		}

		if err := l.waitReady(ctx, baseURL); err != nil {
			l.Close()
			l.loadErr = err
			return
		}

		oc := openai.DefaultConfig("")
		oc.BaseURL = baseURL + "/v1"
		l.client.Store(openai.NewClientWithConfig(oc))

		slog.Info("whisper model loaded",
			"size", l.cfg.ModelSize,
			"server", baseURL,
			"load_seconds", fmt.Sprintf("%.2f", time.Since(start).Seconds()))
	})
	return l.loadErr
}

// Loaded reports whether Load succeeded.
func (l *LocalWhisper) Loaded() bool {
	return l.client.Load() != nil
}

// Close stops the server started by Load, if any.
func (l *LocalWhisper) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.server == nil {
			return
		}
		l.stopping.Store(true)
		if kerr := l.server.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
			err = kerr
			return
		}
		<-l.exited
	})
	return err
}

func (l *LocalWhisper) modelPath() (string, error) {
	if _, err := exec.LookPath(l.cfg.BinaryPath); err != nil {
		return "", fmt.Errorf("whisper server binary not found at %q: %w", l.cfg.BinaryPath, err)
	}
	path := filepath.Join(l.cfg.ModelsDir, ModelFile(l.cfg.ModelSize))
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("whisper model not found at %q: %w", path, err)
	}
	if info.IsDir() || info.Size() == 0 {
		return "", fmt.Errorf("whisper model at %q is not a model file", path)
	}
	return path, nil
}

func (l *LocalWhisper) startServer(model string) error {
	l.serverLog = &tailBuffer{max: 4096}
	cmd := exec.Command(l.cfg.BinaryPath, l.serverArgs(model)...)
	cmd.Stdout = l.serverLog
	cmd.Stderr = l.serverLog
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start whisper server: %w", err)
	}

	l.server = cmd
	l.exited = make(chan struct{})
	go func() {
		err := cmd.Wait()
		if !l.stopping.Load() {
			slog.Error("whisper server exited", "error", err, "output", l.serverLog.String())
		}
		close(l.exited)
	}()
	return nil
}

// serverArgs constructs the whisper-server arguments. "-l auto" makes the
// model identify the language unless a request names one.
func (l *LocalWhisper) serverArgs(model string) []string {
	args := []string{
		"-m", model,
		"--host", l.cfg.Host,
		"--port", strconv.Itoa(l.cfg.Port),
		"--inference-path", inferencePath,
		"-l", "auto",
	}
	if l.cfg.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(l.cfg.Threads))
	}
	return args
}

// waitReady polls the server's health endpoint until the model is loaded.
// whisper.cpp answers 503 while loading; builds without /health only start
// listening once the model is in memory.
func (l *LocalWhisper) waitReady(ctx context.Context, baseURL string) error {
	probe := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
		if err != nil {
			return fmt.Errorf("whisper server health request: %w", err)
		}
		if resp, err := probe.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode < http.StatusInternalServerError {
				return nil
			}
		}

		select {
		case <-l.exited:
			return fmt.Errorf("whisper server exited before the model loaded: %s", l.serverLog.String())
		case <-ctx.Done():
			return fmt.Errorf("whisper server not ready after %s", l.cfg.StartTimeout)
		case <-ticker.C:
		}
	}
}

func (l *LocalWhisper) Transcribe(ctx context.Context, filePath, language string) (*Result, error) {
	client := l.client.Load()
	if client == nil {
		return nil, &TranscriptionError{Backend: l.Name(), Err: errors.New("local whisper model not loaded")}
	}
	if _, err := os.Stat(filePath); err != nil {
		return nil, &TranscriptionError{Backend: l.Name(), Err: fmt.Errorf("open audio file: %w", err)}
	}

	slog.Info("starting local transcription", "file", filePath, "language", languageOrAuto(language))

	wav := filePath + ".wav"
	defer func() {
		if err := os.Remove(wav); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to remove converted audio", "path", wav, "error", err)
		}
	}()
	if err := l.ffmpeg.ToWhisperWAV(ctx, filePath, wav); err != nil {
		return nil, &TranscriptionError{Backend: l.Name(), Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	resp, err := client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: wav,
		Language: language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return nil, &TranscriptionError{Backend: l.Name(), Err: fmt.Errorf("whisper server error: %w", err)}
	}

	slog.Info("local transcription finished", "file", filePath, "elapsed", time.Since(start).String())
	lang := resp.Language
	if lang == "" {
		lang = language
	}
	return &Result{Text: joinLines(resp.Text), Language: lang, Backend: l.Name()}, nil
}

func joinLines(s string) string {
	var parts []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Write(p)
	if over := b.buf.Len() - b.max; over > 0 {
		b.buf.Next(over)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(b.buf.String())
}
