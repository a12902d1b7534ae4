package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/yttranscriber/internal/api"
	"github.com/nikhilbhutani/yttranscriber/internal/api/handlers"
	"github.com/nikhilbhutani/yttranscriber/internal/cache"
	"github.com/nikhilbhutani/yttranscriber/internal/config"
	"github.com/nikhilbhutani/yttranscriber/internal/fetcher"
	"github.com/nikhilbhutani/yttranscriber/internal/media"
	"github.com/nikhilbhutani/yttranscriber/internal/stt"
	"github.com/nikhilbhutani/yttranscriber/internal/transcribe"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	loadEnvFile(".env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.Level}))
	slog.SetDefault(logger)

	ctx := context.Background()

	f, err := fetcher.New(fetcher.Config{
		BinaryPath:    cfg.Fetcher.BinaryPath,
		TempDir:       cfg.Fetcher.TempDir,
		CookiesFile:   cfg.Fetcher.CookiesFile,
		Timeout:       cfg.Fetcher.Timeout,
		SocketTimeout: cfg.Fetcher.SocketTimeout,
		Retries:       cfg.Fetcher.Retries,
		UserAgent:     cfg.Fetcher.UserAgent,
	})
	if err != nil {
		slog.Error("failed to initialize fetcher", "error", err)
		os.Exit(1)
	}

	// Local model is loaded once here; a failed load only disables /api/v1.
	local := stt.NewLocalWhisper(stt.LocalWhisperConfig{
		BinaryPath:   cfg.Whisper.BinaryPath,
		ModelsDir:    cfg.Whisper.ModelsDir,
		ModelSize:    cfg.Whisper.ModelSize,
		Threads:      cfg.Whisper.Threads,
		Host:         cfg.Whisper.ServerHost,
		Port:         cfg.Whisper.ServerPort,
		ServerURL:    cfg.Whisper.ServerURL,
		StartTimeout: cfg.Whisper.StartTimeout,
		FFmpeg:       media.NewFFmpeg(cfg.Whisper.FFmpegPath),
	})
	if err := local.Load(); err != nil {
		slog.Error("failed to load local whisper model", "size", cfg.Whisper.ModelSize, "error", err)
	}
	defer local.Close()

	remote := stt.NewOpenAIWhisper(stt.OpenAIWhisperConfig{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
		Timeout: cfg.OpenAI.Timeout,
	})
	if cfg.OpenAI.APIKey == "" {
		slog.Warn("OPENAI_API_KEY not set, /api/v2/transcribe will fail")
	}

	checks := map[string]handlers.CheckFunc{
		"local_model": func(context.Context) error {
			if !local.Loaded() {
				return errors.New("local whisper model not loaded")
			}
			return nil
		},
	}

	// Transcript cache (optional)
	var tc transcribe.Cache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		c := cache.NewTranscriptCache(rdb, cfg.Redis.CacheTTL)
		if err := c.Ping(ctx); err != nil {
			slog.Warn("redis unavailable, transcript cache lookups will fail", "error", err)
		}
		tc = c
		checks["redis"] = c.Ping
	}

	router := api.NewRouter(
		transcribe.NewService(f, local, tc),
		transcribe.NewService(f, remote, tc),
		checks,
		cfg.Server.AllowedOrigins,
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
