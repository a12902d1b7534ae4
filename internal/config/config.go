package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultModelSize is used whenever WHISPER_MODEL_SIZE is unset or unsupported.
const DefaultModelSize = "base"

// ValidModelSizes lists the whisper model sizes the local backend accepts.
var ValidModelSizes = []string{
	"tiny.en", "tiny", "base.en", "base", "small.en", "small",
	"medium.en", "medium", "large-v1", "large-v2", "large-v3", "large",
	"large-v3-turbo", "turbo",
}

type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Fetcher FetcherConfig
	Whisper WhisperConfig
	OpenAI  OpenAIConfig
	Redis   RedisConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

type LogConfig struct {
	Level slog.Level
}

type FetcherConfig struct {
	BinaryPath    string // default: "yt-dlp"
	TempDir       string
	CookiesFile   string // used only when present on disk
	Timeout       time.Duration
	SocketTimeout time.Duration
	Retries       int
	UserAgent     string
}

type WhisperConfig struct {
	ModelSize    string
	BinaryPath   string // default: "whisper-server"
	ModelsDir    string
	Threads      int
	FFmpegPath   string
	ServerHost   string
	ServerPort   int
	ServerURL    string // use a running whisper.cpp server instead of starting one
	StartTimeout time.Duration
}

type OpenAIConfig struct {
	APIKey  string
	Model   string // default: "whisper-1"
	BaseURL string
	Timeout time.Duration
}

type RedisConfig struct {
	Addr     string // empty disables the transcript cache
	Password string
	DB       int
	CacheTTL time.Duration
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	writeTimeout, err := getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	downloadTimeout, err := getEnvDuration("DOWNLOAD_TIMEOUT", 1200*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid DOWNLOAD_TIMEOUT: %w", err)
	}

	threads, err := getEnvInt("WHISPER_THREADS", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid WHISPER_THREADS: %w", err)
	}

	whisperPort, err := getEnvInt("WHISPER_SERVER_PORT", 8178)
	if err != nil {
		return nil, fmt.Errorf("invalid WHISPER_SERVER_PORT: %w", err)
	}

	whisperStart, err := getEnvDuration("WHISPER_START_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid WHISPER_START_TIMEOUT: %w", err)
	}

	openaiTimeout, err := getEnvDuration("OPENAI_TIMEOUT", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid OPENAI_TIMEOUT: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cacheTTL, err := getEnvDuration("TRANSCRIPT_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid TRANSCRIPT_CACHE_TTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			WriteTimeout:   writeTimeout,
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		Log: LogConfig{
			Level: level,
		},
		Fetcher: FetcherConfig{
			BinaryPath:    getEnv("YTDLP_PATH", "yt-dlp"),
			TempDir:       getEnv("TEMP_AUDIO_DIR", "temp_audio_files"),
			CookiesFile:   getEnv("COOKIES_FILE", "cookies.txt"),
			Timeout:       downloadTimeout,
			SocketTimeout: 60 * time.Second,
			Retries:       10,
			UserAgent:     getEnv("YTDLP_USER_AGENT", defaultUserAgent),
		},
		Whisper: WhisperConfig{
			ModelSize:    ResolveModelSize(getEnv("WHISPER_MODEL_SIZE", DefaultModelSize)),
			BinaryPath:   getEnv("WHISPER_BIN", "whisper-server"),
			ModelsDir:    getEnv("WHISPER_MODELS_DIR", "models"),
			Threads:      threads,
			FFmpegPath:   getEnv("FFMPEG_PATH", "ffmpeg"),
			ServerHost:   getEnv("WHISPER_SERVER_HOST", "127.0.0.1"),
			ServerPort:   whisperPort,
			ServerURL:    getEnv("WHISPER_SERVER_URL", ""),
			StartTimeout: whisperStart,
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_WHISPER_MODEL", "whisper-1"),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
			Timeout: openaiTimeout,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			CacheTTL: cacheTTL,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ResolveModelSize returns size when it is supported and DefaultModelSize otherwise.
// An unsupported size is logged, never fatal.
func ResolveModelSize(size string) string {
	if slices.Contains(ValidModelSizes, size) {
		return size
	}
	slog.Error("invalid whisper model size, using default",
		"size", size, "default", DefaultModelSize, "valid", ValidModelSizes)
	return DefaultModelSize
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return l, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
