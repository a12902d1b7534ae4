package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is a cached transcript.
type Entry struct {
	Text      string    `json:"text"`
	Language  string    `json:"language,omitempty"`
	Backend   string    `json:"backend"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptCache stores finished transcripts in Redis.
type TranscriptCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTranscriptCache(client *redis.Client, ttl time.Duration) *TranscriptCache {
	return &TranscriptCache{client: client, ttl: ttl}
}

// Key builds the cache key for a canonical video URL, backend and language.
func Key(backend, language, videoURL string) string {
	if language == "" {
		language = "auto"
	}
	return fmt.Sprintf("transcript:%s:%s:%s", backend, language, videoURL)
}

// Get returns the entry for key. A miss is (nil, nil).
func (c *TranscriptCache) Get(ctx context.Context, key string) (*Entry, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	var e Entry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		return nil, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return &e, nil
}

func (c *TranscriptCache) Set(ctx context.Context, key string, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *TranscriptCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
