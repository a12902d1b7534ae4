package fetcher

import (
	"fmt"
	"net/url"
	"strings"
)

const watchURL = "https://www.youtube.com/watch?v="

// CleanURL strips playlist, tracking and timestamp parameters so the downloader
// targets the canonical video. URLs without a recognizable video id are
// returned unchanged.
func CleanURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	if id := u.Query().Get("v"); id != "" {
		return watchURL + id
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.Trim(u.Path, "/")
	switch {
	case host == "youtu.be" && path != "" && !strings.Contains(path, "/"):
		return watchURL + path
	case strings.HasSuffix(host, "youtube.com") && strings.HasPrefix(path, "shorts/"):
		if id := strings.TrimPrefix(path, "shorts/"); id != "" && !strings.Contains(id, "/") {
			return watchURL + id
		}
	}
	return raw
}

// ValidateURL reports whether raw is an absolute http(s) URL with a host.
func ValidateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url: missing host")
	}
	return nil
}

// Truncate shortens s for log lines.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
