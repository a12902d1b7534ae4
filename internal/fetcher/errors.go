package fetcher

import "fmt"

// DownloadError is returned for every failure to obtain audio for a URL.
type DownloadError struct {
	Op  string // "validate", "download", "locate"
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed (%s): %v", e.Op, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }
