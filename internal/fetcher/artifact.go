package fetcher

import (
	"errors"
	"io/fs"
	"os"
)

// Format is the container/codec extension of a downloaded audio file.
type Format string

const (
	FormatM4A  Format = "m4a"
	FormatMP3  Format = "mp3"
	FormatWebM Format = "webm"
	FormatOpus Format = "opus"
)

// probeOrder is the order in which output files are looked up after a download.
var probeOrder = []Format{FormatM4A, FormatMP3, FormatWebM, FormatOpus}

// Artifact is a temporary audio file owned by a single request.
type Artifact struct {
	ID     string
	Path   string
	Format Format
}

// Remove deletes the artifact from disk. Removing an artifact that no longer
// exists is not an error.
func (a *Artifact) Remove() error {
	if a == nil || a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
