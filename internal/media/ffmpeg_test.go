package media

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeFakeScript(t *testing.T, dir, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake script: %v", err)
	}
	return path
}

func TestToWhisperWAV_Success(t *testing.T) {
	dir := t.TempDir()
	// last argument is the output path
	bin := writeFakeScript(t, dir, "ffmpeg", `#!/bin/sh
for last; do :; done
echo "$@" > "`+filepath.Join(dir, "args.txt")+`"
printf 'RIFF' > "$last"
`)
	out := filepath.Join(dir, "out.wav")

	if err := NewFFmpeg(bin).ToWhisperWAV(context.Background(), "in.m4a", out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	args, _ := os.ReadFile(filepath.Join(dir, "args.txt"))
	for _, want := range []string{"-i in.m4a", "-ar 16000", "-ac 1", "pcm_s16le"} {
		if !strings.Contains(string(args), want) {
			t.Errorf("expected %q in args: %s", want, args)
		}
	}
}

func TestToWhisperWAV_Failure(t *testing.T) {
	dir := t.TempDir()
	bin := writeFakeScript(t, dir, "ffmpeg", "#!/bin/sh\necho 'Invalid data found' >&2\nexit 1\n")

	err := NewFFmpeg(bin).ToWhisperWAV(context.Background(), "in.m4a", filepath.Join(dir, "out.wav"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Errorf("expected stderr in error, got %v", err)
	}
}

func TestCheckInstalled_Missing(t *testing.T) {
	if err := NewFFmpeg("/nonexistent/ffmpeg").CheckInstalled(); err == nil {
		t.Fatal("expected error for missing binary")
	}
}
