package transcode

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

// stubTranscoder writes an executable shell script standing in for the
// transcoder binary. The script lives outside the directory watched for
// temp-file leaks.
func stubTranscoder(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing transcoder stub: %v", err)
	}
	return path
}

// tempLeaks returns the names left behind in the scratch directory.
func tempLeaks(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading scratch dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestTranscodeVideo_FailureSurfacesStderrAndCleansUp(t *testing.T) {
	bin := stubTranscoder(t, "#!/bin/sh\necho boom >&2\nexit 1\n")

	scratch := t.TempDir()
	t.Setenv("TMPDIR", scratch)

	svc := NewService(nil, nil, bin, time.Minute, zap.NewNop())
	_, err := svc.transcodeVideo(context.Background(), []byte("not a video"), "mp4", "mp4", 500)
	if err == nil {
		t.Fatal("transcodeVideo() error = nil, want failure")
	}
	if !strings.Contains(err.Error(), "exit code 1") {
		t.Errorf("error = %v, want exit code 1", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error = %v, want transcoder stderr", err)
	}

	if leaks := tempLeaks(t, scratch); len(leaks) != 0 {
		t.Errorf("temp files left after failure: %v", leaks)
	}
}

func TestTranscodeVideo_TimeoutKillsAndCleansUp(t *testing.T) {
	bin := stubTranscoder(t, "#!/bin/sh\nsleep 30\n")

	scratch := t.TempDir()
	t.Setenv("TMPDIR", scratch)

	svc := NewService(nil, nil, bin, 100*time.Millisecond, zap.NewNop())

	start := time.Now()
	_, err := svc.transcodeVideo(context.Background(), []byte("not a video"), "mp4", "mp4", 500)
	if err == nil {
		t.Fatal("transcodeVideo() error = nil, want timeout failure")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("transcoder not killed on timeout, took %v", elapsed)
	}

	if leaks := tempLeaks(t, scratch); len(leaks) != 0 {
		t.Errorf("temp files left after timeout: %v", leaks)
	}
}

func TestTranscodeVideo_SuccessReadsOutput(t *testing.T) {
	// The stub writes a marker to the output path, which is the last
	// argument of the invocation.
	bin := stubTranscoder(t, "#!/bin/sh\nfor out in \"$@\"; do :; done\nprintf transcoded > \"$out\"\n")

	scratch := t.TempDir()
	t.Setenv("TMPDIR", scratch)

	svc := NewService(nil, nil, bin, time.Minute, zap.NewNop())
	got, err := svc.transcodeVideo(context.Background(), []byte("raw frames"), "mov", "mp4", 500)
	if err != nil {
		t.Fatalf("transcodeVideo() error = %v", err)
	}
	if string(got) != "transcoded" {
		t.Errorf("output = %q, want %q", got, "transcoded")
	}

	if leaks := tempLeaks(t, scratch); len(leaks) != 0 {
		t.Errorf("temp files left after success: %v", leaks)
	}
}
