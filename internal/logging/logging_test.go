package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Output: &buf, Enabled: true})

	l.Info("hidden")
	l.Warn("shown", "frame", 7)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "frame=7") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestDisabledLoggerDiscards(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Output: &buf, Enabled: false})
	l.Error("dropped")
	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}
}

func TestWithJobAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Output: &buf, Enabled: true}).WithJob("abc", "/media/clip.mp4")
	l.Info("opened")

	out := buf.String()
	if !strings.Contains(out, "job=abc") || !strings.Contains(out, "media=clip.mp4") {
		t.Errorf("job attributes missing: %q", out)
	}
}

func TestSetupFile(t *testing.T) {
	prev := Global()
	defer SetGlobal(prev)

	dir := t.TempDir()
	f, err := SetupFile(dir, true)
	if err != nil {
		t.Fatalf("SetupFile() error = %v", err)
	}
	Debug("debug record")
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(f.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "debug record") {
		t.Errorf("log file missing debug record: %q", data)
	}
}
