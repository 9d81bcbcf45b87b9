package reporter

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/five82/framescope/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ = []Reporter{NullReporter{}, &TerminalReporter{}, &JSONReporter{}, &CompositeReporter{}, &LogReporter{}}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestJSON() (*JSONReporter, *bytes.Buffer, *clock) {
	var buf bytes.Buffer
	c := &clock{t: time.Unix(1700000000, 0)}
	r := NewJSONReporterWithWriter(&buf)
	r.now = c.now
	return r, &buf, c
}

func decodeEvents(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var events []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var ev map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	return events
}

func TestJSONReporterEvents(t *testing.T) {
	r, buf, _ := newTestJSON()

	r.SourceInfo(SourceSummary{JobID: "abc", Frames: 40, SeekStrategy: "set"})
	r.TracksMapped(MapSummary{Direction: "reverse", Tracks: 2, Locations: 9})
	r.Error(ReporterError{Title: "Seek failed", Message: "frame 10"})

	events := decodeEvents(t, buf)
	require.Len(t, events, 3)

	assert.Equal(t, "source_info", events[0]["type"])
	assert.Equal(t, "abc", events[0]["job_id"])
	assert.EqualValues(t, 40, events[0]["frames"])
	assert.EqualValues(t, 1700000000, events[0]["timestamp"])

	assert.Equal(t, "tracks_mapped", events[1]["type"])
	assert.EqualValues(t, 9, events[1]["locations"])

	assert.Equal(t, "error", events[2]["type"])
	assert.Equal(t, "Seek failed", events[2]["title"])
}

func TestJSONReporterProgressThrottle(t *testing.T) {
	r, buf, c := newTestJSON()
	r.ExtractStarted(ExtractStartInfo{TotalFrames: 1000})

	steps := []struct {
		percent float32
		advance time.Duration
		emit    bool
	}{
		{0.1, 0, true},
		{0.5, time.Second, false},
		{1.0, time.Second, true},
		{1.2, 6 * time.Second, true},
		{1.4, time.Second, false},
		{100, 0, true},
	}

	for _, s := range steps {
		c.t = c.t.Add(s.advance)
		before := buf.Len()
		r.ExtractProgress(ProgressSnapshot{Percent: s.percent})
		if emitted := buf.Len() > before; emitted != s.emit {
			t.Errorf("ExtractProgress(%v) emitted = %v, want %v", s.percent, emitted, s.emit)
		}
	}
}

func TestTerminalReporterOutput(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var out, errOut bytes.Buffer
	r := NewTerminalReporter(false)
	r.out, r.errOut = &out, &errOut

	r.SourceInfo(SourceSummary{
		MediaPath:      "/media/clip.mp4",
		OriginalSize:   "640x480",
		OriginalFrames: 100,
		OriginalRate:   25,
		Frames:         50,
		Rate:           12.5,
		SeekStrategy:   "set",
		Transform:      "crop(320:240:0:0)",
	})
	r.Verbose("hidden")
	r.Error(ReporterError{Title: "Open failed", Message: "missing file", Suggestion: "check the path"})

	text := out.String()
	for _, want := range []string{"MEDIA", "SEGMENT", "/media/clip.mp4", "100 frames, 25 fps", "50 at 12.5 fps", "crop(320:240:0:0)"} {
		assert.Contains(t, text, want)
	}
	assert.NotContains(t, text, "hidden")
	assert.True(t, strings.Contains(errOut.String(), "Suggestion: check the path"))
}

type recorder struct {
	NullReporter
	warnings []string
}

func (r *recorder) Warning(m string) { r.warnings = append(r.warnings, m) }

func TestCompositeReporterFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	var logBuf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Output: &logBuf, Enabled: true})

	c := NewCompositeReporter(a, b, NewLogReporter(logger))
	c.Warning("search region misses frame")
	c.Verbose("seek fallback")

	assert.Equal(t, []string{"search region misses frame"}, a.warnings)
	assert.Equal(t, []string{"search region misses frame"}, b.warnings)
	assert.Contains(t, logBuf.String(), "level=WARN")
	assert.Contains(t, logBuf.String(), "seek fallback")
}
