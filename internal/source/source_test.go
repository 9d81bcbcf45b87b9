package source

import (
	"context"
	"errors"
	"image"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/framescope/internal/config"
	fserrors "github.com/five82/framescope/internal/errors"
	"github.com/five82/framescope/internal/job"
	"github.com/five82/framescope/internal/logging"
	"github.com/five82/framescope/internal/video/videotest"
)

func newMedia() *videotest.Media {
	return &videotest.Media{Frames: 100, Rate: 25, Size: image.Pt(64, 48)}
}

func newJob(start, stop int, props map[string]string) *job.Job {
	j := job.New("test", "clip.mp4")
	j.StartFrame = start
	j.StopFrame = stop
	for k, v := range props {
		j.Properties[k] = v
	}
	return j
}

func constantRate(j *job.Job) *job.Job {
	j.MediaProperties[job.PropConstantFrameRate] = "true"
	return j
}

func options(m *videotest.Media) Options {
	return Options{
		Opener: m.Opener(),
		Config: config.NewConfig(),
		Logger: logging.New(logging.Config{Enabled: false}),
	}
}

// readAll reads until the source fails and returns the original frame index
// drawn into each frame.
func readAll(t *testing.T, s interface{ Read() (Frame, error) }) ([]int, error) {
	t.Helper()
	var got []int
	for i := 0; i < 1000; i++ {
		f, err := s.Read()
		if err != nil {
			return got, err
		}
		got = append(got, videotest.FrameIndex(f.Image, image.Point{}))
	}
	t.Fatal("source never ended")
	return nil, nil
}

func TestReadStride(t *testing.T) {
	m := newMedia()
	s, err := New(context.Background(), newJob(2, 11, map[string]string{job.PropFrameInterval: "3"}), options(m))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.Equal(t, 4, s.FrameCount())
	assert.Equal(t, "grab-step", s.SeekStrategy())

	var positions []int
	var frames []int
	for {
		f, err := s.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		positions = append(positions, f.Position)
		frames = append(frames, videotest.FrameIndex(f.Image, image.Point{}))
	}

	if diff := cmp.Diff([]int{0, 1, 2, 3}, positions); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 5, 8, 11}, frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 5, 8, 11}, m.Reads()); diff != "" {
		t.Errorf("decoded frames mismatch (-want +got):\n%s", diff)
	}

	_, err = s.Read()
	assert.ErrorIs(t, err, io.EOF, "reads past the end keep returning io.EOF")
	assert.Equal(t, 1, m.Opens())
}

func TestStopFrameThroughEnd(t *testing.T) {
	m := newMedia()
	s, err := New(context.Background(), newJob(90, -1, nil), options(m))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := readAll(t, s)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []int{90, 91, 92, 93, 94, 95, 96, 97, 98, 99}, got)
}

func TestSeekFallback(t *testing.T) {
	tests := []struct {
		name         string
		media        func(*videotest.Media)
		constant     bool
		wantStrategy string
		wantOpens    int
	}{
		{
			name:         "direct set works",
			media:        func(*videotest.Media) {},
			constant:     true,
			wantStrategy: "direct-set",
			wantOpens:    1,
		},
		{
			name:         "direct set fails",
			media:        func(m *videotest.Media) { m.SetPositionFails = true },
			constant:     true,
			wantStrategy: "grab-step",
			wantOpens:    2,
		},
		{
			name:         "direct set lands early",
			media:        func(m *videotest.Media) { m.SetPositionLands = func(n int) int { return n - 3 } },
			constant:     true,
			wantStrategy: "grab-step",
			wantOpens:    2,
		},
		{
			name:         "grab fails",
			media:        func(m *videotest.Media) { m.GrabLimit = 5 },
			wantStrategy: "read-step",
			wantOpens:    2,
		},
		{
			name: "direct set and grab fail",
			media: func(m *videotest.Media) {
				m.SetPositionFails = true
				m.GrabLimit = 5
			},
			constant:     true,
			wantStrategy: "read-step",
			wantOpens:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMedia()
			tt.media(m)
			j := newJob(40, 42, nil)
			if tt.constant {
				constantRate(j)
			}

			s, err := New(context.Background(), j, options(m))
			require.NoError(t, err)
			defer func() { _ = s.Close() }()

			got, err := readAll(t, s)
			assert.ErrorIs(t, err, io.EOF)
			assert.Equal(t, []int{40, 41, 42}, got)
			assert.Equal(t, tt.wantStrategy, s.SeekStrategy())
			assert.Equal(t, tt.wantOpens, m.Opens())
		})
	}
}

func TestSeekExhausted(t *testing.T) {
	m := newMedia()
	m.SetPositionFails = true
	m.GrabLimit = 1
	m.ReadFailures = map[int]int{5: 1}

	_, err := New(context.Background(), constantRate(newJob(40, 42, nil)), options(m))
	assert.True(t, fserrors.IsKind(err, fserrors.KindSeek), "New() error = %v, want KindSeek", err)
	assert.Equal(t, 3, m.Opens())
}

func TestReadFailureRecovers(t *testing.T) {
	m := newMedia()
	m.ReadFailures = map[int]int{3: 1}

	s, err := New(context.Background(), constantRate(newJob(0, 5, nil)), options(m))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := readAll(t, s)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, got)
	assert.Equal(t, "grab-step", s.SeekStrategy())
	assert.Equal(t, 2, m.Opens())
}

func TestReadFailureTerminal(t *testing.T) {
	m := newMedia()
	m.ReadFailures = map[int]int{3: 5}

	s, err := New(context.Background(), newJob(0, 5, nil), options(m))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := readAll(t, s)
	assert.Equal(t, []int{0, 1, 2}, got)
	assert.True(t, fserrors.IsKind(err, fserrors.KindDecode), "Read() error = %v, want KindDecode", err)

	_, again := s.Read()
	assert.Equal(t, err, again, "an exhausted source repeats its failure")
	assert.Equal(t, "read-step", s.SeekStrategy())
}

func TestSetPosition(t *testing.T) {
	m := newMedia()
	s, err := New(context.Background(), constantRate(newJob(10, 50, map[string]string{job.PropFrameInterval: "10"})), options(m))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.Equal(t, 5, s.FrameCount())

	for _, bad := range []int{-1, 5, 100} {
		err := s.SetPosition(bad)
		assert.True(t, fserrors.IsKind(err, fserrors.KindRange), "SetPosition(%d) error = %v, want KindRange", bad, err)
	}

	require.NoError(t, s.SetPosition(3))
	assert.Equal(t, 3, s.Position())
	f, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, 3, f.Position)
	assert.Equal(t, 40, videotest.FrameIndex(f.Image, image.Point{}))

	require.NoError(t, s.SetPosition(1))
	f, err = s.Read()
	require.NoError(t, err)
	assert.Equal(t, 20, videotest.FrameIndex(f.Image, image.Point{}))

	require.NoError(t, s.SetPositionRatio(0.5))
	assert.Equal(t, 2, s.Position())
	assert.InDelta(t, 0.4, s.PositionRatio(), 1e-9)
}

func TestInitializationFrames(t *testing.T) {
	m := newMedia()
	s, err := New(context.Background(), newJob(10, 30, map[string]string{job.PropFrameInterval: "5"}), options(m))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	frames, err := s.InitializationFrames(5)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, -2, frames[0].Position)
	assert.Equal(t, 0, videotest.FrameIndex(frames[0].Image, image.Point{}))
	assert.Equal(t, 5, videotest.FrameIndex(frames[1].Image, image.Point{}))

	f, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, 0, f.Position, "read position is restored")
	assert.Equal(t, 10, videotest.FrameIndex(f.Image, image.Point{}))

	frames, err = s.InitializationFrames(1)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, 5, videotest.FrameIndex(frames[0].Image, image.Point{}))
}

func TestKeyFrameSelection(t *testing.T) {
	probe := func(context.Context, string, int, int) ([]int, error) {
		return []int{0, 12, 24, 36, 48}, nil
	}
	failing := func(context.Context, string, int, int) ([]int, error) {
		return nil, errors.New("ffprobe missing")
	}

	tests := []struct {
		name  string
		probe func(context.Context, string, int, int) ([]int, error)
		stop  int
		want  []int
	}{
		{"key frames", probe, 50, []int{0, 24, 48}},
		{"probe failure falls back to interval", failing, 5, []int{0, 2, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMedia()
			opts := options(m)
			opts.Probe = tt.probe
			j := newJob(0, tt.stop, map[string]string{job.PropUseKeyFrames: "true", job.PropFrameInterval: "2"})

			s, err := New(context.Background(), j, opts)
			require.NoError(t, err)
			defer func() { _ = s.Close() }()

			got, err := readAll(t, s)
			assert.ErrorIs(t, err, io.EOF)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFeedForwardTrack(t *testing.T) {
	m := newMedia()
	j := newJob(0, -1, map[string]string{job.PropFeedForwardType: job.FeedForwardRegion})
	j.FeedForwardTrack = &job.Track{
		StartFrame: 7,
		StopFrame:  30,
		Locations: map[int]job.ImageLocation{
			30: {X: 0, Y: 0, Width: 16, Height: 8},
			7:  {X: 10, Y: 10, Width: 20, Height: 10},
		},
	}

	s, err := New(context.Background(), j, options(m))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.Equal(t, image.Pt(20, 10), s.FrameSize())
	first, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(20, 10), first.Image.Bounds().Size())
	assert.Equal(t, 7, videotest.FrameIndex(first.Image, image.Point{}))

	second, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(16, 8), second.Image.Bounds().Size())
	assert.Equal(t, 30, videotest.FrameIndex(second.Image, image.Point{}))

	_, err = s.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRotatedFrames(t *testing.T) {
	m := newMedia()
	s, err := New(context.Background(), newJob(0, 1, map[string]string{job.PropRotation: "90"}), options(m))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.Equal(t, image.Pt(48, 64), s.FrameSize())
	assert.Equal(t, image.Pt(64, 48), s.OriginalFrameSize())
	f, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(48, 64), f.Image.Bounds().Size())
}

func TestReverseTransform(t *testing.T) {
	m := newMedia()
	s, err := New(context.Background(), newJob(4, 20, map[string]string{
		job.PropFrameInterval:  "2",
		job.PropHorizontalFlip: "true",
	}), options(m))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	tracks := []job.Track{{
		StartFrame: 0,
		StopFrame:  3,
		Locations: map[int]job.ImageLocation{
			0: {X: 10, Y: 5, Width: 4, Height: 4},
			3: {X: 0, Y: 0, Width: 64, Height: 48},
		},
	}}
	s.ReverseTransform(tracks)

	want := []job.Track{{
		StartFrame: 4,
		StopFrame:  10,
		Locations: map[int]job.ImageLocation{
			4:  {X: 50, Y: 5, Width: 4, Height: 4, Properties: job.Properties{}},
			10: {X: 0, Y: 0, Width: 64, Height: 48, Properties: job.Properties{}},
		},
	}}
	if diff := cmp.Diff(want, tracks); diff != "" {
		t.Errorf("ReverseTransform() mismatch (-want +got):\n%s", diff)
	}
}

func TestForwardTransform(t *testing.T) {
	m := newMedia()
	s, err := New(context.Background(), newJob(4, 20, map[string]string{
		job.PropFrameInterval:  "2",
		job.PropHorizontalFlip: "true",
	}), options(m))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	tracks := []job.Track{{
		StartFrame: 4,
		StopFrame:  11,
		Locations: map[int]job.ImageLocation{
			4:  {X: 50, Y: 5, Width: 4, Height: 4},
			11: {X: 0, Y: 0, Width: 64, Height: 48},
		},
	}}
	s.ForwardTransform(tracks)

	want := []job.Track{{
		StartFrame: 0,
		StopFrame:  3,
		Locations: map[int]job.ImageLocation{
			0: {X: 10, Y: 5, Width: 4, Height: 4, Properties: job.Properties{}},
			3: {X: 0, Y: 0, Width: 64, Height: 48, Properties: job.Properties{}},
		},
	}}
	if diff := cmp.Diff(want, tracks); diff != "" {
		t.Errorf("ForwardTransform() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "flip", s.Transform())
}

func TestTiming(t *testing.T) {
	m := newMedia()
	s, err := New(context.Background(), constantRate(newJob(0, 99, map[string]string{job.PropFrameInterval: "4"})), options(m))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.Equal(t, 25, s.FrameCount())
	assert.InDelta(t, 6.25, s.FrameRate(), 1e-9)
	assert.InDelta(t, 25.0, s.OriginalFrameRate(), 1e-9)

	require.NoError(t, s.SetPositionMillis(1000))
	assert.Equal(t, 6, s.Position())
	assert.InDelta(t, 960.0, s.CurrentTimeMillis(), 1e-6)
	assert.Contains(t, s.Describe(), "seek=direct-set>grab-step>read-step")
}

func TestNewErrors(t *testing.T) {
	m := newMedia()
	opts := options(m)
	opts.Opener = nil
	_, err := New(context.Background(), newJob(0, 5, nil), opts)
	assert.True(t, fserrors.IsKind(err, fserrors.KindConfig))

	_, err = New(context.Background(), newJob(10, 5, nil), options(m))
	assert.True(t, fserrors.IsKind(err, fserrors.KindRange), "stop before start: %v", err)

	_, err = New(context.Background(), newJob(0, 5, map[string]string{job.PropRotation: "left"}), options(m))
	assert.True(t, fserrors.IsKind(err, fserrors.KindConfig), "bad rotation: %v", err)

	_, err = New(context.Background(), newJob(0, 5, map[string]string{job.PropFrameInterval: "3x"}), options(m))
	assert.True(t, fserrors.IsKind(err, fserrors.KindConfig), "bad frame interval: %v", err)
}

func TestFrameIntervalClamp(t *testing.T) {
	tests := []struct {
		name     string
		interval string
		want     int
	}{
		{"zero", "0", 20},
		{"negative", "-2", 20},
		{"padded", " 4 ", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(context.Background(), newJob(0, 19, map[string]string{job.PropFrameInterval: tt.interval}), options(newMedia()))
			require.NoError(t, err)
			defer func() { _ = s.Close() }()

			if got := s.FrameCount(); got != tt.want {
				t.Errorf("FrameCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClosedSource(t *testing.T) {
	m := newMedia()
	s, err := New(context.Background(), constantRate(newJob(20, 60, map[string]string{job.PropFrameInterval: "2"})), options(m))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.SetPosition(10)
	assert.True(t, fserrors.IsKind(err, fserrors.KindIO), "SetPosition after Close: %v", err)

	frames, err := s.InitializationFrames(3)
	assert.Empty(t, frames)
	assert.True(t, fserrors.IsKind(err, fserrors.KindIO), "InitializationFrames after Close: %v", err)

	_, err = s.Read()
	assert.True(t, fserrors.IsKind(err, fserrors.KindIO), "Read after Close: %v", err)

	assert.Equal(t, 1, m.Opens(), "closed source must not reopen its decoder")
	assert.Equal(t, "direct-set", s.SeekStrategy())
	assert.NoError(t, s.Close())
}
