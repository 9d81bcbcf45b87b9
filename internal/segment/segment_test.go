package segment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	fserrors "github.com/five82/framescope/internal/errors"
)

func mustInterval(t *testing.T, start, stop, stride, frameCount int) *IntervalFilter {
	t.Helper()
	f, err := NewIntervalFilter(start, stop, stride, frameCount)
	if err != nil {
		t.Fatalf("NewIntervalFilter(%d, %d, %d, %d) error = %v", start, stop, stride, frameCount, err)
	}
	return f
}

func TestIntervalFilterExample(t *testing.T) {
	f := mustInterval(t, 4, 10, 2, 100)

	if got := f.SegmentFrameCount(); got != 4 {
		t.Errorf("SegmentFrameCount() = %d, want 4", got)
	}
	if got := f.SegmentToOriginal(2); got != 8 {
		t.Errorf("SegmentToOriginal(2) = %d, want 8", got)
	}
	if got := f.OriginalToSegment(9); got != 2 {
		t.Errorf("OriginalToSegment(9) = %d, want 2", got)
	}
	if !f.IsPastEnd(11) {
		t.Error("IsPastEnd(11) = false, want true")
	}
	if f.IsPastEnd(10) {
		t.Error("IsPastEnd(10) = true, want false")
	}
	if got := f.AvailableInitializationFrameCount(); got != 2 {
		t.Errorf("AvailableInitializationFrameCount() = %d, want 2", got)
	}
}

func TestIntervalFilterRoundTrip(t *testing.T) {
	for start := 0; start < 12; start += 3 {
		for stop := start; stop < start+40; stop += 7 {
			for stride := 1; stride <= 6; stride++ {
				f := mustInterval(t, start, stop, stride, 0)
				want := (stop - start + stride) / stride
				if f.SegmentFrameCount() != want {
					t.Fatalf("(%d,%d,%d) count = %d, want %d", start, stop, stride, f.SegmentFrameCount(), want)
				}
				for i := 0; i < f.SegmentFrameCount(); i++ {
					if got := f.OriginalToSegment(f.SegmentToOriginal(i)); got != i {
						t.Fatalf("(%d,%d,%d) round trip of %d = %d", start, stop, stride, i, got)
					}
				}
			}
		}
	}
}

func TestIntervalFilterConstruction(t *testing.T) {
	tests := []struct {
		name       string
		start      int
		stop       int
		stride     int
		frameCount int
		wantStop   int
		wantKind   fserrors.ErrorKind
		wantErr    bool
	}{
		{name: "stop clamped to frame count", start: 0, stop: 500, stride: 1, frameCount: 100, wantStop: 99},
		{name: "negative stop means through end", start: 10, stop: -1, stride: 1, frameCount: 100, wantStop: 99},
		{name: "stop zero is explicit", start: 0, stop: 0, stride: 1, frameCount: 100, wantStop: 0},
		{name: "stop before start", start: 50, stop: 40, stride: 1, frameCount: 100, wantErr: true, wantKind: fserrors.KindRange},
		{name: "start beyond clamped stop", start: 120, stop: -1, stride: 1, frameCount: 100, wantErr: true, wantKind: fserrors.KindRange},
		{name: "zero stride", start: 0, stop: 10, stride: 0, frameCount: 100, wantErr: true, wantKind: fserrors.KindConfig},
		{name: "negative start", start: -3, stop: 10, stride: 1, frameCount: 100, wantErr: true, wantKind: fserrors.KindRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewIntervalFilter(tt.start, tt.stop, tt.stride, tt.frameCount)
			if tt.wantErr {
				if !fserrors.IsKind(err, tt.wantKind) {
					t.Fatalf("NewIntervalFilter() error = %v, want kind %v", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewIntervalFilter() error = %v", err)
			}
			if f.Stop() != tt.wantStop {
				t.Errorf("Stop() = %d, want %d", f.Stop(), tt.wantStop)
			}
		})
	}
}

func TestIntervalFilterBetweenStrides(t *testing.T) {
	f := mustInterval(t, 10, 30, 5, 0)

	tests := []struct {
		original int
		want     int
	}{
		{original: 10, want: 0},
		{original: 14, want: 0},
		{original: 15, want: 1},
		{original: 9, want: -1},
		{original: 5, want: -1},
		{original: 4, want: -2},
	}
	for _, tt := range tests {
		if got := f.OriginalToSegment(tt.original); got != tt.want {
			t.Errorf("OriginalToSegment(%d) = %d, want %d", tt.original, got, tt.want)
		}
	}
}

func TestIntervalFilterIsPastEndOffGrid(t *testing.T) {
	// Frames 0, 3, 6, 9 are shown; 10 is inside [start, stop] but never shown.
	f := mustInterval(t, 0, 10, 3, 0)
	if f.IsPastEnd(9) {
		t.Error("IsPastEnd(9) = true, want false")
	}
	if !f.IsPastEnd(10) {
		t.Error("IsPastEnd(10) = false, want true")
	}
}

func TestListFilterExample(t *testing.T) {
	f, err := NewListFilter([]int{1, 3, 7, 11})
	if err != nil {
		t.Fatalf("NewListFilter() error = %v", err)
	}

	if got := f.SegmentFrameCount(); got != 4 {
		t.Errorf("SegmentFrameCount() = %d, want 4", got)
	}
	if got := f.SegmentToOriginal(2); got != 7 {
		t.Errorf("SegmentToOriginal(2) = %d, want 7", got)
	}
	if got := f.OriginalToSegment(5); got != 2 {
		t.Errorf("OriginalToSegment(5) = %d, want 2", got)
	}
	if got := f.OriginalToSegment(12); got != 4 {
		t.Errorf("OriginalToSegment(12) = %d, want 4", got)
	}
	if got := f.SegmentToOriginal(4); got != -1 {
		t.Errorf("SegmentToOriginal(4) = %d, want -1", got)
	}
	if f.IsPastEnd(11) || !f.IsPastEnd(12) {
		t.Error("IsPastEnd should flip after frame 11")
	}
	if f.AvailableInitializationFrameCount() != 0 {
		t.Error("list filters have no initialization frames")
	}
	if got, want := f.SegmentDuration(10), 1.1; math.Abs(got-want) > 1e-9 {
		t.Errorf("SegmentDuration(10) = %v, want %v", got, want)
	}
}

func TestListFilterRoundTrip(t *testing.T) {
	input := []int{40, 2, 17, 2, 9, 40, 33, 5}
	f, err := NewListFilter(input)
	if err != nil {
		t.Fatalf("NewListFilter() error = %v", err)
	}

	if diff := cmp.Diff([]int{2, 5, 9, 17, 33, 40}, f.Frames()); diff != "" {
		t.Errorf("Frames() mismatch (-want +got):\n%s", diff)
	}
	for i := 0; i < f.SegmentFrameCount(); i++ {
		if got := f.OriginalToSegment(f.SegmentToOriginal(i)); got != i {
			t.Errorf("round trip of %d = %d", i, got)
		}
	}
	if input[0] != 40 {
		t.Error("NewListFilter must not reorder its input")
	}
}

func TestListFilterEmpty(t *testing.T) {
	_, err := NewListFilter(nil)
	if !fserrors.IsKind(err, fserrors.KindConfig) {
		t.Errorf("NewListFilter(nil) error = %v, want KindConfig", err)
	}
}

func TestDerivedFunctions(t *testing.T) {
	// 100 original frames at 25 fps, every 4th shown: 25 frames over 4 seconds.
	f := mustInterval(t, 0, 99, 4, 0)

	if got := FrameRate(f, 25); math.Abs(got-6.25) > 1e-9 {
		t.Errorf("FrameRate() = %v, want 6.25", got)
	}
	if got := CurrentTimeMillis(f, 40, 25); math.Abs(got-1600) > 1e-9 {
		t.Errorf("CurrentTimeMillis(40) = %v, want 1600", got)
	}
	if got := MillisToSegmentPosition(f, 25, 1600); got != 10 {
		t.Errorf("MillisToSegmentPosition(1600) = %d, want 10", got)
	}
	if got := PositionRatio(f, 48); math.Abs(got-0.48) > 1e-9 {
		t.Errorf("PositionRatio(48) = %v, want 0.48", got)
	}
	if got := RatioToOriginalPosition(f, 0.5); got != 48 {
		t.Errorf("RatioToOriginalPosition(0.5) = %d, want 48", got)
	}
}

func TestNewKeyFrameFilter(t *testing.T) {
	probe := func(_ context.Context, _ string, start, stop int) ([]int, error) {
		if start != 10 || stop != 100 {
			t.Errorf("probe range = [%d, %d], want [10, 100]", start, stop)
		}
		return []int{0, 12, 24, 36, 48, 60, 72, 84, 96, 108}, nil
	}

	f, err := NewKeyFrameFilter(context.Background(), probe, "clip.mp4", 10, 100, 2)
	if err != nil {
		t.Fatalf("NewKeyFrameFilter() error = %v", err)
	}
	if diff := cmp.Diff([]int{12, 36, 60, 84}, f.Frames()); diff != "" {
		t.Errorf("Frames() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewKeyFrameFilterProbeFailure(t *testing.T) {
	probeErr := errors.New("ffprobe exploded")
	failing := func(context.Context, string, int, int) ([]int, error) { return nil, probeErr }
	empty := func(context.Context, string, int, int) ([]int, error) { return []int{500}, nil }

	_, err := NewKeyFrameFilter(context.Background(), failing, "clip.mp4", 0, 10, 1)
	if !fserrors.IsKind(err, fserrors.KindProbe) || !errors.Is(err, probeErr) {
		t.Errorf("NewKeyFrameFilter(failing) error = %v, want KindProbe wrapping the probe error", err)
	}

	_, err = NewKeyFrameFilter(context.Background(), empty, "clip.mp4", 0, 10, 1)
	if !fserrors.IsKind(err, fserrors.KindProbe) {
		t.Errorf("NewKeyFrameFilter(empty) error = %v, want KindProbe", err)
	}
}
