package segment

import (
	"fmt"

	"github.com/five82/framescope/internal/errors"
)

// IntervalFilter shows every stride-th frame of [start, stop].
type IntervalFilter struct {
	start  int
	stop   int
	stride int
	count  int
}

// NewIntervalFilter builds an interval filter. stop is clamped to
// frameCount-1 and a negative stop means "through the last frame".
// A frameCount of zero or less disables clamping.
func NewIntervalFilter(start, stop, stride, frameCount int) (*IntervalFilter, error) {
	if stride < 1 {
		return nil, errors.NewConfigError(fmt.Sprintf("frame interval must be >= 1, got %d", stride))
	}
	if start < 0 {
		return nil, errors.NewRangeError(fmt.Sprintf("start frame must be >= 0, got %d", start))
	}

	if frameCount > 0 && (stop < 0 || stop > frameCount-1) {
		stop = frameCount - 1
	}
	if stop < start {
		return nil, errors.NewRangeError(fmt.Sprintf("stop frame %d is before start frame %d", stop, start))
	}

	span := stop - start + 1
	return &IntervalFilter{
		start:  start,
		stop:   stop,
		stride: stride,
		count:  (span + stride - 1) / stride,
	}, nil
}

func (f *IntervalFilter) SegmentToOriginal(segmentPos int) int {
	return f.start + f.stride*segmentPos
}

// OriginalToSegment rounds positions between stride frames down.
func (f *IntervalFilter) OriginalToSegment(originalPos int) int {
	return floorDiv(originalPos-f.start, f.stride)
}

func (f *IntervalFilter) SegmentFrameCount() int {
	return f.count
}

func (f *IntervalFilter) SegmentDuration(originalFrameRate float64) float64 {
	if originalFrameRate <= 0 {
		return 0
	}
	return float64(f.stop-f.start+1) / originalFrameRate
}

// IsPastEnd reports positions after the last frame the segment shows.
func (f *IntervalFilter) IsPastEnd(originalPos int) bool {
	return originalPos > f.SegmentToOriginal(f.count-1)
}

func (f *IntervalFilter) AvailableInitializationFrameCount() int {
	return f.start / f.stride
}

// Start returns the first original frame of the segment.
func (f *IntervalFilter) Start() int { return f.start }

// Stop returns the clamped last original frame of the segment.
func (f *IntervalFilter) Stop() int { return f.stop }

// Stride returns the frame interval.
func (f *IntervalFilter) Stride() int { return f.stride }

func (f *IntervalFilter) String() string {
	return fmt.Sprintf("interval[%d..%d step %d, %d frames]", f.start, f.stop, f.stride, f.count)
}
