// Package segment maps between segment positions, the zero-based frame
// indices a caller sees, and original positions in the media file.
package segment

import "math"

// Filter is a bidirectional, monotonic map between segment and original
// frame positions. OriginalToSegment(SegmentToOriginal(i)) == i for every i
// in [0, SegmentFrameCount()). Filters are immutable.
type Filter interface {
	SegmentToOriginal(segmentPos int) int
	// OriginalToSegment maps an original position to a segment position.
	// Positions between segment frames round as each filter documents.
	OriginalToSegment(originalPos int) int
	SegmentFrameCount() int
	// SegmentDuration is the original span covered by the segment, in seconds.
	SegmentDuration(originalFrameRate float64) float64
	// IsPastEnd reports whether originalPos is beyond the last segment frame.
	IsPastEnd(originalPos int) bool
	// AvailableInitializationFrameCount is the number of stride-aligned frames
	// that exist before the segment start.
	AvailableInitializationFrameCount() int
	String() string
}

// FrameRate is the rate at which segment frames are shown so that the
// segment plays over its original duration.
func FrameRate(f Filter, originalFrameRate float64) float64 {
	d := f.SegmentDuration(originalFrameRate)
	if d <= 0 {
		return 0
	}
	return float64(f.SegmentFrameCount()) / d
}

// CurrentTimeMillis is the segment playback time of the frame at originalPos.
func CurrentTimeMillis(f Filter, originalPos int, originalFrameRate float64) float64 {
	rate := FrameRate(f, originalFrameRate)
	if rate <= 0 {
		return 0
	}
	return float64(f.OriginalToSegment(originalPos)) * 1000 / rate
}

// MillisToSegmentPosition converts a segment playback time to a segment position.
func MillisToSegmentPosition(f Filter, originalFrameRate, millis float64) int {
	return int(math.Floor(FrameRate(f, originalFrameRate) * millis / 1000))
}

// PositionRatio is how far through the segment the frame at originalPos is, in [0, 1].
func PositionRatio(f Filter, originalPos int) float64 {
	count := f.SegmentFrameCount()
	if count == 0 {
		return 0
	}
	return float64(f.OriginalToSegment(originalPos)) / float64(count)
}

// RatioToOriginalPosition maps a fraction of the segment to an original position.
func RatioToOriginalPosition(f Filter, ratio float64) int {
	return f.SegmentToOriginal(int(math.Floor(float64(f.SegmentFrameCount()) * ratio)))
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
