package segment

import (
	"fmt"
	"slices"
	"sort"

	"github.com/five82/framescope/internal/errors"
)

// ListFilter shows an explicit ascending list of original frames.
type ListFilter struct {
	frames []int
}

// NewListFilter builds a list filter from original frame indices in any
// order. Duplicates are dropped; an empty list is a configuration error.
func NewListFilter(frames []int) (*ListFilter, error) {
	if len(frames) == 0 {
		return nil, errors.NewConfigError("frame list is empty")
	}

	sorted := slices.Clone(frames)
	sort.Ints(sorted)
	sorted = slices.Compact(sorted)
	if sorted[0] < 0 {
		return nil, errors.NewRangeError("frame list contains a negative frame index")
	}

	return &ListFilter{frames: sorted}, nil
}

// SegmentToOriginal returns -1 for positions outside the list.
func (f *ListFilter) SegmentToOriginal(segmentPos int) int {
	if segmentPos < 0 || segmentPos >= len(f.frames) {
		return -1
	}
	return f.frames[segmentPos]
}

// OriginalToSegment returns the index of the first listed frame at or after
// originalPos, or the frame count when originalPos is past the last one.
func (f *ListFilter) OriginalToSegment(originalPos int) int {
	return sort.SearchInts(f.frames, originalPos)
}

func (f *ListFilter) SegmentFrameCount() int {
	return len(f.frames)
}

func (f *ListFilter) SegmentDuration(originalFrameRate float64) float64 {
	if originalFrameRate <= 0 {
		return 0
	}
	return float64(f.frames[len(f.frames)-1]-f.frames[0]+1) / originalFrameRate
}

func (f *ListFilter) IsPastEnd(originalPos int) bool {
	return originalPos > f.frames[len(f.frames)-1]
}

// AvailableInitializationFrameCount is always zero for explicit lists.
func (f *ListFilter) AvailableInitializationFrameCount() int {
	return 0
}

// Frames returns a copy of the listed original frames.
func (f *ListFilter) Frames() []int {
	return slices.Clone(f.frames)
}

func (f *ListFilter) String() string {
	return fmt.Sprintf("list[%d..%d, %d frames]", f.frames[0], f.frames[len(f.frames)-1], len(f.frames))
}
