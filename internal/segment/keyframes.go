package segment

import (
	"context"
	"fmt"

	"github.com/five82/framescope/internal/errors"
	"github.com/five82/framescope/internal/keyframe"
)

// NewKeyFrameFilter probes path for key frames in [start, stop] and keeps
// every stride-th one. Probe failures and empty results are returned as
// KindProbe errors so the caller can fall back to an interval filter.
func NewKeyFrameFilter(ctx context.Context, probe keyframe.Probe, path string, start, stop, stride int) (*ListFilter, error) {
	if stride < 1 {
		return nil, errors.NewConfigError(fmt.Sprintf("frame interval must be >= 1, got %d", stride))
	}

	frames, err := probe(ctx, path, start, stop)
	if err != nil {
		return nil, errors.NewProbeError("key frame probe failed", err)
	}

	var kept []int
	n := 0
	for _, f := range frames {
		if f < start || (stop >= 0 && f > stop) {
			continue
		}
		if n%stride == 0 {
			kept = append(kept, f)
		}
		n++
	}
	if len(kept) == 0 {
		return nil, errors.NewProbeError(fmt.Sprintf("no key frames in [%d, %d]", start, stop), nil)
	}

	return NewListFilter(kept)
}
