// Package seek implements the decoder repositioning strategies used by frame
// sources. Strategies form a fallback chain from fastest to most reliable:
// DirectSet, then GrabStep, then ReadStep.
package seek

import (
	"github.com/five82/framescope/internal/video"
)

// Strategy moves a decoder from its current frame to a requested frame.
type Strategy interface {
	// ChangePosition returns the position actually reached, which differs
	// from requested when the strategy failed.
	ChangePosition(d video.Decoder, current, requested int) int
	// Fallback returns the next strategy to try, or nil.
	Fallback() Strategy
	// Name identifies the strategy in logs.
	Name() string
}

// Select returns DirectSet for media with a constant frame rate, where native
// frame seeks are trustworthy, and GrabStep otherwise.
func Select(constantFrameRate bool, smallSeekThreshold int) Strategy {
	if constantFrameRate {
		return DirectSet{Threshold: smallSeekThreshold}
	}
	return GrabStep{}
}

// Chain lists the names of s and every fallback after it.
func Chain(s Strategy) []string {
	var names []string
	for ; s != nil; s = s.Fallback() {
		names = append(names, s.Name())
	}
	return names
}

// DirectSet uses the decoder's native seek. Forward hops of at most
// Threshold frames are grabbed instead.
type DirectSet struct {
	Threshold int
}

func (s DirectSet) ChangePosition(d video.Decoder, current, requested int) int {
	if current == requested {
		return current
	}
	if dist := requested - current; dist > 0 && dist <= s.Threshold {
		return GrabStep{}.ChangePosition(d, current, requested)
	}
	if d.SetPosition(requested) {
		return requested
	}
	return current
}

func (DirectSet) Fallback() Strategy { return GrabStep{} }

func (DirectSet) Name() string { return "direct-set" }

// GrabStep advances with Grab, which skips frames without decoding images.
// Moving backward rewinds to frame 0 first.
type GrabStep struct{}

func (GrabStep) ChangePosition(d video.Decoder, current, requested int) int {
	return step(d, current, requested, d.Grab)
}

func (GrabStep) Fallback() Strategy { return ReadStep{} }

func (GrabStep) Name() string { return "grab-step" }

// ReadStep advances with full Reads. It is the last resort.
type ReadStep struct{}

func (ReadStep) ChangePosition(d video.Decoder, current, requested int) int {
	return step(d, current, requested, func() error {
		_, err := d.Read()
		return err
	})
}

func (ReadStep) Fallback() Strategy { return nil }

func (ReadStep) Name() string { return "read-step" }

func step(d video.Decoder, current, requested int, advance func() error) int {
	if requested < current {
		if !d.SetPosition(0) {
			return current
		}
		current = 0
	}

	for current < requested {
		if err := advance(); err != nil {
			return current
		}
		current++
	}
	return current
}
