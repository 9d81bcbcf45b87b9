package transform

import (
	"image"

	"github.com/five82/framescope/internal/geometry"
	"github.com/five82/framescope/internal/job"
)

// Flip mirrors frames horizontally.
type Flip struct {
	in        SizeFunc
	threshold float64
}

// NewFlip creates a horizontal mirror. threshold decides when a location's
// rotation counts as upright.
func NewFlip(in SizeFunc, threshold float64) *Flip {
	return &Flip{in: in, threshold: threshold}
}

func (f *Flip) Apply(img *image.RGBA, _ int) *image.RGBA {
	return mirrorRGBA(img)
}

// Mirroring is its own inverse, so both directions share one mapping.
func (f *Flip) Forward(loc *job.ImageLocation, index int) { f.mirror(loc, index) }
func (f *Flip) Reverse(loc *job.ImageLocation, index int) { f.mirror(loc, index) }

func (f *Flip) mirror(loc *job.ImageLocation, index int) {
	width := f.in(index).X
	if !loc.Flipped() && geometry.RotationEqual(loc.Rotation(), 0, f.threshold) {
		loc.X = width - loc.X - loc.Width
		return
	}
	loc.X = width - loc.X
	if loc.Properties.Has(job.PropRotation) {
		loc.SetRotation(geometry.NormalizeAngle(-loc.Rotation()))
	}
	loc.ToggleFlip()
}

func (f *Flip) OutputSize(index int) image.Point { return f.in(index) }

func (f *Flip) String() string { return "flip" }
