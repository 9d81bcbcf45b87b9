package transform

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/spatial/r2"

	fserrors "github.com/five82/framescope/internal/errors"
	"github.com/five82/framescope/internal/geometry"
	"github.com/five82/framescope/internal/job"
)

// AffineParams configures an Affine stage.
type AffineParams struct {
	// Rotation is the counter-clockwise orientation of the regions in
	// degrees. The stage rotates frames clockwise by it.
	Rotation float64
	Flip     bool
	// Search, when set, crops the result. It is given in the final rotated
	// and flipped coordinates.
	Search    *SearchRegion
	Fill      color.RGBA
	Threshold float64
}

// Affine rotates, crops and optionally mirrors frames with a single affine
// warp.
type Affine struct {
	rotation float64
	flip     bool
	fill     color.RGBA
	matrix   geometry.Affine
	inverse  geometry.Affine
	size     image.Point
	interp   draw.Interpolator
	// searchMissed records a search region that missed the frame and was
	// replaced by the whole rotated frame.
	searchMissed bool
}

// NewAffine builds the warp that brings regions upright. The output covers
// the bounding box of every region after rotation.
func NewAffine(regions []geometry.Region, p AffineParams) (*Affine, error) {
	if len(regions) == 0 {
		return nil, fserrors.NewConfigError("affine transform needs at least one region")
	}

	rotation, quadrant := geometry.SnapRotation(p.Rotation, p.Threshold)
	rotate := geometry.Rotation(rotation)

	var corners []r2.Vec
	for _, r := range regions {
		c := r.Corners()
		corners = append(corners, rotate.ApplyAll(c[:])...)
	}
	box := geometry.Bounds(corners)
	width := geometry.SnapSize(box.Max.X - box.Min.X)
	height := geometry.SnapSize(box.Max.Y - box.Min.Y)
	if width <= 0 || height <= 0 {
		return nil, fserrors.NewConfigError(fmt.Sprintf("regions %v have no area", regions))
	}

	a := &Affine{
		rotation: rotation,
		flip:     p.Flip,
		fill:     p.Fill,
		interp:   draw.BiLinear,
	}
	if quadrant {
		a.interp = draw.NearestNeighbor
	}

	crop := image.Rect(0, 0, width, height)
	if p.Search != nil {
		r := p.Search.Resolve(crop.Size())
		switch {
		case r.Empty():
			a.searchMissed = true
		case p.Flip:
			// Mirror the region into pre-flip coordinates.
			crop = image.Rect(width-r.Max.X, r.Min.Y, width-r.Min.X, r.Max.Y)
		default:
			crop = r
		}
	}
	a.size = crop.Size()

	m := rotate.
		Then(geometry.Translation(-box.Min.X, -box.Min.Y)).
		Then(geometry.Translation(float64(-crop.Min.X), float64(-crop.Min.Y)))
	if p.Flip {
		m = m.Then(geometry.MirrorX(float64(crop.Dx())))
	}
	inv, err := m.Inverse()
	if err != nil {
		return nil, fserrors.NewConfigError(err.Error())
	}
	a.matrix = m
	a.inverse = inv
	return a, nil
}

// SearchRegionMissed reports whether the requested search region fell
// outside the rotated frame and was ignored.
func (a *Affine) SearchRegionMissed() bool { return a.searchMissed }

// Matrix returns the source to destination transform.
func (a *Affine) Matrix() geometry.Affine { return a.matrix }

func (a *Affine) Apply(img *image.RGBA, _ int) *image.RGBA {
	return warpRGBA(img, a.size, a.matrix.Aff3(), a.fill, a.interp)
}

func (a *Affine) Forward(loc *job.ImageLocation, _ int) {
	p := a.matrix.Apply(r2.Vec{X: float64(loc.X), Y: float64(loc.Y)})
	loc.X, loc.Y = int(math.Round(p.X)), int(math.Round(p.Y))
	if a.flip {
		loc.SetRotation(geometry.NormalizeAngle(a.rotation - loc.Rotation()))
		loc.ToggleFlip()
		return
	}
	loc.SetRotation(geometry.NormalizeAngle(loc.Rotation() - a.rotation))
}

func (a *Affine) Reverse(loc *job.ImageLocation, _ int) {
	p := a.inverse.Apply(r2.Vec{X: float64(loc.X), Y: float64(loc.Y)})
	loc.X, loc.Y = int(math.Round(p.X)), int(math.Round(p.Y))
	if a.flip {
		loc.SetRotation(geometry.NormalizeAngle(a.rotation - loc.Rotation()))
		loc.ToggleFlip()
		return
	}
	loc.SetRotation(geometry.NormalizeAngle(a.rotation + loc.Rotation()))
}

func (a *Affine) OutputSize(int) image.Point { return a.size }

func (a *Affine) String() string {
	return fmt.Sprintf("affine(rot=%g flip=%t %dx%d)", a.rotation, a.flip, a.size.X, a.size.Y)
}

// FeedForwardAffine warps each segment frame with the affine built for the
// detection recorded for it. Segment indices beyond the detections pass
// through unchanged.
type FeedForwardAffine struct {
	in     SizeFunc
	stages []*Affine
}

// NewFeedForwardAffine builds one Affine per location. locs[i] applies to
// segment index i.
func NewFeedForwardAffine(in SizeFunc, locs []job.ImageLocation, fill color.RGBA, threshold float64) (*FeedForwardAffine, error) {
	if len(locs) == 0 {
		return nil, fserrors.NewConfigError("feed-forward affine needs at least one region")
	}
	stages := make([]*Affine, len(locs))
	for i := range locs {
		loc := &locs[i]
		a, err := NewAffine([]geometry.Region{locationRegion(loc)}, AffineParams{
			Rotation:  loc.Rotation(),
			Flip:      loc.Flipped(),
			Fill:      fill,
			Threshold: threshold,
		})
		if err != nil {
			return nil, fmt.Errorf("feed-forward region %d: %w", i, err)
		}
		stages[i] = a
	}
	return &FeedForwardAffine{in: in, stages: stages}, nil
}

func (f *FeedForwardAffine) stage(index int) *Affine {
	if index < 0 || index >= len(f.stages) {
		return nil
	}
	return f.stages[index]
}

func (f *FeedForwardAffine) Apply(img *image.RGBA, index int) *image.RGBA {
	if a := f.stage(index); a != nil {
		return a.Apply(img, index)
	}
	return img
}

func (f *FeedForwardAffine) Forward(loc *job.ImageLocation, index int) {
	if a := f.stage(index); a != nil {
		a.Forward(loc, index)
	}
}

func (f *FeedForwardAffine) Reverse(loc *job.ImageLocation, index int) {
	if a := f.stage(index); a != nil {
		a.Reverse(loc, index)
	}
}

func (f *FeedForwardAffine) OutputSize(index int) image.Point {
	if a := f.stage(index); a != nil {
		return a.OutputSize(index)
	}
	return f.in(index)
}

func (f *FeedForwardAffine) String() string {
	return fmt.Sprintf("feed-forward-affine(%d regions)", len(f.stages))
}

func locationRegion(loc *job.ImageLocation) geometry.Region {
	return geometry.NewRegion(float64(loc.X), float64(loc.Y), float64(loc.Width), float64(loc.Height), loc.Rotation(), loc.Flipped())
}
