// Package geometry provides the rotated rectangles and affine matrices used
// to normalize frame orientation.
//
// Coordinates are image coordinates with y pointing down. A rotation of r
// degrees is counter-clockwise as seen on screen.
package geometry

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Region is a rectangle anchored at (X, Y) whose width runs along the
// rotated x axis and whose height runs along the rotated y axis. Flip
// mirrors the width direction.
type Region struct {
	X, Y          float64
	Width, Height float64
	Rotation      float64
	Flip          bool
}

// NewRegion builds a region with its rotation normalized into [0, 360).
func NewRegion(x, y, width, height, rotation float64, flip bool) Region {
	return Region{
		X:        x,
		Y:        y,
		Width:    width,
		Height:   height,
		Rotation: NormalizeAngle(rotation),
		Flip:     flip,
	}
}

// RegionFromRect builds an upright region covering r.
func RegionFromRect(r image.Rectangle) Region {
	return NewRegion(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()), 0, false)
}

// Corners returns the anchor, the anchor plus width, the opposite corner and
// the anchor plus height, in that order.
func (r Region) Corners() [4]r2.Vec {
	sin, cos := sincos(r.Rotation)
	u := r2.Vec{X: cos, Y: -sin}
	if r.Flip {
		u = r2.Scale(-1, u)
	}
	v := r2.Vec{X: sin, Y: cos}

	anchor := r2.Vec{X: r.X, Y: r.Y}
	w := r2.Scale(r.Width, u)
	h := r2.Scale(r.Height, v)
	return [4]r2.Vec{
		anchor,
		r2.Add(anchor, w),
		r2.Add(r2.Add(anchor, w), h),
		r2.Add(anchor, h),
	}
}

// Upright reports whether the region is unflipped and within threshold of
// zero rotation.
func (r Region) Upright(threshold float64) bool {
	return !r.Flip && RotationEqual(r.Rotation, 0, threshold)
}

func (r Region) String() string {
	return fmt.Sprintf("(%g,%g %gx%g rot=%g flip=%t)", r.X, r.Y, r.Width, r.Height, r.Rotation, r.Flip)
}

// Bounds returns the smallest axis-aligned box containing points.
func Bounds(points []r2.Vec) r2.Box {
	if len(points) == 0 {
		return r2.Box{}
	}
	box := r2.Box{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min.X = math.Min(box.Min.X, p.X)
		box.Min.Y = math.Min(box.Min.Y, p.Y)
		box.Max.X = math.Max(box.Max.X, p.X)
		box.Max.Y = math.Max(box.Max.Y, p.Y)
	}
	return box
}

// RegionBounds returns the axis-aligned box containing every region corner.
func RegionBounds(regions []Region) r2.Box {
	var points []r2.Vec
	for _, r := range regions {
		c := r.Corners()
		points = append(points, c[:]...)
	}
	return Bounds(points)
}

// SnapSize converts a continuous length to whole pixels. Lengths within 1e-6
// of an integer round to it; anything else rounds up.
func SnapSize(v float64) int {
	if r := math.Round(v); math.Abs(v-r) < 1e-6 {
		return int(r)
	}
	return int(math.Ceil(v))
}

// PixelRect converts a continuous box to the smallest pixel rectangle
// covering it, snapping near-integer edges.
func PixelRect(b r2.Box) image.Rectangle {
	snapDown := func(v float64) int {
		if r := math.Round(v); math.Abs(v-r) < 1e-6 {
			return int(r)
		}
		return int(math.Floor(v))
	}
	return image.Rect(snapDown(b.Min.X), snapDown(b.Min.Y), SnapSize(b.Max.X), SnapSize(b.Max.Y))
}
