package transform

import (
	"fmt"
	"image"

	fserrors "github.com/five82/framescope/internal/errors"
	"github.com/five82/framescope/internal/job"
)

// Crop cuts every frame down to a fixed rectangle.
type Crop struct {
	rect image.Rectangle
}

// NewCrop creates a crop to rect intersected with the input frame.
func NewCrop(in SizeFunc, rect image.Rectangle) (*Crop, error) {
	frame := image.Rectangle{Max: in(0)}
	r := rect.Intersect(frame)
	if r.Empty() {
		return nil, fserrors.NewConfigError(fmt.Sprintf("crop region %v lies outside the %dx%d frame", rect, frame.Dx(), frame.Dy()))
	}
	return &Crop{rect: r}, nil
}

// Rect returns the effective crop rectangle.
func (c *Crop) Rect() image.Rectangle { return c.rect }

func (c *Crop) Apply(img *image.RGBA, _ int) *image.RGBA {
	return cropRGBA(img, c.rect)
}

func (c *Crop) Forward(loc *job.ImageLocation, _ int) {
	loc.X -= c.rect.Min.X
	loc.Y -= c.rect.Min.Y
}

func (c *Crop) Reverse(loc *job.ImageLocation, _ int) {
	loc.X += c.rect.Min.X
	loc.Y += c.rect.Min.Y
}

func (c *Crop) OutputSize(int) image.Point { return c.rect.Size() }

func (c *Crop) String() string {
	return fmt.Sprintf("crop(%d:%d:%d:%d)", c.rect.Dx(), c.rect.Dy(), c.rect.Min.X, c.rect.Min.Y)
}

// FeedForwardCrop cuts each segment frame to the detection recorded for it.
// Segment indices beyond the detections pass through unchanged.
type FeedForwardCrop struct {
	in    SizeFunc
	rects []image.Rectangle
}

// NewFeedForwardCrop creates a per-frame crop. rects[i] applies to segment index i.
func NewFeedForwardCrop(in SizeFunc, rects []image.Rectangle) (*FeedForwardCrop, error) {
	if len(rects) == 0 {
		return nil, fserrors.NewConfigError("feed-forward crop needs at least one region")
	}
	out := make([]image.Rectangle, len(rects))
	for i, rect := range rects {
		frame := image.Rectangle{Max: in(i)}
		r := rect.Intersect(frame)
		if r.Empty() {
			return nil, fserrors.NewConfigError(fmt.Sprintf("feed-forward region %d %v lies outside the %dx%d frame", i, rect, frame.Dx(), frame.Dy()))
		}
		out[i] = r
	}
	return &FeedForwardCrop{in: in, rects: out}, nil
}

func (c *FeedForwardCrop) rect(index int) (image.Rectangle, bool) {
	if index < 0 || index >= len(c.rects) {
		return image.Rectangle{}, false
	}
	return c.rects[index], true
}

func (c *FeedForwardCrop) Apply(img *image.RGBA, index int) *image.RGBA {
	if r, ok := c.rect(index); ok {
		return cropRGBA(img, r)
	}
	return img
}

func (c *FeedForwardCrop) Forward(loc *job.ImageLocation, index int) {
	if r, ok := c.rect(index); ok {
		loc.X -= r.Min.X
		loc.Y -= r.Min.Y
	}
}

func (c *FeedForwardCrop) Reverse(loc *job.ImageLocation, index int) {
	if r, ok := c.rect(index); ok {
		loc.X += r.Min.X
		loc.Y += r.Min.Y
	}
}

func (c *FeedForwardCrop) OutputSize(index int) image.Point {
	if r, ok := c.rect(index); ok {
		return r.Size()
	}
	return c.in(index)
}

func (c *FeedForwardCrop) String() string {
	return fmt.Sprintf("feed-forward-crop(%d regions)", len(c.rects))
}
