// Package transform implements the per-frame transform chain: the ordered
// list of raster stages applied to decoded frames, and the matching reverse
// mapping that carries detections back to original frame coordinates.
package transform

import (
	"image"
	"strings"

	"github.com/five82/framescope/internal/job"
)

// SizeFunc reports the frame size a stage sees for a segment index.
type SizeFunc func(index int) image.Point

// Stage is one step of a transform chain.
//
// Apply transforms a frame. Forward maps a location from the stage's input
// coordinates to its output coordinates and Reverse undoes that mapping.
// Stages are immutable once built and safe for concurrent use.
type Stage interface {
	Apply(img *image.RGBA, index int) *image.RGBA
	Forward(loc *job.ImageLocation, index int)
	Reverse(loc *job.ImageLocation, index int)
	OutputSize(index int) image.Point
	String() string
}

// Chain is an ordered list of stages.
type Chain struct {
	input  image.Point
	stages []Stage
}

// NewChain creates an empty chain over frames of the given size.
func NewChain(input image.Point) *Chain {
	return &Chain{input: input}
}

// Append adds a stage to the end of the chain.
func (c *Chain) Append(s Stage) {
	c.stages = append(c.stages, s)
}

// Sizer returns the output size function of the chain as built so far.
// The next stage to be appended receives it as its input size.
func (c *Chain) Sizer() SizeFunc {
	if n := len(c.stages); n > 0 {
		return c.stages[n-1].OutputSize
	}
	input := c.input
	return func(int) image.Point { return input }
}

// Apply runs every stage over img in order.
func (c *Chain) Apply(img *image.RGBA, index int) *image.RGBA {
	for _, s := range c.stages {
		img = s.Apply(img, index)
	}
	return img
}

// ApplyReverse maps loc from output coordinates back to original frame
// coordinates by walking the stages last to first.
func (c *Chain) ApplyReverse(loc *job.ImageLocation, index int) {
	for i := len(c.stages) - 1; i >= 0; i-- {
		c.stages[i].Reverse(loc, index)
	}
}

// ApplyForward maps loc from original frame coordinates to output coordinates.
func (c *Chain) ApplyForward(loc *job.ImageLocation, index int) {
	for _, s := range c.stages {
		s.Forward(loc, index)
	}
}

// OutputSize is the size of frames leaving the chain at index.
func (c *Chain) OutputSize(index int) image.Point {
	return c.Sizer()(index)
}

// InputSize is the decoded frame size.
func (c *Chain) InputSize() image.Point {
	return c.input
}

// Len reports the number of stages.
func (c *Chain) Len() int {
	return len(c.stages)
}

// Stages returns the stage names in order.
func (c *Chain) Stages() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.String()
	}
	return names
}

func (c *Chain) String() string {
	if len(c.stages) == 0 {
		return "empty"
	}
	return strings.Join(c.Stages(), " -> ")
}

// NoOp passes frames through unchanged.
type NoOp struct {
	size image.Point
}

// NewNoOp creates an identity stage over frames of the given size.
func NewNoOp(size image.Point) *NoOp {
	return &NoOp{size: size}
}

func (n *NoOp) Apply(img *image.RGBA, _ int) *image.RGBA { return img }
func (n *NoOp) Forward(*job.ImageLocation, int)          {}
func (n *NoOp) Reverse(*job.ImageLocation, int)          {}
func (n *NoOp) OutputSize(int) image.Point               { return n.size }
func (n *NoOp) String() string                           { return "noop" }
