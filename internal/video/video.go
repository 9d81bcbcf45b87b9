// Package video defines the raw decoder boundary that frame sources drive.
package video

import (
	"errors"
	"image"
)

// ErrEndOfStream is returned by Read and Grab when the decoder has no more frames.
var ErrEndOfStream = errors.New("end of stream")

// Decoder is a sequential video decoder with an unreliable native seek.
// Its read position starts at frame 0 after opening.
type Decoder interface {
	// FrameCount reports the number of frames the container claims to hold.
	FrameCount() int
	// FrameRate reports frames per second.
	FrameRate() float64
	// FrameSize reports the decoded frame dimensions.
	FrameSize() image.Point
	// Read decodes the next frame and advances one position.
	Read() (*image.RGBA, error)
	// Grab advances one position without producing an image.
	Grab() error
	// SetPosition attempts a native seek so the next Read returns frame n.
	// A false result leaves the read position undefined.
	SetPosition(n int) bool
	// Close releases the decoder.
	Close() error
}

// Opener opens a decoder for a media path.
type Opener func(path string) (Decoder, error)
