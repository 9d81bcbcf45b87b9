// Package opencv provides a video.Decoder backed by OpenCV's VideoCapture.
//
// Frame positions reported by VideoCapture are only trustworthy for
// constant frame rate media; sources fall back to sequential seeking when a
// native seek lands elsewhere.
package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
	"golang.org/x/image/draw"

	"github.com/five82/framescope/internal/video"
)

// Decoder wraps a gocv.VideoCapture.
type Decoder struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	frames  int
	rate    float64
	size    image.Point
	pos     int
}

// Open opens path for decoding. It satisfies video.Opener.
func Open(path string) (video.Decoder, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video capture: %w", err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return nil, fmt.Errorf("video capture for %s did not open", path)
	}

	return &Decoder{
		capture: capture,
		mat:     gocv.NewMat(),
		frames:  int(capture.Get(gocv.VideoCaptureFrameCount)),
		rate:    capture.Get(gocv.VideoCaptureFPS),
		size: image.Pt(
			int(capture.Get(gocv.VideoCaptureFrameWidth)),
			int(capture.Get(gocv.VideoCaptureFrameHeight)),
		),
	}, nil
}

func (d *Decoder) FrameCount() int        { return d.frames }
func (d *Decoder) FrameRate() float64     { return d.rate }
func (d *Decoder) FrameSize() image.Point { return d.size }

func (d *Decoder) Read() (*image.RGBA, error) {
	if d.capture == nil {
		return nil, video.ErrEndOfStream
	}
	if ok := d.capture.Read(&d.mat); !ok || d.mat.Empty() {
		if d.pos >= d.frames {
			return nil, video.ErrEndOfStream
		}
		d.pos++
		return nil, fmt.Errorf("failed to read frame %d", d.pos-1)
	}
	d.pos++

	img, err := d.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame %d: %w", d.pos-1, err)
	}
	return toRGBA(img), nil
}

// Grab advances one frame without retrieving it. VideoCapture.Grab does not
// report failure, so the capture position is checked afterward.
func (d *Decoder) Grab() error {
	if d.capture == nil || d.pos >= d.frames {
		return video.ErrEndOfStream
	}
	before := d.capture.Get(gocv.VideoCapturePosFrames)
	d.capture.Grab(1)
	if d.capture.Get(gocv.VideoCapturePosFrames) <= before {
		return fmt.Errorf("failed to grab frame %d", d.pos)
	}
	d.pos++
	return nil
}

// SetPosition seeks natively and reports whether the capture landed on n.
func (d *Decoder) SetPosition(n int) bool {
	if d.capture == nil || n < 0 || n >= d.frames {
		return false
	}
	d.capture.Set(gocv.VideoCapturePosFrames, float64(n))
	d.pos = int(d.capture.Get(gocv.VideoCapturePosFrames))
	return d.pos == n
}

func (d *Decoder) Close() error {
	if d.capture == nil {
		return nil
	}
	err := d.capture.Close()
	_ = d.mat.Close()
	d.capture = nil
	return err
}

// toRGBA converts img to an origin-based RGBA image, copying only when the
// decoder returned another layout.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rectangle{Max: b.Size()})
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
