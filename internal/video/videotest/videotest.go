// Package videotest provides an in-memory video.Decoder for tests.
package videotest

import (
	"image"
	"image/color"
	"sync"

	"github.com/five82/framescope/internal/video"
)

// Media describes a synthetic clip and the ways its decoders misbehave.
// Every decoder opened from the same Media shares its counters.
type Media struct {
	Frames int
	Rate   float64
	Size   image.Point

	// SetPositionFails makes every native seek report failure.
	SetPositionFails bool
	// SetPositionLands, when non-nil, picks where a native seek actually lands.
	SetPositionLands func(requested int) int
	// GrabLimit makes Grab fail once a decoder has grabbed this many frames.
	// Zero means unlimited.
	GrabLimit int
	// ReadFailures lists frame indices whose next Read fails once.
	ReadFailures map[int]int

	mu    sync.Mutex
	opens int
	reads []int
}

// Opener returns a video.Opener that opens decoders over m.
func (m *Media) Opener() video.Opener {
	return func(string) (video.Decoder, error) {
		m.mu.Lock()
		m.opens++
		m.mu.Unlock()
		return &Decoder{media: m}, nil
	}
}

// Opens reports how many decoders were opened.
func (m *Media) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// Reads reports the frame index of every successful Read, in order.
func (m *Media) Reads() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.reads))
	copy(out, m.reads)
	return out
}

// FrameImage draws the synthetic image for frame n. The frame index is
// encoded in the red and green channels of every pixel.
func (m *Media) FrameImage(n int) *image.RGBA {
	img := image.NewRGBA(image.Rectangle{Max: m.Size})
	c := color.RGBA{R: uint8(n), G: uint8(n >> 8), B: 0x80, A: 0xff}
	for y := 0; y < m.Size.Y; y++ {
		for x := 0; x < m.Size.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// FrameIndex decodes the frame index drawn by FrameImage at pixel p.
func FrameIndex(img *image.RGBA, p image.Point) int {
	c := img.RGBAAt(p.X, p.Y)
	return int(c.R) | int(c.G)<<8
}

// Decoder is a video.Decoder over a Media.
type Decoder struct {
	media   *Media
	pos     int
	grabbed int
	closed  bool
}

func (d *Decoder) FrameCount() int        { return d.media.Frames }
func (d *Decoder) FrameRate() float64     { return d.media.Rate }
func (d *Decoder) FrameSize() image.Point { return d.media.Size }

// Position reports the decoder's true read position.
func (d *Decoder) Position() int { return d.pos }

func (d *Decoder) Read() (*image.RGBA, error) {
	if d.closed || d.pos >= d.media.Frames {
		return nil, video.ErrEndOfStream
	}

	d.media.mu.Lock()
	if left := d.media.ReadFailures[d.pos]; left > 0 {
		d.media.ReadFailures[d.pos] = left - 1
		d.media.mu.Unlock()
		d.pos++
		return nil, errReadFailed
	}
	d.media.reads = append(d.media.reads, d.pos)
	d.media.mu.Unlock()

	img := d.media.FrameImage(d.pos)
	d.pos++
	return img, nil
}

func (d *Decoder) Grab() error {
	if d.closed || d.pos >= d.media.Frames {
		return video.ErrEndOfStream
	}
	if d.media.GrabLimit > 0 && d.grabbed >= d.media.GrabLimit {
		return errGrabFailed
	}
	d.grabbed++
	d.pos++
	return nil
}

func (d *Decoder) SetPosition(n int) bool {
	if d.closed || d.media.SetPositionFails {
		return false
	}
	if n < 0 || n >= d.media.Frames {
		return false
	}
	if d.media.SetPositionLands != nil {
		d.pos = d.media.SetPositionLands(n)
		return d.pos == n
	}
	d.pos = n
	return true
}

func (d *Decoder) Close() error {
	d.closed = true
	return nil
}

type decodeError string

func (e decodeError) Error() string { return string(e) }

const (
	errReadFailed = decodeError("synthetic read failure")
	errGrabFailed = decodeError("synthetic grab failure")
)
