// Package ffms provides a frame-accurate video.Decoder backed by FFMS2.
package ffms

/*
#cgo pkg-config: ffms2
#include <ffms.h>
#include <stdlib.h>
#include <string.h>

#define ERR_BUF_SIZE 1024

// Helper to create an error info struct with C-allocated buffer
static FFMS_ErrorInfo* create_error_info() {
	FFMS_ErrorInfo* err = (FFMS_ErrorInfo*)malloc(sizeof(FFMS_ErrorInfo));
	err->Buffer = (char*)malloc(ERR_BUF_SIZE);
	err->BufferSize = ERR_BUF_SIZE;
	err->Buffer[0] = '\0';
	return err;
}

// Helper to free error info struct
static void free_error_info(FFMS_ErrorInfo* err) {
	if (err) {
		free(err->Buffer);
		free(err);
	}
}

// Helper to get error message from FFMS_ErrorInfo
static const char* get_error_message(FFMS_ErrorInfo* err) {
	return err->Buffer;
}

// Ask the source for packed RGBA at its native size.
static int set_rgba_output(FFMS_VideoSource* src, int width, int height, FFMS_ErrorInfo* err) {
	int formats[2];
	formats[0] = FFMS_GetPixFmt("rgba");
	formats[1] = -1;
	return FFMS_SetOutputFormatV2(src, formats, width, height, FFMS_RESIZER_BICUBIC, err);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"unsafe"

	"github.com/five82/framescope/internal/video"
)

var initOnce sync.Once

// Init initializes the FFMS2 library. Safe to call multiple times.
func Init() {
	initOnce.Do(func() {
		C.FFMS_Init(0, 0)
	})
}

func errorMessage(errInfo *C.FFMS_ErrorInfo) string {
	return C.GoString(C.get_error_message(errInfo))
}

// Decoder reads frames through an FFMS2 index. Native seeks are exact, so
// SetPosition never fails inside the clip.
type Decoder struct {
	idx    *C.FFMS_Index
	src    *C.FFMS_VideoSource
	frames int
	rate   float64
	size   image.Point
	pos    int
}

// NewOpener returns a video.Opener that decodes with threads decoder threads.
// Zero lets FFMS2 choose.
func NewOpener(threads int) video.Opener {
	return func(path string) (video.Decoder, error) {
		return Open(path, threads)
	}
}

// Open indexes path and opens its first video track.
func Open(path string, threads int) (*Decoder, error) {
	Init()

	errInfo := C.create_error_info()
	defer C.free_error_info(errInfo)

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	indexer := C.FFMS_CreateIndexer(cPath, errInfo)
	if indexer == nil {
		return nil, fmt.Errorf("failed to create indexer: %s", errorMessage(errInfo))
	}
	idx := C.FFMS_DoIndexing2(indexer, C.int(C.FFMS_IEH_ABORT), errInfo)
	if idx == nil {
		return nil, fmt.Errorf("failed to index: %s", errorMessage(errInfo))
	}

	d := &Decoder{idx: idx}
	if err := d.openSource(cPath, threads, errInfo); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Decoder) openSource(cPath *C.char, threads int, errInfo *C.FFMS_ErrorInfo) error {
	trackNum := C.FFMS_GetFirstTrackOfType(d.idx, C.FFMS_TYPE_VIDEO, errInfo)
	if trackNum < 0 {
		return fmt.Errorf("no video track found: %s", errorMessage(errInfo))
	}

	d.src = C.FFMS_CreateVideoSource(cPath, trackNum, d.idx, C.int(threads), C.FFMS_SEEK_NORMAL, errInfo)
	if d.src == nil {
		return fmt.Errorf("failed to create video source: %s", errorMessage(errInfo))
	}

	props := C.FFMS_GetVideoProperties(d.src)
	if props == nil {
		return errors.New("failed to get video properties")
	}
	d.frames = int(props.NumFrames)
	if props.FPSDenominator > 0 {
		d.rate = float64(props.FPSNumerator) / float64(props.FPSDenominator)
	}

	// The first frame carries the coded size.
	frame := C.FFMS_GetFrame(d.src, 0, errInfo)
	if frame == nil {
		return fmt.Errorf("failed to get first frame: %s", errorMessage(errInfo))
	}
	d.size = image.Pt(int(frame.EncodedWidth), int(frame.EncodedHeight))

	if C.set_rgba_output(d.src, C.int(d.size.X), C.int(d.size.Y), errInfo) != 0 {
		return fmt.Errorf("failed to select RGBA output: %s", errorMessage(errInfo))
	}
	return nil
}

func (d *Decoder) FrameCount() int        { return d.frames }
func (d *Decoder) FrameRate() float64     { return d.rate }
func (d *Decoder) FrameSize() image.Point { return d.size }

// Read decodes the frame at the current position into a new RGBA image.
func (d *Decoder) Read() (*image.RGBA, error) {
	if d.src == nil || d.pos >= d.frames {
		return nil, video.ErrEndOfStream
	}

	errInfo := C.create_error_info()
	defer C.free_error_info(errInfo)

	frame := C.FFMS_GetFrame(d.src, C.int(d.pos), errInfo)
	if frame == nil {
		err := fmt.Errorf("failed to get frame %d: %s", d.pos, errorMessage(errInfo))
		d.pos++
		return nil, err
	}

	img := image.NewRGBA(image.Rectangle{Max: d.size})
	srcStride := int(frame.Linesize[0])
	data := unsafe.Slice((*byte)(unsafe.Pointer(frame.Data[0])), srcStride*d.size.Y)
	copyRows(img.Pix, data, d.size.Y, img.Stride, srcStride)

	d.pos++
	return img, nil
}

// Grab skips a frame. FFMS2 decodes on demand, so nothing is decoded.
func (d *Decoder) Grab() error {
	if d.src == nil || d.pos >= d.frames {
		return video.ErrEndOfStream
	}
	d.pos++
	return nil
}

func (d *Decoder) SetPosition(n int) bool {
	if d.src == nil || n < 0 || n >= d.frames {
		return false
	}
	d.pos = n
	return true
}

// Close releases the video source and index.
func (d *Decoder) Close() error {
	if d.src != nil {
		C.FFMS_DestroyVideoSource(d.src)
		d.src = nil
	}
	if d.idx != nil {
		C.FFMS_DestroyIndex(d.idx)
		d.idx = nil
	}
	return nil
}

// copyRows copies rows of rowLen bytes between buffers with different strides.
func copyRows(dst, src []byte, rows, rowLen, srcStride int) {
	srcOff := 0
	dstOff := 0
	for row := 0; row < rows; row++ {
		copy(dst[dstOff:dstOff+rowLen], src[srcOff:srcOff+rowLen])
		srcOff += srcStride
		dstOff += rowLen
	}
}
