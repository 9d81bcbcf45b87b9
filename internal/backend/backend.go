// Package backend maps a configured decoder backend to a video.Opener.
package backend

import (
	"fmt"

	"github.com/five82/framescope/internal/config"
	"github.com/five82/framescope/internal/ffms"
	"github.com/five82/framescope/internal/opencv"
	"github.com/five82/framescope/internal/util"
	"github.com/five82/framescope/internal/video"
)

// Opener returns the decoder opener for b. FFMS2 decodes with one thread
// per physical core.
func Opener(b config.Backend) (video.Opener, error) {
	switch b {
	case config.BackendOpenCV:
		return opencv.Open, nil
	case config.BackendFFMS:
		return ffms.NewOpener(util.PhysicalCores()), nil
	default:
		return nil, fmt.Errorf("unsupported decoder backend %q", b)
	}
}
