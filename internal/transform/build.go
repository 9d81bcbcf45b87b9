package transform

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/five82/framescope/internal/config"
	fserrors "github.com/five82/framescope/internal/errors"
	"github.com/five82/framescope/internal/geometry"
	"github.com/five82/framescope/internal/job"
	"github.com/five82/framescope/internal/logging"
)

// Options carries the defaults a job's properties may override.
type Options struct {
	Config *config.Config
	Logger *logging.Logger
}

// Build selects the transform chain for a job whose decoded frames have
// the given size.
func Build(j *job.Job, frameSize image.Point, opts Options) (*Chain, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Global()
	}

	threshold, err := floatProperty(j.Properties, job.PropRotationThreshold, cfg.RotationThreshold)
	if err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > config.MaxRotationThreshold {
		return nil, fserrors.NewConfigError(fmt.Sprintf("%s %g outside [0, %g]", job.PropRotationThreshold, threshold, config.MaxRotationThreshold))
	}
	fill := cfg.Fill()
	if j.Properties.Has(job.PropRotationFillColor) {
		if fill, err = config.ParseColor(j.Properties[job.PropRotationFillColor]); err != nil {
			return nil, fserrors.NewConfigError(err.Error())
		}
	}

	if track := j.FeedForwardTrack; track != nil && len(track.Locations) > 0 {
		switch strings.ToUpper(j.Properties.String(job.PropFeedForwardType, job.FeedForwardNone)) {
		case job.FeedForwardRegion:
			return buildFeedForwardRegion(track, frameSize, fill, threshold)
		case job.FeedForwardSuperset:
			return buildSuperset(track, frameSize, fill, threshold)
		}
	}

	rotation, err := floatProperty(j.Properties, job.PropRotation, 0)
	if err != nil {
		return nil, err
	}
	if !j.Properties.Has(job.PropRotation) && j.Properties.Bool(job.PropAutoRotate, false) {
		if rotation, err = floatProperty(j.MediaProperties, job.PropRotation, 0); err != nil {
			return nil, err
		}
	}
	flip := j.Properties.Bool(job.PropHorizontalFlip, false)
	if !j.Properties.Has(job.PropHorizontalFlip) && j.Properties.Bool(job.PropAutoFlip, false) {
		flip = j.MediaProperties.Bool(job.PropHorizontalFlip, false)
	}
	search, err := ParseSearchRegion(j.Properties)
	if err != nil {
		return nil, err
	}

	chain := NewChain(frameSize)
	rotation, _ = geometry.SnapRotation(rotation, threshold)
	if rotation != 0 {
		a, err := NewAffine([]geometry.Region{geometry.RegionFromRect(image.Rectangle{Max: frameSize})}, AffineParams{
			Rotation:  rotation,
			Flip:      flip,
			Search:    search,
			Fill:      fill,
			Threshold: threshold,
		})
		if err != nil {
			return nil, err
		}
		if a.SearchRegionMissed() {
			logger.Warn("Search region lies outside the rotated frame, using the whole frame", "region", search.String())
		}
		chain.Append(a)
		return chain, nil
	}

	if flip {
		chain.Append(NewFlip(chain.Sizer(), threshold))
	}
	if search != nil {
		r := search.Resolve(chain.OutputSize(0))
		if r.Empty() {
			logger.Warn("Search region lies outside the frame, using the whole frame", "region", search.String())
		} else if r != (image.Rectangle{Max: chain.OutputSize(0)}) {
			crop, err := NewCrop(chain.Sizer(), r)
			if err != nil {
				return nil, err
			}
			chain.Append(crop)
		}
	}
	if chain.Len() == 0 {
		chain.Append(NewNoOp(frameSize))
	}
	return chain, nil
}

func buildFeedForwardRegion(track *job.Track, frameSize image.Point, fill color.RGBA, threshold float64) (*Chain, error) {
	chain := NewChain(frameSize)
	locs := track.OrderedLocations()

	upright := true
	for i := range locs {
		if !locationRegion(&locs[i]).Upright(threshold) {
			upright = false
			break
		}
	}

	if upright {
		rects := make([]image.Rectangle, len(locs))
		for i := range locs {
			l := &locs[i]
			rects[i] = image.Rect(l.X, l.Y, l.X+l.Width, l.Y+l.Height)
		}
		crop, err := NewFeedForwardCrop(chain.Sizer(), rects)
		if err != nil {
			return nil, err
		}
		chain.Append(crop)
		return chain, nil
	}

	stage, err := NewFeedForwardAffine(chain.Sizer(), locs, fill, threshold)
	if err != nil {
		return nil, err
	}
	chain.Append(stage)
	return chain, nil
}

func buildSuperset(track *job.Track, frameSize image.Point, fill color.RGBA, threshold float64) (*Chain, error) {
	chain := NewChain(frameSize)
	locs := track.OrderedLocations()
	regions := make([]geometry.Region, len(locs))
	for i := range locs {
		regions[i] = locationRegion(&locs[i])
	}

	first := regions[0]
	if first.Upright(threshold) {
		crop, err := NewCrop(chain.Sizer(), geometry.PixelRect(geometry.RegionBounds(regions)))
		if err != nil {
			return nil, err
		}
		chain.Append(crop)
		return chain, nil
	}

	a, err := NewAffine(regions, AffineParams{
		Rotation:  first.Rotation,
		Flip:      first.Flip,
		Fill:      fill,
		Threshold: threshold,
	})
	if err != nil {
		return nil, err
	}
	chain.Append(a)
	return chain, nil
}

// floatProperty is Properties.Float that rejects malformed values.
func floatProperty(props job.Properties, key string, def float64) (float64, error) {
	if !props.Has(key) {
		return def, nil
	}
	v, err := strconv.ParseFloat(props.String(key, ""), 64)
	if err != nil {
		return 0, fserrors.NewConfigError(fmt.Sprintf("invalid %s value '%s'", key, props[key]))
	}
	return v, nil
}
