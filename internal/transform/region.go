package transform

import (
	"fmt"
	"image"
	"math"
	"regexp"
	"strconv"
	"strings"

	fserrors "github.com/five82/framescope/internal/errors"
	"github.com/five82/framescope/internal/job"
)

// searchRegionRegex matches the W:H:X:Y shorthand, optionally written as an
// ffmpeg crop filter.
var searchRegionRegex = regexp.MustCompile(`^(?:crop=)?(\d+):(\d+):(\d+):(\d+)$`)

// edge is one side of a search region: pixels, a percentage of the frame
// extent, or unset for the frame edge.
type edge struct {
	value   float64
	percent bool
	set     bool
}

func parseEdge(key, s string) (edge, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return edge{}, nil
	}
	percent := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return edge{}, fserrors.NewConfigError(fmt.Sprintf("invalid %s value '%s'", key, s))
	}
	if v < 0 {
		return edge{}, nil
	}
	if percent && v > 100 {
		v = 100
	}
	return edge{value: v, percent: percent, set: true}, nil
}

func (e edge) resolve(extent, def int) int {
	switch {
	case !e.set:
		return def
	case e.percent:
		return int(math.Round(e.value / 100 * float64(extent)))
	default:
		return int(e.value)
	}
}

func (e edge) String() string {
	switch {
	case !e.set:
		return "edge"
	case e.percent:
		return strconv.FormatFloat(e.value, 'f', -1, 64) + "%"
	default:
		return strconv.FormatFloat(e.value, 'f', -1, 64)
	}
}

// SearchRegion is the part of the transformed frame a job asks to keep.
type SearchRegion struct {
	left, top, right, bottom edge
}

// ParseSearchRegion reads the search region job properties. It returns nil
// when the job does not ask for one.
func ParseSearchRegion(props job.Properties) (*SearchRegion, error) {
	if props.Bool(job.PropSearchRegionEnable, false) {
		var s SearchRegion
		var err error
		fields := []struct {
			key string
			dst *edge
		}{
			{job.PropSearchRegionTopLeftX, &s.left},
			{job.PropSearchRegionTopLeftY, &s.top},
			{job.PropSearchRegionBottomX, &s.right},
			{job.PropSearchRegionBottomY, &s.bottom},
		}
		for _, f := range fields {
			if *f.dst, err = parseEdge(f.key, props[f.key]); err != nil {
				return nil, err
			}
		}
		return &s, nil
	}

	if !props.Has(job.PropSearchRegion) {
		return nil, nil
	}
	value := props.String(job.PropSearchRegion, "")
	m := searchRegionRegex.FindStringSubmatch(value)
	if m == nil {
		return nil, fserrors.NewConfigError(fmt.Sprintf("invalid %s '%s', expected W:H:X:Y", job.PropSearchRegion, value))
	}
	var dims [4]int
	for i, field := range m[1:5] {
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, fserrors.NewConfigError(fmt.Sprintf("invalid %s value '%s'", job.PropSearchRegion, value))
		}
		dims[i] = v
	}
	w, h, x, y := dims[0], dims[1], dims[2], dims[3]
	return &SearchRegion{
		left:   edge{value: float64(x), set: true},
		top:    edge{value: float64(y), set: true},
		right:  edge{value: float64(x + w), set: true},
		bottom: edge{value: float64(y + h), set: true},
	}, nil
}

// Resolve returns the region within a frame of the given size. The result
// is empty when the region misses the frame.
func (s *SearchRegion) Resolve(size image.Point) image.Rectangle {
	r := image.Rectangle{
		Min: image.Pt(s.left.resolve(size.X, 0), s.top.resolve(size.Y, 0)),
		Max: image.Pt(s.right.resolve(size.X, size.X), s.bottom.resolve(size.Y, size.Y)),
	}
	return r.Intersect(image.Rectangle{Max: size})
}

func (s *SearchRegion) String() string {
	return fmt.Sprintf("(%s,%s)-(%s,%s)", s.left, s.top, s.right, s.bottom)
}
