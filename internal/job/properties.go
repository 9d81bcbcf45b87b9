package job

import (
	"strconv"
	"strings"
)

// Property keys read by framescope.
const (
	PropFrameInterval        = "FRAME_INTERVAL"
	PropUseKeyFrames         = "USE_KEY_FRAMES"
	PropFeedForwardType      = "FEED_FORWARD_TYPE"
	PropRotation             = "ROTATION"
	PropHorizontalFlip       = "HORIZONTAL_FLIP"
	PropAutoRotate           = "AUTO_ROTATE"
	PropAutoFlip             = "AUTO_FLIP"
	PropRotationThreshold    = "ROTATION_THRESHOLD"
	PropRotationFillColor    = "ROTATION_FILL_COLOR"
	PropSearchRegionEnable   = "SEARCH_REGION_ENABLE_DETECTION"
	PropSearchRegionTopLeftX = "SEARCH_REGION_TOP_LEFT_X_DETECTION"
	PropSearchRegionTopLeftY = "SEARCH_REGION_TOP_LEFT_Y_DETECTION"
	PropSearchRegionBottomX  = "SEARCH_REGION_BOTTOM_RIGHT_X_DETECTION"
	PropSearchRegionBottomY  = "SEARCH_REGION_BOTTOM_RIGHT_Y_DETECTION"
	PropSearchRegion         = "SEARCH_REGION"
	PropConstantFrameRate    = "HAS_CONSTANT_FRAME_RATE"
	PropFrameCount           = "FRAME_COUNT"
	PropFrameRate            = "FPS"
)

// FEED_FORWARD_TYPE values.
const (
	FeedForwardNone     = "NONE"
	FeedForwardFrame    = "FRAME"
	FeedForwardRegion   = "REGION"
	FeedForwardSuperset = "SUPERSET_REGION"
)

// Properties is a string-keyed property map with typed lookups.
type Properties map[string]string

// Has reports whether key is set to a non-blank value.
func (p Properties) Has(key string) bool {
	v, ok := p[key]
	return ok && strings.TrimSpace(v) != ""
}

// String returns the trimmed value for key, or def when unset.
func (p Properties) String(key, def string) string {
	if !p.Has(key) {
		return def
	}
	return strings.TrimSpace(p[key])
}

// Int returns the integer value for key, or def when unset or malformed.
func (p Properties) Int(key string, def int) int {
	if !p.Has(key) {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(p[key]))
	if err != nil {
		return def
	}
	return v
}

// Float returns the float value for key, or def when unset or malformed.
func (p Properties) Float(key string, def float64) float64 {
	if !p.Has(key) {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(p[key]), 64)
	if err != nil {
		return def
	}
	return v
}

// Bool returns the boolean value for key. "true", "yes", "1" and "on" are
// true in any case; any other set value is false.
func (p Properties) Bool(key string, def bool) bool {
	if !p.Has(key) {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(p[key])) {
	case "true", "yes", "1", "on":
		return true
	default:
		return false
	}
}

// SetFloat stores v using the shortest representation that round-trips.
func (p Properties) SetFloat(key string, v float64) {
	p[key] = strconv.FormatFloat(v, 'f', -1, 64)
}

// SetBool stores v as "true" or "false".
func (p Properties) SetBool(key string, v bool) {
	p[key] = strconv.FormatBool(v)
}

// Clone returns a copy of p. A nil map clones to an empty one.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
