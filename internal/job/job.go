// Package job defines the job, track and detection values that drive a
// segmented frame source, and loads them from YAML.
package job

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ImageLocation is one detection box on one frame. ROTATION and
// HORIZONTAL_FLIP in Properties describe its orientation.
type ImageLocation struct {
	X          int        `yaml:"x"`
	Y          int        `yaml:"y"`
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Confidence float32    `yaml:"confidence"`
	Properties Properties `yaml:"properties,omitempty"`
}

// Rotation returns the ROTATION property in degrees, 0 when unset.
func (l *ImageLocation) Rotation() float64 {
	return l.Properties.Float(PropRotation, 0)
}

// Flipped reports the HORIZONTAL_FLIP property.
func (l *ImageLocation) Flipped() bool {
	return l.Properties.Bool(PropHorizontalFlip, false)
}

// ensureProperties allocates the property map before a transform writes to it.
func (l *ImageLocation) ensureProperties() {
	if l.Properties == nil {
		l.Properties = Properties{}
	}
}

// SetRotation stores a rotation in degrees.
func (l *ImageLocation) SetRotation(deg float64) {
	l.ensureProperties()
	l.Properties.SetFloat(PropRotation, deg)
}

// SetFlipped stores the horizontal flip flag.
func (l *ImageLocation) SetFlipped(flip bool) {
	l.ensureProperties()
	l.Properties.SetBool(PropHorizontalFlip, flip)
}

// ToggleFlip inverts the horizontal flip flag.
func (l *ImageLocation) ToggleFlip() {
	l.SetFlipped(!l.Flipped())
}

// Track is a run of detections keyed by frame index.
type Track struct {
	StartFrame int                   `yaml:"start_frame"`
	StopFrame  int                   `yaml:"stop_frame"`
	Confidence float32               `yaml:"confidence"`
	Locations  map[int]ImageLocation `yaml:"locations"`
	Properties Properties            `yaml:"properties,omitempty"`
}

// Frames returns the frame indices of the track's detections in ascending order.
func (t *Track) Frames() []int {
	frames := make([]int, 0, len(t.Locations))
	for f := range t.Locations {
		frames = append(frames, f)
	}
	sort.Ints(frames)
	return frames
}

// OrderedLocations returns the detections in frame order.
func (t *Track) OrderedLocations() []ImageLocation {
	frames := t.Frames()
	locs := make([]ImageLocation, len(frames))
	for i, f := range frames {
		locs[i] = t.Locations[f]
	}
	return locs
}

// Job describes one pass over a media file.
type Job struct {
	ID               uuid.UUID  `yaml:"id"`
	Name             string     `yaml:"name"`
	MediaPath        string     `yaml:"media_path"`
	StartFrame       int        `yaml:"start_frame"`
	StopFrame        int        `yaml:"stop_frame"`
	Properties       Properties `yaml:"properties"`
	MediaProperties  Properties `yaml:"media_properties"`
	FeedForwardTrack *Track     `yaml:"feed_forward_track,omitempty"`
}

// New creates a job over the whole of mediaPath with a fresh id.
// A negative StopFrame means "through the last frame".
func New(name, mediaPath string) *Job {
	return &Job{
		ID:              uuid.New(),
		Name:            name,
		MediaPath:       mediaPath,
		StopFrame:       -1,
		Properties:      Properties{},
		MediaProperties: Properties{},
	}
}

// Load reads a job from a YAML file.
func Load(path string) (*Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open job %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// Decode reads a job from YAML. Missing ids are generated, a missing
// stop_frame means "through the last frame".
func Decode(r io.Reader) (*Job, error) {
	j := &Job{StopFrame: -1}
	if err := yaml.NewDecoder(r).Decode(j); err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}

	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Properties == nil {
		j.Properties = Properties{}
	}
	if j.MediaProperties == nil {
		j.MediaProperties = Properties{}
	}
	if j.MediaPath == "" {
		return nil, fmt.Errorf("job %s has no media_path", j.ID)
	}
	return j, nil
}

// LoadTracks reads a YAML list of tracks.
func LoadTracks(path string) ([]Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tracks %s: %w", path, err)
	}

	var tracks []Track
	if err := yaml.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("failed to parse tracks %s: %w", path, err)
	}
	return tracks, nil
}

// WriteTracks writes tracks as a YAML list.
func WriteTracks(w io.Writer, tracks []Track) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tracks); err != nil {
		return fmt.Errorf("failed to write tracks: %w", err)
	}
	return enc.Close()
}
