// Package config provides configuration types and defaults for framescope.
package config

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default constants
const (
	// DefaultSmallSeekThreshold is the largest forward hop, in frames, that a
	// direct-set seek hands to grab stepping instead of the native seek.
	DefaultSmallSeekThreshold = 16

	// DefaultQueueCapacity is the number of decoded frames the async source
	// buffers ahead of the consumer.
	DefaultQueueCapacity = 4

	// DefaultRotationThreshold is the angle, in degrees, under which two
	// rotations are treated as equal.
	DefaultRotationThreshold = 0.1

	// DefaultFillColor fills destination pixels not covered by a rotated frame.
	DefaultFillColor = "BLACK"

	// DefaultProbeNice is the niceness applied to probe subprocesses.
	DefaultProbeNice = 10

	// MaxProbeNice is the largest niceness accepted by setpriority.
	MaxProbeNice = 19

	// MaxRotationThreshold bounds the rotation threshold below half a quadrant.
	MaxRotationThreshold = 45.0
)

// Backend names a raw decoder implementation.
type Backend string

const (
	BackendOpenCV Backend = "opencv"
	BackendFFMS   Backend = "ffms"
)

// ParseBackend parses a string into a Backend.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "opencv", "":
		return BackendOpenCV, nil
	case "ffms", "ffms2":
		return BackendFFMS, nil
	default:
		return "", fmt.Errorf("%w: '%s', valid options: opencv, ffms", ErrInvalidBackend, s)
	}
}

// String returns the string representation of the backend.
func (b Backend) String() string {
	return string(b)
}

// Config holds runtime settings shared by every job.
type Config struct {
	// Seeking
	SmallSeekThreshold int `yaml:"small_seek_threshold"`

	// Async reading
	QueueCapacity int `yaml:"queue_capacity"`

	// Geometry
	RotationThreshold float64 `yaml:"rotation_threshold"`
	FillColor         string  `yaml:"fill_color"`

	// Probing
	ProbeLowPriority bool   `yaml:"probe_low_priority"`
	ProbeNice        int    `yaml:"probe_nice"`
	FFprobePath      string `yaml:"ffprobe_path"`

	// Decoding
	Backend Backend `yaml:"backend"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		SmallSeekThreshold: DefaultSmallSeekThreshold,
		QueueCapacity:      DefaultQueueCapacity,
		RotationThreshold:  DefaultRotationThreshold,
		FillColor:          DefaultFillColor,
		ProbeLowPriority:   true,
		ProbeNice:          DefaultProbeNice,
		FFprobePath:        "ffprobe",
		Backend:            BackendOpenCV,
	}
}

// Load reads YAML overrides from path on top of the defaults and validates
// the result.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.SmallSeekThreshold < 0 {
		return fmt.Errorf("%w: must be >= 0, got %d", ErrInvalidSeekThreshold, c.SmallSeekThreshold)
	}

	if c.QueueCapacity < 1 {
		return fmt.Errorf("%w: must be >= 1, got %d", ErrInvalidQueueCapacity, c.QueueCapacity)
	}

	if c.RotationThreshold < 0 || c.RotationThreshold >= MaxRotationThreshold {
		return fmt.Errorf("%w: must be 0-%g, got %g", ErrInvalidRotationThreshold, MaxRotationThreshold, c.RotationThreshold)
	}

	if _, err := ParseColor(c.FillColor); err != nil {
		return err
	}

	if c.ProbeNice < 0 || c.ProbeNice > MaxProbeNice {
		return fmt.Errorf("%w: must be 0-%d, got %d", ErrInvalidNice, MaxProbeNice, c.ProbeNice)
	}

	if _, err := ParseBackend(string(c.Backend)); err != nil {
		return err
	}

	return nil
}

// Fill returns the parsed fill color. Validate guarantees it parses.
func (c *Config) Fill() color.RGBA {
	fill, err := ParseColor(c.FillColor)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return fill
}

// ParseColor parses BLACK, WHITE or a #rrggbb hex triplet.
func ParseColor(s string) (color.RGBA, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "BLACK":
		return color.RGBA{A: 0xff}, nil
	case "WHITE":
		return color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, nil
	}

	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: '%s', valid options: BLACK, WHITE, #rrggbb", ErrInvalidFillColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: '%s': %v", ErrInvalidFillColor, s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
