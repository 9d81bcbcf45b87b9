// Package config provides configuration types and defaults for framescope.
package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrInvalidSeekThreshold indicates a negative small-seek threshold.
	ErrInvalidSeekThreshold = errors.New("small seek threshold out of range")

	// ErrInvalidQueueCapacity indicates an async queue that cannot hold a frame.
	ErrInvalidQueueCapacity = errors.New("queue capacity out of range")

	// ErrInvalidRotationThreshold indicates a rotation threshold outside [0, 45).
	ErrInvalidRotationThreshold = errors.New("rotation threshold out of range")

	// ErrInvalidFillColor indicates a fill color that could not be parsed.
	ErrInvalidFillColor = errors.New("invalid fill color")

	// ErrInvalidBackend indicates an unknown decoder backend name.
	ErrInvalidBackend = errors.New("invalid decoder backend")

	// ErrInvalidNice indicates a probe niceness outside the 0-19 range.
	ErrInvalidNice = errors.New("probe niceness out of range")
)
