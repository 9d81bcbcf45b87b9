// Package reporter provides progress reporting interfaces and implementations.
package reporter

import "time"

// HardwareSummary contains hardware information.
type HardwareSummary struct {
	Hostname        string
	Platform        string
	LogicalCores    int
	AvailableMemory string
}

// SourceSummary describes an opened frame source.
type SourceSummary struct {
	JobID          string
	MediaPath      string
	Backend        string
	OriginalSize   string
	OriginalFrames int
	OriginalRate   float64
	Duration       string
	Frames         int
	Rate           float64
	FrameSize      string
	SeekStrategy   string
	Transform      string
}

// ExtractStartInfo describes an extraction run before the first frame.
type ExtractStartInfo struct {
	TotalFrames int
	OutputDir   string
	Async       bool
}

// ProgressSnapshot contains extraction progress information.
type ProgressSnapshot struct {
	CurrentFrame int
	TotalFrames  int
	// MediaTime is the playback position of the last frame written.
	MediaTime string
	Percent   float32
	FPS       float32
	ETA       time.Duration
}

// ExtractOutcome contains final extraction results.
type ExtractOutcome struct {
	MediaPath  string
	OutputDir  string
	Frames     int
	Bytes      uint64
	TotalTime  time.Duration
	AverageFPS float32
}

// MapSummary describes a track file mapped between segment and media space.
type MapSummary struct {
	Input     string
	Output    string
	Direction string
	Tracks    int
	Locations int
}

// ReporterError contains error information.
type ReporterError struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}
