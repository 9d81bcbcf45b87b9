package reporter

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONReporter outputs one JSON event per line.
type JSONReporter struct {
	writer             io.Writer
	mu                 sync.Mutex
	now                func() time.Time
	lastProgressBucket int
	lastProgressTime   time.Time
}

// NewJSONReporter creates a new JSON reporter that writes to stdout.
func NewJSONReporter() *JSONReporter {
	return NewJSONReporterWithWriter(os.Stdout)
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer) *JSONReporter {
	return &JSONReporter{
		writer:             w,
		now:                time.Now,
		lastProgressBucket: -1,
	}
}

func (r *JSONReporter) write(event string, fields map[string]any) {
	fields["type"] = event
	fields["timestamp"] = r.now().Unix()

	data, err := json.Marshal(fields)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) Hardware(summary HardwareSummary) {
	r.write("hardware", map[string]any{
		"hostname":         summary.Hostname,
		"platform":         summary.Platform,
		"logical_cores":    summary.LogicalCores,
		"available_memory": summary.AvailableMemory,
	})
}

func (r *JSONReporter) SourceInfo(summary SourceSummary) {
	r.write("source_info", map[string]any{
		"job_id":          summary.JobID,
		"media_path":      summary.MediaPath,
		"backend":         summary.Backend,
		"original_size":   summary.OriginalSize,
		"original_frames": summary.OriginalFrames,
		"original_rate":   summary.OriginalRate,
		"duration":        summary.Duration,
		"frames":          summary.Frames,
		"rate":            summary.Rate,
		"frame_size":      summary.FrameSize,
		"seek_strategy":   summary.SeekStrategy,
		"transform":       summary.Transform,
	})
}

func (r *JSONReporter) ExtractStarted(info ExtractStartInfo) {
	r.mu.Lock()
	r.lastProgressBucket = -1
	r.lastProgressTime = time.Time{}
	r.mu.Unlock()

	r.write("extract_started", map[string]any{
		"total_frames": info.TotalFrames,
		"output_dir":   info.OutputDir,
		"async":        info.Async,
	})
}

// ExtractProgress emits at most one event per whole percent, plus one every
// five seconds while the percentage stalls.
func (r *JSONReporter) ExtractProgress(progress ProgressSnapshot) {
	const minInterval = 5 * time.Second

	bucket := int(progress.Percent)
	now := r.now()

	r.mu.Lock()
	intervalElapsed := r.lastProgressTime.IsZero() || now.Sub(r.lastProgressTime) >= minInterval
	if bucket <= r.lastProgressBucket && !intervalElapsed && progress.Percent < 100 {
		r.mu.Unlock()
		return
	}
	r.lastProgressBucket = max(r.lastProgressBucket, bucket)
	r.lastProgressTime = now
	r.mu.Unlock()

	r.write("extract_progress", map[string]any{
		"current_frame": progress.CurrentFrame,
		"total_frames":  progress.TotalFrames,
		"media_time":    progress.MediaTime,
		"percent":       progress.Percent,
		"fps":           progress.FPS,
		"eta_seconds":   int64(progress.ETA.Seconds()),
	})
}

func (r *JSONReporter) ExtractComplete(summary ExtractOutcome) {
	r.write("extract_complete", map[string]any{
		"media_path":       summary.MediaPath,
		"output_dir":       summary.OutputDir,
		"frames":           summary.Frames,
		"bytes":            summary.Bytes,
		"duration_seconds": int64(summary.TotalTime.Seconds()),
		"average_fps":      summary.AverageFPS,
	})
}

func (r *JSONReporter) TracksMapped(summary MapSummary) {
	r.write("tracks_mapped", map[string]any{
		"input":     summary.Input,
		"output":    summary.Output,
		"direction": summary.Direction,
		"tracks":    summary.Tracks,
		"locations": summary.Locations,
	})
}

func (r *JSONReporter) Warning(message string) {
	r.write("warning", map[string]any{"message": message})
}

func (r *JSONReporter) Error(err ReporterError) {
	r.write("error", map[string]any{
		"title":      err.Title,
		"message":    err.Message,
		"context":    err.Context,
		"suggestion": err.Suggestion,
	})
}

func (r *JSONReporter) OperationComplete(message string) {
	r.write("operation_complete", map[string]any{"message": message})
}

func (r *JSONReporter) Verbose(message string) {
	r.write("verbose", map[string]any{"message": message})
}
