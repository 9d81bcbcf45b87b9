package reporter

import "github.com/five82/framescope/internal/logging"

// CompositeReporter fans out events to multiple reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a composite reporter.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	return &CompositeReporter{reporters: reporters}
}

func (c *CompositeReporter) each(fn func(Reporter)) {
	for _, r := range c.reporters {
		fn(r)
	}
}

func (c *CompositeReporter) Hardware(s HardwareSummary) { c.each(func(r Reporter) { r.Hardware(s) }) }
func (c *CompositeReporter) SourceInfo(s SourceSummary) { c.each(func(r Reporter) { r.SourceInfo(s) }) }
func (c *CompositeReporter) ExtractStarted(i ExtractStartInfo) {
	c.each(func(r Reporter) { r.ExtractStarted(i) })
}
func (c *CompositeReporter) ExtractProgress(p ProgressSnapshot) {
	c.each(func(r Reporter) { r.ExtractProgress(p) })
}
func (c *CompositeReporter) ExtractComplete(s ExtractOutcome) {
	c.each(func(r Reporter) { r.ExtractComplete(s) })
}
func (c *CompositeReporter) TracksMapped(s MapSummary) {
	c.each(func(r Reporter) { r.TracksMapped(s) })
}
func (c *CompositeReporter) Warning(m string)      { c.each(func(r Reporter) { r.Warning(m) }) }
func (c *CompositeReporter) Error(e ReporterError) { c.each(func(r Reporter) { r.Error(e) }) }
func (c *CompositeReporter) OperationComplete(m string) {
	c.each(func(r Reporter) { r.OperationComplete(m) })
}
func (c *CompositeReporter) Verbose(m string) { c.each(func(r Reporter) { r.Verbose(m) }) }

// LogReporter records reporter events in a log. Progress snapshots are logged
// at debug level.
type LogReporter struct {
	logger *logging.Logger
}

// NewLogReporter creates a reporter that writes to logger.
func NewLogReporter(logger *logging.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (l *LogReporter) Hardware(s HardwareSummary) {
	l.logger.Info("Hardware", "hostname", s.Hostname, "platform", s.Platform, "cores", s.LogicalCores)
}

func (l *LogReporter) SourceInfo(s SourceSummary) {
	l.logger.Info("Source", "job", s.JobID, "media", s.MediaPath, "backend", s.Backend,
		"frames", s.Frames, "rate", s.Rate, "size", s.FrameSize,
		"seek", s.SeekStrategy, "transform", s.Transform)
}

func (l *LogReporter) ExtractStarted(i ExtractStartInfo) {
	l.logger.Info("Extraction started", "frames", i.TotalFrames, "output", i.OutputDir, "async", i.Async)
}

func (l *LogReporter) ExtractProgress(p ProgressSnapshot) {
	l.logger.Debug("Extraction progress", "frame", p.CurrentFrame, "total", p.TotalFrames, "time", p.MediaTime)
}

func (l *LogReporter) ExtractComplete(s ExtractOutcome) {
	l.logger.Info("Extraction complete", "frames", s.Frames, "bytes", s.Bytes, "elapsed", s.TotalTime)
}

func (l *LogReporter) TracksMapped(s MapSummary) {
	l.logger.Info("Tracks mapped", "direction", s.Direction, "tracks", s.Tracks,
		"locations", s.Locations, "input", s.Input, "output", s.Output)
}

func (l *LogReporter) Warning(m string) { l.logger.Warn(m) }

func (l *LogReporter) Error(e ReporterError) {
	l.logger.Error(e.Title, "message", e.Message, "context", e.Context)
}

func (l *LogReporter) OperationComplete(m string) { l.logger.Info(m) }
func (l *LogReporter) Verbose(m string)           { l.logger.Debug(m) }
