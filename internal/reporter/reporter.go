package reporter

// Reporter defines the interface for progress reporting.
type Reporter interface {
	Hardware(summary HardwareSummary)
	SourceInfo(summary SourceSummary)
	ExtractStarted(info ExtractStartInfo)
	ExtractProgress(progress ProgressSnapshot)
	ExtractComplete(summary ExtractOutcome)
	TracksMapped(summary MapSummary)
	Warning(message string)
	Error(err ReporterError)
	OperationComplete(message string)
	Verbose(message string)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) Hardware(HardwareSummary)         {}
func (NullReporter) SourceInfo(SourceSummary)         {}
func (NullReporter) ExtractStarted(ExtractStartInfo)  {}
func (NullReporter) ExtractProgress(ProgressSnapshot) {}
func (NullReporter) ExtractComplete(ExtractOutcome)   {}
func (NullReporter) TracksMapped(MapSummary)          {}
func (NullReporter) Warning(string)                   {}
func (NullReporter) Error(ReporterError)              {}
func (NullReporter) OperationComplete(string)         {}
func (NullReporter) Verbose(string)                   {}
