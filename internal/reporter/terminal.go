package reporter

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/five82/framescope/internal/util"
	"github.com/schollz/progressbar/v3"
)

// TerminalReporter outputs human-friendly text to the terminal.
type TerminalReporter struct {
	mu         sync.Mutex
	out        io.Writer
	errOut     io.Writer
	verbose    bool
	progress   *progressbar.ProgressBar
	maxPercent float32
	cyan       *color.Color
	green      *color.Color
	yellow     *color.Color
	red        *color.Color
	faint      *color.Color
	bold       *color.Color
}

// NewTerminalReporter creates a new terminal reporter. Verbose messages are
// printed only when verbose is set.
func NewTerminalReporter(verbose bool) *TerminalReporter {
	return &TerminalReporter{
		out:     os.Stdout,
		errOut:  os.Stderr,
		verbose: verbose,
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		faint:   color.New(color.Faint),
		bold:    color.New(color.Bold),
	}
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
	r.maxPercent = 0
}

func (r *TerminalReporter) section(title string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = r.cyan.Fprintln(r.out, title)
}

// printLabel prints a bold label with fixed width padding followed by a value.
// Width is applied to the plain text before styling to keep columns aligned.
func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) Hardware(summary HardwareSummary) {
	r.section("HARDWARE")
	r.printLabel(9, "Hostname:", summary.Hostname)
	r.printLabel(9, "Platform:", summary.Platform)
	r.printLabel(9, "Cores:", fmt.Sprintf("%d", summary.LogicalCores))
	if summary.AvailableMemory != "" {
		r.printLabel(9, "Memory:", summary.AvailableMemory+" available")
	}
}

func (r *TerminalReporter) SourceInfo(summary SourceSummary) {
	const w = 10
	r.section("MEDIA")
	r.printLabel(w, "File:", summary.MediaPath)
	r.printLabel(w, "Job:", summary.JobID)
	r.printLabel(w, "Backend:", summary.Backend)
	r.printLabel(w, "Original:", fmt.Sprintf("%s, %d frames, %s",
		summary.OriginalSize, summary.OriginalFrames, util.FormatFrameRate(summary.OriginalRate)))
	r.printLabel(w, "Duration:", summary.Duration)

	r.section("SEGMENT")
	r.printLabel(w, "Frames:", fmt.Sprintf("%d at %s", summary.Frames, util.FormatFrameRate(summary.Rate)))
	r.printLabel(w, "Size:", summary.FrameSize)
	r.printLabel(w, "Seek:", summary.SeekStrategy)
	r.printLabel(w, "Transform:", summary.Transform)
}

func (r *TerminalReporter) ExtractStarted(info ExtractStartInfo) {
	r.finishProgress()

	mode := "sequential"
	if info.Async {
		mode = "async"
	}
	r.section("EXTRACT")
	_, _ = fmt.Fprintf(r.out, "  %d frames -> %s %s\n",
		info.TotalFrames, r.bold.Sprint(info.OutputDir), r.faint.Sprintf("(%s)", mode))

	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress = progressbar.NewOptions64(
		100,
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(r.errOut),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "Frames [",
			BarEnd:        "]",
		}),
	)
}

func (r *TerminalReporter) ExtractProgress(progress ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.progress == nil {
		return
	}

	clamped := min(max(progress.Percent, 0), 100)
	if clamped >= r.maxPercent {
		r.maxPercent = clamped
		_ = r.progress.Set64(int64(clamped))
	}

	r.progress.Describe(fmt.Sprintf("%d/%d at %s, fps %.1f, eta %s",
		progress.CurrentFrame, progress.TotalFrames, progress.MediaTime,
		progress.FPS, util.FormatDurationFromSecs(int64(progress.ETA.Seconds()))))
}

func (r *TerminalReporter) ExtractComplete(summary ExtractOutcome) {
	r.finishProgress()

	r.section("RESULTS")
	r.printLabel(7, "Frames:", r.bold.Sprintf("%d", summary.Frames))
	r.printLabel(7, "Size:", util.FormatBytes(summary.Bytes))
	r.printLabel(7, "Time:", fmt.Sprintf("%s (avg %.1f fps)",
		util.FormatDurationFromSecs(int64(summary.TotalTime.Seconds())), summary.AverageFPS))
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.bold.Sprint("Saved to"), r.green.Sprint(summary.OutputDir))
}

func (r *TerminalReporter) TracksMapped(summary MapSummary) {
	r.section("TRACKS")
	r.printLabel(10, "Direction:", summary.Direction)
	r.printLabel(10, "Mapped:", fmt.Sprintf("%d tracks, %d locations", summary.Tracks, summary.Locations))
	r.printLabel(10, "Input:", summary.Input)
	r.printLabel(10, "Output:", summary.Output)
}

func (r *TerminalReporter) Warning(message string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = r.yellow.Fprintf(r.out, "WARN: %s\n", message)
}

func (r *TerminalReporter) Error(err ReporterError) {
	r.finishProgress()

	_, _ = fmt.Fprintln(r.errOut)
	_, _ = r.red.Fprintf(r.errOut, "ERROR %s\n", err.Title)
	_, _ = fmt.Fprintf(r.errOut, "  %s\n", err.Message)
	if err.Context != "" {
		_, _ = fmt.Fprintf(r.errOut, "  Context: %s\n", err.Context)
	}
	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(r.errOut, "  Suggestion: %s\n", err.Suggestion)
	}
}

func (r *TerminalReporter) OperationComplete(message string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = fmt.Fprintf(r.out, "%s %s\n", r.green.Add(color.Bold).Sprint("✓"), r.bold.Sprint(message))
}

func (r *TerminalReporter) Verbose(message string) {
	if !r.verbose {
		return
	}
	_, _ = fmt.Fprintf(r.out, "  %s\n", r.faint.Sprint(message))
}
