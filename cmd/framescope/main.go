// Package main provides the CLI entry point for framescope.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/framescope"
	"github.com/five82/framescope/internal/backend"
	"github.com/five82/framescope/internal/config"
	"github.com/five82/framescope/internal/logging"
	"github.com/five82/framescope/internal/reporter"
	"github.com/five82/framescope/internal/util"
)

const (
	appName    = "framescope"
	appVersion = "0.1.0"
)

// globalArgs holds the flags shared by every command.
type globalArgs struct {
	configPath string
	backend    string
	logDir     string
	verbose    bool
	jsonOutput bool
	noProbe    bool
	start      int
	stop       int
	properties []string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	ga := &globalArgs{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Read segmented, reoriented frames from video jobs",
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	ga.bind(root)

	root.AddCommand(
		newInfoCommand(ga),
		newExtractCommand(ga),
		newMapCommand(ga),
	)
	return root
}

// bind registers the shared flags on cmd and its subcommands.
func (ga *globalArgs) bind(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&ga.configPath, "config", "c", "", "YAML runtime configuration")
	pf.StringVar(&ga.backend, "backend", "", "Decoder backend (opencv, ffms)")
	pf.StringVarP(&ga.logDir, "log-dir", "l", "", "Write a run log to this directory")
	pf.BoolVarP(&ga.verbose, "verbose", "v", false, "Enable verbose output")
	pf.BoolVar(&ga.jsonOutput, "json", false, "Emit JSON events instead of text")
	pf.BoolVar(&ga.noProbe, "no-probe", false, "Skip the ffprobe media hints probe")
	pf.IntVar(&ga.start, "start", 0, "Override the job start frame")
	pf.IntVar(&ga.stop, "stop", -1, "Override the job stop frame (negative reads through the end)")
	pf.StringArrayVarP(&ga.properties, "property", "p", nil, "Set a job property KEY=VALUE (repeatable)")
}

// session is the per-run state every command shares.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	rep    reporter.Reporter
	logger *logging.Logger
	log    *logging.LogFile
}

func (s *session) Close() {
	s.cancel()
	if s.log != nil {
		_ = s.log.Close()
	}
}

// newSession sets up logging, configuration, the reporter and a context that
// is cancelled on SIGINT or SIGTERM.
func newSession(cmd *cobra.Command, ga *globalArgs) (*session, error) {
	s := &session{}

	level := logging.LevelWarn
	if ga.verbose {
		level = logging.LevelDebug
	}
	logging.Init(level, os.Stderr)

	if ga.logDir != "" {
		lf, err := logging.SetupFile(ga.logDir, ga.verbose)
		if err != nil {
			return nil, fmt.Errorf("failed to setup logging: %w", err)
		}
		s.log = lf
	}
	s.logger = logging.Global()

	cfg := config.NewConfig()
	if ga.configPath != "" {
		loaded, err := config.Load(ga.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("backend") {
		b, err := config.ParseBackend(ga.backend)
		if err != nil {
			return nil, err
		}
		cfg.Backend = b
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	s.cfg = cfg

	if ga.jsonOutput {
		s.rep = reporter.NewJSONReporter()
	} else {
		s.rep = reporter.NewTerminalReporter(ga.verbose)
	}
	if s.log != nil {
		s.rep = reporter.NewCompositeReporter(s.rep, reporter.NewLogReporter(s.logger))
		s.rep.Verbose("Logging to " + s.log.Path())
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	s.ctx, s.cancel = ctx, cancel

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return s, nil
}

// loadJob reads a job file, or builds a whole-file job when arg is a video.
// Command-line overrides are applied on top.
func loadJob(cmd *cobra.Command, ga *globalArgs, arg string) (*framescope.Job, error) {
	var j *framescope.Job
	if util.IsVideoFile(arg) {
		path, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid media path: %w", err)
		}
		j = framescope.NewJob(util.GetFileStem(path), path)
	} else {
		loaded, err := framescope.LoadJob(arg)
		if err != nil {
			return nil, err
		}
		j = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("start") {
		j.StartFrame = ga.start
	}
	if flags.Changed("stop") {
		j.StopFrame = ga.stop
	}
	for _, kv := range ga.properties {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid property %q, want KEY=VALUE", kv)
		}
		j.Properties[key] = value
	}
	return j, nil
}

// openSource opens j with the configured backend and reports its summary.
func (s *session) openSource(ga *globalArgs, j *framescope.Job) (*framescope.Source, error) {
	opener, err := backend.Opener(s.cfg.Backend)
	if err != nil {
		return nil, err
	}

	opts := []framescope.Option{
		framescope.WithConfig(s.cfg),
		framescope.WithOpener(opener),
		framescope.WithLogger(s.logger.WithJob(j.ID.String(), j.MediaPath)),
	}
	if !ga.noProbe {
		opts = append(opts, framescope.WithMediaHints())
	}

	src, err := framescope.Open(s.ctx, j, opts...)
	if err != nil {
		return nil, err
	}

	s.rep.SourceInfo(sourceSummary(src, s.cfg.Backend))
	s.logger.Debug("Source opened", "describe", src.Describe())
	return src, nil
}

func sourceSummary(src *framescope.Source, b config.Backend) reporter.SourceSummary {
	orig := src.OriginalFrameSize()
	size := src.FrameSize()
	duration := 0.0
	if rate := src.FrameRate(); rate > 0 {
		duration = float64(src.FrameCount()) / rate
	}
	return reporter.SourceSummary{
		JobID:          src.Job().ID.String(),
		MediaPath:      src.Job().MediaPath,
		Backend:        b.String(),
		OriginalSize:   fmt.Sprintf("%dx%d", orig.X, orig.Y),
		OriginalFrames: src.OriginalFrameCount(),
		OriginalRate:   src.OriginalFrameRate(),
		Duration:       util.FormatDuration(duration),
		Frames:         src.FrameCount(),
		Rate:           src.FrameRate(),
		FrameSize:      fmt.Sprintf("%dx%d", size.X, size.Y),
		SeekStrategy:   src.SeekStrategy(),
		Transform:      src.Transform(),
	}
}

// reportError sends err to the reporter and returns it for cobra.
func (s *session) reportError(title string, err error) error {
	s.rep.Error(reporter.ReporterError{Title: title, Message: err.Error()})
	return err
}
