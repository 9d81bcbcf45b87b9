// Package framescope reads the frames of a video job as a segmented,
// transformed sequence.
//
// A job names a media file, a frame range and properties that select which
// frames to keep (a stride, key frames only, or the frames of a prior
// detection track) and how to orient them (rotation, horizontal flip, a
// search region). The source hides decoder seek quirks and maps detections
// found in its output frames back to original media coordinates.
//
// Basic usage:
//
//	j, err := framescope.LoadJob("job.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	src, err := framescope.Open(ctx, j, framescope.WithOpener(opener))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer src.Close()
//
//	for {
//	    frame, err := src.Read()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    ...
//	}
package framescope

import (
	"context"
	"image"

	"github.com/five82/framescope/internal/config"
	fserrors "github.com/five82/framescope/internal/errors"
	"github.com/five82/framescope/internal/ffprobe"
	"github.com/five82/framescope/internal/job"
	"github.com/five82/framescope/internal/keyframe"
	"github.com/five82/framescope/internal/logging"
	"github.com/five82/framescope/internal/source"
	"github.com/five82/framescope/internal/util"
	"github.com/five82/framescope/internal/video"
)

// Re-exported types.
type (
	Job           = job.Job
	Track         = job.Track
	ImageLocation = job.ImageLocation
	Properties    = job.Properties
	Frame         = source.Frame
	Source        = source.Source
	AsyncSource   = source.Async
	Config        = config.Config
	Decoder       = video.Decoder
	Opener        = video.Opener
)

// asyncMemoryFraction bounds the memory an async queue may hold.
const asyncMemoryFraction = 0.25

// NewJob creates a job over the whole of mediaPath.
func NewJob(name, mediaPath string) *Job {
	return job.New(name, mediaPath)
}

// LoadJob reads a job from a YAML file.
func LoadJob(path string) (*Job, error) {
	return job.Load(path)
}

// Option configures Open and OpenAsync.
type Option func(*options)

type options struct {
	config     *config.Config
	logger     *logging.Logger
	opener     video.Opener
	probe      keyframe.Probe
	probeSet   bool
	mediaHints bool
}

// WithConfig sets the runtime configuration. The default is config.NewConfig().
func WithConfig(cfg *Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithLogger sets the logger. The default is the global logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithOpener sets the raw decoder opener. It is required.
func WithOpener(op Opener) Option {
	return func(o *options) {
		o.opener = op
	}
}

// WithKeyFrameProbe replaces the ffprobe key frame probe. A nil probe
// disables key frame selection.
func WithKeyFrameProbe(p keyframe.Probe) Option {
	return func(o *options) {
		o.probe = p
		o.probeSet = true
	}
}

// WithMediaHints runs ffprobe before opening and fills media properties the
// job does not already carry.
func WithMediaHints() Option {
	return func(o *options) {
		o.mediaHints = true
	}
}

func resolve(opts []Option) (*options, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.config == nil {
		o.config = config.NewConfig()
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = logging.Global()
	}
	if o.opener == nil {
		return nil, fserrors.NewConfigError("no decoder opener configured")
	}
	if !o.probeSet {
		nice := 0
		if o.config.ProbeLowPriority {
			nice = o.config.ProbeNice
		}
		o.probe = keyframe.NewProber(o.config.FFprobePath, nice).Probe
	}
	return o, nil
}

// Open creates a frame source for j.
func Open(ctx context.Context, j *Job, opts ...Option) (*Source, error) {
	o, err := resolve(opts)
	if err != nil {
		return nil, err
	}

	if o.mediaHints {
		hints, err := ffprobe.Run(ctx, o.config.FFprobePath, j.MediaPath)
		if err != nil {
			o.logger.Warn("Media probe failed, using decoder metadata", "media", j.MediaPath, "error", err)
		} else {
			if j.MediaProperties == nil {
				j.MediaProperties = job.Properties{}
			}
			hints.Apply(j.MediaProperties)
		}
	}

	return source.New(ctx, j, source.Options{
		Opener: o.opener,
		Probe:  o.probe,
		Config: o.config,
		Logger: o.logger,
	})
}

// OpenAsync creates a frame source for j that decodes ahead on a background
// goroutine.
func OpenAsync(ctx context.Context, j *Job, opts ...Option) (*AsyncSource, error) {
	o, err := resolve(opts)
	if err != nil {
		return nil, err
	}

	src, err := Open(ctx, j, opts...)
	if err != nil {
		return nil, err
	}
	return Async(ctx, src, o.config, o.logger), nil
}

// Async starts decoding src ahead on a background goroutine. The queue holds
// cfg.QueueCapacity frames, reduced when that many frames would not fit in a
// quarter of available memory. The returned source owns src.
func Async(ctx context.Context, src *Source, cfg *Config, logger *logging.Logger) *AsyncSource {
	capacity := util.MaxFramesForMemory(cfg.QueueCapacity, frameBytes(src.FrameSize()), asyncMemoryFraction)
	if capacity < cfg.QueueCapacity {
		logger.Info("Reduced decode-ahead queue to fit memory", "capacity", capacity, "configured", cfg.QueueCapacity)
	}
	return source.NewAsync(ctx, src, capacity)
}

func frameBytes(size image.Point) uint64 {
	return uint64(size.X) * uint64(size.Y) * 4
}
