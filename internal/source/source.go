// Package source provides segmented frame sources: sequential readers over a
// video decoder that yield only the frames a job selects, transformed into
// the orientation the job asks for.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/five82/framescope/internal/config"
	fserrors "github.com/five82/framescope/internal/errors"
	"github.com/five82/framescope/internal/job"
	"github.com/five82/framescope/internal/keyframe"
	"github.com/five82/framescope/internal/logging"
	"github.com/five82/framescope/internal/seek"
	"github.com/five82/framescope/internal/segment"
	"github.com/five82/framescope/internal/transform"
	"github.com/five82/framescope/internal/video"
)

// Frame is one transformed frame. Position is its segment index; frames
// returned by InitializationFrames have negative positions.
type Frame struct {
	Position int
	Image    *image.RGBA
}

// Options configures a Source.
type Options struct {
	// Opener opens the raw decoder. It is called again whenever a seek
	// strategy falls back.
	Opener video.Opener
	// Probe lists key frames for USE_KEY_FRAMES jobs. Nil disables key
	// frame selection.
	Probe  keyframe.Probe
	Config *config.Config
	Logger *logging.Logger
}

// Source reads the frames of one job in segment order. A Source is not safe
// for concurrent use, except for the methods that only read its immutable
// filter and chain: ReverseTransform, ReverseTransformLocation,
// SegmentToOriginal, FrameCount, FrameRate, OriginalFrameSize,
// OriginalFrameRate and Job.
type Source struct {
	job      *job.Job
	opener   video.Opener
	decoder  video.Decoder
	filter   segment.Filter
	strategy seek.Strategy
	chain    *transform.Chain
	logger   *logging.Logger

	originalSize  image.Point
	originalRate  float64
	originalCount int

	// pos is the original frame the decoder will return next.
	pos int
	// failure is the terminal error once the source is exhausted.
	failure error
	closed  bool
}

// New opens the job's media and positions the source at segment index 0.
func New(ctx context.Context, j *job.Job, opts Options) (*Source, error) {
	if opts.Opener == nil {
		return nil, fserrors.NewConfigError("no decoder opener configured")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Global()
	}
	logger = logger.WithJob(j.ID.String(), j.MediaPath)

	d, err := opts.Opener(j.MediaPath)
	if err != nil {
		return nil, fserrors.NewOpenError(j.MediaPath, err)
	}

	s := &Source{
		job:          j,
		opener:       opts.Opener,
		decoder:      d,
		logger:       logger,
		originalSize: d.FrameSize(),
		originalRate: d.FrameRate(),
	}
	if err := s.init(ctx, cfg, opts.Probe); err != nil {
		_ = s.decoder.Close()
		return nil, err
	}
	return s, nil
}

func (s *Source) init(ctx context.Context, cfg *config.Config, probe keyframe.Probe) error {
	j := s.job
	s.originalCount = s.decoder.FrameCount()
	if s.originalCount <= 0 {
		s.originalCount = j.MediaProperties.Int(job.PropFrameCount, 0)
	}
	if s.originalCount <= 0 {
		return fserrors.NewConfigError(fmt.Sprintf("cannot determine the frame count of %s", j.MediaPath))
	}
	if s.originalRate <= 0 {
		s.originalRate = j.MediaProperties.Float(job.PropFrameRate, 0)
	}

	filter, err := s.selectFilter(ctx, probe)
	if err != nil {
		return err
	}
	s.filter = filter

	constantRate := j.MediaProperties.Bool(job.PropConstantFrameRate, false) ||
		j.Properties.Bool(job.PropConstantFrameRate, false)
	s.strategy = seek.Select(constantRate, cfg.SmallSeekThreshold)

	chain, err := transform.Build(j, s.originalSize, transform.Options{Config: cfg, Logger: s.logger})
	if err != nil {
		return err
	}
	s.chain = chain

	s.logger.Info("Frame source ready",
		"filter", s.filter.String(),
		"frames", s.filter.SegmentFrameCount(),
		"seek", strings.Join(seek.Chain(s.strategy), ">"),
		"transform", s.chain.String())

	return s.seekTo(s.filter.SegmentToOriginal(0))
}

func (s *Source) selectFilter(ctx context.Context, probe keyframe.Probe) (segment.Filter, error) {
	j := s.job
	if t := j.FeedForwardTrack; t != nil && len(t.Locations) > 0 {
		return segment.NewListFilter(t.Frames())
	}

	stride := 1
	if j.Properties.Has(job.PropFrameInterval) {
		raw := j.Properties.String(job.PropFrameInterval, "")
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fserrors.NewConfigError(fmt.Sprintf("invalid %s value '%s'", job.PropFrameInterval, raw))
		}
		stride = max(v, 1)
	}

	if probe != nil && j.Properties.Bool(job.PropUseKeyFrames, false) {
		stop := j.StopFrame
		if stop < 0 || stop >= s.originalCount {
			stop = s.originalCount - 1
		}
		f, err := segment.NewKeyFrameFilter(ctx, probe, j.MediaPath, j.StartFrame, stop, stride)
		if err == nil {
			return f, nil
		}
		if fserrors.IsCancelled(err) || ctx.Err() != nil {
			return nil, fserrors.NewCancelledError()
		}
		s.logger.Warn("Key frame selection failed, using a frame interval", "error", err, "interval", stride)
	}

	return segment.NewIntervalFilter(j.StartFrame, j.StopFrame, stride, s.originalCount)
}

// seekTo moves the decoder to the original frame target, walking the seek
// strategy fallback chain and reopening the decoder on each fallback.
func (s *Source) seekTo(target int) error {
	for s.pos != target {
		reached := s.strategy.ChangePosition(s.decoder, s.pos, target)
		if reached == target {
			s.logger.Debug("Seek", "strategy", s.strategy.Name(), "from", s.pos, "to", target)
			s.pos = target
			return nil
		}

		next := s.strategy.Fallback()
		if next == nil {
			s.pos = reached
			return s.fail(fserrors.NewSeekError(fmt.Sprintf("no seek strategy reached frame %d, %s stopped at %d", target, s.strategy.Name(), reached)))
		}
		s.logger.Warn("Seek strategy failed, falling back",
			"strategy", s.strategy.Name(),
			"fallback", next.Name(),
			"requested", target,
			"reached", reached)
		s.strategy = next
		if err := s.reopen(); err != nil {
			return s.fail(err)
		}
	}
	return nil
}

func (s *Source) reopen() error {
	if err := s.decoder.Close(); err != nil {
		s.logger.Debug("Closing decoder before reopen failed", "error", err)
	}
	d, err := s.opener(s.job.MediaPath)
	if err != nil {
		return fserrors.NewOpenError(s.job.MediaPath, err)
	}
	s.decoder = d
	s.pos = 0
	return nil
}

func (s *Source) fail(err error) error {
	s.failure = err
	return err
}

func errClosed(op string) error {
	return fserrors.NewIOError(op+" closed source", nil)
}

// Read returns the next segment frame, or io.EOF after the last one.
func (s *Source) Read() (Frame, error) {
	if s.failure != nil {
		return Frame{}, s.failure
	}
	if s.closed {
		return Frame{}, errClosed("read from")
	}
	if s.filter.IsPastEnd(s.pos) {
		return Frame{}, io.EOF
	}

	before := s.pos
	img, err := s.decoder.Read()
	if errors.Is(err, video.ErrEndOfStream) {
		return Frame{}, io.EOF
	}
	if err != nil {
		img, err = s.retryRead(before, err)
		if err != nil {
			return Frame{}, s.fail(err)
		}
	}
	s.pos = before + 1

	index := s.filter.OriginalToSegment(before)
	out := s.chain.Apply(img, index)

	if next := index + 1; next < s.filter.SegmentFrameCount() {
		if err := s.seekTo(s.filter.SegmentToOriginal(next)); err != nil {
			s.logger.Warn("Cannot reach the next segment frame", "error", err)
		}
	}
	return Frame{Position: index, Image: out}, nil
}

// retryRead falls back to the next seek strategy, returns to frame and
// reads it once more.
func (s *Source) retryRead(frame int, cause error) (*image.RGBA, error) {
	next := s.strategy.Fallback()
	if next == nil {
		return nil, fserrors.NewDecodeError(frame, cause)
	}
	s.logger.Warn("Frame read failed, falling back",
		"frame", frame,
		"strategy", s.strategy.Name(),
		"fallback", next.Name(),
		"error", cause)

	s.strategy = next
	if err := s.reopen(); err != nil {
		return nil, err
	}
	if err := s.seekTo(frame); err != nil {
		return nil, fserrors.NewDecodeError(frame, err)
	}
	img, err := s.decoder.Read()
	if err != nil {
		return nil, fserrors.NewDecodeError(frame, err)
	}
	return img, nil
}

// SetPosition moves to a segment index.
func (s *Source) SetPosition(index int) error {
	if index < 0 || index >= s.filter.SegmentFrameCount() {
		return fserrors.NewRangeError(fmt.Sprintf("position %d outside [0, %d)", index, s.filter.SegmentFrameCount()))
	}
	if s.failure != nil {
		return s.failure
	}
	if s.closed {
		return errClosed("seek in")
	}
	return s.seekTo(s.filter.SegmentToOriginal(index))
}

// SetPositionMillis moves to the segment frame shown at millis.
func (s *Source) SetPositionMillis(millis float64) error {
	return s.SetPosition(segment.MillisToSegmentPosition(s.filter, s.originalRate, millis))
}

// SetPositionRatio moves to the segment frame ratio of the way through.
func (s *Source) SetPositionRatio(ratio float64) error {
	return s.SetPosition(int(math.Floor(ratio * float64(s.filter.SegmentFrameCount()))))
}

// Position is the segment index the next Read returns.
func (s *Source) Position() int {
	return s.filter.OriginalToSegment(s.pos)
}

// CurrentTimeMillis is the segment playback time of the next frame.
func (s *Source) CurrentTimeMillis() float64 {
	return segment.CurrentTimeMillis(s.filter, s.pos, s.originalRate)
}

// PositionRatio is how far through the segment the next frame is.
func (s *Source) PositionRatio() float64 {
	return segment.PositionRatio(s.filter, s.pos)
}

// InitializationFrames returns up to n stride-aligned frames from before the
// segment start, oldest first, and leaves the read position unchanged.
func (s *Source) InitializationFrames(n int) (frames []Frame, err error) {
	if s.failure != nil {
		return nil, s.failure
	}
	if s.closed {
		return nil, errClosed("read initialization frames from")
	}
	k := min(n, s.filter.AvailableInitializationFrameCount())
	if k <= 0 {
		return nil, nil
	}

	saved := s.pos
	defer func() {
		if restoreErr := s.seekTo(saved); err == nil {
			err = restoreErr
		}
	}()

	frames = make([]Frame, 0, k)
	for i := -k; i < 0; i++ {
		orig := s.filter.SegmentToOriginal(i)
		if err := s.seekTo(orig); err != nil {
			return frames, err
		}
		img, err := s.decoder.Read()
		if err != nil {
			return frames, fserrors.NewDecodeError(orig, err)
		}
		s.pos = orig + 1
		frames = append(frames, Frame{Position: i, Image: s.chain.Apply(img, 0)})
	}
	return frames, nil
}

// ReverseTransform maps tracks detected on segment frames back to the
// original media: locations are reverse transformed and every frame index
// is remapped to its original frame.
func (s *Source) ReverseTransform(tracks []job.Track) {
	for i := range tracks {
		t := &tracks[i]
		locs := make(map[int]job.ImageLocation, len(t.Locations))
		for index, loc := range t.Locations {
			l := loc
			l.Properties = loc.Properties.Clone()
			locs[s.ReverseTransformLocation(&l, index)] = l
		}
		t.Locations = locs
		t.StartFrame = s.filter.SegmentToOriginal(t.StartFrame)
		t.StopFrame = s.filter.SegmentToOriginal(t.StopFrame)
	}
}

// ForwardTransform maps tracks found on original media frames into segment
// space. Locations on frames the segment skips land on the segment frame
// their original frame rounds to; when several land on one segment frame
// the last in original order wins.
func (s *Source) ForwardTransform(tracks []job.Track) {
	for i := range tracks {
		t := &tracks[i]
		locs := make(map[int]job.ImageLocation, len(t.Locations))
		for _, orig := range t.Frames() {
			l := t.Locations[orig]
			l.Properties = l.Properties.Clone()
			locs[s.ForwardTransformLocation(&l, orig)] = l
		}
		t.Locations = locs
		t.StartFrame = s.filter.OriginalToSegment(t.StartFrame)
		t.StopFrame = s.filter.OriginalToSegment(t.StopFrame)
	}
}

// ReverseTransformLocation maps one location on segment frame index back to
// the original media and returns the original frame index.
func (s *Source) ReverseTransformLocation(loc *job.ImageLocation, index int) int {
	s.chain.ApplyReverse(loc, index)
	return s.filter.SegmentToOriginal(index)
}

// SegmentToOriginal returns the original frame index of segment frame index.
func (s *Source) SegmentToOriginal(index int) int {
	return s.filter.SegmentToOriginal(index)
}

// ForwardTransformLocation maps a location on original frame orig into the
// coordinates of the transformed segment frame and returns the segment index.
func (s *Source) ForwardTransformLocation(loc *job.ImageLocation, orig int) int {
	index := s.filter.OriginalToSegment(orig)
	s.chain.ApplyForward(loc, index)
	return index
}

// FrameCount is the number of frames in the segment.
func (s *Source) FrameCount() int { return s.filter.SegmentFrameCount() }

// FrameRate is the rate at which segment frames cover the original duration.
func (s *Source) FrameRate() float64 { return segment.FrameRate(s.filter, s.originalRate) }

// FrameSize is the transformed size of the next frame.
func (s *Source) FrameSize() image.Point { return s.chain.OutputSize(s.Position()) }

// OriginalFrameSize is the decoded frame size.
func (s *Source) OriginalFrameSize() image.Point { return s.originalSize }

// OriginalFrameRate is the media frame rate.
func (s *Source) OriginalFrameRate() float64 { return s.originalRate }

// OriginalFrameCount is the number of frames in the media.
func (s *Source) OriginalFrameCount() int { return s.originalCount }

// SeekStrategy names the strategy currently in use.
func (s *Source) SeekStrategy() string { return s.strategy.Name() }

// Transform describes the transform chain.
func (s *Source) Transform() string { return s.chain.String() }

// Job returns the job the source reads.
func (s *Source) Job() *job.Job { return s.job }

// Describe summarizes the source for logs and the CLI.
func (s *Source) Describe() string {
	return fmt.Sprintf("filter=%s frames=%d seek=%s transform=%s",
		s.filter, s.filter.SegmentFrameCount(), strings.Join(seek.Chain(s.strategy), ">"), s.chain)
}

// Close releases the decoder.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.decoder.Close()
}
