package main

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/framescope"
	"github.com/five82/framescope/internal/reporter"
	"github.com/five82/framescope/internal/util"
)

// frameReader is the part of a synchronous or async source extraction reads.
type frameReader interface {
	Read() (framescope.Frame, error)
	FrameCount() int
	Close() error
}

type extractArgs struct {
	outputDir string
	async     bool
	limit     int
}

func newExtractCommand(ga *globalArgs) *cobra.Command {
	var ea extractArgs

	cmd := &cobra.Command{
		Use:   "extract <job.yaml|media>",
		Short: "Write the transformed segment frames as PNG images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, ga)
			if err != nil {
				return err
			}
			defer s.Close()

			j, err := loadJob(cmd, ga, args[0])
			if err != nil {
				return s.reportError("Invalid job", err)
			}
			if err := util.EnsureDirectory(ea.outputDir); err != nil {
				return s.reportError("Output unavailable", fmt.Errorf("failed to create output directory: %w", err))
			}

			src, err := s.openSource(ga, j)
			if err != nil {
				return s.reportError("Open failed", err)
			}

			var r frameReader = src
			if ea.async {
				r = framescope.Async(s.ctx, src, s.cfg, s.logger)
			}
			defer func() { _ = r.Close() }()

			if err := extract(s, src, r, ea); err != nil {
				return s.reportError("Extraction failed", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&ea.outputDir, "output", "o", ".", "Directory for frame images")
	cmd.Flags().BoolVar(&ea.async, "async", false, "Decode ahead on a background goroutine")
	cmd.Flags().IntVar(&ea.limit, "limit", 0, "Stop after N frames (0 writes all)")
	return cmd
}

// extract reads r to the end and writes each frame as <stem>_<frame>.png,
// named by its original frame index. src supplies index mapping only.
func extract(s *session, src *framescope.Source, r frameReader, ea extractArgs) error {
	total := r.FrameCount()
	if ea.limit > 0 {
		total = min(total, ea.limit)
	}
	rate := src.OriginalFrameRate()

	s.rep.ExtractStarted(reporter.ExtractStartInfo{
		TotalFrames: total,
		OutputDir:   ea.outputDir,
		Async:       ea.async,
	})

	started := time.Now()
	var written int
	var bytes uint64
	for written < total {
		frame, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		orig := src.SegmentToOriginal(frame.Position)
		n, err := writePNG(util.FramePath(ea.outputDir, src.Job().MediaPath, orig), frame.Image)
		if err != nil {
			return err
		}
		written++
		bytes += n

		elapsed := time.Since(started)
		fps := float32(float64(written) / max(elapsed.Seconds(), 1e-9))
		var eta time.Duration
		if fps > 0 {
			eta = time.Duration(float64(total-written) / float64(fps) * float64(time.Second))
		}
		mediaTime := "unknown"
		if rate > 0 {
			mediaTime = util.FormatMillis(float64(orig) * 1000 / rate)
		}
		s.rep.ExtractProgress(reporter.ProgressSnapshot{
			CurrentFrame: written,
			TotalFrames:  total,
			MediaTime:    mediaTime,
			Percent:      float32(written) * 100 / float32(max(total, 1)),
			FPS:          fps,
			ETA:          eta,
		})
	}

	elapsed := time.Since(started)
	s.rep.ExtractComplete(reporter.ExtractOutcome{
		MediaPath:  src.Job().MediaPath,
		OutputDir:  ea.outputDir,
		Frames:     written,
		Bytes:      bytes,
		TotalTime:  elapsed,
		AverageFPS: float32(float64(written) / max(elapsed.Seconds(), 1e-9)),
	})
	return nil
}

// writePNG encodes img to path and returns the file size.
func writePNG(path string, img image.Image) (uint64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("failed to encode %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", path, err)
	}
	return uint64(info.Size()), nil
}
