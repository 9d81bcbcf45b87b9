package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/five82/framescope/internal/job"
	"github.com/five82/framescope/internal/reporter"
)

type mapArgs struct {
	tracksPath string
	outputPath string
	forward    bool
}

func newMapCommand(ga *globalArgs) *cobra.Command {
	var ma mapArgs

	cmd := &cobra.Command{
		Use:   "map <job.yaml|media>",
		Short: "Map detection tracks between segment frames and the original media",
		Long: `Map detection tracks between segment frames and the original media.

By default tracks found on the job's transformed segment frames are mapped back
to original frame indices and coordinates. With --forward, tracks on the
original media are mapped into segment space.`,
		Args: cobra.ExactArgs(1),
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
			tracks, err := job.LoadTracks(ma.tracksPath)
			if err != nil {
				return s.reportError("Invalid tracks", err)
			}

			src, err := s.openSource(ga, j)
			if err != nil {
				return s.reportError("Open failed", err)
			}
			defer func() { _ = src.Close() }()

			direction := "reverse"
			if ma.forward {
				direction = "forward"
				src.ForwardTransform(tracks)
			} else {
				src.ReverseTransform(tracks)
			}

			if err := writeTracks(ma.outputPath, tracks); err != nil {
				return s.reportError("Write failed", err)
			}

			locations := 0
			for _, t := range tracks {
				locations += len(t.Locations)
			}
			s.rep.TracksMapped(reporter.MapSummary{
				Input:     ma.tracksPath,
				Output:    ma.outputPath,
				Direction: direction,
				Tracks:    len(tracks),
				Locations: locations,
			})
			return nil
		},
	}

	cmd.Flags().StringVarP(&ma.tracksPath, "tracks", "t", "", "YAML track list to map")
	cmd.Flags().StringVarP(&ma.outputPath, "output", "o", "-", "Output YAML file (- for stdout)")
	cmd.Flags().BoolVar(&ma.forward, "forward", false, "Map original media tracks into segment space")
	_ = cmd.MarkFlagRequired("tracks")
	return cmd
}

func writeTracks(path string, tracks []job.Track) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	return job.WriteTracks(w, tracks)
}
