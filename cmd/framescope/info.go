package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/five82/framescope/internal/discovery"
	"github.com/five82/framescope/internal/reporter"
	"github.com/five82/framescope/internal/util"
)

func newInfoCommand(ga *globalArgs) *cobra.Command {
	var initFrames int

	cmd := &cobra.Command{
		Use:   "info <job.yaml|media|dir>",
		Short: "Describe the segment and transforms a job selects",
		Long: `Describe the segment and transforms a job selects.

Given a directory, every job file and video file directly inside it is
described in name order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, ga)
			if err != nil {
				return err
			}
			defer s.Close()

			s.rep.Hardware(hardwareSummary())

			inputs := []string{args[0]}
			if st, err := os.Stat(args[0]); err == nil && st.IsDir() {
				inputs, err = discovery.FindInputs(args[0], s.logger)
				if err != nil {
					return s.reportError("No inputs", err)
				}
			}

			failed := 0
			for _, input := range inputs {
				if err := describe(cmd, s, ga, input, initFrames); err != nil {
					failed++
					if s.ctx.Err() != nil {
						return err
					}
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d inputs failed", failed, len(inputs))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&initFrames, "init-frames", 0, "Also decode up to N frames preceding the segment")
	return cmd
}

func hardwareSummary() reporter.HardwareSummary {
	sys := util.GetSystemInfo()
	hw := reporter.HardwareSummary{
		Hostname:     sys.Hostname,
		Platform:     fmt.Sprintf("%s/%s", sys.OS, sys.Arch),
		LogicalCores: util.LogicalCores(),
	}
	if mem := util.AvailableMemoryBytes(); mem > 0 {
		hw.AvailableMemory = util.FormatBytes(mem)
	}
	return hw
}

func describe(cmd *cobra.Command, s *session, ga *globalArgs, input string, initFrames int) error {
	j, err := loadJob(cmd, ga, input)
	if err != nil {
		return s.reportError("Invalid job", err)
	}

	src, err := s.openSource(ga, j)
	if err != nil {
		return s.reportError("Open failed", err)
	}
	defer func() { _ = src.Close() }()

	if initFrames > 0 {
		frames, err := src.InitializationFrames(initFrames)
		if err != nil {
			return s.reportError("Initialization frames failed", err)
		}
		s.rep.Verbose(fmt.Sprintf("%d of %d initialization frames available before the segment", len(frames), initFrames))
	}

	s.rep.OperationComplete(src.Describe())
	return nil
}
