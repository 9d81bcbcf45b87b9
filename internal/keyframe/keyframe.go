// Package keyframe finds key frame positions in a bounded frame range by
// running ffprobe over the video stream.
package keyframe

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/five82/framescope/internal/errors"
	"github.com/five82/framescope/internal/logging"
)

// Probe returns the sorted, deduplicated key frame indices in [start, stop].
// A negative stop probes through the end of the stream.
type Probe func(ctx context.Context, path string, start, stop int) ([]int, error)

// Prober runs ffprobe to find key frames.
type Prober struct {
	// Binary is the ffprobe executable.
	Binary string
	// Nice lowers the probe's scheduling priority when positive.
	Nice int
}

// NewProber creates a Prober for the given ffprobe binary.
func NewProber(binary string, nice int) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{Binary: binary, Nice: nice}
}

// probeArgs builds the ffprobe command line for key frames up to stop.
func probeArgs(path string, stop int) []string {
	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "packet=flags",
		"-of", "csv=p=0",
	}
	// Packet flags come from the demuxer, so nothing is decoded. Reading
	// stops at the last packet the segment needs.
	if stop >= 0 {
		args = append(args, "-read_intervals", fmt.Sprintf("%%+#%d", stop+1))
	}
	return append(args, path)
}

// Probe satisfies the Probe function type.
func (p *Prober) Probe(ctx context.Context, path string, start, stop int) ([]int, error) {
	args := probeArgs(path, stop)

	cmd := exec.CommandContext(ctx, p.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.NewCommandStartError(p.Binary, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.NewCommandStartError(p.Binary, err)
	}

	if p.Nice > 0 {
		if err := unix.Setpriority(unix.PRIO_PROCESS, cmd.Process.Pid, p.Nice); err != nil {
			logging.Debug("could not lower probe priority", "pid", cmd.Process.Pid, "error", err)
		}
	}

	frames, parseErr := parseKeyFrames(stdout, start, stop)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelledError()
		}
		return nil, errors.WrapExecError(p.Binary, err, strings.TrimSpace(stderr.String()))
	}
	if parseErr != nil {
		return nil, errors.NewProbeParseError("failed to read ffprobe output", parseErr)
	}

	logging.Debug("key frame probe finished", "path", path, "start", start, "stop", stop, "key_frames", len(frames))
	return frames, nil
}

// parseKeyFrames reads one packet flag string per line ("K__", "___", ...)
// and returns the indices of key packets within [start, stop]. Key packets
// start a closed GOP, so their decode index is also their display index.
func parseKeyFrames(r io.Reader, start, stop int) ([]int, error) {
	var frames []int
	index := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		flags := strings.TrimSpace(strings.TrimSuffix(scanner.Text(), ","))
		if flags == "" {
			continue
		}
		if strings.HasPrefix(flags, "K") && index >= start && (stop < 0 || index <= stop) {
			frames = append(frames, index)
		}
		index++
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.Ints(frames)
	return dedupe(frames), nil
}

// dedupe removes duplicate values from a sorted slice.
func dedupe(sorted []int) []int {
	if len(sorted) <= 1 {
		return sorted
	}

	result := make([]int, 0, len(sorted))
	result = append(result, sorted[0])

	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			result = append(result, sorted[i])
		}
	}

	return result
}
