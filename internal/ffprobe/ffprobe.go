// Package ffprobe extracts the media hints a frame source uses to pick its
// seek strategy and auto-orientation: frame rate stability, display rotation,
// frame count and size.
package ffprobe

import (
	"bytes"
	"context"
	"math"
	"os/exec"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/five82/framescope/internal/errors"
	"github.com/five82/framescope/internal/job"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MediaHints describes the first video stream of a file.
type MediaHints struct {
	Width             int
	Height            int
	FrameCount        int
	FrameRate         float64
	ConstantFrameRate bool
	// Rotation is the counter-clockwise rotation, in degrees, that the stream
	// content carries relative to its display orientation.
	Rotation float64
	// HorizontalFlip is set when the display matrix mirrors the stream.
	HorizontalFlip bool
	CodecName      string
}

// ffprobeOutput represents the JSON output from ffprobe.
type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecType    string            `json:"codec_type"`
	CodecName    string            `json:"codec_name"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	NbFrames     string            `json:"nb_frames"`
	RFrameRate   string            `json:"r_frame_rate"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	Tags         map[string]string `json:"tags"`
	SideDataList []ffprobeSideData `json:"side_data_list"`
}

type ffprobeSideData struct {
	SideDataType  string  `json:"side_data_type"`
	Rotation      float64 `json:"rotation"`
	DisplayMatrix string  `json:"displaymatrix"`
}

// Run executes ffprobe on path and returns the hints of its first video stream.
func Run(ctx context.Context, binary, path string) (*MediaHints, error) {
	if binary == "" {
		binary = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "v:0",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelledError()
		}
		return nil, errors.WrapExecError(binary, err, strings.TrimSpace(stderr.String()))
	}

	return parse(output)
}

// parse decodes ffprobe JSON output.
func parse(data []byte) (*MediaHints, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.NewProbeParseError("failed to parse ffprobe output", err)
	}

	for _, s := range probe.Streams {
		if s.CodecType != "video" {
			continue
		}
		return hintsFromStream(s), nil
	}
	return nil, errors.NewProbeError("no video stream found", nil)
}

func hintsFromStream(s ffprobeStream) *MediaHints {
	h := &MediaHints{
		Width:     s.Width,
		Height:    s.Height,
		CodecName: s.CodecName,
	}

	rate, rateOK := parseRate(s.RFrameRate)
	avg, avgOK := parseRate(s.AvgFrameRate)
	switch {
	case avgOK:
		h.FrameRate = avg
	case rateOK:
		h.FrameRate = rate
	}
	h.ConstantFrameRate = rateOK && avgOK && math.Abs(rate-avg) < 1e-6

	if n, err := strconv.Atoi(s.NbFrames); err == nil {
		h.FrameCount = n
	}

	// The display matrix rotation is the clockwise correction a player
	// applies, so the content itself sits at the negated angle.
	for _, sd := range s.SideDataList {
		if sd.SideDataType != "Display Matrix" {
			continue
		}
		h.Rotation = normalize(-sd.Rotation)
		h.HorizontalFlip = mirrored(sd.DisplayMatrix)
		return h
	}
	if tag, ok := s.Tags["rotate"]; ok {
		if deg, err := strconv.ParseFloat(tag, 64); err == nil {
			h.Rotation = normalize(deg)
		}
	}
	return h
}

// parseRate parses a rational such as "30000/1001".
func parseRate(s string) (float64, bool) {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	if !found {
		return n, n > 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 || n == 0 {
		return 0, false
	}
	return n / d, true
}

// mirrored reports a negative determinant in ffprobe's display matrix dump,
// whose first two rows start with the 2x2 scale/rotation terms.
func mirrored(matrix string) bool {
	var rows [][]float64
	for _, line := range strings.Split(matrix, "\n") {
		_, values, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		var row []float64
		for _, f := range strings.Fields(values) {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				break
			}
			row = append(row, v)
		}
		if len(row) >= 2 {
			rows = append(rows, row)
		}
	}
	if len(rows) < 2 {
		return false
	}
	return rows[0][0]*rows[1][1]-rows[0][1]*rows[1][0] < 0
}

func normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg == 360 || deg == 0 {
		return 0
	}
	return deg
}

// Apply copies the hints into media properties without overwriting values
// already present.
func (h *MediaHints) Apply(props job.Properties) {
	set := func(key, value string) {
		if !props.Has(key) {
			props[key] = value
		}
	}
	set(job.PropConstantFrameRate, strconv.FormatBool(h.ConstantFrameRate))
	set(job.PropRotation, strconv.FormatFloat(h.Rotation, 'f', -1, 64))
	set(job.PropHorizontalFlip, strconv.FormatBool(h.HorizontalFlip))
	if h.FrameCount > 0 {
		set(job.PropFrameCount, strconv.Itoa(h.FrameCount))
	}
	if h.FrameRate > 0 {
		set(job.PropFrameRate, strconv.FormatFloat(h.FrameRate, 'f', -1, 64))
	}
}
