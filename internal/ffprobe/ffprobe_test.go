package ffprobe

import (
	"math"
	"testing"

	"github.com/five82/framescope/internal/errors"
	"github.com/five82/framescope/internal/job"
)

const phoneClip = `{
  "streams": [
    {
      "codec_type": "video",
      "codec_name": "h264",
      "width": 1920,
      "height": 1080,
      "nb_frames": "912",
      "r_frame_rate": "30/1",
      "avg_frame_rate": "30/1",
      "side_data_list": [
        {
          "side_data_type": "Display Matrix",
          "displaymatrix": "\n00000000:            0       65536           0\n00000001:       -65536           0           0\n00000002:            0           0  1073741824\n",
          "rotation": -90
        }
      ]
    }
  ]
}`

const variableRateClip = `{
  "streams": [
    {"codec_type": "audio", "codec_name": "aac"},
    {
      "codec_type": "video",
      "codec_name": "hevc",
      "width": 640,
      "height": 480,
      "r_frame_rate": "30000/1001",
      "avg_frame_rate": "2997/125",
      "tags": {"rotate": "180"}
    }
  ]
}`

const mirroredClip = `{
  "streams": [
    {
      "codec_type": "video",
      "width": 640,
      "height": 480,
      "r_frame_rate": "25/1",
      "avg_frame_rate": "25/1",
      "side_data_list": [
        {
          "side_data_type": "Display Matrix",
          "displaymatrix": "\n00000000:       -65536           0           0\n00000001:            0       65536           0\n00000002:            0           0  1073741824\n",
          "rotation": -0
        }
      ]
    }
  ]
}`

func TestParse(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantRotation float64
		wantFlip     bool
		wantConstant bool
		wantFrames   int
		wantRate     float64
	}{
		{
			name:         "phone clip with display matrix",
			input:        phoneClip,
			wantRotation: 90,
			wantConstant: true,
			wantFrames:   912,
			wantRate:     30,
		},
		{
			name:         "variable rate with rotate tag",
			input:        variableRateClip,
			wantRotation: 180,
			wantConstant: false,
			wantRate:     23.976,
		},
		{
			name:         "mirrored display matrix",
			input:        mirroredClip,
			wantRotation: 0,
			wantFlip:     true,
			wantConstant: true,
			wantRate:     25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("parse() error = %v", err)
			}
			if h.Rotation != tt.wantRotation {
				t.Errorf("Rotation = %v, want %v", h.Rotation, tt.wantRotation)
			}
			if h.HorizontalFlip != tt.wantFlip {
				t.Errorf("HorizontalFlip = %v, want %v", h.HorizontalFlip, tt.wantFlip)
			}
			if h.ConstantFrameRate != tt.wantConstant {
				t.Errorf("ConstantFrameRate = %v, want %v", h.ConstantFrameRate, tt.wantConstant)
			}
			if h.FrameCount != tt.wantFrames {
				t.Errorf("FrameCount = %v, want %v", h.FrameCount, tt.wantFrames)
			}
			if math.Abs(h.FrameRate-tt.wantRate) > 1e-3 {
				t.Errorf("FrameRate = %v, want %v", h.FrameRate, tt.wantRate)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := parse([]byte("{not json")); !errors.IsKind(err, errors.KindProbeParse) {
		t.Errorf("parse(bad json) error = %v, want KindProbeParse", err)
	}
	if _, err := parse([]byte(`{"streams":[{"codec_type":"audio"}]}`)); !errors.IsKind(err, errors.KindProbe) {
		t.Errorf("parse(no video) error = %v, want KindProbe", err)
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"30/1", 30, true},
		{"24000/1001", 23.976023976023978, true},
		{"0/0", 0, false},
		{"25", 25, true},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseRate(tt.input)
		if ok != tt.ok || math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("parseRate(%q) = %v, %v, want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestApplyKeepsExistingProperties(t *testing.T) {
	h := &MediaHints{ConstantFrameRate: true, Rotation: 90, FrameCount: 300, FrameRate: 29.97}
	props := job.Properties{job.PropRotation: "0"}

	h.Apply(props)

	if props[job.PropRotation] != "0" {
		t.Errorf("ROTATION = %q, want existing value 0", props[job.PropRotation])
	}
	if props[job.PropConstantFrameRate] != "true" {
		t.Errorf("HAS_CONSTANT_FRAME_RATE = %q, want true", props[job.PropConstantFrameRate])
	}
	if props[job.PropFrameCount] != "300" {
		t.Errorf("FRAME_COUNT = %q, want 300", props[job.PropFrameCount])
	}
	if props[job.PropFrameRate] != "29.97" {
		t.Errorf("FPS = %q, want 29.97", props[job.PropFrameRate])
	}
}
