package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.SmallSeekThreshold != DefaultSmallSeekThreshold {
		t.Errorf("expected SmallSeekThreshold=%d, got %d", DefaultSmallSeekThreshold, cfg.SmallSeekThreshold)
	}
	if cfg.QueueCapacity != DefaultQueueCapacity {
		t.Errorf("expected QueueCapacity=%d, got %d", DefaultQueueCapacity, cfg.QueueCapacity)
	}
	if cfg.Backend != BackendOpenCV {
		t.Errorf("expected Backend=%s, got %s", BackendOpenCV, cfg.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name         string
		modify       func(*Config)
		wantErr      bool
		wantSentinel error
	}{
		{
			name:    "default config is valid",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:         "negative seek threshold",
			modify:       func(c *Config) { c.SmallSeekThreshold = -1 },
			wantErr:      true,
			wantSentinel: ErrInvalidSeekThreshold,
		},
		{
			name:    "zero seek threshold disables deferral",
			modify:  func(c *Config) { c.SmallSeekThreshold = 0 },
			wantErr: false,
		},
		{
			name:         "zero queue capacity",
			modify:       func(c *Config) { c.QueueCapacity = 0 },
			wantErr:      true,
			wantSentinel: ErrInvalidQueueCapacity,
		},
		{
			name:         "rotation threshold of 45",
			modify:       func(c *Config) { c.RotationThreshold = 45 },
			wantErr:      true,
			wantSentinel: ErrInvalidRotationThreshold,
		},
		{
			name:         "unknown fill color",
			modify:       func(c *Config) { c.FillColor = "purple" },
			wantErr:      true,
			wantSentinel: ErrInvalidFillColor,
		},
		{
			name:         "niceness above 19",
			modify:       func(c *Config) { c.ProbeNice = 20 },
			wantErr:      true,
			wantSentinel: ErrInvalidNice,
		},
		{
			name:         "unknown backend",
			modify:       func(c *Config) { c.Backend = "gstreamer" },
			wantErr:      true,
			wantSentinel: ErrInvalidBackend,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantSentinel != nil && !errors.Is(err, tt.wantSentinel) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantSentinel)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		input   string
		want    color.RGBA
		wantErr bool
	}{
		{"BLACK", color.RGBA{A: 0xff}, false},
		{"white", color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, false},
		{"#10ff80", color.RGBA{R: 0x10, G: 0xff, B: 0x80, A: 0xff}, false},
		{"", color.RGBA{A: 0xff}, false},
		{"#12345", color.RGBA{}, true},
		{"#gggggg", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseBackend(t *testing.T) {
	if b, err := ParseBackend("FFMS2"); err != nil || b != BackendFFMS {
		t.Errorf("ParseBackend(FFMS2) = %v, %v", b, err)
	}
	if _, err := ParseBackend("vlc"); !errors.Is(err, ErrInvalidBackend) {
		t.Errorf("ParseBackend(vlc) error = %v, want ErrInvalidBackend", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "framescope.yaml")
	data := []byte("queue_capacity: 8\nfill_color: WHITE\nbackend: ffms\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.QueueCapacity != 8 {
		t.Errorf("QueueCapacity = %d, want 8", cfg.QueueCapacity)
	}
	if cfg.Backend != BackendFFMS {
		t.Errorf("Backend = %s, want ffms", cfg.Backend)
	}
	if cfg.SmallSeekThreshold != DefaultSmallSeekThreshold {
		t.Errorf("SmallSeekThreshold = %d, want default %d", cfg.SmallSeekThreshold, DefaultSmallSeekThreshold)
	}
	if cfg.Fill() != (color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
		t.Errorf("Fill() = %v, want white", cfg.Fill())
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("queue_capacity: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); !errors.Is(err, ErrInvalidQueueCapacity) {
		t.Errorf("Load(bad) error = %v, want ErrInvalidQueueCapacity", err)
	}
}
