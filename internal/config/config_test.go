package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() does not validate: %v", err)
	}
}

func TestDefaultIngestConfig(t *testing.T) {
	cfg := Default()

	if cfg.Ingest.SizeBase != 1 {
		t.Errorf("Ingest.SizeBase = %v, want 1", cfg.Ingest.SizeBase)
	}
	if cfg.Ingest.SizeCap != 18 {
		t.Errorf("Ingest.SizeCap = %v, want 18", cfg.Ingest.SizeCap)
	}
	if cfg.Ingest.ColorAttribute != "1" {
		t.Errorf("Ingest.ColorAttribute = %q, want %q", cfg.Ingest.ColorAttribute, "1")
	}
	for _, kind := range []string{"reply", "quote", "mention", "retweet"} {
		if cfg.Ingest.Palette[kind] == "" {
			t.Errorf("Ingest.Palette missing %q", kind)
		}
	}
}

func TestDefaultWindowConfig(t *testing.T) {
	cfg := Default()

	if cfg.Window.Start != 2 || cfg.Window.End != 6 {
		t.Errorf("Window = [%v,%v], want [2,6]", cfg.Window.Start, cfg.Window.End)
	}
	if cfg.Window.Max != 6 {
		t.Errorf("Window.Max = %v, want 6", cfg.Window.Max)
	}
	if cfg.Window.Step != 0.1 {
		t.Errorf("Window.Step = %v, want 0.1", cfg.Window.Step)
	}
}

func TestDefaultStyleAndLayout(t *testing.T) {
	cfg := Default()

	if cfg.Style.LabelThreshold != 8 {
		t.Errorf("Style.LabelThreshold = %v, want 8", cfg.Style.LabelThreshold)
	}
	if cfg.Style.ActivePolicy != PolicyGate {
		t.Errorf("Style.ActivePolicy = %q, want %q", cfg.Style.ActivePolicy, PolicyGate)
	}
	if cfg.Layout.Duration != time.Second {
		t.Errorf("Layout.Duration = %v, want 1s", cfg.Layout.Duration)
	}
	if len(cfg.Layout.Initial) != 1 || cfg.Layout.Initial[0] != "force" {
		t.Errorf("Layout.Initial = %v, want [force]", cfg.Layout.Initial)
	}
}

func TestDefaultPaletteIsFresh(t *testing.T) {
	a := DefaultPalette()
	a["reply"] = "#000000"
	if DefaultPalette()["reply"] == "#000000" {
		t.Error("DefaultPalette returned a shared map")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "window end before start",
			mutate:  func(c *Config) { c.Window.Start = 5; c.Window.End = 3 },
			wantErr: "window.end",
		},
		{
			name:    "window past midnight",
			mutate:  func(c *Config) { c.Window.Max = 25 },
			wantErr: "window.max",
		},
		{
			name:    "missing source",
			mutate:  func(c *Config) { c.Source.Location = "" },
			wantErr: "source.location is required",
		},
		{
			name:    "unknown policy",
			mutate:  func(c *Config) { c.Style.ActivePolicy = "sometimes" },
			wantErr: "one of",
		},
		{
			name:    "zoom step not growing",
			mutate:  func(c *Config) { c.Camera.ZoomStep = 1 },
			wantErr: "camera.zoom_step",
		},
		{
			name:    "cap below base",
			mutate:  func(c *Config) { c.Ingest.SizeCap = 0.5 },
			wantErr: "ingest.size_cap",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
