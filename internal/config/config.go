// Package config provides configuration types and defaults for nodescope.
package config

import "time"

// Config holds all configuration for nodescope.
type Config struct {
	Source      SourceConfig      `yaml:"source" mapstructure:"source"`
	Ingest      IngestConfig      `yaml:"ingest" mapstructure:"ingest"`
	Style       StyleConfig       `yaml:"style" mapstructure:"style"`
	Window      WindowConfig      `yaml:"window" mapstructure:"window"`
	Layout      LayoutConfig      `yaml:"layout" mapstructure:"layout"`
	Camera      CameraConfig      `yaml:"camera" mapstructure:"camera"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
}

// SourceConfig says where the graph file comes from.
type SourceConfig struct {
	Location string        `yaml:"location" mapstructure:"location" validate:"required"` // URL or local path of the GEXF file
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	Watch    bool          `yaml:"watch" mapstructure:"watch"` // Reload when a local file changes
	Breaker  BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// BreakerConfig holds circuit breaker settings for remote fetches.
type BreakerConfig struct {
	MaxRequests  uint32        `yaml:"max_requests" mapstructure:"max_requests"`
	Interval     time.Duration `yaml:"interval" mapstructure:"interval"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	FailureRatio float64       `yaml:"failure_ratio" mapstructure:"failure_ratio" validate:"gte=0,lte=1"`
	MinRequests  uint32        `yaml:"min_requests" mapstructure:"min_requests"`
}

// IngestConfig controls the one-time attribute derivation after a load.
type IngestConfig struct {
	SizeBase           float64           `yaml:"size_base" mapstructure:"size_base" validate:"gte=0"`         // k in min(k + sqrt(degree), cap)
	SizeCap            float64           `yaml:"size_cap" mapstructure:"size_cap" validate:"gtfield=SizeBase"` // cap in min(k + sqrt(degree), cap)
	ColorAttribute     string            `yaml:"color_attribute" mapstructure:"color_attribute"`
	TimestampAttribute string            `yaml:"timestamp_attribute" mapstructure:"timestamp_attribute"`
	KindAttribute      string            `yaml:"kind_attribute" mapstructure:"kind_attribute"`
	SenderAttribute    string            `yaml:"sender_attribute" mapstructure:"sender_attribute"`
	ReceiverAttribute  string            `yaml:"receiver_attribute" mapstructure:"receiver_attribute"`
	Palette            map[string]string `yaml:"palette" mapstructure:"palette" validate:"dive,keys,required,endkeys,required"`
}

// StyleConfig holds display settings consumed by the resolver and renderers.
type StyleConfig struct {
	Background       string  `yaml:"background" mapstructure:"background" validate:"required"`
	FadedColor       string  `yaml:"faded_color" mapstructure:"faded_color" validate:"required"`
	DefaultEdgeColor string  `yaml:"default_edge_color" mapstructure:"default_edge_color"`
	LabelSize        float64 `yaml:"label_size" mapstructure:"label_size" validate:"gt=0"`
	LabelThreshold   float64 `yaml:"label_threshold" mapstructure:"label_threshold" validate:"gte=0"`
	ActivePolicy     string  `yaml:"active_policy" mapstructure:"active_policy" validate:"oneof=gate none"` // "gate": active nodes also need a visible edge
}

// WindowConfig holds the hour-of-day filter bounds.
type WindowConfig struct {
	Start float64 `yaml:"start" mapstructure:"start" validate:"gte=0,lte=24"`
	End   float64 `yaml:"end" mapstructure:"end" validate:"gtefield=Start,lte=24"`
	Max   float64 `yaml:"max" mapstructure:"max" validate:"gtefield=End,lte=24"` // Upper limit of the end control
	Step  float64 `yaml:"step" mapstructure:"step" validate:"gt=0"`
}

// LayoutConfig holds layout driver settings.
type LayoutConfig struct {
	Initial            []string      `yaml:"initial" mapstructure:"initial"` // Sequence run after the first load
	Duration           time.Duration `yaml:"duration" mapstructure:"duration" validate:"gte=0"`
	FrameInterval      time.Duration `yaml:"frame_interval" mapstructure:"frame_interval" validate:"gt=0"`
	ForceIterations    int           `yaml:"force_iterations" mapstructure:"force_iterations" validate:"gt=0"`
	NoverlapIterations int           `yaml:"noverlap_iterations" mapstructure:"noverlap_iterations" validate:"gt=0"`
}

// CameraConfig bounds the zoom ratio.
type CameraConfig struct {
	MinRatio float64 `yaml:"min_ratio" mapstructure:"min_ratio" validate:"gt=0"`
	MaxRatio float64 `yaml:"max_ratio" mapstructure:"max_ratio" validate:"gtfield=MinRatio"`
	ZoomStep float64 `yaml:"zoom_step" mapstructure:"zoom_step" validate:"gt=1"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr" validate:"required"`
	AllowedOrigins  []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"gt=0"`
	SessionTTL      time.Duration `yaml:"session_ttl" mapstructure:"session_ttl" validate:"gt=0"`
}

// PathsConfig holds file paths.
type PathsConfig struct {
	Log string `yaml:"log" mapstructure:"log"`
}

// LogRotationConfig holds settings for log file rotation.
// Applies to the TUI debug log and the event log.
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// Active node policies.
const (
	PolicyGate = "gate"
	PolicyNone = "none"
)

// DefaultPalette maps social interaction types to edge colors.
func DefaultPalette() map[string]string {
	return map[string]string{
		"reply":   "#4e79a7",
		"quote":   "#f28e2b",
		"mention": "#59a14f",
		"retweet": "#e15759",
	}
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Location: "./data/airlines.gexf",
			Timeout:  30 * time.Second,
			Watch:    false,
			Breaker: BreakerConfig{
				MaxRequests:  1,
				Interval:     time.Minute,
				Timeout:      30 * time.Second,
				FailureRatio: 0.6,
				MinRequests:  3,
			},
		},
		Ingest: IngestConfig{
			SizeBase:           1,
			SizeCap:            18,
			ColorAttribute:     "1",
			TimestampAttribute: "created_at",
			KindAttribute:      "type",
			SenderAttribute:    "from_user",
			ReceiverAttribute:  "to_user",
			Palette:            DefaultPalette(),
		},
		Style: StyleConfig{
			Background:       "#030f2b",
			FadedColor:       "#030d2b02",
			DefaultEdgeColor: "#030f2b1a",
			LabelSize:        12,
			LabelThreshold:   8,
			ActivePolicy:     PolicyGate,
		},
		Window: WindowConfig{
			Start: 2,
			End:   6,
			Max:   6,
			Step:  0.1,
		},
		Layout: LayoutConfig{
			Initial:            []string{"force"},
			Duration:           time.Second,
			FrameInterval:      33 * time.Millisecond,
			ForceIterations:    500,
			NoverlapIterations: 500,
		},
		Camera: CameraConfig{
			MinRatio: 0.05,
			MaxRatio: 20,
			ZoomStep: 1.5,
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8537",
			AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:3000"},
			ShutdownTimeout: 10 * time.Second,
			SessionTTL:      time.Hour,
		},
		Paths: PathsConfig{
			Log: ".nodescope/nodescope.log",
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}
