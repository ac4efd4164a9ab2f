// Package config loads the viewer configuration from YAML. Fields missing from the file
// keep their defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Duration wraps time.Duration for YAML, written as a Go duration string such as "20ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// RGB is a colour written as a three element list of 0-255 channels.
type RGB [3]int

// Color converts to common.Color, clamping channels.
func (c RGB) Color() common.Color {
	return common.NewColor(c[0], c[1], c[2])
}

func (c RGB) valid() bool {
	for _, v := range c {
		if v < 0 || v > 255 {
			return false
		}
	}
	return true
}

// ViewerConfig configures the on-screen view and file loading.
type ViewerConfig struct {
	PartColor       RGB     `yaml:"part_color"`
	Background      RGB     `yaml:"background"`
	CameraAzimuth   float64 `yaml:"camera_azimuth"`
	CameraElevation float64 `yaml:"camera_elevation"`
	LoadWorkers     int     `yaml:"load_workers"`
	CacheGeometry   bool    `yaml:"cache_geometry"`
}

// FilterConfig holds the parameters used when a filter is switched on.
type FilterConfig struct {
	ShrinkFactor float64    `yaml:"shrink_factor"`
	ClipNormal   [3]float64 `yaml:"clip_normal"`
}

// VRConfig configures the VR loop and its desktop mirror.
type VRConfig struct {
	FrameInterval     Duration `yaml:"frame_interval"`
	Background        RGB      `yaml:"background"`
	PlacementRotation float64  `yaml:"placement_rotation"`
	ProfileInterval   Duration `yaml:"profile_interval"`
	MirrorWidth       int      `yaml:"mirror_width"`
	MirrorHeight      int      `yaml:"mirror_height"`
	MirrorTitle       string   `yaml:"mirror_title"`
}

// EngineConfig configures the engine tick.
type EngineConfig struct {
	TickRate        int     `yaml:"tick_rate"`
	AutoRotateScale float64 `yaml:"auto_rotate_scale"`
}

// LightConfig configures the scene light.
type LightConfig struct {
	Intensity float64 `yaml:"intensity"`
}

// WatchConfig configures auto-reload of loaded files.
type WatchConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Debounce Duration `yaml:"debounce"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn or error
}

// Config is the complete viewer configuration.
type Config struct {
	Viewer  ViewerConfig `yaml:"viewer"`
	Filters FilterConfig `yaml:"filters"`
	VR      VRConfig     `yaml:"vr"`
	Engine  EngineConfig `yaml:"engine"`
	Light   LightConfig  `yaml:"light"`
	Watch   WatchConfig  `yaml:"watch"`
	Log     LogConfig    `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Viewer: ViewerConfig{
			PartColor:       RGB{230, 0, 0},
			CameraAzimuth:   30,
			CameraElevation: 30,
			LoadWorkers:     4,
			CacheGeometry:   true,
		},
		Filters: FilterConfig{
			ShrinkFactor: 0.8,
			ClipNormal:   [3]float64{1, 0, 0},
		},
		VR: VRConfig{
			FrameInterval:     Duration(20 * time.Millisecond),
			Background:        RGB{26, 51, 102},
			PlacementRotation: -90,
			MirrorWidth:       1280,
			MirrorHeight:      720,
			MirrorTitle:       "oxyview VR mirror",
		},
		Engine: EngineConfig{
			TickRate:        60,
			AutoRotateScale: 0.1,
		},
		Light: LightConfig{
			Intensity: 0.5,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: Duration(500 * time.Millisecond),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result. A missing file
// yields the defaults.
//
// Parameters:
//   - path: the config file
//
// Returns:
//   - Config: the configuration
//   - error: error if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		common.Logger().Debug("config file not found, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	common.Logger().Info("loaded config", "path", path)
	return cfg, nil
}

// Save writes the configuration as YAML.
//
// Parameters:
//   - path: the destination file
//
// Returns:
//   - error: error if the file cannot be written
func (c Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(&c); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Validate checks ranges.
//
// Returns:
//   - error: ErrInvalidConfig naming the first bad field
func (c Config) Validate() error {
	switch {
	case !c.Viewer.PartColor.valid():
		return fmt.Errorf("%w: viewer.part_color channels must be 0-255", ErrInvalidConfig)
	case !c.Viewer.Background.valid():
		return fmt.Errorf("%w: viewer.background channels must be 0-255", ErrInvalidConfig)
	case c.Viewer.LoadWorkers < 1:
		return fmt.Errorf("%w: viewer.load_workers must be at least 1", ErrInvalidConfig)
	case c.Filters.ShrinkFactor <= 0 || c.Filters.ShrinkFactor > 1:
		return fmt.Errorf("%w: filters.shrink_factor must be in (0, 1]", ErrInvalidConfig)
	case c.Filters.ClipNormal == [3]float64{}:
		return fmt.Errorf("%w: filters.clip_normal must not be zero", ErrInvalidConfig)
	case c.VR.FrameInterval <= 0:
		return fmt.Errorf("%w: vr.frame_interval must be positive", ErrInvalidConfig)
	case !c.VR.Background.valid():
		return fmt.Errorf("%w: vr.background channels must be 0-255", ErrInvalidConfig)
	case c.VR.MirrorWidth < 1 || c.VR.MirrorHeight < 1:
		return fmt.Errorf("%w: vr mirror size must be positive", ErrInvalidConfig)
	case c.Engine.TickRate < 1:
		return fmt.Errorf("%w: engine.tick_rate must be at least 1", ErrInvalidConfig)
	case c.Light.Intensity < 0 || c.Light.Intensity > 1:
		return fmt.Errorf("%w: light.intensity must be in [0, 1]", ErrInvalidConfig)
	case c.Watch.Debounce < 0:
		return fmt.Errorf("%w: watch.debounce must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// SlogLevel parses Level.
//
// Returns:
//   - slog.Level: the level, info when empty
//   - error: error for an unknown level name
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", l.Level)
	}
}
