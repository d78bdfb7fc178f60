// Package config reads the application configuration from OXY_* environment variables, a dotenv file
// or a YAML file.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid configuration")

// Present modes accepted by RendererConfiguration.PresentMode.
const (
	PresentModeVSync    = "vsync"
	PresentModeUncapped = "uncapped"
)

// Log formats accepted by LogConfiguration.Format.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Configuration defines the application configuration.
type Configuration struct {
	Window   WindowConfiguration   `yaml:"window"`
	Renderer RendererConfiguration `yaml:"renderer"`
	Engine   EngineConfiguration   `yaml:"engine"`
	Log      LogConfiguration      `yaml:"log"`
}

// WindowConfiguration is used to configure the host window
type WindowConfiguration struct {
	Title     string `yaml:"title" env:"OXY_WINDOW_TITLE"`
	Width     int    `yaml:"width" env:"OXY_WINDOW_WIDTH"`
	Height    int    `yaml:"height" env:"OXY_WINDOW_HEIGHT"`
	MinWidth  int    `yaml:"min_width" env:"OXY_WINDOW_MIN_WIDTH"`
	MinHeight int    `yaml:"min_height" env:"OXY_WINDOW_MIN_HEIGHT"`
	Resizable bool   `yaml:"resizable" env:"OXY_WINDOW_RESIZABLE"`
}

// RendererConfiguration is used to configure the device and projection
type RendererConfiguration struct {
	PresentMode      string `yaml:"present_mode" env:"OXY_PRESENT_MODE"`
	SoftwareRenderer bool   `yaml:"software_renderer" env:"OXY_SOFTWARE_RENDERER"`

	// FovY is the vertical field of view in degrees.
	FovY float32 `yaml:"fov_y" env:"OXY_FOV_Y"`
	Near float32 `yaml:"near" env:"OXY_NEAR"`
	Far  float32 `yaml:"far" env:"OXY_FAR"`
}

// EngineConfiguration is used to configure the render loop
type EngineConfiguration struct {
	// FrameLimit caps frames per second. To unlimit, set to 0
	FrameLimit      float64 `yaml:"frame_limit" env:"OXY_FRAME_LIMIT"`
	Profiling       bool    `yaml:"profiling" env:"OXY_PROFILING"`
	MaxDeviceResets int     `yaml:"max_device_resets" env:"OXY_MAX_DEVICE_RESETS"`
	PreloadWorkers  int     `yaml:"preload_workers" env:"OXY_PRELOAD_WORKERS"`
}

// LogConfiguration is used to configure logrus
type LogConfiguration struct {
	Level  string `yaml:"level" env:"OXY_LOG_LEVEL"`
	Format string `yaml:"format" env:"OXY_LOG_FORMAT"`
}

// Default returns the configuration used when no variables are set.
func Default() Configuration {
	return Configuration{
		Window: WindowConfiguration{
			Title:     "Oxy Frame",
			Width:     800,
			Height:    600,
			Resizable: true,
		},
		Renderer: RendererConfiguration{
			PresentMode: PresentModeVSync,
			FovY:        45,
			Near:        0.1,
			Far:         1000,
		},
		Engine: EngineConfiguration{
			MaxDeviceResets: 3,
			PreloadWorkers:  4,
		},
		Log: LogConfiguration{
			Level:  "info",
			Format: LogFormatText,
		},
	}
}

// Load reads the configuration from the process environment. envy also loads a .env file from the
// working directory if one exists. Unset variables keep their defaults. The result is validated.
//
// Returns:
//   - Configuration: the loaded configuration
//   - error: a parse or validation error
func Load() (Configuration, error) {
	return parse(envy.Map())
}

// LoadFile reads the configuration from a file, ignoring the process environment. Files ending in
// .yaml or .yml are decoded as YAML; anything else is read as a dotenv file of OXY_* keys.
// Keys missing from the file keep their defaults. The result is validated.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Configuration: the loaded configuration
//   - error: a read, parse or validation error
func LoadFile(path string) (Configuration, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path)
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return parse(values)
}

func loadYAML(path string) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Configuration{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return c.normalized()
}

// Validate checks the configuration for values the engine cannot run with.
//
// Returns:
//   - error: an error wrapping ErrInvalid that lists every problem, or nil
func (c Configuration) Validate() error {
	var problems []string
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		problems = append(problems, fmt.Sprintf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Window.MinWidth < 0 || c.Window.MinHeight < 0 {
		problems = append(problems, "window minimum size must not be negative")
	}
	switch c.Renderer.PresentMode {
	case PresentModeVSync, PresentModeUncapped:
	default:
		problems = append(problems, fmt.Sprintf("unknown present mode %q", c.Renderer.PresentMode))
	}
	if c.Renderer.FovY <= 0 || c.Renderer.FovY >= 180 {
		problems = append(problems, fmt.Sprintf("field of view %g must be between 0 and 180 degrees", c.Renderer.FovY))
	}
	if c.Renderer.Near <= 0 {
		problems = append(problems, "near plane must be positive")
	}
	if c.Renderer.Far <= c.Renderer.Near {
		problems = append(problems, "far plane must be beyond the near plane")
	}
	if c.Engine.FrameLimit < 0 {
		problems = append(problems, "frame limit must not be negative")
	}
	if c.Engine.PreloadWorkers < 1 {
		problems = append(problems, "preload workers must be at least 1")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	switch c.Log.Format {
	case LogFormatText, LogFormatJSON:
	default:
		problems = append(problems, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

// FovYRadians returns the vertical field of view in radians.
func (r RendererConfiguration) FovYRadians() float32 {
	return r.FovY * math.Pi / 180
}

// Apply sets the level and formatter of logger.
//
// Parameters:
//   - logger: the logger to configure
//
// Returns:
//   - error: error if the level cannot be parsed
func (l LogConfiguration) Apply(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.SetLevel(level)
	if l.Format == LogFormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// parse decodes the OXY_* keys of environment over the defaults.
func parse(environment map[string]string) (Configuration, error) {
	c := Default()
	if err := env.ParseWithOptions(&c, env.Options{Environment: environment}); err != nil {
		return Configuration{}, fmt.Errorf("config: %w", err)
	}
	return c.normalized()
}

// normalized lowercases the enumerated values and validates the result.
func (c Configuration) normalized() (Configuration, error) {
	c.Renderer.PresentMode = strings.ToLower(strings.TrimSpace(c.Renderer.PresentMode))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if err := c.Validate(); err != nil {
		return Configuration{}, err
	}
	return c, nil
}
