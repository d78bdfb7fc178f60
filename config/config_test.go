package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gobuffalo/envy"
	"github.com/sirupsen/logrus"
)

func writeEnv(c *qt.C, content string) string {
	return writeFile(c, "oxy.env", content)
}

func writeFile(c *qt.C, name, content string) string {
	path := filepath.Join(c.TempDir(), name)
	c.Assert(os.WriteFile(path, []byte(content), 0o600), qt.IsNil)
	return path
}

func TestDefaultIsValid(t *testing.T) {
	c := qt.New(t)
	c.Assert(Default().Validate(), qt.IsNil)
}

func TestLoadFile(t *testing.T) {
	c := qt.New(t)
	path := writeEnv(c, `# window
OXY_WINDOW_TITLE="Frame Test"
OXY_WINDOW_WIDTH=1280
OXY_WINDOW_HEIGHT=720
OXY_WINDOW_RESIZABLE=false
OXY_PRESENT_MODE=Uncapped
OXY_FOV_Y=60
OXY_FAR=250.5
OXY_FRAME_LIMIT=144
OXY_PROFILING=true
OXY_LOG_LEVEL=debug
OXY_LOG_FORMAT=JSON
`)

	cfg, err := LoadFile(path)
	c.Assert(err, qt.IsNil)

	want := Default()
	want.Window.Title = "Frame Test"
	want.Window.Width = 1280
	want.Window.Height = 720
	want.Window.Resizable = false
	want.Renderer.PresentMode = PresentModeUncapped
	want.Renderer.FovY = 60
	want.Renderer.Far = 250.5
	want.Engine.FrameLimit = 144
	want.Engine.Profiling = true
	want.Log.Level = "debug"
	want.Log.Format = LogFormatJSON
	c.Assert(cfg, qt.DeepEquals, want)
}

func TestLoadFileErrors(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bad int",
			content: "OXY_WINDOW_WIDTH=wide\n",
			want:    `config: env: parse error on field "Width" of type "int": .*"wide".*`,
		},
		{
			name:    "bad bool",
			content: "OXY_PROFILING=sometimes\n",
			want:    `config: env: parse error on field "Profiling" of type "bool": .*"sometimes".*`,
		},
		{
			name:    "zero size",
			content: "OXY_WINDOW_WIDTH=0\n",
			want:    `config: invalid configuration: window size 0x600 must be positive`,
		},
		{
			name:    "far before near",
			content: "OXY_NEAR=10\nOXY_FAR=5\n",
			want:    `config: invalid configuration: far plane must be beyond the near plane`,
		},
		{
			name:    "present mode",
			content: "OXY_PRESENT_MODE=mailbox\n",
			want:    `config: invalid configuration: unknown present mode "mailbox"`,
		},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			_, err := LoadFile(writeEnv(c, tt.content))
			c.Assert(err, qt.ErrorMatches, tt.want)
		})
	}
}

func TestLoadFileYAML(t *testing.T) {
	c := qt.New(t)
	path := writeFile(c, "oxy.yaml", `
window:
  title: YAML Frame
  width: 1920
  height: 1080
renderer:
  present_mode: VSYNC
  near: 0.5
engine:
  max_device_resets: 0
log:
  level: error
`)

	cfg, err := LoadFile(path)
	c.Assert(err, qt.IsNil)

	want := Default()
	want.Window.Title = "YAML Frame"
	want.Window.Width = 1920
	want.Window.Height = 1080
	want.Renderer.Near = 0.5
	want.Engine.MaxDeviceResets = 0
	want.Log.Level = "error"
	c.Assert(cfg, qt.DeepEquals, want)
}

func TestLoadFileYAMLErrors(t *testing.T) {
	c := qt.New(t)

	_, err := LoadFile(writeFile(c, "bad.yml", "window: [1, 2"))
	c.Assert(err, qt.ErrorMatches, `config: decode .*bad.yml: .*`)

	_, err = LoadFile(writeFile(c, "invalid.yaml", "window:\n  height: -1\n"))
	c.Assert(err, qt.ErrorIs, ErrInvalid)
}

func TestLoadFileEmptyValueKeepsDefault(t *testing.T) {
	c := qt.New(t)
	cfg, err := LoadFile(writeEnv(c, "OXY_WINDOW_TITLE=\nOXY_WINDOW_HEIGHT=480\n"))
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Window.Title, qt.Equals, "Oxy Frame")
	c.Assert(cfg.Window.Height, qt.Equals, 480)
}

func TestLoadFileMissing(t *testing.T) {
	c := qt.New(t)
	_, err := LoadFile(filepath.Join(c.TempDir(), "missing.env"))
	c.Assert(err, qt.ErrorIs, os.ErrNotExist)
}

func TestValidateCollectsProblems(t *testing.T) {
	c := qt.New(t)
	cfg := Default()
	cfg.Renderer.FovY = 0
	cfg.Engine.PreloadWorkers = 0
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	c.Assert(err, qt.ErrorIs, ErrInvalid)
	c.Assert(err, qt.ErrorMatches, `config: invalid configuration: field of view 0 must be between 0 and 180 degrees; preload workers must be at least 1; unknown log format "xml"`)
}

func TestLoadFromEnvironment(t *testing.T) {
	c := qt.New(t)
	envy.Temp(func() {
		envy.Set("OXY_WINDOW_WIDTH", "1024")
		envy.Set("OXY_MAX_DEVICE_RESETS", "-1")
		envy.Set("OXY_LOG_LEVEL", "warn")

		cfg, err := Load()
		c.Assert(err, qt.IsNil)
		c.Assert(cfg.Window.Width, qt.Equals, 1024)
		c.Assert(cfg.Window.Height, qt.Equals, 600)
		c.Assert(cfg.Engine.MaxDeviceResets, qt.Equals, -1)
		c.Assert(cfg.Log.Level, qt.Equals, "warn")
	})
}

func TestFovYRadians(t *testing.T) {
	c := qt.New(t)
	r := RendererConfiguration{FovY: 180}
	c.Assert(math.Abs(float64(r.FovYRadians())-math.Pi) < 1e-6, qt.IsTrue)
}

func TestLogApply(t *testing.T) {
	c := qt.New(t)
	logger := logrus.New()

	c.Assert(LogConfiguration{Level: "debug", Format: LogFormatJSON}.Apply(logger), qt.IsNil)
	c.Assert(logger.GetLevel(), qt.Equals, logrus.DebugLevel)
	_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
	c.Assert(isJSON, qt.IsTrue)

	err := LogConfiguration{Level: "loud"}.Apply(logger)
	c.Assert(err, qt.ErrorMatches, `config: not a valid logrus Level: "loud"`)
}
