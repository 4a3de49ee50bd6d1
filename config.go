package cursorrt

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type CursorConfig struct {
	Image string `yaml:"image"`
	// Size scales each frame so its longer side is Size pixels. 0 keeps the native size.
	Size     int     `yaml:"size"`
	HotspotX int     `yaml:"hotspot_x"`
	HotspotY int     `yaml:"hotspot_y"`
	Columns  int     `yaml:"columns"`
	Rows     int     `yaml:"rows"`
	Depth    float32 `yaml:"depth"`
	Invert   bool    `yaml:"invert"`
	Watch    bool    `yaml:"watch"`

	FrameDuration time.Duration `yaml:"frame_duration"`
}

type Config struct {
	Window WindowConfig `yaml:"window"`
	Cursor CursorConfig `yaml:"cursor"`
	Debug  bool         `yaml:"debug"`
}

func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "Cursor RT",
		},
		Cursor: CursorConfig{
			Columns:       1,
			Rows:          1,
			Depth:         0,
			FrameDuration: 100 * time.Millisecond,
		},
	}
}

// LoadConfig reads a YAML config on top of DefaultConfig. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "read config %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Cursor.Size < 0 {
		return errors.Errorf("cursor size must not be negative, got %d", c.Cursor.Size)
	}
	if c.Cursor.Columns <= 0 || c.Cursor.Rows <= 0 {
		return errors.Errorf("cursor frame grid must be at least 1x1, got %dx%d", c.Cursor.Columns, c.Cursor.Rows)
	}
	if c.Cursor.Depth < -1 || c.Cursor.Depth > 1 {
		return errors.Errorf("cursor depth %v outside [-1, 1]", c.Cursor.Depth)
	}
	if c.Cursor.Columns*c.Cursor.Rows > 1 && c.Cursor.FrameDuration <= 0 {
		return errors.New("animated cursor needs a positive frame_duration")
	}
	return nil
}
