// Package config handles earthview configuration loading and management.
package config

import "time"

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Assets   AssetsConfig   `yaml:"assets"`
	Globe    GlobeConfig    `yaml:"globe"`
	Camera   CameraConfig   `yaml:"camera"`
	Logging  LoggingConfig  `yaml:"logging"`

	// Source is the file the config was read from, if any.
	Source string `yaml:"-"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
	ShowFPS    bool `yaml:"show_fps"`

	// MaxTextureSize overrides the GL_MAX_TEXTURE_SIZE query when > 0.
	MaxTextureSize int `yaml:"max_texture_size"`

	ScreenshotDir string `yaml:"screenshot_dir"`
}

// AssetsConfig holds texture source settings.
type AssetsConfig struct {
	Base          string        `yaml:"base"` // http(s) URL or local directory
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	MaxConcurrent int           `yaml:"max_concurrent"`
}

// GlobeConfig holds globe animation and layer settings.
type GlobeConfig struct {
	RotationSpeed      float32       `yaml:"rotation_speed"`       // rad/s, earth-locked layers
	CloudRotationSpeed float32       `yaml:"cloud_rotation_speed"` // rad/s
	UpgradeInterval    time.Duration `yaml:"upgrade_interval"`
	Layers             LayersConfig  `yaml:"layers"`
}

// LayersConfig holds the initial visibility of each globe layer.
type LayersConfig struct {
	Surface bool `yaml:"surface"`
	Borders bool `yaml:"borders"`
	Lights  bool `yaml:"lights"`
	Clouds  bool `yaml:"clouds"`
	Stars   bool `yaml:"stars"`
}

// CameraConfig holds projection and orbit settings.
type CameraConfig struct {
	FOV         float32 `yaml:"fov"` // degrees
	Near        float32 `yaml:"near"`
	Far         float32 `yaml:"far"`
	Distance    float32 `yaml:"distance"`
	MinDistance float32 `yaml:"min_distance"`
	MaxDistance float32 `yaml:"max_distance"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:         1280,
			Height:        720,
			Fullscreen:    false,
			VSync:         true,
			FPSLimit:      0,
			ScreenshotDir: "screenshots",
		},
		Assets: AssetsConfig{
			Base:          "images",
			FetchTimeout:  60 * time.Second,
			MaxConcurrent: 4,
		},
		Globe: GlobeConfig{
			RotationSpeed:      0.03,
			CloudRotationSpeed: 0.036,
			UpgradeInterval:    100 * time.Millisecond,
			Layers: LayersConfig{
				Surface: true,
				Borders: true,
				Lights:  true,
				Clouds:  true,
				Stars:   true,
			},
		},
		Camera: CameraConfig{
			FOV:         45,
			Near:        0.1,
			Far:         1000,
			Distance:    1.5,
			MinDistance: 0.6,
			MaxDistance: 10,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
