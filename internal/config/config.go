// Package config loads the mudra configuration file. Every section starts
// from its package defaults and the YAML file overrides what it sets.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/bus"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gallery"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
)

// DirName is the per-user data directory under $HOME.
const DirName = ".mudra"

// FileName is the configuration file inside the data directory.
const FileName = "config.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the whole application configuration.
type Config struct {
	// DataDir holds the database, logs and plugins. A leading ~ expands to
	// the home directory.
	DataDir  string          `yaml:"data_dir" json:"data_dir"`
	Log      LogConfig       `yaml:"log" json:"log"`
	Camera   capture.Config  `yaml:"camera" json:"camera"`
	Pipeline PipelineConfig  `yaml:"pipeline" json:"pipeline"`
	Detector detector.Config `yaml:"detector" json:"detector"`
	Gesture  gesture.Config  `yaml:"gesture" json:"gesture"`
	Gallery  gallery.Config  `yaml:"gallery" json:"gallery"`
	Server   ServerConfig    `yaml:"server" json:"server"`
	Bus      bus.Config      `yaml:"bus" json:"bus"`
	Plugins  plugin.Config   `yaml:"plugins" json:"plugins"`
	Tray     TrayConfig      `yaml:"tray" json:"tray"`
}

// LogConfig selects the log level and an optional log directory.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	Dir   string `yaml:"dir" json:"dir"`
}

// PipelineConfig controls how fast frames are sampled.
type PipelineConfig struct {
	IdleFPS   int           `yaml:"idle_fps" json:"idle_fps"`
	ActiveFPS int           `yaml:"active_fps" json:"active_fps"`
	IdleAfter time.Duration `yaml:"idle_after" json:"idle_after"`
	// MotionThreshold is the changed-pixel percentage that counts as motion.
	MotionThreshold float64 `yaml:"motion_threshold" json:"motion_threshold"`
	StartEnabled    bool    `yaml:"start_enabled" json:"start_enabled"`
	// Annotate draws landmarks on the streamed frames.
	Annotate bool `yaml:"annotate" json:"annotate"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	StaticDir string `yaml:"static_dir" json:"static_dir"`
}

// TrayConfig controls the system tray icon.
type TrayConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DataDir: "~/" + DirName,
		Log:     LogConfig{Level: "info"},
		Camera:  capture.DefaultConfig(),
		Pipeline: PipelineConfig{
			IdleFPS:         capture.DefaultFPS,
			ActiveFPS:       15,
			IdleAfter:       2 * time.Second,
			MotionThreshold: capture.DefaultMotionThreshold,
			StartEnabled:    true,
			Annotate:        true,
		},
		Detector: detector.DefaultConfig(),
		Gesture:  gesture.DefaultConfig(),
		Gallery:  gallery.DefaultConfig(),
		Server:   ServerConfig{Addr: "127.0.0.1:8080"},
		Plugins:  plugin.DefaultConfig(),
		Tray:     TrayConfig{Enabled: true},
	}
}

// DefaultPath returns ~/.mudra/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(DirName, FileName)
	}
	return filepath.Join(home, DirName, FileName)
}

// Load reads path over the defaults. An empty path returns the defaults.
// Relative directories are resolved and validated before returning.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	cfg.resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to the defaults when the file does
// not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Load("")
	}
	return Load(path)
}

// Write stores c as YAML at path, creating the parent directory.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Validate checks the sections that have no sensible fallback.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is required", ErrInvalid)
	}
	if c.Pipeline.IdleFPS <= 0 || c.Pipeline.ActiveFPS <= 0 {
		return fmt.Errorf("%w: pipeline rates must be positive", ErrInvalid)
	}
	if c.Pipeline.ActiveFPS < c.Pipeline.IdleFPS {
		return fmt.Errorf("%w: pipeline.active_fps must not be below idle_fps", ErrInvalid)
	}
	if c.Pipeline.IdleAfter < 0 {
		return fmt.Errorf("%w: pipeline.idle_after must not be negative", ErrInvalid)
	}
	if c.Camera.Device < 0 {
		return fmt.Errorf("%w: camera.device must not be negative", ErrInvalid)
	}
	if c.Detector.MaxHands < 2 {
		return fmt.Errorf("%w: detector.max_hands must be at least 2", ErrInvalid)
	}
	if err := c.Gesture.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// DBPath returns the SQLite database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "mudra.db")
}

// resolve expands ~ and derives directories left empty from DataDir.
func (c *Config) resolve() {
	c.DataDir = ExpandHome(c.DataDir)
	c.Log.Dir = ExpandHome(c.Log.Dir)
	c.Gallery.Dir = ExpandHome(c.Gallery.Dir)
	c.Server.StaticDir = ExpandHome(c.Server.StaticDir)
	c.Detector.ScriptPath = ExpandHome(c.Detector.ScriptPath)

	if c.Plugins.Dir == "" {
		c.Plugins.Dir = filepath.Join(c.DataDir, "plugins")
	} else {
		c.Plugins.Dir = ExpandHome(c.Plugins.Dir)
	}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
