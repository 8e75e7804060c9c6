// Package config loads the timeline configuration and the section colour
// palette. Defaults are embedded in the binary; a user can override them
// with yaml files in the "tahti" directory under os.UserConfigDir().
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

type (
	Config struct {
		Timeline  TimelineConfig
		Zoom      ZoomConfig
		Transport TransportConfig
		Undo      UndoConfig
		YmlError  error `yaml:"-"`
	}

	TimelineConfig struct {
		// Length is the default timeline length in seconds.
		Length float64
		// ViewDuration is how many seconds of timeline the initial zoom
		// fits in the viewport.
		ViewDuration float64
	}

	ZoomConfig struct {
		// Min and Max bound the horizontal zoom in pixels per beat. The
		// effective lower bound can be higher, as the controller never
		// zooms out much past the full timeline.
		Min float64
		Max float64
		// The sensitivities divide a zoom gesture delta into a zoom
		// factor; higher means slower. The shift variants apply while a
		// fine-zoom modifier is held.
		InSensitivity       float64
		OutSensitivity      float64
		ShiftInSensitivity  float64
		ShiftOutSensitivity float64
	}

	TransportConfig struct {
		// PollIntervalMs is how often a Poller mirrors the engine
		// position into the state, in milliseconds.
		PollIntervalMs int
	}

	UndoConfig struct {
		// MaxStates caps the undo and redo stacks.
		MaxStates int
	}
)

//go:embed defaults.yml
var defaultConfigYaml []byte

func loadDefaultConfig() Config {
	var cfg Config
	err := yaml.UnmarshalStrict(defaultConfigYaml, &cfg)
	if err != nil {
		panic(fmt.Errorf("failed to unmarshal default config: %w", err))
	}
	return cfg
}

// ReadCustomConfigYml modifies the target argument, i.e. needs a pointer
func ReadCustomConfigYml(filename string, target interface{}) (exists bool, err error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return false, err
	}
	path := filepath.Join(configDir, "tahti", filename)
	bytes, err2 := os.ReadFile(path)
	if err2 != nil {
		return false, err2
	}
	err = yaml.Unmarshal(bytes, target)
	return true, err
}

// Default returns the embedded defaults, untouched by any user file.
func Default() Config {
	return loadDefaultConfig()
}

// Load returns the embedded defaults with the user's config.yml, if any,
// applied on top. A malformed user file is not fatal; the error is stored
// in YmlError for the caller to report.
func Load() Config {
	cfg := loadDefaultConfig()
	exists, err := ReadCustomConfigYml("config.yml", &cfg)
	if exists {
		cfg.YmlError = err
	}
	return cfg
}

// PollInterval returns the poll interval as a duration.
func (t TransportConfig) PollInterval() time.Duration {
	return time.Duration(t.PollIntervalMs) * time.Millisecond
}
