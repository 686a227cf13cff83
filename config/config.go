// Package config loads engine settings for the command-line tools.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds render and playback settings.
type Config struct {
	SampleRate     int
	BlockSize      int
	MasterGain     float64
	PitchBendRange float64
	// Lookahead is how far ahead of the render clock live events are
	// scheduled, in seconds.
	Lookahead   float64
	ReleaseTail float64
	LogLevel    slog.Level
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		SampleRate:     44100,
		BlockSize:      128,
		MasterGain:     0.3,
		PitchBendRange: 2,
		Lookahead:      0.05,
		ReleaseTail:    0.05,
		LogLevel:       slog.LevelInfo,
	}
}

// File is the on-disk schema. Absent fields keep their defaults.
type File struct {
	SampleRate     *int     `json:"sample_rate" yaml:"sample_rate"`
	BlockSize      *int     `json:"block_size" yaml:"block_size"`
	MasterGain     *float64 `json:"master_gain" yaml:"master_gain"`
	PitchBendRange *float64 `json:"pitch_bend_range" yaml:"pitch_bend_range"`
	Lookahead      *float64 `json:"lookahead" yaml:"lookahead"`
	ReleaseTail    *float64 `json:"release_tail" yaml:"release_tail"`
	LogLevel       string   `json:"log_level" yaml:"log_level"`
}

// Load reads a JSON or YAML file, chosen by extension, and applies it on
// top of Default.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &f)
	case ".json":
		err = json.Unmarshal(b, &f)
	default:
		return nil, fmt.Errorf("unsupported config format %q (expected .json, .yaml or .yml)", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	c := Default()
	if err := Apply(c, &f); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply validates a parsed file and copies its fields onto dst.
func Apply(dst *Config, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination config")
	}
	if f == nil {
		return nil
	}

	if f.SampleRate != nil {
		if *f.SampleRate < 8000 || *f.SampleRate > 192000 {
			return fmt.Errorf("sample_rate must be in [8000,192000]")
		}
		dst.SampleRate = *f.SampleRate
	}
	if f.BlockSize != nil {
		if *f.BlockSize <= 0 {
			return fmt.Errorf("block_size must be > 0")
		}
		dst.BlockSize = *f.BlockSize
	}
	if f.MasterGain != nil {
		if *f.MasterGain < 0 {
			return fmt.Errorf("master_gain must be >= 0")
		}
		dst.MasterGain = *f.MasterGain
	}
	if f.PitchBendRange != nil {
		if *f.PitchBendRange <= 0 || *f.PitchBendRange > 24 {
			return fmt.Errorf("pitch_bend_range must be in (0,24]")
		}
		dst.PitchBendRange = *f.PitchBendRange
	}
	if f.Lookahead != nil {
		if *f.Lookahead < 0 {
			return fmt.Errorf("lookahead must be >= 0")
		}
		dst.Lookahead = *f.Lookahead
	}
	if f.ReleaseTail != nil {
		if *f.ReleaseTail < 0 {
			return fmt.Errorf("release_tail must be >= 0")
		}
		dst.ReleaseTail = *f.ReleaseTail
	}
	if f.LogLevel != "" {
		if err := dst.LogLevel.UnmarshalText([]byte(strings.TrimSpace(f.LogLevel))); err != nil {
			return fmt.Errorf("invalid log_level %q", f.LogLevel)
		}
	}
	return nil
}

// Logger returns a text logger on stderr at the configured level.
func (c *Config) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}
