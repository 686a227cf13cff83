package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadJSONOverridesDefaults(t *testing.T) {
	path := writeFile(t, "engine.json", `{
  "sample_rate": 48000,
  "master_gain": 0.5,
  "log_level": "debug"
}`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.SampleRate != 48000 || c.MasterGain != 0.5 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.LogLevel != slog.LevelDebug {
		t.Fatalf("log level = %v, want debug", c.LogLevel)
	}
	d := Default()
	if c.BlockSize != d.BlockSize || c.PitchBendRange != d.PitchBendRange || c.ReleaseTail != d.ReleaseTail {
		t.Fatalf("unset fields should keep defaults: %+v", c)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "engine.yaml", "block_size: 256\npitch_bend_range: 12\nlookahead: 0.1\nlog_level: warn\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.BlockSize != 256 || c.PitchBendRange != 12 || c.Lookahead != 0.1 {
		t.Fatalf("yaml fields not applied: %+v", c)
	}
	if c.LogLevel != slog.LevelWarn {
		t.Fatalf("log level = %v, want warn", c.LogLevel)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeFile(t, "engine.toml", "sample_rate = 44100")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for .toml")
	}
}

func TestLoadRejectsInvalidRanges(t *testing.T) {
	for _, content := range []string{
		`{"sample_rate": 100}`,
		`{"block_size": 0}`,
		`{"master_gain": -1}`,
		`{"pitch_bend_range": 48}`,
		`{"release_tail": -0.1}`,
		`{"log_level": "loud"}`,
	} {
		path := writeFile(t, "engine.json", content)
		if _, err := Load(path); err == nil {
			t.Fatalf("expected error for %s", content)
		}
	}
}

func TestApplyNilFileKeepsConfig(t *testing.T) {
	c := Default()
	if err := Apply(c, nil); err != nil {
		t.Fatalf("Apply(nil): %v", err)
	}
	if *c != *Default() {
		t.Fatalf("config changed: %+v", c)
	}
	if err := Apply(nil, &File{}); err == nil {
		t.Fatalf("expected error for nil destination")
	}
}
