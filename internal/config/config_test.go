package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.Classifier.MinHoldCycles != nil || cfg.Engine.Keymap != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := writeConfig(t, `
[classifier]
min-hold-cycles = 25
double-click-latch = true

[engine]
cycle-period = "2ms"
keymap = "/tmp/atreus.yaml"

[log]
level = "debug"
`)
	fc, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Classifier.MinHoldCycles == nil || *fc.Classifier.MinHoldCycles != 25 {
		t.Fatalf("min-hold: got %v", fc.Classifier.MinHoldCycles)
	}
	if fc.Classifier.MaxDoubleClickCycles != nil {
		t.Fatalf("unset max-double-click should stay nil")
	}
	if fc.Classifier.DoubleClickLatch == nil || !*fc.Classifier.DoubleClickLatch {
		t.Fatalf("expected latch enabled")
	}
	period, err := ParsePeriod(*fc.Engine.CyclePeriod)
	if err != nil || period != 2*time.Millisecond {
		t.Fatalf("cycle period: got %s (%v)", period, err)
	}
	if *fc.Engine.Keymap != "/tmp/atreus.yaml" || *fc.Log.Level != "debug" {
		t.Fatalf("unexpected config %+v", fc)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.MinHoldCycles != 40 || cfg.MaxDoubleClickCycles != 40 || cfg.CyclePeriod != time.Millisecond {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	cases := map[string]string{
		"zero threshold": "[classifier]\nmin-hold-cycles = 0\n",
		"bad period":     "[engine]\ncycle-period = \"fast\"\n",
		"negative":       "[engine]\ncycle-period = \"-1ms\"\n",
		"bad level":      "[log]\nlevel = \"loud\"\n",
		"unknown key":    "[classifier]\nhold = 3\n",
		"syntax":         "[classifier\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "fnlayer", "config.toml") {
		t.Fatalf("config path: %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "fnlayer", "fnlayer.db") {
		t.Fatalf("db path: %s", got)
	}
	if got := DefaultKeymapPath(); !strings.HasPrefix(got, "/cfg") {
		t.Fatalf("keymap path: %s", got)
	}
}

func TestDefaultPathsFallBackToHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "/home/fn")
	if got := DefaultKeymapPath(); got != filepath.Join("/home/fn", ".config", "fnlayer", "keymap.toml") {
		t.Fatalf("keymap path: %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/home/fn", ".local", "share", "fnlayer", "fnlayer.db") {
		t.Fatalf("db path: %s", got)
	}
}
