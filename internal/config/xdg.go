package config

import (
	"os"
	"path/filepath"
)

const appName = "fnlayer"

// xdgHome returns the directory named by env, or fallback under the user's
// home directory when env is unset.
func xdgHome(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

func configFile(name string) string {
	return filepath.Join(xdgHome("XDG_CONFIG_HOME", ".config"), appName, name)
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return configFile("config.toml")
}

// DefaultKeymapPath returns the user keymap path. The embedded keymap is used
// when it does not exist.
func DefaultKeymapPath() string {
	return configFile("keymap.toml")
}

// DefaultDBPath returns the run journal location.
func DefaultDBPath() string {
	return filepath.Join(xdgHome("XDG_DATA_HOME", ".local", "share"), appName, appName+".db")
}
