package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a leading ~ to the home directory and then expands
// $VAR references.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return ""
	case path == "~" || strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}

// ConfigDir is where the config file is looked up: $XDG_CONFIG_HOME/ledger,
// falling back to ~/.config/ledger.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir holds the database and its checkpoints: $XDG_DATA_HOME/ledger,
// falling back to ~/.local/share/ledger.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) string {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, "ledger")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, fallback, "ledger")
	}
	return filepath.Join(fallback, "ledger")
}
