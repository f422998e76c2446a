// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DatabasePath resolves the on-device database location from configuration,
// falling back to the standard data directory.
func DatabasePath() string {
	if p := viper.GetString("database.path"); p != "" {
		return ExpandPath(p)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "florin.db"
	}
	return filepath.Join(home, ".local", "share", "florin", "florin.db")
}
