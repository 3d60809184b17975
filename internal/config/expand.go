package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandTilde replaces a leading ~ or ~/ with the user's home directory.
// ~username is not supported.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
