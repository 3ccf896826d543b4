package store

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigDirEnv overrides the detected Rime user directory.
const ConfigDirEnv = "RIME_CONFIG_DIR"

// DefaultConfigDir returns the Rime user directory for the current platform.
func DefaultConfigDir() string {
	home, _ := os.UserHomeDir()
	return ConfigDirFor(runtime.GOOS, home, os.Getenv)
}

// ConfigDirFor resolves the Rime user directory for goos. RIME_CONFIG_DIR
// wins when set.
func ConfigDirFor(goos, home string, getenv func(string) string) string {
	if dir := getenv(ConfigDirEnv); dir != "" {
		return dir
	}
	switch goos {
	case "linux":
		return filepath.Join(home, ".config", "fcitx", "rime")
	case "windows":
		if appData := getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Rime")
		}
		return filepath.Join(home, "AppData", "Roaming", "Rime")
	default:
		return filepath.Join(home, "Library", "Rime")
	}
}
