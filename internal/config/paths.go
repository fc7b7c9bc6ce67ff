package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "pricestrip"

// ConfigDirectory returns the per-user configuration directory.
//
// Locations:
//   - Windows: %USERPROFILE%\.config\pricestrip
//   - Unix: $XDG_CONFIG_HOME/pricestrip (usually ~/.config/pricestrip)
func ConfigDirectory() string {
	if runtime.GOOS == "windows" {
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			return filepath.Join(profile, ".config", appDirName)
		}
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), appDirName)
		}
		return filepath.Join(homeDir, ".config", appDirName)
	}
	return filepath.Join(configDir, appDirName)
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDirectory(), "config.ini")
}

// LogDirectory returns the log directory used when the GUI writes a log file.
func LogDirectory() string {
	return filepath.Join(ConfigDirectory(), "logs")
}

// EnsureLogDirectory creates the log directory if it doesn't exist.
// Uses 0700 permissions to restrict log access to owner only.
func EnsureLogDirectory() error {
	return os.MkdirAll(LogDirectory(), 0700)
}

// DefaultDownloadDirectory returns ~/Downloads/pricestrip, falling back to the
// working directory when no home directory is available.
func DefaultDownloadDirectory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads", appDirName)
}
