// Package gui provides the desktop window for pricestrip.
package gui

import (
	"errors"
	"os"
	"runtime"

	"github.com/rescale/pricestrip/internal/config"
	"github.com/rescale/pricestrip/internal/logging"
)

// ErrNoDisplay is returned on Linux when neither X11 nor Wayland is available.
var ErrNoDisplay = errors.New("GUI mode requires a display: DISPLAY and WAYLAND_DISPLAY are not set; " +
	"run pricestrip without the gui command for CLI mode")

// checkDisplay fails fast on headless Linux hosts instead of letting the
// driver abort the process.
func checkDisplay(goos string, getenv func(string) string) error {
	if goos != "linux" {
		return nil
	}
	if getenv("DISPLAY") == "" && getenv("WAYLAND_DISPLAY") == "" {
		return ErrNoDisplay
	}
	return nil
}

// Run launches GUI mode after checking for a display.
func Run(cfg *config.Config, logger *logging.Logger) error {
	if err := checkDisplay(runtime.GOOS, os.Getenv); err != nil {
		return err
	}
	return LaunchGUI(cfg, logger)
}
