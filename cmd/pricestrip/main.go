// pricestrip - CLI and desktop client for the file processing service.
//
// Mode detection:
// - No args + display available → GUI mode
// - No args + no display → CLI help
// - --gui → GUI mode
// - --cli → CLI mode (force)
// - Anything else → CLI mode
package main

import (
	"fmt"
	"os"
	"runtime"
	"slices"

	"github.com/rescale/pricestrip/internal/cli"
)

func main() {
	if isCLIMode(os.Args[1:], runtime.GOOS, os.Getenv) {
		if err := cli.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := cli.RunGUI(configArg(os.Args[1:])); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// isCLIMode decides between the terminal and the desktop window.
func isCLIMode(args []string, goos string, getenv func(string) string) bool {
	if slices.Contains(args, "--cli") {
		return true
	}
	if slices.Contains(args, "--gui") {
		return false
	}
	if len(args) > 0 {
		return true
	}
	if goos == "linux" && getenv("DISPLAY") == "" && getenv("WAYLAND_DISPLAY") == "" {
		return true
	}
	return false
}

// configArg returns the value of --config/-c when GUI mode is picked
// without going through cobra.
func configArg(args []string) string {
	for i, arg := range args {
		if (arg == "--config" || arg == "-c") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
