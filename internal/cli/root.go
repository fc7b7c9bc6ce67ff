// Package cli provides the command-line interface for pricestrip.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rescale/pricestrip/internal/config"
	"github.com/rescale/pricestrip/internal/constants"
	"github.com/rescale/pricestrip/internal/core"
	inthttp "github.com/rescale/pricestrip/internal/http"
	"github.com/rescale/pricestrip/internal/logging"
	"github.com/rescale/pricestrip/internal/progress"
	"github.com/rescale/pricestrip/internal/version"
)

var (
	// Global flags
	cfgFile     string
	serverURL   string
	downloadDir string
	verbose     bool
	debug       bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command for CLI mode.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   constants.AppName,
		Short: "Upload, process and download files on a pricestrip server",
		Long: `pricestrip ` + version.Version + ` - Built: ` + version.BuildTime + `
Client for the file processing service.

Typical session:
  pricestrip upload a.pdf b.pdf
  pricestrip process
  pricestrip files
  pricestrip download-all

Run 'pricestrip shell' for an interactive session or 'pricestrip gui'
for the desktop window.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultCLILogger()
			if verbose || debug {
				logging.SetGlobalLevel(logging.ParseLevel("debug"))
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Server base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&downloadDir, "download-dir", "", "Folder downloads are saved into (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	rootCmd.SetArgs(stripModeFlags(os.Args[1:]))
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	// Failed operations have already printed their status line.
	if err != nil && !errors.Is(err, errFailed) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// stripModeFlags removes the --cli switch main uses for mode selection.
func stripModeFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a != "--cli" {
			out = append(out, a)
		}
	}
	return out
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newFilesCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newProcessCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newDownloadAllCmd())
	rootCmd.AddCommand(newLinkCmd())
	rootCmd.AddCommand(newShellCmd())
	rootCmd.AddCommand(newGUICmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context. It is cancelled on Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// loadConfig resolves the effective configuration: file, then environment,
// then command-line flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if downloadDir != "" {
		cfg.DownloadDir = downloadDir
	}
	if verbose || debug {
		cfg.LogLevel = "debug"
	}
	logging.SetGlobalLevel(logging.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if inthttp.NeedsProxyPassword(cfg) {
		pw, err := promptPassword(fmt.Sprintf("Proxy password for %s: ", cfg.ProxyUser))
		if err != nil {
			return nil, fmt.Errorf("failed to read proxy password: %w", err)
		}
		cfg.ProxyPassword = pw
	}
	return cfg, nil
}

// promptPassword reads a password without echo. Non-interactive stdin is
// treated as no password.
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// newController loads the configuration and builds a controller with
// terminal progress bars.
func newController() (*core.Controller, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return core.NewControllerFromConfig(cfg, GetLogger(), progress.NewTerminal())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "%s %s (built %s)\n", constants.AppName, version.Version, version.BuildTime)
}
