package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rescale/pricestrip/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pricestrip configuration",
		Long: `Configuration management commands for pricestrip.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// configPath returns --config or the default location.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for pricestrip.

Press Enter to keep the value shown in brackets. Use --force to overwrite an
existing configuration file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			out := cmd.OutOrStdout()

			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			cfg, err := promptConfig(cmd.InOrStdin(), out, config.NewConfig())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}

			GetLogger().Info().Str("path", path).Msg("configuration saved")
			fmt.Fprintf(out, "\nConfiguration saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")
	return cmd
}

// promptConfig asks for each setting, starting from defaults.
func promptConfig(in io.Reader, out io.Writer, cfg *config.Config) (*config.Config, error) {
	reader := bufio.NewReader(in)
	ask := func(label, def string) string {
		fmt.Fprintf(out, "%s [%s]: ", label, def)
		input, _ := reader.ReadString('\n')
		if input = strings.TrimSpace(input); input != "" {
			return input
		}
		return def
	}

	fmt.Fprintln(out, "pricestrip Configuration Setup")
	fmt.Fprintln(out, "==============================")
	fmt.Fprintln(out)

	cfg.ServerURL = ask("Server URL", cfg.ServerURL)
	cfg.DownloadDir = ask("Download folder", cfg.DownloadDir)

	retries := ask("Retries on connection failures", strconv.Itoa(cfg.Retries))
	if v, err := strconv.Atoi(retries); err == nil {
		cfg.Retries = v
	}

	fmt.Fprintln(out)
	if answer := strings.ToLower(ask("Configure proxy? (y/N)", "n")); answer == "y" || answer == "yes" {
		fmt.Fprintln(out, "Proxy modes: no-proxy, system, basic, ntlm")
		cfg.ProxyMode = strings.ToLower(ask("Proxy mode", "system"))
		if cfg.ProxyMode == "basic" || cfg.ProxyMode == "ntlm" {
			cfg.ProxyHost = ask("Proxy host", cfg.ProxyHost)
			if v, err := strconv.Atoi(ask("Proxy port", "8080")); err == nil {
				cfg.ProxyPort = v
			}
			cfg.ProxyUser = ask("Proxy user (password is asked at run time)", cfg.ProxyUser)
		}
		cfg.NoProxy = ask("Bypass proxy for", "localhost,127.0.0.1")
	}

	return cfg, nil
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long:  `Display the effective configuration after environment and flag overrides.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg.ApplyEnv()
			if serverURL != "" {
				cfg.ServerURL = serverURL
			}
			if downloadDir != "" {
				cfg.DownloadDir = downloadDir
			}
			printConfig(cmd.OutOrStdout(), configPath(), cfg)
			return nil
		},
	}
}

func printConfig(out io.Writer, path string, cfg *config.Config) {
	fmt.Fprintf(out, "Config file:      %s\n", path)
	fmt.Fprintf(out, "Server URL:       %s\n", cfg.ServerURL)
	fmt.Fprintf(out, "Download folder:  %s\n", cfg.DownloadDir)
	fmt.Fprintf(out, "Log level:        %s\n", cfg.LogLevel)
	fmt.Fprintf(out, "Retries:          %d\n", cfg.Retries)
	timeout := "none"
	if cfg.RequestTimeout > 0 {
		timeout = cfg.RequestTimeout.String()
	}
	fmt.Fprintf(out, "Request timeout:  %s\n", timeout)
	fmt.Fprintf(out, "Proxy mode:       %s\n", cfg.ProxyMode)
	if cfg.ProxyHost != "" {
		fmt.Fprintf(out, "Proxy:            %s:%d\n", cfg.ProxyHost, cfg.ProxyPort)
	}
	if cfg.ProxyUser != "" {
		fmt.Fprintf(out, "Proxy user:       %s\n", cfg.ProxyUser)
	}
	if cfg.NoProxy != "" {
		fmt.Fprintf(out, "No proxy:         %s\n", cfg.NoProxy)
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), configPath())
		},
	}
}
