package cli

import (
	"github.com/spf13/cobra"

	"github.com/rescale/pricestrip/internal/config"
	"github.com/rescale/pricestrip/internal/gui"
	"github.com/rescale/pricestrip/internal/logging"
)

// runWorkflow builds a controller from the effective configuration and runs fn.
func runWorkflow(cmd *cobra.Command, fn func(w *workflow) error) error {
	ctrl, err := newController()
	if err != nil {
		return err
	}
	return fn(newWorkflow(ctrl, cmd.OutOrStdout()))
}

func newFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "files",
		Aliases: []string{"ls"},
		Short:   "List processed files with their download links",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, func(w *workflow) error {
				return w.files(GetContext())
			})
		},
	}
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file> [file...]",
		Short: "Upload files in a single request",
		Long: `Upload every given file in one multipart request.

On success the server's message is printed and the processed list is
refreshed. Without arguments the command reports that a file must be chosen.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, func(w *workflow) error {
				return w.upload(GetContext(), args)
			})
		},
	}
}

func newProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Process every uploaded file on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, func(w *workflow) error {
				return w.process(GetContext())
			})
		},
	}
}

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <name> [name...]",
		Short: "Download processed files into the download folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, func(w *workflow) error {
				return w.download(GetContext(), args)
			})
		},
	}
}

func newDownloadAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download-all",
		Short: "Download every processed file as processed_files.zip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, func(w *workflow) error {
				return w.downloadAll(GetContext())
			})
		},
	}
}

func newLinkCmd() *cobra.Command {
	var qr, lan bool

	cmd := &cobra.Command{
		Use:   "link <name>",
		Short: "Print the download link of a processed file",
		Long: `Print the download link of a processed file.

With --lan a localhost server URL is rewritten to this machine's LAN address,
so the link (or its --qr code) works from a phone on the same network.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, func(w *workflow) error {
				link := w.ctrl.DownloadLink(args[0])
				if lan {
					var err error
					if link, err = lanLink(link, localLANAddress); err != nil {
						return err
					}
				}
				w.printLink(link, qr)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&qr, "qr", false, "Also print the link as a terminal QR code")
	cmd.Flags().BoolVar(&lan, "lan", false, "Replace a localhost host with this machine's LAN address")
	return cmd
}

func newGUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Open the desktop window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return gui.Run(cfg, logging.NewLogger(logging.ModeGUI))
		},
	}
}

// guiConfig is used by main when GUI mode is picked without a subcommand.
// A missing or broken config file falls back to defaults.
func guiConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		GetLogger().Warn().Err(err).Msg("Failed to load config, falling back to defaults")
		cfg = config.NewConfig()
	}
	cfg.ApplyEnv()
	return cfg
}

// RunGUI launches the desktop window with the configuration at path.
func RunGUI(path string) error {
	cfg := guiConfig(path)
	if err := cfg.Validate(); err != nil {
		return err
	}
	return gui.Run(cfg, logging.NewLogger(logging.ModeGUI))
}
