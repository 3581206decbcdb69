package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/cursor-launcher/internal/logger"
	"github.com/oshokin/cursor-launcher/internal/service/launcher"
	"github.com/oshokin/cursor-launcher/internal/version"
)

var (
	// configPath to the optional settings YAML file.
	configPath string

	// logLevel overrides the default info logging level.
	logLevel string

	// installOnly fetches and installs the latest build without launching it.
	installOnly bool

	// rootCmd represents the base command that launches the application.
	rootCmd = &cobra.Command{
		Use:   "cursor-launcher [flags] [-- args...]",
		Short: "Launch the Cursor AppImage with logging and duplicate-instance protection",
		Long: `cursor-launcher manages Cursor AppImage execution:

  - finds the latest image in ~/.local/bin (named cursor-*.AppImage),
  - keeps the cursor.latest pointer aimed at it, installing a build
    on first run when none exists,
  - skips launching when an instance is already running,
  - starts the application detached, with stdout/stderr appended to
    ~/.local/logs/cursor/ and rotated once they exceed 5 MiB.

All remaining arguments are passed through to the application.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &launcher.Options{
				ConfigPath:  configPath,
				Args:        args,
				AutoInstall: true,
			}

			if installOnly {
				return launcher.Install(ctx, options)
			}

			return launcher.Run(ctx, options)
		},
	}
)

// Execute runs the cursor-launcher CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// `--version`/`-v` via cobra's built-in version flag.
	rootCmd.Version = version.Short()

	// Flags after the first positional argument belong to the application.
	rootCmd.Flags().SetInterspersed(false)

	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "logging level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&installOnly, "install", false, "download and install the latest build, then exit")
}
