// Command notesctl administers a delivery-notes deployment: schema
// migrations, blob garbage collection and batch submission.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/delivery-notes/internal/config"
	"github.com/JaimeStill/delivery-notes/pkg/logging"
)

var (
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "notesctl",
	Short: "Delivery notes administration CLI",
	Long: `notesctl manages a delivery-notes deployment.

Configuration is read the same way as the server: config.toml, an optional
config.<SERVICE_ENV>.toml overlay, .env and environment variables.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newGCCmd())
	rootCmd.AddCommand(newProcessCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logCfg := cfg.Logging
	logCfg.Level = logging.LevelDebug
	return logging.NewWriter(&logCfg, os.Stderr)
}
