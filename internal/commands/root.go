package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/simonhull/heron"
	"github.com/simonhull/heron/pkg/config"
	"github.com/simonhull/heron/pkg/logger"
	"github.com/simonhull/heron/pkg/output"
)

// ErrFailOnThreshold is returned when a scan finds something at or above
// the --fail-on severity.
var ErrFailOnThreshold = errors.New("findings at or above fail-on severity")

var (
	verbose    bool
	configPath string

	cfg *config.Config
	log logger.Logger = logger.NewSilentLogger()
)

// RootCmd is the root command for Heron
var RootCmd = &cobra.Command{
	Use:   "heron",
	Short: "Heron - static tech-debt audits with ROI prioritization",
	Long: `Heron scans a source tree with a set of static analyzers, ranks the
findings by return on investment and tracks debt over time.

Example:
  heron scan . --fail-on high
  heron scan . --record --prioritize
  heron trend --window 30`,
	Version:       heron.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		output.SetVerbose(verbose)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		log = newLogger(cfg.Logging)
		return nil
	},
}

// Execute runs the root command and reports any error. Interrupts cancel
// the running command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := RootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, ErrFailOnThreshold) {
		output.Error(err.Error())
	}
	return err
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default ./heron.yaml)")

	RootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Heron v%s\n", heron.Version)
		},
	})
}

// newLogger builds the run logger. --verbose forces debug level.
func newLogger(lc config.LoggingConfig) logger.Logger {
	level, err := logger.ParseLevel(lc.Level)
	if err != nil {
		output.Warn(fmt.Sprintf("%v; using info", err))
	}
	if verbose {
		level = logger.LevelDebug
	}
	return logger.NewLoggerWithFormat(level, os.Stderr, logger.Format(lc.Format))
}
