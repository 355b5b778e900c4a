package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/simonhull/heron/pkg/metrics"
	"github.com/simonhull/heron/pkg/output"
	"github.com/simonhull/heron/pkg/report"
)

// storeFlags are shared by the commands that read the metrics store.
type storeFlags struct {
	project string
	db      string
	window  int
	format  string
}

func (f *storeFlags) register(cmd *cobra.Command, window int) {
	cmd.Flags().StringVar(&f.project, "project", "", "Project identifier (default: project.id or the current directory name)")
	cmd.Flags().StringVar(&f.db, "db", "", "Metrics database path (default: store.path)")
	cmd.Flags().IntVarP(&f.window, "window", "w", window, "Days to look back (0 = all)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "Output format: json or text")
}

var trendOpts storeFlags

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show how debt changed over a window of days",
	Long: `Compares the first and last snapshot recorded in the window and reports
the change per severity and category, the velocity in findings per day and,
when debt is shrinking, an estimate of days until zero.

Example:
  heron trend
  heron trend --window 90 --project api`,
	Args: cobra.NoArgs,
	RunE: runTrend,
}

func init() {
	trendOpts.register(trendCmd, 30)
	RootCmd.AddCommand(trendCmd)
}

func runTrend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, err := report.ParseFormat(trendOpts.format)
	if err != nil {
		return err
	}
	id, err := projectID(trendOpts.project, ".")
	if err != nil {
		return err
	}

	store, err := openStore(ctx, trendOpts.db)
	if err != nil {
		return err
	}
	defer store.Close()

	view := report.TrendView{ProjectID: id, WindowDays: trendOpts.window}
	if view.Trend, err = store.Trend(ctx, id, trendOpts.window); err != nil {
		return err
	}
	if view.Trend != nil {
		diff, err := store.Diff(ctx, id, trendOpts.window)
		if err != nil && !errors.Is(err, metrics.ErrNoSnapshots) {
			return err
		}
		if diff != nil {
			view.Resolved, view.New = diff.Resolved, diff.New
		}
	}

	w := cmd.OutOrStdout()
	return report.Trend(w, format, view, report.Options{Color: output.IsTerminal(w)})
}
