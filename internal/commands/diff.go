package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonhull/heron/pkg/metrics"
	"github.com/simonhull/heron/pkg/output"
	"github.com/simonhull/heron/pkg/report"
)

var diffOpts storeFlags

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "List findings resolved and introduced over a window",
	Long: `Compares the earliest snapshot in the window with the latest snapshot and
lists findings that were resolved and findings that are new, matched by ID.

Example:
  heron diff --window 7`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, err := report.ParseFormat(diffOpts.format)
		if err != nil {
			return err
		}
		id, err := projectID(diffOpts.project, ".")
		if err != nil {
			return err
		}

		store, err := openStore(ctx, diffOpts.db)
		if err != nil {
			return err
		}
		defer store.Close()

		d, err := store.Diff(ctx, id, diffOpts.window)
		if errors.Is(err, metrics.ErrNoSnapshots) {
			return fmt.Errorf("no snapshots for %s in the last %d days; run heron scan --record first", id, diffOpts.window)
		}
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		return report.Diff(w, format, d, report.Options{Color: output.IsTerminal(w)})
	},
}

func init() {
	diffOpts.register(diffCmd, 30)
	RootCmd.AddCommand(diffCmd)
}
