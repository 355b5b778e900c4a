package commands

import (
	"github.com/spf13/cobra"

	"github.com/simonhull/heron/pkg/output"
	"github.com/simonhull/heron/pkg/report"
)

var historyOpts storeFlags

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, err := report.ParseFormat(historyOpts.format)
		if err != nil {
			return err
		}
		id, err := projectID(historyOpts.project, ".")
		if err != nil {
			return err
		}

		store, err := openStore(ctx, historyOpts.db)
		if err != nil {
			return err
		}
		defer store.Close()

		snapshots, err := store.Snapshots(ctx, id, historyOpts.window)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		return report.History(w, format, id, snapshots, report.Options{Color: output.IsTerminal(w)})
	},
}

func init() {
	historyOpts.register(historyCmd, 0)
	RootCmd.AddCommand(historyCmd)
}
