package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonhull/heron/pkg/finding"
	"github.com/simonhull/heron/pkg/output"
	"github.com/simonhull/heron/pkg/report"
	"github.com/simonhull/heron/pkg/roi"
)

var (
	prioritizeFormat      string
	prioritizeBucket      string
	prioritizeMinSeverity string
)

var prioritizeCmd = &cobra.Command{
	Use:   "prioritize <report.json>",
	Short: "Rank the findings of a saved report by ROI",
	Long: `Reads a JSON report written by "heron scan --format json" and lists its
findings grouped into priority buckets, highest ROI first.

Example:
  heron prioritize .heron/report.json
  heron prioritize report.json --bucket quick_win --format markdown`,
	Args: cobra.ExactArgs(1),
	RunE: runPrioritize,
}

func init() {
	prioritizeCmd.Flags().StringVarP(&prioritizeFormat, "format", "f", "text", "Output format: json, text, markdown or html")
	prioritizeCmd.Flags().StringVar(&prioritizeBucket, "bucket", "", "Only show one bucket: critical, quick_win, high_value, standard or defer")
	prioritizeCmd.Flags().StringVar(&prioritizeMinSeverity, "min-severity", "", "Only rank findings at or above this severity")

	RootCmd.AddCommand(prioritizeCmd)
}

func runPrioritize(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(prioritizeFormat)
	if err != nil {
		return err
	}

	rep, err := finding.LoadReport(args[0])
	if err != nil {
		return err
	}
	if prioritizeMinSeverity != "" {
		minimum, err := finding.ParseSeverity(prioritizeMinSeverity)
		if err != nil {
			return err
		}
		rep = rep.Filter(minimum)
	}
	output.Verbose(fmt.Sprintf("Loaded %d findings from run %s", rep.Total, rep.RunID))

	ranked := roi.Prioritize(rep.Findings)
	if prioritizeBucket != "" {
		bucket, ok := roi.ParseBucket(prioritizeBucket)
		if !ok {
			return fmt.Errorf("unknown bucket %q", prioritizeBucket)
		}
		ranked = roi.Filter(ranked, bucket)
	}

	w := cmd.OutOrStdout()
	return report.Prioritized(w, format, ranked, report.Options{Color: output.IsTerminal(w)})
}
