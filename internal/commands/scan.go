package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/simonhull/heron/pkg/analyzer"
	"github.com/simonhull/heron/pkg/checks"
	"github.com/simonhull/heron/pkg/finding"
	"github.com/simonhull/heron/pkg/output"
	"github.com/simonhull/heron/pkg/report"
	"github.com/simonhull/heron/pkg/roi"
)

type scanFlags struct {
	categories  []string
	minSeverity string
	failOn      string
	format      string
	out         string
	prioritize  bool
	record      bool
	project     string
	db          string
	timeout     time.Duration
	workers     int
	sequential  bool
}

var scanOpts scanFlags

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Run the analyzers over a project",
	Long: `Builds a structural model of the project, runs every selected analyzer
and renders the aggregated report.

Example:
  heron scan .
  heron scan ./service --categories security,secrets --fail-on high
  heron scan . --format json --out .heron/report.json --record`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	f := scanCmd.Flags()
	f.StringSliceVar(&scanOpts.categories, "categories", nil, "Categories to run (default: scan.categories or all)")
	f.StringVar(&scanOpts.minSeverity, "min-severity", "", "Only show findings at or above this severity")
	f.StringVar(&scanOpts.failOn, "fail-on", "", "Exit with code 2 when a finding at or above this severity exists")
	f.StringVarP(&scanOpts.format, "format", "f", "text", "Output format: json, text, markdown or html")
	f.StringVarP(&scanOpts.out, "out", "o", "", "Write the report to a file instead of stdout")
	f.BoolVar(&scanOpts.prioritize, "prioritize", false, "Render findings ranked by ROI")
	f.BoolVar(&scanOpts.record, "record", false, "Record a snapshot in the metrics store")
	f.StringVar(&scanOpts.project, "project", "", "Project identifier in the metrics store")
	f.StringVar(&scanOpts.db, "db", "", "Metrics database path (default: store.path)")
	f.DurationVar(&scanOpts.timeout, "timeout", 0, "Per-analyzer timeout (default: scan.analyzer_timeout)")
	f.IntVar(&scanOpts.workers, "workers", 0, "Concurrent analyzers and parsers (default: scan.workers or CPU count)")
	f.BoolVar(&scanOpts.sequential, "sequential", false, "Run analyzers one at a time")

	RootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	projectPath := "."
	if len(args) > 0 {
		projectPath = args[0]
	}

	format, err := report.ParseFormat(scanOpts.format)
	if err != nil {
		return err
	}

	names := scanOpts.categories
	if len(names) == 0 {
		names = cfg.Scan.Categories
	}
	categories, err := finding.ParseCategories(names)
	if err != nil {
		return err
	}

	var minSeverity, failOn finding.Severity
	if scanOpts.minSeverity != "" {
		if minSeverity, err = finding.ParseSeverity(scanOpts.minSeverity); err != nil {
			return err
		}
	}
	if scanOpts.failOn != "" {
		if failOn, err = finding.ParseSeverity(scanOpts.failOn); err != nil {
			return err
		}
	}

	workers := scanOpts.workers
	if workers == 0 {
		workers = cfg.Scan.Workers
	}
	timeout := scanOpts.timeout
	if timeout == 0 {
		timeout = cfg.Scan.Timeout()
	}
	mode := analyzer.ModeParallel
	if scanOpts.sequential || cfg.Scan.Sequential {
		mode = analyzer.ModeSequential
	}

	project, err := analyzer.NewProject(projectPath, analyzer.ProjectOptions{
		Exclude:           cfg.Scan.Exclude,
		Workers:           workers,
		MinDuplicateLines: cfg.Scan.MinDuplicateLines,
		Logger:            log,
	})
	if err != nil {
		return err
	}
	output.Verbose(fmt.Sprintf("Scanning %s", project.Root))
	if project.Module != "" {
		output.Verbose(fmt.Sprintf("Go module: %s", project.Module))
	}

	orch := analyzer.New(checks.NewRegistry(), cfg).WithLogger(log)
	var rep *finding.Report
	err = output.Spin("Analyzing "+project.Root, func() error {
		var runErr error
		rep, runErr = orch.Run(ctx, project, analyzer.RunOptions{
			Categories: categories,
			Mode:       mode,
			Timeout:    timeout,
			Workers:    workers,
		})
		return runErr
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	for _, a := range rep.Errors() {
		output.Warn(fmt.Sprintf("Analyzer %s failed: %s", a.Category, a.Error))
	}

	if scanOpts.record {
		if err := recordSnapshot(cmd, projectPath, rep); err != nil {
			return err
		}
	}

	shown := rep
	if minSeverity != "" {
		shown = rep.Filter(minSeverity)
	}

	w, closeOut, err := openOutput(cmd.OutOrStdout(), scanOpts.out)
	if err != nil {
		return err
	}
	opts := report.Options{Color: output.IsTerminal(w)}
	if scanOpts.prioritize {
		err = report.Prioritized(w, format, roi.Prioritize(shown.Findings), opts)
	} else {
		err = report.Report(w, format, shown, opts)
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if scanOpts.out != "" {
		output.Success(fmt.Sprintf("Report written to %s", scanOpts.out))
	}

	if failOn != "" && rep.HasAtLeast(failOn) {
		return fmt.Errorf("%w (%s)", ErrFailOnThreshold, failOn)
	}
	return nil
}

// recordSnapshot stores the unfiltered report so trends stay comparable
// across runs with different display filters.
func recordSnapshot(cmd *cobra.Command, projectPath string, rep *finding.Report) error {
	id, err := projectID(scanOpts.project, projectPath)
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), scanOpts.db)
	if err != nil {
		return err
	}
	defer store.Close()

	snapshotID, err := store.Record(cmd.Context(), id, rep.Findings, roi.Prioritize(rep.Findings))
	if err != nil {
		return fmt.Errorf("recording snapshot: %w", err)
	}
	output.Verbose(fmt.Sprintf("Recorded snapshot %d for %s", snapshotID, id))
	return nil
}
