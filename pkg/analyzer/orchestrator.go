package analyzer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/simonhull/heron/pkg/config"
	"github.com/simonhull/heron/pkg/finding"
	"github.com/simonhull/heron/pkg/logger"
)

// Mode selects how analyzers are scheduled.
type Mode string

const (
	ModeParallel   Mode = "parallel"
	ModeSequential Mode = "sequential"
)

// RunOptions configure one run.
type RunOptions struct {
	// Categories to run; empty means every registered category.
	Categories []finding.Category
	Mode       Mode
	// Timeout bounds each analyzer; zero means no limit.
	Timeout time.Duration
	// Workers bounds concurrent analyzers in parallel mode (0 = NumCPU).
	Workers int
}

// Orchestrator runs analyzers from a registry.
type Orchestrator struct {
	registry *Registry
	cfg      *config.Config
	logger   logger.Logger
	now      func() time.Time
	newRunID func() string
}

// New creates an orchestrator. A nil cfg uses config.DefaultConfig.
func New(registry *Registry, cfg *config.Config) *Orchestrator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Orchestrator{
		registry: registry,
		cfg:      cfg,
		logger:   logger.NewSilentLogger(),
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// WithLogger sets the logger.
func (o *Orchestrator) WithLogger(l logger.Logger) *Orchestrator {
	o.logger = l
	return o
}

// WithClock sets the clock used for the report timestamp.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// analyzerJob is one requested category and its position in the request
type analyzerJob struct {
	index    int
	category finding.Category
}

// analyzerOutcome pairs a result with its job index
type analyzerOutcome struct {
	index  int
	result finding.AnalyzerResult
}

// Run executes the requested analyzers and aggregates their findings. An
// analyzer that fails, panics, times out or is not registered yields a
// result with an error and no findings; the run itself only fails if ctx
// is already done.
func (o *Orchestrator) Run(ctx context.Context, p *Project, opts RunOptions) (*finding.Report, error) {
	if p == nil {
		return nil, errors.New("run: project is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	categories := dedupe(opts.Categories)
	if len(categories) == 0 {
		categories = o.registry.Categories()
	}

	o.logger.Info("Starting analysis",
		logger.F("path", p.Root),
		logger.F("analyzers", len(categories)),
		logger.F("mode", string(modeOrDefault(opts.Mode))))
	start := time.Now()

	results := make([]finding.AnalyzerResult, len(categories))
	if modeOrDefault(opts.Mode) == ModeSequential {
		for i, c := range categories {
			results[i] = o.runAnalyzer(ctx, p, c, opts.Timeout)
		}
	} else {
		o.runParallel(ctx, p, categories, opts, results)
	}

	assignIDs(results)

	// Unresolvable categories keep their error but contribute nothing else
	report := finding.NewReport(o.newRunID(), p.Root, o.now().UTC(), results)
	report.ParseErrors = p.parseErrors()

	o.logger.Info("Analysis complete",
		logger.F("findings", report.Total),
		logger.F("failed", len(report.Errors())),
		logger.F("duration", time.Since(start).String()))

	return report, nil
}

func modeOrDefault(m Mode) Mode {
	if m == "" {
		return ModeParallel
	}
	return m
}

// runParallel runs analyzers on a fixed pool of workers and waits for all
// of them. Results land at their request index.
func (o *Orchestrator) runParallel(ctx context.Context, p *Project, categories []finding.Category, opts RunOptions, results []finding.AnalyzerResult) {
	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(categories) {
		numWorkers = len(categories)
	}

	jobs := make(chan analyzerJob, len(categories))
	outcomes := make(chan analyzerOutcome, len(categories))
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go o.analyzerWorker(ctx, p, opts.Timeout, jobs, outcomes, &wg)
	}

	for i, c := range categories {
		jobs <- analyzerJob{index: i, category: c}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for out := range outcomes {
		results[out.index] = out.result
	}
}

// analyzerWorker processes analyzer jobs until the channel closes. Every
// job produces exactly one outcome.
func (o *Orchestrator) analyzerWorker(ctx context.Context, p *Project, timeout time.Duration, jobs <-chan analyzerJob, outcomes chan<- analyzerOutcome, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range jobs {
		outcomes <- analyzerOutcome{
			index:  job.index,
			result: o.runAnalyzer(ctx, p, job.category, timeout),
		}
	}
}

// runAnalyzer resolves and runs one analyzer, converting every failure
// into the result's Error.
func (o *Orchestrator) runAnalyzer(ctx context.Context, p *Project, category finding.Category, timeout time.Duration) (result finding.AnalyzerResult) {
	start := time.Now()
	result = finding.AnalyzerResult{Category: category, Findings: []finding.Finding{}}
	defer func() {
		result.Duration = time.Since(start)
		if result.Failed() {
			o.logger.Warn("Analyzer failed",
				logger.F("category", string(category)),
				logger.F("error", result.Error),
				logger.F("duration", result.Duration.String()))
			return
		}
		o.logger.Debug("Analyzer finished",
			logger.F("category", string(category)),
			logger.F("findings", len(result.Findings)),
			logger.F("duration", result.Duration.String()))
	}()

	a, err := o.resolve(category)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		findings []finding.Finding
		err      error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		findings, err := a.Analyze(ctx, p)
		done <- outcome{findings: findings, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			result.Error = out.err.Error()
			return result
		}
		for _, f := range out.findings {
			if f.Category == "" {
				f.Category = category
			}
			result.Findings = append(result.Findings, f)
		}
	case <-ctx.Done():
		// The analyzer goroutine is abandoned; it sees the same ctx.
		if timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.Error = fmt.Errorf("%w after %s", ErrAnalyzerTimeout, timeout).Error()
		} else {
			result.Error = ctx.Err().Error()
		}
	}
	return result
}

// resolve builds the analyzer for category. A panicking factory becomes
// an error like a panicking analyzer.
func (o *Orchestrator) resolve(category finding.Category) (a Analyzer, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return o.registry.Resolve(category, o.cfg)
}

// dedupe drops repeated categories, keeping the first occurrence.
func dedupe(categories []finding.Category) []finding.Category {
	seen := make(map[finding.Category]bool, len(categories))
	out := make([]finding.Category, 0, len(categories))
	for _, c := range categories {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// assignIDs numbers findings per category in request order, then emission
// order. The counters live for one run only.
func assignIDs(results []finding.AnalyzerResult) {
	seq := make(map[finding.Category]int)
	for i := range results {
		for j := range results[i].Findings {
			f := &results[i].Findings[j]
			seq[f.Category]++
			f.ID = finding.FormatID(f.Category, seq[f.Category])
		}
	}
}
