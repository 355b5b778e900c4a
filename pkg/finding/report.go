package finding

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// AnalyzerResult is the outcome of one analyzer in a run.
type AnalyzerResult struct {
	Category Category      `json:"category"`
	Findings []Finding     `json:"findings"`
	Duration time.Duration `json:"-"`
	Error    string        `json:"error,omitempty"`
}

// Failed reports whether the analyzer recorded an error.
func (r AnalyzerResult) Failed() bool {
	return r.Error != ""
}

// AnalyzerSummary is the per-analyzer metadata kept in a report.
type AnalyzerSummary struct {
	Category   Category `json:"category"`
	Findings   int      `json:"findings"`
	DurationMS int64    `json:"duration_ms"`
	Error      string   `json:"error,omitempty"`
}

// Report aggregates one run.
type Report struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	ProjectPath string            `json:"project_path"`
	Total       int               `json:"total"`
	BySeverity  map[Severity]int  `json:"by_severity"`
	ByCategory  map[Category]int  `json:"by_category"`
	Analyzers   []AnalyzerSummary `json:"analyzers"`
	Findings    []Finding         `json:"findings"`
	ParseErrors []FileErrors      `json:"parse_errors,omitempty"`
}

// FileErrors lists the parse errors recorded for one file.
type FileErrors struct {
	File   string   `json:"file"`
	Errors []string `json:"errors"`
}

// NewReport builds a report from analyzer results, in the order given.
func NewReport(runID, projectPath string, generatedAt time.Time, results []AnalyzerResult) *Report {
	r := &Report{
		RunID:       runID,
		GeneratedAt: generatedAt,
		ProjectPath: projectPath,
		Analyzers:   make([]AnalyzerSummary, 0, len(results)),
		Findings:    make([]Finding, 0),
	}
	for _, res := range results {
		r.Analyzers = append(r.Analyzers, AnalyzerSummary{
			Category:   res.Category,
			Findings:   len(res.Findings),
			DurationMS: res.Duration.Milliseconds(),
			Error:      res.Error,
		})
		r.Findings = append(r.Findings, res.Findings...)
	}
	r.recount()
	return r
}

func (r *Report) recount() {
	r.Total = len(r.Findings)
	r.BySeverity = CountBySeverity(r.Findings)
	r.ByCategory = CountByCategory(r.Findings)
}

// Errors returns the analyzers that failed.
func (r *Report) Errors() []AnalyzerSummary {
	var failed []AnalyzerSummary
	for _, a := range r.Analyzers {
		if a.Error != "" {
			failed = append(failed, a)
		}
	}
	return failed
}

// Filter returns a copy holding only findings at or above minimum. Counts are
// recomputed; analyzer metadata is kept as is.
func (r *Report) Filter(minimum Severity) *Report {
	out := *r
	out.Findings = make([]Finding, 0, len(r.Findings))
	for _, f := range r.Findings {
		if f.Severity.AtLeast(minimum) {
			out.Findings = append(out.Findings, f)
		}
	}
	out.recount()
	return &out
}

// HasAtLeast reports whether any finding is at or above severity.
func (r *Report) HasAtLeast(severity Severity) bool {
	for _, f := range r.Findings {
		if f.Severity.AtLeast(severity) {
			return true
		}
	}
	return false
}

// CountBySeverity counts findings per severity; every severity is present.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int, len(Severities))
	for _, s := range Severities {
		counts[s] = 0
	}
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}

// CountByCategory counts findings per category that has any.
func CountByCategory(findings []Finding) map[Category]int {
	counts := make(map[Category]int)
	for _, f := range findings {
		counts[f.Category]++
	}
	return counts
}

// ReadReport decodes a JSON report, as written by the json renderer.
func ReadReport(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	for i, f := range rep.Findings {
		if f.ID == "" || !f.Category.Valid() || f.Severity.Rank() < 0 {
			return nil, fmt.Errorf("decoding report: finding %d is malformed (id %q, category %q, severity %q)",
				i, f.ID, f.Category, f.Severity)
		}
	}
	if rep.Findings == nil {
		rep.Findings = make([]Finding, 0)
	}
	rep.recount()
	return &rep, nil
}

// LoadReport reads a JSON report from path.
func LoadReport(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()
	return ReadReport(f)
}
