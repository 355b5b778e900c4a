package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/simonhull/heron/pkg/finding"
	"github.com/simonhull/heron/pkg/metrics"
	"github.com/simonhull/heron/pkg/roi"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("red"))

	severityStyles = map[finding.Severity]lipgloss.Style{
		finding.SeverityCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true),
		finding.SeverityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("red")),
		finding.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")),
		finding.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")),
		finding.SeverityInfo:     dimStyle,
	}
)

var bucketTitles = map[roi.Bucket]string{
	roi.BucketCritical:  "CRITICAL (address immediately)",
	roi.BucketQuickWin:  "QUICK WINS (ROI > 5.0)",
	roi.BucketHighValue: "HIGH VALUE (ROI 2.0-5.0)",
	roi.BucketStandard:  "STANDARD (ROI 1.0-2.0)",
	roi.BucketDefer:     "DEFER (ROI <= 1.0)",
}

// printer writes lines and keeps the first write error.
type printer struct {
	w     io.Writer
	color bool
	err   error
}

func (p *printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) blank() { p.line("") }

func (p *printer) severity(s finding.Severity) string {
	return p.style(severityStyles[s], fmt.Sprintf("%-8s", strings.ToUpper(string(s))))
}

func reportText(w io.Writer, r *finding.Report, opts Options) error {
	p := &printer{w: w, color: opts.Color}

	p.line("%s", p.style(titleStyle, "Heron audit report"))
	p.line("Project:   %s", r.ProjectPath)
	p.line("Run:       %s (%s)", r.RunID, r.GeneratedAt.Format(time.RFC3339))
	p.line("Findings:  %d  %s", r.Total, severitySummary(r.BySeverity))

	for _, c := range finding.Categories {
		var group []finding.Finding
		for _, f := range r.Findings {
			if f.Category == c {
				group = append(group, f)
			}
		}
		if len(group) == 0 {
			continue
		}
		p.blank()
		p.line("%s", p.style(headingStyle, fmt.Sprintf("%s (%d)", strings.ToUpper(string(c)), len(group))))
		for _, f := range group {
			p.line("  %s %-10s %s", p.severity(f.Severity), f.ID, f.Title)
			if loc := f.Location(); loc != "" {
				p.line("           %s", loc)
			}
			if f.Snippet != "" {
				p.line("           %s", p.style(dimStyle, "> "+f.Snippet))
			}
		}
	}

	p.blank()
	p.line("%s", p.style(headingStyle, "ANALYZERS"))
	for _, a := range r.Analyzers {
		if a.Error != "" {
			p.line("  %-14s %s", a.Category, p.style(errStyle, "error: "+a.Error))
			continue
		}
		p.line("  %-14s %4d findings  %6dms", a.Category, a.Findings, a.DurationMS)
	}

	if len(r.ParseErrors) > 0 {
		p.blank()
		p.line("%s", p.style(headingStyle, "PARSE ERRORS"))
		for _, fe := range r.ParseErrors {
			p.line("  %s: %s", fe.File, strings.Join(fe.Errors, "; "))
		}
	}
	return p.err
}

// severitySummary renders "(critical 1, high 2, ...)" over every severity.
func severitySummary(counts map[finding.Severity]int) string {
	parts := make([]string, 0, len(finding.Severities))
	for _, s := range finding.Severities {
		parts = append(parts, fmt.Sprintf("%s %d", s, counts[s]))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func prioritizedText(w io.Writer, findings []roi.PrioritizedFinding, opts Options) error {
	p := &printer{w: w, color: opts.Color}
	p.line("%s", p.style(titleStyle, "Heron prioritization"))
	p.line("%s", p.style(dimStyle, "ROI = (impact x urgency) / effort"))

	groups := roi.Group(findings)
	for _, b := range roi.Buckets {
		group := groups[b]
		if len(group) == 0 {
			continue
		}
		p.blank()
		p.line("%s", p.style(headingStyle, bucketTitles[b]))
		p.line("  %-4s %-10s %-14s %6s %6s  %s", "#", "ID", "Category", "ROI", "Effort", "Title")
		for i, f := range group {
			p.line("  %-4d %-10s %-14s %6.1f %6s  %s", i+1, f.ID, f.Category, f.ROI.Value, f.ROI.EffortSize, truncate(f.Title, 50))
		}
	}
	if len(findings) == 0 {
		p.blank()
		p.line("No findings.")
	}
	return p.err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func trendText(w io.Writer, v TrendView, opts Options) error {
	p := &printer{w: w, color: opts.Color}
	p.line("%s", p.style(titleStyle, fmt.Sprintf("Debt trend for %s (last %d days)", v.ProjectID, v.WindowDays)))

	t := v.Trend
	if t == nil {
		p.line("Not enough snapshots in the window; record at least two runs.")
		return p.err
	}
	p.line("Period:     %s to %s (%d snapshots)", t.From.Format("2006-01-02"), t.To.Format("2006-01-02"), t.Snapshots)
	p.line("Change:     %+d findings", t.TotalDelta)
	p.line("Velocity:   %+.1f findings/day", t.Velocity)
	if t.BurnDownDays != nil {
		p.line("Burn-down:  about %.0f days to zero", *t.BurnDownDays)
	}
	if s := nonZeroDeltas(t.SeverityDelta); s != "" {
		p.line("Severity:   %s", s)
	}
	if s := nonZeroDeltas(t.CategoryDelta); s != "" {
		p.line("Category:   %s", s)
	}

	p.blank()
	p.rows("RESOLVED", v.Resolved)
	p.rows("NEW", v.New)
	return p.err
}

func (p *printer) rows(heading string, rows []metrics.FindingRow) {
	p.line("%s", p.style(headingStyle, fmt.Sprintf("%s (%d)", heading, len(rows))))
	for _, r := range rows {
		if r.File != "" {
			p.line("  %-10s %-8s %s (%s)", r.ID, r.Severity, r.Title, r.File)
			continue
		}
		p.line("  %-10s %-8s %s", r.ID, r.Severity, r.Title)
	}
}

func diffText(w io.Writer, d *metrics.Diff, opts Options) error {
	p := &printer{w: w, color: opts.Color}
	p.line("%s", p.style(titleStyle, fmt.Sprintf("Changes for %s", d.To.ProjectID)))
	p.line("From snapshot %d (%s, %d findings) to %d (%s, %d findings)",
		d.From.ID, d.From.RecordedAt.Format("2006-01-02 15:04"), d.From.Total,
		d.To.ID, d.To.RecordedAt.Format("2006-01-02 15:04"), d.To.Total)
	p.blank()
	p.rows("RESOLVED", d.Resolved)
	p.rows("NEW", d.New)
	return p.err
}

// nonZeroDeltas renders "high -2, low +3" sorted by key.
func nonZeroDeltas[K ~string](d map[K]int) string {
	keys := make([]string, 0, len(d))
	for k, v := range d {
		if v != 0 {
			keys = append(keys, string(k))
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %+d", k, d[K(k)]))
	}
	return strings.Join(parts, ", ")
}

func historyText(w io.Writer, projectID string, snapshots []metrics.Snapshot, opts Options) error {
	p := &printer{w: w, color: opts.Color}
	p.line("%s", p.style(titleStyle, fmt.Sprintf("Snapshots for %s", projectID)))
	if len(snapshots) == 0 {
		p.line("No snapshots recorded.")
		return p.err
	}
	p.line("  %-6s %-20s %6s %5s %5s %6s %5s %8s", "ID", "Recorded", "Total", "Crit", "High", "Medium", "Low", "Avg ROI")
	for _, s := range snapshots {
		p.line("  %-6d %-20s %6d %5d %5d %6d %5d %8.2f",
			s.ID, s.RecordedAt.Format("2006-01-02 15:04"), s.Total,
			s.BySeverity[finding.SeverityCritical], s.BySeverity[finding.SeverityHigh],
			s.BySeverity[finding.SeverityMedium], s.BySeverity[finding.SeverityLow],
			s.AverageROI)
	}
	return p.err
}
