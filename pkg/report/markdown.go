package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/simonhull/heron/pkg/finding"
	"github.com/simonhull/heron/pkg/roi"
)

var bucketHeadings = map[roi.Bucket]string{
	roi.BucketCritical:  "Critical",
	roi.BucketQuickWin:  "Quick wins",
	roi.BucketHighValue: "High value",
	roi.BucketStandard:  "Standard",
	roi.BucketDefer:     "Defer",
}

// cell escapes a value for a GFM table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func reportMarkdown(r *finding.Report) string {
	var b strings.Builder

	b.WriteString("# Heron audit report\n\n")
	fmt.Fprintf(&b, "- **Project:** `%s`\n", r.ProjectPath)
	fmt.Fprintf(&b, "- **Run:** `%s`\n", r.RunID)
	fmt.Fprintf(&b, "- **Generated:** %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Findings:** %d\n\n", r.Total)

	b.WriteString("## Summary\n\n| Severity | Count |\n| --- | ---: |\n")
	for _, s := range finding.Severities {
		fmt.Fprintf(&b, "| %s | %d |\n", s, r.BySeverity[s])
	}
	b.WriteString("\n")

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
		fmt.Fprintf(&b, "## %s (%d)\n\n", c, len(group))
		b.WriteString("| ID | Severity | Title | Location |\n| --- | --- | --- | --- |\n")
		for _, f := range group {
			loc := f.Location()
			if loc != "" {
				loc = "`" + loc + "`"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", f.ID, f.Severity, cell(f.Title), cell(loc))
		}
		b.WriteString("\n")
	}

	if failed := r.Errors(); len(failed) > 0 {
		b.WriteString("## Analyzer errors\n\n")
		for _, a := range failed {
			fmt.Fprintf(&b, "- **%s:** %s\n", a.Category, a.Error)
		}
		b.WriteString("\n")
	}
	if len(r.ParseErrors) > 0 {
		b.WriteString("## Parse errors\n\n")
		for _, fe := range r.ParseErrors {
			fmt.Fprintf(&b, "- `%s`: %s\n", fe.File, strings.Join(fe.Errors, "; "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func prioritizedMarkdown(findings []roi.PrioritizedFinding) string {
	var b strings.Builder

	b.WriteString("# Heron prioritization\n\n")
	fmt.Fprintf(&b, "%d findings, average ROI %.2f.\n\n", len(findings), roi.AverageROI(findings))

	groups := roi.Group(findings)
	for _, bucket := range roi.Buckets {
		group := groups[bucket]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s (%d)\n\n", bucketHeadings[bucket], len(group))
		b.WriteString("| # | ID | Category | Severity | ROI | Effort | Title | Location |\n")
		b.WriteString("| ---: | --- | --- | --- | ---: | --- | --- | --- |\n")
		for i, f := range group {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %.1f | %s | %s | %s |\n",
				i+1, f.ID, f.Category, f.Severity, f.ROI.Value, f.ROI.EffortSize,
				cell(f.Title), cell(f.Location()))
		}
		b.WriteString("\n")
	}
	return b.String()
}
