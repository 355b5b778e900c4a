// Package report renders audit reports, prioritized lists and trends as
// JSON, styled text, Markdown or HTML.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/simonhull/heron/pkg/finding"
	"github.com/simonhull/heron/pkg/metrics"
	"github.com/simonhull/heron/pkg/roi"
)

// Format is an output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

var (
	// ErrUnknownFormat is returned for a format name that is not recognised.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrUnsupportedFormat is returned when a view cannot be rendered in
	// the requested format.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// ParseFormat accepts json, text, markdown (or md) and html.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "text", "":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w %q (want json, text, markdown or html)", ErrUnknownFormat, name)
}

// Options tune rendering.
type Options struct {
	// Color enables lipgloss styling in text output.
	Color bool
}

// Report renders an audit report.
func Report(w io.Writer, format Format, r *finding.Report, opts Options) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatText:
		return reportText(w, r, opts)
	case FormatMarkdown:
		_, err := io.WriteString(w, reportMarkdown(r))
		return err
	case FormatHTML:
		return writeHTML(w, "Heron audit report", reportMarkdown(r))
	}
	return fmt.Errorf("%w %q", ErrUnknownFormat, format)
}

// Prioritized renders findings ranked by ROI.
func Prioritized(w io.Writer, format Format, findings []roi.PrioritizedFinding, opts Options) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, findings)
	case FormatText:
		return prioritizedText(w, findings, opts)
	case FormatMarkdown:
		_, err := io.WriteString(w, prioritizedMarkdown(findings))
		return err
	case FormatHTML:
		return writeHTML(w, "Heron prioritization", prioritizedMarkdown(findings))
	}
	return fmt.Errorf("%w %q", ErrUnknownFormat, format)
}

// TrendView bundles what the trend command shows.
type TrendView struct {
	ProjectID  string               `json:"project_id"`
	WindowDays int                  `json:"window_days"`
	Trend      *metrics.Trend       `json:"trend"`
	Resolved   []metrics.FindingRow `json:"resolved"`
	New        []metrics.FindingRow `json:"new"`
}

// Trend renders a trend view as JSON or text.
func Trend(w io.Writer, format Format, v TrendView, opts Options) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, v)
	case FormatText:
		return trendText(w, v, opts)
	}
	return fmt.Errorf("trend: %w %q", ErrUnsupportedFormat, format)
}

// History renders snapshots as JSON or text.
func History(w io.Writer, format Format, projectID string, snapshots []metrics.Snapshot, opts Options) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, snapshots)
	case FormatText:
		return historyText(w, projectID, snapshots, opts)
	}
	return fmt.Errorf("history: %w %q", ErrUnsupportedFormat, format)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Diff renders the resolved and new findings between two snapshots.
func Diff(w io.Writer, format Format, d *metrics.Diff, opts Options) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, d)
	case FormatText:
		return diffText(w, d, opts)
	}
	return fmt.Errorf("diff: %w %q", ErrUnsupportedFormat, format)
}
