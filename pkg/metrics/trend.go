package metrics

import (
	"context"
	"math"
	"time"

	"github.com/simonhull/heron/pkg/finding"
)

// Trend compares the first and last snapshot in a window.
type Trend struct {
	ProjectID     string                   `json:"project_id"`
	From          time.Time                `json:"period_start"`
	To            time.Time                `json:"period_end"`
	Snapshots     int                      `json:"snapshots"`
	TotalDelta    int                      `json:"total_change"`
	SeverityDelta map[finding.Severity]int `json:"severity_changes"`
	CategoryDelta map[finding.Category]int `json:"category_changes"`
	// Velocity is findings per day; negative means debt is shrinking.
	Velocity float64 `json:"velocity"`
	// BurnDownDays estimates days until zero findings. Nil unless
	// velocity is negative and findings remain.
	BurnDownDays *float64 `json:"burn_down_days,omitempty"`
}

// Trend returns nil when the window holds fewer than two snapshots.
func (s *Store) Trend(ctx context.Context, projectID string, windowDays int) (*Trend, error) {
	snapshots, err := s.Snapshots(ctx, projectID, windowDays)
	if err != nil {
		return nil, err
	}
	if len(snapshots) < 2 {
		return nil, nil
	}
	return computeTrend(snapshots[0], snapshots[len(snapshots)-1], len(snapshots)), nil
}

func computeTrend(first, last Snapshot, count int) *Trend {
	t := &Trend{
		ProjectID:     last.ProjectID,
		From:          first.RecordedAt,
		To:            last.RecordedAt,
		Snapshots:     count,
		TotalDelta:    last.Total - first.Total,
		SeverityDelta: delta(first.BySeverity, last.BySeverity),
		CategoryDelta: delta(first.ByCategory, last.ByCategory),
	}

	days := max(1, int(last.RecordedAt.Sub(first.RecordedAt).Hours()/24))
	t.Velocity = float64(t.TotalDelta) / float64(days)

	if t.Velocity < 0 && last.Total > 0 {
		burn := float64(last.Total) / math.Abs(t.Velocity)
		t.BurnDownDays = &burn
	}
	return t
}

// delta is last minus first over the union of keys.
func delta[K comparable](first, last map[K]int) map[K]int {
	out := make(map[K]int, len(last))
	for k, v := range last {
		out[k] = v - first[k]
	}
	for k, v := range first {
		if _, ok := last[k]; !ok {
			out[k] = -v
		}
	}
	return out
}

// Diff lists findings that disappeared or appeared between the earliest
// snapshot in the window and the latest snapshot overall, matched by
// finding ID.
type Diff struct {
	From     Snapshot     `json:"from"`
	To       Snapshot     `json:"to"`
	Resolved []FindingRow `json:"resolved"`
	New      []FindingRow `json:"new"`
}

// Diff returns ErrNoSnapshots when the window is empty.
func (s *Store) Diff(ctx context.Context, projectID string, windowDays int) (*Diff, error) {
	snapshots, err := s.Snapshots(ctx, projectID, windowDays)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, ErrNoSnapshots
	}
	latest, err := s.Latest(ctx, projectID)
	if err != nil {
		return nil, err
	}

	before, err := s.FindingRows(ctx, snapshots[0].ID)
	if err != nil {
		return nil, err
	}
	after, err := s.FindingRows(ctx, latest.ID)
	if err != nil {
		return nil, err
	}

	return &Diff{
		From:     snapshots[0],
		To:       *latest,
		Resolved: missingFrom(before, after),
		New:      missingFrom(after, before),
	}, nil
}

// Resolved lists findings present at the start of the window but absent
// from the latest snapshot.
func (s *Store) Resolved(ctx context.Context, projectID string, windowDays int) ([]FindingRow, error) {
	d, err := s.Diff(ctx, projectID, windowDays)
	if err != nil {
		return nil, err
	}
	return d.Resolved, nil
}

// New lists findings in the latest snapshot that were absent at the start
// of the window.
func (s *Store) New(ctx context.Context, projectID string, windowDays int) ([]FindingRow, error) {
	d, err := s.Diff(ctx, projectID, windowDays)
	if err != nil {
		return nil, err
	}
	return d.New, nil
}

// missingFrom returns rows of a whose ID does not occur in b.
func missingFrom(a, b []FindingRow) []FindingRow {
	present := make(map[string]bool, len(b))
	for _, r := range b {
		present[r.ID] = true
	}
	out := make([]FindingRow, 0)
	for _, r := range a {
		if !present[r.ID] {
			out = append(out, r)
		}
	}
	return out
}
