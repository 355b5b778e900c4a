package metrics

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/heron/pkg/finding"
	"github.com/simonhull/heron/pkg/roi"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

const day = 24 * time.Hour

func openStore(t *testing.T) (*Store, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "metrics.db"), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.WithClock(c.now), c
}

func findings(severity finding.Severity, ids ...string) []finding.Finding {
	out := make([]finding.Finding, 0, len(ids))
	for _, id := range ids {
		out = append(out, finding.Finding{
			ID:       id,
			Category: finding.CategoryTechDebt,
			Severity: severity,
			Title:    "TODO marker",
			File:     "main.go",
		})
	}
	return out
}

func numbered(n int) []finding.Finding {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("DEBT-%04d", i+1)
	}
	return findings(finding.SeverityLow, ids...)
}

func TestTrend_VelocityAndBurnDown(t *testing.T) {
	s, c := openStore(t)
	ctx := context.Background()

	_, err := s.Record(ctx, "app", numbered(50), nil)
	require.NoError(t, err)
	c.advance(10 * day)
	_, err = s.Record(ctx, "app", numbered(30), nil)
	require.NoError(t, err)

	trend, err := s.Trend(ctx, "app", 30)
	require.NoError(t, err)
	require.NotNil(t, trend)

	assert.Equal(t, -20, trend.TotalDelta)
	assert.Equal(t, 2, trend.Snapshots)
	assert.InDelta(t, -2.0, trend.Velocity, 1e-9)
	require.NotNil(t, trend.BurnDownDays)
	assert.InDelta(t, 15.0, *trend.BurnDownDays, 1e-9)
	assert.Equal(t, -20, trend.SeverityDelta[finding.SeverityLow])
	assert.Equal(t, 0, trend.SeverityDelta[finding.SeverityHigh])
	assert.Equal(t, -20, trend.CategoryDelta[finding.CategoryTechDebt])
}

func TestTrend_NoBurnDownWhenGrowing(t *testing.T) {
	s, c := openStore(t)
	ctx := context.Background()

	_, err := s.Record(ctx, "app", numbered(3), nil)
	require.NoError(t, err)
	c.advance(6 * time.Hour)
	_, err = s.Record(ctx, "app", numbered(7), nil)
	require.NoError(t, err)

	trend, err := s.Trend(ctx, "app", 30)
	require.NoError(t, err)
	require.NotNil(t, trend)
	assert.InDelta(t, 4.0, trend.Velocity, 1e-9, "elapsed time under a day counts as one day")
	assert.Nil(t, trend.BurnDownDays)
}

func TestTrend_NeedsTwoSnapshots(t *testing.T) {
	s, c := openStore(t)
	ctx := context.Background()

	trend, err := s.Trend(ctx, "app", 30)
	require.NoError(t, err)
	assert.Nil(t, trend)

	_, err = s.Record(ctx, "app", numbered(5), nil)
	require.NoError(t, err)
	c.advance(40 * day)
	_, err = s.Record(ctx, "app", numbered(4), nil)
	require.NoError(t, err)

	trend, err = s.Trend(ctx, "app", 30)
	require.NoError(t, err)
	assert.Nil(t, trend, "the first snapshot is outside the window")
}

func TestRecord_SameFindingsTwice(t *testing.T) {
	s, c := openStore(t)
	ctx := context.Background()
	set := findings(finding.SeverityHigh, "SEC-0001", "SEC-0002")

	first, err := s.Record(ctx, "app", set, nil)
	require.NoError(t, err)
	c.advance(time.Hour)
	second, err := s.Record(ctx, "app", set, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	snapshots, err := s.Snapshots(ctx, "app", 0)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, snapshots[0].Total, snapshots[1].Total)
	assert.Equal(t, snapshots[0].BySeverity, snapshots[1].BySeverity)
	assert.Equal(t, snapshots[0].ByCategory, snapshots[1].ByCategory)
	assert.True(t, snapshots[1].RecordedAt.After(snapshots[0].RecordedAt))

	resolved, err := s.Resolved(ctx, "app", 30)
	require.NoError(t, err)
	assert.Empty(t, resolved)
	added, err := s.New(ctx, "app", 30)
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestDiff_WindowStartAgainstLatest(t *testing.T) {
	s, c := openStore(t)
	ctx := context.Background()

	_, err := s.Record(ctx, "app", findings(finding.SeverityLow, "A", "B"), nil)
	require.NoError(t, err)
	c.advance(5 * day)
	_, err = s.Record(ctx, "app", findings(finding.SeverityLow, "B", "C"), nil)
	require.NoError(t, err)
	c.advance(day)
	_, err = s.Record(ctx, "app", findings(finding.SeverityLow, "C", "D"), nil)
	require.NoError(t, err)

	ids := func(rows []FindingRow) []string {
		out := make([]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.ID)
		}
		return out
	}

	d, err := s.Diff(ctx, "app", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, ids(d.Resolved))
	assert.Equal(t, []string{"D"}, ids(d.New))

	d, err = s.Diff(ctx, "app", 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ids(d.Resolved))
	assert.Equal(t, []string{"C", "D"}, ids(d.New))
	assert.Equal(t, "main.go", d.New[0].File)
}

func TestLatestAndRows(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	_, err := s.Latest(ctx, "app")
	assert.ErrorIs(t, err, ErrNoSnapshots)

	set := []finding.Finding{
		{ID: "SCR-0001", Category: finding.CategorySecrets, Severity: finding.SeverityHigh, Title: "Hardcoded password", File: "app.py"},
		{ID: "ARC-0001", Category: finding.CategoryArchitecture, Severity: finding.SeverityHigh, Title: "Circular import"},
	}
	prioritized := roi.Prioritize(set)
	id, err := s.Record(ctx, "app", set, prioritized)
	require.NoError(t, err)

	latest, err := s.Latest(ctx, "app")
	require.NoError(t, err)
	assert.Equal(t, id, latest.ID)
	assert.Equal(t, 2, latest.Total)
	assert.InDelta(t, roi.AverageROI(prioritized), latest.AverageROI, 1e-9)
	assert.Equal(t, 1, latest.ByCategory[finding.CategorySecrets])

	rows, err := s.FindingRows(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []FindingRow{
		{ID: "SCR-0001", Category: finding.CategorySecrets, Severity: finding.SeverityHigh, Title: "Hardcoded password", File: "app.py"},
		{ID: "ARC-0001", Category: finding.CategoryArchitecture, Severity: finding.SeverityHigh, Title: "Circular import"},
	}, rows)

	_, err = s.Latest(ctx, "other")
	assert.ErrorIs(t, err, ErrNoSnapshots)
}

func TestRecord_RejectsEmptyProject(t *testing.T) {
	s, _ := openStore(t)
	_, err := s.Record(context.Background(), "", numbered(1), nil)
	assert.Error(t, err)
}

func TestOpen_ReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.db")
	ctx := context.Background()

	s, err := Open(ctx, path, Options{ReadPool: 1})
	require.NoError(t, err)
	_, err = s.Record(ctx, "app", numbered(2), nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, Options{ReadPool: 1})
	require.NoError(t, err)
	defer s.Close()

	snapshots, err := s.Snapshots(ctx, "app", 0)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 2, snapshots[0].Total)
	assert.Zero(t, snapshots[0].AverageROI)
}
