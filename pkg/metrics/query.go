package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/simonhull/heron/pkg/finding"
)

// Snapshot is one recorded aggregate.
type Snapshot struct {
	ID         int64                    `json:"id"`
	ProjectID  string                   `json:"project_id"`
	RecordedAt time.Time                `json:"recorded_at"`
	Total      int                      `json:"total_findings"`
	BySeverity map[finding.Severity]int `json:"by_severity"`
	ByCategory map[finding.Category]int `json:"by_category"`
	AverageROI float64                  `json:"avg_roi"`
}

// FindingRow is the per-finding record kept with a snapshot.
type FindingRow struct {
	ID       string           `json:"id"`
	Category finding.Category `json:"category"`
	Severity finding.Severity `json:"severity"`
	Title    string           `json:"title"`
	File     string           `json:"file,omitempty"`
}

const snapshotColumns = `id, project_id, recorded_at, total_findings, by_severity, by_category, avg_roi`

// Snapshots returns the project's snapshots recorded within the last
// windowDays days, oldest first. windowDays <= 0 returns every snapshot.
func (s *Store) Snapshots(ctx context.Context, projectID string, windowDays int) ([]Snapshot, error) {
	snapshots := make([]Snapshot, 0)
	err := s.read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT `+snapshotColumns+` FROM snapshots
			 WHERE project_id = ? AND recorded_at >= ?
			 ORDER BY recorded_at ASC, id ASC`,
			&sqlitex.ExecOptions{
				Args: []any{projectID, s.cutoff(windowDays)},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					snap, err := scanSnapshot(stmt)
					if err != nil {
						return err
					}
					snapshots = append(snapshots, snap)
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	return snapshots, nil
}

// Latest returns the most recent snapshot of the project, regardless of
// age, or ErrNoSnapshots.
func (s *Store) Latest(ctx context.Context, projectID string) (*Snapshot, error) {
	var latest *Snapshot
	err := s.read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT `+snapshotColumns+` FROM snapshots
			 WHERE project_id = ?
			 ORDER BY recorded_at DESC, id DESC LIMIT 1`,
			&sqlitex.ExecOptions{
				Args: []any{projectID},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					snap, err := scanSnapshot(stmt)
					if err != nil {
						return err
					}
					latest = &snap
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	if latest == nil {
		return nil, fmt.Errorf("project %q: %w", projectID, ErrNoSnapshots)
	}
	return latest, nil
}

// FindingRows returns the findings stored with a snapshot, in recorded order.
func (s *Store) FindingRows(ctx context.Context, snapshotID int64) ([]FindingRow, error) {
	rows := make([]FindingRow, 0)
	err := s.read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT finding_id, category, severity, title, file FROM finding_rows
			 WHERE snapshot_id = ? ORDER BY rowid`,
			&sqlitex.ExecOptions{
				Args: []any{snapshotID},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					rows = append(rows, FindingRow{
						ID:       stmt.ColumnText(0),
						Category: finding.Category(stmt.ColumnText(1)),
						Severity: finding.Severity(stmt.ColumnText(2)),
						Title:    stmt.ColumnText(3),
						File:     stmt.ColumnText(4),
					})
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("query finding rows: %w", err)
	}
	return rows, nil
}

func scanSnapshot(stmt *sqlite.Stmt) (Snapshot, error) {
	snap := Snapshot{
		ID:         stmt.ColumnInt64(0),
		ProjectID:  stmt.ColumnText(1),
		RecordedAt: time.Unix(0, stmt.ColumnInt64(2)).UTC(),
		Total:      stmt.ColumnInt(3),
		AverageROI: stmt.ColumnFloat(6),
	}
	if err := json.Unmarshal([]byte(stmt.ColumnText(4)), &snap.BySeverity); err != nil {
		return snap, fmt.Errorf("snapshot %d severity counts: %w", snap.ID, err)
	}
	if err := json.Unmarshal([]byte(stmt.ColumnText(5)), &snap.ByCategory); err != nil {
		return snap, fmt.Errorf("snapshot %d category counts: %w", snap.ID, err)
	}
	return snap, nil
}

// cutoff is the earliest recorded_at inside the window.
func (s *Store) cutoff(windowDays int) int64 {
	if windowDays <= 0 {
		return 0
	}
	return s.now().UTC().AddDate(0, 0, -windowDays).UnixNano()
}
