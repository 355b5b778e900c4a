// Package metrics persists debt snapshots in SQLite and derives trends
// from them.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitemigration"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/simonhull/heron/pkg/finding"
	"github.com/simonhull/heron/pkg/logger"
	"github.com/simonhull/heron/pkg/roi"
)

// ErrNoSnapshots is returned when a project has nothing recorded.
var ErrNoSnapshots = errors.New("no snapshots recorded")

var schema = sqlitemigration.Schema{
	AppID: 0x6865726e, // "hern"
	Migrations: []string{
		`CREATE TABLE snapshots (
			id             INTEGER PRIMARY KEY,
			project_id     TEXT    NOT NULL,
			recorded_at    INTEGER NOT NULL,
			total_findings INTEGER NOT NULL,
			by_severity    TEXT    NOT NULL,
			by_category    TEXT    NOT NULL,
			avg_roi        REAL    NOT NULL
		);
		CREATE INDEX idx_snapshots_project ON snapshots(project_id, recorded_at);`,
		`CREATE TABLE finding_rows (
			snapshot_id INTEGER NOT NULL REFERENCES snapshots(id),
			finding_id  TEXT    NOT NULL,
			category    TEXT    NOT NULL,
			severity    TEXT    NOT NULL,
			title       TEXT    NOT NULL,
			file        TEXT
		);
		CREATE INDEX idx_finding_rows_snapshot ON finding_rows(snapshot_id);`,
	},
}

// Options configure a store.
type Options struct {
	// ReadPool is the number of read connections (default 4).
	ReadPool int
	Logger   logger.Logger
}

// Store is an append-only snapshot database. Writes go through one
// connection under a mutex; reads use a separate pool.
type Store struct {
	path    string
	writeMu sync.Mutex
	writer  *sqlite.Conn
	readers *sqlitex.Pool
	logger  logger.Logger
	now     func() time.Time
}

// Open opens or creates the database at path and applies migrations.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	if opts.ReadPool <= 0 {
		opts.ReadPool = 4
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewSilentLogger()
	}

	writer, err := sqlite.OpenConn(path, sqlite.OpenCreate, sqlite.OpenReadWrite, sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := sqlitex.ExecuteTransient(writer, "PRAGMA foreign_keys = ON", nil); err != nil {
		writer.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := sqlitemigration.Migrate(ctx, writer, schema); err != nil {
		writer.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}

	readers, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		Flags:    sqlite.OpenReadOnly,
		PoolSize: opts.ReadPool,
	})
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open read pool: %w", err)
	}

	return &Store{
		path:    path,
		writer:  writer,
		readers: readers,
		logger:  opts.Logger,
		now:     time.Now,
	}, nil
}

// WithClock sets the clock used to timestamp snapshots and windows.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Close releases every connection.
func (s *Store) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return errors.Join(s.readers.Close(), s.writer.Close())
}

// Record persists one snapshot of findings for projectID and returns its
// id. The snapshot row and its finding rows are written in one
// transaction. Average ROI comes from prioritized and is 0 without it.
func (s *Store) Record(ctx context.Context, projectID string, findings []finding.Finding, prioritized []roi.PrioritizedFinding) (id int64, err error) {
	if projectID == "" {
		return 0, errors.New("record: project id is empty")
	}
	bySeverity, err := json.Marshal(finding.CountBySeverity(findings))
	if err != nil {
		return 0, err
	}
	byCategory, err := json.Marshal(finding.CountByCategory(findings))
	if err != nil {
		return 0, err
	}
	recordedAt := s.now().UTC()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	defer s.writer.SetInterrupt(s.writer.SetInterrupt(ctx.Done()))

	endFn, err := sqlitex.ImmediateTransaction(s.writer)
	if err != nil {
		return 0, fmt.Errorf("begin record: %w", err)
	}
	defer endFn(&err)

	err = sqlitex.Execute(s.writer,
		`INSERT INTO snapshots (project_id, recorded_at, total_findings, by_severity, by_category, avg_roi)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			projectID, recordedAt.UnixNano(), len(findings),
			string(bySeverity), string(byCategory), roi.AverageROI(prioritized),
		}})
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id = s.writer.LastInsertRowID()

	stmt, err := s.writer.Prepare(`INSERT INTO finding_rows (snapshot_id, finding_id, category, severity, title, file) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare finding rows: %w", err)
	}
	for _, f := range findings {
		stmt.BindInt64(1, id)
		stmt.BindText(2, f.ID)
		stmt.BindText(3, string(f.Category))
		stmt.BindText(4, string(f.Severity))
		stmt.BindText(5, f.Title)
		bindTextOrNull(stmt, 6, f.File)
		if _, err = stmt.Step(); err != nil {
			return 0, fmt.Errorf("insert finding %s: %w", f.ID, err)
		}
		if err = stmt.Reset(); err != nil {
			return 0, err
		}
	}

	s.logger.Info("Recorded snapshot",
		logger.F("project", projectID),
		logger.F("snapshot", id),
		logger.F("findings", len(findings)))
	return id, nil
}

func bindTextOrNull(stmt *sqlite.Stmt, param int, val string) {
	if val == "" {
		stmt.BindNull(param)
	} else {
		stmt.BindText(param, val)
	}
}

// read runs fn on a pooled read connection.
func (s *Store) read(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	conn, err := s.readers.Take(ctx)
	if err != nil {
		return fmt.Errorf("take read connection: %w", err)
	}
	defer s.readers.Put(conn)
	return fn(conn)
}
