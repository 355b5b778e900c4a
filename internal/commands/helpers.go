package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/simonhull/heron/pkg/metrics"
	"github.com/simonhull/heron/pkg/output"
)

// projectID picks the store key: the flag, then project.id, then the base
// name of the scanned directory.
func projectID(flag, path string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.Project.ID != "" {
		return cfg.Project.ID, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving project path: %w", err)
	}
	return filepath.Base(abs), nil
}

// openStore opens the metrics database at the flag path or store.path.
func openStore(ctx context.Context, dbFlag string) (*metrics.Store, error) {
	path := dbFlag
	if path == "" {
		path = cfg.Store.Path
	}
	output.Verbose(fmt.Sprintf("Metrics store: %s", path))
	store, err := metrics.Open(ctx, path, metrics.Options{ReadPool: cfg.Store.ReadPool, Logger: log})
	if err != nil {
		return nil, fmt.Errorf("opening metrics store: %w", err)
	}
	return store, nil
}

// openOutput returns stdout, or the file at path. The returned close func
// is always safe to call.
func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}
