package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultIgnoreDirs are common directories to skip during traversal
var DefaultIgnoreDirs = []string{
	"node_modules", "vendor", ".git", ".svn", ".hg",
	"dist", "build", "bin", "tmp", "temp",
	".idea", ".vscode", ".vs", "__pycache__", ".venv", ".heron",
}

// DefaultIgnorePatterns skip minified bundles and generated code during
// discovery.
var DefaultIgnorePatterns = []string{"*.min.js", "*.min.css", "*.bundle.js", "*.pb.go", "*_pb2.py"}

// WalkOptions configures directory traversal behavior
type WalkOptions struct {
	IgnoreDirs     []string // Directories to skip (default: DefaultIgnoreDirs)
	IgnorePatterns []string // File patterns to skip (e.g., "*.min.js")
	IncludeHidden  bool     // Include hidden files/dirs (default: false)
}

// Walk traverses a directory tree with configurable ignore patterns.
// The visitor function is called for each file and directory.
// Return filepath.SkipDir from visitor to skip a directory.
func Walk(rootPath string, opts WalkOptions, visitor func(path string, info os.FileInfo) error) error {
	ignoreDirs := opts.IgnoreDirs
	if len(ignoreDirs) == 0 {
		ignoreDirs = DefaultIgnoreDirs
	}

	return filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip hidden files/directories unless explicitly included
		if !opts.IncludeHidden && strings.HasPrefix(info.Name(), ".") && path != rootPath {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() && path != rootPath {
			for _, ignore := range ignoreDirs {
				if info.Name() == ignore {
					return filepath.SkipDir
				}
			}
		}

		if !info.IsDir() && len(opts.IgnorePatterns) > 0 {
			for _, pattern := range opts.IgnorePatterns {
				if matched, _ := filepath.Match(pattern, info.Name()); matched {
					return nil
				}
			}
		}

		return visitor(path, info)
	})
}

// DiscoverOptions configures source file discovery
type DiscoverOptions struct {
	// Accept decides whether a file is collected. Nil accepts every file.
	Accept func(path string) bool
	// Exclude lists extra directory names or path fragments to skip.
	Exclude []string
	// MaxFileSize skips files larger than this many bytes (0 = 1 MiB).
	MaxFileSize int64
}

// Discover returns the files under rootPath accepted by opts, sorted by path.
// rootPath must exist and be a directory.
func Discover(rootPath string, opts DiscoverOptions) ([]string, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, fmt.Errorf("project path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path %s is not a directory", rootPath)
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = 1 << 20
	}

	ignore := append([]string{}, DefaultIgnoreDirs...)
	ignore = append(ignore, opts.Exclude...)

	var files []string
	walkOpts := WalkOptions{IgnoreDirs: ignore, IgnorePatterns: DefaultIgnorePatterns}
	err = Walk(rootPath, walkOpts, func(path string, info os.FileInfo) error {
		if info.IsDir() {
			return nil
		}
		if info.Size() > maxSize {
			return nil
		}
		for _, fragment := range opts.Exclude {
			if strings.Contains(filepath.ToSlash(path), fragment+"/") {
				return nil
			}
		}
		if opts.Accept != nil && !opts.Accept(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	sort.Strings(files)
	return files, nil
}
