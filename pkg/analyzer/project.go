package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/simonhull/heron/pkg/filesystem"
	"github.com/simonhull/heron/pkg/finding"
	"github.com/simonhull/heron/pkg/graph"
	"github.com/simonhull/heron/pkg/logger"
	"github.com/simonhull/heron/pkg/source"
)

// textExtensions are scanned by raw-text analyzers alongside source files.
var textExtensions = map[string]bool{
	".env": true, ".yaml": true, ".yml": true, ".json": true, ".toml": true,
	".ini": true, ".cfg": true, ".conf": true, ".properties": true,
	".sh": true, ".bash": true, ".tf": true, ".xml": true, ".rb": true,
}

// ProjectOptions configure how a project is discovered and modelled.
type ProjectOptions struct {
	Exclude           []string
	Workers           int
	MinDuplicateLines int
	Logger            logger.Logger
}

// Project is the read-only input shared by all analyzers of a run. The
// file list, structural model and import graph are built on first use and
// then shared.
type Project struct {
	Root   string
	Module string // Go module path, if the root has a go.mod

	opts   ProjectOptions
	logger logger.Logger

	filesOnce sync.Once
	files     []string
	filesErr  error

	modelOnce sync.Once
	model     []*source.StructuralFile
	modelErr  error
	modelMu   sync.Mutex // guards built
	built     []*source.StructuralFile

	graphOnce sync.Once
	graph     *graph.ImportGraph
	graphErr  error
}

// NewProject validates root and returns a project rooted there.
func NewProject(root string, opts ProjectOptions) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("project path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path %s is not a directory", abs)
	}

	if opts.Logger == nil {
		opts.Logger = logger.NewSilentLogger()
	}

	p := &Project{
		Root:   abs,
		opts:   opts,
		logger: opts.Logger,
	}
	if mod, err := source.DetectModule(abs); err == nil {
		p.Module = mod.Path
	}
	return p, nil
}

// Files returns every file raw-text analyzers should read: recognised
// source files plus common configuration and script files.
func (p *Project) Files(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.filesOnce.Do(func() {
		p.files, p.filesErr = filesystem.Discover(p.Root, filesystem.DiscoverOptions{
			Accept:  isTextFile,
			Exclude: p.opts.Exclude,
		})
		p.logger.Debug("Discovered files", logger.F("count", len(p.files)))
	})
	return p.files, p.filesErr
}

// SourceFiles returns the discovered files with a supported language.
func (p *Project) SourceFiles(ctx context.Context) ([]string, error) {
	files, err := p.Files(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		if source.Supported(f) {
			out = append(out, f)
		}
	}
	return out, nil
}

// Model returns the structural model of every source file, sorted by path.
// It is built once, detached from the first caller's deadline.
func (p *Project) Model(ctx context.Context) ([]*source.StructuralFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.modelOnce.Do(func() {
		detached := context.WithoutCancel(ctx)
		files, err := p.SourceFiles(detached)
		if err != nil {
			p.modelErr = err
			return
		}
		builder := source.NewBuilder(p.Root).WithLogger(p.logger)
		p.model, p.modelErr = builder.BuildAll(detached, files, p.opts.Workers)

		p.modelMu.Lock()
		p.built = p.model
		p.modelMu.Unlock()
	})
	return p.model, p.modelErr
}

// Graph returns the import graph of the structural model.
func (p *Project) Graph(ctx context.Context) (*graph.ImportGraph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.graphOnce.Do(func() {
		model, err := p.Model(context.WithoutCancel(ctx))
		if err != nil {
			p.graphErr = err
			return
		}
		p.graph = graph.Build(model, graph.Options{GoModule: p.Module})
		p.logger.Debug("Built import graph",
			logger.F("modules", p.graph.Stats.Modules),
			logger.F("edges", p.graph.Stats.Edges),
			logger.F("cycles", p.graph.Stats.CycleCount))
	})
	return p.graph, p.graphErr
}

// MinDuplicateLines is the configured duplicate-detection threshold.
func (p *Project) MinDuplicateLines() int {
	if p.opts.MinDuplicateLines <= 0 {
		return graph.DefaultMinDuplicateLines
	}
	return p.opts.MinDuplicateLines
}

// ReadFile reads a project file.
func (p *Project) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Rel returns path relative to the project root, with "/" separators.
func (p *Project) Rel(path string) string {
	if rel, err := filepath.Rel(p.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

// parseErrors lists per-file parse errors, if the model was built. An
// analyzer abandoned on timeout may still be building it.
func (p *Project) parseErrors() []finding.FileErrors {
	p.modelMu.Lock()
	model := p.built
	p.modelMu.Unlock()

	var out []finding.FileErrors
	for _, sf := range model {
		if sf.HasErrors() {
			out = append(out, finding.FileErrors{File: p.Rel(sf.Path), Errors: sf.Errors})
		}
	}
	return out
}

func isTextFile(path string) bool {
	if source.Supported(path) {
		return true
	}
	name := filepath.Base(path)
	if name == "Dockerfile" {
		return true
	}
	return textExtensions[strings.ToLower(filepath.Ext(name))]
}
