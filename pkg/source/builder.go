package source

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/heron/pkg/logger"
)

// frontEnd fills a StructuralFile from source bytes. Front-ends record
// parse failures in sf.Errors and never return them.
type frontEnd interface {
	parse(sf *StructuralFile, src []byte)
}

func frontEndFor(lang Language) frontEnd {
	switch lang {
	case LangGo:
		return goFrontEnd{}
	case LangPython:
		return pythonFrontEnd{}
	case LangJavaScript, LangTypeScript:
		return jsFrontEnd{lang: lang}
	}
	if d, ok := dialects[lang]; ok {
		return approximateFrontEnd{d: d}
	}
	return nil
}

// Builder turns source files into StructuralFiles.
type Builder struct {
	root   string
	logger logger.Logger
}

// NewBuilder creates a builder whose module identifiers are relative to root.
func NewBuilder(root string) *Builder {
	return &Builder{
		root:   root,
		logger: logger.NewSilentLogger(),
	}
}

// WithLogger sets the logger used for per-file diagnostics.
func (b *Builder) WithLogger(l logger.Logger) *Builder {
	b.logger = l
	return b
}

// Build reads and parses path. It never fails: read and parse problems are
// recorded in the result's Errors.
func (b *Builder) Build(path string, lang Language) *StructuralFile {
	src, err := os.ReadFile(path)
	if err != nil {
		sf := b.newFile(path, lang)
		sf.Errors = append(sf.Errors, fmt.Sprintf("read %s: %v", path, err))
		b.logger.Debug("Cannot read source file", logger.F("file", path), logger.F("error", err))
		return sf
	}
	return b.BuildSource(path, lang, src)
}

// BuildSource parses src as the contents of path.
func (b *Builder) BuildSource(path string, lang Language, src []byte) (sf *StructuralFile) {
	sf = b.newFile(path, lang)
	sf.Lines = countLines(src)

	fe := frontEndFor(lang)
	if fe == nil {
		sf.Errors = append(sf.Errors, fmt.Sprintf("unsupported language %q", lang))
		return sf
	}

	defer func() {
		if r := recover(); r != nil {
			sf.Errors = append(sf.Errors, fmt.Sprintf("parser panic: %v", r))
		}
		if sf.HasErrors() {
			b.logger.Debug("Parse errors",
				logger.F("file", path),
				logger.F("language", string(lang)),
				logger.F("errors", len(sf.Errors)))
		}
	}()

	fe.parse(sf, src)
	return sf
}

// BuildAll parses paths concurrently with at most workers goroutines and
// returns the files sorted by path. Only context cancellation is an error.
func (b *Builder) BuildAll(ctx context.Context, paths []string, workers int) ([]*StructuralFile, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	files := make([]*StructuralFile, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			files[i] = b.Build(path, LanguageFor(path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build structural model: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	b.logger.Debug("Built structural model",
		logger.F("files", len(files)),
		logger.F("workers", workers))
	return files, nil
}

func (b *Builder) newFile(path string, lang Language) *StructuralFile {
	return &StructuralFile{
		Path:      path,
		Module:    ModuleID(b.root, path),
		Language:  lang,
		Fidelity:  FidelityApproximate,
		Functions: []FunctionRecord{},
		Classes:   []ClassRecord{},
		Imports:   []ImportRecord{},
	}
}

func countLines(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	n := bytes.Count(src, []byte("\n"))
	if src[len(src)-1] != '\n' {
		n++
	}
	return n
}
