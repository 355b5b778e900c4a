// Package analyzer runs analyzer plugins over a project and aggregates
// their findings into one report.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/simonhull/heron/pkg/config"
	"github.com/simonhull/heron/pkg/finding"
)

var (
	// ErrAnalyzerNotFound is recorded for a requested category with no
	// registered implementation.
	ErrAnalyzerNotFound = errors.New("analyzer not found")
	// ErrAnalyzerTimeout is recorded when an analyzer exceeds its timeout.
	ErrAnalyzerTimeout = errors.New("analyzer timed out")
)

// Analyzer is the plugin contract. Analyze returns findings in emission
// order; IDs are assigned by the orchestrator, so plugins leave them empty.
type Analyzer interface {
	Category() finding.Category
	Analyze(ctx context.Context, p *Project) ([]finding.Finding, error)
}

// Factory builds an analyzer from configuration.
type Factory func(cfg *config.Config) Analyzer

// Registry maps categories to analyzer factories. It is filled at startup
// and read concurrently afterwards.
type Registry struct {
	mu        sync.RWMutex
	factories map[finding.Category]Factory
	order     []finding.Category
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[finding.Category]Factory),
		order:     make([]finding.Category, 0),
	}
}

// Register adds or replaces the factory for category.
func (r *Registry) Register(category finding.Category, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[category]; !exists {
		r.order = append(r.order, category)
	}
	r.factories[category] = factory
}

// Categories returns the registered categories in registration order.
func (r *Registry) Categories() []finding.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]finding.Category(nil), r.order...)
}

// Resolve builds the analyzer for category.
func (r *Registry) Resolve(category finding.Category, cfg *config.Config) (Analyzer, error) {
	r.mu.RLock()
	factory, ok := r.factories[category]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w for category %q", ErrAnalyzerNotFound, category)
	}
	return factory(cfg), nil
}

// Func adapts a function to the Analyzer interface.
type Func struct {
	Cat finding.Category
	Fn  func(ctx context.Context, p *Project) ([]finding.Finding, error)
}

// Category implements Analyzer.
func (f Func) Category() finding.Category { return f.Cat }

// Analyze implements Analyzer.
func (f Func) Analyze(ctx context.Context, p *Project) ([]finding.Finding, error) {
	return f.Fn(ctx, p)
}
