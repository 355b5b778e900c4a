// Package checks holds the built-in analyzers, one per category.
package checks

import (
	"github.com/simonhull/heron/pkg/analyzer"
	"github.com/simonhull/heron/pkg/config"
	"github.com/simonhull/heron/pkg/finding"
)

// Register adds every built-in analyzer to r.
func Register(r *analyzer.Registry) {
	r.Register(finding.CategorySecurity, func(*config.Config) analyzer.Analyzer { return NewSecurity() })
	r.Register(finding.CategorySecrets, func(*config.Config) analyzer.Analyzer { return NewSecrets() })
	r.Register(finding.CategoryResilience, func(*config.Config) analyzer.Analyzer { return NewResilience() })
	r.Register(finding.CategoryObservability, func(*config.Config) analyzer.Analyzer { return NewObservability() })
	r.Register(finding.CategoryPerformance, func(*config.Config) analyzer.Analyzer { return NewPerformance() })
	r.Register(finding.CategoryComplexity, func(cfg *config.Config) analyzer.Analyzer {
		return NewComplexity(cfg.Thresholds)
	})
	r.Register(finding.CategoryDuplication, func(*config.Config) analyzer.Analyzer { return NewDuplication() })
	r.Register(finding.CategoryArchitecture, func(cfg *config.Config) analyzer.Analyzer {
		return NewArchitecture(cfg.Thresholds)
	})
	r.Register(finding.CategoryTechDebt, func(*config.Config) analyzer.Analyzer { return NewTechDebt() })
}

// NewRegistry returns a registry holding every built-in analyzer.
func NewRegistry() *analyzer.Registry {
	r := analyzer.NewRegistry()
	Register(r)
	return r
}
