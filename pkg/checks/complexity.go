package checks

import (
	"context"
	"fmt"

	"github.com/simonhull/heron/pkg/analyzer"
	"github.com/simonhull/heron/pkg/config"
	"github.com/simonhull/heron/pkg/finding"
)

// Complexity flags functions whose metrics exceed the configured limits.
// A zero limit disables its check.
type Complexity struct {
	limits config.ThresholdConfig
}

// NewComplexity creates a complexity analyzer.
func NewComplexity(limits config.ThresholdConfig) *Complexity {
	return &Complexity{limits: limits}
}

func (c *Complexity) Category() finding.Category { return finding.CategoryComplexity }

func (c *Complexity) Analyze(ctx context.Context, p *analyzer.Project) ([]finding.Finding, error) {
	model, err := p.Model(ctx)
	if err != nil {
		return nil, err
	}

	findings := make([]finding.Finding, 0)
	for _, sf := range model {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel := p.Rel(sf.Path)
		if isTestPath(rel) {
			continue
		}
		for _, fn := range sf.Functions {
			name := fn.QualifiedName()
			at := func(severity finding.Severity, title, desc, fix string) {
				findings = append(findings, finding.Finding{
					Category:    finding.CategoryComplexity,
					Severity:    severity,
					Title:       title,
					Description: desc,
					File:        rel,
					Line:        fn.StartLine,
					Remediation: fix,
					Tags:        []string{string(finding.CategoryComplexity), string(sf.Language)},
				})
			}

			if limit := c.limits.Complexity; limit > 0 && fn.Complexity > limit {
				at(overBy(fn.Complexity, limit), "High cyclomatic complexity",
					fmt.Sprintf("%s has cyclomatic complexity %d (limit %d).", name, fn.Complexity, limit),
					"Extract helpers and flatten conditionals with early returns.")
			}
			if limit := c.limits.Nesting; limit > 0 && fn.Nesting > limit {
				at(finding.SeverityMedium, "Deep nesting",
					fmt.Sprintf("%s nests control flow %d levels deep (limit %d).", name, fn.Nesting, limit),
					"Use guard clauses or extract the inner blocks.")
			}
			if limit := c.limits.FunctionLines; limit > 0 && fn.Lines() > limit {
				at(overBy(fn.Lines(), limit), "Long function",
					fmt.Sprintf("%s spans %d lines (limit %d).", name, fn.Lines(), limit),
					"Split the function along its steps.")
			}
			if limit := c.limits.Parameters; limit > 0 && len(fn.Params) > limit {
				at(finding.SeverityLow, "Too many parameters",
					fmt.Sprintf("%s takes %d parameters (limit %d).", name, len(fn.Params), limit),
					"Group related parameters into a struct or options object.")
			}
		}
	}
	return findings, nil
}

// overBy is high when value exceeds twice the limit and medium otherwise.
func overBy(value, limit int) finding.Severity {
	if value > 2*limit {
		return finding.SeverityHigh
	}
	return finding.SeverityMedium
}
