package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/simonhull/heron/pkg/analyzer"
	"github.com/simonhull/heron/pkg/config"
	"github.com/simonhull/heron/pkg/finding"
)

// Architecture reports import cycles, unstable hubs and god classes.
type Architecture struct {
	limits config.ThresholdConfig
}

// NewArchitecture creates an architecture analyzer.
func NewArchitecture(limits config.ThresholdConfig) *Architecture {
	return &Architecture{limits: limits}
}

func (a *Architecture) Category() finding.Category { return finding.CategoryArchitecture }

func (a *Architecture) Analyze(ctx context.Context, p *analyzer.Project) ([]finding.Finding, error) {
	g, err := p.Graph(ctx)
	if err != nil {
		return nil, err
	}

	findings := make([]finding.Finding, 0)
	for _, cycle := range g.Cycles {
		file := ""
		if n, ok := g.Node(cycle[0]); ok {
			file = p.Rel(n.Path)
		}
		findings = append(findings, finding.Finding{
			Category:    finding.CategoryArchitecture,
			Severity:    finding.SeverityHigh,
			Title:       "Circular import",
			Description: fmt.Sprintf("Modules import each other in a cycle: %s.", strings.Join(cycle, " -> ")),
			File:        file,
			Line:        1,
			Remediation: "Move the shared pieces into a lower-level module or invert one dependency behind an interface.",
			Tags:        []string{string(finding.CategoryArchitecture), "cycle"},
		})
	}

	for _, n := range g.Nodes {
		if a.limits.Efferent <= 0 || n.Efferent <= a.limits.Efferent || n.Instability <= a.limits.Instability {
			continue
		}
		findings = append(findings, finding.Finding{
			Category: finding.CategoryArchitecture,
			Severity: finding.SeverityMedium,
			Title:    "Unstable module with many dependencies",
			Description: fmt.Sprintf("%s depends on %d modules with instability %.2f; changes anywhere below it ripple into it.",
				n.ID, n.Efferent, n.Instability),
			File:        p.Rel(n.Path),
			Line:        1,
			Remediation: "Split the module by responsibility or depend on narrower abstractions.",
			Tags:        []string{string(finding.CategoryArchitecture), "coupling"},
		})
	}

	if a.limits.ClassMethods <= 0 {
		return findings, nil
	}
	model, err := p.Model(ctx)
	if err != nil {
		return nil, err
	}
	for _, sf := range model {
		for _, c := range sf.Classes {
			if len(c.Methods) <= a.limits.ClassMethods {
				continue
			}
			findings = append(findings, finding.Finding{
				Category: finding.CategoryArchitecture,
				Severity: finding.SeverityMedium,
				Title:    "God class",
				Description: fmt.Sprintf("%s has %d methods and %d fields (limit %d methods).",
					c.Name, len(c.Methods), len(c.Fields), a.limits.ClassMethods),
				File:        p.Rel(sf.Path),
				Line:        c.StartLine,
				Remediation: "Split the class along its responsibilities.",
				Tags:        []string{string(finding.CategoryArchitecture), "god-class"},
			})
		}
	}
	return findings, nil
}
