package checks

import (
	"context"
	"fmt"

	"github.com/simonhull/heron/pkg/analyzer"
	"github.com/simonhull/heron/pkg/finding"
	"github.com/simonhull/heron/pkg/graph"
)

// Duplication reports structurally identical functions in different files.
type Duplication struct{}

// NewDuplication creates a duplication analyzer.
func NewDuplication() *Duplication { return &Duplication{} }

func (d *Duplication) Category() finding.Category { return finding.CategoryDuplication }

func (d *Duplication) Analyze(ctx context.Context, p *analyzer.Project) ([]finding.Finding, error) {
	model, err := p.Model(ctx)
	if err != nil {
		return nil, err
	}

	pairs := graph.FindDuplicates(model, p.MinDuplicateLines())
	findings := make([]finding.Finding, 0, len(pairs))
	for _, pair := range pairs {
		left, right := p.Rel(pair.Left.File), p.Rel(pair.Right.File)
		severity := finding.SeverityLow
		if pair.Group > 2 || pair.Lines >= 30 {
			severity = finding.SeverityMedium
		}
		findings = append(findings, finding.Finding{
			Category: finding.CategoryDuplication,
			Severity: severity,
			Title:    "Duplicated function structure",
			Description: fmt.Sprintf("%s (%s:%d) and %s (%s:%d) share the same structure over %d lines; %d copies in total.",
				pair.Left.Name, left, pair.Left.StartLine,
				pair.Right.Name, right, pair.Right.StartLine,
				pair.Lines, pair.Group),
			File:        left,
			Line:        pair.Left.StartLine,
			Remediation: "Extract the shared logic into one function and call it from both places.",
			Tags:        []string{string(finding.CategoryDuplication), "hash:" + pair.Hash},
		})
	}
	return findings, nil
}
