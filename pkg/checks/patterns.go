package checks

import (
	"strings"

	"github.com/simonhull/heron/pkg/analyzer"
	"github.com/simonhull/heron/pkg/finding"
)

// NewSecurity returns the injection, crypto and TLS pattern analyzer.
func NewSecurity() analyzer.Analyzer {
	return &lineScanner{
		category: finding.CategorySecurity,
		rules:    securityRules,
		accept:   sourceNonTest,
		ignore:   commentOnly,
	}
}

// NewResilience flags swallowed errors, missing timeouts and unbounded work.
func NewResilience() analyzer.Analyzer {
	return &lineScanner{
		category: finding.CategoryResilience,
		rules:    resilienceRules,
		accept:   sourceNonTest,
		ignore:   commentOnly,
	}
}

// NewObservability flags ad-hoc console output in library code.
func NewObservability() analyzer.Analyzer {
	return &lineScanner{
		category: finding.CategoryObservability,
		rules:    observabilityRules,
		accept:   sourceNonTest,
		ignore:   commentOnly,
	}
}

// NewTechDebt reports comment markers and lint suppressions. Tests are
// scanned too.
func NewTechDebt() analyzer.Analyzer {
	return &lineScanner{
		category:  finding.CategoryTechDebt,
		rules:     techDebtRules,
		firstOnly: true,
	}
}

func commentOnly(line string) bool {
	return hasLineComment(strings.TrimSpace(line))
}
