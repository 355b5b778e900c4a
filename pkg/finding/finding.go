// Package finding defines the observations analyzers report and the report
// that aggregates them.
package finding

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownSeverity is returned when a severity name is not recognised.
	ErrUnknownSeverity = errors.New("unknown severity")
	// ErrUnknownCategory is returned when a category name is not recognised.
	ErrUnknownCategory = errors.New("unknown category")
)

// Severity is ordinal: critical > high > medium > low > info.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists every severity from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// Rank returns 4 for critical down to 0 for info, and -1 for an unknown value.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	case SeverityInfo:
		return 0
	}
	return -1
}

// AtLeast reports whether s is as severe as other or more.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// ParseSeverity accepts a severity name in any case.
func ParseSeverity(name string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(name)))
	if s.Rank() < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownSeverity, name)
	}
	return s, nil
}

// Category is one of a fixed set of analyzer categories.
type Category string

const (
	CategorySecurity      Category = "security"
	CategorySecrets       Category = "secrets"
	CategoryResilience    Category = "resilience"
	CategoryObservability Category = "observability"
	CategoryPerformance   Category = "performance"
	CategoryComplexity    Category = "complexity"
	CategoryDuplication   Category = "duplication"
	CategoryArchitecture  Category = "architecture"
	CategoryTechDebt      Category = "tech_debt"
)

// Group is the family a category belongs to.
type Group string

const (
	GroupSecurity      Group = "security"
	GroupOperational   Group = "operational"
	GroupArchitectural Group = "architectural"
)

type categoryInfo struct {
	prefix string
	group  Group
}

var categories = map[Category]categoryInfo{
	CategorySecurity:      {"SEC", GroupSecurity},
	CategorySecrets:       {"SCR", GroupSecurity},
	CategoryResilience:    {"RES", GroupOperational},
	CategoryObservability: {"OBS", GroupOperational},
	CategoryPerformance:   {"PRF", GroupOperational},
	CategoryComplexity:    {"CPX", GroupArchitectural},
	CategoryDuplication:   {"DUP", GroupArchitectural},
	CategoryArchitecture:  {"ARC", GroupArchitectural},
	CategoryTechDebt:      {"DEBT", GroupArchitectural},
}

// Categories lists every category in declaration order.
var Categories = []Category{
	CategorySecurity, CategorySecrets,
	CategoryResilience, CategoryObservability, CategoryPerformance,
	CategoryComplexity, CategoryDuplication, CategoryArchitecture, CategoryTechDebt,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Prefix returns the identifier prefix, such as "SEC".
func (c Category) Prefix() string {
	if info, ok := categories[c]; ok {
		return info.prefix
	}
	return strings.ToUpper(string(c))
}

// Group returns the category's family.
func (c Category) Group() Group {
	return categories[c].group
}

// ParseCategory accepts a category name in any case; "-" is read as "_".
func ParseCategory(name string) (Category, error) {
	c := Category(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_"))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	return c, nil
}

// ParseCategories parses a list of names, dropping duplicates.
func ParseCategories(names []string) ([]Category, error) {
	seen := make(map[Category]bool)
	out := make([]Category, 0, len(names))
	for _, name := range names {
		c, err := ParseCategory(name)
		if err != nil {
			return nil, err
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// FormatID renders an identifier such as "SEC-0001".
func FormatID(c Category, seq int) string {
	return fmt.Sprintf("%s-%04d", c.Prefix(), seq)
}

// Impact overrides a category's default impact factors. Zero means "use
// the category default".
type Impact struct {
	Exploitability  float64 `json:"exploitability,omitempty"`
	DataSensitivity float64 `json:"data_sensitivity,omitempty"`
	BlastRadius     float64 `json:"blast_radius,omitempty"`
	Compliance      float64 `json:"compliance,omitempty"`
	Availability    float64 `json:"availability,omitempty"`
	VelocityImpact  float64 `json:"velocity_impact,omitempty"`
}

// Finding is one analyzer observation.
type Finding struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	File        string   `json:"file,omitempty"`
	Line        int      `json:"line,omitempty"`
	Snippet     string   `json:"snippet,omitempty"`
	Remediation string   `json:"remediation,omitempty"`
	CWE         []string `json:"cwe,omitempty"`
	OWASP       []string `json:"owasp,omitempty"`
	Impact      *Impact  `json:"impact,omitempty"`
	EffortHours float64  `json:"effort_hours,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Location renders "file:line", "file" or "".
func (f Finding) Location() string {
	switch {
	case f.File == "":
		return ""
	case f.Line > 0:
		return fmt.Sprintf("%s:%d", f.File, f.Line)
	default:
		return f.File
	}
}

// HasTag reports whether the finding carries tag.
func (f Finding) HasTag(tag string) bool {
	for _, t := range f.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Sort orders findings by severity (most severe first), then file, line and ID.
func Sort(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Severity != b.Severity {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.ID < b.ID
	})
}
