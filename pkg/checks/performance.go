package checks

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/simonhull/heron/pkg/analyzer"
	"github.com/simonhull/heron/pkg/finding"
	"github.com/simonhull/heron/pkg/source"
)

// Performance reports expensive operations inside loop bodies: queries,
// regex compilation and repeated string concatenation.
type Performance struct {
	rules []rule
}

// NewPerformance creates a performance analyzer.
func NewPerformance() *Performance {
	return &Performance{rules: loopRules}
}

var loopRules = []rule{
	{re: re(`(?i)\.(?:execute|query|queryrow|querycontext|findone|findbyid|findunique|findfirst)\s*\(|\.objects\.(?:get|filter)\s*\(|\bawait\s+\w+\.(?:find\w*|query|get)\s*\(`),
		severity: finding.SeverityHigh, title: "Query inside loop (N+1)",
		description: "A database or API query runs once per iteration.",
		remediation: "Batch the lookups into one query before the loop.", tags: []string{"n+1"}},
	{re: re(`\bre\.compile\s*\(|\bregexp\.(?:Must)?Compile\s*\(|\bnew\s+RegExp\s*\(|\bPattern\.compile\s*\(|\bRegex::new\s*\(`),
		severity: finding.SeverityMedium, title: "Regular expression compiled inside loop",
		remediation: "Compile the expression once outside the loop.", tags: []string{"regex"}},
	{re: re(`\b\w+\s*\+=\s*(?:["'\x60]|f["']|str\(|String\()`), severity: finding.SeverityMedium,
		title: "String concatenation inside loop",
		description: "Repeated concatenation copies the string on every iteration.",
		remediation: "Collect the parts and join them once, or use a builder.", tags: []string{"allocation"}},
}

func (a *Performance) Category() finding.Category { return finding.CategoryPerformance }

func (a *Performance) Analyze(ctx context.Context, p *analyzer.Project) ([]finding.Finding, error) {
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
		content, err := p.ReadFile(sf.Path)
		if err != nil {
			continue
		}
		findings = append(findings, a.scan(sf, rel, lines(content))...)
	}
	return findings, nil
}

func (a *Performance) scan(sf *source.StructuralFile, rel string, text []string) []finding.Finding {
	var inLoop []bool
	if sf.Language == source.LangPython {
		inLoop = indentedLoopBodies(text)
	} else {
		inLoop = bracedLoopBodies(text)
	}

	var out []finding.Finding
	for i, line := range text {
		trimmed := strings.TrimSpace(line)
		if !inLoop[i] || hasLineComment(trimmed) {
			continue
		}
		for _, r := range a.rules {
			if !r.re.MatchString(line) {
				continue
			}
			f := r.finding(finding.CategoryPerformance, rel, i+1, trimmed)
			if fn := enclosingFunction(sf, i+1); fn != "" {
				f.Description = fmt.Sprintf("%s (in %s)", f.Description, fn)
			}
			out = append(out, f)
			break
		}
	}
	return out
}

var (
	pythonLoop = regexp.MustCompile(`^(\s*)(?:async\s+)?(?:for|while)\b.*:\s*(?:#.*)?$`)
	bracedLoop = regexp.MustCompile(`\b(?:for|foreach|while)\b\s*[\w(]|\.(?:forEach|map|each)\s*\(`)
)

// indentedLoopBodies marks lines indented under a for or while header.
func indentedLoopBodies(text []string) []bool {
	marked := make([]bool, len(text))
	for i, line := range text {
		m := pythonLoop.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		indent := len(m[1])
		for j := i + 1; j < len(text); j++ {
			if strings.TrimSpace(text[j]) == "" {
				continue
			}
			if leadingSpace(text[j]) <= indent {
				break
			}
			marked[j] = true
		}
	}
	return marked
}

// bracedLoopBodies marks the lines between a loop header's opening brace
// and its matching close. A header without a brace on its line or the
// next covers the following line only.
func bracedLoopBodies(text []string) []bool {
	marked := make([]bool, len(text))
	for i, line := range text {
		if !bracedLoop.MatchString(line) || hasLineComment(strings.TrimSpace(line)) {
			continue
		}
		open := i
		if !strings.Contains(line, "{") {
			if i+1 < len(text) && strings.HasPrefix(strings.TrimSpace(text[i+1]), "{") {
				open = i + 1
			} else {
				if i+1 < len(text) {
					marked[i+1] = true
				}
				continue
			}
		}

		depth := 0
		for j := open; j < len(text); j++ {
			depth += strings.Count(text[j], "{") - strings.Count(text[j], "}")
			if j > i {
				marked[j] = true
			}
			if depth <= 0 {
				if j == i {
					marked[i] = true
				}
				break
			}
		}
	}
	return marked
}

func leadingSpace(line string) int {
	n := 0
	for _, c := range line {
		switch c {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

// enclosingFunction names the innermost function spanning line.
func enclosingFunction(sf *source.StructuralFile, line int) string {
	name, span := "", 0
	for _, fn := range sf.Functions {
		if fn.StartLine <= line && line <= fn.EndLine && (name == "" || fn.Lines() < span) {
			name, span = fn.QualifiedName(), fn.Lines()
		}
	}
	return name
}
