package checks

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/simonhull/heron/pkg/analyzer"
	"github.com/simonhull/heron/pkg/finding"
	"github.com/simonhull/heron/pkg/source"
)

// maxSnippet bounds the snippet stored with a finding.
const maxSnippet = 200

// rule is one line-oriented pattern.
type rule struct {
	re          *regexp.Regexp
	unless      *regexp.Regexp // the line is skipped when this also matches
	severity    finding.Severity
	title       string
	description string
	remediation string
	cwe         string
	owasp       string
	tags        []string
	langs       []source.Language // nil: every scanned file
	skipFile    func(path string, content []byte) bool
}

func (r rule) applies(lang source.Language) bool {
	if r.langs == nil {
		return true
	}
	for _, l := range r.langs {
		if l == lang {
			return true
		}
	}
	return false
}

func (r rule) finding(category finding.Category, file string, line int, snippet string) finding.Finding {
	f := finding.Finding{
		Category:    category,
		Severity:    r.severity,
		Title:       r.title,
		Description: r.description,
		File:        file,
		Line:        line,
		Snippet:     snippet,
		Remediation: r.remediation,
		Tags:        append([]string{string(category)}, r.tags...),
	}
	if f.Description == "" {
		f.Description = r.title
	}
	if r.cwe != "" {
		f.CWE = []string{r.cwe}
	}
	if r.owasp != "" {
		f.OWASP = []string{r.owasp}
	}
	return f
}

// lineScanner applies rules to every line of the project's text files.
type lineScanner struct {
	category finding.Category
	rules    []rule
	// accept filters files by project-relative path; nil accepts source
	// files only.
	accept func(path string) bool
	// ignore drops a matched line, e.g. placeholders or comments.
	ignore func(line string) bool
	// redact rewrites the snippet before it is stored.
	redact func(line string) string
	// firstOnly reports at most one rule per line.
	firstOnly bool
}

func (s *lineScanner) Category() finding.Category { return s.category }

func (s *lineScanner) Analyze(ctx context.Context, p *analyzer.Project) ([]finding.Finding, error) {
	files, err := p.Files(ctx)
	if err != nil {
		return nil, err
	}

	accept := s.accept
	if accept == nil {
		accept = source.Supported
	}

	findings := make([]finding.Finding, 0)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel := p.Rel(path)
		if !accept(rel) {
			continue
		}
		content, err := p.ReadFile(path)
		if err != nil {
			continue
		}
		findings = append(findings, s.scan(rel, path, content)...)
	}
	return findings, nil
}

func (s *lineScanner) scan(rel, path string, content []byte) []finding.Finding {
	lang := source.LanguageFor(path)

	active := make([]rule, 0, len(s.rules))
	for _, r := range s.rules {
		if r.applies(lang) && (r.skipFile == nil || !r.skipFile(path, content)) {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		return nil
	}

	var out []finding.Finding
	for i, line := range lines(content) {
		for _, r := range active {
			if !r.re.MatchString(line) {
				continue
			}
			if r.unless != nil && r.unless.MatchString(line) {
				continue
			}
			if s.ignore != nil && s.ignore(line) {
				continue
			}
			out = append(out, r.finding(s.category, rel, i+1, s.snippet(line)))
			if s.firstOnly {
				break
			}
		}
	}
	return out
}

func (s *lineScanner) snippet(line string) string {
	line = strings.TrimSpace(line)
	if s.redact != nil {
		line = s.redact(line)
	}
	if len(line) > maxSnippet {
		line = line[:maxSnippet] + "..."
	}
	return line
}

// isTestPath reports whether path looks like test code.
func isTestPath(path string) bool {
	slashed := filepath.ToSlash(path)
	name := filepath.Base(slashed)
	switch {
	case strings.HasSuffix(name, "_test.go"),
		strings.Contains(name, ".test."),
		strings.Contains(name, ".spec."),
		strings.HasPrefix(name, "test_"),
		strings.HasSuffix(strings.TrimSuffix(name, filepath.Ext(name)), "Test"),
		strings.HasSuffix(strings.TrimSuffix(name, filepath.Ext(name)), "Tests"):
		return true
	}
	for _, dir := range []string{"/test/", "/tests/", "/__tests__/", "/testdata/", "/spec/"} {
		if strings.Contains("/"+slashed, dir) {
			return true
		}
	}
	return false
}

func sourceNonTest(path string) bool {
	return source.Supported(path) && !isTestPath(path)
}

var goMainPackage = regexp.MustCompile(`(?m)^package\s+main\b`)

// inGoMain skips rules for Go files in package main.
func inGoMain(path string, content []byte) bool {
	return source.LanguageFor(path) == source.LangGo && goMainPackage.Match(content)
}

// hasLineComment reports whether trimmed starts with a line comment marker.
func hasLineComment(trimmed string) bool {
	for _, prefix := range []string{"//", "#", "*", "/*", "--"} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

func lines(content []byte) []string {
	return strings.Split(string(bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))), "\n")
}
