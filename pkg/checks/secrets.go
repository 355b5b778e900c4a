package checks

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/simonhull/heron/pkg/analyzer"
	"github.com/simonhull/heron/pkg/finding"
)

// NewSecrets reports hardcoded credentials in source and config files.
// Snippets are redacted before they leave the analyzer.
func NewSecrets() analyzer.Analyzer {
	return &lineScanner{
		category:  finding.CategorySecrets,
		rules:     secretRules,
		accept:    secretCandidate,
		ignore:    notASecret,
		redact:    redactSecret,
		firstOnly: true,
	}
}

var placeholderMarkers = []string{
	"your_", "your-", "<your", "example", "placeholder", "changeme", "change_me",
	"xxxxxx", "dummy", "redacted", "replace_me", "${", "{{", "%s",
}

var envReferences = []string{
	"process.env", "os.environ", "getenv", "os.Getenv", "os.LookupEnv", "ENV[",
	"System.getenv", "Environment.GetEnvironmentVariable", "env::var", "config(", "settings.",
}

func secretCandidate(path string) bool {
	if isTestPath(path) {
		return false
	}
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".lock") || strings.HasSuffix(name, "-lock.json") || name == "go.sum" {
		return false
	}
	return !strings.Contains(name, ".example") && !strings.Contains(name, ".sample")
}

// notASecret drops comments, placeholders and values read from the
// environment.
func notASecret(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || (hasLineComment(trimmed) && !strings.HasPrefix(trimmed, "-----BEGIN")) {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, m := range placeholderMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	for _, ref := range envReferences {
		if strings.Contains(trimmed, ref) {
			return true
		}
	}
	return false
}

var (
	quotedValue = regexp.MustCompile(`([:=]\s*)(["'])[^"']{4,}(["'])`)
	tokenShapes = regexp.MustCompile(`AKIA[0-9A-Z]{16}|gh[pousr]_[0-9A-Za-z]{36}|github_pat_[0-9A-Za-z_]{22,}|[sr]k_(?:live|test)_[0-9A-Za-z]{24,}|xox[baprs]-[0-9A-Za-z-]{10,}|AIza[0-9A-Za-z_-]{35}`)
	urlCreds    = regexp.MustCompile(`(://[^:"'\s/]+:)[^@"'\s]+@`)
	bareValue   = regexp.MustCompile(`^([\w."'-]+\s*[:=]\s*)\S.*$`)
)

// redactSecret masks secret values in a snippet.
func redactSecret(line string) string {
	out := urlCreds.ReplaceAllString(line, "${1}[REDACTED]@")
	out = tokenShapes.ReplaceAllString(out, "[REDACTED]")
	out = quotedValue.ReplaceAllString(out, "${1}${2}[REDACTED]${3}")
	if out == line {
		out = bareValue.ReplaceAllString(line, "${1}[REDACTED]")
	}
	return out
}
