package checks

import (
	"regexp"

	"github.com/simonhull/heron/pkg/finding"
	"github.com/simonhull/heron/pkg/source"
)

var (
	jsLike     = []source.Language{source.LangJavaScript, source.LangTypeScript}
	python     = []source.Language{source.LangPython}
	golang     = []source.Language{source.LangGo}
	php        = []source.Language{source.LangPHP}
	jvm        = []source.Language{source.LangJava, source.LangKotlin}
	braceCatch = []source.Language{
		source.LangJavaScript, source.LangTypeScript, source.LangJava, source.LangCSharp,
		source.LangKotlin, source.LangSwift, source.LangPHP, source.LangCPP,
	}
	// configFiles selects files without a source language: YAML, env, ini.
	configFiles = []source.Language{source.LangUnknown}
)

var re = regexp.MustCompile

const (
	fixInjection = "Pass untrusted values as parameters or arguments instead of building code, commands or queries from strings."
	fixTimeout   = "Set an explicit timeout or deadline on every outbound call."
	fixSecret    = "Remove the secret from source. Load it from the environment or a secrets manager and rotate the exposed value."
	fixLogging   = "Replace ad-hoc printing with the project's structured logger."
)

var securityRules = []rule{
	{re: re(`\beval\s*\(`), severity: finding.SeverityHigh, title: "Dynamic code evaluation",
		description: "eval executes arbitrary code; any attacker-influenced input becomes code execution.",
		remediation: "Remove eval. Parse data with a dedicated parser (JSON, ast.literal_eval) instead.",
		cwe:         "CWE-95", owasp: "A03:2021", tags: []string{"injection"},
		langs: []source.Language{source.LangJavaScript, source.LangTypeScript, source.LangPython, source.LangPHP}},
	{re: re(`(?:^|[^.\w])exec\s*\(`), severity: finding.SeverityHigh, title: "Dynamic code execution",
		remediation: fixInjection, cwe: "CWE-95", owasp: "A03:2021", tags: []string{"injection"}, langs: python},
	{re: re(`\bnew\s+Function\s*\(`), severity: finding.SeverityHigh, title: "Code built with the Function constructor",
		remediation: fixInjection, cwe: "CWE-95", owasp: "A03:2021", tags: []string{"injection"}, langs: jsLike},
	{re: re(`\bsubprocess\.\w+\s*\(.*shell\s*=\s*True`), severity: finding.SeverityHigh, title: "Shell command with shell=True",
		description: "The command line is interpreted by a shell, so interpolated values can inject commands.",
		remediation: "Pass the command as an argument list with shell=False.",
		cwe:         "CWE-78", owasp: "A03:2021", tags: []string{"injection", "command"}, langs: python},
	{re: re(`\bos\.system\s*\(`), severity: finding.SeverityHigh, title: "Shell command via os.system",
		remediation: "Use subprocess.run with an argument list.",
		cwe:         "CWE-78", owasp: "A03:2021", tags: []string{"injection", "command"}, langs: python},
	{re: re("\\bexec(?:Sync)?\\s*\\(\\s*(?:`[^`]*\\$\\{|[^)]*\\+)"), severity: finding.SeverityHigh,
		title: "Shell command built from strings", remediation: "Use execFile or spawn with an argument array.",
		cwe: "CWE-78", owasp: "A03:2021", tags: []string{"injection", "command"}, langs: jsLike},
	{re: re(`\bspawn\s*\([^)]*shell\s*:\s*true`), severity: finding.SeverityHigh, title: "Process spawned through a shell",
		remediation: fixInjection, cwe: "CWE-78", owasp: "A03:2021", tags: []string{"injection", "command"}, langs: jsLike},
	{re: re(`\bexec\.Command(?:Context)?\s*\((?:\w+,\s*)?"(?:ba)?sh",\s*"-c"`), severity: finding.SeverityMedium,
		title: "Command run through sh -c", remediation: "Invoke the program directly with separate arguments.",
		cwe: "CWE-78", owasp: "A03:2021", tags: []string{"injection", "command"}, langs: golang},
	{re: re(`\b(?:system|shell_exec|passthru|exec|popen)\s*\(.*\$_(?:GET|POST|REQUEST|COOKIE)`), severity: finding.SeverityCritical,
		title: "Shell command built from request input", remediation: "Never pass request data to a shell; use escapeshellarg at minimum.",
		cwe: "CWE-78", owasp: "A03:2021", tags: []string{"injection", "command"}, langs: php},
	{re: re("(?i)\\b(?:query|execute|exec|raw|prepare)\\w*\\s*\\(\\s*[\"'`][^\"'`]*\\b(?:select|insert|update|delete)\\b[^\"'`]*[\"'`]\\s*\\+"),
		severity: finding.SeverityHigh, title: "SQL built by string concatenation",
		description: "Concatenating values into SQL allows injection.",
		remediation: "Use parameterized queries or prepared statements.",
		cwe:         "CWE-89", owasp: "A03:2021", tags: []string{"injection", "sql"}},
	{re: re("(?i)\\b(?:query|execute|raw)\\s*\\(\\s*`[^`]*\\$\\{"), severity: finding.SeverityHigh,
		title: "SQL built from a template literal", remediation: "Use parameterized queries or a tagged SQL template.",
		cwe: "CWE-89", owasp: "A03:2021", tags: []string{"injection", "sql"}, langs: jsLike},
	{re: re(`(?i)\bexecute\s*\(\s*(?:f["']|[^)]*["']\s*(?:%|\.format\s*\())`), severity: finding.SeverityHigh,
		title: "SQL built with string formatting", remediation: "Pass parameters as the second argument to execute.",
		cwe: "CWE-89", owasp: "A03:2021", tags: []string{"injection", "sql"}, langs: python},
	{re: re(`(?i)\.(?:query|queryrow|exec)(?:context)?\s*\(.*fmt\.Sprintf\s*\(\s*"\s*(?:select|insert|update|delete)`),
		severity: finding.SeverityHigh, title: "SQL built with fmt.Sprintf",
		remediation: "Use placeholders and pass values as query arguments.",
		cwe:         "CWE-89", owasp: "A03:2021", tags: []string{"injection", "sql"}, langs: golang},
	{re: re(`\b(?:mysql_query|mysqli_query)\s*\(.*\$_(?:GET|POST|REQUEST)`), severity: finding.SeverityCritical,
		title: "SQL built from request input", remediation: "Use PDO prepared statements.",
		cwe: "CWE-89", owasp: "A03:2021", tags: []string{"injection", "sql"}, langs: php},
	{re: re(`(?i)\b(?:hashlib\.(?:md5|sha1)|md5\.(?:New|Sum)|sha1\.(?:New|Sum)|createHash\s*\(\s*['"](?:md5|sha1)['"]|MessageDigest\.getInstance\s*\(\s*"(?:md5|sha-?1)")`),
		severity: finding.SeverityMedium, title: "Weak hash algorithm",
		description: "MD5 and SHA-1 are broken for security purposes.",
		remediation: "Use SHA-256 or better; use bcrypt, scrypt or argon2 for passwords.",
		cwe:         "CWE-327", owasp: "A02:2021", tags: []string{"crypto"}},
	{re: re(`\bInsecureSkipVerify\s*:\s*true`), severity: finding.SeverityHigh, title: "TLS certificate verification disabled",
		remediation: "Remove InsecureSkipVerify; trust the required CA instead.",
		cwe:         "CWE-295", owasp: "A02:2021", tags: []string{"tls"}, langs: golang},
	{re: re(`\bverify\s*=\s*False\b`), severity: finding.SeverityHigh, title: "TLS certificate verification disabled",
		remediation: "Remove verify=False; pass a CA bundle if needed.",
		cwe:         "CWE-295", owasp: "A02:2021", tags: []string{"tls"}, langs: python},
	{re: re(`\brejectUnauthorized\s*:\s*false|NODE_TLS_REJECT_UNAUTHORIZED`), severity: finding.SeverityHigh,
		title: "TLS certificate verification disabled", remediation: "Keep certificate verification on; configure the CA instead.",
		cwe: "CWE-295", owasp: "A02:2021", tags: []string{"tls"}, langs: jsLike},
	{re: re(`\.(?:innerHTML|outerHTML)\s*=`), unless: re(`\.(?:inner|outer)HTML\s*=\s*(?:""|''|` + "``" + `)\s*;?\s*$`),
		severity: finding.SeverityMedium, title: "HTML assigned without escaping",
		remediation: "Use textContent or sanitize the markup first.",
		cwe:         "CWE-79", owasp: "A03:2021", tags: []string{"xss"}, langs: jsLike},
	{re: re(`\bdocument\.write\s*\(|dangerouslySetInnerHTML`), severity: finding.SeverityMedium,
		title: "Raw HTML rendering", remediation: "Render text nodes or sanitize the markup first.",
		cwe: "CWE-79", owasp: "A03:2021", tags: []string{"xss"}, langs: jsLike},
	{re: re(`\bpickle\.loads?\s*\(`), severity: finding.SeverityMedium, title: "Unsafe deserialization with pickle",
		remediation: "Deserialize untrusted data with a safe format such as JSON.",
		cwe:         "CWE-502", owasp: "A08:2021", tags: []string{"deserialization"}, langs: python},
	{re: re(`\byaml\.load\s*\(`), unless: re(`Loader\s*=\s*(?:yaml\.)?(?:Safe|CSafe)Loader`),
		severity: finding.SeverityMedium, title: "yaml.load without a safe loader",
		remediation: "Use yaml.safe_load.", cwe: "CWE-502", owasp: "A08:2021", tags: []string{"deserialization"}, langs: python},
}

var secretRules = []rule{
	{re: re(`\bAKIA[0-9A-Z]{16}\b`), severity: finding.SeverityCritical, title: "AWS access key ID"},
	{re: re(`(?i)aws_?secret_?access_?key["']?\s*(?::=|=>|[:=])\s*["']?[A-Za-z0-9/+=]{40}`), severity: finding.SeverityCritical,
		title: "AWS secret access key"},
	{re: re(`-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY(?: BLOCK)?-----`), severity: finding.SeverityCritical,
		title: "Private key in repository"},
	{re: re(`\bgh[pousr]_[0-9A-Za-z]{36}\b|\bgithub_pat_[0-9A-Za-z_]{22,}`), severity: finding.SeverityCritical,
		title: "GitHub token"},
	{re: re(`\b[sr]k_live_[0-9A-Za-z]{24,}`), severity: finding.SeverityCritical, title: "Stripe live key"},
	{re: re(`\bsk_test_[0-9A-Za-z]{24,}`), severity: finding.SeverityMedium, title: "Stripe test key"},
	{re: re(`\bxox[baprs]-[0-9A-Za-z-]{10,}`), severity: finding.SeverityHigh, title: "Slack token"},
	{re: re(`\bAIza[0-9A-Za-z_-]{35}\b`), severity: finding.SeverityHigh, title: "Google API key"},
	{re: re(`(?i)\b(?:mongodb(?:\+srv)?|postgres(?:ql)?|mysql|redis|amqp)://[^:"'\s/]+:[^@"'\s]+@`),
		severity: finding.SeverityCritical, title: "Connection string with credentials"},
	{re: re(`(?i)["']?(?:jwt|token|encryption|signing)[_-]?(?:secret|key)["']?\s*(?::=|=>|[:=])\s*["'][^"']{6,}["']`),
		severity: finding.SeverityCritical, title: "Hardcoded signing or encryption secret"},
	{re: re(`(?i)["']?(?:db|database|mysql|postgres|mongo)[_-]?pass(?:word)?["']?\s*(?::=|=>|[:=])\s*["'][^"']{4,}["']`),
		severity: finding.SeverityCritical, title: "Hardcoded database password"},
	{re: re(`(?i)["']?api[_-]?key["']?\s*(?::=|=>|[:=])\s*["'][^"']{16,}["']`), severity: finding.SeverityHigh, title: "Hardcoded API key"},
	{re: re(`(?i)["']?(?:access|auth|oauth|refresh)[_-]?token["']?\s*(?::=|=>|[:=])\s*["'][^"']{8,}["']`),
		severity: finding.SeverityHigh, title: "Hardcoded access token"},
	{re: re(`(?i)["']?(?:password|passwd|pwd)["']?\s*(?::=|=>|[:=])\s*["'][^"']{4,}["']`), severity: finding.SeverityHigh,
		title: "Hardcoded password"},
	{re: re(`(?i)["']?(?:secret|client)[_-]?(?:key|secret)["']?\s*(?::=|=>|[:=])\s*["'][^"']{8,}["']`), severity: finding.SeverityHigh,
		title: "Hardcoded secret key"},
	{re: re(`(?i)^\s*["']?[\w.-]*(?:password|passwd|secret|api_?key|token)["']?\s*(?::=|=>|[:=])\s*[^\s"'#$\x60{}<][^\s#]{5,}\s*$`),
		severity: finding.SeverityHigh, title: "Credential in configuration file", langs: configFiles},
	{re: re(`(?i)(?:console\.log|\blogger?\.\w+|\blog\.\w+|\bprint(?:ln|f)?)\s*\(.*\b(?:password|secret|api_?key|credential)`),
		severity: finding.SeverityHigh, title: "Secret potentially logged",
		description: "A value named like a credential is passed to a log or print call.",
		remediation: "Remove the value from log output or redact it before logging.",
		cwe:         "CWE-532", owasp: "A09:2021", tags: []string{"logging"}},
}

var resilienceRules = []rule{
	{re: re(`\bcatch\s*(?:\([^)]*\))?\s*\{\s*\}`), severity: finding.SeverityMedium, title: "Empty catch block",
		description: "The error is swallowed without handling or logging.",
		remediation: "Handle, log or rethrow the error.", cwe: "CWE-390", tags: []string{"error-handling"}, langs: braceCatch},
	{re: re(`^\s*except\s*:`), severity: finding.SeverityMedium, title: "Bare except clause",
		description: "A bare except also catches KeyboardInterrupt and SystemExit.",
		remediation: "Catch specific exception types.", cwe: "CWE-396", tags: []string{"error-handling"}, langs: python},
	{re: re(`^\s*except\b[^:]*:\s*pass\b`), severity: finding.SeverityMedium, title: "Exception silently ignored",
		remediation: "Handle or log the exception.", cwe: "CWE-390", tags: []string{"error-handling"}, langs: python},
	{re: re(`\brequests\.(?:get|post|put|delete|patch|head|request)\s*\(`), unless: re(`\btimeout\s*=`),
		severity: finding.SeverityHigh, title: "HTTP request without timeout (requests)",
		remediation: fixTimeout, tags: []string{"timeout"}, langs: python},
	{re: re(`\burlopen\s*\(`), unless: re(`\btimeout\s*=`), severity: finding.SeverityMedium,
		title: "HTTP request without timeout (urllib)", remediation: fixTimeout, tags: []string{"timeout"}, langs: python},
	{re: re(`\baxios\.(?:get|post|put|delete|patch|request)\s*\(`), unless: re(`\btimeout\b`),
		severity: finding.SeverityHigh, title: "HTTP request without timeout (axios)",
		remediation: fixTimeout, tags: []string{"timeout"}, langs: jsLike},
	{re: re(`\bhttp\.(?:Get|Post|PostForm|Head)\s*\(|\bhttp\.DefaultClient\b|&?http\.Client\s*\{\s*\}`),
		severity: finding.SeverityMedium, title: "HTTP client without timeout",
		description: "The default net/http client never times out.",
		remediation: "Use an http.Client with Timeout set, or a request context with a deadline.",
		tags:        []string{"timeout"}, langs: golang},
	{re: re(`\bpanic\s*\(`), severity: finding.SeverityMedium, title: "panic in library code",
		description: "Library code should return errors; a panic takes down the caller's process.",
		remediation: "Return an error instead.", tags: []string{"error-handling"}, langs: golang, skipFile: inGoMain},
	{re: re(`\bwhile\s*\(\s*true\s*\)|\bwhile\s+True\s*:`), severity: finding.SeverityLow, title: "Unbounded loop",
		remediation: "Bound the loop or make its exit condition explicit.", tags: []string{"unbounded"}},
	{re: re(`\.findAll\s*\(\s*\)`), severity: finding.SeverityMedium, title: "Query without limit",
		remediation: "Paginate or limit the query.", tags: []string{"unbounded"},
		langs: []source.Language{source.LangJavaScript, source.LangTypeScript, source.LangJava}},
	{re: re(`\breadFileSync\s*\(`), severity: finding.SeverityLow, title: "Synchronous file read",
		description: "Synchronous I/O blocks the event loop.",
		remediation: "Use the promise-based fs API.", tags: []string{"resource"}, langs: jsLike},
}

var pythonMain = re(`__name__\s*==\s*["']__main__["']`)
var rustMain = re(`\bfn\s+main\s*\(`)

var observabilityRules = []rule{
	{re: re(`\bconsole\.(?:log|debug|trace)\s*\(`), severity: finding.SeverityLow, title: "console logging left in code",
		remediation: fixLogging, tags: []string{"logging"}, langs: jsLike},
	{re: re(`^\s*print\s*\(`), severity: finding.SeverityLow, title: "print used for diagnostics",
		remediation: fixLogging, tags: []string{"logging"}, langs: python,
		skipFile: func(_ string, content []byte) bool { return pythonMain.Match(content) }},
	{re: re(`\bfmt\.Print(?:ln|f)?\s*\(`), severity: finding.SeverityLow, title: "fmt.Print used for diagnostics",
		remediation: fixLogging, tags: []string{"logging"}, langs: golang, skipFile: inGoMain},
	{re: re(`\bSystem\.(?:out|err)\.print(?:ln|f)?\s*\(|\.printStackTrace\s*\(\s*\)`), severity: finding.SeverityLow,
		title: "Console output used for diagnostics", remediation: fixLogging, tags: []string{"logging"}, langs: jvm},
	{re: re(`\bConsole\.Write(?:Line)?\s*\(`), severity: finding.SeverityLow, title: "Console output used for diagnostics",
		remediation: fixLogging, tags: []string{"logging"}, langs: []source.Language{source.LangCSharp}},
	{re: re(`\b(?:println|eprintln|dbg)!\s*\(`), severity: finding.SeverityLow, title: "Console output used for diagnostics",
		remediation: fixLogging, tags: []string{"logging"}, langs: []source.Language{source.LangRust},
		skipFile: func(_ string, content []byte) bool { return rustMain.Match(content) }},
	{re: re(`\b(?:var_dump|print_r)\s*\(`), severity: finding.SeverityLow, title: "Debug dump left in code",
		remediation: fixLogging, tags: []string{"logging"}, langs: php},
}

// commentLead matches the start of a comment anywhere on a line.
const commentLead = `(?:^|\s|;)(?://|#|/\*|\*|--|<!--)`

var techDebtRules = []rule{
	{re: re(commentLead + `.*\bFIXME\b`), severity: finding.SeverityMedium, title: "FIXME marker",
		remediation: "Fix the noted defect or file it in the issue tracker.", tags: []string{"marker"}},
	{re: re(commentLead + `.*\bHACK\b`), severity: finding.SeverityMedium, title: "HACK marker",
		remediation: "Replace the workaround with a proper fix.", tags: []string{"marker"}},
	{re: re(commentLead + `.*\bTODO\b`), severity: finding.SeverityLow, title: "TODO marker",
		remediation: "Complete the work or move it to the issue tracker.", tags: []string{"marker"}},
	{re: re(commentLead + `.*\bXXX\b`), severity: finding.SeverityLow, title: "XXX marker",
		remediation: "Resolve the flagged code.", tags: []string{"marker"}},
	{re: re(`//\s*nolint\b|#\s*noqa\b|eslint-disable|@ts-ignore|#\s*type:\s*ignore|@SuppressWarnings\b|#\[allow\(`),
		severity: finding.SeverityLow, title: "Suppressed lint warning",
		remediation: "Fix the underlying warning and drop the suppression.", tags: []string{"suppression"}},
	{re: re(`@[Dd]eprecated\b|#\[deprecated|\[Obsolete\b`), severity: finding.SeverityInfo, title: "Deprecated code still present",
		remediation: "Migrate callers and remove the deprecated code.", tags: []string{"deprecated"}},
}

func init() {
	for i := range secretRules {
		r := &secretRules[i]
		if r.remediation == "" {
			r.remediation = fixSecret
			r.cwe = "CWE-798"
			r.owasp = "A07:2021"
			r.tags = []string{"credentials"}
		}
		if r.description == "" {
			r.description = "Potential hardcoded secret: " + r.title + "."
		}
	}
}
