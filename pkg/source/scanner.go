package source

import (
	"bytes"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// The boundary scanner handles languages without a bundled grammar. It blanks
// comments and string contents, tokenizes what is left, finds definitions
// with per-language header patterns and uses brace matching for bodies.
// Results are marked FidelityApproximate.

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokPunct
)

type scanToken struct {
	text   string
	kind   tokenKind
	offset int
	line   int
}

var multiPunct = []string{"&&", "||", "??", "?.", "?:", "=>", "->", "::"}

// paramPattern matches a parameter list allowing one level of nested parens.
const paramPattern = `(?P<params>[^()]*(?:\([^()]*\)[^()]*)*)`

type paramStyle int

const (
	typeFirst paramStyle = iota // "Type name"
	nameFirst                   // "name: Type"
	dollarName                  // "Type $name"
)

type dialect struct {
	lang     Language
	function *regexp.Regexp
	class    *regexp.Regexp
	impl     *regexp.Regexp
	imports  []*regexp.Regexp
	params   paramStyle

	hashComments     bool // '#' starts a comment anywhere
	hashDirectives   bool // '#' at line start starts a directive line
	singleQuoteStr   bool
	rustAttributes   bool
	newlineEnds      bool
	ternary          bool
	nullish          bool
	blocks           map[string]bool
	armToken         string
	constructor      func(class, fn string) bool
	primaryCtor      bool
	fieldKeywords    map[string]bool // val/var/let declare fields
	headerIsFunction bool            // function pattern has no leading keyword
}

var cFamilyFunction = regexp.MustCompile(`(?:\b(?P<recv>\w+)::)?(?P<name>~?\b\w+)\s*\(` + paramPattern +
	`\)\s*(?:const\b\s*)?(?:noexcept\b\s*)?(?:override\b\s*)?(?:throws\s+[\w.,\s]+?)?(?:\s*:\s*[^{;]*?)?\s*\{`)

var dialects = map[Language]*dialect{
	LangJava: {
		lang:             LangJava,
		function:         cFamilyFunction,
		class:            regexp.MustCompile(`\b(?:class|interface|enum|record)\s+(?P<name>\w+)(?P<rest>[^{;]*)\{`),
		imports:          []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*import\s+(?:static\s+)?(?P<module>[\w.]+?)(?:\.\*)?\s*;`)},
		params:           typeFirst,
		ternary:          true,
		blocks:           set("switch"),
		constructor:      sameName,
		headerIsFunction: true,
	},
	LangCSharp: {
		lang:     LangCSharp,
		function: cFamilyFunction,
		class:    regexp.MustCompile(`\b(?:class|interface|struct|enum|record)\s+(?P<name>\w+)(?P<rest>[^{;]*)\{`),
		imports: []*regexp.Regexp{regexp.MustCompile(
			`(?m)^\s*(?:global\s+)?using\s+(?:static\s+)?(?:(?P<alias>\w+)\s*=\s*)?(?P<module>[\w.]+)\s*;`)},
		params:           typeFirst,
		hashDirectives:   true,
		ternary:          true,
		nullish:          true,
		blocks:           set("switch"),
		constructor:      sameName,
		primaryCtor:      true,
		headerIsFunction: true,
	},
	LangC: {
		lang:             LangC,
		function:         cFamilyFunction,
		class:            regexp.MustCompile(`\b(?:struct|union)\s+(?P<name>\w+)(?P<rest>[^{;()]*)\{`),
		imports:          []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*#\s*include\s*(?P<quote>["<])(?P<module>[^">]+)[">]`)},
		params:           typeFirst,
		hashDirectives:   true,
		ternary:          true,
		blocks:           set("switch"),
		headerIsFunction: true,
	},
	LangCPP: {
		lang:             LangCPP,
		function:         cFamilyFunction,
		class:            regexp.MustCompile(`\b(?:class|struct|union)\s+(?P<name>\w+)(?P<rest>[^{;()]*)\{`),
		imports:          []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*#\s*include\s*(?P<quote>["<])(?P<module>[^">]+)[">]`)},
		params:           typeFirst,
		hashDirectives:   true,
		ternary:          true,
		blocks:           set("switch"),
		constructor:      sameName,
		headerIsFunction: true,
	},
	LangRust: {
		lang: LangRust,
		function: regexp.MustCompile(`\b(?:async\s+)?fn\s+(?P<name>\w+)\s*(?:<[^{(]*>)?\s*\(` + paramPattern +
			`\)\s*(?:->\s*(?P<ret>[^{;]+?))?\s*(?:where\s[^{;]*)?\{`),
		class: regexp.MustCompile(`\b(?:struct|enum|trait|union)\s+(?P<name>\w+)(?P<rest>[^{;]*)\{`),
		impl: regexp.MustCompile(`\bimpl\b\s*(?:<[^>{]*>)?\s*(?:(?P<trait>[\w:]+)(?:<[^>{]*>)?\s+for\s+)?` +
			`(?P<name>\w+)(?:<[^>{]*>)?[^{;]*\{`),
		imports: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?use\s+(?P<module>[\w:]+?)(?:::\{(?P<names>[^}]*)\}|::\*)?(?:\s+as\s+(?P<alias>\w+))?\s*;`),
			regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?mod\s+(?P<relative>\w+)\s*;`),
		},
		params:         nameFirst,
		rustAttributes: true,
		blocks:         set("match"),
		armToken:       "=>",
		constructor:    func(_, fn string) bool { return fn == "new" },
	},
	LangKotlin: {
		lang: LangKotlin,
		function: regexp.MustCompile(`\b(?:suspend\s+)?fun\s+(?:<[^>]*>\s*)?(?:[\w.]+\.)?(?P<name>\w+)\s*\(` + paramPattern +
			`\)\s*(?::\s*(?P<ret>[^{=]+?))?\s*\{`),
		class:         regexp.MustCompile(`\b(?:class|interface|object)\s+(?P<name>\w+)(?P<rest>[^{]*)\{`),
		imports:       []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*import\s+(?P<module>[\w.]+?)(?:\.\*)?(?:\s+as\s+(?P<alias>\w+))?\s*$`)},
		params:        nameFirst,
		newlineEnds:   true,
		nullish:       true,
		blocks:        set("when"),
		armToken:      "->",
		primaryCtor:   true,
		fieldKeywords: set("val", "var"),
	},
	LangSwift: {
		lang: LangSwift,
		function: regexp.MustCompile(`(?:\bfunc\s+(?P<name>\w+)\s*(?:<[^>]*>)?|\b(?P<init>init)[?!]?)\s*\(` + paramPattern +
			`\)\s*(?:async\s*)?(?:re)?(?:throws\s*)?(?:->\s*(?P<ret>[^{]+?))?\s*\{`),
		class:          regexp.MustCompile(`\b(?:class|struct|protocol|enum|extension|actor)\s+(?P<name>\w+)(?P<rest>[^{]*)\{`),
		imports:        []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*(?:@testable\s+)?import\s+(?:class\s+|struct\s+|func\s+)?(?P<module>[\w.]+)`)},
		params:         nameFirst,
		hashDirectives: true,
		newlineEnds:    true,
		ternary:        true,
		nullish:        true,
		blocks:         set("switch"),
		constructor:    func(_, fn string) bool { return fn == "init" },
		fieldKeywords:  set("let", "var"),
	},
	LangPHP: {
		lang: LangPHP,
		function: regexp.MustCompile(`\bfunction\s+&?(?P<name>\w+)\s*\(` + paramPattern +
			`\)\s*(?::\s*(?P<ret>[^{;]+?))?\s*\{`),
		class: regexp.MustCompile(`\b(?:class|interface|trait|enum)\s+(?P<name>\w+)(?P<rest>[^{;]*)\{`),
		imports: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*use\s+(?P<module>[\w\\]+)(?:\s+as\s+(?P<alias>\w+))?\s*;`),
			regexp.MustCompile(`\b(?:require|include)(?:_once)?\s*\(?\s*['"](?P<relative>[^'"]+)['"]`),
		},
		params:         dollarName,
		hashComments:   true,
		singleQuoteStr: true,
		ternary:        true,
		nullish:        true,
		blocks:         set("switch", "match"),
		armToken:       "=>",
		constructor:    func(_, fn string) bool { return fn == "__construct" },
	},
}

func sameName(class, fn string) bool { return class != "" && class == fn }

// notFunctionNames are keywords the C-family header pattern also matches.
var notFunctionNames = set("if", "for", "foreach", "while", "switch", "catch", "using", "lock", "fixed",
	"synchronized", "return", "sizeof", "else", "do", "try", "new", "throw", "when", "case", "defined",
	"typeof", "nameof", "default", "checked", "unchecked", "alignof", "decltype", "static_assert")

var declarationWords = set("class", "struct", "record", "interface", "enum", "new", "return", "union", "throw")

var modifiers = set("public", "private", "protected", "internal", "static", "final", "abstract", "virtual",
	"override", "sealed", "async", "extern", "inline", "synchronized", "native", "unsafe", "partial",
	"readonly", "default", "open", "explicit", "constexpr", "friend", "volatile", "transient", "strictfp", "new")

// scanKeywords keep their text in structure hashes; other identifiers hash as "id".
var scanKeywords = set("if", "else", "elif", "elseif", "for", "foreach", "while", "do", "loop", "repeat",
	"switch", "match", "when", "case", "default", "break", "continue", "return", "try", "catch", "finally",
	"throw", "throws", "new", "fn", "fun", "func", "function", "let", "var", "val", "const", "guard",
	"using", "yield", "await", "async", "in", "is", "as")

type approximateFrontEnd struct {
	d *dialect
}

type scannedClass struct {
	rec        *ClassRecord
	start, end int // token indices of the body braces
}

type scanState struct {
	d       *dialect
	sf      *StructuralFile
	src     []byte
	clean   []byte
	toks    []scanToken
	classes map[string]*ClassRecord
	order   []string
	scopes  []scannedClass

	functionRanges []scannedFunction
}

func (f approximateFrontEnd) parse(sf *StructuralFile, src []byte) {
	sf.Fidelity = FidelityApproximate
	s := &scanState{
		d:       f.d,
		sf:      sf,
		src:     src,
		classes: make(map[string]*ClassRecord),
	}
	s.clean = f.d.clean(src)
	s.toks = tokenize(s.clean)

	s.scanImports()
	s.scanClasses()
	s.scanFunctions()
	s.scanFields()

	for _, name := range s.order {
		sf.Classes = append(sf.Classes, *s.classes[name])
	}
}

// clean returns a copy of src of the same length with comments blanked and
// string or character literals reduced to `"   "`.
func (d *dialect) clean(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	blank := func(from, to int) {
		for k := from; k < to && k < len(out); k++ {
			if out[k] != '\n' {
				out[k] = ' '
			}
		}
	}

	lineStart := true
	for i := 0; i < len(src); {
		c := src[i]
		next := byte(0)
		if i+1 < len(src) {
			next = src[i+1]
		}
		switch {
		case c == '\n':
			lineStart = true
			i++
			continue
		case c == '/' && next == '/', c == '#' && d.hashComments && next != '[':
			j := endOfLine(src, i, false)
			blank(i, j)
			i = j
			continue
		case c == '#' && d.hashDirectives && lineStart:
			j := endOfLine(src, i, true)
			blank(i, j)
			i = j
			continue
		case c == '#' && d.rustAttributes && (next == '[' || next == '!'):
			j := matchingBracket(src, i)
			blank(i, j)
			i = j
			continue
		case c == '/' && next == '*':
			end := len(src)
			if j := bytes.Index(src[i+2:], []byte("*/")); j >= 0 {
				end = i + 2 + j + 2
			}
			blank(i, end)
			i = end
			continue
		case c == '"' || (c == '\'' && d.singleQuoteStr):
			j := closeQuote(src, i)
			out[i] = '"'
			blank(i+1, j)
			if j < len(src) {
				out[j] = '"'
				j++
			}
			i = j
			lineStart = false
			continue
		case c == '\'':
			if j, ok := charLiteral(src, i); ok {
				out[i] = '"'
				blank(i+1, j-1)
				out[j-1] = '"'
				i = j
				lineStart = false
				continue
			}
		}
		if c != ' ' && c != '\t' && c != '\r' {
			lineStart = false
		}
		i++
	}
	return out
}

func endOfLine(src []byte, i int, continuation bool) int {
	for j := i; j < len(src); j++ {
		if src[j] != '\n' {
			continue
		}
		if continuation && j > 0 && src[j-1] == '\\' {
			continue
		}
		return j
	}
	return len(src)
}

func matchingBracket(src []byte, i int) int {
	depth := 0
	for j := i; j < len(src); j++ {
		switch src[j] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return len(src)
}

// closeQuote returns the index of the quote closing the literal opened at i.
func closeQuote(src []byte, i int) int {
	q := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q:
			return j
		}
	}
	return len(src)
}

// charLiteral recognises 'a', '\n' and multi-byte rune literals so Rust
// lifetimes and Swift/Kotlin apostrophes are left alone.
func charLiteral(src []byte, i int) (int, bool) {
	limit := 0
	switch {
	case i+2 < len(src) && src[i+1] != '\\' && src[i+1] < 0x80 && src[i+2] == '\'':
		return i + 3, true
	case i+1 < len(src) && src[i+1] == '\\':
		limit = 10
	case i+1 < len(src) && src[i+1] >= 0x80:
		limit = 5
	default:
		return 0, false
	}
	for j := i + 2; j < len(src) && j <= i+limit; j++ {
		if src[j] == '\n' {
			return 0, false
		}
		if src[j] == '\'' {
			return j + 1, true
		}
	}
	return 0, false
}

func tokenize(clean []byte) []scanToken {
	var toks []scanToken
	line := 1
	for i := 0; i < len(clean); {
		c := clean[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			i++
		case isIdentStart(c):
			j := i + 1
			for j < len(clean) && isIdentPart(clean[j]) {
				j++
			}
			toks = append(toks, scanToken{text: string(clean[i:j]), kind: tokIdent, offset: i, line: line})
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(clean) && (isIdentPart(clean[j]) || clean[j] == '.') {
				j++
			}
			toks = append(toks, scanToken{text: string(clean[i:j]), kind: tokNumber, offset: i, line: line})
			i = j
		case c == '"':
			start, startLine := i, line
			j := i + 1
			for j < len(clean) && clean[j] != '"' {
				if clean[j] == '\n' {
					line++
				}
				j++
			}
			toks = append(toks, scanToken{text: `""`, kind: tokString, offset: start, line: startLine})
			i = j + 1
		default:
			text := string(c)
			for _, p := range multiPunct {
				if bytes.HasPrefix(clean[i:], []byte(p)) {
					text = p
					break
				}
			}
			toks = append(toks, scanToken{text: text, kind: tokPunct, offset: i, line: line})
			i += len(text)
		}
	}
	return toks
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// tokenAt returns the index of the first token at or after offset.
func (s *scanState) tokenAt(offset int) int {
	return sort.Search(len(s.toks), func(i int) bool { return s.toks[i].offset >= offset })
}

// closing returns the index of the brace matching the one at open.
func (s *scanState) closing(open int) int {
	depth := 0
	for i := open; i < len(s.toks); i++ {
		if s.toks[i].kind != tokPunct {
			continue
		}
		switch s.toks[i].text {
		case "{":
			depth++
		case "}":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(s.toks) - 1
}

func group(re *regexp.Regexp, src []byte, m []int, name string) string {
	idx := re.SubexpIndex(name)
	if idx < 0 || m[2*idx] < 0 {
		return ""
	}
	return string(src[m[2*idx]:m[2*idx+1]])
}

func (s *scanState) scanImports() {
	for _, re := range s.d.imports {
		for _, m := range re.FindAllSubmatchIndex(s.src, -1) {
			rec := ImportRecord{
				Module: group(re, s.src, m, "module"),
				Alias:  group(re, s.src, m, "alias"),
			}
			if rel := group(re, s.src, m, "relative"); rel != "" {
				rec.Module = rel
				rec.Relative = true
			}
			if group(re, s.src, m, "quote") == `"` {
				rec.Relative = true
			}
			if names := group(re, s.src, m, "names"); names != "" {
				for _, n := range strings.Split(names, ",") {
					if n = strings.TrimSpace(n); n != "" {
						rec.Names = append(rec.Names, n)
					}
				}
			}
			switch s.d.lang {
			case LangC, LangCPP:
				rec.Module = strings.TrimSuffix(rec.Module, filepath.Ext(rec.Module))
			case LangPHP:
				rec.Module = strings.ReplaceAll(rec.Module, `\`, "/")
				if rec.Relative {
					rec.Module = strings.TrimSuffix(rec.Module, ".php")
				}
			}
			if rec.Module != "" {
				s.sf.Imports = append(s.sf.Imports, rec)
			}
		}
	}
}

// class returns the record for name, creating it on first use so Rust impl
// blocks and Swift extensions merge into their type.
func (s *scanState) class(name string, line int) *ClassRecord {
	if rec, ok := s.classes[name]; ok {
		return rec
	}
	rec := &ClassRecord{
		Name:      name,
		File:      s.sf.Path,
		StartLine: line,
		EndLine:   line,
		Methods:   []string{},
		Fields:    []string{},
	}
	s.classes[name] = rec
	s.order = append(s.order, name)
	return rec
}

var bodilessKeywords = regexp.MustCompile(`\b(?:class|interface|object|fun|struct|enum|protocol|extension|typealias|func)\b`)

func (s *scanState) scanClasses() {
	re := s.d.class
	nameIdx := re.SubexpIndex("name")
	for pos := 0; pos < len(s.clean); {
		m := re.FindSubmatchIndex(s.clean[pos:])
		if m == nil {
			break
		}
		for k := range m {
			if m[k] >= 0 {
				m[k] += pos
			}
		}
		name := group(re, s.clean, m, "name")
		rest := group(re, s.clean, m, "rest")
		if bodilessKeywords.MatchString(rest) {
			// a declaration without a body; resume after its name
			pos = m[2*nameIdx+1]
			continue
		}
		pos = m[1]
		open := s.tokenAt(m[1] - 1)
		closeIdx := s.closing(open)
		rec := s.class(name, s.toks[s.tokenAt(m[0])].line)
		rec.EndLine = s.toks[closeIdx].line
		rec.Bases = appendUnique(rec.Bases, s.bases(rest)...)
		if s.d.primaryCtor {
			s.primaryConstructor(rec, rest)
		}
		s.scopes = append(s.scopes, scannedClass{rec: rec, start: open, end: closeIdx})
	}

	if s.d.impl == nil {
		return
	}
	re = s.d.impl
	for _, m := range re.FindAllSubmatchIndex(s.clean, -1) {
		open := s.tokenAt(m[1] - 1)
		closeIdx := s.closing(open)
		rec := s.class(group(re, s.clean, m, "name"), s.toks[open].line)
		if trait := group(re, s.clean, m, "trait"); trait != "" {
			rec.Bases = appendUnique(rec.Bases, trait)
		}
		if end := s.toks[closeIdx].line; end > rec.EndLine {
			rec.EndLine = end
		}
		s.scopes = append(s.scopes, scannedClass{rec: rec, start: open, end: closeIdx})
	}
}

var (
	genericArgs  = regexp.MustCompile(`<[^<>]*>`)
	parenArgs    = regexp.MustCompile(`\([^()]*\)`)
	baseKeywords = regexp.MustCompile(`\b(?:extends|implements|public|private|protected|virtual|final|open|sealed|abstract|where)\b`)
	identifier   = regexp.MustCompile(`^[A-Za-z_][\w.:\\]*$`)
)

// bases extracts supertypes from the text between a class name and its body.
func (s *scanState) bases(rest string) []string {
	for genericArgs.MatchString(rest) {
		rest = genericArgs.ReplaceAllString(rest, "")
	}
	for parenArgs.MatchString(rest) {
		rest = parenArgs.ReplaceAllString(rest, "")
	}
	rest = baseKeywords.ReplaceAllString(rest, ",")
	rest = strings.ReplaceAll(rest, ":", ",")
	var out []string
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if identifier.MatchString(part) {
			out = append(out, part)
		}
	}
	return out
}

// primaryConstructor handles Kotlin and C# parameter lists on the class header.
func (s *scanState) primaryConstructor(rec *ClassRecord, rest string) {
	rest = strings.TrimSpace(genericArgs.ReplaceAllString(rest, ""))
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "constructor"))
	if !strings.HasPrefix(rest, "(") {
		return
	}
	depth := 0
	end := -1
	for i, r := range rest {
		if r == '(' {
			depth++
		} else if r == ')' {
			depth--
			if depth == 0 {
				end = i
				break
			}
		}
	}
	if end < 0 {
		return
	}
	style := s.d.params
	if s.d.lang == LangCSharp {
		style = typeFirst
	}
	for _, p := range splitParams(rest[1:end]) {
		name, typ := paramNameType(style, p)
		if name == "" {
			continue
		}
		if s.d.lang == LangCSharp || strings.Contains(" "+p, " val ") || strings.Contains(" "+p, " var ") {
			rec.Fields = appendUnique(rec.Fields, name)
		}
		if dep := dependencyName(s.d.lang, typ); dep != "" {
			rec.Dependencies = appendUnique(rec.Dependencies, dep)
		}
	}
}

type scannedFunction struct {
	start, end int // token range of header and body
}

func (s *scanState) scanFunctions() {
	re := s.d.function
	claimed := -1
	var found []scannedFunction

	for _, m := range re.FindAllSubmatchIndex(s.clean, -1) {
		if m[0] < claimed {
			continue
		}
		name := group(re, s.clean, m, "name")
		if name == "" {
			name = group(re, s.clean, m, "init")
		}
		if name == "" || (s.d.headerIsFunction && notFunctionNames[name]) {
			continue
		}

		prefix := ""
		if s.d.headerIsFunction {
			prefix = linePrefix(s.clean, m[0])
			words := strings.Fields(prefix)
			if strings.ContainsAny(prefix, "=(") || (len(words) > 0 && declarationWords[words[len(words)-1]]) {
				continue
			}
		}

		start := s.tokenAt(m[0])
		open := s.tokenAt(m[1] - 1)
		closeIdx := s.closing(open)
		claimed = s.toks[closeIdx].offset

		rec := FunctionRecord{
			Name:      name,
			File:      s.sf.Path,
			Class:     group(re, s.clean, m, "recv"),
			StartLine: s.toks[start].line,
			EndLine:   s.toks[closeIdx].line,
		}
		if rec.Class == "" {
			if scope := s.scopeOf(start); scope != nil {
				rec.Class = scope.rec.Name
			}
		}

		header := string(s.clean[m[0]:m[1]])
		if s.d.headerIsFunction {
			rec.ReturnType = returnType(prefix)
			header = prefix + " " + header
		} else {
			rec.ReturnType = strings.TrimSpace(group(re, s.clean, m, "ret"))
		}
		rec.Async = asyncWord.MatchString(header)

		var types []string
		for _, p := range splitParams(group(re, s.clean, m, "params")) {
			pname, typ := paramNameType(s.d.params, p)
			if pname == "" || pname == "self" || pname == "this" {
				continue
			}
			rec.Params = append(rec.Params, pname)
			types = append(types, typ)
		}
		if rec.Params == nil {
			rec.Params = []string{}
		}

		body := s.toks[open+1 : closeIdx]
		rec.Complexity, rec.Nesting = s.d.score(body)
		rec.Calls = scanCalls(body)
		rec.StructureHash = hashTokens(s.toks[start : closeIdx+1])

		if rec.Class != "" {
			cls := s.class(rec.Class, rec.StartLine)
			cls.Methods = appendUnique(cls.Methods, rec.Name)
			if s.d.constructor != nil && s.d.constructor(rec.Class, rec.Name) {
				for _, typ := range types {
					if dep := dependencyName(s.d.lang, typ); dep != "" {
						cls.Dependencies = appendUnique(cls.Dependencies, dep)
					}
				}
			}
		}

		s.sf.Functions = append(s.sf.Functions, rec)
		found = append(found, scannedFunction{start: start, end: closeIdx})
	}

	s.functionRanges = found
}

// scopeOf returns the innermost class scope containing token index i.
func (s *scanState) scopeOf(i int) *scannedClass {
	var best *scannedClass
	for k := range s.scopes {
		sc := &s.scopes[k]
		if i > sc.start && i < sc.end && (best == nil || sc.start > best.start) {
			best = sc
		}
	}
	return best
}

// linePrefix returns the text on the same line before offset, after the
// last statement or block boundary.
func linePrefix(clean []byte, offset int) string {
	start := offset
	for start > 0 {
		c := clean[start-1]
		if c == '\n' || c == ';' || c == '{' || c == '}' {
			break
		}
		start--
	}
	return strings.TrimSpace(string(clean[start:offset]))
}

var asyncWord = regexp.MustCompile(`\b(?:async|suspend)\b`)

var annotation = regexp.MustCompile(`@\w+(?:\([^)]*\))?|\[[^\]]*\]`)

func returnType(prefix string) string {
	prefix = annotation.ReplaceAllString(prefix, " ")
	var kept []string
	for _, w := range strings.Fields(prefix) {
		if !modifiers[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// splitParams splits a parameter list on top-level commas.
func splitParams(s string) []string {
	var out []string
	depth := 0
	last := 0
	for i, r := range s {
		switch r {
		case '(', '<', '[', '{':
			depth++
		case ')', '>', ']', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, s[last:i])
				last = i + 1
			}
		}
	}
	out = append(out, s[last:])

	params := out[:0]
	for _, p := range out {
		if p = strings.TrimSpace(p); p != "" && p != "void" {
			params = append(params, p)
		}
	}
	return params
}

var paramWord = regexp.MustCompile(`[A-Za-z_]\w*`)

// paramNameType splits one parameter into its name and declared type.
func paramNameType(style paramStyle, p string) (string, string) {
	if i := strings.Index(p, "="); i >= 0 {
		p = strings.TrimSpace(p[:i])
	}
	p = strings.TrimSpace(annotation.ReplaceAllString(p, " "))

	switch style {
	case nameFirst:
		i := strings.Index(p, ":")
		if i < 0 {
			words := paramWord.FindAllString(p, -1)
			if len(words) == 0 {
				return "", ""
			}
			return words[len(words)-1], ""
		}
		words := paramWord.FindAllString(p[:i], -1)
		if len(words) == 0 {
			return "", ""
		}
		return words[len(words)-1], strings.TrimSpace(p[i+1:])
	case dollarName:
		i := strings.Index(p, "$")
		if i < 0 {
			return "", ""
		}
		name := paramWord.FindString(p[i+1:])
		typ := strings.TrimSpace(strings.TrimLeft(p[:i], "?"))
		fields := strings.Fields(typ)
		if len(fields) > 0 {
			typ = fields[len(fields)-1]
		}
		return name, strings.TrimRight(typ, "&.")
	}

	p = strings.TrimRight(p, "[] ")
	loc := paramWord.FindAllStringIndex(p, -1)
	if len(loc) < 2 {
		return "", ""
	}
	last := loc[len(loc)-1]
	typ := strings.TrimSpace(p[:last[0]])
	for _, m := range []string{"final ", "const ", "in ", "out ", "ref ", "params ", "this "} {
		typ = strings.TrimPrefix(typ, m)
	}
	return p[last[0]:last[1]], typ
}

// score walks body tokens with a brace stack; a brace opened right after a
// control keyword is one nesting level.
func (d *dialect) score(toks []scanToken) (int, int) {
	sc := newScorer()
	type frame struct {
		owner string
		nests bool
	}
	var frames []frame
	pending := ""
	parens := 0
	lastClosed := ""

	for i, t := range toks {
		prev := ""
		if i > 0 {
			prev = toks[i-1].text
			if d.newlineEnds && t.line > toks[i-1].line && parens == 0 && t.text != "{" && t.text != "else" {
				pending = ""
			}
		}

		if t.kind == tokIdent {
			switch t.text {
			case "if":
				if prev == "else" {
					sc.count(ConstructElif, 0)
					pending = "elif"
				} else {
					sc.count(ConstructBranch, 0)
					pending = "if"
				}
			case "elseif", "elif":
				sc.count(ConstructElif, 0)
				pending = "elif"
			case "guard":
				sc.count(ConstructBranch, 0)
				pending = "if"
			case "else":
				if prev == "}" || pending == "" {
					pending = "else"
				}
			case "for", "foreach", "loop", "repeat", "do":
				if t.text == "do" && d.lang == LangSwift {
					pending = "try"
					continue
				}
				sc.count(ConstructLoop, 0)
				pending = t.text
			case "while":
				if prev == "}" && (lastClosed == "do" || lastClosed == "repeat") {
					continue
				}
				sc.count(ConstructLoop, 0)
				pending = "while"
			case "case":
				sc.count(ConstructCase, 0)
			case "try":
				pending = "try"
				if i+1 < len(toks) && toks[i+1].text == "(" {
					sc.count(ConstructScope, 0)
				}
			case "catch", "except", "rescue":
				sc.count(ConstructHandler, 0)
				pending = "catch"
			case "finally":
				pending = "finally"
			case "using":
				if i+1 < len(toks) && toks[i+1].text == "(" {
					sc.count(ConstructScope, 0)
					pending = "using"
				}
			default:
				if d.blocks[t.text] {
					pending = "arms"
				}
			}
			continue
		}

		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "(":
			parens++
		case ")":
			if parens > 0 {
				parens--
			}
		case "{":
			f := frame{owner: pending, nests: pending != ""}
			pending = ""
			if f.nests {
				sc.nest()
			}
			frames = append(frames, f)
		case "}":
			if len(frames) == 0 {
				continue
			}
			f := frames[len(frames)-1]
			frames = frames[:len(frames)-1]
			if f.nests {
				sc.leave()
			}
			lastClosed = f.owner
		case ";":
			if parens == 0 {
				pending = ""
			}
		case "&&", "||":
			sc.count(ConstructBoolean, 2)
		case "??", "?:":
			if d.nullish {
				sc.count(ConstructBoolean, 2)
			}
		case "?":
			if d.ternary && d.ternaryAhead(t.line, toks[i+1:]) {
				sc.count(ConstructConditional, 0)
			}
		default:
			if d.armToken != "" && t.text == d.armToken && len(frames) > 0 &&
				frames[len(frames)-1].owner == "arms" && prev != "_" && prev != "else" && prev != "default" {
				sc.count(ConstructCase, 0)
			}
		}
	}
	return sc.complexity, sc.maxDepth
}

// ternaryAhead reports whether a ':' completes the '?' before the statement
// ends.
func (d *dialect) ternaryAhead(line int, toks []scanToken) bool {
	for i, t := range toks {
		if i > 64 || (d.newlineEnds && t.line != line) {
			return false
		}
		switch t.text {
		case ":":
			return true
		case ";", "{", "}":
			return false
		}
	}
	return false
}

func scanCalls(toks []scanToken) []string {
	seen := make(map[string]bool)
	for i := 0; i+1 < len(toks); i++ {
		t := toks[i]
		if t.kind != tokIdent || toks[i+1].text != "(" || scanKeywords[t.text] || notFunctionNames[t.text] {
			continue
		}
		name := t.text
		if i >= 2 && (toks[i-1].text == "." || toks[i-1].text == "::" || toks[i-1].text == "->") && toks[i-2].kind == tokIdent {
			name = toks[i-2].text + toks[i-1].text + name
		}
		seen[name] = true
	}
	return sortedKeys(seen)
}

// hashTokens hashes (brace depth, token kind) pairs; identifiers and
// literals contribute only their kind.
func hashTokens(toks []scanToken) string {
	h := newShapeHasher()
	depth := 0
	for _, t := range toks {
		kind := t.text
		switch t.kind {
		case tokIdent:
			if !scanKeywords[t.text] {
				kind = "id"
			}
		case tokNumber:
			kind = "lit"
		case tokString:
			kind = "str"
		}
		if t.kind == tokPunct && t.text == "}" && depth > 0 {
			depth--
		}
		h.add(depth, kind)
		if t.kind == tokPunct && t.text == "{" {
			depth++
		}
	}
	return h.sum()
}

// scanFields collects member declarations at the top level of each class
// body, skipping method bodies.
func (s *scanState) scanFields() {
	inFunction := func(i int) bool {
		for _, f := range s.functionRanges {
			if i >= f.start && i <= f.end {
				return true
			}
		}
		return false
	}

	for _, sc := range s.scopes {
		var stmt []scanToken
		depth := 0
		flush := func() {
			if name := s.fieldName(stmt); name != "" {
				sc.rec.Fields = appendUnique(sc.rec.Fields, name)
			}
			stmt = stmt[:0]
		}
		for i := sc.start + 1; i < sc.end; i++ {
			if inFunction(i) {
				if s.d.newlineEnds && len(stmt) > 0 && stmt[len(stmt)-1].line < s.toks[i].line {
					flush()
				}
				stmt = stmt[:0]
				continue
			}
			t := s.toks[i]
			if t.kind == tokPunct && t.text == "{" {
				if depth == 0 {
					flush()
				}
				depth++
				continue
			}
			if t.kind == tokPunct && t.text == "}" {
				depth--
				continue
			}
			if depth > 0 {
				continue
			}
			if t.kind == tokPunct && (t.text == ";" || (t.text == "," && s.d.lang == LangRust)) {
				flush()
				continue
			}
			if s.d.newlineEnds && len(stmt) > 0 && t.line > stmt[len(stmt)-1].line {
				flush()
			}
			stmt = append(stmt, t)
		}
		flush()
	}
}

func (s *scanState) fieldName(stmt []scanToken) string {
	if len(stmt) == 0 {
		return ""
	}
	switch {
	case s.d.fieldKeywords != nil:
		for i := 0; i+1 < len(stmt); i++ {
			if s.d.fieldKeywords[stmt[i].text] && stmt[i+1].kind == tokIdent {
				return stmt[i+1].text
			}
		}
		return ""
	case s.d.lang == LangPHP:
		for i := 0; i+1 < len(stmt); i++ {
			if stmt[i].text == "function" || stmt[i].text == "use" || stmt[i].text == "const" {
				return ""
			}
			if stmt[i].text == "$" && stmt[i+1].kind == tokIdent {
				return stmt[i+1].text
			}
		}
		return ""
	case s.d.lang == LangRust:
		if len(stmt) >= 2 && stmt[0].kind == tokIdent && stmt[1].text == ":" {
			return stmt[0].text
		}
		if len(stmt) >= 3 && stmt[0].text == "pub" && stmt[2].text == ":" {
			return stmt[1].text
		}
		return ""
	}

	switch stmt[0].text {
	case "return", "using", "typedef", "friend", "static_assert", "case", "template", "import", "package":
		return ""
	}
	last := ""
	for _, t := range stmt {
		if t.text == "(" {
			return ""
		}
		if t.text == "=" {
			break
		}
		if t.kind == tokIdent {
			last = t.text
		}
	}
	if modifiers[last] || last == "" || len(stmt) < 2 {
		return ""
	}
	return last
}
