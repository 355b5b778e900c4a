package source

import (
	"path/filepath"
	"strings"
)

// Language is the tag of a supported source language.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangJava       Language = "java"
	LangCSharp     Language = "csharp"
	LangRust       Language = "rust"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangKotlin     Language = "kotlin"
	LangSwift      Language = "swift"
	LangPHP        Language = "php"
	LangUnknown    Language = ""
)

var extensions = map[string]Language{
	".go":    LangGo,
	".py":    LangPython,
	".pyi":   LangPython,
	".js":    LangJavaScript,
	".jsx":   LangJavaScript,
	".mjs":   LangJavaScript,
	".cjs":   LangJavaScript,
	".ts":    LangTypeScript,
	".tsx":   LangTypeScript,
	".java":  LangJava,
	".cs":    LangCSharp,
	".rs":    LangRust,
	".c":     LangC,
	".h":     LangC,
	".cpp":   LangCPP,
	".cc":    LangCPP,
	".cxx":   LangCPP,
	".hpp":   LangCPP,
	".kt":    LangKotlin,
	".kts":   LangKotlin,
	".swift": LangSwift,
	".php":   LangPHP,
}

// LanguageFor returns the language tag for path based on its extension.
func LanguageFor(path string) Language {
	if strings.HasSuffix(path, ".d.ts") {
		return LangUnknown
	}
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Supported reports whether path has a recognised source extension.
func Supported(path string) bool {
	return LanguageFor(path) != LangUnknown
}

// HasGrammar reports whether the language is parsed with a full grammar
// rather than the boundary scanner.
func (l Language) HasGrammar() bool {
	switch l {
	case LangGo, LangPython, LangJavaScript, LangTypeScript:
		return true
	}
	return false
}

// builtinTypes lists primitive names that never count as class dependencies.
var builtinTypes = map[Language]map[string]bool{
	LangGo: set("bool", "string", "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr", "byte", "rune",
		"float32", "float64", "complex64", "complex128", "error", "any", "interface{}",
		"map", "chan", "func", "struct{}"),
	LangPython: set("int", "float", "str", "bool", "bytes", "list", "dict", "set",
		"tuple", "object", "None", "Any", "Optional", "List", "Dict", "Set", "Tuple", "complex"),
	LangJavaScript: set("string", "number", "boolean", "any", "unknown", "object",
		"void", "never", "bigint", "symbol", "undefined", "null", "String", "Number",
		"Boolean", "Object", "Array", "Function", "Promise", "Date", "Record", "Map", "Set"),
	LangJava: set("int", "long", "short", "byte", "char", "boolean", "float", "double",
		"String", "Integer", "Long", "Boolean", "Double", "Float", "Object", "List", "Map", "Set", "Optional"),
	LangCSharp: set("int", "long", "short", "byte", "char", "bool", "float", "double",
		"decimal", "string", "object", "String", "Int32", "Int64", "Boolean", "List", "Dictionary"),
	LangKotlin: set("Int", "Long", "Short", "Byte", "Char", "Boolean", "Float", "Double",
		"String", "Any", "Unit", "List", "Map", "Set"),
	LangSwift: set("Int", "Double", "Float", "Bool", "String", "Character", "Any", "Void"),
	LangRust: set("i8", "i16", "i32", "i64", "i128", "isize", "u8", "u16", "u32", "u64",
		"u128", "usize", "f32", "f64", "bool", "char", "str", "String", "Self"),
	LangC:   set("int", "long", "short", "char", "float", "double", "void", "bool", "size_t", "unsigned", "signed"),
	LangPHP: set("int", "float", "string", "bool", "array", "mixed", "callable", "iterable", "object", "void"),
}

func init() {
	builtinTypes[LangTypeScript] = builtinTypes[LangJavaScript]
	builtinTypes[LangCPP] = builtinTypes[LangC]
}

// IsBuiltinType reports whether name is a primitive of lang.
func IsBuiltinType(lang Language, name string) bool {
	return builtinTypes[lang][name]
}

// dependencyName trims pointer, slice, nullable and generic decoration from
// a type expression and returns the user-defined name, or "" when the type
// is a primitive of lang.
func dependencyName(lang Language, typ string) string {
	t := strings.TrimSpace(typ)
	t = strings.TrimLeft(t, "*&[]?.")
	t = strings.TrimSuffix(t, "?")
	if i := strings.IndexAny(t, "<[("); i > 0 {
		t = t[:i]
	}
	t = strings.TrimSpace(strings.TrimPrefix(t, "const "))
	t = strings.TrimRight(t, "*& ")
	if t == "" || IsBuiltinType(lang, t) {
		return ""
	}
	// qualified names keep their last segment for primitive checks only
	if i := strings.LastIndexAny(t, ".:\\"); i >= 0 && IsBuiltinType(lang, t[i+1:]) {
		return ""
	}
	first := t[0]
	if !(first == '_' || (first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z')) {
		return ""
	}
	return t
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
