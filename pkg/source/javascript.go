package source

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// jsFrontEnd parses JavaScript and TypeScript. The JavaScript grammar accepts
// JSX; .tsx files use the TSX dialect.
type jsFrontEnd struct {
	lang Language
}

func (f jsFrontEnd) grammar(path string) *sitter.Language {
	switch {
	case f.lang == LangTypeScript && strings.HasSuffix(strings.ToLower(path), ".tsx"):
		return tsx.GetLanguage()
	case f.lang == LangTypeScript:
		return typescript.GetLanguage()
	}
	return javascript.GetLanguage()
}

func (f jsFrontEnd) parse(sf *StructuralFile, src []byte) {
	sf.Fidelity = FidelityFull

	tree, err := parseTree(f.grammar(sf.Path), src)
	if err != nil {
		sf.Errors = append(sf.Errors, err.Error())
		return
	}
	defer tree.Close()

	root := tree.RootNode()
	sf.Errors = append(sf.Errors, syntaxErrors(root)...)

	w := &jsWalker{sf: sf, src: src, lang: f.lang}
	w.imports(root)
	w.visit(root, false)
}

type jsWalker struct {
	sf   *StructuralFile
	src  []byte
	lang Language
}

func isJSDefinition(n *sitter.Node) bool {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration",
		"class_declaration", "abstract_class_declaration", "method_definition":
		return true
	}
	return false
}

func classifyJS(n, parent *sitter.Node, _ []byte) (Construct, int) {
	switch n.Type() {
	case "if_statement":
		if parent != nil && parent.Type() == "else_clause" {
			return ConstructElif, 0
		}
		return ConstructBranch, 0
	case "for_statement", "for_in_statement", "while_statement", "do_statement":
		return ConstructLoop, 0
	case "try_statement":
		return ConstructTry, 0
	case "catch_clause":
		return ConstructHandler, 0
	case "ternary_expression":
		return ConstructConditional, 0
	case "binary_expression":
		if op := n.ChildByFieldName("operator"); op != nil {
			switch op.Type() {
			case "&&", "||", "??":
				return ConstructBoolean, 2
			}
		}
	case "switch_statement":
		return ConstructBlock, 0
	case "switch_case":
		return ConstructCase, 0
	case "with_statement":
		return ConstructScope, 0
	}
	return ConstructNone, 0
}

// visit records definitions below n. Inside function bodies only declared
// functions and classes get their own record; arrow functions assigned to
// locals stay part of the enclosing function.
func (w *jsWalker) visit(n *sitter.Node, inFunction bool) {
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "function_declaration", "generator_function_declaration":
			w.sf.Functions = append(w.sf.Functions, w.function(child, fieldText(child, "name", w.src), ""))
			w.visit(child.ChildByFieldName("body"), true)
		case "class_declaration", "abstract_class_declaration", "class":
			w.class(child)
		case "lexical_declaration", "variable_declaration":
			if inFunction {
				continue
			}
			for _, decl := range namedChildren(child) {
				value := decl.ChildByFieldName("value")
				if decl.Type() != "variable_declarator" || value == nil {
					continue
				}
				switch value.Type() {
				case "arrow_function", "function", "function_expression", "generator_function":
					w.sf.Functions = append(w.sf.Functions, w.function(value, fieldText(decl, "name", w.src), ""))
					w.visit(value.ChildByFieldName("body"), true)
				case "class":
					w.class(value)
				}
			}
		case "statement_block", "export_statement", "expression_statement", "if_statement",
			"else_clause", "try_statement", "catch_clause", "finally_clause",
			"internal_module", "module", "ambient_declaration":
			w.visit(child, inFunction)
		}
	}
}

func (w *jsWalker) function(n *sitter.Node, name, class string) FunctionRecord {
	body := n.ChildByFieldName("body")
	rec := FunctionRecord{
		Name:          name,
		File:          w.sf.Path,
		Class:         class,
		StartLine:     line(n.StartPoint()),
		EndLine:       line(n.EndPoint()),
		Params:        jsParams(n, w.src),
		ReturnType:    strings.TrimSpace(strings.TrimPrefix(fieldText(n, "return_type", w.src), ":")),
		Async:         hasToken(n, "async"),
		Calls:         jsCalls(body, w.src),
		StructureHash: hashTree(n),
	}
	rec.Complexity, rec.Nesting = scoreTree(body, w.src, classifyJS, isJSDefinition)
	return rec
}

func jsCalls(body *sitter.Node, src []byte) []string {
	calls := treeCalls(body, src, "call_expression", "function", isJSDefinition)
	for _, ctor := range treeCalls(body, src, "new_expression", "constructor", isJSDefinition) {
		calls = appendUnique(calls, "new "+ctor)
	}
	return calls
}

func (w *jsWalker) class(n *sitter.Node) {
	name := fieldText(n, "name", w.src)
	if name == "" {
		return
	}
	rec := ClassRecord{
		Name:      name,
		File:      w.sf.Path,
		StartLine: line(n.StartPoint()),
		EndLine:   line(n.EndPoint()),
		Methods:   []string{},
		Fields:    []string{},
	}

	for _, child := range namedChildren(n) {
		if child.Type() != "class_heritage" {
			continue
		}
		for _, h := range namedChildren(child) {
			switch h.Type() {
			case "extends_clause", "implements_clause":
				for _, t := range namedChildren(h) {
					if t.Type() == "type_arguments" {
						continue
					}
					rec.Bases = append(rec.Bases, stripGenerics(t.Content(w.src)))
				}
			default:
				rec.Bases = append(rec.Bases, stripGenerics(h.Content(w.src)))
			}
		}
	}

	for _, member := range namedChildren(n.ChildByFieldName("body")) {
		switch member.Type() {
		case "method_definition", "abstract_method_signature":
			methodName := fieldText(member, "name", w.src)
			rec.Methods = append(rec.Methods, methodName)
			if member.Type() == "abstract_method_signature" {
				continue
			}
			w.sf.Functions = append(w.sf.Functions, w.function(member, methodName, name))
			if methodName == "constructor" {
				w.constructorMembers(member, &rec)
			}
		case "field_definition":
			rec.Fields = appendUnique(rec.Fields, fieldText(member, "property", w.src))
		case "public_field_definition":
			rec.Fields = appendUnique(rec.Fields, fieldText(member, "name", w.src))
		}
	}

	w.sf.Classes = append(w.sf.Classes, rec)
}

// constructorMembers adds this.x assignments, TypeScript parameter
// properties and typed parameter dependencies of a constructor.
func (w *jsWalker) constructorMembers(ctor *sitter.Node, rec *ClassRecord) {
	for _, p := range namedChildren(ctor.ChildByFieldName("parameters")) {
		if p.Type() != "required_parameter" && p.Type() != "optional_parameter" {
			continue
		}
		for _, c := range namedChildren(p) {
			if c.Type() == "accessibility_modifier" || c.Type() == "override_modifier" {
				rec.Fields = appendUnique(rec.Fields, fieldText(p, "pattern", w.src))
				break
			}
		}
		typ := strings.TrimPrefix(strings.TrimSpace(fieldText(p, "type", w.src)), ":")
		if dep := dependencyName(w.lang, typ); dep != "" {
			rec.Dependencies = appendUnique(rec.Dependencies, dep)
		}
	}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if isJSDefinition(n) {
			return
		}
		if n.Type() == "assignment_expression" {
			left := n.ChildByFieldName("left")
			if left != nil && left.Type() == "member_expression" && fieldText(left, "object", w.src) == "this" {
				rec.Fields = appendUnique(rec.Fields, fieldText(left, "property", w.src))
			}
		}
		for _, child := range namedChildren(n) {
			walk(child)
		}
	}
	walk(ctor.ChildByFieldName("body"))
}

func (w *jsWalker) imports(root *sitter.Node) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "import_statement":
			w.sf.Imports = append(w.sf.Imports, jsImport(n, w.src))
			return
		case "export_statement":
			if src := n.ChildByFieldName("source"); src != nil {
				module := unquote(src.Content(w.src))
				w.sf.Imports = append(w.sf.Imports, ImportRecord{Module: module, Relative: strings.HasPrefix(module, ".")})
				return
			}
		case "call_expression":
			fn := n.ChildByFieldName("function")
			if fn != nil && fn.Type() == "identifier" && fn.Content(w.src) == "require" {
				args := namedChildren(n.ChildByFieldName("arguments"))
				if len(args) == 1 && args[0].Type() == "string" {
					module := unquote(args[0].Content(w.src))
					w.sf.Imports = append(w.sf.Imports, ImportRecord{Module: module, Relative: strings.HasPrefix(module, ".")})
				}
			}
		}
		for _, child := range namedChildren(n) {
			walk(child)
		}
	}
	walk(root)
}

func jsImport(n *sitter.Node, src []byte) ImportRecord {
	module := unquote(fieldText(n, "source", src))
	rec := ImportRecord{Module: module, Relative: strings.HasPrefix(module, ".")}
	for _, child := range namedChildren(n) {
		if child.Type() != "import_clause" {
			continue
		}
		for _, c := range namedChildren(child) {
			switch c.Type() {
			case "identifier":
				rec.Names = append(rec.Names, c.Content(src))
			case "namespace_import":
				for _, id := range namedChildren(c) {
					rec.Alias = id.Content(src)
				}
			case "named_imports":
				for _, spec := range namedChildren(c) {
					if spec.Type() != "import_specifier" {
						continue
					}
					rec.Names = append(rec.Names, fieldText(spec, "name", src))
					if alias := fieldText(spec, "alias", src); alias != "" {
						rec.Alias = alias
					}
				}
			}
		}
	}
	return rec
}

func jsParams(fn *sitter.Node, src []byte) []string {
	names := []string{}
	if single := fn.ChildByFieldName("parameter"); single != nil {
		return append(names, single.Content(src))
	}
	for _, p := range namedChildren(fn.ChildByFieldName("parameters")) {
		switch p.Type() {
		case "identifier", "object_pattern", "array_pattern":
			names = append(names, p.Content(src))
		case "assignment_pattern":
			names = append(names, fieldText(p, "left", src))
		case "rest_pattern":
			names = append(names, p.Content(src))
		case "required_parameter", "optional_parameter":
			names = append(names, fieldText(p, "pattern", src))
		}
	}
	return names
}

func stripGenerics(s string) string {
	if i := strings.Index(s, "<"); i > 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
