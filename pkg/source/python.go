package source

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

type pythonFrontEnd struct{}

func (pythonFrontEnd) parse(sf *StructuralFile, src []byte) {
	sf.Fidelity = FidelityFull

	tree, err := parseTree(python.GetLanguage(), src)
	if err != nil {
		sf.Errors = append(sf.Errors, err.Error())
		return
	}
	defer tree.Close()

	root := tree.RootNode()
	sf.Errors = append(sf.Errors, syntaxErrors(root)...)

	w := &pyWalker{sf: sf, src: src}
	w.imports(root)
	w.visit(root, "")
}

type pyWalker struct {
	sf  *StructuralFile
	src []byte
}

func isPyDefinition(n *sitter.Node) bool {
	switch n.Type() {
	case "function_definition", "class_definition", "decorated_definition":
		return true
	}
	return false
}

func classifyPython(n, _ *sitter.Node, src []byte) (Construct, int) {
	switch n.Type() {
	case "if_statement":
		return ConstructBranch, 0
	case "elif_clause":
		return ConstructElif, 0
	case "for_statement", "while_statement":
		return ConstructLoop, 0
	case "try_statement":
		return ConstructTry, 0
	case "except_clause", "except_group_clause":
		return ConstructHandler, 0
	case "with_statement":
		return ConstructScope, 0
	case "conditional_expression":
		return ConstructConditional, 0
	case "if_clause":
		return ConstructFilter, 0
	case "boolean_operator":
		return ConstructBoolean, 2
	case "match_statement":
		return ConstructBlock, 0
	case "case_clause":
		for _, child := range namedChildren(n) {
			if child.Type() == "case_pattern" && strings.TrimSpace(child.Content(src)) == "_" {
				return ConstructNone, 0
			}
		}
		return ConstructCase, 0
	}
	return ConstructNone, 0
}

// visit records definitions below n. class is the enclosing class name for
// direct children of a class body.
func (w *pyWalker) visit(n *sitter.Node, class string) {
	for _, child := range namedChildren(n) {
		def := child
		if def.Type() == "decorated_definition" {
			def = def.ChildByFieldName("definition")
			if def == nil {
				continue
			}
		}
		switch def.Type() {
		case "function_definition":
			w.sf.Functions = append(w.sf.Functions, w.function(def, class))
			w.visit(def.ChildByFieldName("body"), "")
		case "class_definition":
			w.sf.Classes = append(w.sf.Classes, w.class(def))
			w.visit(def.ChildByFieldName("body"), fieldText(def, "name", w.src))
		default:
			w.visit(def, "")
		}
	}
}

func (w *pyWalker) function(n *sitter.Node, class string) FunctionRecord {
	body := n.ChildByFieldName("body")
	params := pyParams(n.ChildByFieldName("parameters"), w.src)
	if class != "" && len(params) > 0 && (params[0] == "self" || params[0] == "cls") {
		params = params[1:]
	}
	rec := FunctionRecord{
		Name:          fieldText(n, "name", w.src),
		File:          w.sf.Path,
		Class:         class,
		StartLine:     line(n.StartPoint()),
		EndLine:       line(n.EndPoint()),
		Params:        params,
		ReturnType:    fieldText(n, "return_type", w.src),
		Async:         hasToken(n, "async"),
		Calls:         treeCalls(body, w.src, "call", "function", isPyDefinition),
		StructureHash: hashTree(n),
	}
	rec.Complexity, rec.Nesting = scoreTree(body, w.src, classifyPython, isPyDefinition)
	return rec
}

func (w *pyWalker) class(n *sitter.Node) ClassRecord {
	rec := ClassRecord{
		Name:      fieldText(n, "name", w.src),
		File:      w.sf.Path,
		StartLine: line(n.StartPoint()),
		EndLine:   line(n.EndPoint()),
		Methods:   []string{},
		Fields:    []string{},
	}

	for _, base := range namedChildren(n.ChildByFieldName("superclasses")) {
		switch base.Type() {
		case "identifier", "attribute", "subscript":
			rec.Bases = append(rec.Bases, base.Content(w.src))
		}
	}

	for _, stmt := range namedChildren(n.ChildByFieldName("body")) {
		def := stmt
		if def.Type() == "decorated_definition" {
			def = def.ChildByFieldName("definition")
		}
		if def == nil {
			continue
		}
		switch def.Type() {
		case "function_definition":
			name := fieldText(def, "name", w.src)
			rec.Methods = append(rec.Methods, name)
			if name == "__init__" {
				rec.Fields = appendUnique(rec.Fields, pySelfAssignments(def.ChildByFieldName("body"), w.src)...)
				rec.Dependencies = appendUnique(rec.Dependencies, pyTypedDependencies(def.ChildByFieldName("parameters"), w.src)...)
			}
		case "expression_statement":
			for _, expr := range namedChildren(def) {
				if expr.Type() != "assignment" {
					continue
				}
				if left := expr.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
					rec.Fields = appendUnique(rec.Fields, left.Content(w.src))
				}
			}
		}
	}
	return rec
}

func (w *pyWalker) imports(root *sitter.Node) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "import_statement":
			for _, child := range namedChildren(n) {
				switch child.Type() {
				case "dotted_name":
					w.sf.Imports = append(w.sf.Imports, ImportRecord{Module: child.Content(w.src)})
				case "aliased_import":
					w.sf.Imports = append(w.sf.Imports, ImportRecord{
						Module: fieldText(child, "name", w.src),
						Alias:  fieldText(child, "alias", w.src),
					})
				}
			}
			return
		case "import_from_statement":
			w.sf.Imports = append(w.sf.Imports, pyFromImport(n, w.src))
			return
		}
		for _, child := range namedChildren(n) {
			walk(child)
		}
	}
	walk(root)
}

func pyFromImport(n *sitter.Node, src []byte) ImportRecord {
	rec := ImportRecord{}
	moduleNode := n.ChildByFieldName("module_name")
	if moduleNode != nil {
		rec.Module = moduleNode.Content(src)
		rec.Relative = strings.HasPrefix(rec.Module, ".")
	}
	for _, child := range namedChildren(n) {
		if moduleNode != nil && child.StartByte() == moduleNode.StartByte() {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			rec.Names = append(rec.Names, child.Content(src))
		case "aliased_import":
			rec.Names = append(rec.Names, fieldText(child, "name", src))
			rec.Alias = fieldText(child, "alias", src)
		case "wildcard_import":
			rec.Names = append(rec.Names, "*")
		}
	}
	return rec
}

func pyParams(params *sitter.Node, src []byte) []string {
	names := []string{}
	for _, p := range namedChildren(params) {
		switch p.Type() {
		case "identifier":
			names = append(names, p.Content(src))
		case "default_parameter", "typed_default_parameter":
			names = append(names, fieldText(p, "name", src))
		case "typed_parameter":
			for _, c := range namedChildren(p) {
				if c.Type() == "identifier" || c.Type() == "list_splat_pattern" || c.Type() == "dictionary_splat_pattern" {
					names = append(names, c.Content(src))
					break
				}
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			names = append(names, p.Content(src))
		}
	}
	return names
}

func pyTypedDependencies(params *sitter.Node, src []byte) []string {
	var deps []string
	for _, p := range namedChildren(params) {
		if p.Type() != "typed_parameter" && p.Type() != "typed_default_parameter" {
			continue
		}
		if dep := dependencyName(LangPython, unquote(fieldText(p, "type", src))); dep != "" {
			deps = append(deps, dep)
		}
	}
	return deps
}

// pySelfAssignments returns attribute names assigned through self.
func pySelfAssignments(body *sitter.Node, src []byte) []string {
	var fields []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if isPyDefinition(n) {
			return
		}
		if n.Type() == "assignment" {
			left := n.ChildByFieldName("left")
			if left != nil && left.Type() == "attribute" && fieldText(left, "object", src) == "self" {
				fields = append(fields, fieldText(left, "attribute", src))
			}
		}
		for _, child := range namedChildren(n) {
			walk(child)
		}
	}
	for _, child := range namedChildren(body) {
		walk(child)
	}
	return fields
}
