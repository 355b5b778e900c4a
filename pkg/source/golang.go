package source

import (
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/tools/go/ast/inspector"
)

// maxReportedErrors caps the parse errors copied into a StructuralFile.
const maxReportedErrors = 5

// goFrontEnd parses Go with the standard library parser.
type goFrontEnd struct{}

func (goFrontEnd) parse(sf *StructuralFile, src []byte) {
	sf.Fidelity = FidelityFull

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, sf.Path, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		if list, ok := err.(scanner.ErrorList); ok {
			for i, e := range list {
				if i == maxReportedErrors {
					break
				}
				sf.Errors = append(sf.Errors, e.Error())
			}
		} else {
			sf.Errors = append(sf.Errors, err.Error())
		}
	}
	if file == nil {
		return
	}

	for _, spec := range file.Imports {
		path := strings.Trim(spec.Path.Value, "`\"")
		rec := ImportRecord{
			Module:   path,
			Relative: strings.HasPrefix(path, "."),
		}
		if spec.Name != nil {
			rec.Alias = spec.Name.Name
		}
		sf.Imports = append(sf.Imports, rec)
	}

	classes := make(map[string]*ClassRecord)
	var order []string
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			rec := goTypeRecord(fset, sf.Path, ts)
			if rec == nil {
				continue
			}
			classes[rec.Name] = rec
			order = append(order, rec.Name)
		}
	}

	ins := inspector.New([]*ast.File{file})
	ins.Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(n ast.Node) {
		fn := n.(*ast.FuncDecl)
		rec := goFunctionRecord(fset, sf.Path, fn)

		if rec.Class != "" {
			if cls, ok := classes[rec.Class]; ok {
				cls.Methods = append(cls.Methods, rec.Name)
			}
		} else if cls := goConstructedType(fn, classes); cls != nil {
			cls.Dependencies = appendUnique(cls.Dependencies, goParamDependencies(fn)...)
		}

		sf.Functions = append(sf.Functions, rec)
	})

	for _, name := range order {
		sf.Classes = append(sf.Classes, *classes[name])
	}
}

func goTypeRecord(fset *token.FileSet, path string, ts *ast.TypeSpec) *ClassRecord {
	rec := &ClassRecord{
		Name:      ts.Name.Name,
		File:      path,
		StartLine: fset.Position(ts.Pos()).Line,
		EndLine:   fset.Position(ts.End()).Line,
		Methods:   []string{},
		Fields:    []string{},
	}

	switch t := ts.Type.(type) {
	case *ast.StructType:
		for _, field := range t.Fields.List {
			if len(field.Names) == 0 {
				rec.Bases = append(rec.Bases, strings.TrimPrefix(types.ExprString(field.Type), "*"))
				continue
			}
			for _, name := range field.Names {
				rec.Fields = append(rec.Fields, name.Name)
			}
		}
	case *ast.InterfaceType:
		for _, m := range t.Methods.List {
			if len(m.Names) == 0 {
				rec.Bases = append(rec.Bases, types.ExprString(m.Type))
				continue
			}
			for _, name := range m.Names {
				rec.Methods = append(rec.Methods, name.Name)
			}
		}
	default:
		return nil
	}
	return rec
}

func goFunctionRecord(fset *token.FileSet, path string, fn *ast.FuncDecl) FunctionRecord {
	rec := FunctionRecord{
		Name:      fn.Name.Name,
		File:      path,
		StartLine: fset.Position(fn.Pos()).Line,
		EndLine:   fset.Position(fn.End()).Line,
		Params:    goFieldNames(fn.Type.Params),
	}
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		rec.Class = goReceiverName(fn.Recv.List[0].Type)
	}
	rec.ReturnType = goResultString(fn.Type.Results)

	if fn.Body != nil {
		rec.Complexity, rec.Nesting = scoreGo(fn.Body)
		rec.Calls = goCalls(fn.Body)
	} else {
		rec.Complexity = 1
	}
	rec.StructureHash = hashGo(fn)
	return rec
}

// scoreGo walks a body and feeds every control construct to a scorer.
func scoreGo(body ast.Node) (int, int) {
	s := newScorer()
	elifs := make(map[*ast.IfStmt]bool)
	var stack []bool

	ast.Inspect(body, func(n ast.Node) bool {
		if n == nil {
			if stack[len(stack)-1] {
				s.leave()
			}
			stack = stack[:len(stack)-1]
			return false
		}
		c, operands := classifyGo(n, elifs)
		stack = append(stack, s.enter(c, operands))
		return true
	})

	return s.complexity, s.maxDepth
}

func classifyGo(n ast.Node, elifs map[*ast.IfStmt]bool) (Construct, int) {
	switch x := n.(type) {
	case *ast.IfStmt:
		if next, ok := x.Else.(*ast.IfStmt); ok {
			elifs[next] = true
		}
		if elifs[x] {
			return ConstructElif, 0
		}
		return ConstructBranch, 0
	case *ast.ForStmt, *ast.RangeStmt:
		return ConstructLoop, 0
	case *ast.CaseClause:
		if x.List != nil {
			return ConstructCase, 0
		}
	case *ast.CommClause:
		if x.Comm != nil {
			return ConstructCase, 0
		}
	case *ast.SwitchStmt, *ast.TypeSwitchStmt, *ast.SelectStmt:
		return ConstructBlock, 0
	case *ast.BinaryExpr:
		if x.Op == token.LAND || x.Op == token.LOR {
			return ConstructBoolean, 2
		}
	}
	return ConstructNone, 0
}

// hashGo hashes the (depth, node type) pre-order of a function declaration.
func hashGo(fn *ast.FuncDecl) string {
	h := newShapeHasher()
	depth := 0
	ast.Inspect(fn, func(n ast.Node) bool {
		if n == nil {
			depth--
			return false
		}
		switch n.(type) {
		case *ast.CommentGroup, *ast.Comment:
			return false
		}
		if !h.add(depth, reflect.TypeOf(n).Elem().Name()) {
			return false
		}
		depth++
		return true
	})
	return h.sum()
}

func goCalls(body ast.Node) []string {
	seen := make(map[string]bool)
	ast.Inspect(body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		fun := call.Fun
		if idx, ok := fun.(*ast.IndexExpr); ok {
			fun = idx.X
		}
		switch f := fun.(type) {
		case *ast.Ident:
			seen[f.Name] = true
		case *ast.SelectorExpr:
			seen[types.ExprString(f)] = true
		}
		return true
	})
	return sortedKeys(seen)
}

func goFieldNames(fl *ast.FieldList) []string {
	params := []string{}
	if fl == nil {
		return params
	}
	for _, field := range fl.List {
		if len(field.Names) == 0 {
			params = append(params, types.ExprString(field.Type))
			continue
		}
		for _, name := range field.Names {
			params = append(params, name.Name)
		}
	}
	return params
}

func goResultString(fl *ast.FieldList) string {
	if fl == nil || len(fl.List) == 0 {
		return ""
	}
	var parts []string
	for _, field := range fl.List {
		typ := types.ExprString(field.Type)
		n := len(field.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			parts = append(parts, typ)
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func goReceiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return goReceiverName(t.X)
	case *ast.IndexExpr:
		return goReceiverName(t.X)
	case *ast.IndexListExpr:
		return goReceiverName(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}

// goConstructedType returns the struct a New* function constructs, if any.
func goConstructedType(fn *ast.FuncDecl, classes map[string]*ClassRecord) *ClassRecord {
	if !strings.HasPrefix(fn.Name.Name, "New") || fn.Type.Results == nil {
		return nil
	}
	for _, field := range fn.Type.Results.List {
		name := goReceiverName(field.Type)
		if cls, ok := classes[name]; ok {
			return cls
		}
	}
	return nil
}

func goParamDependencies(fn *ast.FuncDecl) []string {
	var deps []string
	for _, field := range fn.Type.Params.List {
		if dep := dependencyName(LangGo, types.ExprString(field.Type)); dep != "" {
			deps = append(deps, dep)
		}
	}
	return deps
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range list {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
