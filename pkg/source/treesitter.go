package source

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// classifyFunc maps a tree-sitter node (and its parent) onto a Construct.
type classifyFunc func(n, parent *sitter.Node, src []byte) (Construct, int)

// parseTree parses src with a fresh parser; parsers are not safe for
// concurrent use, so one is created per file.
func parseTree(lang *sitter.Language, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	return tree, nil
}

// syntaxErrors reports ERROR and MISSING nodes, capped at maxReportedErrors.
func syntaxErrors(root *sitter.Node) []string {
	if !root.HasError() {
		return nil
	}
	var errs []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if len(errs) >= maxReportedErrors {
			return
		}
		switch {
		case n.IsMissing():
			errs = append(errs, fmt.Sprintf("line %d: missing %s", line(n.StartPoint()), n.Type()))
			return
		case n.IsError():
			errs = append(errs, fmt.Sprintf("line %d: syntax error", line(n.StartPoint())))
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	if len(errs) == 0 {
		errs = append(errs, "syntax error")
	}
	return errs
}

// scoreTree scores root and its named descendants, skipping subtrees for
// which stop returns true (nested named definitions get their own record).
func scoreTree(root *sitter.Node, src []byte, classify classifyFunc, stop func(*sitter.Node) bool) (int, int) {
	s := newScorer()
	if root == nil {
		return s.complexity, 0
	}

	var walk func(n, parent *sitter.Node)
	walk = func(n, parent *sitter.Node) {
		c, operands := classify(n, parent, src)
		nested := s.enter(c, operands)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if stop(child) {
				continue
			}
			walk(child, n)
		}
		if nested {
			s.leave()
		}
	}
	walk(root, nil)

	return s.complexity, s.maxDepth
}

// hashTree hashes the pre-order (depth, node type) sequence of named nodes.
func hashTree(root *sitter.Node) string {
	h := newShapeHasher()
	var walk func(n *sitter.Node, depth int)
	walk = func(n *sitter.Node, depth int) {
		if n.Type() == "comment" {
			return
		}
		if !h.add(depth, n.Type()) {
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i), depth+1)
		}
	}
	walk(root, 0)
	return h.sum()
}

// treeCalls collects callee expressions of callType nodes below root.
func treeCalls(root *sitter.Node, src []byte, callType, fnField string, stop func(*sitter.Node) bool) []string {
	if root == nil {
		return nil
	}
	seen := make(map[string]bool)
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == callType {
			if fn := n.ChildByFieldName(fnField); fn != nil {
				name := fn.Content(src)
				if !strings.ContainsAny(name, "\n(") {
					seen[name] = true
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if stop(child) {
				continue
			}
			walk(child)
		}
	}
	walk(root)
	return sortedKeys(seen)
}

func fieldText(n *sitter.Node, field string, src []byte) string {
	child := n.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Content(src)
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// hasToken reports whether n has a direct anonymous child of the given type,
// e.g. the "async" keyword of a function definition.
func hasToken(n *sitter.Node, token string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.IsNamed() && child.Type() == token {
			return true
		}
	}
	return false
}

func line(p sitter.Point) int {
	return int(p.Row) + 1
}

func unquote(s string) string {
	return strings.Trim(s, "\"'`")
}
