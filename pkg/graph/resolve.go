package graph

import (
	"path"
	"strings"

	"github.com/simonhull/heron/pkg/source"
)

// Candidates returns the module identifiers an import may refer to, most
// specific first. External imports that can never be analyzed (Go imports
// outside the current module) yield no candidates.
func Candidates(from *source.StructuralFile, imp source.ImportRecord, opts Options) []string {
	dir := path.Dir(from.Module)
	mod := imp.Module

	switch from.Language {
	case source.LangGo:
		if opts.GoModule == "" {
			return []string{mod}
		}
		if !strings.HasPrefix(mod, opts.GoModule+"/") {
			return nil
		}
		return []string{strings.TrimPrefix(mod, opts.GoModule+"/")}

	case source.LangPython:
		base := ""
		if imp.Relative {
			dots := len(mod) - len(strings.TrimLeft(mod, "."))
			base = dir
			for i := 1; i < dots; i++ {
				base = path.Dir(base)
			}
			mod = strings.TrimLeft(mod, ".")
		}
		prefix := joinModule(base, strings.ReplaceAll(mod, ".", "/"))
		var out []string
		if mod != "" {
			out = append(out, prefix)
		}
		for _, name := range imp.Names {
			if name != "*" {
				out = append(out, joinModule(prefix, name))
			}
		}
		if len(out) == 0 && prefix != "" {
			out = append(out, prefix)
		}
		return out

	case source.LangJavaScript, source.LangTypeScript:
		if !imp.Relative {
			return []string{mod}
		}
		target := trimSourceExt(path.Join(dir, mod))
		return []string{target, path.Join(target, "index")}

	case source.LangRust:
		if imp.Relative {
			return []string{joinModule(dir, mod)}
		}
		p := strings.ReplaceAll(mod, "::", "/")
		for _, prefix := range []string{"crate/", "self/", "super/"} {
			p = strings.TrimPrefix(p, prefix)
		}
		// Crate paths are tried next to the importer first, which is right
		// for lib.rs and main.rs at the crate root.
		out := []string{joinModule(dir, p), p}
		for _, name := range imp.Names {
			if name = strings.TrimSpace(name); name != "" && name != "self" {
				out = append(out, joinModule(p, name))
			}
		}
		return out

	case source.LangC, source.LangCPP, source.LangPHP:
		if imp.Relative {
			return []string{joinModule(dir, mod), mod}
		}
		return []string{mod}

	default:
		return []string{strings.ReplaceAll(mod, ".", "/")}
	}
}

// Resolve maps a candidate module string onto a known node. An exact id
// wins; otherwise the first node in sorted order that ends with
// "/"+candidate, starts with candidate+"/" or contains "/"+candidate+"/"
// is taken. The importing module itself never matches.
//
// This is a heuristic: a common suffix such as "utils" resolves to
// whichever matching module sorts first, and an import that names a
// third-party package with the same suffix as a local module produces a
// false edge.
func (g *ImportGraph) Resolve(from, candidate string) (string, bool) {
	candidate = strings.Trim(candidate, "/")
	if candidate == "" || candidate == "." {
		return "", false
	}
	if _, ok := g.nodeMap[candidate]; ok && candidate != from {
		return candidate, true
	}
	for _, node := range g.Nodes {
		id := node.ID
		if id == from {
			continue
		}
		if strings.HasSuffix(id, "/"+candidate) ||
			strings.HasPrefix(id, candidate+"/") ||
			strings.Contains(id, "/"+candidate+"/") {
			return id, true
		}
	}
	return "", false
}

func joinModule(base, rel string) string {
	if rel == "" {
		if base = path.Clean(base); base == "." {
			return ""
		}
		return base
	}
	joined := path.Join(base, rel)
	if joined == "." {
		return ""
	}
	return joined
}

func trimSourceExt(p string) string {
	switch path.Ext(p) {
	case ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx":
		return strings.TrimSuffix(p, path.Ext(p))
	}
	return p
}
