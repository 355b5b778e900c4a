// Package graph builds the module import graph of an analyzed project and
// derives cycles, coupling metrics, layers and duplicate functions from it.
package graph

import (
	"sort"

	"github.com/simonhull/heron/pkg/source"
)

// ImportGraph represents the import relationships between analyzed modules.
// Nodes are module identifiers derived from file paths.
type ImportGraph struct {
	Nodes  []*ModuleNode
	Edges  []*ImportEdge
	Cycles [][]string     // Each cycle starts and ends at the same module
	Layers map[string]int // Module id → layer depth
	Stats  GraphStats

	nodeMap map[string]*ModuleNode
	adj     map[string][]string
}

// ModuleNode is one analyzed file in the graph.
type ModuleNode struct {
	ID          string          `json:"id"`
	Path        string          `json:"path,omitempty"`
	Language    source.Language `json:"language,omitempty"`
	Afferent    int             `json:"afferent"`  // distinct modules importing this one (Ca)
	Efferent    int             `json:"efferent"`  // distinct modules this one imports (Ce)
	Instability float64         `json:"instability"`
	Layer       int             `json:"layer"` // 0 = imports nothing internal
}

// ImportEdge is a resolved import relation.
type ImportEdge struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Import  string `json:"import,omitempty"` // the import string that resolved to To
	IsCycle bool   `json:"is_cycle,omitempty"`
}

// GraphStats provides summary metrics.
type GraphStats struct {
	Modules       int     `json:"modules"`
	Edges         int     `json:"edges"`
	Unresolved    int     `json:"unresolved"`
	CycleCount    int     `json:"cycle_count"`
	MaxLayerDepth int     `json:"max_layer_depth"`
	AvgDependents float64 `json:"avg_dependents"`
}

// Options control how import strings are resolved.
type Options struct {
	// GoModule is the module path from go.mod; Go imports outside it are
	// treated as external and never resolved.
	GoModule string
}

// New returns an empty graph.
func New() *ImportGraph {
	return &ImportGraph{
		Nodes:   make([]*ModuleNode, 0),
		Edges:   make([]*ImportEdge, 0),
		Cycles:  make([][]string, 0),
		Layers:  make(map[string]int),
		nodeMap: make(map[string]*ModuleNode),
		adj:     make(map[string][]string),
	}
}

// Build creates one node per file and one edge per import that resolves to
// another analyzed module, then computes cycles, coupling and layers.
func Build(files []*source.StructuralFile, opts Options) *ImportGraph {
	g := New()
	for _, f := range files {
		node := g.AddNode(f.Module)
		node.Path = f.Path
		node.Language = f.Language
	}
	g.sortNodes()

	for _, f := range files {
		for _, imp := range f.Imports {
			resolved := false
			for _, candidate := range Candidates(f, imp, opts) {
				if to, ok := g.Resolve(f.Module, candidate); ok {
					g.addEdge(f.Module, to, imp.Module)
					resolved = true
					break
				}
			}
			if !resolved {
				g.Stats.Unresolved++
			}
		}
	}

	g.Analyze()
	return g
}

// AddNode adds a module if it is not already present and returns it.
func (g *ImportGraph) AddNode(id string) *ModuleNode {
	if node, ok := g.nodeMap[id]; ok {
		return node
	}
	node := &ModuleNode{ID: id}
	g.nodeMap[id] = node
	g.Nodes = append(g.Nodes, node)
	return node
}

// AddEdge records that from imports to, adding either node if needed.
func (g *ImportGraph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.addEdge(from, to, "")
}

func (g *ImportGraph) addEdge(from, to, imp string) {
	if from == to {
		return
	}
	for _, existing := range g.adj[from] {
		if existing == to {
			return
		}
	}
	g.adj[from] = append(g.adj[from], to)
	g.Edges = append(g.Edges, &ImportEdge{From: from, To: to, Import: imp})
}

// Node returns the node for id.
func (g *ImportGraph) Node(id string) (*ModuleNode, bool) {
	node, ok := g.nodeMap[id]
	return node, ok
}

// Imports returns the modules id imports, sorted.
func (g *ImportGraph) Imports(id string) []string {
	out := append([]string(nil), g.adj[id]...)
	sort.Strings(out)
	return out
}

// Analyze (re)computes cycles, coupling, layers and stats. Build calls it;
// callers assembling a graph by hand call it after adding edges.
func (g *ImportGraph) Analyze() {
	g.sortNodes()
	g.Cycles = detectCycles(g)
	for _, e := range g.Edges {
		e.IsCycle = false
	}
	for _, cycle := range g.Cycles {
		markCycleEdges(g.Edges, cycle)
	}
	computeCoupling(g)
	inferLayers(g)
	g.Stats = calculateStats(g)
}

func (g *ImportGraph) sortNodes() {
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })
}

// computeCoupling sets Ca, Ce and instability = Ce / (Ca + Ce) for each node.
func computeCoupling(g *ImportGraph) {
	for _, node := range g.Nodes {
		node.Afferent = 0
		node.Efferent = 0
	}
	for _, e := range g.Edges {
		g.nodeMap[e.From].Efferent++
		g.nodeMap[e.To].Afferent++
	}
	for _, node := range g.Nodes {
		node.Instability = Instability(node.Afferent, node.Efferent)
	}
}

// Instability returns ce / (ca + ce), or 0 when both are zero.
func Instability(ca, ce int) float64 {
	if ca+ce == 0 {
		return 0
	}
	return float64(ce) / float64(ca+ce)
}

// calculateStats computes summary metrics for the graph
func calculateStats(g *ImportGraph) GraphStats {
	stats := GraphStats{
		Modules:    len(g.Nodes),
		Edges:      len(g.Edges),
		Unresolved: g.Stats.Unresolved,
		CycleCount: len(g.Cycles),
	}
	for _, node := range g.Nodes {
		stats.AvgDependents += float64(node.Afferent)
		if node.Layer > stats.MaxLayerDepth {
			stats.MaxLayerDepth = node.Layer
		}
	}
	if stats.Modules > 0 {
		stats.AvgDependents /= float64(stats.Modules)
	}
	return stats
}
