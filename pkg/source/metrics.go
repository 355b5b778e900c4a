package source

import (
	"encoding/hex"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Construct is the language-neutral classification of a syntax node used for
// complexity and nesting. Every front-end maps its node kinds onto these, so
// the scoring rules below are the only place the rules live.
type Construct int

const (
	ConstructNone Construct = iota
	// ConstructBranch is an if statement: +1, nests.
	ConstructBranch
	// ConstructElif is an else-if / elif arm: +1, does not add a nesting level.
	ConstructElif
	// ConstructCase is a non-default switch/match arm: +1.
	ConstructCase
	// ConstructConditional is a ternary / conditional expression: +1.
	ConstructConditional
	// ConstructLoop is for / while / do / range: +1, nests.
	ConstructLoop
	// ConstructTry is the protected block of try/catch: +0, nests.
	ConstructTry
	// ConstructHandler is a catch / except / rescue clause: +1.
	ConstructHandler
	// ConstructScope is a resource scope (with, using, try-with-resources): +1, nests.
	ConstructScope
	// ConstructFilter is a comprehension / generator filter clause: +1.
	ConstructFilter
	// ConstructBoolean is a short-circuit boolean expression: +(operands-1).
	ConstructBoolean
	// ConstructBlock is a switch/select/match container: +0, nests.
	ConstructBlock
)

// Weight returns the complexity contribution of the construct. operands is
// only consulted for ConstructBoolean.
func (c Construct) Weight(operands int) int {
	switch c {
	case ConstructBranch, ConstructElif, ConstructCase, ConstructConditional,
		ConstructLoop, ConstructHandler, ConstructScope, ConstructFilter:
		return 1
	case ConstructBoolean:
		if operands < 2 {
			return 0
		}
		return operands - 1
	}
	return 0
}

// Nests reports whether the construct opens a nesting level.
func (c Construct) Nests() bool {
	switch c {
	case ConstructBranch, ConstructLoop, ConstructTry, ConstructScope, ConstructBlock:
		return true
	}
	return false
}

// scorer accumulates cyclomatic complexity and maximum nesting depth for a
// single function body. Complexity starts at 1; depth starts at 0 (the
// function's own scope is not counted).
type scorer struct {
	complexity int
	depth      int
	maxDepth   int
}

func newScorer() *scorer {
	return &scorer{complexity: 1}
}

// enter records c and returns true when the caller must call leave after
// visiting the construct's children.
func (s *scorer) enter(c Construct, operands int) bool {
	s.count(c, operands)
	if !c.Nests() {
		return false
	}
	s.nest()
	return true
}

// count adds the weight of c without opening a nesting level.
func (s *scorer) count(c Construct, operands int) {
	s.complexity += c.Weight(operands)
}

// nest opens a nesting level; callers close it with leave.
func (s *scorer) nest() {
	s.depth++
	if s.depth > s.maxDepth {
		s.maxDepth = s.depth
	}
}

func (s *scorer) leave() {
	if s.depth > 0 {
		s.depth--
	}
}

// MaxHashDepth bounds the syntax depth included in a structure hash.
const MaxHashDepth = 15

// shapeHasher builds a structure hash from a pre-order sequence of
// (depth, node-kind) pairs. Names and literal values never enter the hash.
type shapeHasher struct {
	digest *xxhash.Digest
	nodes  int
}

func newShapeHasher() *shapeHasher {
	return &shapeHasher{digest: xxhash.New()}
}

// add records one node. Nodes deeper than MaxHashDepth are ignored and
// add reports false so callers can stop descending.
func (h *shapeHasher) add(depth int, kind string) bool {
	if depth > MaxHashDepth {
		return false
	}
	h.nodes++
	_, _ = h.digest.WriteString(strconv.Itoa(depth))
	_, _ = h.digest.WriteString(":")
	_, _ = h.digest.WriteString(kind)
	_, _ = h.digest.WriteString(";")
	return true
}

// sum returns the hex digest, or "" if no node was recorded.
func (h *shapeHasher) sum() string {
	if h.nodes == 0 {
		return ""
	}
	var buf [8]byte
	return hex.EncodeToString(h.digest.Sum(buf[:0]))
}
