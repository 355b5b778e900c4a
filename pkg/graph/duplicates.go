package graph

import "github.com/simonhull/heron/pkg/source"

// DefaultMinDuplicateLines excludes one-liners and trivial accessors, whose
// shapes collide constantly.
const DefaultMinDuplicateLines = 6

// FunctionRef locates one function taking part in a duplicate pair.
type FunctionRef struct {
	File      string `json:"file"`
	Module    string `json:"module"`
	Name      string `json:"name"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// DuplicatePair is two functions in different files whose structure hashes
// are identical.
type DuplicatePair struct {
	Hash  string      `json:"hash"`
	Left  FunctionRef `json:"left"`
	Right FunctionRef `json:"right"`
	Lines int         `json:"lines"` // the shorter of the two spans
	Group int         `json:"group"` // size of the hash group the pair came from
}

// FindDuplicates groups functions spanning at least minLines lines by
// structure hash and returns every cross-file pair in each group. Pairs
// within one file are never reported. Groups are ordered by first
// appearance, so the result follows the order of files.
func FindDuplicates(files []*source.StructuralFile, minLines int) []DuplicatePair {
	if minLines <= 0 {
		minLines = DefaultMinDuplicateLines
	}

	type member struct {
		ref   FunctionRef
		lines int
	}
	groups := make(map[string][]member)
	order := make([]string, 0)

	for _, f := range files {
		for _, fn := range f.Functions {
			if fn.StructureHash == "" || fn.Lines() < minLines {
				continue
			}
			if _, seen := groups[fn.StructureHash]; !seen {
				order = append(order, fn.StructureHash)
			}
			groups[fn.StructureHash] = append(groups[fn.StructureHash], member{
				ref: FunctionRef{
					File:      f.Path,
					Module:    f.Module,
					Name:      fn.QualifiedName(),
					StartLine: fn.StartLine,
					EndLine:   fn.EndLine,
				},
				lines: fn.Lines(),
			})
		}
	}

	pairs := make([]DuplicatePair, 0)
	for _, hash := range order {
		members := groups[hash]
		if len(members) < 2 {
			continue
		}
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				if members[i].ref.File == members[j].ref.File {
					continue
				}
				pairs = append(pairs, DuplicatePair{
					Hash:  hash,
					Left:  members[i].ref,
					Right: members[j].ref,
					Lines: min(members[i].lines, members[j].lines),
					Group: len(members),
				})
			}
		}
	}
	return pairs
}
