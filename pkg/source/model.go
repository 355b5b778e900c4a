package source

// Fidelity describes how precisely a front-end located declarations.
type Fidelity string

const (
	// FidelityFull means a complete grammar produced the record.
	FidelityFull Fidelity = "full"
	// FidelityApproximate means boundary scanning produced the record;
	// end lines may be off and fields are best-effort.
	FidelityApproximate Fidelity = "approximate"
)

// StructuralFile is the unified structural record of one source file.
// A file that fails to parse still yields a StructuralFile, with the
// failure recorded in Errors.
type StructuralFile struct {
	Path      string           `json:"path"`
	Module    string           `json:"module"`
	Language  Language         `json:"language"`
	Fidelity  Fidelity         `json:"fidelity"`
	Functions []FunctionRecord `json:"functions"`
	Classes   []ClassRecord    `json:"classes"`
	Imports   []ImportRecord   `json:"imports"`
	Lines     int              `json:"lines"`
	Errors    []string         `json:"errors,omitempty"`
}

// HasErrors reports whether any parse error was recorded.
func (f *StructuralFile) HasErrors() bool {
	return len(f.Errors) > 0
}

// FunctionRecord describes a function or method.
type FunctionRecord struct {
	Name          string   `json:"name"`
	File          string   `json:"file"`
	Class         string   `json:"class,omitempty"`
	StartLine     int      `json:"start_line"`
	EndLine       int      `json:"end_line"`
	Params        []string `json:"params"`
	ReturnType    string   `json:"return_type,omitempty"`
	Complexity    int      `json:"complexity"`
	Nesting       int      `json:"nesting"`
	Async         bool     `json:"async,omitempty"`
	Calls         []string `json:"calls,omitempty"`
	StructureHash string   `json:"structure_hash,omitempty"`
}

// Lines returns the inclusive line span of the function.
func (f FunctionRecord) Lines() int {
	if f.EndLine < f.StartLine {
		return 1
	}
	return f.EndLine - f.StartLine + 1
}

// QualifiedName returns Class.Name for methods and Name otherwise.
func (f FunctionRecord) QualifiedName() string {
	if f.Class != "" {
		return f.Class + "." + f.Name
	}
	return f.Name
}

// ClassRecord describes a class, struct, interface or equivalent.
type ClassRecord struct {
	Name         string   `json:"name"`
	File         string   `json:"file"`
	StartLine    int      `json:"start_line"`
	EndLine      int      `json:"end_line"`
	Methods      []string `json:"methods"`
	Fields       []string `json:"fields"`
	Bases        []string `json:"bases,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// ImportRecord is one import or include relation.
type ImportRecord struct {
	Module   string   `json:"module"`
	Names    []string `json:"names,omitempty"`
	Relative bool     `json:"relative,omitempty"`
	Alias    string   `json:"alias,omitempty"`
}
