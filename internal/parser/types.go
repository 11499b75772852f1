package parser

// SymbolKind is an open set of declaration kinds. New languages may add
// values without touching consumers.
type SymbolKind string

const (
	SymbolFunction SymbolKind = "function"
	SymbolMethod   SymbolKind = "method"
	SymbolClass    SymbolKind = "class"
	SymbolConstant SymbolKind = "constant"
	SymbolVariable SymbolKind = "variable"
)

func (k SymbolKind) String() string {
	return string(k)
}

// Symbol represents a named declaration inside a module.
type Symbol struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	QualifiedName string     `json:"qualified_name"` // lexical nesting, e.g. Class.method
	Kind          SymbolKind `json:"kind"`
	Module        string     `json:"module"`
	StartLine     int        `json:"start_line"`
	EndLine       int        `json:"end_line"`
	Signature     string     `json:"signature,omitempty"`
	Doc           string     `json:"doc,omitempty"`
}

// ImportName is one name bound by a from-import.
type ImportName struct {
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
}

// Import is a single import statement target as written in source.
type Import struct {
	Raw   string       `json:"raw"`   // normalized text including leading dots, e.g. "..pkg"
	Level int          `json:"level"` // number of leading dots
	Alias string       `json:"alias,omitempty"`
	Names []ImportName `json:"names,omitempty"`
	Line  int          `json:"line"`
}

// Raw is normalized import text.
type Raw string

// Module strips leading dots.
func (r Raw) Module() string {
	s := string(r)
	for len(s) > 0 && s[0] == '.' {
		s = s[1:]
	}
	return s
}

// Level counts leading dots.
func (r Raw) Level() int {
	level := 0
	for level < len(r) && r[level] == '.' {
		level++
	}
	return level
}

// FileSymbols holds everything extracted from a single file.
type FileSymbols struct {
	Path     string   `json:"path"`
	Language string   `json:"language"`
	Symbols  []Symbol `json:"symbols"`
	Imports  []Import `json:"imports"` // source order
	Degraded bool     `json:"degraded,omitempty"`
	// DegradedReason explains partial extraction when Degraded is set.
	DegradedReason string `json:"degraded_reason,omitempty"`
	Hash           string `json:"hash"`
}
