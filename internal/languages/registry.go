package languages

import "github.com/negaga53/codecompass/internal/parser"

// NewDefaultRegistry creates a registry with all supported language parsers
func NewDefaultRegistry() *parser.Registry {
	r := parser.NewRegistry()

	r.Register(NewPythonParser())

	return r
}
