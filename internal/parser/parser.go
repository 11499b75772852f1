package parser

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/negaga53/codecompass/internal/fileutil"
)

// LanguageParser defines the interface each language must implement
type LanguageParser interface {
	// Language returns the language name (e.g., "python")
	Language() string

	// Extensions returns file extensions this parser handles
	Extensions() []string

	// Parse extracts symbols and imports from source code. A returned error
	// means no tree was produced; syntax errors are reported through
	// FileSymbols.Degraded instead.
	Parse(ctx context.Context, filename string, content []byte) (*FileSymbols, error)
}

// Registry holds all registered language parsers
type Registry struct {
	parsers   map[string]LanguageParser // language name -> parser
	extToLang map[string]string         // extension -> language name
}

// NewRegistry creates a new parser registry
func NewRegistry() *Registry {
	return &Registry{
		parsers:   make(map[string]LanguageParser),
		extToLang: make(map[string]string),
	}
}

// Register adds a language parser to the registry
func (r *Registry) Register(p LanguageParser) {
	lang := p.Language()
	r.parsers[lang] = p
	for _, ext := range p.Extensions() {
		r.extToLang[strings.ToLower(ext)] = lang
	}
}

// GetParserForFile returns the appropriate parser for a file
func (r *Registry) GetParserForFile(filename string) (LanguageParser, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	lang, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	parser, ok := r.parsers[lang]
	return parser, ok
}

// Supports reports whether some registered parser handles filename.
func (r *Registry) Supports(filename string) bool {
	_, ok := r.GetParserForFile(filename)
	return ok
}

// ParseContent parses already-loaded content with the parser for filename.
func (r *Registry) ParseContent(ctx context.Context, filename string, content []byte) (*FileSymbols, error) {
	parser, ok := r.GetParserForFile(filename)
	if !ok {
		return nil, nil
	}
	return r.parseContent(ctx, parser, filename, content)
}

func (r *Registry) parseContent(ctx context.Context, parser LanguageParser, relPath string, content []byte) (*FileSymbols, error) {
	symbols, err := parser.Parse(ctx, relPath, content)
	if err != nil {
		return nil, err
	}

	symbols.Path = relPath
	symbols.Language = parser.Language()
	symbols.Imports = normalizeImports(symbols.Imports)
	symbols.Symbols = dedupeSymbols(symbols.Symbols)
	symbols.Hash = fileutil.HashBytes(content)

	return symbols, nil
}

// normalizeImports trims raw text and drops empty entries. Source order is
// preserved; duplicates are left for the graph builder to collapse.
func normalizeImports(values []Import) []Import {
	if len(values) == 0 {
		return nil
	}

	out := make([]Import, 0, len(values))
	for _, value := range values {
		value.Raw = strings.TrimSpace(value.Raw)
		value.Alias = strings.TrimSpace(value.Alias)
		if value.Raw == "" {
			continue
		}
		value.Level = Raw(value.Raw).Level()
		out = append(out, value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// dedupeSymbols keeps the first declaration of each qualified name.
func dedupeSymbols(values []Symbol) []Symbol {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(values))
	out := make([]Symbol, 0, len(values))
	for _, value := range values {
		value.Name = strings.TrimSpace(value.Name)
		if value.Name == "" {
			continue
		}
		if value.QualifiedName == "" {
			value.QualifiedName = value.Name
		}
		if seen[value.QualifiedName] {
			continue
		}
		seen[value.QualifiedName] = true
		out = append(out, value)
	}
	return out
}
