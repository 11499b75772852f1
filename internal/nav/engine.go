// Package nav answers read-only questions about a built KnowledgeGraph:
// module dependencies and dependents, symbol lookup, import paths and
// traces, and stale documentation references.
package nav

import (
	"path"
	"sort"
	"strings"
	"time"

	"github.com/negaga53/codecompass/internal/diag"
	"github.com/negaga53/codecompass/internal/graph"
	"github.com/negaga53/codecompass/internal/metrics"
	"github.com/negaga53/codecompass/internal/parser"
	"github.com/negaga53/codecompass/internal/resolve"
	"github.com/negaga53/codecompass/internal/search"
)

// Engine runs queries against one immutable graph. It holds no mutable
// state after NewEngine returns and is safe for concurrent use.
type Engine struct {
	g       *graph.KnowledgeGraph
	index   *search.Index
	metrics *metrics.Metrics
}

type Option func(*Engine)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(g *graph.KnowledgeGraph, opts ...Option) *Engine {
	e := &Engine{g: g, index: search.Build(g)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Graph() *graph.KnowledgeGraph { return e.g }

// ResolveModule accepts a module ID or a relative file path and returns the
// module ID.
func (e *Engine) ResolveModule(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if _, ok := e.g.Module(arg); ok {
		return arg, nil
	}
	cleaned := path.Clean(strings.ReplaceAll(arg, "\\", "/"))
	if mod, ok := e.g.ModuleByPath(cleaned); ok {
		return mod.ID, nil
	}
	return "", &diag.NotFoundError{Entity: "module", ID: arg}
}

// Dependencies returns the distinct targets a module imports, in source
// order. Internal, external and unresolved targets are all included.
func (e *Engine) Dependencies(id string) ([]Target, error) {
	start := time.Now()
	moduleID, err := e.ResolveModule(id)
	if err != nil {
		e.observe("dependencies", start, 0, err)
		return nil, err
	}

	targets := make([]Target, 0)
	seen := make(map[string]int)
	for _, edge := range e.g.Outgoing(moduleID) {
		key := string(edge.Kind) + "\x00" + edge.Target
		if at, ok := seen[key]; ok {
			targets[at].Names = appendDistinct(targets[at].Names, edge.Names...)
			continue
		}
		seen[key] = len(targets)
		targets = append(targets, Target{
			Module:     edge.Target,
			Kind:       edge.Kind,
			Confidence: edge.Confidence,
			Raw:        edge.Raw,
			Names:      edge.Names,
			Line:       edge.Line,
		})
	}
	e.observe("dependencies", start, len(targets), nil)
	return targets, nil
}

// Dependents returns the sorted modules that import id. A module nobody
// imports yields an empty list, not an error.
func (e *Engine) Dependents(id string) ([]string, error) {
	start := time.Now()
	moduleID, err := e.ResolveModule(id)
	if err != nil {
		e.observe("dependents", start, 0, err)
		return nil, err
	}
	importers := e.g.Importers(moduleID)
	e.observe("dependents", start, len(importers), nil)
	return importers, nil
}

// LookupSymbol matches q by exact ID, qualified name, module-qualified full
// name, dotted suffix and finally local name. Earlier rules rank first;
// ties within a rule are ordered by module then line.
func (e *Engine) LookupSymbol(q string) []SymbolMatch {
	return e.LookupSymbolWithOptions(q, ResolveOptions{})
}

// LookupSymbolWithOptions is LookupSymbol with an optional fuzzy fallback
// and a result limit.
func (e *Engine) LookupSymbolWithOptions(q string, opts ResolveOptions) []SymbolMatch {
	start := time.Now()
	matches := e.lookup(q)
	if len(matches) == 0 && opts.Fuzzy {
		matches = e.fuzzy(q, opts.Limit)
	}
	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	e.observe("lookup_symbol", start, len(matches), nil)
	return matches
}

func (e *Engine) lookup(q string) []SymbolMatch {
	q = strings.TrimSuffix(strings.TrimSpace(q), "()")
	matches := make([]SymbolMatch, 0)
	if q == "" {
		return matches
	}

	seen := make(map[string]bool)
	add := func(kind MatchKind, symbols ...parser.Symbol) {
		tier := make([]parser.Symbol, 0, len(symbols))
		for _, sym := range symbols {
			if !seen[sym.ID] {
				seen[sym.ID] = true
				tier = append(tier, sym)
			}
		}
		sortByModuleLine(tier)
		for _, sym := range tier {
			matches = append(matches, SymbolMatch{Symbol: e.record(sym), Match: kind})
		}
	}

	if sym, ok := e.g.Symbol(q); ok {
		add(MatchID, sym)
	}
	add(MatchQualified, e.g.SymbolsQualified(q)...)

	full := make([]parser.Symbol, 0)
	for i := strings.Index(q, "."); i >= 0; {
		if sym, ok := e.g.Symbol(parser.SymbolID(q[:i], q[i+1:])); ok {
			full = append(full, sym)
		}
		next := strings.Index(q[i+1:], ".")
		if next < 0 {
			break
		}
		i += next + 1
	}
	add(MatchFullName, full...)

	suffix := make([]parser.Symbol, 0)
	for _, sym := range e.g.Symbols() {
		if strings.HasSuffix(sym.Module+"."+sym.QualifiedName, "."+q) {
			suffix = append(suffix, sym)
		}
	}
	add(MatchSuffix, suffix...)

	add(MatchName, e.g.SymbolsNamed(q)...)
	return matches
}

func (e *Engine) fuzzy(q string, limit int) []SymbolMatch {
	results := search.Search(e.index, q, limit)
	matches := make([]SymbolMatch, 0, len(results))
	for _, result := range results {
		if sym, ok := e.g.Symbol(result.ID); ok {
			matches = append(matches, SymbolMatch{Symbol: e.record(sym), Match: MatchFuzzy, Score: result.Score})
		}
	}
	return matches
}

// Search runs a ranked free-text query over symbol names, signatures, files
// and docstrings.
func (e *Engine) Search(query string, limit int) []SymbolMatch {
	start := time.Now()
	matches := e.fuzzy(query, limit)
	e.observe("search_symbols", start, len(matches), nil)
	return matches
}

func (e *Engine) record(sym parser.Symbol) SymbolRecord {
	record := SymbolRecord{
		ID:            sym.ID,
		Name:          sym.Name,
		QualifiedName: sym.QualifiedName,
		Kind:          string(sym.Kind),
		Module:        sym.Module,
		Line:          sym.StartLine,
		EndLine:       sym.EndLine,
		Signature:     sym.Signature,
	}
	if mod, ok := e.g.Module(sym.Module); ok {
		record.File = mod.Path
	}
	return record
}

func (e *Engine) observe(operation string, start time.Time, n int, err error) {
	result := "ok"
	switch {
	case err != nil:
		result = "not_found"
	case n == 0:
		result = "empty"
	}
	e.metrics.ObserveQuery(operation, result, time.Since(start))
}

func sortByModuleLine(symbols []parser.Symbol) {
	sort.SliceStable(symbols, func(i, j int) bool {
		if symbols[i].Module != symbols[j].Module {
			return symbols[i].Module < symbols[j].Module
		}
		if symbols[i].StartLine != symbols[j].StartLine {
			return symbols[i].StartLine < symbols[j].StartLine
		}
		return symbols[i].ID < symbols[j].ID
	})
}

func appendDistinct(dst []string, values ...string) []string {
	for _, value := range values {
		found := false
		for _, existing := range dst {
			if existing == value {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, value)
		}
	}
	return dst
}

func internalTargets(g *graph.KnowledgeGraph, moduleID string) []graph.ImportEdge {
	out := make([]graph.ImportEdge, 0)
	for _, edge := range g.Outgoing(moduleID) {
		if edge.Kind == resolve.EdgeInternal {
			out = append(out, edge)
		}
	}
	return out
}
