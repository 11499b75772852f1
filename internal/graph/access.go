package graph

import (
	"sort"

	"github.com/negaga53/codecompass/internal/parser"
	"github.com/negaga53/codecompass/internal/resolve"
	"github.com/negaga53/codecompass/internal/scanner"
)

// Stats summarizes a graph for run reports.
type Stats struct {
	Files              int `json:"files"`
	Modules            int `json:"modules"`
	DegradedModules    int `json:"degraded_modules"`
	Symbols            int `json:"symbols"`
	Edges              int `json:"edges"`
	InternalEdges      int `json:"internal_edges"`
	ExternalEdges      int `json:"external_edges"`
	UnresolvedEdges    int `json:"unresolved_edges"`
	AmbiguousEdges     int `json:"ambiguous_edges"`
	ExternalPackages   int `json:"external_packages"`
	TruncatedFiles     int `json:"truncated_files"`
	DocumentationFiles int `json:"documentation_files"`
}

func (g *KnowledgeGraph) BuildID() string { return g.buildID }

func (g *KnowledgeGraph) Root() string { return g.root }

// Files returns the scanned file records in walk order.
func (g *KnowledgeGraph) Files() []scanner.FileRecord {
	return append([]scanner.FileRecord(nil), g.files...)
}

// Module returns a copy of the module with the given ID.
func (g *KnowledgeGraph) Module(id string) (Module, bool) {
	mod, ok := g.modules[id]
	if !ok {
		return Module{}, false
	}
	return copyModule(mod), true
}

// ModuleByPath returns the module parsed from a relative file path.
func (g *KnowledgeGraph) ModuleByPath(relPath string) (Module, bool) {
	id, ok := g.byPath[relPath]
	if !ok {
		return Module{}, false
	}
	return g.Module(id)
}

// Modules returns every module sorted by ID.
func (g *KnowledgeGraph) Modules() []Module {
	out := make([]Module, 0, len(g.moduleIDs))
	for _, id := range g.moduleIDs {
		out = append(out, copyModule(g.modules[id]))
	}
	return out
}

// ModuleIDs returns every module ID, sorted.
func (g *KnowledgeGraph) ModuleIDs() []string {
	return append([]string(nil), g.moduleIDs...)
}

// Symbol returns the symbol with the given ID.
func (g *KnowledgeGraph) Symbol(id string) (parser.Symbol, bool) {
	sym, ok := g.symbols[id]
	return sym, ok
}

// Symbols returns every symbol sorted by ID.
func (g *KnowledgeGraph) Symbols() []parser.Symbol {
	out := make([]parser.Symbol, 0, len(g.symbolIDs))
	for _, id := range g.symbolIDs {
		out = append(out, g.symbols[id])
	}
	return out
}

// SymbolsOf returns a module's symbols in declaration order.
func (g *KnowledgeGraph) SymbolsOf(moduleID string) []parser.Symbol {
	mod, ok := g.modules[moduleID]
	if !ok {
		return nil
	}
	out := make([]parser.Symbol, 0, len(mod.Symbols))
	for _, id := range mod.Symbols {
		out = append(out, g.symbols[id])
	}
	return out
}

// SymbolsNamed returns every symbol with the local name, ordered by module
// then line. Collisions are all kept.
func (g *KnowledgeGraph) SymbolsNamed(name string) []parser.Symbol {
	return g.lookup(g.byName[name])
}

// SymbolsQualified returns every symbol with the qualified name.
func (g *KnowledgeGraph) SymbolsQualified(qualifiedName string) []parser.Symbol {
	return g.lookup(g.byQualified[qualifiedName])
}

func (g *KnowledgeGraph) lookup(ids []string) []parser.Symbol {
	out := make([]parser.Symbol, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.symbols[id])
	}
	return out
}

// Edges returns every deduplicated edge ordered by source, then line.
func (g *KnowledgeGraph) Edges() []ImportEdge {
	out := make([]ImportEdge, 0, len(g.edges))
	for _, edge := range g.edges {
		out = append(out, copyEdge(edge))
	}
	return out
}

// Outgoing returns a module's edges in source order.
func (g *KnowledgeGraph) Outgoing(moduleID string) []ImportEdge {
	indexes := g.outgoing[moduleID]
	out := make([]ImportEdge, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, copyEdge(g.edges[i]))
	}
	return out
}

// Importers returns the sorted modules with an internal edge to moduleID.
func (g *KnowledgeGraph) Importers(moduleID string) []string {
	return append(make([]string, 0, len(g.incoming[moduleID])), g.incoming[moduleID]...)
}

// ExternalPackages returns the distinct opaque external names, sorted.
func (g *KnowledgeGraph) ExternalPackages() []string {
	names := make([]string, 0)
	for _, edge := range g.edges {
		if edge.Kind == resolve.EdgeExternal {
			names = append(names, edge.Target)
		}
	}
	return dedupeAndSort(names)
}

// TopModules returns the most imported modules by PageRank.
func (g *KnowledgeGraph) TopModules(n int) []Module {
	modules := g.Modules()
	sort.SliceStable(modules, func(i, j int) bool {
		if modules[i].PageRank == modules[j].PageRank {
			return modules[i].ID < modules[j].ID
		}
		return modules[i].PageRank > modules[j].PageRank
	})

	if n > len(modules) {
		n = len(modules)
	}
	return modules[:n]
}

// Stats counts graph contents.
func (g *KnowledgeGraph) Stats() Stats {
	stats := Stats{
		Files:            len(g.files),
		Modules:          len(g.moduleIDs),
		Symbols:          len(g.symbolIDs),
		Edges:            len(g.edges),
		ExternalPackages: len(g.ExternalPackages()),
	}
	for _, mod := range g.modules {
		if mod.Degraded {
			stats.DegradedModules++
		}
	}
	for _, edge := range g.edges {
		switch edge.Kind {
		case resolve.EdgeInternal:
			stats.InternalEdges++
		case resolve.EdgeExternal:
			stats.ExternalEdges++
		case resolve.EdgeUnresolved:
			stats.UnresolvedEdges++
		}
		if edge.Confidence == resolve.ConfidenceAmbiguous {
			stats.AmbiguousEdges++
		}
	}
	for _, file := range g.files {
		if file.Truncated {
			stats.TruncatedFiles++
		}
		if file.Category == scanner.CategoryDoc {
			stats.DocumentationFiles++
		}
	}
	return stats
}

func copyModule(mod *Module) Module {
	out := *mod
	out.Symbols = append([]string(nil), mod.Symbols...)
	return out
}

func copyEdge(edge ImportEdge) ImportEdge {
	edge.Names = append([]string(nil), edge.Names...)
	return edge
}
