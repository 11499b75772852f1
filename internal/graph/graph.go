package graph

import (
	"sort"

	"github.com/google/uuid"

	"github.com/negaga53/codecompass/internal/parser"
	"github.com/negaga53/codecompass/internal/resolve"
	"github.com/negaga53/codecompass/internal/scanner"
)

// ImportEdge is a resolved import from one module to a target.
type ImportEdge = resolve.Edge

// Module is one parsed source file.
type Module struct {
	ID             string   `json:"id"`
	Path           string   `json:"path"`
	Language       string   `json:"language"`
	Symbols        []string `json:"symbols"` // symbol IDs in declaration order
	Degraded       bool     `json:"degraded,omitempty"`
	DegradedReason string   `json:"degraded_reason,omitempty"`
	Hash           string   `json:"hash,omitempty"`
	PageRank       float64  `json:"page_rank"` // importance within the internal import graph
}

// Input is the fully materialized output of the parse phase.
type Input struct {
	Root    string
	Files   []scanner.FileRecord
	Modules []Module
	Symbols []parser.Symbol
	Edges   []ImportEdge
}

// KnowledgeGraph is the immutable result of a build. It has no mutation API;
// accessors return copies so concurrent readers never observe changes.
type KnowledgeGraph struct {
	buildID string
	root    string
	files   []scanner.FileRecord

	modules   map[string]*Module
	moduleIDs []string
	byPath    map[string]string

	symbols     map[string]parser.Symbol
	symbolIDs   []string
	byName      map[string][]string // local name -> symbol IDs
	byQualified map[string][]string // qualified name -> symbol IDs

	edges    []ImportEdge
	outgoing map[string][]int    // module ID -> edge indexes, source order
	incoming map[string][]string // module ID -> internal importers, sorted
}

// Build is the single-threaded barrier that assembles the graph. Modules and
// symbols with duplicate IDs keep their first occurrence; edges are
// deduplicated by (source, raw text).
func Build(in Input) *KnowledgeGraph {
	g := &KnowledgeGraph{
		buildID:     uuid.NewString(),
		root:        in.Root,
		files:       append([]scanner.FileRecord(nil), in.Files...),
		modules:     make(map[string]*Module, len(in.Modules)),
		byPath:      make(map[string]string, len(in.Modules)),
		symbols:     make(map[string]parser.Symbol, len(in.Symbols)),
		byName:      make(map[string][]string),
		byQualified: make(map[string][]string),
		outgoing:    make(map[string][]int),
		incoming:    make(map[string][]string),
	}

	// First pass: modules
	for _, mod := range in.Modules {
		if _, exists := g.modules[mod.ID]; exists {
			continue
		}
		copied := mod
		copied.Symbols = make([]string, 0)
		g.modules[mod.ID] = &copied
		g.byPath[mod.Path] = mod.ID
		g.moduleIDs = append(g.moduleIDs, mod.ID)
	}
	sort.Strings(g.moduleIDs)

	// Second pass: symbols and name indexes
	for _, sym := range in.Symbols {
		if _, exists := g.symbols[sym.ID]; exists {
			continue
		}
		g.symbols[sym.ID] = sym
		g.symbolIDs = append(g.symbolIDs, sym.ID)
		g.byName[sym.Name] = append(g.byName[sym.Name], sym.ID)
		g.byQualified[sym.QualifiedName] = append(g.byQualified[sym.QualifiedName], sym.ID)
		if mod, ok := g.modules[sym.Module]; ok {
			mod.Symbols = append(mod.Symbols, sym.ID)
		}
	}
	sort.Strings(g.symbolIDs)
	for name, ids := range g.byName {
		g.byName[name] = g.sortSymbolIDs(ids)
	}
	for name, ids := range g.byQualified {
		g.byQualified[name] = g.sortSymbolIDs(ids)
	}

	// Third pass: edges and the reverse index
	g.edges = dedupeEdges(in.Edges)
	for i, edge := range g.edges {
		g.outgoing[edge.Source] = append(g.outgoing[edge.Source], i)
		if edge.Kind == resolve.EdgeInternal {
			g.incoming[edge.Target] = append(g.incoming[edge.Target], edge.Source)
		}
	}
	for target, sources := range g.incoming {
		g.incoming[target] = dedupeAndSort(sources)
	}

	g.calculatePageRank(20, 0.85)
	return g
}

func dedupeEdges(values []ImportEdge) []ImportEdge {
	sorted := append([]ImportEdge(nil), values...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Source != sorted[j].Source {
			return sorted[i].Source < sorted[j].Source
		}
		if sorted[i].Line != sorted[j].Line {
			return sorted[i].Line < sorted[j].Line
		}
		return sorted[i].Raw < sorted[j].Raw
	})

	type edgeKey struct{ source, raw string }
	index := make(map[edgeKey]int, len(sorted))
	out := make([]ImportEdge, 0, len(sorted))
	for _, edge := range sorted {
		key := edgeKey{edge.Source, edge.Raw}
		if at, exists := index[key]; exists {
			out[at].Names = mergeNames(out[at].Names, edge.Names)
			continue
		}
		edge.Names = append([]string(nil), edge.Names...)
		index[key] = len(out)
		out = append(out, edge)
	}
	return out
}

func mergeNames(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, name := range dst {
		seen[name] = true
	}
	for _, name := range src {
		if !seen[name] {
			seen[name] = true
			dst = append(dst, name)
		}
	}
	return dst
}

// sortSymbolIDs orders symbols by module, then line, then ID.
func (g *KnowledgeGraph) sortSymbolIDs(ids []string) []string {
	ids = dedupeAndSort(ids)
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := g.symbols[ids[i]], g.symbols[ids[j]]
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		return ids[i] < ids[j]
	})
	return ids
}

// calculatePageRank scores modules over internal import edges. Modules are
// visited in ID order so scores are reproducible.
func (g *KnowledgeGraph) calculatePageRank(iterations int, dampingFactor float64) {
	n := float64(len(g.moduleIDs))
	if n == 0 {
		return
	}

	outDegree := make(map[string]float64, len(g.moduleIDs))
	for _, sources := range g.incoming {
		for _, source := range sources {
			outDegree[source]++
		}
	}

	ranks := make(map[string]float64, len(g.moduleIDs))
	for _, id := range g.moduleIDs {
		ranks[id] = 1.0 / n
	}

	for i := 0; i < iterations; i++ {
		newRanks := make(map[string]float64, len(ranks))
		for _, id := range g.moduleIDs {
			rank := (1 - dampingFactor) / n

			// Sum contributions from incoming edges
			for _, inID := range g.incoming[id] {
				if degree := outDegree[inID]; degree > 0 {
					rank += dampingFactor * (ranks[inID] / degree)
				}
			}
			newRanks[id] = rank
		}
		ranks = newRanks
	}

	for id, rank := range ranks {
		g.modules[id].PageRank = rank
	}
}

func dedupeAndSort(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}
