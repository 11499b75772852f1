package nav

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/negaga53/codecompass/internal/diag"
	"github.com/negaga53/codecompass/internal/docrefs"
	"github.com/negaga53/codecompass/internal/graph"
	"github.com/negaga53/codecompass/internal/metrics"
	"github.com/negaga53/codecompass/internal/parser"
	"github.com/negaga53/codecompass/internal/resolve"
	"github.com/negaga53/codecompass/internal/scanner"
)

func internal(source, raw, target string, line int, names ...string) graph.ImportEdge {
	return graph.ImportEdge{Source: source, Raw: raw, Target: target, Kind: resolve.EdgeInternal, Confidence: resolve.ConfidenceResolved, Names: names, Line: line}
}

func sampleGraph(t *testing.T, extraFiles ...string) *graph.KnowledgeGraph {
	t.Helper()
	paths := []string{"README.md", "app/__init__.py", "app/jobs.py", "app/lonely.py", "app/main.py", "app/models.py", "app/util.py", "docs/guide.md"}
	paths = append(paths, extraFiles...)
	files := make([]scanner.FileRecord, 0, len(paths))
	for _, p := range paths {
		files = append(files, scanner.Classify(p))
	}

	return graph.Build(graph.Input{
		Root:  t.TempDir(),
		Files: files,
		Modules: []graph.Module{
			{ID: "app", Path: "app/__init__.py", Language: "python"},
			{ID: "app.jobs", Path: "app/jobs.py", Language: "python"},
			{ID: "app.lonely", Path: "app/lonely.py", Language: "python"},
			{ID: "app.main", Path: "app/main.py", Language: "python"},
			{ID: "app.models", Path: "app/models.py", Language: "python"},
			{ID: "app.util", Path: "app/util.py", Language: "python"},
		},
		Symbols: []parser.Symbol{
			{ID: "app.jobs:Worker", Name: "Worker", QualifiedName: "Worker", Kind: parser.SymbolClass, Module: "app.jobs", StartLine: 1},
			{ID: "app.jobs:Worker.run", Name: "run", QualifiedName: "Worker.run", Kind: parser.SymbolMethod, Module: "app.jobs", StartLine: 3},
			{ID: "app.main:run", Name: "run", QualifiedName: "run", Kind: parser.SymbolFunction, Module: "app.main", StartLine: 5},
			{ID: "app.models:User", Name: "User", QualifiedName: "User", Kind: parser.SymbolClass, Module: "app.models", StartLine: 3},
			{ID: "app.models:User.save", Name: "save", QualifiedName: "User.save", Kind: parser.SymbolMethod, Module: "app.models", StartLine: 4},
			{ID: "app.util:helper", Name: "helper", QualifiedName: "helper", Kind: parser.SymbolFunction, Module: "app.util", StartLine: 1},
		},
		Edges: []graph.ImportEdge{
			internal("app.main", "app.models", "app.models", 1),
			internal("app.main", ".util", "app.util", 2, "helper"),
			{Source: "app.main", Raw: "requests", Target: "requests", Kind: resolve.EdgeExternal, Confidence: resolve.ConfidenceResolved, Line: 3},
			{Source: "app.main", Raw: "app.gone", Target: "app.gone", Kind: resolve.EdgeUnresolved, Confidence: resolve.ConfidenceUnresolved, Line: 4},
			internal("app.models", "app.main", "app.main", 1, "run"),
			internal("app.jobs", "app.util", "app.util", 1),
		},
	})
}

func TestDependenciesInSourceOrder(t *testing.T) {
	engine := NewEngine(sampleGraph(t))

	targets, err := engine.Dependencies("app.main")
	if err != nil {
		t.Fatalf("dependencies: %v", err)
	}
	got := make([]string, 0, len(targets))
	for _, target := range targets {
		got = append(got, target.Module+"/"+string(target.Kind))
	}
	want := []string{"app.models/internal", "app.util/internal", "requests/external", "app.gone/unresolved"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !reflect.DeepEqual(targets[1].Names, []string{"helper"}) {
		t.Fatalf("expected imported names, got %v", targets[1].Names)
	}

	byPath, err := engine.Dependencies("app/main.py")
	if err != nil || len(byPath) != len(targets) {
		t.Fatalf("expected file path to resolve to module, got %v, %v", byPath, err)
	}
}

func TestQueriesReturnTypedNotFound(t *testing.T) {
	engine := NewEngine(sampleGraph(t))

	_, err := engine.Dependencies("app.missing")
	if !errors.Is(err, diag.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf *diag.NotFoundError
	if !errors.As(err, &nf) || nf.Entity != "module" || nf.ID != "app.missing" {
		t.Fatalf("expected module NotFoundError, got %#v", err)
	}

	if _, err := engine.Dependents("nope"); !errors.Is(err, diag.ErrNotFound) {
		t.Fatalf("expected dependents NotFound, got %v", err)
	}
	if _, err := engine.Path("app.main", "nope"); !errors.Is(err, diag.ErrNotFound) {
		t.Fatalf("expected path NotFound, got %v", err)
	}
	if _, err := engine.Trace("nope", 2); !errors.Is(err, diag.ErrNotFound) {
		t.Fatalf("expected trace NotFound, got %v", err)
	}
}

func TestDependentsSortedAndEmpty(t *testing.T) {
	engine := NewEngine(sampleGraph(t))

	dependents, err := engine.Dependents("app.util")
	if err != nil {
		t.Fatalf("dependents: %v", err)
	}
	if !reflect.DeepEqual(dependents, []string{"app.jobs", "app.main"}) {
		t.Fatalf("unexpected dependents %v", dependents)
	}

	none, err := engine.Dependents("app.lonely")
	if err != nil {
		t.Fatalf("expected no error for module without importers, got %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty list, got %#v", none)
	}
}

func TestDependentsMirrorInternalDependencies(t *testing.T) {
	g := sampleGraph(t)
	engine := NewEngine(g)

	for _, source := range g.ModuleIDs() {
		targets, err := engine.Dependencies(source)
		if err != nil {
			t.Fatalf("dependencies %s: %v", source, err)
		}
		for _, target := range g.ModuleIDs() {
			forward := false
			for _, dep := range targets {
				if dep.Kind == resolve.EdgeInternal && dep.Module == target {
					forward = true
				}
			}
			dependents, err := engine.Dependents(target)
			if err != nil {
				t.Fatalf("dependents %s: %v", target, err)
			}
			reverse := false
			for _, dependent := range dependents {
				if dependent == source {
					reverse = true
				}
			}
			if forward != reverse {
				t.Fatalf("%s -> %s: forward=%v reverse=%v", source, target, forward, reverse)
			}
		}
	}
}

func TestLookupSymbolRanking(t *testing.T) {
	engine := NewEngine(sampleGraph(t))

	matches := engine.LookupSymbol("run")
	if len(matches) != 2 {
		t.Fatalf("expected both run symbols, got %#v", matches)
	}
	if matches[0].Symbol.ID != "app.main:run" || matches[0].Match != MatchQualified {
		t.Fatalf("expected top-level run first, got %#v", matches[0])
	}
	if matches[1].Symbol.ID != "app.jobs:Worker.run" || matches[1].Symbol.File != "app/jobs.py" {
		t.Fatalf("expected method second, got %#v", matches[1])
	}

	cases := []struct {
		query string
		id    string
		match MatchKind
	}{
		{query: "app.jobs:Worker.run", id: "app.jobs:Worker.run", match: MatchID},
		{query: "Worker.run", id: "app.jobs:Worker.run", match: MatchQualified},
		{query: "app.main.run", id: "app.main:run", match: MatchFullName},
		{query: "jobs.Worker.run", id: "app.jobs:Worker.run", match: MatchSuffix},
		{query: "helper()", id: "app.util:helper", match: MatchQualified},
		{query: "save", id: "app.models:User.save", match: MatchSuffix},
	}
	for _, tc := range cases {
		got := engine.LookupSymbol(tc.query)
		if len(got) == 0 {
			t.Fatalf("%s: expected a match", tc.query)
		}
		if got[0].Symbol.ID != tc.id || got[0].Match != tc.match {
			t.Fatalf("%s: expected %s via %s, got %#v", tc.query, tc.id, tc.match, got[0])
		}
	}

	if missing := engine.LookupSymbol("nothing_here"); missing == nil || len(missing) != 0 {
		t.Fatalf("expected empty list, got %#v", missing)
	}
}

func TestLookupSymbolFuzzyAndLimit(t *testing.T) {
	engine := NewEngine(sampleGraph(t))

	if exact := engine.LookupSymbol("helpr"); len(exact) != 0 {
		t.Fatalf("expected no exact match, got %#v", exact)
	}
	fuzzy := engine.LookupSymbolWithOptions("helpr", ResolveOptions{Fuzzy: true, Limit: 3})
	if len(fuzzy) == 0 || fuzzy[0].Symbol.ID != "app.util:helper" || fuzzy[0].Match != MatchFuzzy {
		t.Fatalf("expected fuzzy helper match, got %#v", fuzzy)
	}

	limited := engine.LookupSymbolWithOptions("run", ResolveOptions{Limit: 1})
	if len(limited) != 1 || limited[0].Symbol.ID != "app.main:run" {
		t.Fatalf("expected limit to keep the best match, got %#v", limited)
	}
}

func TestPathAndTraceHandleCycles(t *testing.T) {
	engine := NewEngine(sampleGraph(t))

	path, err := engine.Path("app.models", "app.util")
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if !reflect.DeepEqual(path, []string{"app.models", "app.main", "app.util"}) {
		t.Fatalf("unexpected path %v", path)
	}
	if none, _ := engine.Path("app.util", "app.main"); none != nil {
		t.Fatalf("expected no path, got %v", none)
	}
	if self, _ := engine.Path("app.main", "app.main"); !reflect.DeepEqual(self, []string{"app.main"}) {
		t.Fatalf("expected single-node path, got %v", self)
	}

	hops, err := engine.Trace("app.models", 5)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	got := make([]string, 0, len(hops))
	for _, hop := range hops {
		got = append(got, hop.From+">"+hop.To)
	}
	want := []string{"app.models>app.main", "app.main>app.models", "app.main>app.util"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if hops[0].Depth != 1 || hops[2].Depth != 2 {
		t.Fatalf("unexpected depths %#v", hops)
	}

	shallow, _ := engine.Trace("app.models", 1)
	if len(shallow) != 1 {
		t.Fatalf("expected depth bound to stop after one hop, got %#v", shallow)
	}
}

func TestDetectStaleDocs(t *testing.T) {
	engine := NewEngine(sampleGraph(t))

	refs := []docrefs.DocReference{
		{Doc: "README.md", Line: 3, Kind: docrefs.KindPath, Value: "src/old_module.ext"},
		{Doc: "README.md", Line: 4, Kind: docrefs.KindPath, Value: "app/main.py"},
		{Doc: "README.md", Line: 5, Kind: docrefs.KindSymbol, Value: "Worker.run"},
		{Doc: "README.md", Line: 6, Kind: docrefs.KindSymbol, Value: "requests.get"},
		{Doc: "README.md", Line: 7, Kind: docrefs.KindSymbol, Value: "Service.stop"},
		{Doc: "README.md", Line: 8, Kind: docrefs.KindCommand, Value: "pip install"},
		{Doc: "README.md", Line: 9, Kind: docrefs.KindPath, Value: "src/old_module.ext"},
		{Doc: "docs/guide.md", Line: 1, Kind: docrefs.KindPath, Value: "../app/util.py"},
	}

	entries := engine.DetectStaleDocs(refs)
	if len(entries) != 3 {
		t.Fatalf("expected three stale entries, got %#v", entries)
	}
	if entries[0].Reference.Value != "src/old_module.ext" || entries[0].Reference.Line != 3 || entries[0].Severity != SeverityHigh {
		t.Fatalf("expected missing path once at its first line, got %#v", entries[0])
	}
	if entries[1].Reference.Value != "Service.stop" || entries[1].Severity != SeverityMedium {
		t.Fatalf("expected missing symbol, got %#v", entries[1])
	}
	if entries[2].Reference.Value != "pip install" || entries[2].Severity != SeverityLow {
		t.Fatalf("expected command prerequisite, got %#v", entries[2])
	}
}

func TestDetectStaleDocsExistingReferences(t *testing.T) {
	engine := NewEngine(sampleGraph(t, "pyproject.toml", "lib/old_module.ext"))

	refs := []docrefs.DocReference{
		{Doc: "README.md", Line: 1, Kind: docrefs.KindPath, Value: "app/main.py"},
		{Doc: "README.md", Line: 2, Kind: docrefs.KindPath, Value: "./app"},
		{Doc: "README.md", Line: 3, Kind: docrefs.KindSymbol, Value: "app.util.helper"},
		{Doc: "README.md", Line: 4, Kind: docrefs.KindCommand, Value: "pip install"},
	}
	if entries := engine.DetectStaleDocs(refs); len(entries) != 0 {
		t.Fatalf("expected no stale entries, got %#v", entries)
	}

	moved := engine.DetectStaleDocs([]docrefs.DocReference{{Doc: "README.md", Line: 1, Kind: docrefs.KindPath, Value: "src/old_module.ext"}})
	if len(moved) != 1 || moved[0].SuggestedFix != "did you mean `lib/old_module.ext`?" {
		t.Fatalf("expected rename suggestion, got %#v", moved)
	}
}

func TestDetectStaleDocsUsesScannedFilesOnly(t *testing.T) {
	g := sampleGraph(t)
	skipped := filepath.Join(g.Root(), "build", "gen.py")
	if err := os.MkdirAll(filepath.Dir(skipped), 0755); err != nil {
		t.Fatalf("failed to create build dir: %v", err)
	}
	if err := os.WriteFile(skipped, []byte("x = 1\n"), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", skipped, err)
	}
	engine := NewEngine(g)

	entries := engine.DetectStaleDocs([]docrefs.DocReference{
		{Doc: "README.md", Line: 2, Kind: docrefs.KindPath, Value: "build/gen.py"},
		{Doc: "docs/guide.md", Line: 5, Kind: docrefs.KindPath, Value: "../app/main.py"},
	})
	if len(entries) != 1 {
		t.Fatalf("expected one stale entry, got %#v", entries)
	}
	if entries[0].Reference.Value != "build/gen.py" || entries[0].Severity != SeverityHigh {
		t.Fatalf("expected build/gen.py reported as missing, got %#v", entries[0])
	}
}

func TestEngineRecordsQueryMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	engine := NewEngine(sampleGraph(t), WithMetrics(m))

	_, _ = engine.Dependencies("app.main")
	_, _ = engine.Dependencies("missing")
	_, _ = engine.Dependents("app.lonely")

	if got := testutil.ToFloat64(m.QueriesTotal.WithLabelValues("dependencies", "ok")); got != 1 {
		t.Fatalf("expected one ok dependencies query, got %v", got)
	}
	if got := testutil.ToFloat64(m.QueriesTotal.WithLabelValues("dependencies", "not_found")); got != 1 {
		t.Fatalf("expected one not_found query, got %v", got)
	}
	if got := testutil.ToFloat64(m.QueriesTotal.WithLabelValues("dependents", "empty")); got != 1 {
		t.Fatalf("expected one empty dependents query, got %v", got)
	}
}
