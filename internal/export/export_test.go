package export

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negaga53/codecompass/internal/config"
	"github.com/negaga53/codecompass/internal/graph"
	"github.com/negaga53/codecompass/internal/indexer"
	"github.com/negaga53/codecompass/internal/logging"
	"github.com/negaga53/codecompass/internal/parser"
	"github.com/negaga53/codecompass/internal/resolve"
	"github.com/negaga53/codecompass/internal/scanner"
)

func sampleGraph() *graph.KnowledgeGraph {
	return graph.Build(graph.Input{
		Root: "/repo",
		Files: []scanner.FileRecord{
			scanner.Classify("README.md"),
			scanner.Classify("app/main.py"),
			scanner.Classify("app/util.py"),
		},
		Modules: []graph.Module{
			{ID: "app.main", Path: "app/main.py", Language: "python", Hash: "abc"},
			{ID: "app.util", Path: "app/util.py", Language: "python", Degraded: true, DegradedReason: "syntax error near line 3"},
		},
		Symbols: []parser.Symbol{
			{ID: "app.main:run", Name: "run", QualifiedName: "run", Kind: parser.SymbolFunction, Module: "app.main", StartLine: 4, EndLine: 6, Signature: "def run()"},
			{ID: "app.util:helper", Name: "helper", QualifiedName: "helper", Kind: parser.SymbolFunction, Module: "app.util", StartLine: 1, EndLine: 2},
		},
		Edges: []graph.ImportEdge{
			{Source: "app.main", Raw: ".util", Target: "app.util", Kind: resolve.EdgeInternal, Confidence: resolve.ConfidenceResolved, Names: []string{"helper", "other"}, Line: 1},
			{Source: "app.main", Raw: "requests", Target: "requests", Kind: resolve.EdgeExternal, Confidence: resolve.ConfidenceResolved, Line: 2},
			{Source: "app.util", Raw: "app.gone", Target: "app.gone", Kind: resolve.EdgeUnresolved, Confidence: resolve.ConfidenceUnresolved, Line: 1},
		},
	})
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON, " jsonl ": FormatJSONL, "sqlite": FormatSQLite} {
		got, err := ParseFormat(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleGraph()))

	assert.Equal(t, "app.main -> app.util [internal/resolved]\n"+
		"app.main -> requests [external/resolved]\n"+
		"app.util -> app.gone [unresolved/unresolved]\n", buf.String())
}

func TestWriteJSONDocument(t *testing.T) {
	g := sampleGraph()
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, g))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, Fingerprint(g), doc.Fingerprint)
	assert.Equal(t, ".", doc.Root)
	assert.Len(t, doc.Files, 3)
	assert.Len(t, doc.Modules, 2)
	assert.Len(t, doc.Symbols, 2)
	assert.Equal(t, g.Edges(), doc.Edges)
	assert.Equal(t, 1, doc.Stats.DegradedModules)
}

func TestWriteJSONStableAcrossBuilds(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app", "__init__.py"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app", "main.py"), []byte("import os\nfrom . import util\n\ndef run():\n    return util\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app", "util.py"), []byte("VALUE = 1\n"), 0644))

	render := func() ([]byte, string) {
		g, _, err := indexer.Build(context.Background(), root, config.Default(), indexer.WithLogger(logging.Nop()))
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, WriteJSON(&buf, g))
		return buf.Bytes(), g.BuildID()
	}

	first, firstID := render()
	second, secondID := render()
	require.NotEqual(t, firstID, secondID)
	assert.Equal(t, string(first), string(second))
	assert.NotContains(t, string(first), root)
}

func TestFingerprintTracksContent(t *testing.T) {
	g := sampleGraph()
	assert.Equal(t, Fingerprint(g), Fingerprint(sampleGraph()))

	changed := graph.Build(graph.Input{
		Root:    "/repo",
		Modules: []graph.Module{{ID: "app.main", Path: "app/main.py", Language: "python"}},
	})
	assert.NotEqual(t, Fingerprint(g), Fingerprint(changed))
}

func TestWriteJSONL(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	written, err := WriteJSONL(dir, sampleGraph())
	require.NoError(t, err)
	require.Len(t, written, 3)

	counts := map[string]int{ModulesFile: 2, SymbolsFile: 2, EdgesFile: 3}
	for name, want := range counts {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		assert.Len(t, lines, want, name)
		for _, line := range lines {
			assert.True(t, json.Valid([]byte(line)), line)
		}
	}
}

func TestWriteSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "graph.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("stale"), 0644))
	require.NoError(t, WriteSQLite(context.Background(), dbPath, sampleGraph()))

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	for table, want := range map[string]int{"files": 3, "modules": 2, "symbols": 2, "edges": 3} {
		var got int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&got))
		assert.Equal(t, want, got, table)
	}

	var names string
	require.NoError(t, db.QueryRow("SELECT names FROM edges WHERE source_id = ? AND raw = ?", "app.main", ".util").Scan(&names))
	assert.Equal(t, "helper,other", names)

	var degraded bool
	require.NoError(t, db.QueryRow("SELECT degraded FROM modules WHERE id = ?", "app.util").Scan(&degraded))
	assert.True(t, degraded)
}

func TestWriteDispatch(t *testing.T) {
	g := sampleGraph()
	var stdout bytes.Buffer
	require.NoError(t, Write(context.Background(), FormatText, "", &stdout, g))
	assert.Contains(t, stdout.String(), "app.main -> app.util")

	out := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, Write(context.Background(), FormatJSON, out, &stdout, g))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	assert.Error(t, Write(context.Background(), FormatSQLite, "", &stdout, g))
}
