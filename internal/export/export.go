// Package export renders a KnowledgeGraph for other tools: a plain edge
// listing, a lossless JSON document, JSONL streams and a SQLite database.
package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/negaga53/codecompass/internal/fileutil"
	"github.com/negaga53/codecompass/internal/graph"
	"github.com/negaga53/codecompass/internal/parser"
	"github.com/negaga53/codecompass/internal/scanner"
)

type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatJSONL  Format = "jsonl"
	FormatSQLite Format = "sqlite"
)

const (
	ModulesFile = "modules.jsonl"
	SymbolsFile = "symbols.jsonl"
	EdgesFile   = "edges.jsonl"
)

func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatJSONL:
		return FormatJSONL, nil
	case FormatSQLite:
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("unsupported format %q (supported: text, json, jsonl, sqlite)", value)
	}
}

// Document is the complete graph in one JSON value. It carries nothing
// run-specific, so an unchanged tree exports byte-identical documents.
type Document struct {
	Fingerprint string               `json:"fingerprint"`
	Root        string               `json:"root"`
	Stats       graph.Stats          `json:"stats"`
	Files       []scanner.FileRecord `json:"files"`
	Modules     []graph.Module       `json:"modules"`
	Symbols     []parser.Symbol      `json:"symbols"`
	Edges       []graph.ImportEdge   `json:"edges"`
}

func BuildDocument(g *graph.KnowledgeGraph) Document {
	return Document{
		Fingerprint: Fingerprint(g),
		Root:        ".",
		Stats:       g.Stats(),
		Files:       g.Files(),
		Modules:     g.Modules(),
		Symbols:     g.Symbols(),
		Edges:       g.Edges(),
	}
}

// Fingerprint hashes the module, symbol and edge streams. Two graphs of the
// same tree share a fingerprint even though their build IDs differ.
func Fingerprint(g *graph.KnowledgeGraph) string {
	var content []byte
	for _, encode := range []func() ([]byte, error){
		func() ([]byte, error) { return fileutil.EncodeJSONL(g.Modules()) },
		func() ([]byte, error) { return fileutil.EncodeJSONL(g.Symbols()) },
		func() ([]byte, error) { return fileutil.EncodeJSONL(g.Edges()) },
	} {
		data, err := encode()
		if err != nil {
			continue
		}
		content = append(content, data...)
	}
	return fileutil.HashBytes(content)
}

// WriteText writes one `source -> target [kind/confidence]` line per edge.
func WriteText(w io.Writer, g *graph.KnowledgeGraph) error {
	out := bufio.NewWriter(w)
	for _, edge := range g.Edges() {
		if _, err := fmt.Fprintf(out, "%s -> %s [%s/%s]\n", edge.Source, edge.Target, edge.Kind, edge.Confidence); err != nil {
			return err
		}
	}
	return out.Flush()
}

func WriteJSON(w io.Writer, g *graph.KnowledgeGraph) error {
	return fileutil.WriteJSON(w, BuildDocument(g))
}

// WriteJSONL writes modules, symbols and edges as one JSON object per line
// into dir and returns the paths it wrote. Unchanged files are left alone.
func WriteJSONL(dir string, g *graph.KnowledgeGraph) ([]string, error) {
	streams := []struct {
		name   string
		encode func() ([]byte, error)
	}{
		{ModulesFile, func() ([]byte, error) { return fileutil.EncodeJSONL(g.Modules()) }},
		{SymbolsFile, func() ([]byte, error) { return fileutil.EncodeJSONL(g.Symbols()) }},
		{EdgesFile, func() ([]byte, error) { return fileutil.EncodeJSONL(g.Edges()) }},
	}

	written := make([]string, 0, len(streams))
	for _, stream := range streams {
		data, err := stream.encode()
		if err != nil {
			return written, fmt.Errorf("failed to encode %s: %w", stream.name, err)
		}
		path := filepath.Join(dir, stream.name)
		if err := fileutil.WriteIfChanged(path, data); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// Write exports g in format. out is a file for text, json and sqlite, a
// directory for jsonl; text and json go to stdout when out is empty.
func Write(ctx context.Context, format Format, out string, stdout io.Writer, g *graph.KnowledgeGraph) error {
	switch format {
	case FormatText, FormatJSON:
		render := WriteText
		if format == FormatJSON {
			render = WriteJSON
		}
		if out == "" {
			return render(stdout, g)
		}
		var buf strings.Builder
		if err := render(&buf, g); err != nil {
			return err
		}
		return fileutil.WriteIfChanged(out, []byte(buf.String()))
	case FormatJSONL:
		if out == "" {
			out = "."
		}
		_, err := WriteJSONL(out, g)
		return err
	case FormatSQLite:
		if out == "" {
			return fmt.Errorf("sqlite export requires --out")
		}
		return WriteSQLite(ctx, out, g)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
