package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/negaga53/codecompass/internal/graph"
)

const schemaDDL = `
CREATE TABLE files (
  path        TEXT PRIMARY KEY,
  category    TEXT NOT NULL,
  language    TEXT,
  size        INTEGER NOT NULL,
  truncated   BOOLEAN NOT NULL DEFAULT FALSE,
  entry_point BOOLEAN NOT NULL DEFAULT FALSE,
  test        BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE modules (
  id              TEXT PRIMARY KEY,
  path            TEXT NOT NULL REFERENCES files(path),
  language        TEXT NOT NULL,
  degraded        BOOLEAN NOT NULL DEFAULT FALSE,
  degraded_reason TEXT,
  hash            TEXT,
  page_rank       REAL
);

CREATE TABLE symbols (
  id             TEXT PRIMARY KEY,
  module_id      TEXT NOT NULL REFERENCES modules(id),
  name           TEXT NOT NULL,
  qualified_name TEXT NOT NULL,
  kind           TEXT NOT NULL,
  start_line     INTEGER,
  end_line       INTEGER,
  signature      TEXT,
  doc            TEXT
);

CREATE TABLE edges (
  id         INTEGER PRIMARY KEY,
  source_id  TEXT NOT NULL REFERENCES modules(id),
  raw        TEXT NOT NULL,
  target     TEXT NOT NULL,
  kind       TEXT NOT NULL,
  confidence TEXT NOT NULL,
  names      TEXT,
  line       INTEGER,
  UNIQUE (source_id, raw)
);

CREATE INDEX idx_symbols_name ON symbols(name);
CREATE INDEX idx_symbols_module ON symbols(module_id);
CREATE INDEX idx_edges_target ON edges(target);
`

// WriteSQLite writes g into a fresh database at dbPath, replacing any
// existing file.
func WriteSQLite(ctx context.Context, dbPath string, g *graph.KnowledgeGraph) error {
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", dbPath, err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=ON")
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := insertGraph(ctx, tx, g); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertGraph(ctx context.Context, tx *sql.Tx, g *graph.KnowledgeGraph) error {
	for _, file := range g.Files() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO files (path, category, language, size, truncated, entry_point, test) VALUES (?, ?, ?, ?, ?, ?, ?)",
			file.Path, string(file.Category), file.Language, file.Size, file.Truncated, file.EntryPoint, file.Test,
		); err != nil {
			return fmt.Errorf("insert file %s: %w", file.Path, err)
		}
	}

	for _, mod := range g.Modules() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO modules (id, path, language, degraded, degraded_reason, hash, page_rank) VALUES (?, ?, ?, ?, ?, ?, ?)",
			mod.ID, mod.Path, mod.Language, mod.Degraded, mod.DegradedReason, mod.Hash, mod.PageRank,
		); err != nil {
			return fmt.Errorf("insert module %s: %w", mod.ID, err)
		}
	}

	for _, sym := range g.Symbols() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO symbols (id, module_id, name, qualified_name, kind, start_line, end_line, signature, doc)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sym.ID, sym.Module, sym.Name, sym.QualifiedName, string(sym.Kind), sym.StartLine, sym.EndLine, sym.Signature, sym.Doc,
		); err != nil {
			return fmt.Errorf("insert symbol %s: %w", sym.ID, err)
		}
	}

	for _, edge := range g.Edges() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO edges (source_id, raw, target, kind, confidence, names, line)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			edge.Source, edge.Raw, edge.Target, string(edge.Kind), string(edge.Confidence), strings.Join(edge.Names, ","), edge.Line,
		); err != nil {
			return fmt.Errorf("insert edge %s -> %s: %w", edge.Source, edge.Raw, err)
		}
	}
	return nil
}
