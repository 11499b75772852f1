// Package indexer runs a full build: scan, bounded parallel parse and
// resolve, then the single-threaded graph barrier.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/negaga53/codecompass/internal/config"
	"github.com/negaga53/codecompass/internal/diag"
	"github.com/negaga53/codecompass/internal/graph"
	"github.com/negaga53/codecompass/internal/ignore"
	"github.com/negaga53/codecompass/internal/languages"
	"github.com/negaga53/codecompass/internal/metrics"
	"github.com/negaga53/codecompass/internal/parser"
	"github.com/negaga53/codecompass/internal/resolve"
	"github.com/negaga53/codecompass/internal/scanner"
)

// ProgressFunc receives the path of each finished file and the running
// count. Calls are serialized.
type ProgressFunc func(file string, done, total int)

type options struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	registry *parser.Registry
	progress ProgressFunc
}

// Option configures Build.
type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithRegistry replaces the default language registry.
func WithRegistry(r *parser.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// fileResult is one worker slot. Each task writes only its own index.
type fileResult struct {
	module      graph.Module
	symbols     []parser.Symbol
	edges       []graph.ImportEdge
	diagnostics []diag.Diagnostic
	outcome     string
	elapsed     time.Duration
}

// Build indexes root. Only an unusable root or a cancelled ctx returns an
// error; every per-file problem is reported through the diagnostics.
func Build(ctx context.Context, root string, cfg config.Config, opts ...Option) (*graph.KnowledgeGraph, []diag.Diagnostic, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = languages.NewDefaultRegistry()
	}

	start := time.Now()
	g, diagnostics, err := build(ctx, root, cfg, o)
	shape := metrics.GraphShape{}
	if g != nil {
		stats := g.Stats()
		shape = metrics.GraphShape{
			Modules:    stats.Modules,
			Symbols:    stats.Symbols,
			Internal:   stats.InternalEdges,
			External:   stats.ExternalEdges,
			Unresolved: stats.UnresolvedEdges,
		}
	}
	o.metrics.ObserveBuild(time.Since(start), shape, err)
	for _, d := range diagnostics {
		o.metrics.ObserveDiagnostic(string(d.Kind))
	}

	if err != nil {
		o.logger.Error("index build failed", "root", root, "error", err)
		return nil, diagnostics, err
	}
	o.logger.Info("index build complete",
		"root", g.Root(),
		"build_id", g.BuildID(),
		"modules", shape.Modules,
		"symbols", shape.Symbols,
		"diagnostics", len(diagnostics),
		"duration", time.Since(start))
	return g, diagnostics, nil
}

func build(ctx context.Context, root string, cfg config.Config, o options) (*graph.KnowledgeGraph, []diag.Diagnostic, error) {
	absRoot, err := checkRoot(root)
	if err != nil {
		return nil, nil, err
	}

	matcher := ignore.NewMatcher(cfg.Ignore)
	if cfg.RespectGitignore {
		matcher = matcher.WithGitignore(absRoot)
	}

	records, scanDiagnostics, err := scanner.Scan(ctx, absRoot, scanner.Options{
		MaxDepth:    cfg.MaxDepth,
		MaxFileSize: cfg.MaxFileSize(),
		Matcher:     matcher,
	})
	if err != nil {
		return nil, scanDiagnostics, fmt.Errorf("scan %s: %w", absRoot, err)
	}
	o.logger.Debug("scan complete", "root", absRoot, "files", len(records), "skipped", len(scanDiagnostics))

	parseable := make([]scanner.FileRecord, 0, len(records))
	paths := make([]string, 0, len(records))
	for _, record := range records {
		switch {
		case record.Truncated:
			o.metrics.ObserveFile(metrics.OutcomeSkipped, 0)
		case record.Category == scanner.CategorySource && o.registry.Supports(record.Path):
			parseable = append(parseable, record)
			paths = append(paths, record.Path)
		default:
			o.metrics.ObserveFile(metrics.OutcomeListed, 0)
		}
	}

	// identities and roots come from paths alone so workers can resolve
	index := resolve.NewIndex(paths, cfg.SourceRoots)

	results, err := parseAll(ctx, absRoot, parseable, index, cfg, o)
	if err != nil {
		return nil, scanDiagnostics, err
	}

	in := graph.Input{
		Root:    absRoot,
		Files:   records,
		Modules: make([]graph.Module, 0, len(results)),
	}
	slots := make([][]diag.Diagnostic, 0, len(results)+1)
	slots = append(slots, scanDiagnostics)
	for _, result := range results {
		in.Modules = append(in.Modules, result.module)
		in.Symbols = append(in.Symbols, result.symbols...)
		in.Edges = append(in.Edges, result.edges...)
		slots = append(slots, result.diagnostics)
		o.metrics.ObserveFile(result.outcome, result.elapsed)
	}

	return graph.Build(in), diag.Merge(slots...), nil
}

func checkRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &diag.FatalIOError{Path: root, Err: err}
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return "", &diag.FatalIOError{Path: absRoot, Err: err}
	}
	if !info.IsDir() {
		return "", &diag.FatalIOError{Path: absRoot, Err: errors.New("not a directory")}
	}
	if _, err := os.ReadDir(absRoot); err != nil {
		return "", &diag.FatalIOError{Path: absRoot, Err: err}
	}
	return absRoot, nil
}

func parseAll(ctx context.Context, root string, files []scanner.FileRecord, index *resolve.Index, cfg config.Config, o options) ([]fileResult, error) {
	parseCtx := ctx
	if cfg.ParseTimeout > 0 {
		var cancel context.CancelFunc
		parseCtx, cancel = context.WithTimeout(ctx, cfg.ParseTimeout)
		defer cancel()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		progressMu sync.Mutex
		done       int
	)
	report := func(file string) {
		if o.progress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		done++
		o.progress(file, done, len(files))
	}

	results := make([]fileResult, len(files))
	var group errgroup.Group
	group.SetLimit(workers)
	for i, record := range files {
		group.Go(func() error {
			results[i] = processFile(parseCtx, root, record, index, o)
			report(record.Path)
			return nil
		})
	}
	_ = group.Wait() // tasks never fail; problems live in their slots

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("index %s: %w", root, err)
	}
	return results, nil
}

func processFile(ctx context.Context, root string, record scanner.FileRecord, index *resolve.Index, o options) fileResult {
	start := time.Now()
	moduleID, _ := index.ModuleID(record.Path)
	result := fileResult{
		module: graph.Module{
			ID:       moduleID,
			Path:     record.Path,
			Language: record.Language,
		},
		outcome: metrics.OutcomeParsed,
	}
	degrade := func(kind diag.Kind, format string, args ...any) {
		d := diag.Warning(kind, record.Path, format, args...)
		result.module.Degraded = true
		result.module.DegradedReason = d.Message
		result.diagnostics = append(result.diagnostics, d)
		result.outcome = metrics.OutcomeDegraded
	}

	if err := ctx.Err(); err != nil {
		degrade(diag.KindParseDegraded, "parse not started: %v", err)
		result.elapsed = time.Since(start)
		return result
	}

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(record.Path)))
	if err != nil {
		degrade(diag.KindFileSkipped, "failed to read file: %v", err)
		result.elapsed = time.Since(start)
		return result
	}

	file, err := o.registry.ParseContent(ctx, record.Path, content)
	if err != nil || file == nil {
		if err == nil {
			err = errors.New("no parser output")
		}
		degrade(diag.KindParseDegraded, "parse failed: %v", err)
		result.elapsed = time.Since(start)
		return result
	}

	if file.Language != "" {
		result.module.Language = file.Language
	}
	result.module.Hash = file.Hash
	if file.Degraded {
		degrade(diag.KindParseDegraded, "%s", file.DegradedReason)
	}

	parser.AssignModule(file, moduleID)
	result.symbols = file.Symbols
	for _, sym := range file.Symbols {
		result.module.Symbols = append(result.module.Symbols, sym.ID)
	}

	for _, imp := range file.Imports {
		edges, problems := index.Resolve(record.Path, imp)
		result.edges = append(result.edges, edges...)
		result.diagnostics = append(result.diagnostics, problems...)
	}

	result.elapsed = time.Since(start)
	o.logger.Debug("parsed file",
		"file", record.Path,
		"module", moduleID,
		"symbols", len(result.symbols),
		"imports", len(file.Imports),
		"duration", result.elapsed)
	return result
}
