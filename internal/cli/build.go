package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/negaga53/codecompass/internal/config"
	"github.com/negaga53/codecompass/internal/diag"
	"github.com/negaga53/codecompass/internal/graph"
	"github.com/negaga53/codecompass/internal/ignore"
	"github.com/negaga53/codecompass/internal/indexer"
	"github.com/negaga53/codecompass/internal/logging"
	"github.com/negaga53/codecompass/internal/metrics"
	"github.com/negaga53/codecompass/internal/nav"
)

// session is the resolved configuration of one command invocation.
type session struct {
	root   string
	cfg    config.Config
	logger *slog.Logger
}

func newSession(cmd *cobra.Command, root string) (*session, error) {
	configPath, err := OptionalStringFlag(cmd, "config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root, configPath)
	if err != nil {
		return nil, err
	}

	levelName, err := OptionalStringFlag(cmd, "log-level")
	if err != nil {
		return nil, err
	}
	if levelName == "" {
		levelName = cfg.LogLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	logJSON, err := nav.OptionalBoolFlag(cmd, "log-json", false)
	if err != nil {
		return nil, err
	}

	return &session{
		root:   root,
		cfg:    cfg,
		logger: logging.New(logging.Config{Level: level, JSON: logJSON, Service: "codecompass"}, os.Stderr),
	}, nil
}

func (s *session) matcher() *ignore.Matcher {
	matcher := ignore.NewMatcher(s.cfg.Ignore)
	if s.cfg.RespectGitignore {
		matcher = matcher.WithGitignore(s.root)
	}
	return matcher
}

// build indexes the session root, drawing progress on a terminal.
func (s *session) build(ctx context.Context, asJSON bool) (*graph.KnowledgeGraph, []diag.Diagnostic, error) {
	reporter := newParseProgressReporter("index", asJSON)
	g, diagnostics, err := indexer.Build(ctx, s.root, s.cfg,
		indexer.WithLogger(s.logger),
		indexer.WithMetrics(metrics.Default()),
		indexer.WithProgress(func(file string, done, total int) {
			reporter.Update(file, done, total)
		}),
	)
	if err != nil {
		return nil, diagnostics, err
	}
	reporter.Done(len(g.Modules()))
	return g, diagnostics, nil
}

// LoadEngine builds the graph under --root for a query command. Build
// diagnostics are summarized on stderr; `index` prints them in full.
func LoadEngine(cmd *cobra.Command) (*nav.Engine, error) {
	root, err := rootPath(cmd, nil)
	if err != nil {
		return nil, err
	}
	s, err := newSession(cmd, root)
	if err != nil {
		return nil, err
	}
	asJSON, err := nav.OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return nil, err
	}

	g, diagnostics, err := s.build(commandContext(cmd), asJSON)
	if err != nil {
		return nil, err
	}
	if len(diagnostics) > 0 {
		fmt.Fprintf(os.Stderr, "[warning] %d diagnostics while indexing %s (run `codecompass index` for details)\n", len(diagnostics), g.Root())
	}
	return nav.NewEngine(g, nav.WithMetrics(metrics.Default())), nil
}

// ReportDiagnostics prints one `[severity] path: message` line per entry.
func ReportDiagnostics(w io.Writer, diagnostics []diag.Diagnostic) {
	for _, d := range diagnostics {
		if d.Path == "" {
			fmt.Fprintf(w, "[%s] %s\n", d.Severity, d.Message)
			continue
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", d.Severity, d.Path, d.Message)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
