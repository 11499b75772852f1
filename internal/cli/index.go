package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/negaga53/codecompass/internal/nav"
)

// RunIndex builds the knowledge graph and reports what was found.
func RunIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()
	root, err := rootPath(cmd, args)
	if err != nil {
		return err
	}
	asJSON, err := nav.OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	s, err := newSession(cmd, root)
	if err != nil {
		return err
	}

	g, diagnostics, err := s.build(commandContext(cmd), asJSON)
	if err != nil {
		return err
	}
	ReportDiagnostics(os.Stderr, diagnostics)

	stats := g.Stats()
	summary := RunSummary{
		Mode:        "index",
		RootPath:    g.Root(),
		BuildID:     g.BuildID(),
		Scanned:     stats.Files,
		Parsed:      stats.Modules,
		Degraded:    stats.DegradedModules,
		Symbols:     stats.Symbols,
		Edges:       stats.Edges,
		Internal:    stats.InternalEdges,
		External:    stats.ExternalEdges,
		Unresolved:  stats.UnresolvedEdges,
		Diagnostics: len(diagnostics),
		DurationMS:  time.Since(start).Milliseconds(),
	}
	for _, mod := range g.TopModules(5) {
		summary.TopModules = append(summary.TopModules, mod.ID)
	}
	return PrintRunSummary(summary, asJSON)
}
