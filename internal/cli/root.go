package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/negaga53/codecompass/internal/export"
	"github.com/negaga53/codecompass/internal/nav"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "codecompass",
		Short: "Index a Python repository into a queryable knowledge graph",
		Long: `CodeCompass scans a repository, parses every Python module, resolves
imports into a dependency graph and answers questions about it: who
imports what, where a symbol lives, and which documentation references
have gone stale.

The same queries are served to agents over MCP with "codecompass serve".`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default: <root>/.codecompass.yaml when present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON on stderr")

	queries := nav.Commands{Load: LoadEngine}

	// Build Commands
	indexCmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Build the knowledge graph and report counts and diagnostics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunIndex,
	}
	indexCmd.Flags().Bool("json", false, "Print machine-readable run summary")

	summaryCmd := &cobra.Command{
		Use:   "summary [path]",
		Short: "Describe languages, entry points and layout of a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunRepoSummary,
	}
	summaryCmd.Flags().Bool("json", false, "Print machine-readable summary")

	exportCmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Write the graph as text, JSON, JSONL or SQLite",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunExport,
	}
	exportCmd.Flags().String("format", string(export.FormatText), "Output format: text|json|jsonl|sqlite")
	exportCmd.Flags().String("out", "", "Output file (text, json, sqlite) or directory (jsonl)")

	// Navigate Commands
	depsCmd := &cobra.Command{
		Use:   "deps <module|path>",
		Short: "Show what a module imports",
		Args:  cobra.ExactArgs(1),
		RunE:  queries.RunDeps,
	}
	dependentsCmd := &cobra.Command{
		Use:   "dependents <module|path>",
		Short: "Show which modules import a module",
		Args:  cobra.ExactArgs(1),
		RunE:  queries.RunDependents,
	}
	symbolCmd := &cobra.Command{
		Use:   "symbol <name|id>",
		Short: "Lookup symbols by name, qualified name or stable ID",
		Args:  cobra.ExactArgs(1),
		RunE:  queries.RunSymbol,
	}
	symbolCmd.Flags().Bool("fuzzy", false, "Enable BM25 fuzzy fallback when exact lookup misses")
	symbolCmd.Flags().Int("limit", 10, "Maximum number of symbol matches to return")

	staleCmd := &cobra.Command{
		Use:   "stale [doc]",
		Short: "Report documentation references to missing files, symbols or setup prerequisites",
		Args:  cobra.MaximumNArgs(1),
		RunE:  queries.RunStale,
	}
	traceCmd := &cobra.Command{
		Use:   "trace <module|path>",
		Short: "Trace internal imports from a module up to depth N",
		Args:  cobra.ExactArgs(1),
		RunE:  queries.RunTrace,
	}
	traceCmd.Flags().Int("depth", 2, "Traversal depth (>=1)")

	pathCmd := &cobra.Command{
		Use:   "path <from> <to>",
		Short: "Find the shortest import chain between two modules",
		Args:  cobra.ExactArgs(2),
		RunE:  queries.RunPath,
	}

	for _, cmd := range []*cobra.Command{depsCmd, dependentsCmd, symbolCmd, staleCmd, traceCmd, pathCmd} {
		cmd.Flags().String("root", ".", "Repository root to index")
		cmd.Flags().Bool("json", false, "Print machine-readable results")
	}

	// Serve Commands
	serveCmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Serve graph queries to agents over MCP (stdio)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  newServeRunner(version),
	}
	serveCmd.Flags().String("metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9090)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "codecompass %s\n", version)
		},
	}

	rootCmd.AddCommand(
		indexCmd,
		summaryCmd,
		exportCmd,
		depsCmd,
		dependentsCmd,
		symbolCmd,
		staleCmd,
		traceCmd,
		pathCmd,
		serveCmd,
		versionCmd,
	)

	return rootCmd
}
