package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/negaga53/codecompass/internal/export"
)

// RunExport writes the graph in the requested format. Text and JSON go to
// stdout unless --out is set; JSONL needs a directory and SQLite a file.
func RunExport(cmd *cobra.Command, args []string) error {
	root, err := rootPath(cmd, args)
	if err != nil {
		return err
	}
	format, err := ParseExportFormat(cmd)
	if err != nil {
		return err
	}
	out, err := OptionalStringFlag(cmd, "out")
	if err != nil {
		return err
	}
	if (format == export.FormatJSONL || format == export.FormatSQLite) && out == "" {
		return fmt.Errorf("--out is required for %s export", format)
	}

	s, err := newSession(cmd, root)
	if err != nil {
		return err
	}
	g, diagnostics, err := s.build(commandContext(cmd), true)
	if err != nil {
		return err
	}
	if len(diagnostics) > 0 {
		s.logger.Warn("graph built with diagnostics", "count", len(diagnostics))
	}

	if err := export.Write(commandContext(cmd), format, out, os.Stdout, g); err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintf(os.Stderr, "exported %s graph to %s\n", format, out)
	}
	return nil
}
