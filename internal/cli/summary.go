package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/negaga53/codecompass/internal/fileutil"
	"github.com/negaga53/codecompass/internal/nav"
	"github.com/negaga53/codecompass/internal/scanner"
)

type RunSummary struct {
	Mode        string   `json:"mode"`
	RootPath    string   `json:"root_path"`
	BuildID     string   `json:"build_id"`
	Scanned     int      `json:"scanned"`
	Parsed      int      `json:"parsed"`
	Degraded    int      `json:"degraded"`
	Symbols     int      `json:"symbols"`
	Edges       int      `json:"edges"`
	Internal    int      `json:"internal"`
	External    int      `json:"external"`
	Unresolved  int      `json:"unresolved"`
	Diagnostics int      `json:"diagnostics"`
	DurationMS  int64    `json:"duration_ms"`
	TopModules  []string `json:"top_modules,omitempty"`
}

func PrintRunSummary(summary RunSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	fmt.Printf("%s complete in %dms (build %s)\n", summary.Mode, summary.DurationMS, summary.BuildID)
	fmt.Printf("root: %s\n", summary.RootPath)
	fmt.Printf("files: scanned=%d parsed=%d degraded=%d\n", summary.Scanned, summary.Parsed, summary.Degraded)
	fmt.Printf("graph: symbols=%d edges=%d internal=%d external=%d unresolved=%d\n",
		summary.Symbols, summary.Edges, summary.Internal, summary.External, summary.Unresolved)
	if summary.Diagnostics > 0 {
		fmt.Printf("diagnostics: %d\n", summary.Diagnostics)
	}
	if len(summary.TopModules) > 0 {
		fmt.Printf("most imported (%d): %s\n", len(summary.TopModules), SummarizePaths(summary.TopModules, 8))
	}
	return nil
}

// RepoReport is the `summary` command payload.
type RepoReport struct {
	scanner.RepoSummary
	BuildID          string   `json:"build_id"`
	Modules          int      `json:"modules"`
	Symbols          int      `json:"symbols"`
	ExternalPackages []string `json:"external_packages,omitempty"`
	TopModules       []string `json:"top_modules,omitempty"`
}

// RunRepoSummary prints languages, entry points, project hygiene and the
// directory tree alongside graph counts.
func RunRepoSummary(cmd *cobra.Command, args []string) error {
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

	stats := g.Stats()
	report := RepoReport{
		RepoSummary:      scanner.Summarize(g.Root(), g.Files(), s.matcher(), s.cfg.TreeDepth),
		BuildID:          g.BuildID(),
		Modules:          stats.Modules,
		Symbols:          stats.Symbols,
		ExternalPackages: g.ExternalPackages(),
	}
	for _, mod := range g.TopModules(10) {
		report.TopModules = append(report.TopModules, mod.ID)
	}

	if asJSON {
		return fileutil.PrintJSON(report)
	}

	fmt.Printf("%s (%s)\n", report.Name, report.Root)
	fmt.Printf("languages: %s\n", joinOrNone(report.Languages))
	fmt.Printf("files: %d lines: %d modules: %d symbols: %d\n", report.TotalFiles, report.TotalLines, report.Modules, report.Symbols)
	fmt.Printf("entry points: %s\n", joinOrNone(report.EntryPoints))
	fmt.Printf("config files: %s\n", joinOrNone(report.ConfigFiles))
	fmt.Printf("test directories: %s\n", joinOrNone(report.TestDirectories))
	if report.CISystem != "" {
		fmt.Printf("ci: %s\n", report.CISystem)
	}
	fmt.Printf("readme=%t contributing=%t license=%t\n", report.HasReadme, report.HasContributing, report.HasLicense)
	if len(report.ExternalPackages) > 0 {
		fmt.Printf("external packages (%d): %s\n", len(report.ExternalPackages), SummarizePaths(report.ExternalPackages, 12))
	}
	if len(report.TopModules) > 0 {
		fmt.Printf("most imported: %s\n", strings.Join(report.TopModules, ", "))
	}
	if len(diagnostics) > 0 {
		fmt.Printf("diagnostics: %d\n", len(diagnostics))
	}
	if report.DirectoryTree != "" {
		fmt.Println()
		fmt.Print(fileutil.EnsureTrailingNewline(report.DirectoryTree))
	}
	return nil
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

func SummarizePaths(paths []string, max int) string {
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}
