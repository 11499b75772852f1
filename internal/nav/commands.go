package nav

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/negaga53/codecompass/internal/docrefs"
	"github.com/negaga53/codecompass/internal/fileutil"
)

// LoadFunc builds the engine a query command runs against.
type LoadFunc func(cmd *cobra.Command) (*Engine, error)

// Commands holds the cobra RunE handlers for graph queries.
type Commands struct {
	Load LoadFunc
}

func (c Commands) RunDeps(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	engine, err := c.Load(cmd)
	if err != nil {
		return err
	}
	moduleID, err := engine.ResolveModule(args[0])
	if err != nil {
		return err
	}
	targets, err := engine.Dependencies(moduleID)
	if err != nil {
		return err
	}

	if asJSON {
		return fileutil.PrintJSON(map[string]any{
			"module":       moduleID,
			"dependencies": targets,
		})
	}

	fmt.Printf("dependencies of %s (%d)\n", moduleID, len(targets))
	if len(targets) == 0 {
		fmt.Println("no imports found")
		return nil
	}
	for _, target := range targets {
		fmt.Printf("- %s [%s/%s] line %d", target.Module, target.Kind, target.Confidence, target.Line)
		if len(target.Names) > 0 {
			fmt.Printf(" (%s)", strings.Join(target.Names, ", "))
		}
		fmt.Println()
	}
	return nil
}

func (c Commands) RunDependents(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	engine, err := c.Load(cmd)
	if err != nil {
		return err
	}
	moduleID, err := engine.ResolveModule(args[0])
	if err != nil {
		return err
	}
	dependents, err := engine.Dependents(moduleID)
	if err != nil {
		return err
	}

	if asJSON {
		return fileutil.PrintJSON(map[string]any{
			"module":     moduleID,
			"dependents": dependents,
		})
	}

	fmt.Printf("dependents of %s (%d)\n", moduleID, len(dependents))
	if len(dependents) == 0 {
		fmt.Println("no importers found")
		return nil
	}
	for _, dependent := range dependents {
		fmt.Printf("- %s\n", dependent)
	}
	return nil
}

func (c Commands) RunSymbol(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	fuzzy, err := OptionalBoolFlag(cmd, "fuzzy", false)
	if err != nil {
		return err
	}
	limit, err := OptionalIntFlag(cmd, "limit", 10)
	if err != nil {
		return err
	}

	engine, err := c.Load(cmd)
	if err != nil {
		return err
	}
	matches := engine.LookupSymbolWithOptions(args[0], ResolveOptions{Fuzzy: fuzzy, Limit: limit})
	if len(matches) == 0 {
		return fmt.Errorf("symbol %q not found", args[0])
	}

	if asJSON {
		return fileutil.PrintJSON(map[string]any{
			"query":   args[0],
			"matches": matches,
		})
	}

	fmt.Printf("symbol matches for %q (%d)\n", args[0], len(matches))
	for _, match := range matches {
		record := match.Symbol
		fmt.Printf("- %s [%s] %s:%d (%s)\n", record.ID, record.Kind, record.File, record.Line, match.Match)
		if record.Signature != "" {
			fmt.Printf("  sig: %s\n", record.Signature)
		}
	}
	return nil
}

func (c Commands) RunStale(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	engine, err := c.Load(cmd)
	if err != nil {
		return err
	}

	docPath := ""
	if len(args) > 0 {
		docPath = args[0]
	}
	g := engine.Graph()
	refs, problems := docrefs.Collect(g.Root(), g.Files(), docPath)
	if docPath != "" && len(problems) > 0 {
		return fmt.Errorf("failed to read %s: %s", docPath, problems[0].Message)
	}
	entries := engine.DetectStaleDocs(refs)

	if asJSON {
		return fileutil.PrintJSON(map[string]any{
			"references": len(refs),
			"stale":      entries,
		})
	}

	if len(entries) == 0 {
		fmt.Println("no stale documentation detected")
		return nil
	}
	fmt.Printf("found %d potential documentation issue(s)\n", len(entries))
	for _, entry := range entries {
		fmt.Printf("- [%s] %s:%d %s\n", entry.Severity, entry.Reference.Doc, entry.Reference.Line, entry.Issue)
		if entry.SuggestedFix != "" {
			fmt.Printf("  fix: %s\n", entry.SuggestedFix)
		}
	}
	return nil
}

func (c Commands) RunTrace(cmd *cobra.Command, args []string) error {
	depth, err := cmd.Flags().GetInt("depth")
	if err != nil {
		return fmt.Errorf("failed to read --depth flag: %w", err)
	}
	if depth < 1 {
		return fmt.Errorf("--depth must be >= 1")
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	engine, err := c.Load(cmd)
	if err != nil {
		return err
	}
	startID, err := engine.ResolveModule(args[0])
	if err != nil {
		return err
	}
	hops, err := engine.Trace(startID, depth)
	if err != nil {
		return err
	}

	if asJSON {
		return fileutil.PrintJSON(map[string]any{
			"query": args[0],
			"start": startID,
			"depth": depth,
			"hops":  hops,
		})
	}

	fmt.Printf("trace from %s depth=%d hops=%d\n", startID, depth, len(hops))
	if len(hops) == 0 {
		fmt.Println("no internal imports found")
		return nil
	}
	for _, hop := range hops {
		fmt.Printf("- d=%d %s -> %s", hop.Depth, hop.From, hop.To)
		if hop.Confidence != "" {
			fmt.Printf(" (%s)", hop.Confidence)
		}
		fmt.Println()
	}
	return nil
}

func (c Commands) RunPath(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	engine, err := c.Load(cmd)
	if err != nil {
		return err
	}
	pathIDs, err := engine.Path(args[0], args[1])
	if err != nil {
		return err
	}
	if len(pathIDs) == 0 {
		return fmt.Errorf("no import path found between %s and %s", args[0], args[1])
	}

	if asJSON {
		return fileutil.PrintJSON(map[string]any{
			"from":   pathIDs[0],
			"to":     pathIDs[len(pathIDs)-1],
			"length": len(pathIDs) - 1,
			"path":   pathIDs,
		})
	}

	fmt.Printf("path %s -> %s length=%d\n", pathIDs[0], pathIDs[len(pathIDs)-1], len(pathIDs)-1)
	g := engine.Graph()
	for i, id := range pathIDs {
		file := ""
		if mod, ok := g.Module(id); ok {
			file = mod.Path
		}
		fmt.Printf("%d. %s %s\n", i+1, id, file)
	}
	return nil
}

func OptionalBoolFlag(cmd *cobra.Command, name string, defaultValue bool) (bool, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return defaultValue, nil
	}
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

func OptionalIntFlag(cmd *cobra.Command, name string, defaultValue int) (int, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return defaultValue, nil
	}
	value, err := cmd.Flags().GetInt(name)
	if err != nil {
		return 0, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}
