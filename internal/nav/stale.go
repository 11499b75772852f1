package nav

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/negaga53/codecompass/internal/docrefs"
)

// DetectStaleDocs checks documentation references against the graph's
// files and symbols. Files the scan skipped count as missing. Missing paths are high severity, unknown symbols medium, and setup
// commands without their prerequisite file low. Each (doc, kind, value)
// is reported once, at its first line.
func (e *Engine) DetectStaleDocs(refs []docrefs.DocReference) []StaleEntry {
	start := time.Now()
	files := e.fileSet()
	externals := make(map[string]bool)
	for _, name := range e.g.ExternalPackages() {
		externals[strings.SplitN(name, ".", 2)[0]] = true
	}

	type refKey struct {
		doc   string
		kind  docrefs.Kind
		value string
	}
	reported := make(map[refKey]bool)
	entries := make([]StaleEntry, 0)

	for _, ref := range refs {
		key := refKey{ref.Doc, ref.Kind, ref.Value}
		if reported[key] {
			continue
		}

		var entry *StaleEntry
		switch ref.Kind {
		case docrefs.KindPath:
			entry = e.checkPath(ref, files)
		case docrefs.KindSymbol:
			if !externals[strings.SplitN(ref.Value, ".", 2)[0]] {
				entry = e.checkSymbol(ref)
			}
		case docrefs.KindCommand:
			entry = e.checkCommand(ref, files)
		}
		if entry != nil {
			reported[key] = true
			entries = append(entries, *entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Reference.Doc != entries[j].Reference.Doc {
			return entries[i].Reference.Doc < entries[j].Reference.Doc
		}
		return entries[i].Reference.Line < entries[j].Reference.Line
	})
	e.observe("detect_stale_docs", start, len(entries), nil)
	return entries
}

func (e *Engine) checkPath(ref docrefs.DocReference, files map[string]bool) *StaleEntry {
	value := strings.TrimPrefix(path.Clean(ref.Value), "/")
	candidates := []string{value, path.Join(path.Dir(ref.Doc), value)}
	for _, candidate := range candidates {
		if files[candidate] {
			return nil
		}
	}

	entry := &StaleEntry{
		Reference:    ref,
		Issue:        fmt.Sprintf("references `%s` which does not exist", ref.Value),
		Severity:     SeverityHigh,
		SuggestedFix: "remove the reference or point it at an existing file",
	}
	if moved := e.sameBaseName(path.Base(value)); moved != "" {
		entry.SuggestedFix = fmt.Sprintf("did you mean `%s`?", moved)
	}
	return entry
}

func (e *Engine) checkSymbol(ref docrefs.DocReference) *StaleEntry {
	if len(e.lookup(ref.Value)) > 0 {
		return nil
	}
	entry := &StaleEntry{
		Reference:    ref,
		Issue:        fmt.Sprintf("mentions `%s` but no such symbol is defined", ref.Value),
		Severity:     SeverityMedium,
		SuggestedFix: "update the name or remove the reference",
	}
	if similar := e.fuzzy(ref.Value, 1); len(similar) > 0 {
		entry.SuggestedFix = fmt.Sprintf("did you mean `%s`?", similar[0].Symbol.ID)
	}
	return entry
}

func (e *Engine) checkCommand(ref docrefs.DocReference, files map[string]bool) *StaleEntry {
	for _, cmd := range docrefs.Commands {
		if cmd.Text != ref.Value {
			continue
		}
		for _, required := range cmd.Requires {
			if files[required] {
				return nil
			}
		}
		return &StaleEntry{
			Reference:    ref,
			Issue:        fmt.Sprintf("mentions `%s` but no %s found", cmd.Text, strings.Join(cmd.Requires, ", ")),
			Severity:     SeverityLow,
			SuggestedFix: fmt.Sprintf("add %s or update the setup instructions", cmd.Requires[0]),
		}
	}
	return nil
}

// fileSet holds every scanned file and each of its parent directories.
func (e *Engine) fileSet() map[string]bool {
	files := make(map[string]bool)
	for _, record := range e.g.Files() {
		for p := record.Path; p != "." && p != "/" && !files[p]; p = path.Dir(p) {
			files[p] = true
		}
	}
	return files
}

func (e *Engine) sameBaseName(base string) string {
	for _, record := range e.g.Files() {
		if path.Base(record.Path) == base {
			return record.Path
		}
	}
	return ""
}
