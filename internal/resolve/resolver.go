package resolve

import (
	"path"
	"sort"
	"strings"

	"github.com/negaga53/codecompass/internal/diag"
	"github.com/negaga53/codecompass/internal/parser"
)

// EdgeKind classifies the target of an import edge.
type EdgeKind string

const (
	EdgeInternal   EdgeKind = "internal"
	EdgeExternal   EdgeKind = "external"
	EdgeUnresolved EdgeKind = "unresolved"
)

// Confidence records how certain the resolver is about an internal target.
type Confidence string

const (
	ConfidenceResolved   Confidence = "resolved"
	ConfidenceAmbiguous  Confidence = "ambiguous"
	ConfidenceUnresolved Confidence = "unresolved"
)

// Edge is one resolved import. Target is a module ID for internal edges,
// the opaque package name for external ones and the raw text otherwise.
type Edge struct {
	Source     string     `json:"source"`
	Raw        string     `json:"raw"`
	Target     string     `json:"target"`
	Kind       EdgeKind   `json:"kind"`
	Confidence Confidence `json:"confidence"`
	Names      []string   `json:"names,omitempty"`
	Line       int        `json:"line"`
}

// Index is the read-only module set the resolver consults.
type Index struct {
	ids   map[string]string // file path -> module ID
	keys  map[string]string // import key -> module ID
	dirs  map[string]bool   // every directory holding a module
	roots []string
}

// NewIndex builds identities, import keys and source roots for paths.
func NewIndex(paths []string, configuredRoots []string) *Index {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	ix := &Index{
		ids:   AssignIdentities(sorted),
		keys:  make(map[string]string, len(sorted)),
		dirs:  make(map[string]bool),
		roots: inferSourceRoots(sorted, configuredRoots),
	}

	keyIsPackage := make(map[string]bool, len(sorted))
	for _, relPath := range sorted {
		key := importKey(relPath)
		pkg := isPackageInit(relPath)
		// a package shadows a same-named module; otherwise first path wins
		if _, exists := ix.keys[key]; !exists || (pkg && !keyIsPackage[key]) {
			ix.keys[key] = ix.ids[relPath]
			keyIsPackage[key] = pkg
		}
		for dir := parentDir(relPath); dir != ""; dir = parentDir(dir) {
			if ix.dirs[dir] {
				break
			}
			ix.dirs[dir] = true
		}
	}
	return ix
}

// ModuleID returns the identity assigned to a file path.
func (ix *Index) ModuleID(relPath string) (string, bool) {
	id, ok := ix.ids[relPath]
	return id, ok
}

// Roots returns the source roots in resolution order. "" is the repo root.
func (ix *Index) Roots() []string {
	return append([]string(nil), ix.roots...)
}

type resolution struct {
	target     string
	kind       EdgeKind
	confidence Confidence
	problem    *diag.Diagnostic
}

// Resolve classifies one import statement of the file at importerPath. A
// from-import yields one edge per name that is itself an internal
// submodule, plus one edge for the remaining names. Resolution depends only
// on its arguments and the index.
func (ix *Index) Resolve(importerPath string, imp parser.Import) ([]Edge, []diag.Diagnostic) {
	source, ok := ix.ids[importerPath]
	if !ok {
		source = importerPath
	}

	edges := make([]Edge, 0, 1)
	diagnostics := make([]diag.Diagnostic, 0)
	emit := func(raw string, names []string, res resolution) {
		edges = append(edges, Edge{
			Source:     source,
			Raw:        raw,
			Target:     res.target,
			Kind:       res.kind,
			Confidence: res.confidence,
			Names:      names,
			Line:       imp.Line,
		})
		if res.problem != nil {
			diagnostics = append(diagnostics, *res.problem)
		}
	}

	if len(imp.Names) == 0 {
		emit(imp.Raw, nil, ix.resolveOne(importerPath, imp.Raw))
		return edges, diagnostics
	}

	rest := make([]string, 0, len(imp.Names))
	for _, name := range imp.Names {
		if name.Name == "*" {
			rest = append(rest, "*")
			continue
		}
		submodule := joinRaw(imp.Raw, name.Name)
		if res := ix.resolveOne(importerPath, submodule); res.kind == EdgeInternal {
			emit(submodule, []string{formatName(name)}, res)
			continue
		}
		rest = append(rest, formatName(name))
	}
	if len(rest) > 0 {
		emit(imp.Raw, rest, ix.resolveOne(importerPath, imp.Raw))
	}
	return edges, diagnostics
}

func (ix *Index) resolveOne(importerPath, raw string) resolution {
	level := parser.Raw(raw).Level()
	name := parser.Raw(raw).Module()
	var parts []string
	if name != "" {
		parts = strings.Split(name, ".")
	}
	importerDir := parentDir(importerPath)

	if level > 0 {
		base := importerDir
		for i := 1; i < level; i++ {
			if base == "" {
				return ix.unresolved(importerPath, raw, "relative import %q climbs above the repository root", raw)
			}
			base = parentDir(base)
		}
		if id, ok := ix.keys[joinKey(base, parts)]; ok {
			return resolution{target: id, kind: EdgeInternal, confidence: ConfidenceResolved}
		}
		return ix.unresolved(importerPath, raw, "relative import %q does not match a module", raw)
	}

	if len(parts) == 0 {
		return ix.unresolved(importerPath, raw, "empty import")
	}

	// the importer's own directory wins over every source root
	if importerDir != "" {
		if id, ok := ix.keys[joinKey(importerDir, parts)]; ok {
			return resolution{target: id, kind: EdgeInternal, confidence: ConfidenceResolved}
		}
	}

	matches := make([]string, 0, 1)
	seen := make(map[string]bool)
	matchedRoots := make([]string, 0, 1)
	for _, root := range ix.roots {
		id, ok := ix.keys[joinKey(root, parts)]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		matches = append(matches, id)
		matchedRoots = append(matchedRoots, displayRoot(root))
	}

	switch {
	case len(matches) == 1:
		return resolution{target: matches[0], kind: EdgeInternal, confidence: ConfidenceResolved}
	case len(matches) > 1:
		problem := diag.Warning(diag.KindResolutionAmbiguous, importerPath,
			"import %q matches %s under roots %s; chose %s",
			raw, strings.Join(matches, ", "), strings.Join(matchedRoots, ", "), matches[0])
		return resolution{target: matches[0], kind: EdgeInternal, confidence: ConfidenceAmbiguous, problem: &problem}
	}

	if !ix.knownTopLevel(parts[0]) {
		return resolution{target: name, kind: EdgeExternal, confidence: ConfidenceResolved}
	}
	return ix.unresolved(importerPath, raw, "import %q names an internal package but no module matches", raw)
}

func (ix *Index) unresolved(importerPath, raw, format string, args ...any) resolution {
	problem := diag.Warning(diag.KindResolutionUnresolved, importerPath, format, args...)
	return resolution{target: raw, kind: EdgeUnresolved, confidence: ConfidenceUnresolved, problem: &problem}
}

func (ix *Index) knownTopLevel(first string) bool {
	for _, root := range ix.roots {
		key := joinKey(root, []string{first})
		if _, ok := ix.keys[key]; ok || ix.dirs[key] {
			return true
		}
	}
	return false
}

func joinKey(base string, parts []string) string {
	return path.Join(append([]string{base}, parts...)...)
}

// joinRaw appends a name to import text: ("..", "x") -> "..x", ("a", "x") -> "a.x".
func joinRaw(raw, name string) string {
	if strings.HasSuffix(raw, ".") {
		return raw + name
	}
	return raw + "." + name
}

func formatName(name parser.ImportName) string {
	if name.Alias != "" {
		return name.Name + " as " + name.Alias
	}
	return name.Name
}

func displayRoot(root string) string {
	if root == "" {
		return "."
	}
	return root
}
