// Package resolve maps raw import text to module identities.
//
// Identities and source roots are derived from file paths alone, so an Index
// can be built from the scan before any file is parsed and then shared
// read-only by every parse worker.
package resolve

import (
	"path"
	"sort"
	"strings"
)

// DeriveModuleID turns a relative source path into its dotted identity:
// the extension and a trailing __init__ are dropped, a leading src layout
// directory is stripped and the remaining parts are joined with dots. An
// empty result means the path has no dotted form (a root __init__.py).
func DeriveModuleID(relPath string) string {
	trimmed := strings.TrimSuffix(relPath, path.Ext(relPath))
	parts := strings.Split(trimmed, "/")
	if len(parts) > 0 && parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 1 && parts[0] == "src" {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}

// AssignIdentities derives a unique identity for every path. When two paths
// derive the same dotted identity, the one that sorts first keeps it and the
// others fall back to their relative path.
func AssignIdentities(paths []string) map[string]string {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	ids := make(map[string]string, len(sorted))
	taken := make(map[string]bool, len(sorted))
	for _, relPath := range sorted {
		if _, done := ids[relPath]; done {
			continue
		}
		id := DeriveModuleID(relPath)
		if id == "" || taken[id] {
			id = relPath
		}
		taken[id] = true
		ids[relPath] = id
	}
	return ids
}

// importKey is the slash path an import of this file would name: packages
// are addressed by their directory.
func importKey(relPath string) string {
	trimmed := strings.TrimSuffix(relPath, path.Ext(relPath))
	if path.Base(trimmed) == "__init__" {
		return parentDir(trimmed)
	}
	return trimmed
}

func isPackageInit(relPath string) bool {
	return strings.TrimSuffix(path.Base(relPath), path.Ext(relPath)) == "__init__"
}

// parentDir returns the parent directory with "" for the root.
func parentDir(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// inferSourceRoots returns the repo root, src when present, the configured
// roots and the parent of every topmost package directory, in that order and
// without duplicates.
func inferSourceRoots(paths []string, configured []string) []string {
	roots := []string{""}
	seen := map[string]bool{"": true}
	add := func(root string) {
		if !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}

	for _, relPath := range paths {
		if strings.HasPrefix(relPath, "src/") {
			add("src")
			break
		}
	}

	for _, root := range configured {
		add(cleanRoot(root))
	}

	packageDirs := make(map[string]bool)
	for _, relPath := range paths {
		if isPackageInit(relPath) {
			packageDirs[parentDir(relPath)] = true
		}
	}
	inferred := make([]string, 0)
	for dir := range packageDirs {
		if dir == "" {
			continue
		}
		parent := parentDir(dir)
		if !packageDirs[parent] {
			inferred = append(inferred, parent)
		}
	}
	sort.Strings(inferred)
	for _, root := range inferred {
		add(root)
	}
	return roots
}

func cleanRoot(root string) string {
	root = path.Clean(strings.ReplaceAll(strings.TrimSpace(root), "\\", "/"))
	root = strings.TrimPrefix(root, "./")
	root = strings.Trim(root, "/")
	if root == "." {
		return ""
	}
	return root
}
