// Package docrefs pulls checkable references out of documentation files:
// backticked file paths, backticked symbols, and setup commands whose
// prerequisites can be verified against the repository.
package docrefs

import (
	"bufio"
	"bytes"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/negaga53/codecompass/internal/diag"
	"github.com/negaga53/codecompass/internal/scanner"
)

// Kind is the type of a documentation reference.
type Kind string

const (
	KindPath    Kind = "path"
	KindSymbol  Kind = "symbol"
	KindCommand Kind = "command"
)

// DocReference is one checkable mention in a documentation file.
type DocReference struct {
	Doc   string `json:"doc"`
	Line  int    `json:"line"`
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

// Command is a setup command and the files any one of which satisfies it.
type Command struct {
	Text     string
	Requires []string
}

// Commands lists the setup commands checked for prerequisites.
var Commands = []Command{
	{Text: "npm install", Requires: []string{"package.json"}},
	{Text: "npm start", Requires: []string{"package.json"}},
	{Text: "pip install", Requires: []string{"pyproject.toml", "setup.py", "requirements.txt"}},
}

var (
	spanPattern   = regexp.MustCompile("`([^`\n]+)`")
	pathPattern   = regexp.MustCompile(`^[a-zA-Z0-9_/\-.]+\.[a-zA-Z]+$`)
	symbolPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*(\(\))?$`)
)

// Extract returns the references in one document, in line order.
func Extract(doc string, content []byte) []DocReference {
	refs := make([]DocReference, 0)
	seenCommand := make(map[string]bool)
	inFence := false

	lines := bufio.NewScanner(bytes.NewReader(content))
	lines.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for lines.Scan() {
		lineNo++
		line := lines.Text()

		for _, cmd := range Commands {
			if !seenCommand[cmd.Text] && strings.Contains(line, cmd.Text) {
				seenCommand[cmd.Text] = true
				refs = append(refs, DocReference{Doc: doc, Line: lineNo, Kind: KindCommand, Value: cmd.Text})
			}
		}

		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		for _, match := range spanPattern.FindAllStringSubmatch(line, -1) {
			value := strings.TrimSpace(match[1])
			if kind, ok := classify(value); ok {
				if kind == KindSymbol {
					value = strings.TrimSuffix(value, "()")
				}
				refs = append(refs, DocReference{Doc: doc, Line: lineNo, Kind: kind, Value: value})
			}
		}
	}
	return refs
}

// classify decides whether a backticked span is a path, a symbol, or noise.
// Bare file names without a directory are too ambiguous to check and are
// dropped, as are single words such as `true`.
func classify(value string) (Kind, bool) {
	if value == "" || strings.HasPrefix(value, "http") || strings.HasPrefix(value, "ftp") || strings.HasPrefix(value, "#") {
		return "", false
	}
	if pathPattern.MatchString(value) {
		if strings.Contains(value, "/") {
			return KindPath, true
		}
		if looksLikeFile(value) {
			return "", false
		}
	}
	if !symbolPattern.MatchString(value) {
		return "", false
	}
	if strings.HasSuffix(value, "()") || strings.Contains(value, ".") {
		return KindSymbol, true
	}
	return "", false
}

func looksLikeFile(value string) bool {
	record := scanner.Classify(value)
	return record.Language != "" || record.Category != scanner.CategoryOther
}

// Collect extracts references from every documentation file in files, or
// from docPath alone when it is set. docPath must stay inside root.
// Unreadable or out-of-tree documents become FileSkipped diagnostics.
func Collect(root string, files []scanner.FileRecord, docPath string) ([]DocReference, []diag.Diagnostic) {
	docs := make([]string, 0)
	if docPath != "" {
		doc := path.Clean(filepath.ToSlash(docPath))
		if !insideRoot(doc) {
			return []DocReference{}, []diag.Diagnostic{
				diag.Warning(diag.KindFileSkipped, docPath, "document path escapes the repository root"),
			}
		}
		docs = append(docs, doc)
	} else {
		for _, file := range files {
			if file.Category == scanner.CategoryDoc && !file.Truncated {
				docs = append(docs, file.Path)
			}
		}
	}
	sort.Strings(docs)

	refs := make([]DocReference, 0)
	diagnostics := make([]diag.Diagnostic, 0)
	for _, doc := range docs {
		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(doc)))
		if err != nil {
			diagnostics = append(diagnostics, diag.Warning(diag.KindFileSkipped, doc, "failed to read document: %v", err))
			continue
		}
		refs = append(refs, Extract(doc, content)...)
	}
	return refs, diagnostics
}

func insideRoot(doc string) bool {
	if path.IsAbs(doc) || filepath.IsAbs(filepath.FromSlash(doc)) {
		return false
	}
	return doc != ".." && !strings.HasPrefix(doc, "../")
}
