package languages

import (
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

func startLine(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

func endLine(node *sitter.Node) int {
	return int(node.EndPoint().Row) + 1
}

func appendPath(path []string, name string) []string {
	out := make([]string, 0, len(path)+1)
	out = append(out, path...)
	return append(out, name)
}

// compactImportText removes whitespace inside dotted import text, so
// "from . pkg . sub import x" normalizes to ".pkg.sub".
func compactImportText(raw string) string {
	return strings.Join(strings.Fields(raw), "")
}

// isConstantName reports ALL_CAPS identifiers, ignoring leading underscores.
func isConstantName(name string) bool {
	trimmed := strings.TrimLeft(name, "_")
	hasLetter := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return hasLetter
}

func firstLine(s string, limit int) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = strings.TrimSpace(s[:idx])
	}
	if limit > 0 && len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}

func extractDocstring(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"r", "u", "R", "U"} {
		if strings.HasPrefix(s, prefix+`"`) || strings.HasPrefix(s, prefix+`'`) {
			s = s[1:]
			break
		}
	}
	switch {
	case strings.HasPrefix(s, `"""`) && strings.HasSuffix(s, `"""`) && len(s) >= 6:
		s = s[3 : len(s)-3]
	case strings.HasPrefix(s, `'''`) && strings.HasSuffix(s, `'''`) && len(s) >= 6:
		s = s[3 : len(s)-3]
	case len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0]:
		s = s[1 : len(s)-1]
	}
	// Take first line only for brevity
	if idx := strings.Index(strings.TrimSpace(s), "\n"); idx != -1 {
		s = strings.TrimSpace(s)[:idx]
	}
	return strings.TrimSpace(s)
}
