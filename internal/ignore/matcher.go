package ignore

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

type rule struct {
	pattern  string
	negated  bool
	dirOnly  bool
	anchored bool
	re       *regexp.Regexp
}

// DefaultRules are always applied first. Hidden directories are skipped
// except .github, which carries CI metadata worth listing.
var DefaultRules = []string{
	".*/",
	"!.github/",
	"__pycache__/",
	"node_modules/",
	"venv/",
	"dist/",
	"build/",
	"*.egg-info/",
	"target/",
}

// Matcher applies gitignore-like rules with "last rule wins" behavior.
// Evaluation order: defaults, then the repository .gitignore, then user rules.
// It is read-only after construction and safe for concurrent use.
type Matcher struct {
	defaults  []rule
	gitignore *gitignore.GitIgnore
	rules     []rule
}

// NewMatcher builds a matcher from user-provided ignore lines.
// Default excludes are prepended and can be overridden by user negation rules.
func NewMatcher(userRules []string) *Matcher {
	return &Matcher{
		defaults: compileRules(DefaultRules),
		rules:    compileRules(userRules),
	}
}

// WithGitignore loads <root>/.gitignore when present. A missing or
// unreadable file leaves the matcher unchanged.
func (m *Matcher) WithGitignore(root string) *Matcher {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return m
	}
	gi, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return m
	}
	m.gitignore = gi
	return m
}

// ShouldIgnore returns true when relPath should be excluded.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = normalizePath(relPath)
	if relPath == "" || relPath == "." {
		return false
	}

	ignored := applyRules(m.defaults, relPath, isDir, false)
	if m.gitignore != nil {
		candidate := relPath
		if isDir {
			candidate += "/"
		}
		if m.gitignore.MatchesPath(candidate) {
			ignored = true
		}
	}
	return applyRules(m.rules, relPath, isDir, ignored)
}

func applyRules(rules []rule, relPath string, isDir bool, ignored bool) bool {
	for _, rule := range rules {
		if ruleMatches(rule, relPath, isDir) {
			ignored = !rule.negated
		}
	}
	return ignored
}

func compileRules(lines []string) []rule {
	rules := make([]rule, 0, len(lines))
	for _, line := range lines {
		if parsed, ok := parseRule(line); ok {
			rules = append(rules, parsed)
		}
	}
	return rules
}

func parseRule(line string) (rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false
	}

	parsed := rule{}
	if strings.HasPrefix(line, "!") {
		parsed.negated = true
		line = strings.TrimPrefix(line, "!")
	}
	if strings.HasPrefix(line, "/") {
		parsed.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if strings.HasSuffix(line, "/") {
		parsed.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}

	line = normalizePath(line)
	if line == "" {
		return rule{}, false
	}
	re, err := regexp.Compile("^" + globToRegex(line) + "$")
	if err != nil {
		return rule{}, false
	}
	parsed.pattern = line
	parsed.re = re
	return parsed, true
}

func ruleMatches(rule rule, relPath string, isDir bool) bool {
	if rule.dirOnly {
		return matchDirectoryPattern(rule, relPath, isDir)
	}

	if rule.anchored {
		return rule.re.MatchString(relPath)
	}

	if strings.Contains(rule.pattern, "/") {
		if rule.re.MatchString(relPath) {
			return true
		}
		parts := strings.Split(relPath, "/")
		for i := 1; i < len(parts); i++ {
			if rule.re.MatchString(strings.Join(parts[i:], "/")) {
				return true
			}
		}
		return false
	}

	for _, segment := range strings.Split(relPath, "/") {
		if rule.re.MatchString(segment) {
			return true
		}
	}
	return false
}

// matchDirectoryPattern reports whether any directory component of relPath
// matches. The last segment counts only when relPath itself is a directory.
func matchDirectoryPattern(rule rule, relPath string, isDir bool) bool {
	parts := strings.Split(relPath, "/")
	limit := len(parts) - 1
	if isDir {
		limit = len(parts)
	}
	for i := 0; i < limit; i++ {
		if rule.anchored || strings.Contains(rule.pattern, "/") {
			if rule.re.MatchString(strings.Join(parts[:i+1], "/")) {
				return true
			}
			continue
		}
		if rule.re.MatchString(parts[i]) {
			return true
		}
	}
	return false
}

func globToRegex(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]

		if ch == '*' {
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				b.WriteString(".*")
				i++
				continue
			}
			b.WriteString("[^/]*")
			continue
		}

		if ch == '?' {
			b.WriteString("[^/]")
			continue
		}

		if strings.ContainsRune(`.+()|[]{}^$\`, rune(ch)) {
			b.WriteByte('\\')
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func normalizePath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")
	path = strings.TrimPrefix(path, "/")
	return path
}
