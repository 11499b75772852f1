package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatcher_DefaultAndUserOverrides(t *testing.T) {
	m := NewMatcher([]string{
		"vendor/**",
		"!vendor/keep/file.py",
		"*.tmp",
	})

	cases := []struct {
		path    string
		isDir   bool
		ignored bool
	}{
		{path: ".git/config", isDir: false, ignored: true},
		{path: ".venv", isDir: true, ignored: true},
		{path: ".github/workflows/ci.yml", isDir: false, ignored: false},
		{path: "pkg/__pycache__/mod.cpython-312.pyc", isDir: false, ignored: true},
		{path: "node_modules/pkg/index.js", isDir: false, ignored: true},
		{path: "mylib.egg-info", isDir: true, ignored: true},
		{path: "vendor/lib/a.py", isDir: false, ignored: true},
		{path: "vendor/keep/file.py", isDir: false, ignored: false},
		{path: "nested/cache.tmp", isDir: false, ignored: true},
		{path: "src/main.py", isDir: false, ignored: false},
		{path: "docs/build.md", isDir: false, ignored: false},
	}

	for _, tc := range cases {
		got := m.ShouldIgnore(tc.path, tc.isDir)
		if got != tc.ignored {
			t.Fatalf("path %s: expected ignored=%v, got %v", tc.path, tc.ignored, got)
		}
	}
}

func TestMatcher_NegatedDirectoryRule(t *testing.T) {
	m := NewMatcher([]string{
		"!build/include/",
	})

	if !m.ShouldIgnore("build/out/file.py", false) {
		t.Fatalf("expected build/out/file.py to be ignored")
	}
	if m.ShouldIgnore("build/include/file.py", false) {
		t.Fatalf("expected build/include/file.py to be included")
	}
}

func TestMatcher_RepositoryGitignore(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\ngenerated/\n"), 0644); err != nil {
		t.Fatalf("write .gitignore: %v", err)
	}

	m := NewMatcher([]string{"!keep.log"}).WithGitignore(root)

	if !m.ShouldIgnore("logs/run.log", false) {
		t.Fatalf("expected *.log from .gitignore to be ignored")
	}
	if !m.ShouldIgnore("generated/out.py", false) {
		t.Fatalf("expected generated/ from .gitignore to be ignored")
	}
	if m.ShouldIgnore("keep.log", false) {
		t.Fatalf("expected user negation to override .gitignore")
	}
	if m.ShouldIgnore("app/main.py", false) {
		t.Fatalf("did not expect app/main.py to be ignored")
	}
}

func TestMatcher_MissingGitignoreIsNoop(t *testing.T) {
	m := NewMatcher(nil).WithGitignore(t.TempDir())
	if m.ShouldIgnore("app/main.py", false) {
		t.Fatalf("did not expect app/main.py to be ignored")
	}
}
