package scanner

import (
	"bufio"
	"bytes"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/negaga53/codecompass/internal/ignore"
)

// RepoSummary is a high-level description of a scanned tree.
type RepoSummary struct {
	Name            string   `json:"name"`
	Root            string   `json:"root"`
	Languages       []string `json:"languages"`
	TotalFiles      int      `json:"total_files"`
	TotalLines      int      `json:"total_lines"`
	EntryPoints     []string `json:"entry_points,omitempty"`
	ConfigFiles     []string `json:"config_files,omitempty"`
	TestDirectories []string `json:"test_directories,omitempty"`
	CISystem        string   `json:"ci_system,omitempty"`
	HasReadme       bool     `json:"has_readme"`
	HasContributing bool     `json:"has_contributing"`
	HasLicense      bool     `json:"has_license"`
	DirectoryTree   string   `json:"directory_tree,omitempty"`
}

var ciIndicators = []struct {
	path string
	name string
}{
	{".github/workflows", "GitHub Actions"},
	{".gitlab-ci.yml", "GitLab CI"},
	{"Jenkinsfile", "Jenkins"},
	{".circleci", "CircleCI"},
	{".travis.yml", "Travis CI"},
	{"azure-pipelines.yml", "Azure Pipelines"},
	{"bitbucket-pipelines.yml", "Bitbucket Pipelines"},
}

// Summarize aggregates records into a RepoSummary. Line counts are read
// from disk for files under the size ceiling; unreadable files count zero.
func Summarize(root string, records []FileRecord, matcher *ignore.Matcher, treeDepth int) RepoSummary {
	summary := RepoSummary{
		Name:            filepath.Base(root),
		Root:            root,
		Languages:       make([]string, 0),
		EntryPoints:     make([]string, 0),
		ConfigFiles:     make([]string, 0),
		TestDirectories: make([]string, 0),
	}

	languages := make(map[string]bool)
	testDirs := make(map[string]bool)
	for _, record := range records {
		summary.TotalFiles++
		if record.Language != "" {
			languages[record.Language] = true
		}
		if record.EntryPoint {
			summary.EntryPoints = append(summary.EntryPoints, record.Path)
		}
		if record.Category == CategoryConfig || isConfigFile(record.Path) {
			summary.ConfigFiles = append(summary.ConfigFiles, record.Path)
		}
		if record.Test {
			testDirs[strings.SplitN(record.Path, "/", 2)[0]] = true
		}
		if !record.Truncated {
			summary.TotalLines += countLines(filepath.Join(root, filepath.FromSlash(record.Path)))
		}

		switch strings.ToLower(path.Base(record.Path)) {
		case "readme.md", "readme.rst", "readme":
			summary.HasReadme = summary.HasReadme || !strings.Contains(record.Path, "/")
		case "contributing.md":
			summary.HasContributing = summary.HasContributing || !strings.Contains(record.Path, "/")
		case "license", "license.md", "license.txt":
			summary.HasLicense = summary.HasLicense || !strings.Contains(record.Path, "/")
		}
	}

	for lang := range languages {
		summary.Languages = append(summary.Languages, lang)
	}
	sort.Strings(summary.Languages)
	for dir := range testDirs {
		summary.TestDirectories = append(summary.TestDirectories, dir)
	}
	sort.Strings(summary.TestDirectories)

	for _, indicator := range ciIndicators {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(indicator.path))); err == nil {
			summary.CISystem = indicator.name
			break
		}
	}

	summary.DirectoryTree = RenderTree(root, treeDepth, matcher)
	return summary
}

func countLines(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines++
	}
	return lines
}

// RenderTree draws an ASCII directory tree up to depth levels, directories
// first, skipping ignored entries.
func RenderTree(root string, depth int, matcher *ignore.Matcher) string {
	if matcher == nil {
		matcher = ignore.NewMatcher(nil)
	}
	var b bytes.Buffer
	b.WriteString(filepath.Base(root) + "/")
	renderTreeLevel(&b, root, "", "", 0, depth, matcher)
	return b.String()
}

func renderTreeLevel(b *bytes.Buffer, root, relDir, prefix string, level, depth int, matcher *ignore.Matcher) {
	if level >= depth {
		return
	}
	entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(relDir)))
	if err != nil {
		return
	}

	visible := make([]os.DirEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		if matcher.ShouldIgnore(path.Join(relDir, entry.Name()), entry.IsDir()) {
			continue
		}
		visible = append(visible, entry)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].IsDir() != visible[j].IsDir() {
			return visible[i].IsDir()
		}
		return visible[i].Name() < visible[j].Name()
	})

	for i, entry := range visible {
		last := i == len(visible)-1
		connector := "├── "
		extension := "│   "
		if last {
			connector = "└── "
			extension = "    "
		}
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		b.WriteString("\n" + prefix + connector + name)
		if entry.IsDir() {
			renderTreeLevel(b, root, path.Join(relDir, entry.Name()), prefix+extension, level+1, depth, matcher)
		}
	}
}
