package scanner

import (
	"path"
	"strings"
)

// Category classifies a file for downstream consumers.
type Category string

const (
	CategorySource Category = "source"
	CategoryDoc    Category = "doc"
	CategoryConfig Category = "config"
	CategoryOther  Category = "other"
)

// FileRecord is the scanner's immutable view of one file.
type FileRecord struct {
	Path       string   `json:"path"` // slash-separated, relative to the root
	Category   Category `json:"category"`
	Language   string   `json:"language,omitempty"`
	Size       int64    `json:"size"`
	Truncated  bool     `json:"truncated,omitempty"` // over the size ceiling; listed, never parsed
	EntryPoint bool     `json:"entry_point,omitempty"`
	Test       bool     `json:"test,omitempty"`
}

var extLanguages = map[string]string{
	".py":    "python",
	".pyi":   "python",
	".pyw":   "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".go":    "go",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".cc":    "cpp",
	".cs":    "csharp",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".kts":   "kotlin",
	".sh":    "shell",
	".bash":  "shell",
	".zsh":   "shell",
}

var entryPointNames = map[string]bool{
	"main.py":     true,
	"__main__.py": true,
	"app.py":      true,
	"server.py":   true,
	"manage.py":   true,
	"index.js":    true,
	"index.ts":    true,
	"main.go":     true,
	"main.rs":     true,
	"Program.cs":  true,
	"Main.java":   true,
	"main.kt":     true,
}

// matched case-insensitively
var configBasenames = map[string]bool{
	"pyproject.toml":      true,
	"setup.cfg":           true,
	"setup.py":            true,
	"requirements.txt":    true,
	"package.json":        true,
	"tsconfig.json":       true,
	"cargo.toml":          true,
	"go.mod":              true,
	"pom.xml":             true,
	"build.gradle":        true,
	"build.gradle.kts":    true,
	"gemfile":             true,
	"composer.json":       true,
	"makefile":            true,
	"cmakelists.txt":      true,
	"dockerfile":          true,
	"docker-compose.yml":  true,
	"docker-compose.yaml": true,
	".env":                true,
	".env.example":        true,
	".codecompass.yaml":   true,
}

var docExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".rst":      true,
	".txt":      true,
	".adoc":     true,
}

var docBasenames = map[string]bool{
	"readme":       true,
	"changelog":    true,
	"contributing": true,
	"license":      true,
	"authors":      true,
}

var testDirNames = map[string]bool{
	"tests":     true,
	"test":      true,
	"spec":      true,
	"__tests__": true,
	"testing":   true,
}

func isConfigFile(relPath string) bool {
	return configBasenames[strings.ToLower(path.Base(relPath))]
}

// LanguageForPath returns the language detected from the file extension.
func LanguageForPath(relPath string) string {
	return extLanguages[strings.ToLower(path.Ext(relPath))]
}

// Classify derives category, language and role flags from a relative path.
func Classify(relPath string) FileRecord {
	base := path.Base(relPath)
	lowerBase := strings.ToLower(base)
	ext := strings.ToLower(path.Ext(base))

	record := FileRecord{
		Path:       relPath,
		Language:   extLanguages[ext],
		EntryPoint: entryPointNames[base],
	}

	// setup.py is parsed like any other module; the summary still lists it
	// as a config file.
	switch {
	case record.Language != "":
		record.Category = CategorySource
	case configBasenames[lowerBase]:
		record.Category = CategoryConfig
	case docExtensions[ext] || docBasenames[strings.TrimSuffix(lowerBase, ext)]:
		record.Category = CategoryDoc
	default:
		record.Category = CategoryOther
	}

	for _, part := range strings.Split(path.Dir(relPath), "/") {
		if testDirNames[part] {
			record.Test = true
			break
		}
	}
	if record.Language == "python" && (strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py")) {
		record.Test = true
	}
	return record
}
