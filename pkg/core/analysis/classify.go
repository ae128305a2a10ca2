package analysis

import (
	"path/filepath"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// UnknownLanguage tags files whose extension has no mapping.
const UnknownLanguage = "unknown"

// CodeExtensions are the source, config and doc extensions included in context.
var CodeExtensions = sets.New(
	".py", ".js", ".ts", ".tsx", ".jsx", ".java", ".go", ".rs",
	".rb", ".php", ".c", ".cpp", ".h", ".hpp", ".cs", ".swift",
	".kt", ".scala", ".vue", ".svelte", ".html", ".css", ".scss",
	".sass", ".less", ".sql", ".sh", ".bash", ".zsh", ".ps1",
	".yaml", ".yml", ".json", ".toml", ".ini", ".cfg", ".conf",
	".md", ".rst", ".txt", ".dockerfile", ".tf", ".hcl",
)

// ConventionalNames are extension-less files that still count as code.
var ConventionalNames = sets.New(
	"dockerfile",
	"makefile",
	"rakefile",
	"gemfile",
	"procfile",
)

// Languages maps a lower-case extension to a language tag.
var Languages = map[string]string{
	".py":     "python",
	".js":     "javascript",
	".ts":     "typescript",
	".tsx":    "typescript",
	".jsx":    "javascript",
	".java":   "java",
	".go":     "go",
	".rs":     "rust",
	".rb":     "ruby",
	".php":    "php",
	".c":      "c",
	".cpp":    "cpp",
	".cs":     "csharp",
	".swift":  "swift",
	".kt":     "kotlin",
	".scala":  "scala",
	".vue":    "vue",
	".svelte": "svelte",
	".html":   "html",
	".css":    "css",
	".sql":    "sql",
	".sh":     "shell",
	".yaml":   "yaml",
	".yml":    "yaml",
	".json":   "json",
	".tf":     "terraform",
	".hcl":    "hcl",
	".md":     "markdown",
}

// IsCodeFile reports whether path should be read into context.
func IsCodeFile(path string) bool {
	base := filepath.Base(path)
	if CodeExtensions.Has(strings.ToLower(filepath.Ext(base))) {
		return true
	}
	return ConventionalNames.Has(strings.ToLower(base))
}

// DetectLanguage returns the language tag for path.
func DetectLanguage(path string) string {
	if lang, ok := Languages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return UnknownLanguage
}
