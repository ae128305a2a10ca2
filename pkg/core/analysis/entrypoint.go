package analysis

import (
	"os"
	"path/filepath"
	"strings"
)

// UnknownEntryPoint is reported when no entry file can be found.
const UnknownEntryPoint = "unknown"

// EntryPoints lists candidate entry files per language in priority order.
var EntryPoints = map[string][]string{
	"python":     {"main.py", "app.py", "run.py", "server.py", "__main__.py", "manage.py", "wsgi.py"},
	"javascript": {"index.js", "main.js", "app.js", "server.js", "index.ts", "main.ts"},
	"typescript": {"index.ts", "main.ts", "app.ts", "server.ts", "index.js", "main.js"},
	"go":         {"main.go", "cmd/main.go"},
	"rust":       {"main.rs", "lib.rs", "src/main.rs", "src/lib.rs"},
	"java":       {"Main.java", "Application.java"},
}

// FindEntryPoint returns the first existing candidate for language under root,
// then any root-level file whose name contains "main", then "unknown".
func FindEntryPoint(root, language string) string {
	for _, candidate := range EntryPoints[language] {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(candidate)))
		if err == nil && !info.IsDir() {
			return candidate
		}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return UnknownEntryPoint
	}
	for _, e := range entries {
		if e.Type().IsRegular() && strings.Contains(strings.ToLower(e.Name()), "main") {
			return e.Name()
		}
	}
	return UnknownEntryPoint
}
