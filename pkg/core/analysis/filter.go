// Package analysis holds the deterministic, AI-free rules used to read a
// repository: which paths to skip, how files are classified, how manifests are
// parsed and what the source reveals about secrets, ports and frameworks.
package analysis

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
	"k8s.io/apimachinery/pkg/util/sets"
)

// DeniedNames are directory and file names that are never traversed.
var DeniedNames = sets.New(
	".git",
	"__pycache__",
	"node_modules",
	"venv",
	".venv",
	"env",
	".env",
	".idea",
	".vscode",
	"dist",
	"build",
	".next",
	"coverage",
	".pytest_cache",
	".mypy_cache",
	".DS_Store",
	"Thumbs.db",
)

// DeniedPatterns are wildcard patterns matched against a path's base name.
var DeniedPatterns = []string{
	"*.pyc",
	"*.pyo",
	"*.egg-info",
}

// FilterPolicy decides which paths are excluded from traversal.
type FilterPolicy struct {
	names     sets.Set[string]
	patterns  []string
	gitIgnore *ignore.GitIgnore
}

// NewFilterPolicy returns the fixed deny policy with no .gitignore layer.
func NewFilterPolicy() *FilterPolicy {
	return &FilterPolicy{
		names:    DeniedNames.Clone(),
		patterns: append([]string(nil), DeniedPatterns...),
	}
}

// NewFilterPolicyForRoot returns the deny policy extended with the rules of
// root/.gitignore when that file exists.
func NewFilterPolicyForRoot(root string) *FilterPolicy {
	policy := NewFilterPolicy()
	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return policy
	}
	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	policy.gitIgnore = ignore.CompileIgnoreLines(lines...)
	return policy
}

// Excluded reports whether relPath must be skipped. Only the base name is
// checked against the deny set and patterns; the .gitignore layer sees the
// full slash-separated relative path.
func (p *FilterPolicy) Excluded(relPath string, isDir bool) bool {
	name := filepath.Base(relPath)
	if p.names.Has(name) {
		return true
	}
	for _, pattern := range p.patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	if p.gitIgnore != nil {
		rel := filepath.ToSlash(relPath)
		if isDir {
			rel += "/"
		}
		if p.gitIgnore.MatchesPath(rel) {
			return true
		}
	}
	return false
}

// Walk visits every non-excluded regular file under root in lexical order,
// pruning excluded directories. fn receives the slash-separated path relative
// to root. Errors on individual entries are passed to onErr and skipped.
func (p *FilterPolicy) Walk(root string, fn func(relPath, absPath string, info os.FileInfo) error, onErr func(path string, err error)) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if onErr != nil {
				onErr(path, err)
			}
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if p.Excluded(rel, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		return fn(filepath.ToSlash(rel), path, info)
	})
}
