package git

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RepoName derives a directory name from a clone URL, dropping a .git suffix
// and any trailing slash.
func RepoName(url string) string {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	url = strings.TrimSuffix(url, ".git")
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		url = url[i+1:]
	}
	if url == "" || url == "." || url == ".." {
		return "repository"
	}
	return url
}

// TargetDir returns workspace/name, refusing names that escape the workspace.
func TargetDir(workspace, name string) (string, error) {
	absRoot, err := filepath.Abs(workspace)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	target := filepath.Join(absRoot, name)
	rel, err := filepath.Rel(absRoot, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path traversal detected: %s", name)
	}
	return target, nil
}
