package analysis

import (
	"bufio"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
)

// DependencyFiles maps a recognized manifest filename to its ecosystem.
var DependencyFiles = map[string]string{
	"requirements.txt": "python",
	"Pipfile":          "python",
	"pyproject.toml":   "python",
	"setup.py":         "python",
	"package.json":     "javascript",
	"yarn.lock":        "javascript",
	"pnpm-lock.yaml":   "javascript",
	"go.mod":           "go",
	"Cargo.toml":       "rust",
	"Gemfile":          "ruby",
	"pom.xml":          "java",
	"build.gradle":     "java",
	"composer.json":    "php",
}

// IsDependencyFile reports whether name is a recognized manifest filename.
func IsDependencyFile(name string) bool {
	_, ok := DependencyFiles[name]
	return ok
}

// rangeOperators are stripped from requirement names. Longer operators come first.
var rangeOperators = []string{">=", "<=", "~=", "!=", "===", ">", "<", "[", ";", "@", " "}

// ExtractDependencies reads the manifest at path and parses it as kind.
func ExtractDependencies(path, kind string) ([]sentinel.DependencyInfo, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeIoError, "analysis", fmt.Sprintf("read manifest %s", path), err)
	}
	return ParseDependencies(kind, content)
}

// ParseDependencies parses manifest content of the given kind. On a malformed
// manifest the dependencies decoded before the failure are returned together
// with a CodeManifestParseFailed error. Kinds without a parser yield nothing.
func ParseDependencies(kind string, content []byte) ([]sentinel.DependencyInfo, error) {
	switch kind {
	case "requirements.txt":
		return parseRequirements(kind, content), nil
	case "package.json":
		return parseJSONGroups(kind, content, "dependencies", "devDependencies")
	case "composer.json":
		return parseJSONGroups(kind, content, "require", "require-dev")
	case "pyproject.toml":
		return parsePyProject(kind, content)
	case "Pipfile":
		return parseTOMLGroups(kind, content, []string{"packages"}, []string{"dev-packages"})
	case "Cargo.toml":
		return parseTOMLGroups(kind, content, []string{"dependencies"}, []string{"dev-dependencies"})
	case "go.mod":
		return parseGoMod(kind, content)
	case "pom.xml":
		return parsePom(kind, content)
	default:
		return []sentinel.DependencyInfo{}, nil
	}
}

func manifestError(kind string, cause error) error {
	return errors.New(errors.CodeManifestParseFailed, "analysis", fmt.Sprintf("malformed %s", kind), cause)
}

func dependency(name string, version *string, source string) sentinel.DependencyInfo {
	return sentinel.DependencyInfo{Name: name, Version: version, Source: source}
}

func versionPtr(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" || v == "*" {
		return nil
	}
	return &v
}

func parseRequirements(source string, content []byte) []sentinel.DependencyInfo {
	deps := []sentinel.DependencyInfo{}
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		if dep, ok := parseRequirementLine(scanner.Text(), source); ok {
			deps = append(deps, dep)
		}
	}
	return deps
}

// parseRequirementLine handles one pinned-requirement line. An exact pin keeps
// its version; range operators and extras are stripped from the name.
func parseRequirementLine(line, source string) (sentinel.DependencyInfo, bool) {
	if i := strings.Index(line, " #"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
		return sentinel.DependencyInfo{}, false
	}

	var version *string
	name := line
	if i := strings.Index(line, "=="); i >= 0 {
		name = line[:i]
		v := strings.TrimLeft(line[i+2:], "=")
		if j := strings.IndexAny(v, ";,"); j >= 0 {
			v = v[:j]
		}
		version = versionPtr(v)
	}
	for _, op := range rangeOperators {
		if i := strings.Index(name, op); i >= 0 {
			name = name[:i]
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return sentinel.DependencyInfo{}, false
	}
	return dependency(name, version, source), true
}

func parseJSONGroups(source string, content []byte, groups ...string) ([]sentinel.DependencyInfo, error) {
	deps := []sentinel.DependencyInfo{}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(content, &doc); err != nil {
		return deps, manifestError(source, err)
	}
	for _, group := range groups {
		raw, ok := doc[group]
		if !ok {
			continue
		}
		var entries map[string]string
		if err := json.Unmarshal(raw, &entries); err != nil {
			return deps, manifestError(source, fmt.Errorf("%s: %w", group, err))
		}
		for _, name := range sortedKeys(entries) {
			deps = append(deps, dependency(name, versionPtr(entries[name]), source))
		}
	}
	return deps, nil
}

func parsePyProject(source string, content []byte) ([]sentinel.DependencyInfo, error) {
	deps := []sentinel.DependencyInfo{}
	var doc struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(content, &doc); err != nil {
		return deps, manifestError(source, err)
	}
	for _, line := range doc.Project.Dependencies {
		if dep, ok := parseRequirementLine(line, source); ok {
			deps = append(deps, dep)
		}
	}
	for _, name := range sortedKeys(doc.Tool.Poetry.Dependencies) {
		if name == "python" {
			continue
		}
		deps = append(deps, dependency(name, tomlVersion(doc.Tool.Poetry.Dependencies[name]), source))
	}
	return deps, nil
}

// parseTOMLGroups reads tables of name = version entries, runtime groups first.
func parseTOMLGroups(source string, content []byte, runtime, dev []string) ([]sentinel.DependencyInfo, error) {
	deps := []sentinel.DependencyInfo{}
	var doc map[string]any
	if err := toml.Unmarshal(content, &doc); err != nil {
		return deps, manifestError(source, err)
	}
	for _, group := range append(append([]string(nil), runtime...), dev...) {
		raw, ok := doc[group]
		if !ok {
			continue
		}
		table, ok := raw.(map[string]any)
		if !ok {
			return deps, manifestError(source, fmt.Errorf("[%s] is not a table", group))
		}
		for _, name := range sortedKeys(table) {
			deps = append(deps, dependency(name, tomlVersion(table[name]), source))
		}
	}
	return deps, nil
}

// tomlVersion accepts both `name = "1.0"` and `name = { version = "1.0" }`.
func tomlVersion(v any) *string {
	switch val := v.(type) {
	case string:
		return versionPtr(val)
	case map[string]any:
		if s, ok := val["version"].(string); ok {
			return versionPtr(s)
		}
	}
	return nil
}

func parseGoMod(source string, content []byte) ([]sentinel.DependencyInfo, error) {
	deps := []sentinel.DependencyInfo{}
	f, err := modfile.ParseLax(source, content, nil)
	if err != nil {
		return deps, manifestError(source, err)
	}
	for _, req := range f.Require {
		deps = append(deps, dependency(req.Mod.Path, versionPtr(req.Mod.Version), source))
	}
	return deps, nil
}

type pomProject struct {
	Dependencies []struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
		Version    string `xml:"version"`
	} `xml:"dependencies>dependency"`
}

func parsePom(source string, content []byte) ([]sentinel.DependencyInfo, error) {
	deps := []sentinel.DependencyInfo{}
	var pom pomProject
	if err := xml.Unmarshal(content, &pom); err != nil {
		return deps, manifestError(source, err)
	}
	for _, d := range pom.Dependencies {
		name := d.ArtifactID
		if d.GroupID != "" {
			name = d.GroupID + ":" + d.ArtifactID
		}
		if strings.TrimSpace(d.ArtifactID) == "" {
			continue
		}
		deps = append(deps, dependency(name, versionPtr(d.Version), source))
	}
	return deps, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
