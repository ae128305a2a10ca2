package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
)

// EnvVarPatterns capture an environment variable name in group 1.
var EnvVarPatterns = []*regexp.Regexp{
	regexp.MustCompile(`os\.environ\[['"](\w+)['"]\]`),
	regexp.MustCompile(`os\.environ\.get\(['"](\w+)['"]`),
	regexp.MustCompile(`os\.getenv\(['"](\w+)['"]`),
	regexp.MustCompile(`process\.env\.(\w+)`),
	regexp.MustCompile(`ENV\[['"](\w+)['"]\]`),
	regexp.MustCompile(`getenv\(['"](\w+)['"]`),
	regexp.MustCompile(`os\.Getenv\("(\w+)"`),
	regexp.MustCompile(`os\.LookupEnv\("(\w+)"`),
}

// PortPatterns capture a port number in group 1.
var PortPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)port\s*[=:]\s*(\d{4,5})`),
	regexp.MustCompile(`(?i)listen\((\d{4,5})`),
	regexp.MustCompile(`(?i):(\d{4,5})[/"']`),
	regexp.MustCompile(`(?i)EXPOSE\s+(\d{4,5})`),
}

// FindEnvVars returns every environment variable name referenced in content.
func FindEnvVars(content string) sets.Set[string] {
	found := sets.New[string]()
	for _, re := range EnvVarPatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			found.Insert(m[1])
		}
	}
	return found
}

// FindPorts returns every port literal in content within [MinPort, MaxPort].
func FindPorts(content string) sets.Set[int] {
	found := sets.New[int]()
	for _, re := range PortPatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			port, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if port >= sentinel.MinPort && port <= sentinel.MaxPort {
				found.Insert(port)
			}
		}
	}
	return found
}

// FindEnvVarLocations returns one SecretRequirement per distinct variable in
// content, pointing at the first line that references it.
func FindEnvVarLocations(path, content string) []sentinel.SecretRequirement {
	seen := sets.New[string]()
	var reqs []sentinel.SecretRequirement
	for i, line := range strings.Split(content, "\n") {
		for _, re := range EnvVarPatterns {
			for _, m := range re.FindAllStringSubmatch(line, -1) {
				if seen.Has(m[1]) {
					continue
				}
				seen.Insert(m[1])
				reqs = append(reqs, sentinel.SecretRequirement{
					Name:       m[1],
					SourceFile: path,
					SourceLine: i + 1,
					IsCritical: true,
				})
			}
		}
	}
	return reqs
}
