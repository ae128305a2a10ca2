package ingest

import (
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
)

const frontMatterDelimiter = "---"

// ParseGuidelines splits an optional YAML front-matter block off a guidelines
// document. Fields absent from the front-matter keep their defaults. On a
// malformed block the defaults and the whole text are returned with an error.
func ParseGuidelines(text string) (sentinel.UserGuidelines, string, error) {
	guidelines := sentinel.DefaultUserGuidelines()

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasPrefix(normalized, frontMatterDelimiter+"\n") {
		return guidelines, text, nil
	}
	rest := normalized[len(frontMatterDelimiter)+1:]
	end := strings.Index(rest, "\n"+frontMatterDelimiter)
	if end < 0 {
		return guidelines, text, nil
	}

	header := rest[:end]
	body := strings.TrimPrefix(rest[end+len(frontMatterDelimiter)+1:], "\n")

	if err := yaml.Unmarshal([]byte(header), &guidelines); err != nil {
		return sentinel.DefaultUserGuidelines(), text, errors.New(errors.CodeValidationFailed, "ingest",
			"malformed guidelines front-matter", err)
	}
	if guidelines.CustomConstraints == nil {
		guidelines.CustomConstraints = []string{}
	}
	return guidelines, body, nil
}
