// Package docker scaffolds a baseline Dockerfile from the Azure/draft
// template catalog. The scaffold is a deterministic starting point that does
// not depend on the reasoning engine.
package docker

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/Azure/draft/pkg/handlers"
	"github.com/Azure/draft/pkg/templatewriter/writers"
	"github.com/rs/zerolog"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
)

// languageTemplates maps RepoMap language tags to draft Dockerfile templates.
var languageTemplates = map[string]string{
	"go":         "dockerfile-go",
	"java":       "dockerfile-maven",
	"kotlin":     "dockerfile-gradle",
	"javascript": "dockerfile-javascript",
	"typescript": "dockerfile-javascript",
	"python":     "dockerfile-python",
	"ruby":       "dockerfile-ruby",
	"php":        "dockerfile-php",
	"csharp":     "dockerfile-csharp",
	"rust":       "dockerfile-rust",
	"swift":      "dockerfile-swift",
	"clojure":    "dockerfile-clojure",
	"erlang":     "dockerfile-erlang",
}

// dependencyTemplates refine the language choice by manifest.
var dependencyTemplates = map[string]string{
	"go.mod":       "dockerfile-gomodule",
	"pom.xml":      "dockerfile-maven",
	"build.gradle": "dockerfile-gradle",
}

// TemplateFor picks the draft template for a repository map.
func TemplateFor(m *sentinel.RepoMap) (string, bool) {
	if m == nil {
		return "", false
	}
	lang := strings.ToLower(m.PrimaryLanguage)
	if name, ok := dependencyTemplates[m.DependencyFile]; ok && languageTemplates[lang] != "" {
		return name, true
	}
	name, ok := languageTemplates[lang]
	return name, ok
}

// AvailableTemplates lists the Dockerfile templates draft ships with.
func AvailableTemplates() []string {
	return slices.Sorted(maps.Keys(handlers.GetTemplatesByType(handlers.TemplateTypeDockerfile)))
}

// Scaffolder writes draft Dockerfiles.
type Scaffolder struct {
	logger zerolog.Logger
}

// NewScaffolder returns a Scaffolder.
func NewScaffolder(logger zerolog.Logger) *Scaffolder {
	return &Scaffolder{logger: logger.With().Str("component", "draft_scaffolder").Logger()}
}

// Scaffold writes a Dockerfile for m into outputDir and returns the template
// used. The first detected port becomes the exposed port.
func (s *Scaffolder) Scaffold(m *sentinel.RepoMap, outputDir string) (string, error) {
	name, ok := TemplateFor(m)
	if !ok {
		lang := "unknown"
		if m != nil {
			lang = m.PrimaryLanguage
		}
		return "", errors.Newf(errors.CodeInvalidParameter, "docker",
			"no draft Dockerfile template for language %q", lang)
	}

	variables := map[string]string{}
	if len(m.DetectedPorts) > 0 {
		variables["PORT"] = strconv.Itoa(m.DetectedPorts[0])
	}

	if err := s.generate(name, outputDir, variables); err != nil {
		return "", err
	}
	s.logger.Info().Str("template", name).Str("output", outputDir).Msg("Scaffolded Dockerfile")
	return name, nil
}

func (s *Scaffolder) generate(templateName, outputDir string, variables map[string]string) error {
	writer := writers.LocalFSWriter{
		WriteMode: 0644,
	}

	template, err := handlers.GetTemplate(templateName, "", outputDir, &writer)
	if err != nil {
		return errors.New(errors.CodeTemplateRenderFailed, "docker",
			fmt.Sprintf("error getting template '%s' from draft", templateName), err)
	}
	if template == nil {
		return errors.Newf(errors.CodeNotFound, "docker", "template not found: %s", templateName)
	}

	for k, v := range variables {
		template.Config.SetVariable(k, v)
	}

	if err := template.Generate(); err != nil {
		return errors.New(errors.CodeTemplateRenderFailed, "docker",
			fmt.Sprintf("error generating files from template %s", templateName), err)
	}
	return nil
}
