// Package prompts renders the reasoning-engine prompts from YAML templates.
// Rendering is pure: the same inputs always produce the same text.
package prompts

import (
	"strings"
	"text/template"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
)

// SourceEmbedded marks a template shipped inside the binary.
const SourceEmbedded = "embedded"

// Template is one prompt document.
type Template struct {
	ID           string            `yaml:"id" json:"id"`
	Name         string            `yaml:"name" json:"name"`
	Description  string            `yaml:"description" json:"description"`
	Version      string            `yaml:"version" json:"version"`
	Category     string            `yaml:"category" json:"category"`
	Template     string            `yaml:"template" json:"-"`
	SystemPrompt string            `yaml:"system_prompt" json:"-"`
	Parameters   []Parameter       `yaml:"parameters" json:"parameters"`
	Defaults     map[string]string `yaml:"defaults" json:"defaults,omitempty"`
	MaxTokens    int32             `yaml:"max_tokens" json:"max_tokens"`
	Temperature  float32           `yaml:"temperature" json:"temperature"`

	// Source is SourceEmbedded or the path of the file the template came from.
	Source string `yaml:"-" json:"source"`
}

// Parameter is one named input of a template.
type Parameter struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
	Required    bool   `yaml:"required" json:"required"`
}

// TemplateData holds the values a template is rendered with.
type TemplateData map[string]any

// RenderedPrompt is a rendered template with its generation hints.
type RenderedPrompt struct {
	ID           string
	Version      string
	Content      string
	SystemPrompt string
	MaxTokens    int32
	Temperature  float32
}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}

// Render fills the template's defaults, checks required parameters and
// executes it.
func (t *Template) Render(data TemplateData) (*RenderedPrompt, error) {
	values := make(TemplateData, len(t.Defaults)+len(data))
	for k, v := range t.Defaults {
		values[k] = v
	}
	for k, v := range data {
		values[k] = v
	}

	for _, p := range t.Parameters {
		if _, ok := values[p.Name]; p.Required && !ok {
			return nil, errors.Newf(errors.CodeValidationFailed, "prompts",
				"template %s: required parameter %q missing", t.ID, p.Name)
		}
	}

	tmpl, err := template.New(t.ID).Funcs(funcs).Parse(t.Template)
	if err != nil {
		return nil, errors.New(errors.CodeTemplateRenderFailed, "prompts", "parse template "+t.ID, err)
	}
	var content strings.Builder
	if err := tmpl.Execute(&content, values); err != nil {
		return nil, errors.New(errors.CodeTemplateRenderFailed, "prompts", "execute template "+t.ID, err)
	}

	return &RenderedPrompt{
		ID:           t.ID,
		Version:      t.Version,
		Content:      content.String(),
		SystemPrompt: strings.TrimSpace(t.SystemPrompt),
		MaxTokens:    t.MaxTokens,
		Temperature:  t.Temperature,
	}, nil
}

func (t *Template) applyHints() {
	if t.MaxTokens == 0 {
		t.MaxTokens = 2048
	}
	if t.Temperature == 0 {
		t.Temperature = 0.3
	}
	if t.Version == "" {
		t.Version = "1.0.0"
	}
}
