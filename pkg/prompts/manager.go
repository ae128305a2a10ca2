package prompts

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
)

// Template IDs shipped with the binary.
const (
	DeploymentPlanID = "deployment-plan"
	ErrorDiagnosisID = "error-diagnosis"
)

//go:embed templates/*.yaml
var embeddedTemplates embed.FS

// Manager holds the loaded prompt templates.
type Manager struct {
	templates map[string]*Template
	mu        sync.RWMutex
	logger    zerolog.Logger
	config    ManagerConfig
}

// ManagerConfig holds configuration for the template manager.
type ManagerConfig struct {
	// TemplateDir holds YAML templates that replace built-in templates with
	// the same ID or add new ones. Empty means built-in templates only.
	TemplateDir string
}

// NewManager loads the embedded templates and, when configured, the
// operator's template directory on top of them.
func NewManager(logger zerolog.Logger, config ManagerConfig) (*Manager, error) {
	m := &Manager{
		templates: make(map[string]*Template),
		logger:    logger.With().Str("component", "prompt_manager").Logger(),
		config:    config,
	}

	if err := m.loadEmbeddedTemplates(); err != nil {
		return nil, errors.New(errors.CodeInternalError, "prompts", "load embedded templates", err)
	}

	if config.TemplateDir != "" {
		if err := m.loadTemplateDir(config.TemplateDir); err != nil {
			return nil, err
		}
	}

	m.logger.Debug().
		Int("count", len(m.templates)).
		Str("template_dir", config.TemplateDir).
		Msg("Template manager initialized")

	return m, nil
}

// GetTemplate retrieves a template by ID
func (m *Manager) GetTemplate(id string) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	template, exists := m.templates[id]
	if !exists {
		return nil, errors.Newf(errors.CodeNotFound, "prompts", "template not found: %s", id)
	}

	return template, nil
}

// RenderTemplate renders a template with the given data
func (m *Manager) RenderTemplate(id string, data TemplateData) (*RenderedPrompt, error) {
	template, err := m.GetTemplate(id)
	if err != nil {
		return nil, err
	}

	rendered, err := template.Render(data)
	if err != nil {
		m.logger.Error().Err(err).Str("template_id", id).Msg("Template rendering failed")
		return nil, errors.New(errors.CodeTemplateRenderFailed, "prompts", "render "+id, err)
	}

	m.logger.Debug().
		Str("template_id", id).
		Int("content_length", len(rendered.Content)).
		Msg("Template rendered")

	return rendered, nil
}

// ListTemplates returns all loaded templates sorted by ID.
func (m *Manager) ListTemplates() []*Template {
	m.mu.RLock()
	defer m.mu.RUnlock()

	templates := make([]*Template, 0, len(m.templates))
	for _, template := range m.templates {
		templates = append(templates, template)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })

	return templates
}

// PlanningPrompt renders the deployment-plan prompt with default constraints.
func (m *Manager) PlanningPrompt(context, guidelines string) (*RenderedPrompt, error) {
	return m.PlanningPromptFor(context, guidelines, sentinel.DefaultUserGuidelines())
}

// PlanningPromptFor renders the deployment-plan prompt with the constraints
// declared in the guidelines front-matter.
func (m *Manager) PlanningPromptFor(context, guidelines string, ug sentinel.UserGuidelines) (*RenderedPrompt, error) {
	data := TemplateData{
		"context":            context,
		"guidelines":         guidelines,
		"min_instances":      strconv.Itoa(ug.MinInstances),
		"max_instances":      strconv.Itoa(ug.MaxInstances),
		"custom_constraints": ug.CustomConstraints,
	}
	if ug.Region != nil && *ug.Region != "" {
		data["region"] = *ug.Region
	}
	if ug.MemoryLimit != "" {
		data["memory_limit"] = ug.MemoryLimit
	}
	if ug.CPULimit != "" {
		data["cpu_limit"] = ug.CPULimit
	}
	return m.RenderTemplate(DeploymentPlanID, data)
}

// DiagnosisPrompt renders the error-diagnosis prompt for report.
func (m *Manager) DiagnosisPrompt(context string, report sentinel.ErrorReport) (*RenderedPrompt, error) {
	return m.RenderTemplate(ErrorDiagnosisID, TemplateData{
		"context":       context,
		"affected_file": report.AffectedFile,
		"affected_line": report.AffectedLine,
		"error_message": report.ErrorMessage,
		"stack_trace":   report.StackTrace,
	})
}

func (m *Manager) loadEmbeddedTemplates() error {
	return fs.WalkDir(embeddedTemplates, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".yaml") {
			return nil
		}

		data, err := embeddedTemplates.ReadFile(path)
		if err != nil {
			return err
		}
		template, err := parseTemplate(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		template.Source = SourceEmbedded
		m.templates[template.ID] = template
		return nil
	})
}

// loadTemplateDir reads the top level of dir. A template that fails to parse
// aborts the load so a broken override never silently falls back.
func (m *Manager) loadTemplateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.New(errors.CodeConfigurationInvalid, "prompts", "read template directory "+dir, err)
	}

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.New(errors.CodeIoError, "prompts", "read template "+path, err)
		}
		template, err := parseTemplate(data)
		if err != nil {
			return errors.New(errors.CodeConfigurationInvalid, "prompts", "parse template "+path, err)
		}
		template.Source = path

		if existing, ok := m.templates[template.ID]; ok {
			m.logger.Info().
				Str("template_id", template.ID).
				Str("previous_version", existing.Version).
				Str("new_version", template.Version).
				Str("path", path).
				Msg("Template overridden")
		} else {
			m.logger.Debug().Str("template_id", template.ID).Str("path", path).Msg("Template added")
		}
		m.templates[template.ID] = template
	}
	return nil
}

func parseTemplate(data []byte) (*Template, error) {
	var template Template
	if err := yaml.Unmarshal(data, &template); err != nil {
		return nil, err
	}
	if template.ID == "" {
		return nil, fmt.Errorf("template ID is required")
	}
	if template.Template == "" {
		return nil, fmt.Errorf("template content is required")
	}
	template.applyHints()
	return &template, nil
}
