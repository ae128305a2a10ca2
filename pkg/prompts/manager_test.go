package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(zerolog.Nop(), ManagerConfig{})
	require.NoError(t, err)
	return m
}

func TestNewManager_LoadsEmbeddedTemplates(t *testing.T) {
	m := newManager(t)

	ids := []string{}
	for _, tmpl := range m.ListTemplates() {
		ids = append(ids, tmpl.ID)
	}
	assert.ElementsMatch(t, []string{DeploymentPlanID, ErrorDiagnosisID}, ids)

	plan, err := m.GetTemplate(DeploymentPlanID)
	require.NoError(t, err)
	assert.Equal(t, int32(8192), plan.MaxTokens)

	_, err = m.GetTemplate("missing")
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestPlanningPrompt(t *testing.T) {
	m := newManager(t)
	ctx := "--- FILE: app.py ---\nprint('hi')\n--- END FILE: app.py ---\n"

	p, err := m.PlanningPrompt(ctx, "Deploy to europe")
	require.NoError(t, err)

	assert.Contains(t, p.Content, ctx)
	assert.Contains(t, p.Content, "Deploy to europe")
	assert.Contains(t, p.Content, `"repo_map" and "deployment_plan"`)
	assert.Contains(t, p.Content, "autoscaling configured (min: 0, max: 10)")
	assert.Contains(t, p.Content, `deployment_region: string (default: "us-central1")`)
	assert.Contains(t, p.Content, "roles/secretmanager.secretAccessor")
	assert.Contains(t, p.Content, "Pure JSON only")
	assert.NotContains(t, p.Content, "<no value>")

	again, err := m.PlanningPrompt(ctx, "Deploy to europe")
	require.NoError(t, err)
	assert.Equal(t, p.Content, again.Content)
}

func TestPlanningPromptFor_Constraints(t *testing.T) {
	m := newManager(t)
	ug := sentinel.DefaultUserGuidelines()
	region := "europe-west1"
	ug.Region = &region
	ug.MinInstances = 1
	ug.MaxInstances = 4
	ug.CustomConstraints = []string{"No public buckets", "Use Cloud SQL"}

	p, err := m.PlanningPromptFor("ctx", "body", ug)
	require.NoError(t, err)
	assert.Contains(t, p.Content, "(min: 1, max: 4)")
	assert.Contains(t, p.Content, `(default: "europe-west1")`)
	assert.Contains(t, p.Content, "7. No public buckets\n8. Use Cloud SQL")
}

func TestDiagnosisPrompt(t *testing.T) {
	m := newManager(t)
	report := sentinel.ErrorReport{
		StackTrace:   "Traceback (most recent call last):\n  File \"app.py\", line 4",
		ErrorMessage: "KeyError: 'DATABASE_URL'",
		AffectedFile: "app.py",
		AffectedLine: 4,
	}

	p, err := m.DiagnosisPrompt("CTX", report)
	require.NoError(t, err)
	assert.Contains(t, p.Content, "CTX")
	assert.Contains(t, p.Content, "File: app.py\nLine: 4\nError Message: KeyError: 'DATABASE_URL'")
	assert.Contains(t, p.Content, report.StackTrace)
	assert.Contains(t, p.Content, `"confidence_score": number 0-1`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(p.Content), "OUTPUT FORMAT: Pure JSON only."))
}

func TestRenderTemplate_MissingParameter(t *testing.T) {
	m := newManager(t)
	_, err := m.RenderTemplate(ErrorDiagnosisID, TemplateData{"context": "x"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeTemplateRenderFailed))
}

func TestRenderTemplate_MissingParameterIsValidation(t *testing.T) {
	m := newManager(t)
	_, err := m.RenderTemplate(ErrorDiagnosisID, TemplateData{"context": "x"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeValidationFailed))
	assert.Contains(t, err.Error(), "affected_file")
}

func TestNewManager_TemplateDir(t *testing.T) {
	dir := t.TempDir()
	override := "id: error-diagnosis\nversion: 9.0.0\nsystem_prompt: \"  Be brief.\\n\"\ntemplate: \"custom {{.context}}\"\n"
	extra := "id: release-notes\ncategory: docs\ntemplate: \"notes for {{.context}}\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "diag.yaml"), []byte(override), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.yml"), []byte(extra), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	m, err := NewManager(zerolog.Nop(), ManagerConfig{TemplateDir: dir})
	require.NoError(t, err)

	p, err := m.RenderTemplate(ErrorDiagnosisID, TemplateData{"context": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "custom abc", p.Content)
	assert.Equal(t, "9.0.0", p.Version)
	assert.Equal(t, "Be brief.", p.SystemPrompt)
	assert.Equal(t, int32(2048), p.MaxTokens)

	sources := map[string]string{}
	for _, tmpl := range m.ListTemplates() {
		sources[tmpl.ID] = tmpl.Source
	}
	assert.Equal(t, map[string]string{
		DeploymentPlanID: SourceEmbedded,
		ErrorDiagnosisID: filepath.Join(dir, "diag.yaml"),
		"release-notes":  filepath.Join(dir, "notes.yml"),
	}, sources)
}

func TestNewManager_TemplateDirErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		code  errors.Code
	}{
		{
			name:  "missing directory",
			setup: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") },
			code:  errors.CodeConfigurationInvalid,
		},
		{
			name: "malformed yaml",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: [unclosed"), 0o644))
				return dir
			},
			code: errors.CodeConfigurationInvalid,
		},
		{
			name: "template without body",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.yaml"), []byte("id: empty\n"), 0o644))
				return dir
			},
			code: errors.CodeConfigurationInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager(zerolog.Nop(), ManagerConfig{TemplateDir: tt.setup(t)})
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code))
		})
	}
}
