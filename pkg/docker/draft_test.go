package docker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
)

func repoMap(language, dependencyFile string, ports ...int) *sentinel.RepoMap {
	m := sentinel.NewRepoMap("app")
	m.PrimaryLanguage = language
	m.DependencyFile = dependencyFile
	m.DetectedPorts = ports
	return m
}

func TestTemplateFor(t *testing.T) {
	tests := []struct {
		name   string
		m      *sentinel.RepoMap
		want   string
		wantOK bool
	}{
		{"python", repoMap("python", "requirements.txt"), "dockerfile-python", true},
		{"typescript uses node image", repoMap("typescript", "package.json"), "dockerfile-javascript", true},
		{"go module", repoMap("go", "go.mod"), "dockerfile-gomodule", true},
		{"go without module", repoMap("go", "unknown"), "dockerfile-go", true},
		{"gradle java", repoMap("java", "build.gradle"), "dockerfile-gradle", true},
		{"maven java", repoMap("java", "pom.xml"), "dockerfile-maven", true},
		{"manifest alone is not enough", repoMap("markdown", "go.mod"), "", false},
		{"unknown", repoMap("unknown", "unknown"), "", false},
		{"nil map", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TemplateFor(tt.m)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScaffold_UnsupportedLanguage(t *testing.T) {
	_, err := NewScaffolder(zerolog.Nop()).Scaffold(repoMap("markdown", "unknown"), t.TempDir())
	assert.True(t, errors.HasCode(err, errors.CodeInvalidParameter))
}

func TestScaffold_Python(t *testing.T) {
	out := t.TempDir()
	name, err := NewScaffolder(zerolog.Nop()).Scaffold(repoMap("python", "requirements.txt", 8080), out)
	require.NoError(t, err)
	assert.Equal(t, "dockerfile-python", name)

	content, err := os.ReadFile(filepath.Join(out, "Dockerfile"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "FROM")
	assert.Contains(t, string(content), "8080")
}

func TestAvailableTemplatesCoverMapping(t *testing.T) {
	available := map[string]bool{}
	for _, name := range AvailableTemplates() {
		available[name] = true
	}
	for _, lang := range []string{"python", "javascript", "go"} {
		assert.True(t, available[languageTemplates[lang]], lang)
	}
}
