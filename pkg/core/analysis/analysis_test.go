package analysis

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFilterPolicy_Excluded(t *testing.T) {
	p := NewFilterPolicy()
	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"node_modules", true, true},
		{"src/node_modules", true, true},
		{"a/b/c/__pycache__", true, true},
		{".git", true, true},
		{"app/models.pyc", false, true},
		{"pkg/thing.egg-info", true, true},
		{".DS_Store", false, true},
		{"src/app.py", false, false},
		{"environment", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Excluded(tt.path, tt.isDir))
		})
	}
}

func TestFilterPolicy_GitIgnoreLayer(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "secrets/\n*.log\n")

	p := NewFilterPolicyForRoot(root)
	assert.True(t, p.Excluded("secrets", true))
	assert.True(t, p.Excluded("logs/run.log", false))
	assert.False(t, p.Excluded("main.py", false))
}

func TestFilterPolicy_WalkNeverEntersDeniedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "print('hi')")
	writeFile(t, root, "node_modules/lib/index.js", "x")
	writeFile(t, root, "src/deep/node_modules/pkg/index.js", "x")
	writeFile(t, root, "src/deep/handler.py", "x")
	writeFile(t, root, "venv/lib/site.py", "x")

	var visited []string
	err := NewFilterPolicy().Walk(root, func(rel, _ string, _ os.FileInfo) error {
		visited = append(visited, rel)
		return nil
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"main.py", "src/deep/handler.py"}, visited)
}

func TestIsCodeFile(t *testing.T) {
	assert.True(t, IsCodeFile("app/main.PY"))
	assert.True(t, IsCodeFile("Dockerfile"))
	assert.True(t, IsCodeFile("deploy/Procfile"))
	assert.True(t, IsCodeFile("infra/main.tf"))
	assert.False(t, IsCodeFile("logo.png"))
	assert.False(t, IsCodeFile("LICENSE"))
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "python", DetectLanguage("main.py"))
	assert.Equal(t, "typescript", DetectLanguage("ui/App.TSX"))
	assert.Equal(t, "terraform", DetectLanguage("main.tf"))
	assert.Equal(t, UnknownLanguage, DetectLanguage("notes.txt"))
	assert.Equal(t, UnknownLanguage, DetectLanguage("Dockerfile"))
}

func TestParseDependencies_Requirements(t *testing.T) {
	content := `# web
flask==2.0.1
requests[security]>=2.25
numpy<=1.21  # pinned upper bound

-r dev.txt
gunicorn
django~=4.2
`
	deps, err := ParseDependencies("requirements.txt", []byte(content))
	require.NoError(t, err)
	require.Len(t, deps, 5)

	assert.Equal(t, "flask", deps[0].Name)
	require.NotNil(t, deps[0].Version)
	assert.Equal(t, "2.0.1", *deps[0].Version)
	assert.Equal(t, "requirements.txt", deps[0].Source)

	assert.Equal(t, "requests", deps[1].Name)
	assert.Nil(t, deps[1].Version)
	assert.Equal(t, "numpy", deps[2].Name)
	assert.Equal(t, "gunicorn", deps[3].Name)
	assert.Equal(t, "django", deps[4].Name)
}

func TestParseDependencies_PackageJSON(t *testing.T) {
	content := `{
  "name": "web",
  "dependencies": {"express": "^4.18.0", "dotenv": "16.0.0"},
  "devDependencies": {"jest": "^29.0.0"}
}`
	deps, err := ParseDependencies("package.json", []byte(content))
	require.NoError(t, err)

	var names []string
	for _, d := range deps {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"dotenv", "express", "jest"}, names)
	assert.Equal(t, "^4.18.0", *deps[1].Version)
}

func TestParseDependencies_PartialOnMalformedGroup(t *testing.T) {
	content := `{"dependencies": {"express": "^4"}, "devDependencies": ["not", "a", "map"]}`
	deps, err := ParseDependencies("package.json", []byte(content))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeManifestParseFailed))
	require.Len(t, deps, 1)
	assert.Equal(t, "express", deps[0].Name)
}

func TestParseDependencies_Malformed(t *testing.T) {
	deps, err := ParseDependencies("package.json", []byte(`{"dependencies": `))
	assert.True(t, errors.HasCode(err, errors.CodeManifestParseFailed))
	assert.Empty(t, deps)
}

func TestParseDependencies_TOML(t *testing.T) {
	cargo := `[package]
name = "svc"

[dependencies]
actix-web = "4"
serde = { version = "1.0", features = ["derive"] }

[dev-dependencies]
tokio-test = "0.4"
`
	deps, err := ParseDependencies("Cargo.toml", []byte(cargo))
	require.NoError(t, err)
	require.Len(t, deps, 3)
	assert.Equal(t, "actix-web", deps[0].Name)
	assert.Equal(t, "1.0", *deps[1].Version)
	assert.Equal(t, "tokio-test", deps[2].Name)

	pyproject := `[project]
name = "api"
dependencies = ["fastapi==0.110.0", "uvicorn[standard]>=0.29"]

[tool.poetry.dependencies]
python = "^3.12"
httpx = "^0.27"
`
	deps, err = ParseDependencies("pyproject.toml", []byte(pyproject))
	require.NoError(t, err)
	require.Len(t, deps, 3)
	assert.Equal(t, "fastapi", deps[0].Name)
	assert.Equal(t, "0.110.0", *deps[0].Version)
	assert.Equal(t, "uvicorn", deps[1].Name)
	assert.Equal(t, "httpx", deps[2].Name)

	pipfile := `[packages]
flask = "*"

[dev-packages]
pytest = "==8.0.0"
`
	deps, err = ParseDependencies("Pipfile", []byte(pipfile))
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.Nil(t, deps[0].Version)
	assert.Equal(t, "pytest", deps[1].Name)
}

func TestParseDependencies_GoModAndPom(t *testing.T) {
	gomod := `module example.com/svc

go 1.22

require (
	github.com/gin-gonic/gin v1.9.1
	github.com/rs/zerolog v1.33.0 // indirect
)
`
	deps, err := ParseDependencies("go.mod", []byte(gomod))
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.Equal(t, "github.com/gin-gonic/gin", deps[0].Name)
	assert.Equal(t, "v1.9.1", *deps[0].Version)

	pom := `<project>
  <dependencies>
    <dependency>
      <groupId>org.springframework.boot</groupId>
      <artifactId>spring-boot-starter-web</artifactId>
      <version>3.2.0</version>
    </dependency>
  </dependencies>
</project>`
	deps, err = ParseDependencies("pom.xml", []byte(pom))
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, "org.springframework.boot:spring-boot-starter-web", deps[0].Name)
}

func TestParseDependencies_UnparsedKind(t *testing.T) {
	deps, err := ParseDependencies("yarn.lock", []byte("whatever"))
	require.NoError(t, err)
	assert.Empty(t, deps)
	assert.True(t, IsDependencyFile("yarn.lock"))
	assert.False(t, IsDependencyFile("README.md"))
}

func TestFindEnvVars(t *testing.T) {
	content := `
import os
db = os.environ['DATABASE_URL']
key = os.environ.get("API_KEY")
debug = os.getenv('DEBUG')
const secret = process.env.JWT_SECRET
token := os.Getenv("GITHUB_TOKEN")
`
	vars := FindEnvVars(content)
	assert.ElementsMatch(t,
		[]string{"DATABASE_URL", "API_KEY", "DEBUG", "JWT_SECRET", "GITHUB_TOKEN"},
		vars.UnsortedList())
}

func TestFindPorts(t *testing.T) {
	content := `
app.run(port=8080)
server.listen(3000)
url = "http://localhost:5432/db"
PORT: 80
EXPOSE 9000
bogus port = 99999
`
	ports := FindPorts(content)
	got := ports.UnsortedList()
	sort.Ints(got)
	assert.Equal(t, []int{3000, 5432, 8080, 9000}, got)
}

func TestFindEnvVarLocations(t *testing.T) {
	content := "a = 1\nurl = os.environ['DATABASE_URL']\nagain = os.getenv('DATABASE_URL')\n"
	reqs := FindEnvVarLocations("app.py", content)
	require.Len(t, reqs, 1)
	assert.Equal(t, "DATABASE_URL", reqs[0].Name)
	assert.Equal(t, 2, reqs[0].SourceLine)
	assert.True(t, reqs[0].IsCritical)
}

func TestDetectFramework(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		found   bool
	}{
		{"fastapi", "from fastapi import FastAPI\napp = FastAPI()", "FastAPI", true},
		{"flask", "from flask import Flask\napp = Flask(__name__)", "Flask", true},
		{"table order beats content order", "import React from 'react'\nconst e = require('express')", "Express", true},
		{"gin", `import "github.com/gin-gonic/gin"`, "Gin", true},
		{"none", "print('hello')", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectFramework(tt.content)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindEntryPoint(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "")
	writeFile(t, root, "server.py", "")
	assert.Equal(t, "app.py", FindEntryPoint(root, "python"))

	root = t.TempDir()
	writeFile(t, root, "cmd/main.go", "")
	assert.Equal(t, "cmd/main.go", FindEntryPoint(root, "go"))

	root = t.TempDir()
	writeFile(t, root, "domain_main_loop.rb", "")
	assert.Equal(t, "domain_main_loop.rb", FindEntryPoint(root, "ruby"))

	assert.Equal(t, UnknownEntryPoint, FindEntryPoint(t.TempDir(), "python"))
}
