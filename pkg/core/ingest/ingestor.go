// Package ingest turns a repository checkout into the bounded text context and
// semantic RepoMap consumed by planning and diagnosis.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/core/analysis"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/core/git"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
)

// CharsPerToken is the fixed ratio used to estimate context tokens.
const CharsPerToken = 4

// GuidelineFiles are checked in order by ReadGuidelines.
var GuidelineFiles = []string{
	"deployment_guidelines.md",
	"DEPLOYMENT.md",
	"deployment.md",
	"DEPLOY.md",
	"deploy.md",
}

// Ingestor reads one repository. The full context is computed once and reused.
type Ingestor struct {
	logger    zerolog.Logger
	repoURL   string
	workspace string
	repoName  string
	repoPath  string
	cloner    git.Cloner

	mu           sync.Mutex
	contextCache *string
}

// NewIngestor prepares ingestion of repoURL into workspace/<repo name>.
func NewIngestor(logger zerolog.Logger, repoURL, workspace string, cloner git.Cloner) (*Ingestor, error) {
	name := git.RepoName(repoURL)
	target, err := git.TargetDir(workspace, name)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidParameter, "ingest", "invalid repository target", err)
	}
	return &Ingestor{
		logger:    logger.With().Str("component", "ingestor").Str("repo", name).Logger(),
		repoURL:   repoURL,
		workspace: workspace,
		repoName:  name,
		repoPath:  target,
		cloner:    cloner,
	}, nil
}

// NewLocalIngestor reads an existing checkout in place. Clone is not available.
func NewLocalIngestor(logger zerolog.Logger, path string) (*Ingestor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidParameter, "ingest", "invalid repository path", err)
	}
	name := filepath.Base(abs)
	return &Ingestor{
		logger:   logger.With().Str("component", "ingestor").Str("repo", name).Logger(),
		repoName: name,
		repoPath: abs,
	}, nil
}

// RepoPath is the local checkout directory.
func (i *Ingestor) RepoPath() string {
	return i.repoPath
}

// ProjectName is derived from the repository URL or directory name.
func (i *Ingestor) ProjectName() string {
	return i.repoName
}

// Clone replaces any previous checkout with a fresh clone.
func (i *Ingestor) Clone(ctx context.Context) (string, error) {
	if i.cloner == nil {
		return "", errors.New(errors.CodeCloneFailed, "ingest", "no clone source configured for local ingestion", nil)
	}
	if err := os.RemoveAll(i.repoPath); err != nil {
		return "", errors.New(errors.CodeCloneFailed, "ingest", "remove previous checkout", err)
	}
	if err := os.MkdirAll(i.workspace, 0o755); err != nil {
		return "", errors.New(errors.CodeCloneFailed, "ingest", "create workspace", err)
	}

	i.logger.Info().Str("url", i.repoURL).Str("path", i.repoPath).Msg("Cloning repository")
	path, err := i.cloner.Clone(ctx, i.repoURL, i.repoPath)
	if err != nil {
		if errors.HasCode(err, errors.CodeCloneFailed) {
			return "", err
		}
		return "", errors.New(errors.CodeCloneFailed, "ingest", fmt.Sprintf("clone %s", i.repoURL), err)
	}
	i.logger.Info().Msg("Clone complete")
	return path, nil
}

func (i *Ingestor) ensureRepo() error {
	info, err := os.Stat(i.repoPath)
	if err != nil || !info.IsDir() {
		return errors.New(errors.CodeNotFound, "ingest",
			fmt.Sprintf("repository not available at %s; clone it first", i.repoPath), err)
	}
	return nil
}

// walkCode visits every code file in lexical order with its text content.
// Unreadable files are logged and skipped.
func (i *Ingestor) walkCode(fn func(rel, abs string, info os.FileInfo, content string)) error {
	policy := analysis.NewFilterPolicyForRoot(i.repoPath)
	return policy.Walk(i.repoPath, func(rel, abs string, info os.FileInfo) error {
		if !analysis.IsCodeFile(rel) {
			return nil
		}
		content, err := readText(abs)
		if err != nil {
			i.logger.Warn().Err(err).Str("file", rel).Msg("Could not read file")
			return nil
		}
		fn(rel, abs, info, content)
		return nil
	}, func(path string, err error) {
		i.logger.Warn().Err(err).Str("path", path).Msg("Could not access path")
	})
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

// FormatFile renders one file block of the full context.
func FormatFile(rel, content string) string {
	return fmt.Sprintf("--- FILE: %s ---\n%s\n--- END FILE: %s ---\n", rel, content, rel)
}

// FullContext concatenates every code file of the repository.
func (i *Ingestor) FullContext() (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.contextCache != nil {
		return *i.contextCache, nil
	}
	if err := i.ensureRepo(); err != nil {
		return "", err
	}

	var parts []string
	err := i.walkCode(func(rel, _ string, _ os.FileInfo, content string) {
		parts = append(parts, FormatFile(rel, content))
	})
	if err != nil {
		return "", errors.New(errors.CodeIoError, "ingest", "walk repository", err)
	}

	full := strings.Join(parts, "\n")
	i.contextCache = &full
	i.logger.Debug().Int("files", len(parts)).Int("chars", len(full)).Msg("Built full context")
	return full, nil
}

// ReadGuidelines returns the first guidelines document found, or DefaultGuidelines.
func (i *Ingestor) ReadGuidelines() string {
	for _, name := range GuidelineFiles {
		data, err := os.ReadFile(filepath.Join(i.repoPath, name))
		if err == nil {
			return string(data)
		}
	}
	return sentinel.DefaultGuidelines
}

// BuildRepoMap computes the semantic map in a single traversal. On equal file
// counts the language that reached the maximum first in walk order wins.
func (i *Ingestor) BuildRepoMap() (*sentinel.RepoMap, error) {
	if err := i.ensureRepo(); err != nil {
		return nil, err
	}

	m := sentinel.NewRepoMap(i.repoName)
	envVars := sets.New[string]()
	ports := sets.New[int]()
	counts := map[string]int{}
	best, bestCount := "", 0

	policy := analysis.NewFilterPolicyForRoot(i.repoPath)
	err := policy.Walk(i.repoPath, func(rel, abs string, info os.FileInfo) error {
		base := filepath.Base(rel)
		if m.DependencyFile == "unknown" && analysis.IsDependencyFile(base) {
			m.DependencyFile = rel
			deps, err := analysis.ExtractDependencies(abs, base)
			if err != nil {
				i.logger.Warn().Err(err).Str("manifest", rel).Int("parsed", len(deps)).Msg("Could not fully parse manifest")
			}
			m.Dependencies = append(m.Dependencies, deps...)
		}

		if !analysis.IsCodeFile(rel) {
			return nil
		}
		content, err := readText(abs)
		if err != nil {
			i.logger.Warn().Err(err).Str("file", rel).Msg("Could not process file")
			return nil
		}

		lang := analysis.DetectLanguage(rel)
		counts[lang]++
		if counts[lang] > bestCount {
			best, bestCount = lang, counts[lang]
		}
		m.FileMappings = append(m.FileMappings, sentinel.FileMapping{
			Path:      rel,
			Language:  lang,
			SizeBytes: info.Size(),
		})

		envVars = envVars.Union(analysis.FindEnvVars(content))
		ports = ports.Union(analysis.FindPorts(content))
		if m.Framework == nil {
			if fw, ok := analysis.DetectFramework(content); ok {
				m.Framework = sentinel.StringPtr(fw)
			}
		}
		return nil
	}, func(path string, err error) {
		i.logger.Warn().Err(err).Str("path", path).Msg("Could not access path")
	})
	if err != nil {
		return nil, errors.New(errors.CodeIoError, "ingest", "walk repository", err)
	}

	if bestCount > 0 {
		m.PrimaryLanguage = best
	}
	m.EntryPoint = analysis.FindEntryPoint(i.repoPath, m.PrimaryLanguage)
	m.TotalFiles = len(m.FileMappings)
	m.DetectedEnvVars = sets.List(envVars)
	m.DetectedPorts = sets.List(ports)

	full, err := i.FullContext()
	if err != nil {
		return nil, err
	}
	m.TotalTokens = len(full) / CharsPerToken

	i.logger.Info().
		Str("language", m.PrimaryLanguage).
		Str("framework", m.FrameworkName()).
		Int("files", m.TotalFiles).
		Int("dependencies", len(m.Dependencies)).
		Int("tokens", m.TotalTokens).
		Msg("Repository map built")
	return m, nil
}

// SecretInventory lists each referenced environment variable with the file and
// line of its first reference.
func (i *Ingestor) SecretInventory() ([]sentinel.SecretRequirement, error) {
	if err := i.ensureRepo(); err != nil {
		return nil, err
	}
	seen := sets.New[string]()
	reqs := []sentinel.SecretRequirement{}
	err := i.walkCode(func(rel, _ string, _ os.FileInfo, content string) {
		for _, req := range analysis.FindEnvVarLocations(rel, content) {
			if seen.Has(req.Name) {
				continue
			}
			seen.Insert(req.Name)
			reqs = append(reqs, req)
		}
	})
	if err != nil {
		return nil, errors.New(errors.CodeIoError, "ingest", "walk repository", err)
	}
	return reqs, nil
}

// Cleanup removes a cloned checkout. Local checkouts are left alone.
func (i *Ingestor) Cleanup() error {
	if i.cloner == nil {
		return nil
	}
	if err := os.RemoveAll(i.repoPath); err != nil {
		return errors.New(errors.CodeIoError, "ingest", "remove checkout", err)
	}
	i.logger.Info().Str("path", i.repoPath).Msg("Cleaned up checkout")
	return nil
}
