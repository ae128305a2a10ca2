package sentinel

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/core/git"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/core/ingest"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/core/parser"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
)

// Analysis is the result of one end-to-end planning run.
type Analysis struct {
	Source   string                   `json:"source"`
	RepoPath string                   `json:"repo_path"`
	RepoMap  *sentinel.RepoMap        `json:"repo_map"`
	Plan     *sentinel.DeploymentPlan `json:"deployment_plan"`
	Warnings []parser.FieldWarning    `json:"warnings"`
	Fallback bool                     `json:"fallback"`
}

// Pipeline runs ingestion and planning against a session.
type Pipeline struct {
	session   *Session
	cloner    git.Cloner
	workspace string
	logger    zerolog.Logger

	mu       sync.Mutex
	ingestor *ingest.Ingestor
}

// NewPipeline binds a session to a clone source and workspace.
func NewPipeline(session *Session, cloner git.Cloner, workspace string, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		session:   session,
		cloner:    cloner,
		workspace: workspace,
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}
}

// Session returns the underlying session.
func (p *Pipeline) Session() *Session {
	return p.session
}

// Ingest prepares source for analysis. An existing directory is read in place;
// anything else is treated as a repository URL and cloned into the workspace,
// replacing any previous checkout.
func (p *Pipeline) Ingest(ctx context.Context, source string) (*ingest.Ingestor, error) {
	var ing *ingest.Ingestor
	if info, err := os.Stat(source); err == nil && info.IsDir() {
		ing, err = ingest.NewLocalIngestor(p.logger, source)
		if err != nil {
			return nil, err
		}
	} else {
		if p.cloner == nil {
			return nil, errors.New(errors.CodeCloneFailed, "pipeline", "no clone source configured", nil)
		}
		ing, err = ingest.NewIngestor(p.logger, source, p.workspace, p.cloner)
		if err != nil {
			return nil, err
		}
		if _, err := ing.Clone(ctx); err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	p.ingestor = ing
	p.mu.Unlock()
	return ing, nil
}

// Analyze ingests source and produces a deployment plan. inlineGuidelines, when
// non-empty, takes precedence over the repository's guidelines document.
func (p *Pipeline) Analyze(ctx context.Context, source, inlineGuidelines string) (*Analysis, error) {
	ing, err := p.Ingest(ctx, source)
	if err != nil {
		return nil, err
	}

	full, err := ing.FullContext()
	if err != nil {
		return nil, err
	}
	guidelines := inlineGuidelines
	if guidelines == "" {
		guidelines = ing.ReadGuidelines()
	}
	local, err := ing.BuildRepoMap()
	if err != nil {
		return nil, err
	}
	inventory, err := ing.SecretInventory()
	if err != nil {
		p.logger.Warn().Err(err).Msg("Secret inventory unavailable")
	}

	_, _, warnings, err := p.session.AnalyzeAndPlan(ctx, full, guidelines)
	if err != nil {
		return nil, err
	}
	repoMap, plan := p.session.EnrichPlan(local, inventory)

	return &Analysis{
		Source:   source,
		RepoPath: ing.RepoPath(),
		RepoMap:  repoMap,
		Plan:     plan,
		Warnings: warnings,
		Fallback: isFallback(warnings),
	}, nil
}

// Diagnose runs a diagnosis against the context of the last ingested
// repository.
func (p *Pipeline) Diagnose(ctx context.Context, report sentinel.ErrorReport) (*sentinel.FixProposal, []parser.FieldWarning, error) {
	p.mu.Lock()
	ing := p.ingestor
	p.mu.Unlock()
	if ing == nil {
		return nil, nil, errors.New(errors.CodeInvalidParameter, "pipeline", "no repository ingested", nil)
	}

	full, err := ing.FullContext()
	if err != nil {
		return nil, nil, err
	}
	return p.session.DiagnoseError(ctx, full, report)
}

// Cleanup removes the checkout of a cloned repository.
func (p *Pipeline) Cleanup() error {
	p.mu.Lock()
	ing := p.ingestor
	p.mu.Unlock()
	if ing == nil {
		return nil
	}
	return ing.Cleanup()
}

// mergeRepoMap fills fields the engine left empty or unknown with the values
// computed locally. The engine's own values always win.
func mergeRepoMap(dst, local *sentinel.RepoMap) {
	if dst == nil || local == nil {
		return
	}
	if isUnknown(dst.ProjectName) {
		dst.ProjectName = local.ProjectName
	}
	if dst.Framework == nil {
		dst.Framework = local.Framework
	}
	if len(dst.Dependencies) == 0 {
		dst.Dependencies = local.Dependencies
	}
	if len(dst.FileMappings) == 0 {
		dst.FileMappings = local.FileMappings
		dst.TotalFiles = len(dst.FileMappings)
	}
	if dst.TotalTokens == 0 {
		dst.TotalTokens = local.TotalTokens
	}
	if len(dst.DetectedEnvVars) == 0 {
		dst.DetectedEnvVars = local.DetectedEnvVars
	}
	if len(dst.DetectedPorts) == 0 {
		dst.DetectedPorts = local.DetectedPorts
	}
}

func isUnknown(s string) bool {
	return s == "" || s == "unknown"
}

func isFallback(warnings []parser.FieldWarning) bool {
	for _, w := range warnings {
		if w.Field == parser.DocumentField {
			return true
		}
	}
	return false
}
