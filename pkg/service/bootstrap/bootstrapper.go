// Package bootstrap wires configuration into a ready-to-use sentinel pipeline.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/ai"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/core/audit"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/core/git"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/infrastructure/metrics"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/infrastructure/persistence/history"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/prompts"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/service/config"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/service/sentinel"
)

// Bootstrapper builds the components of one sentinel run from a Config.
type Bootstrapper struct {
	logger   zerolog.Logger
	config   *config.Config
	registry prometheus.Registerer

	metricsOnce sync.Once
	metrics     *metrics.LLMMetrics
}

// NewBootstrapper creates a bootstrapper. A nil registry registers metrics on
// a private registry so repeated bootstraps in one process do not collide.
func NewBootstrapper(logger zerolog.Logger, cfg *config.Config, registry prometheus.Registerer) *Bootstrapper {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &Bootstrapper{
		logger:   logger,
		config:   cfg,
		registry: registry,
	}
}

// InitializeDirectories creates the workspace and history directories.
func (b *Bootstrapper) InitializeDirectories() error {
	if b.config.StorePath != "" {
		if err := os.MkdirAll(filepath.Dir(b.config.StorePath), 0o755); err != nil {
			return errors.New(errors.CodeIoError, "bootstrapper", fmt.Sprintf("failed to create storage directory %s", b.config.StorePath), err)
		}
	}

	if b.config.WorkspaceDir != "" {
		if err := os.MkdirAll(b.config.WorkspaceDir, 0o755); err != nil {
			return errors.New(errors.CodeIoError, "bootstrapper", fmt.Sprintf("failed to create workspace directory %s", b.config.WorkspaceDir), err)
		}
	}

	return nil
}

// Metrics returns the shared LLM metrics.
func (b *Bootstrapper) Metrics() *metrics.LLMMetrics {
	b.metricsOnce.Do(func() {
		b.metrics = metrics.NewLLMMetrics(b.registry)
	})
	return b.metrics
}

// PromptManager loads the embedded prompt templates and any overrides in the
// configured prompt directory.
func (b *Bootstrapper) PromptManager() (*prompts.Manager, error) {
	return prompts.NewManager(b.logger, prompts.ManagerConfig{TemplateDir: b.config.PromptDir})
}

// NewClient builds the configured provider wrapped with retries. Missing
// credentials fail here, before any request is made. System prompts travel
// with each request, so the client itself carries none.
func (b *Bootstrapper) NewClient(ctx context.Context) (ai.LLMClient, error) {
	pc, err := b.config.ProviderConfig()
	if err != nil {
		return nil, err
	}

	client, err := ai.NewClient(ctx, pc, b.logger)
	if err != nil {
		return nil, err
	}
	return ai.NewRetryingClient(client, b.config.RetryConfig(), b.logger,
		ai.WithMetrics(b.Metrics()),
		ai.WithLabels(string(pc.Provider), pc.ModelName()),
	), nil
}

// OpenHistory opens the history store, or returns nil when none is configured.
func (b *Bootstrapper) OpenHistory() (*history.BoltStore, error) {
	if b.config.StorePath == "" {
		return nil, nil
	}
	return history.NewBoltStore(b.config.StorePath, b.logger)
}

// Runtime is a fully wired pipeline and the resources it holds.
type Runtime struct {
	Pipeline *sentinel.Pipeline
	Session  *sentinel.Session
	History  *history.BoltStore
}

// Close releases the history store.
func (r *Runtime) Close() error {
	if r.History == nil {
		return nil
	}
	return r.History.Close()
}

// NewRuntime wires client, session, ledger, history and pipeline.
func (b *Bootstrapper) NewRuntime(ctx context.Context) (*Runtime, error) {
	if err := b.InitializeDirectories(); err != nil {
		return nil, err
	}
	manager, err := b.PromptManager()
	if err != nil {
		return nil, err
	}
	client, err := b.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return b.newRuntime(client, manager)
}

func (b *Bootstrapper) newRuntime(client ai.LLMClient, manager *prompts.Manager) (*Runtime, error) {
	store, err := b.OpenHistory()
	if err != nil {
		return nil, err
	}

	var ledgerOpts []audit.Option
	sessionOpts := []sentinel.Option{
		sentinel.WithMetrics(b.Metrics()),
		sentinel.WithMaxContextTokens(b.config.MaxContextTokens),
		sentinel.WithDefaultRegion(b.config.Region),
	}
	if store != nil {
		ledgerOpts = append(ledgerOpts, audit.WithSink(store))
		sessionOpts = append(sessionOpts, sentinel.WithHistory(store))
	}
	sessionOpts = append(sessionOpts, sentinel.WithLedger(audit.NewLedger(b.logger, ledgerOpts...)))

	session, err := sentinel.NewSession(client, manager, b.logger, sessionOpts...)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	cloner := git.NewCloner(b.logger, b.config.CloneOptions())
	return &Runtime{
		Pipeline: sentinel.NewPipeline(session, cloner, b.config.WorkspaceDir, b.logger),
		Session:  session,
		History:  store,
	}, nil
}
