// Package sentinel orchestrates planning and diagnosis for one agent session:
// it renders prompts, calls the reasoning engine, decodes the response and
// records every step in the audit ledger.
package sentinel

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/ai"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/core/audit"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/core/ingest"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/core/parser"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/infrastructure/metrics"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/prompts"
)

// MaxThoughts bounds the reasoning stream kept in memory.
const MaxThoughts = 100

// DefaultMaxContextTokens is the token budget reported when none is configured.
const DefaultMaxContextTokens = 1_000_000

// HistoryStore retains proposals that reached a terminal state.
type HistoryStore interface {
	SaveProposal(ctx context.Context, p sentinel.FixProposal) error
}

// Action is a reviewer's decision on a pending fix.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	// ActionModify approves the proposal with the reviewer's patches in place
	// of the proposed ones.
	ActionModify Action = "modify"
)

// Decision is a reviewer's verdict on one proposal. Patches is read only for
// ActionModify.
type Decision struct {
	Action   Action
	Reviewer string
	Reason   string
	Patches  []sentinel.CodePatch
}

// Session is one agent instance. All state is owned by the session; separate
// sessions share nothing.
type Session struct {
	client  ai.LLMClient
	prompts *prompts.Manager
	ledger  *audit.Ledger
	metrics *metrics.LLMMetrics
	history HistoryStore
	logger  zerolog.Logger
	now     func() time.Time
	region  string

	mu         sync.Mutex
	agentState sentinel.AgentState
	thoughts   []sentinel.Thought
	tokens     sentinel.TokenUsage
	repoMap    *sentinel.RepoMap
	plan       *sentinel.DeploymentPlan
	active     map[string]*sentinel.FixProposal
	order      []string
	archive    []sentinel.FixProposal
	lastError  string
}

// Option configures a Session.
type Option func(*Session)

// WithLedger replaces the session's private ledger.
func WithLedger(ledger *audit.Ledger) Option {
	return func(s *Session) { s.ledger = ledger }
}

// WithMetrics records parse fallbacks and fix transitions.
func WithMetrics(m *metrics.LLMMetrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithHistory persists proposals once they are terminal.
func WithHistory(store HistoryStore) Option {
	return func(s *Session) { s.history = store }
}

// WithMaxContextTokens sets the token budget reported in State.
func WithMaxContextTokens(n int) Option {
	return func(s *Session) { s.tokens.Max = n }
}

// WithDefaultRegion sets the region planning prompts use when the guidelines
// name none.
func WithDefaultRegion(region string) Option {
	return func(s *Session) { s.region = region }
}

// NewSession creates an idle session.
func NewSession(client ai.LLMClient, manager *prompts.Manager, logger zerolog.Logger, opts ...Option) (*Session, error) {
	if client == nil {
		return nil, errors.New(errors.CodeInvalidParameter, "sentinel", "reasoning client is required", nil)
	}
	if manager == nil {
		return nil, errors.New(errors.CodeInvalidParameter, "sentinel", "prompt manager is required", nil)
	}

	s := &Session{
		client:     client,
		prompts:    manager,
		logger:     logger.With().Str("component", "sentinel_session").Logger(),
		now:        time.Now,
		agentState: sentinel.AgentIdle,
		thoughts:   []sentinel.Thought{},
		tokens:     sentinel.TokenUsage{Max: DefaultMaxContextTokens},
		active:     map[string]*sentinel.FixProposal{},
		archive:    []sentinel.FixProposal{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ledger == nil {
		s.ledger = audit.NewLedger(logger)
	}
	return s, nil
}

// Ledger exposes the session's audit ledger.
func (s *Session) Ledger() *audit.Ledger {
	return s.ledger
}

// AnalyzeAndPlan asks the reasoning engine for a repository map and deployment
// plan. A response that cannot be decoded yields the fallback artifacts and a
// "$" warning; only reasoning-engine and prompt errors are returned.
func (s *Session) AnalyzeAndPlan(ctx context.Context, repoContext, guidelines string) (*sentinel.RepoMap, *sentinel.DeploymentPlan, []parser.FieldWarning, error) {
	s.setState(sentinel.AgentBreathe)
	s.think("Starting codebase analysis", "info")

	ug, body, err := ingest.ParseGuidelines(guidelines)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Ignoring malformed guidelines front-matter")
		s.think("Guidelines front-matter is malformed; using default constraints", "warning")
	}

	tokens := len(repoContext) / ingest.CharsPerToken
	sig := s.ledger.CreateSignature(
		"Analyzing codebase structure and generating deployment artifacts",
		"Full context analysis with the reasoning engine",
		"Schema validation of output",
		sentinel.RiskLow,
		tokens,
	)

	if ug.Region == nil && s.region != "" {
		ug.Region = sentinel.StringPtr(s.region)
	}
	prompt, err := s.prompts.PlanningPromptFor(repoContext, body, ug)
	if err != nil {
		return nil, nil, nil, s.fail("render planning prompt", err)
	}

	s.setState(sentinel.AgentRapidPulse)
	s.think(fmt.Sprintf("Sending %d tokens of context for planning", tokens), "info")
	raw, usage, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, nil, nil, s.fail("planning request", err)
	}
	s.spend(usage, tokens)

	result := parser.DecodePlan(raw, sig)
	s.recordWarnings("plan", result.Fallback, result.Warnings)

	s.mu.Lock()
	s.repoMap = result.RepoMap
	s.plan = result.Plan
	repoMap, plan := s.repoMap.Clone(), s.plan.Clone()
	s.mu.Unlock()

	if result.Fallback {
		s.think("Response could not be parsed; returned default deployment plan", "warning")
	} else {
		s.think(fmt.Sprintf("Deployment plan ready for %s", repoMap.ProjectName), "success")
	}
	s.setState(sentinel.AgentSuccess)

	s.logger.Info().
		Str("signature", sig.ID).
		Str("project", repoMap.ProjectName).
		Bool("fallback", result.Fallback).
		Int("warnings", len(result.Warnings)).
		Msg("Analysis complete")
	return repoMap, plan, result.Warnings, nil
}

// EnrichPlan fills what the engine left empty in the current repository map
// and plan with locally computed facts, and returns copies of both. The
// engine's own values always win.
func (s *Session) EnrichPlan(local *sentinel.RepoMap, inventory []sentinel.SecretRequirement) (*sentinel.RepoMap, *sentinel.DeploymentPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mergeRepoMap(s.repoMap, local.Clone())
	if s.plan != nil && len(s.plan.SecretsRequired) == 0 && len(inventory) > 0 {
		s.plan.SecretsRequired = slices.Clone(inventory)
	}
	return s.repoMap.Clone(), s.plan.Clone()
}

// complete sends one rendered prompt with its own system instruction.
func (s *Session) complete(ctx context.Context, prompt *prompts.RenderedPrompt) (string, ai.TokenUsage, error) {
	return s.client.GetChatCompletion(ai.ContextWithSystemPrompt(ctx, prompt.SystemPrompt), prompt.Content)
}

// DiagnoseError asks the reasoning engine for a fix to report and registers the
// resulting proposal as pending.
func (s *Session) DiagnoseError(ctx context.Context, repoContext string, report sentinel.ErrorReport) (*sentinel.FixProposal, []parser.FieldWarning, error) {
	s.setState(sentinel.AgentRapidPulse)
	s.think(fmt.Sprintf("Diagnosing %s in %s:%d", report.ErrorType(), report.AffectedFile, report.AffectedLine), "info")

	tokens := len(repoContext) / ingest.CharsPerToken
	sig := s.ledger.CreateSignature(
		fmt.Sprintf("Diagnosing error in %s:%d", report.AffectedFile, report.AffectedLine),
		"Cross-referencing stack trace with codebase context",
		"Patch validation and type checking",
		sentinel.RiskMedium,
		tokens,
	)

	prompt, err := s.prompts.DiagnosisPrompt(repoContext, report)
	if err != nil {
		return nil, nil, s.fail("render diagnosis prompt", err)
	}

	raw, usage, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, nil, s.fail("diagnosis request", err)
	}
	s.spend(usage, tokens)

	result := parser.DecodeDiagnosis(raw, report, sig)
	s.recordWarnings("diagnosis", result.Fallback, result.Warnings)

	proposal := result.Proposal
	s.mu.Lock()
	s.active[proposal.ID] = proposal
	s.order = append(s.order, proposal.ID)
	out := proposal.Clone()
	s.mu.Unlock()

	s.think(fmt.Sprintf("Fix %s proposed with confidence %.2f", out.ID, out.ConfidenceScore), "success")
	s.setState(sentinel.AgentSuccess)

	s.logger.Info().
		Str("fix_id", out.ID).
		Str("signature", sig.ID).
		Str("risk", string(out.RiskLevel)).
		Float64("confidence", out.ConfidenceScore).
		Bool("fallback", result.Fallback).
		Msg("Diagnosis complete")
	return out, result.Warnings, nil
}

// Review applies a reviewer decision to a pending proposal. Decisions on any
// other state fail with CodeInvalidTransition and change nothing.
func (s *Session) Review(ctx context.Context, id string, decision Decision) (*sentinel.FixProposal, error) {
	var next sentinel.FixStatus
	var patches []sentinel.CodePatch
	switch decision.Action {
	case ActionApprove:
		next = sentinel.FixApproved
	case ActionReject:
		next = sentinel.FixRejected
	case ActionModify:
		next = sentinel.FixApproved
		var err error
		if patches, err = validatePatches(decision.Patches); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Newf(errors.CodeInvalidParameter, "sentinel", "unknown review action %q", decision.Action)
	}

	return s.transition(ctx, id, next, func(p *sentinel.FixProposal) {
		reviewedAt := s.now().UTC()
		p.ReviewedAt = &reviewedAt
		if decision.Reviewer != "" {
			reviewer := decision.Reviewer
			p.ReviewedBy = &reviewer
		}
		if next == sentinel.FixRejected && decision.Reason != "" {
			reason := decision.Reason
			p.RejectionReason = &reason
		}
		if patches != nil {
			p.Patches = patches
		}
	})
}

// validatePatches copies the reviewer's patches, rejecting an empty set and
// any patch whose line range is inverted.
func validatePatches(in []sentinel.CodePatch) ([]sentinel.CodePatch, error) {
	if len(in) == 0 {
		return nil, errors.New(errors.CodeInvalidParameter, "sentinel", "modify requires at least one patch", nil)
	}
	out := make([]sentinel.CodePatch, 0, len(in))
	for _, cp := range in {
		if cp.FilePath == "" {
			return nil, errors.New(errors.CodeInvalidParameter, "sentinel", "patch file path is required", nil)
		}
		patch, err := sentinel.NewCodePatch(cp.FilePath, cp.StartLine, cp.EndLine, cp.OriginalContent, cp.PatchedContent, cp.Diff)
		if err != nil {
			return nil, err
		}
		out = append(out, patch)
	}
	return out, nil
}

// MarkApplied records that an approved fix was applied.
func (s *Session) MarkApplied(ctx context.Context, id string) (*sentinel.FixProposal, error) {
	return s.transition(ctx, id, sentinel.FixApplied, nil)
}

// MarkFailed records that applying an approved fix failed.
func (s *Session) MarkFailed(ctx context.Context, id, reason string) (*sentinel.FixProposal, error) {
	p, err := s.transition(ctx, id, sentinel.FixFailed, nil)
	if err == nil && reason != "" {
		s.think(fmt.Sprintf("Fix %s failed: %s", id, reason), "error")
	}
	return p, err
}

func (s *Session) transition(ctx context.Context, id string, next sentinel.FixStatus, annotate func(*sentinel.FixProposal)) (*sentinel.FixProposal, error) {
	s.mu.Lock()
	p, ok := s.active[id]
	if !ok {
		terminal := s.archived(id)
		s.mu.Unlock()
		if terminal != nil {
			return nil, errors.New(errors.CodeInvalidTransition, "sentinel",
				fmt.Sprintf("fix %s is already %s", id, terminal.Status), nil)
		}
		return nil, errors.New(errors.CodeNotFound, "sentinel", fmt.Sprintf("fix %s not found", id), nil)
	}

	from := p.Status
	if err := p.Transition(next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if annotate != nil {
		annotate(p)
	}
	if next.Terminal() {
		delete(s.active, id)
		s.removeFromOrder(id)
		s.archive = append(s.archive, *p)
	}
	out := p.Clone()
	s.mu.Unlock()

	s.metrics.RecordFixTransition(string(from), string(next))
	s.think(fmt.Sprintf("Fix %s moved from %s to %s", id, from, next), "info")
	s.logger.Info().Str("fix_id", id).Str("from", string(from)).Str("to", string(next)).Msg("Fix transitioned")

	if next.Terminal() && s.history != nil {
		if err := s.history.SaveProposal(ctx, *out); err != nil {
			s.logger.Warn().Err(err).Str("fix_id", id).Msg("Failed to persist fix history")
		}
	}
	return out, nil
}

func (s *Session) archived(id string) *sentinel.FixProposal {
	for i := range s.archive {
		if s.archive[i].ID == id {
			return &s.archive[i]
		}
	}
	return nil
}

func (s *Session) removeFromOrder(id string) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// PendingFixes lists proposals awaiting a reviewer decision, oldest first.
func (s *Session) PendingFixes() []sentinel.FixProposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked()
}

func (s *Session) pendingLocked() []sentinel.FixProposal {
	out := []sentinel.FixProposal{}
	for _, id := range s.order {
		if p := s.active[id]; p.Status == sentinel.FixPending {
			out = append(out, *p.Clone())
		}
	}
	return out
}

// Fix returns a proposal by ID, active or archived.
func (s *Session) Fix(id string) (*sentinel.FixProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.active[id]; ok {
		return p.Clone(), nil
	}
	if p := s.archived(id); p != nil {
		return p.Clone(), nil
	}
	return nil, errors.New(errors.CodeNotFound, "sentinel", fmt.Sprintf("fix %s not found", id), nil)
}

// State returns a snapshot of the session.
func (s *Session) State() sentinel.SystemState {
	s.mu.Lock()
	defer s.mu.Unlock()

	thoughts := make([]sentinel.Thought, len(s.thoughts))
	copy(thoughts, s.thoughts)
	history := make([]sentinel.FixProposal, len(s.archive))
	for i := range s.archive {
		history[i] = *s.archive[i].Clone()
	}

	return sentinel.SystemState{
		AgentState:     s.agentState,
		Thoughts:       thoughts,
		TokenUsage:     s.tokens,
		RepoMap:        s.repoMap.Clone(),
		DeploymentPlan: s.plan.Clone(),
		PendingFixes:   s.pendingLocked(),
		FixHistory:     history,
		SignatureCount: s.ledger.Len(),
		LastError:      s.lastError,
	}
}

func (s *Session) setState(state sentinel.AgentState) {
	s.mu.Lock()
	s.agentState = state
	s.mu.Unlock()
}

func (s *Session) think(message, level string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thoughts = append(s.thoughts, sentinel.Thought{Timestamp: s.now().UTC(), Message: message, Level: level})
	if over := len(s.thoughts) - MaxThoughts; over > 0 {
		s.thoughts = append([]sentinel.Thought(nil), s.thoughts[over:]...)
	}
}

// spend adds the engine-reported token count, or the context estimate when the
// provider reports none.
func (s *Session) spend(usage ai.TokenUsage, estimate int) {
	spent := usage.TotalTokens
	if spent <= 0 {
		spent = estimate
	}
	s.mu.Lock()
	s.tokens.Current += spent
	s.mu.Unlock()
}

func (s *Session) recordWarnings(artifact string, fallback bool, warnings []parser.FieldWarning) {
	if fallback {
		s.metrics.RecordParseFallback(artifact, true, 0)
		s.logger.Warn().Str("artifact", artifact).Msg("Reasoning output was not valid JSON; using fallback")
		return
	}
	if len(warnings) == 0 {
		return
	}
	s.metrics.RecordParseFallback(artifact, false, len(warnings))
	for _, w := range warnings {
		s.logger.Debug().Str("artifact", artifact).Str("field", w.Field).Str("reason", w.Reason).Msg("Field defaulted")
	}
}

func (s *Session) fail(step string, err error) error {
	s.mu.Lock()
	s.agentState = sentinel.AgentStrobeRed
	s.lastError = err.Error()
	s.mu.Unlock()

	s.think(fmt.Sprintf("%s failed: %v", step, err), "error")
	s.logger.Error().Err(err).Str("step", step).Msg("Operation failed")
	return err
}
