package sentinel

import (
	"maps"
	"slices"
)

// Clone returns a deep copy of m.
func (m *RepoMap) Clone() *RepoMap {
	if m == nil {
		return nil
	}
	out := *m
	out.Framework = clonePtr(m.Framework)
	out.Dependencies = slices.Clone(m.Dependencies)
	for i := range out.Dependencies {
		out.Dependencies[i].Version = clonePtr(out.Dependencies[i].Version)
	}
	out.FileMappings = slices.Clone(m.FileMappings)
	for i := range out.FileMappings {
		out.FileMappings[i].Purpose = clonePtr(out.FileMappings[i].Purpose)
	}
	out.LogicFlow = maps.Clone(m.LogicFlow)
	out.DetectedEnvVars = slices.Clone(m.DetectedEnvVars)
	out.DetectedPorts = slices.Clone(m.DetectedPorts)
	return &out
}

// Clone returns a deep copy of p.
func (p *DeploymentPlan) Clone() *DeploymentPlan {
	if p == nil {
		return nil
	}
	out := *p
	out.Dockerfile.OptimizationsApplied = slices.Clone(p.Dockerfile.OptimizationsApplied)
	out.SecretsRequired = slices.Clone(p.SecretsRequired)
	for i := range out.SecretsRequired {
		out.SecretsRequired[i].SuggestedSource = clonePtr(out.SecretsRequired[i].SuggestedSource)
	}
	out.SecretsMissing = slices.Clone(p.SecretsMissing)
	out.ThoughtSignatures = slices.Clone(p.ThoughtSignatures)
	return &out
}

// Clone returns a deep copy of p.
func (p *FixProposal) Clone() *FixProposal {
	if p == nil {
		return nil
	}
	out := *p
	out.Patches = slices.Clone(p.Patches)
	out.AlternativeFixes = slices.Clone(p.AlternativeFixes)
	out.AssistMode.PotentialImplications = slices.Clone(p.AssistMode.PotentialImplications)
	out.AssistMode.LearnMoreLinks = slices.Clone(p.AssistMode.LearnMoreLinks)
	out.ReviewedBy = clonePtr(p.ReviewedBy)
	out.ReviewedAt = clonePtr(p.ReviewedAt)
	out.RejectionReason = clonePtr(p.RejectionReason)
	out.ThoughtSignature = clonePtr(p.ThoughtSignature)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
