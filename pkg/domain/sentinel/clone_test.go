package sentinel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoMap_Clone(t *testing.T) {
	m := NewRepoMap("shop")
	m.Framework = StringPtr("flask")
	m.Dependencies = []DependencyInfo{{Name: "flask", Version: StringPtr("3.0"), Source: "requirements.txt"}}
	m.FileMappings = []FileMapping{{Path: "app.py", Purpose: StringPtr("entry")}}
	m.LogicFlow["app.py"] = "routes"
	m.DetectedEnvVars = []string{"DATABASE_URL"}
	m.DetectedPorts = []int{8080}

	c := m.Clone()
	require.Equal(t, m, c)

	*c.Framework = "django"
	*c.Dependencies[0].Version = "4.0"
	*c.FileMappings[0].Purpose = "changed"
	c.FileMappings = append(c.FileMappings, FileMapping{Path: "extra.py"})
	c.LogicFlow["app.py"] = "changed"
	c.DetectedEnvVars[0] = "CHANGED"
	c.DetectedPorts[0] = 9090

	assert.Equal(t, "flask", *m.Framework)
	assert.Equal(t, "3.0", *m.Dependencies[0].Version)
	assert.Equal(t, "entry", *m.FileMappings[0].Purpose)
	assert.Len(t, m.FileMappings, 1)
	assert.Equal(t, "routes", m.LogicFlow["app.py"])
	assert.Equal(t, []string{"DATABASE_URL"}, m.DetectedEnvVars)
	assert.Equal(t, []int{8080}, m.DetectedPorts)

	var nilMap *RepoMap
	assert.Nil(t, nilMap.Clone())
}

func TestDeploymentPlan_Clone(t *testing.T) {
	p := &DeploymentPlan{
		Dockerfile:        DockerfileSpec{OptimizationsApplied: []string{"multi-stage"}},
		SecretsRequired:   []SecretRequirement{{Name: "API_KEY", SuggestedSource: StringPtr("secret-manager")}},
		SecretsMissing:    []string{"API_KEY"},
		ThoughtSignatures: []ThoughtSignature{{ID: "SIG-000000-001"}},
	}

	c := p.Clone()
	require.Equal(t, p, c)

	c.Dockerfile.OptimizationsApplied[0] = "changed"
	*c.SecretsRequired[0].SuggestedSource = "changed"
	c.SecretsMissing[0] = "changed"
	c.ThoughtSignatures[0].ID = "changed"

	assert.Equal(t, "multi-stage", p.Dockerfile.OptimizationsApplied[0])
	assert.Equal(t, "secret-manager", *p.SecretsRequired[0].SuggestedSource)
	assert.Equal(t, "API_KEY", p.SecretsMissing[0])
	assert.Equal(t, "SIG-000000-001", p.ThoughtSignatures[0].ID)
}

func TestFixProposal_Clone(t *testing.T) {
	reviewedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := &FixProposal{
		ID:               "fix-1",
		Patches:          []CodePatch{{FilePath: "app.py", StartLine: 1, EndLine: 1}},
		AlternativeFixes: []string{"restart"},
		AssistMode: AssistModeMetadata{
			PotentialImplications: []string{"downtime"},
			LearnMoreLinks:        []string{"https://example.com"},
		},
		ReviewedBy:       StringPtr("ana"),
		ReviewedAt:       &reviewedAt,
		ThoughtSignature: &ThoughtSignature{ID: "SIG-000000-001"},
	}

	c := p.Clone()
	require.Equal(t, p, c)

	c.Patches[0].PatchedContent = "changed"
	c.AlternativeFixes[0] = "changed"
	c.AssistMode.PotentialImplications[0] = "changed"
	c.AssistMode.LearnMoreLinks[0] = "changed"
	*c.ReviewedBy = "changed"
	*c.ReviewedAt = reviewedAt.Add(time.Hour)
	c.ThoughtSignature.ID = "changed"

	assert.Empty(t, p.Patches[0].PatchedContent)
	assert.Equal(t, "restart", p.AlternativeFixes[0])
	assert.Equal(t, "downtime", p.AssistMode.PotentialImplications[0])
	assert.Equal(t, "https://example.com", p.AssistMode.LearnMoreLinks[0])
	assert.Equal(t, "ana", *p.ReviewedBy)
	assert.Equal(t, reviewedAt, *p.ReviewedAt)
	assert.Equal(t, "SIG-000000-001", p.ThoughtSignature.ID)
}
