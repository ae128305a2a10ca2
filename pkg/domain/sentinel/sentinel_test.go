package sentinel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
)

func TestFixStatus_CanTransitionTo(t *testing.T) {
	all := []FixStatus{FixPending, FixApproved, FixRejected, FixApplied, FixFailed}
	legal := map[[2]FixStatus]bool{
		{FixPending, FixApproved}: true,
		{FixPending, FixRejected}: true,
		{FixApproved, FixApplied}: true,
		{FixApproved, FixFailed}:  true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, legal[[2]FixStatus{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, FixApplied.Terminal())
	assert.True(t, FixFailed.Terminal())
	assert.True(t, FixRejected.Terminal())
	assert.False(t, FixPending.Terminal())
}

func TestFixProposal_Transition(t *testing.T) {
	p, err := NewFixProposal(ErrorReport{ErrorMessage: "KeyError: 'x'"}, "missing key", 0.7, RiskMedium)
	require.NoError(t, err)
	assert.Equal(t, FixPending, p.Status)

	err = p.Transition(FixApplied)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidTransition))
	assert.Equal(t, FixPending, p.Status)

	require.NoError(t, p.Transition(FixApproved))
	require.NoError(t, p.Transition(FixApplied))
	assert.Error(t, p.Transition(FixPending))
	assert.Equal(t, FixApplied, p.Status)
}

func TestNewFixProposal_Confidence(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		ok    bool
	}{
		{"zero", 0, true},
		{"one", 1, true},
		{"middle", 0.42, true},
		{"negative", -0.1, false},
		{"above one", 1.5, false},
		{"nan", math.NaN(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewFixProposal(ErrorReport{}, "", tt.score, RiskLow)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.score, p.ConfidenceScore)
				assert.Contains(t, p.ID, "fix-")
			} else {
				assert.True(t, errors.HasCode(err, errors.CodeValidationFailed))
				assert.Nil(t, p)
			}
		})
	}
}

func TestNewCodePatch(t *testing.T) {
	_, err := NewCodePatch("app.py", 10, 9, "", "", "")
	assert.Error(t, err)

	p, err := NewCodePatch("app.py", 3, 3, "a", "b", "-a\n+b")
	require.NoError(t, err)
	assert.Equal(t, 3, p.EndLine)
}

func TestParseRiskLevel(t *testing.T) {
	level, ok := ParseRiskLevel(" HIGH ")
	assert.True(t, ok)
	assert.Equal(t, RiskHigh, level)

	level, ok = ParseRiskLevel("apocalyptic")
	assert.False(t, ok)
	assert.Equal(t, RiskLow, level)

	assert.Less(t, RiskLow.Weight(), RiskCritical.Weight())
}

func TestErrorReport_ErrorType(t *testing.T) {
	assert.Equal(t, "KeyError", ErrorReport{ErrorMessage: "KeyError: 'DATABASE_URL'"}.ErrorType())
	assert.Equal(t, "Error", ErrorReport{ErrorMessage: "something broke"}.ErrorType())
	assert.Equal(t, "Error", ErrorReport{ErrorMessage: ": leading colon"}.ErrorType())
}

func TestRepoMap_Validate(t *testing.T) {
	m := NewRepoMap("demo")
	m.FileMappings = []FileMapping{{Path: "main.py", Language: "python"}}
	m.TotalFiles = 1
	m.DetectedPorts = []int{8080}
	require.NoError(t, m.Validate())

	m.TotalFiles = 2
	assert.Error(t, m.Validate())

	m.TotalFiles = 1
	m.DetectedPorts = []int{80}
	assert.Error(t, m.Validate())

	m.DetectedPorts = nil
	m.FileMappings = append(m.FileMappings, FileMapping{Path: "main.py"})
	m.TotalFiles = 2
	assert.Error(t, m.Validate())
}

func TestDefaultUserGuidelines(t *testing.T) {
	g := DefaultUserGuidelines()
	assert.Equal(t, "gcp", g.CloudProvider)
	assert.Equal(t, 0, g.MinInstances)
	assert.Equal(t, 10, g.MaxInstances)
	assert.Equal(t, "512Mi", g.MemoryLimit)
	assert.Equal(t, "1", g.CPULimit)
}
