package sentinel

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
)

// FixStatus is the lifecycle state of a FixProposal.
type FixStatus string

const (
	FixPending  FixStatus = "pending"
	FixApproved FixStatus = "approved"
	FixRejected FixStatus = "rejected"
	FixApplied  FixStatus = "applied"
	FixFailed   FixStatus = "failed"
)

var fixTransitions = map[FixStatus][]FixStatus{
	FixPending:  {FixApproved, FixRejected},
	FixApproved: {FixApplied, FixFailed},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s FixStatus) CanTransitionTo(next FixStatus) bool {
	for _, allowed := range fixTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s FixStatus) Terminal() bool {
	return len(fixTransitions[s]) == 0
}

// CodePatch is one contiguous replacement in a single file.
type CodePatch struct {
	FilePath        string `json:"file_path"`
	StartLine       int    `json:"start_line"`
	EndLine         int    `json:"end_line"`
	OriginalContent string `json:"original_content"`
	PatchedContent  string `json:"patched_content"`
	Diff            string `json:"diff"`
}

// NewCodePatch validates the line range before building a patch.
func NewCodePatch(filePath string, start, end int, original, patched, diff string) (CodePatch, error) {
	if end < start {
		return CodePatch{}, errors.Newf(errors.CodeValidationFailed, "sentinel",
			"patch for %s ends at line %d before it starts at %d", filePath, end, start)
	}
	return CodePatch{
		FilePath:        filePath,
		StartLine:       start,
		EndLine:         end,
		OriginalContent: original,
		PatchedContent:  patched,
		Diff:            diff,
	}, nil
}

// AssistModeMetadata is the plain-language explanation shown to a reviewer.
type AssistModeMetadata struct {
	WhatThisDoes          string   `json:"what_this_does"`
	WhyItsNeeded          string   `json:"why_its_needed"`
	PotentialImplications []string `json:"potential_implications"`
	LearnMoreLinks        []string `json:"learn_more_links"`
}

// FixProposal is a reviewable remediation for a runtime error.
type FixProposal struct {
	ID               string             `json:"id"`
	CreatedAt        time.Time          `json:"created_at"`
	ErrorType        string             `json:"error_type"`
	ErrorMessage     string             `json:"error_message"`
	StackTrace       string             `json:"stack_trace"`
	AffectedFile     string             `json:"affected_file"`
	AffectedLine     int                `json:"affected_line"`
	Diagnosis        string             `json:"diagnosis"`
	ConfidenceScore  float64            `json:"confidence_score"`
	RiskLevel        RiskLevel          `json:"risk_level"`
	Patches          []CodePatch        `json:"patches"`
	AlternativeFixes []string           `json:"alternative_fixes"`
	AssistMode       AssistModeMetadata `json:"assist_mode"`
	Status           FixStatus          `json:"status"`
	ReviewedBy       *string            `json:"reviewed_by"`
	ReviewedAt       *time.Time         `json:"reviewed_at"`
	RejectionReason  *string            `json:"rejection_reason"`
	ThoughtSignature *ThoughtSignature  `json:"thought_signature"`
}

// ValidateConfidence rejects scores outside [0, 1], including NaN.
func ValidateConfidence(score float64) error {
	if math.IsNaN(score) || score < 0 || score > 1 {
		return errors.Newf(errors.CodeValidationFailed, "sentinel",
			"confidence score %v outside [0, 1]", score)
	}
	return nil
}

// NewFixProposal builds a pending proposal for report. The confidence score
// must lie in [0, 1].
func NewFixProposal(report ErrorReport, diagnosis string, confidence float64, risk RiskLevel) (*FixProposal, error) {
	if err := ValidateConfidence(confidence); err != nil {
		return nil, err
	}
	if !risk.Valid() {
		return nil, errors.Newf(errors.CodeValidationFailed, "sentinel", "unknown risk level %q", risk)
	}
	return &FixProposal{
		ID:               "fix-" + uuid.NewString(),
		CreatedAt:        time.Now().UTC(),
		ErrorType:        report.ErrorType(),
		ErrorMessage:     report.ErrorMessage,
		StackTrace:       report.StackTrace,
		AffectedFile:     report.AffectedFile,
		AffectedLine:     report.AffectedLine,
		Diagnosis:        diagnosis,
		ConfidenceScore:  confidence,
		RiskLevel:        risk,
		Patches:          []CodePatch{},
		AlternativeFixes: []string{},
		AssistMode: AssistModeMetadata{
			PotentialImplications: []string{},
			LearnMoreLinks:        []string{},
		},
		Status: FixPending,
	}, nil
}

// Transition moves the proposal to next, leaving it untouched on an illegal move.
func (p *FixProposal) Transition(next FixStatus) error {
	if !p.Status.CanTransitionTo(next) {
		return errors.New(errors.CodeInvalidTransition, "sentinel",
			fmt.Sprintf("fix %s cannot move from %s to %s", p.ID, p.Status, next), nil)
	}
	p.Status = next
	return nil
}
