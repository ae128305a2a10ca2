package parser

import (
	"math"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
)

// Diagnosis defaults.
const (
	DefaultDiagnosis    = "Analysis complete"
	DefaultConfidence   = 0.8
	DefaultWhatThisDoes = "Applies a code fix"
	DefaultWhyItsNeeded = "To resolve the detected error"

	FallbackErrorType = "ParseError"
	FallbackDiagnosis = "Unable to parse AI response. Manual investigation required."
)

// DiagnosisResult is the decoded diagnosis response.
type DiagnosisResult struct {
	Proposal *sentinel.FixProposal
	Warnings []FieldWarning
	Fallback bool
}

// DecodeDiagnosis decodes a diagnosis response into a pending FixProposal for
// report, with sig attached. It never fails: confidence scores outside [0, 1]
// are clamped and inverted patch ranges are collapsed to their start line.
func DecodeDiagnosis(raw string, report sentinel.ErrorReport, sig sentinel.ThoughtSignature) DiagnosisResult {
	doc, ok := parseObject(raw)
	if !ok {
		return DiagnosisResult{
			Proposal: FallbackProposal(report, sig),
			Warnings: []FieldWarning{{Field: DocumentField, Reason: ReasonMalformedJSON}},
			Fallback: true,
		}
	}

	d := &decoder{}
	diagnosis := d.nonEmpty(doc, "diagnosis", "diagnosis", DefaultDiagnosis)

	confidence := d.number(doc, "confidence_score", "confidence_score", DefaultConfidence)
	if sentinel.ValidateConfidence(confidence) != nil {
		d.warn("confidence_score", ReasonOutOfRange)
		confidence = clamp01(confidence)
	}

	risk, valid := sentinel.ParseRiskLevel(d.str(doc, "risk_level", "risk_level", string(sentinel.RiskLow)))
	if !valid {
		d.warn("risk_level", ReasonInvalidEnum)
	}

	proposal, err := sentinel.NewFixProposal(report, diagnosis, confidence, risk)
	if err != nil {
		return DiagnosisResult{
			Proposal: FallbackProposal(report, sig),
			Warnings: append(d.warnings, FieldWarning{Field: DocumentField, Reason: err.Error()}),
			Fallback: true,
		}
	}

	d.eachObject(doc, "patches", "patches", func(p string, obj map[string]any) {
		proposal.Patches = append(proposal.Patches, d.patch(obj, p, report))
	})
	proposal.AlternativeFixes = d.stringList(doc, "alternative_fixes", "alternative_fixes")

	assist := d.object(doc, "assist_mode", "assist_mode")
	proposal.AssistMode = sentinel.AssistModeMetadata{
		WhatThisDoes:          d.nonEmpty(assist, "what_this_does", "assist_mode.what_this_does", DefaultWhatThisDoes),
		WhyItsNeeded:          d.nonEmpty(assist, "why_its_needed", "assist_mode.why_its_needed", DefaultWhyItsNeeded),
		PotentialImplications: d.stringList(assist, "potential_implications", "assist_mode.potential_implications"),
		LearnMoreLinks:        d.stringList(assist, "learn_more_links", "assist_mode.learn_more_links"),
	}

	proposal.ThoughtSignature = &sig
	return DiagnosisResult{Proposal: proposal, Warnings: d.warnings}
}

func (d *decoder) patch(m map[string]any, path string, report sentinel.ErrorReport) sentinel.CodePatch {
	file := d.nonEmpty(m, "file_path", fieldPath(path, "file_path"), report.AffectedFile)
	start := d.integer(m, "start_line", fieldPath(path, "start_line"), report.AffectedLine)
	end := d.integer(m, "end_line", fieldPath(path, "end_line"), report.AffectedLine)
	if end < start {
		d.warn(fieldPath(path, "end_line"), ReasonOutOfRange)
		end = start
	}

	return sentinel.CodePatch{
		FilePath:        file,
		StartLine:       start,
		EndLine:         end,
		OriginalContent: d.str(m, "original_content", fieldPath(path, "original_content"), ""),
		PatchedContent:  d.str(m, "patched_content", fieldPath(path, "patched_content"), ""),
		Diff:            d.str(m, "diff", fieldPath(path, "diff"), ""),
	}
}

// FallbackProposal returns the fully-defaulted proposal used when the
// diagnosis response cannot be parsed.
func FallbackProposal(report sentinel.ErrorReport, sig sentinel.ThoughtSignature) *sentinel.FixProposal {
	proposal, _ := sentinel.NewFixProposal(report, FallbackDiagnosis, 0, sentinel.RiskHigh)
	proposal.ErrorType = FallbackErrorType
	proposal.AssistMode = sentinel.AssistModeMetadata{
		WhatThisDoes:          "Manual fix required",
		WhyItsNeeded:          "AI parsing failed",
		PotentialImplications: []string{"Requires manual debugging"},
		LearnMoreLinks:        []string{},
	}
	proposal.ThoughtSignature = &sig
	return proposal
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
