package identity

import (
	"fmt"
	"strings"

	"github.com/fliplens/appraise-cli/internal/model"
)

// The toy sub-pipeline is a distinct five-stage resolver for low-signal
// categories. Each stage is a pure function of the input; the final
// confidence is the minimum across all stages — a chain can never be more
// confident than its weakest link.

// Display tiers the aggregate confidence maps into.
type ToyDisplayTier string

const (
	ToyTierGeneric     ToyDisplayTier = "generic"      // <60: generic label only
	ToyTierFranchise   ToyDisplayTier = "franchise"    // 60-79: category+franchise, no specific name
	ToyTierCandidates  ToyDisplayTier = "candidates"   // 80-89: show candidates, user confirms
	ToyTierAutoConfirm ToyDisplayTier = "auto_confirm" // >=90: auto-confirm
)

// strongSignalOverride is the number of strong visual cues that forces the
// object-type classification regardless of model-derived confidence.
const strongSignalOverride = 2

// overrideConfidence is the floor assigned when the signal-count override fires.
const overrideConfidence = 85

// VisualSignal is one detector cue observed on the item.
type VisualSignal struct {
	Cue    string `json:"cue"`
	Strong bool   `json:"strong"`
}

// ToyInput feeds the five-stage pipeline. FrontEvidence is required in
// practice; BackEvidence is optional today (see stage 1).
type ToyInput struct {
	Signals       []VisualSignal  `json:"signals"`
	FrontEvidence *model.Evidence `json:"front_evidence,omitempty"`
	BackEvidence  *model.Evidence `json:"back_evidence,omitempty"`

	// ModelConfidence is the vision model's own 0-100 type confidence.
	ModelConfidence float64 `json:"model_confidence"`

	Franchise  string   `json:"franchise,omitempty"`
	ItemName   string   `json:"item_name,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

// ToyStage is one stage's outcome.
type ToyStage struct {
	Stage      int     `json:"stage"`
	Name       string  `json:"name"`
	Passed     bool    `json:"passed"`
	Confidence float64 `json:"confidence"`
	Detail     string  `json:"detail,omitempty"`
}

// ToyResult is the aggregated pipeline outcome.
type ToyResult struct {
	Stages        []ToyStage     `json:"stages"`
	Aggregate     float64        `json:"aggregate"`
	DisplayTier   ToyDisplayTier `json:"display_tier"`
	Label         string         `json:"label"`
	Candidates    []string       `json:"candidates,omitempty"`
	AutoConfirmed bool           `json:"auto_confirmed"`
	Warnings      []string       `json:"warnings,omitempty"`
}

// RunToyPipeline executes all five stages in order and folds the minimum
// stage confidence into a display tier.
func RunToyPipeline(in ToyInput) ToyResult {
	var res ToyResult

	res.Stages = append(res.Stages, stageObjectType(in, &res))
	res.Stages = append(res.Stages, stageFranchise(in))
	res.Stages = append(res.Stages, stageItemName(in))
	res.Stages = append(res.Stages, stageCandidates(in, &res))
	res.Stages = append(res.Stages, stageAggregate(res.Stages))

	res.Aggregate = res.Stages[4].Confidence
	res.DisplayTier, res.Label = displayTier(res.Aggregate, in)
	res.AutoConfirmed = res.DisplayTier == ToyTierAutoConfirm
	if res.DisplayTier != ToyTierCandidates && res.DisplayTier != ToyTierAutoConfirm {
		res.Candidates = nil
	}
	return res
}

// stageObjectType hard-gates the object type. Two or more strong visual cues
// force the classification regardless of the model's own confidence.
//
// Front-only evidence currently satisfies this gate even though the gate is
// documented as eventually requiring both faces; the discrepancy is flagged
// as a warning instead of silently enforcing the stricter rule.
func stageObjectType(in ToyInput, res *ToyResult) ToyStage {
	st := ToyStage{Stage: 1, Name: "object_type"}

	if in.FrontEvidence == nil {
		st.Detail = "no scan evidence"
		return st
	}
	if in.BackEvidence == nil {
		res.Warnings = append(res.Warnings, "object type accepted from a single face; back scan missing")
	}

	strong := 0
	for _, sig := range in.Signals {
		if sig.Strong {
			strong++
		}
	}

	switch {
	case strong >= strongSignalOverride:
		st.Passed = true
		st.Confidence = maxf(in.ModelConfidence, overrideConfidence)
		st.Detail = fmt.Sprintf("signal-count override: %d strong cues", strong)
	case in.ModelConfidence >= 60:
		st.Passed = true
		st.Confidence = in.ModelConfidence
		st.Detail = fmt.Sprintf("model confidence %.0f", in.ModelConfidence)
	default:
		st.Confidence = in.ModelConfidence
		st.Detail = "insufficient signals for a type classification"
	}
	return st
}

func stageFranchise(in ToyInput) ToyStage {
	st := ToyStage{Stage: 2, Name: "franchise"}
	if in.Franchise == "" {
		st.Confidence = 50
		st.Detail = "no franchise evidence"
		return st
	}
	st.Passed = true
	st.Confidence = 90
	st.Detail = "franchise " + in.Franchise
	return st
}

func stageItemName(in ToyInput) ToyStage {
	st := ToyStage{Stage: 3, Name: "item_name"}
	if in.ItemName == "" {
		st.Confidence = 60
		st.Detail = "no item name extracted"
		return st
	}
	st.Passed = true
	st.Confidence = 90
	st.Detail = "item name " + in.ItemName
	return st
}

func stageCandidates(in ToyInput, res *ToyResult) ToyStage {
	st := ToyStage{Stage: 4, Name: "catalog_candidates"}
	if len(in.Candidates) == 0 {
		st.Confidence = 65
		st.Detail = "no catalog candidates"
		return st
	}
	res.Candidates = append([]string(nil), in.Candidates...)
	st.Passed = true
	switch len(in.Candidates) {
	case 1:
		st.Confidence = 95
	case 2:
		st.Confidence = 85
	default:
		st.Confidence = 80
	}
	st.Detail = fmt.Sprintf("%d candidate(s): %s", len(in.Candidates), strings.Join(in.Candidates, ", "))
	return st
}

// stageAggregate folds min over all prior stage confidences.
func stageAggregate(stages []ToyStage) ToyStage {
	st := ToyStage{Stage: 5, Name: "aggregate", Passed: true}
	first := true
	for _, prev := range stages {
		if first || prev.Confidence < st.Confidence {
			st.Confidence = prev.Confidence
			first = false
		}
	}
	st.Detail = fmt.Sprintf("minimum across stages: %.0f", st.Confidence)
	return st
}

func displayTier(agg float64, in ToyInput) (ToyDisplayTier, string) {
	switch {
	case agg >= 90:
		return ToyTierAutoConfirm, in.ItemName
	case agg >= 80:
		return ToyTierCandidates, "confirm one of the suggested matches"
	case agg >= 60:
		label := "collectible"
		if in.Franchise != "" {
			label = "collectible — " + in.Franchise
		}
		return ToyTierFranchise, label
	default:
		return ToyTierGeneric, "unidentified collectible"
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
