// Package model defines the domain types for MEDDPICC opportunity
// qualification: pillars, answers, assessments, benchmarks, and the
// configuration that drives scoring.
package model

// PillarID identifies one of the eight MEDDPICC qualification pillars.
type PillarID string

const (
	PillarMetrics          PillarID = "metrics"
	PillarEconomicBuyer    PillarID = "economic_buyer"
	PillarDecisionCriteria PillarID = "decision_criteria"
	PillarDecisionProcess  PillarID = "decision_process"
	PillarPaperProcess     PillarID = "paper_process"
	PillarImplicatePain    PillarID = "implicate_pain"
	PillarChampion         PillarID = "champion"
	PillarCompetition      PillarID = "competition"
)

// AnswerType is the input style of a question. Only single-select is
// supported by this engine.
type AnswerType string

const AnswerTypeSingleSelect AnswerType = "single_select"

// AnswerOption is one selectable choice on a question. Scores are
// monotonically increasing across a question's option list.
type AnswerOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Score int    `json:"score"`
}

// QuestionDefinition is one scored question within a pillar.
type QuestionDefinition struct {
	ID      string         `json:"id"`
	Prompt  string         `json:"prompt"`
	Type    AnswerType     `json:"type"`
	Options []AnswerOption `json:"options"`
}

// PillarDefinition is the immutable configuration for one pillar.
// Declaration order across the configuration is sales-process priority:
// earlier pillars win ties in coaching and insight ordering.
type PillarDefinition struct {
	ID          PillarID             `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Weight      float64              `json:"weight"`
	Questions   []QuestionDefinition `json:"questions"`

	// SuccessCriteria describe what "done" looks like for the pillar.
	SuccessCriteria []string `json:"success_criteria"`

	// CoachingTips are general guidance shown alongside the pillar.
	CoachingTips []string `json:"coaching_tips"`

	// CriticalActions are emitted when the pillar scores below the
	// critical band; ImprovementActions when it sits in the middle band.
	CriticalActions    []string `json:"critical_actions"`
	ImprovementActions []string `json:"improvement_actions"`
}

// Option returns the option matching value, or false when the value is
// not part of the question's option list.
func (q QuestionDefinition) Option(value string) (AnswerOption, bool) {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return AnswerOption{}, false
}

// Question returns the question with the given id, or false.
func (p PillarDefinition) Question(id string) (QuestionDefinition, bool) {
	for _, q := range p.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return QuestionDefinition{}, false
}
