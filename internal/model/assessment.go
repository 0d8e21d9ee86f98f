package model

import (
	"time"

	"github.com/google/uuid"
)

// ConfidenceLevel grades how certain the seller is about an answer,
// independent of the answer's score.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// Weight maps a confidence level onto the [0,1] scale used by the
// confidence score. Unknown levels weigh as medium.
func (c ConfidenceLevel) Weight() float64 {
	switch c {
	case ConfidenceHigh:
		return 1.0
	case ConfidenceLow:
		return 0.6
	default:
		return 0.8
	}
}

// RiskLevel is the coarse risk classification of an assessment.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Stage names a pipeline stage an opportunity may advance to.
type Stage string

const (
	StageProspect Stage = "prospect"
	StageEngage   Stage = "engage"
	StageAcquire  Stage = "acquire"
	StageKeep     Stage = "keep"
)

// Answer is a single recorded response to a pillar question. Answers are
// immutable once recorded; a later answer for the same (pillar, question)
// supersedes the earlier one for scoring purposes.
type Answer struct {
	PillarID   PillarID        `json:"pillar_id"`
	QuestionID string          `json:"question_id"`
	Value      string          `json:"value"`
	Score      int             `json:"score"`
	Confidence ConfidenceLevel `json:"confidence"`
	Evidence   string          `json:"evidence,omitempty"`
	AnsweredAt time.Time       `json:"answered_at"`
}

// Assessment is the scored qualification record for one opportunity.
// All computed fields are derived in full on every recompute; Version
// increases by exactly 1 each time.
type Assessment struct {
	ID            uuid.UUID `json:"id"`
	OpportunityID string    `json:"opportunity_id"`
	Answers       []Answer  `json:"answers"`

	PillarScores    map[PillarID]int `json:"pillar_scores"`
	TotalScore      int              `json:"total_score"`
	ConfidenceScore int              `json:"confidence_score"`
	RiskLevel       RiskLevel        `json:"risk_level"`
	StageReadiness  map[Stage]bool   `json:"stage_readiness"`

	CoachingActions      []string `json:"coaching_actions"`
	CompetitiveStrengths []string `json:"competitive_strengths"`
	AreasOfConcern       []string `json:"areas_of_concern"`

	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
	Version     int       `json:"version"`
}

// LatestAnswers reduces the answer history to the effective answer per
// (pillar, question) pair: the strictly later AnsweredAt wins, ties keep
// the earlier-recorded answer. The result is keyed for direct lookup.
func LatestAnswers(answers []Answer) map[AnswerKey]Answer {
	latest := make(map[AnswerKey]Answer, len(answers))
	for _, a := range answers {
		k := AnswerKey{Pillar: a.PillarID, Question: a.QuestionID}
		if prev, ok := latest[k]; ok && !a.AnsweredAt.After(prev.AnsweredAt) {
			continue
		}
		latest[k] = a
	}
	return latest
}

// AnswerKey identifies the question an answer belongs to.
type AnswerKey struct {
	Pillar   PillarID
	Question string
}
