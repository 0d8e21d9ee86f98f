package model

// InsightType classifies an insight derived from pillar performance.
type InsightType string

const (
	InsightStrength InsightType = "strength"
	InsightWeakness InsightType = "weakness"
	InsightRisk     InsightType = "risk"
)

// Priority orders insights for presentation.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank returns the sort weight of a priority; higher sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Insight is a templated observation about an assessment. Message and
// Recommendation are selected from configuration templates, never
// generated.
type Insight struct {
	Type           InsightType `json:"type"`
	Priority       Priority    `json:"priority"`
	PillarID       PillarID    `json:"pillar_id,omitempty"`
	Message        string      `json:"message"`
	Recommendation string      `json:"recommendation,omitempty"`
}
