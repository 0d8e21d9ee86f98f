package model

import "time"

// ScoreDistribution buckets assessments by total score.
type ScoreDistribution struct {
	Strong   int `json:"strong"`
	Moderate int `json:"moderate"`
	Weak     int `json:"weak"`
}

// PillarMean is one pillar's mean score across a portfolio.
type PillarMean struct {
	PillarID PillarID `json:"pillar_id"`
	Mean     float64  `json:"mean"`
}

// PortfolioAnalytics summarizes many assessments into distributions and
// systemic risk signals. A zero value is the analytics of an empty
// portfolio.
type PortfolioAnalytics struct {
	AssessmentCount int                  `json:"assessment_count"`
	MeanTotalScore  int                  `json:"mean_total_score"`
	ScoreDist       ScoreDistribution    `json:"score_distribution"`
	RiskDist        map[RiskLevel]int    `json:"risk_distribution"`
	PillarMeans     map[PillarID]float64 `json:"pillar_means"`

	// TopRisks are pillars whose portfolio mean sits below the risk
	// cutoff; ImprovementOpportunities sit between the risk and
	// opportunity cutoffs. Both sorted by ascending mean, capped.
	TopRisks                 []PillarMean `json:"top_risks"`
	ImprovementOpportunities []PillarMean `json:"improvement_opportunities"`
}

// BenchmarkComparison is the result of comparing an assessment's pillar
// scores against a reference benchmark.
type BenchmarkComparison struct {
	Segment         string           `json:"segment"`
	Variance        map[PillarID]int `json:"variance"`
	Recommendations []string         `json:"recommendations"`
}

// ExportSchemaVersion identifies the export document layout.
const ExportSchemaVersion = 1

// ExportDocument is the serialized snapshot returned by exports:
// every assessment plus the portfolio analytics over them.
type ExportDocument struct {
	SchemaVersion int                `json:"schema_version"`
	ExportedAt    time.Time          `json:"exported_at"`
	Assessments   []Assessment       `json:"assessments"`
	Analytics     PortfolioAnalytics `json:"analytics"`
}
