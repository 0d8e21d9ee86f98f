package meddpicc

import (
	"time"

	"github.com/google/uuid"
)

// Pillar identifies one of the eight MEDDPICC qualification pillars.
type Pillar string

const (
	Metrics          Pillar = "metrics"
	EconomicBuyer    Pillar = "economic_buyer"
	DecisionCriteria Pillar = "decision_criteria"
	DecisionProcess  Pillar = "decision_process"
	PaperProcess     Pillar = "paper_process"
	ImplicatePain    Pillar = "implicate_pain"
	Champion         Pillar = "champion"
	Competition      Pillar = "competition"
)

// Confidence grades how certain the seller is about an answer.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Risk is the coarse risk classification of an assessment.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskMedium   Risk = "medium"
	RiskHigh     Risk = "high"
	RiskCritical Risk = "critical"
)

// Stage names a pipeline stage an opportunity may advance to.
type Stage string

const (
	StageProspect Stage = "prospect"
	StageEngage   Stage = "engage"
	StageAcquire  Stage = "acquire"
	StageKeep     Stage = "keep"
)

// Answer is one response to a pillar question. Value must match an
// option of the question; the score is resolved from the option list
// when the answer is accepted, so callers leave Score unset.
type Answer struct {
	Pillar     Pillar
	QuestionID string
	Value      string
	Confidence Confidence
	Evidence   string
	AnsweredAt time.Time
}

// Assessment is the public representation of a scored qualification
// record. It is a curated view of the internal assessment for use by
// embedding callers — no internal package imports.
type Assessment struct {
	ID            uuid.UUID
	OpportunityID string

	PillarScores    map[Pillar]int
	TotalScore      int
	ConfidenceScore int
	RiskLevel       Risk
	StageReadiness  map[Stage]bool

	CoachingActions      []string
	CompetitiveStrengths []string
	AreasOfConcern       []string

	Answers     []Answer
	CreatedBy   string
	CreatedAt   time.Time
	LastUpdated time.Time
	Version     int
}

// Insight is a templated observation about an assessment, ordered by
// priority (critical first) in the lists that carry it.
type Insight struct {
	Type           string
	Priority       string
	Pillar         Pillar
	Message        string
	Recommendation string
}

// BenchmarkComparison is the variance of an assessment against a
// segment benchmark, in percent per pillar.
type BenchmarkComparison struct {
	Segment         string
	Variance        map[Pillar]int
	Recommendations []string
}

// ScoreDistribution buckets assessments by total score.
type ScoreDistribution struct {
	Strong   int
	Moderate int
	Weak     int
}

// PillarMean is one pillar's mean score across the portfolio.
type PillarMean struct {
	Pillar Pillar
	Mean   float64
}

// PortfolioAnalytics summarizes all assessments into distributions and
// systemic risk signals.
type PortfolioAnalytics struct {
	AssessmentCount int
	MeanTotalScore  int
	ScoreDist       ScoreDistribution
	RiskDist        map[Risk]int
	PillarMeans     map[Pillar]float64

	TopRisks                 []PillarMean
	ImprovementOpportunities []PillarMean
}

// Export is the serialized snapshot returned by ExportAssessments.
type Export struct {
	SchemaVersion int
	ExportedAt    time.Time
	Assessments   []Assessment
	Analytics     PortfolioAnalytics
}

// AnswerOption is one selectable choice on a question.
type AnswerOption struct {
	Label string
	Value string
	Score int
}

// Question is one scored single-select question within a pillar.
type Question struct {
	ID      string
	Prompt  string
	Options []AnswerOption
}

// PillarConfig is the configuration for one pillar: its weight, question
// bank, and coaching templates. Declaration order across the
// configuration is sales-process priority.
type PillarConfig struct {
	ID                 Pillar
	Title              string
	Description        string
	Weight             float64
	Questions          []Question
	SuccessCriteria    []string
	CoachingTips       []string
	CriticalActions    []string
	ImprovementActions []string
}

// StageGate defines the entry conditions for one pipeline stage.
type StageGate struct {
	Stage           Stage
	MinTotalScore   int
	RequiredPillars []Pillar
	MinPillarScore  int
}

// RiskRules holds the descending risk classification thresholds.
type RiskRules struct {
	CriticalPillars []Pillar

	CriticalScore int
	CriticalRatio float64
	CriticalConf  int

	HighScore int
	HighRatio float64
	HighConf  int

	MediumScore int
	MediumRatio float64
	MediumConf  int
}

// Thresholds collects the scoring-policy constants.
type Thresholds struct {
	PillarMax int

	CriticalBand    float64
	ImprovementBand float64
	StrengthBand    float64

	MaxCoachingActions int
	LowConfidenceLimit int
	WeakConfidence     int

	StrongScoreMin   int
	ModerateScoreMin int

	PillarRiskMean        float64
	PillarOpportunityMean float64

	BenchmarkVarianceAlert int
}

// Benchmark is a reference pillar-score map for one segment.
type Benchmark struct {
	Segment      string
	Description  string
	PillarScores map[Pillar]int
}

// Configuration is the full scoring model. It is versioned: every
// successful UpdateConfiguration bumps Version by one.
type Configuration struct {
	Version    int
	Pillars    []PillarConfig
	Stages     []StageGate
	Risk       RiskRules
	Thresholds Thresholds
	Benchmarks map[string]Benchmark
	UpdatedAt  time.Time
}
