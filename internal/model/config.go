package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrConfiguration marks malformed configuration or benchmark data.
// Computations that hit it abort rather than substituting defaults.
var ErrConfiguration = errors.New("invalid configuration")

// StageGate defines the entry conditions for one pipeline stage: a floor
// on total score plus a per-pillar floor on every required pillar.
type StageGate struct {
	Stage           Stage      `json:"stage"`
	MinTotalScore   int        `json:"min_total_score"`
	RequiredPillars []PillarID `json:"required_pillars"`
	MinPillarScore  int        `json:"min_pillar_score"`
}

// RiskRules holds the descending classification thresholds. A level is
// assigned when total score, critical-pillar coverage, or confidence
// falls below that level's floor; first match wins.
type RiskRules struct {
	// CriticalPillars are checked as a group: the sum of their weighted
	// scores against the sum of their weighted maxima.
	CriticalPillars []PillarID `json:"critical_pillars"`

	CriticalScore int     `json:"critical_score"`
	CriticalRatio float64 `json:"critical_ratio"`
	CriticalConf  int     `json:"critical_confidence"`

	HighScore int     `json:"high_score"`
	HighRatio float64 `json:"high_ratio"`
	HighConf  int     `json:"high_confidence"`

	MediumScore int     `json:"medium_score"`
	MediumRatio float64 `json:"medium_ratio"`
	MediumConf  int     `json:"medium_confidence"`
}

// Thresholds collects the scoring-policy constants. They are business
// policy, not derived values, so they live in configuration rather than
// as compiled-in structural constants.
type Thresholds struct {
	// PillarMax is the conventional per-pillar raw maximum (option scores
	// per pillar sum to at most this).
	PillarMax int `json:"pillar_max"`

	// Coaching bands on pillar_score / PillarMax.
	CriticalBand    float64 `json:"critical_band"`
	ImprovementBand float64 `json:"improvement_band"`
	StrengthBand    float64 `json:"strength_band"`

	MaxCoachingActions int `json:"max_coaching_actions"`
	LowConfidenceLimit int `json:"low_confidence_limit"`
	WeakConfidence     int `json:"weak_confidence"`

	// Portfolio score-distribution cutoffs on total score.
	StrongScoreMin   int `json:"strong_score_min"`
	ModerateScoreMin int `json:"moderate_score_min"`

	// Portfolio per-pillar mean cutoffs.
	PillarRiskMean        float64 `json:"pillar_risk_mean"`
	PillarOpportunityMean float64 `json:"pillar_opportunity_mean"`

	// Benchmark variance (percent) beyond which a recommendation fires.
	BenchmarkVarianceAlert int `json:"benchmark_variance_alert"`
}

// Benchmark is a reference pillar-score map for one industry/deal-size
// segment. Benchmarks are only read for comparison, never mutated.
type Benchmark struct {
	Segment      string           `json:"segment"`
	Description  string           `json:"description,omitempty"`
	PillarScores map[PillarID]int `json:"pillar_scores"`
}

// Configuration is the full scoring model: pillar catalogue, stage gates,
// risk rules, thresholds, and benchmark segments. It is treated as
// immutable once loaded; reconfiguration swaps the whole snapshot.
type Configuration struct {
	Version    int                  `json:"version"`
	Pillars    []PillarDefinition   `json:"pillars"`
	Stages     []StageGate          `json:"stages"`
	Risk       RiskRules            `json:"risk"`
	Thresholds Thresholds           `json:"thresholds"`
	Benchmarks map[string]Benchmark `json:"benchmarks,omitempty"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// Pillar returns the definition for id, or false when unknown.
func (c Configuration) Pillar(id PillarID) (PillarDefinition, bool) {
	for _, p := range c.Pillars {
		if p.ID == id {
			return p, true
		}
	}
	return PillarDefinition{}, false
}

// Validate rejects configurations the engine cannot score with. All
// findings wrap ErrConfiguration.
func (c Configuration) Validate() error {
	if len(c.Pillars) == 0 {
		return fmt.Errorf("%w: no pillars defined", ErrConfiguration)
	}
	seen := make(map[PillarID]bool, len(c.Pillars))
	for _, p := range c.Pillars {
		if p.ID == "" {
			return fmt.Errorf("%w: pillar with empty id", ErrConfiguration)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate pillar %q", ErrConfiguration, p.ID)
		}
		seen[p.ID] = true
		if p.Weight <= 0 {
			return fmt.Errorf("%w: pillar %q weight must be positive, got %v", ErrConfiguration, p.ID, p.Weight)
		}
		for _, q := range p.Questions {
			if len(q.Options) == 0 {
				return fmt.Errorf("%w: pillar %q question %q has no options", ErrConfiguration, p.ID, q.ID)
			}
			for i := 1; i < len(q.Options); i++ {
				if q.Options[i].Score < q.Options[i-1].Score {
					return fmt.Errorf("%w: pillar %q question %q option scores must not decrease", ErrConfiguration, p.ID, q.ID)
				}
			}
		}
	}
	for _, g := range c.Stages {
		if g.MinTotalScore < 0 {
			return fmt.Errorf("%w: stage %q has negative score floor", ErrConfiguration, g.Stage)
		}
		for _, pid := range g.RequiredPillars {
			if !seen[pid] {
				return fmt.Errorf("%w: stage %q requires unknown pillar %q", ErrConfiguration, g.Stage, pid)
			}
		}
	}
	for _, pid := range c.Risk.CriticalPillars {
		if !seen[pid] {
			return fmt.Errorf("%w: risk rules reference unknown pillar %q", ErrConfiguration, pid)
		}
	}
	if c.Thresholds.PillarMax <= 0 {
		return fmt.Errorf("%w: pillar max must be positive", ErrConfiguration)
	}
	for seg, b := range c.Benchmarks {
		for pid, score := range b.PillarScores {
			if score <= 0 {
				return fmt.Errorf("%w: benchmark %q pillar %q score must be positive", ErrConfiguration, seg, pid)
			}
		}
	}
	return nil
}
