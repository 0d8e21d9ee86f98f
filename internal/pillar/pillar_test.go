package pillar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealgrid/meddpicc/internal/model"
	"github.com/dealgrid/meddpicc/internal/pillar"
)

func TestDefault_Validates(t *testing.T) {
	assert.NoError(t, pillar.Default().Validate())
}

func TestDefault_EightPillarsInProcessOrder(t *testing.T) {
	cfg := pillar.Default()
	require.Len(t, cfg.Pillars, 8)

	want := []model.PillarID{
		model.PillarMetrics,
		model.PillarEconomicBuyer,
		model.PillarDecisionCriteria,
		model.PillarDecisionProcess,
		model.PillarPaperProcess,
		model.PillarImplicatePain,
		model.PillarChampion,
		model.PillarCompetition,
	}
	for i, p := range cfg.Pillars {
		assert.Equal(t, want[i], p.ID)
	}
}

func TestDefault_Weights(t *testing.T) {
	cfg := pillar.Default()
	want := map[model.PillarID]float64{
		model.PillarMetrics:          1.2,
		model.PillarEconomicBuyer:    1.3,
		model.PillarDecisionCriteria: 1.1,
		model.PillarDecisionProcess:  1.0,
		model.PillarPaperProcess:     0.9,
		model.PillarImplicatePain:    1.2,
		model.PillarChampion:         1.1,
		model.PillarCompetition:      1.0,
	}
	for _, p := range cfg.Pillars {
		assert.Equal(t, want[p.ID], p.Weight, "pillar %s", p.ID)
	}
}

// Every pillar's question bank maxes out at the configured 40-point cap.
func TestDefault_PillarRawMaximum(t *testing.T) {
	cfg := pillar.Default()
	for _, p := range cfg.Pillars {
		max := 0
		for _, q := range p.Questions {
			require.NotEmpty(t, q.Options, "pillar %s question %s", p.ID, q.ID)
			max += q.Options[len(q.Options)-1].Score
		}
		assert.Equal(t, cfg.Thresholds.PillarMax, max, "pillar %s", p.ID)
	}
}

func TestDefault_CoachingTemplatesPresent(t *testing.T) {
	for _, p := range pillar.Default().Pillars {
		assert.NotEmpty(t, p.CriticalActions, "pillar %s", p.ID)
		assert.NotEmpty(t, p.ImprovementActions, "pillar %s", p.ID)
		assert.NotEmpty(t, p.SuccessCriteria, "pillar %s", p.ID)
	}
}

func TestDefault_StageGates(t *testing.T) {
	cfg := pillar.Default()
	require.Len(t, cfg.Stages, 4)

	floors := map[model.Stage]int{}
	for _, g := range cfg.Stages {
		floors[g.Stage] = g.MinTotalScore
		assert.Equal(t, 20, g.MinPillarScore)
		assert.NotEmpty(t, g.RequiredPillars)
	}
	assert.Equal(t, 80, floors[model.StageProspect])
	assert.Equal(t, 160, floors[model.StageEngage])
	assert.Equal(t, 240, floors[model.StageAcquire])
	assert.Equal(t, 280, floors[model.StageKeep])
}

func TestDefault_BenchmarkSegments(t *testing.T) {
	cfg := pillar.Default()
	for _, segment := range []string{"enterprise", "mid_market"} {
		b, ok := cfg.Benchmarks[segment]
		require.True(t, ok, "segment %s", segment)
		assert.Equal(t, segment, b.Segment)
		assert.Len(t, b.PillarScores, 8)
		for pid, score := range b.PillarScores {
			assert.Positive(t, score, "segment %s pillar %s", segment, pid)
		}
	}
}
