package coaching_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealgrid/meddpicc/internal/coaching"
	"github.com/dealgrid/meddpicc/internal/model"
	"github.com/dealgrid/meddpicc/internal/pillar"
)

func allScores(score int) map[model.PillarID]int {
	cfg := pillar.Default()
	out := make(map[model.PillarID]int, len(cfg.Pillars))
	for _, p := range cfg.Pillars {
		out[p.ID] = score
	}
	return out
}

// ---- Actions -------------------------------------------------------------

func TestActions_EverythingCritical_CappedInDeclarationOrder(t *testing.T) {
	cfg := pillar.Default()
	actions := coaching.Actions(cfg, allScores(0), nil)

	require.Len(t, actions, cfg.Thresholds.MaxCoachingActions)
	// Metrics declares two critical actions, Economic Buyer three; the
	// cap lands exactly on that boundary.
	assert.Equal(t, cfg.Pillars[0].CriticalActions[0], actions[0])
	assert.Equal(t, cfg.Pillars[0].CriticalActions[1], actions[1])
	assert.Equal(t, cfg.Pillars[1].CriticalActions[0], actions[2])
	assert.Equal(t, cfg.Pillars[1].CriticalActions[2], actions[4])
}

func TestActions_ImprovementBand(t *testing.T) {
	cfg := pillar.Default()
	// 16/40 = 0.40: above the critical band (0.30), below improvement (0.60).
	actions := coaching.Actions(cfg, allScores(16), nil)

	require.NotEmpty(t, actions)
	assert.Equal(t, cfg.Pillars[0].ImprovementActions[0], actions[0])
	for _, p := range cfg.Pillars {
		for _, crit := range p.CriticalActions {
			assert.NotContains(t, actions, crit)
		}
	}
}

func TestActions_HealthyPillarsYieldNothing(t *testing.T) {
	cfg := pillar.Default()
	assert.Empty(t, coaching.Actions(cfg, allScores(40), nil))
}

func TestActions_LowConfidenceAppendsValidation(t *testing.T) {
	cfg := pillar.Default()
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	answers := []model.Answer{
		{PillarID: model.PillarMetrics, QuestionID: "metrics_identified", Confidence: model.ConfidenceLow, AnsweredAt: at},
		{PillarID: model.PillarMetrics, QuestionID: "metrics_validated", Confidence: model.ConfidenceLow, AnsweredAt: at},
		{PillarID: model.PillarChampion, QuestionID: "ch_identified", Confidence: model.ConfidenceLow, AnsweredAt: at},
		{PillarID: model.PillarChampion, QuestionID: "ch_tested", Confidence: model.ConfidenceLow, AnsweredAt: at},
	}

	actions := coaching.Actions(cfg, allScores(40), answers)
	assert.Equal(t, []string{coaching.ValidationAction}, actions)
}

func TestActions_LowConfidenceAtLimitDoesNotTrigger(t *testing.T) {
	cfg := pillar.Default()
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	answers := []model.Answer{
		{PillarID: model.PillarMetrics, QuestionID: "metrics_identified", Confidence: model.ConfidenceLow, AnsweredAt: at},
		{PillarID: model.PillarMetrics, QuestionID: "metrics_validated", Confidence: model.ConfidenceLow, AnsweredAt: at},
		{PillarID: model.PillarChampion, QuestionID: "ch_identified", Confidence: model.ConfidenceLow, AnsweredAt: at},
	}

	assert.Empty(t, coaching.Actions(cfg, allScores(40), answers), "limit is exclusive")
}

func TestActions_SupersededLowConfidenceAnswersDoNotCount(t *testing.T) {
	cfg := pillar.Default()
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	var answers []model.Answer
	// Four low-confidence answers, each later superseded at high confidence.
	for _, q := range []struct {
		pid model.PillarID
		qid string
	}{
		{model.PillarMetrics, "metrics_identified"},
		{model.PillarMetrics, "metrics_validated"},
		{model.PillarChampion, "ch_identified"},
		{model.PillarChampion, "ch_tested"},
	} {
		answers = append(answers,
			model.Answer{PillarID: q.pid, QuestionID: q.qid, Confidence: model.ConfidenceLow, AnsweredAt: at},
			model.Answer{PillarID: q.pid, QuestionID: q.qid, Confidence: model.ConfidenceHigh, AnsweredAt: at.Add(time.Hour)},
		)
	}

	assert.Empty(t, coaching.Actions(cfg, allScores(40), answers))
}

// ---- Insights ------------------------------------------------------------

func TestInsights_SortedByDescendingPriority(t *testing.T) {
	cfg := pillar.Default()
	a := model.Assessment{
		PillarScores: map[model.PillarID]int{
			model.PillarMetrics:  36, // 0.90: strength
			model.PillarChampion: 0,  // critical band
		},
		RiskLevel:       model.RiskCritical,
		ConfidenceScore: 50, // below the weak-confidence floor
	}

	insights := coaching.Insights(cfg, a)
	require.NotEmpty(t, insights)

	for i := 1; i < len(insights); i++ {
		assert.GreaterOrEqual(t, insights[i-1].Priority.Rank(), insights[i].Priority.Rank(),
			"insights out of priority order at %d", i)
	}

	// The stable sort keeps the champion pillar risk ahead of the
	// overall-risk insight within the critical tier.
	assert.Equal(t, model.InsightRisk, insights[0].Type)
	assert.Equal(t, model.PillarChampion, insights[0].PillarID)
	assert.Equal(t, cfg.Pillars[6].CriticalActions[0], insights[0].Recommendation)
}

func TestInsights_StrengthOnly(t *testing.T) {
	cfg := pillar.Default()
	a := model.Assessment{
		PillarScores:    allScores(40),
		RiskLevel:       model.RiskLow,
		ConfidenceScore: 95,
	}

	insights := coaching.Insights(cfg, a)
	require.Len(t, insights, len(cfg.Pillars))
	for _, in := range insights {
		assert.Equal(t, model.InsightStrength, in.Type)
		assert.Equal(t, model.PriorityMedium, in.Priority)
	}
}

func TestInsights_WeakConfidenceEmitsWeakness(t *testing.T) {
	cfg := pillar.Default()
	a := model.Assessment{
		PillarScores:    allScores(25), // mid band: no per-pillar insight
		RiskLevel:       model.RiskMedium,
		ConfidenceScore: 59,
	}

	insights := coaching.Insights(cfg, a)
	require.Len(t, insights, 1)
	assert.Equal(t, model.InsightWeakness, insights[0].Type)
	assert.Equal(t, model.PriorityHigh, insights[0].Priority)
	assert.Equal(t, coaching.ValidationAction, insights[0].Recommendation)
}

// ---- Strengths / Concerns ------------------------------------------------

func TestStrengthsAndConcerns(t *testing.T) {
	cfg := pillar.Default()
	scores := allScores(25)
	scores[model.PillarEconomicBuyer] = 52 // above the strength band
	scores[model.PillarPaperProcess] = 5   // below the critical band

	assert.Equal(t, []string{"Economic Buyer"}, coaching.Strengths(cfg, scores))
	assert.Equal(t, []string{"Paper Process"}, coaching.Concerns(cfg, scores))
}
