// Package coaching produces prioritized remediation actions and
// strength/weakness insights from pillar performance. All text is
// selected from configuration templates; nothing is generated.
package coaching

import (
	"fmt"
	"sort"

	"github.com/dealgrid/meddpicc/internal/model"
)

// ValidationAction is appended when too many answers carry low
// confidence: the data itself needs verifying before the deal does.
const ValidationAction = "schedule a validation session to confirm low-confidence answers with the customer"

// Actions returns the remediation list for an assessment, capped by the
// configured maximum. Pillars are visited in declaration order — earlier
// pillars are higher sales-process priority — and the cap truncates,
// never reorders.
func Actions(cfg model.Configuration, pillarScores map[model.PillarID]int, answers []model.Answer) []string {
	t := cfg.Thresholds
	actions := make([]string, 0, t.MaxCoachingActions)
	for _, p := range cfg.Pillars {
		pct := percentage(cfg, pillarScores[p.ID])
		switch {
		case pct < t.CriticalBand:
			actions = append(actions, p.CriticalActions...)
		case pct < t.ImprovementBand:
			actions = append(actions, p.ImprovementActions...)
		}
	}

	lowConfidence := 0
	for _, a := range model.LatestAnswers(answers) {
		if a.Confidence == model.ConfidenceLow {
			lowConfidence++
		}
	}
	if lowConfidence > t.LowConfidenceLimit {
		actions = append(actions, ValidationAction)
	}

	if len(actions) > t.MaxCoachingActions {
		actions = actions[:t.MaxCoachingActions]
	}
	return actions
}

// Insights derives templated strength/risk/weakness observations from a
// computed assessment, sorted by descending priority. The sort is
// stable: equal priorities keep pillar declaration order.
func Insights(cfg model.Configuration, a model.Assessment) []model.Insight {
	t := cfg.Thresholds
	var out []model.Insight
	for _, p := range cfg.Pillars {
		pct := percentage(cfg, a.PillarScores[p.ID])
		switch {
		case pct >= t.StrengthBand:
			out = append(out, model.Insight{
				Type:     model.InsightStrength,
				Priority: model.PriorityMedium,
				PillarID: p.ID,
				Message:  fmt.Sprintf("%s is a competitive strength for this opportunity", p.Title),
			})
		case pct < t.CriticalBand:
			in := model.Insight{
				Type:     model.InsightRisk,
				Priority: model.PriorityCritical,
				PillarID: p.ID,
				Message:  fmt.Sprintf("%s is critically underdeveloped", p.Title),
			}
			if len(p.CriticalActions) > 0 {
				in.Recommendation = p.CriticalActions[0]
			}
			out = append(out, in)
		}
	}

	if a.RiskLevel == model.RiskCritical {
		out = append(out, model.Insight{
			Type:     model.InsightRisk,
			Priority: model.PriorityCritical,
			Message:  "overall qualification risk is critical; revisit fundamentals before forecasting this deal",
		})
	}
	if a.ConfidenceScore < t.WeakConfidence {
		out = append(out, model.Insight{
			Type:           model.InsightWeakness,
			Priority:       model.PriorityHigh,
			Message:        "answer confidence is weak; the score may not reflect reality",
			Recommendation: ValidationAction,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() > out[j].Priority.Rank()
	})
	return out
}

// Strengths lists the titles of pillars at or above the strength band,
// in declaration order.
func Strengths(cfg model.Configuration, pillarScores map[model.PillarID]int) []string {
	var out []string
	for _, p := range cfg.Pillars {
		if percentage(cfg, pillarScores[p.ID]) >= cfg.Thresholds.StrengthBand {
			out = append(out, p.Title)
		}
	}
	return out
}

// Concerns lists the titles of pillars below the critical band, in
// declaration order.
func Concerns(cfg model.Configuration, pillarScores map[model.PillarID]int) []string {
	var out []string
	for _, p := range cfg.Pillars {
		if percentage(cfg, pillarScores[p.ID]) < cfg.Thresholds.CriticalBand {
			out = append(out, p.Title)
		}
	}
	return out
}

func percentage(cfg model.Configuration, pillarScore int) float64 {
	return float64(pillarScore) / float64(cfg.Thresholds.PillarMax)
}
