// Package portfolio aggregates many assessments into cross-opportunity
// analytics: score and risk distributions, per-pillar means, and
// systemic risk signals.
package portfolio

import (
	"math"
	"sort"

	"github.com/dealgrid/meddpicc/internal/model"
)

// maxSignals caps top_risks and improvement_opportunities to the most
// severe entries.
const maxSignals = 5

// Aggregate summarizes assessments under a configuration snapshot. An
// empty input yields a zero-valued analytics object, not an error.
func Aggregate(cfg model.Configuration, assessments []model.Assessment) model.PortfolioAnalytics {
	// All four risk buckets are always present so the serialized shape
	// is stable regardless of which levels were observed.
	out := model.PortfolioAnalytics{
		RiskDist: map[model.RiskLevel]int{
			model.RiskLow:      0,
			model.RiskMedium:   0,
			model.RiskHigh:     0,
			model.RiskCritical: 0,
		},
		PillarMeans: make(map[model.PillarID]float64, len(cfg.Pillars)),
	}
	if len(assessments) == 0 {
		return out
	}
	out.AssessmentCount = len(assessments)

	t := cfg.Thresholds
	totalSum := 0
	pillarSums := make(map[model.PillarID]int, len(cfg.Pillars))
	for _, a := range assessments {
		totalSum += a.TotalScore
		switch {
		case a.TotalScore >= t.StrongScoreMin:
			out.ScoreDist.Strong++
		case a.TotalScore >= t.ModerateScoreMin:
			out.ScoreDist.Moderate++
		default:
			out.ScoreDist.Weak++
		}
		out.RiskDist[a.RiskLevel]++
		for _, p := range cfg.Pillars {
			pillarSums[p.ID] += a.PillarScores[p.ID]
		}
	}
	out.MeanTotalScore = int(math.Round(float64(totalSum) / float64(len(assessments))))

	var risks, opportunities []model.PillarMean
	for _, p := range cfg.Pillars {
		mean := float64(pillarSums[p.ID]) / float64(len(assessments))
		out.PillarMeans[p.ID] = mean
		switch {
		case mean < t.PillarRiskMean:
			risks = append(risks, model.PillarMean{PillarID: p.ID, Mean: mean})
		case mean < t.PillarOpportunityMean:
			opportunities = append(opportunities, model.PillarMean{PillarID: p.ID, Mean: mean})
		}
	}
	out.TopRisks = worstFirst(risks)
	out.ImprovementOpportunities = worstFirst(opportunities)
	return out
}

// worstFirst sorts by ascending mean (most severe first) and caps the
// list. The sort is stable so equal means keep pillar declaration order.
func worstFirst(means []model.PillarMean) []model.PillarMean {
	sort.SliceStable(means, func(i, j int) bool { return means[i].Mean < means[j].Mean })
	if len(means) > maxSignals {
		means = means[:maxSignals]
	}
	return means
}
