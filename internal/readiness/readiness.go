// Package readiness gates opportunity-stage transitions against minimum
// total-score and required-pillar thresholds.
package readiness

import "github.com/dealgrid/meddpicc/internal/model"

// Evaluate returns the readiness gate for every configured stage. A
// stage is ready iff the total score meets its floor and every required
// pillar meets the gate's per-pillar floor. The full map is recomputed
// on every call — gates are never patched incrementally, so they cannot
// go stale against the scores they were derived from.
func Evaluate(gates []model.StageGate, pillarScores map[model.PillarID]int, totalScore int) map[model.Stage]bool {
	out := make(map[model.Stage]bool, len(gates))
	for _, g := range gates {
		out[g.Stage] = ready(g, pillarScores, totalScore)
	}
	return out
}

func ready(g model.StageGate, pillarScores map[model.PillarID]int, totalScore int) bool {
	if totalScore < g.MinTotalScore {
		return false
	}
	for _, pid := range g.RequiredPillars {
		if pillarScores[pid] < g.MinPillarScore {
			return false
		}
	}
	return true
}
