// Package benchmark compares an assessment's pillar scores against
// reference benchmarks for an industry/deal-size segment.
package benchmark

import (
	"fmt"
	"math"

	"github.com/dealgrid/meddpicc/internal/model"
)

// Compare computes the per-pillar variance of an assessment against a
// benchmark, in percent, and emits a recommendation for every pillar
// that is significantly above or below the reference. A zero benchmark
// score is a configuration error: the comparison aborts rather than
// dividing into infinity.
func Compare(cfg model.Configuration, a model.Assessment, b model.Benchmark) (model.BenchmarkComparison, error) {
	out := model.BenchmarkComparison{
		Segment:  b.Segment,
		Variance: make(map[model.PillarID]int, len(b.PillarScores)),
	}
	alert := cfg.Thresholds.BenchmarkVarianceAlert
	for _, p := range cfg.Pillars {
		ref, ok := b.PillarScores[p.ID]
		if !ok {
			continue
		}
		if ref == 0 {
			return model.BenchmarkComparison{}, fmt.Errorf("%w: benchmark %q has zero score for pillar %q", model.ErrConfiguration, b.Segment, p.ID)
		}
		variance := int(math.Round(float64(a.PillarScores[p.ID]-ref) / float64(ref) * 100))
		out.Variance[p.ID] = variance
		switch {
		case variance < -alert:
			out.Recommendations = append(out.Recommendations,
				fmt.Sprintf("%s is significantly below the %s benchmark (%+d%%); needs immediate attention", p.Title, b.Segment, variance))
		case variance > alert:
			out.Recommendations = append(out.Recommendations,
				fmt.Sprintf("%s is above the %s benchmark average (%+d%%); leverage this strength", p.Title, b.Segment, variance))
		}
	}
	return out, nil
}
