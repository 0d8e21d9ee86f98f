package assessments

import (
	"context"

	"github.com/dealgrid/meddpicc/internal/model"
	"github.com/dealgrid/meddpicc/internal/portfolio"
	"github.com/dealgrid/meddpicc/internal/telemetry"
)

// Analytics aggregates every stored assessment into portfolio
// analytics. Concurrent callers are collapsed into one store scan:
// aggregation has no linearizability requirement across assessments, so
// sharing a slightly stale snapshot is fine.
func (s *Service) Analytics(ctx context.Context) (model.PortfolioAnalytics, error) {
	ctx, span := telemetry.Tracer(scope).Start(ctx, "assessments.analytics")
	defer span.End()

	v, err, _ := s.analytics.Do("portfolio", func() (any, error) {
		list, err := s.store.List(ctx)
		if err != nil {
			return nil, err
		}
		return portfolio.Aggregate(s.Configuration(), list), nil
	})
	if err != nil {
		return model.PortfolioAnalytics{}, err
	}
	return v.(model.PortfolioAnalytics), nil
}

// Export snapshots all assessments plus the analytics over them into a
// versioned document. Feeding the assessments back through Update with
// their own answers reproduces identical scores: recompute is
// idempotent on unchanged answers.
func (s *Service) Export(ctx context.Context) (model.ExportDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, s.limits.ExportTimeout)
	defer cancel()
	ctx, span := telemetry.Tracer(scope).Start(ctx, "assessments.export")
	defer span.End()

	list, err := s.store.List(ctx)
	if err != nil {
		return model.ExportDocument{}, err
	}
	return model.ExportDocument{
		SchemaVersion: model.ExportSchemaVersion,
		ExportedAt:    s.now(),
		Assessments:   list,
		Analytics:     portfolio.Aggregate(s.Configuration(), list),
	}, nil
}
