package assessments_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dealgrid/meddpicc/internal/model"
	"github.com/dealgrid/meddpicc/internal/pillar"
	"github.com/dealgrid/meddpicc/internal/service/assessments"
	"github.com/dealgrid/meddpicc/internal/storage"
	"github.com/dealgrid/meddpicc/internal/testutil"
)

func newService(t *testing.T, hooks ...assessments.Hook) *assessments.Service {
	t.Helper()
	return newServiceLimits(t, assessments.Limits{}, hooks...)
}

func newServiceLimits(t *testing.T, limits assessments.Limits, hooks ...assessments.Hook) *assessments.Service {
	t.Helper()
	svc, err := assessments.New(storage.NewMemory(), pillar.Default(), limits, testutil.TestLogger(), hooks...)
	require.NoError(t, err)
	return svc
}

func answer(pid model.PillarID, question, value string) model.Answer {
	return model.Answer{
		PillarID:   pid,
		QuestionID: question,
		Value:      value,
		Confidence: model.ConfidenceHigh,
		AnsweredAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

// recordingHook captures lifecycle notifications for assertions.
type recordingHook struct {
	mu       sync.Mutex
	computed []model.Assessment
	deleted  []uuid.UUID
}

func (h *recordingHook) AssessmentComputed(_ context.Context, a model.Assessment) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.computed = append(h.computed, a)
}

func (h *recordingHook) AssessmentDeleted(_ context.Context, id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = append(h.deleted, id)
}

func TestNew_RejectsInvalidConfiguration(t *testing.T) {
	cfg := pillar.Default()
	cfg.Pillars = nil
	_, err := assessments.New(storage.NewMemory(), cfg, assessments.Limits{}, testutil.TestLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestCreate_FullPipeline(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "opp-1", "alice", []model.Answer{
		answer(model.PillarMetrics, "metrics_identified", "tied"),
		answer(model.PillarMetrics, "metrics_validated", "reviewed"),
	})
	require.NoError(t, err)

	assert.Equal(t, "opp-1", a.OpportunityID)
	assert.Equal(t, "alice", a.CreatedBy)
	assert.Equal(t, 1, a.Version)
	assert.Equal(t, 36, a.PillarScores[model.PillarMetrics])
	assert.Equal(t, 36, a.TotalScore)
	assert.Equal(t, model.RiskCritical, a.RiskLevel)
	assert.Len(t, a.StageReadiness, 4)
	assert.False(t, a.StageReadiness[model.StageProspect])
	assert.NotEmpty(t, a.CoachingActions)
	assert.NotEmpty(t, a.AreasOfConcern)

	stored, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.TotalScore, stored.TotalScore)
}

func TestCreate_EmptyOpportunityID(t *testing.T) {
	svc := newService(t)
	_, err := svc.Create(context.Background(), "", "alice", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestCreate_SecondAssessmentForOpportunityConflicts(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "opp-1", "alice", nil)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "opp-1", "bob", nil)
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestCreate_InvalidAnswersDroppedNotFatal(t *testing.T) {
	svc := newService(t)

	a, err := svc.Create(context.Background(), "opp-1", "alice", []model.Answer{
		answer("budget_fit", "metrics_identified", "tied"),
		answer(model.PillarMetrics, "metrics_identified", "tied"),
	})
	require.NoError(t, err)
	assert.Len(t, a.Answers, 1, "offending answer ignored, valid one kept")
}

func TestCreate_RejectsOversizedBatch(t *testing.T) {
	svc := newServiceLimits(t, assessments.Limits{MaxAnswerBatch: 1})
	ctx := context.Background()

	_, err := svc.Create(ctx, "opp-1", "alice", []model.Answer{
		answer(model.PillarMetrics, "metrics_identified", "tied"),
		answer(model.PillarMetrics, "metrics_validated", "reviewed"),
		answer(model.PillarEconomicBuyer, "eb_identified", "confirmed"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, assessments.ErrBatchLimit)

	// Nothing was persisted for the rejected batch.
	_, err = svc.GetByOpportunity(ctx, "opp-1")
	assert.True(t, assessments.IsNotFound(err))

	// A batch at the limit is accepted in full.
	a, err := svc.Create(ctx, "opp-1", "alice", []model.Answer{
		answer(model.PillarMetrics, "metrics_identified", "tied"),
	})
	require.NoError(t, err)
	assert.Len(t, a.Answers, 1)
}

func TestUpdate_RejectsOversizedBatch(t *testing.T) {
	svc := newServiceLimits(t, assessments.Limits{MaxAnswerBatch: 2})
	ctx := context.Background()

	created, err := svc.Create(ctx, "opp-1", "alice", nil)
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, []model.Answer{
		answer(model.PillarMetrics, "metrics_identified", "tied"),
		answer(model.PillarMetrics, "metrics_validated", "reviewed"),
		answer(model.PillarEconomicBuyer, "eb_identified", "confirmed"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, assessments.ErrBatchLimit)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version, "rejected batch does not bump the version")
}

func TestUpdate_IncrementsVersionByOne(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "opp-1", "alice", []model.Answer{
		answer(model.PillarMetrics, "metrics_identified", "drafted"),
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, []model.Answer{
		answer(model.PillarChampion, "ch_identified", "influential"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "opp-1", updated.OpportunityID)
	assert.Len(t, updated.Answers, 2)
	assert.Equal(t, 22, updated.PillarScores[model.PillarChampion])
}

func TestUpdate_UnknownID(t *testing.T) {
	svc := newService(t)
	_, err := svc.Update(context.Background(), uuid.New(), nil)
	assert.True(t, assessments.IsNotFound(err))
}

func TestUpdate_ConcurrentUpdatesSerialized(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "opp-1", "alice", nil)
	require.NoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Update(ctx, created.ID, []model.Answer{
				answer(model.PillarMetrics, "metrics_identified", "tied"),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	final, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1+workers, final.Version, "every update increments by exactly 1")
}

func TestDelete_ReportsExistence(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "opp-1", "alice", nil)
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = svc.Get(ctx, created.ID)
	assert.True(t, assessments.IsNotFound(err))
}

func TestHooks_FireOnComputeAndDelete(t *testing.T) {
	hook := &recordingHook{}
	svc := newService(t, hook)
	ctx := context.Background()

	created, err := svc.Create(ctx, "opp-1", "alice", nil)
	require.NoError(t, err)
	_, err = svc.Update(ctx, created.ID, nil)
	require.NoError(t, err)
	_, err = svc.Delete(ctx, created.ID)
	require.NoError(t, err)

	hook.mu.Lock()
	defer hook.mu.Unlock()
	require.Len(t, hook.computed, 2)
	assert.Equal(t, 1, hook.computed[0].Version)
	assert.Equal(t, 2, hook.computed[1].Version)
	assert.Equal(t, []uuid.UUID{created.ID}, hook.deleted)
}

func TestUpdateConfiguration_BumpsVersionAndSwaps(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	next := pillar.Default()
	next.Thresholds.MaxCoachingActions = 3
	require.NoError(t, svc.UpdateConfiguration(ctx, next))

	got := svc.Configuration()
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, 3, got.Thresholds.MaxCoachingActions)

	// New computations see the new cap.
	a, err := svc.Create(ctx, "opp-1", "alice", nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(a.CoachingActions), 3)
}

func TestUpdateConfiguration_RejectsInvalid(t *testing.T) {
	svc := newService(t)

	bad := pillar.Default()
	bad.Pillars[0].Weight = -1
	err := svc.UpdateConfiguration(context.Background(), bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConfiguration)
	assert.Equal(t, 1, svc.Configuration().Version, "active snapshot unchanged on failure")
}

func TestInsights_ForStoredAssessment(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "opp-1", "alice", nil)
	require.NoError(t, err)

	insights, err := svc.Insights(ctx, created.ID)
	require.NoError(t, err)
	require.NotEmpty(t, insights)
	for i := 1; i < len(insights); i++ {
		assert.GreaterOrEqual(t, insights[i-1].Priority.Rank(), insights[i].Priority.Rank())
	}
}

func TestCompareBenchmark_UnknownSegment(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "opp-1", "alice", nil)
	require.NoError(t, err)

	_, err = svc.CompareBenchmark(ctx, created.ID, "smb")
	assert.True(t, assessments.IsNotFound(err))
}

func TestCompareBenchmark_KnownSegment(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "opp-1", "alice", nil)
	require.NoError(t, err)

	cmp, err := svc.CompareBenchmark(ctx, created.ID, "enterprise")
	require.NoError(t, err)
	assert.Equal(t, "enterprise", cmp.Segment)
	assert.Len(t, cmp.Variance, 8)
}

func TestAnalytics_AggregatesPortfolio(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "opp-1", "alice", []model.Answer{
		answer(model.PillarMetrics, "metrics_identified", "tied"),
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "opp-2", "bob", nil)
	require.NoError(t, err)

	pa, err := svc.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pa.AssessmentCount)
	assert.Equal(t, 2, pa.ScoreDist.Weak)
	assert.Equal(t, 2, pa.RiskDist[model.RiskCritical])
}

// deadlineStore records whether List ran under a context deadline.
type deadlineStore struct {
	storage.Store
	mu          sync.Mutex
	hadDeadline bool
}

func (d *deadlineStore) List(ctx context.Context) ([]model.Assessment, error) {
	_, ok := ctx.Deadline()
	d.mu.Lock()
	d.hadDeadline = ok
	d.mu.Unlock()
	return d.Store.List(ctx)
}

func TestExport_RunsUnderConfiguredDeadline(t *testing.T) {
	store := &deadlineStore{Store: storage.NewMemory()}
	svc, err := assessments.New(store, pillar.Default(),
		assessments.Limits{ExportTimeout: time.Second}, testutil.TestLogger())
	require.NoError(t, err)

	_, err = svc.Export(context.Background())
	require.NoError(t, err)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.True(t, store.hadDeadline, "export reads carry the export timeout")
}

func TestOperations_EmitSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "opp-1", "alice", nil)
	require.NoError(t, err)
	_, err = svc.Update(ctx, created.ID, nil)
	require.NoError(t, err)
	_, err = svc.Analytics(ctx)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = s.Name
	}
	assert.Contains(t, names, "assessments.create")
	assert.Contains(t, names, "assessments.update")
	assert.Contains(t, names, "assessments.analytics")

	for _, s := range spans {
		if s.Name == "assessments.create" {
			assert.Contains(t, s.Attributes, attribute.String("meddpicc.operation", "create"))
		}
	}
}

func TestExport_RecomputeIsIdempotent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "opp-1", "alice", []model.Answer{
		answer(model.PillarMetrics, "metrics_identified", "tied"),
		answer(model.PillarEconomicBuyer, "eb_identified", "confirmed"),
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "opp-2", "bob", []model.Answer{
		answer(model.PillarChampion, "ch_tested", "tested"),
	})
	require.NoError(t, err)

	doc, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ExportSchemaVersion, doc.SchemaVersion)
	assert.False(t, doc.ExportedAt.IsZero())
	require.Len(t, doc.Assessments, 2)
	assert.Equal(t, 2, doc.Analytics.AssessmentCount)

	// Feeding each exported record back through an empty update must
	// reproduce identical scores from the unchanged answer history.
	for _, exported := range doc.Assessments {
		recomputed, err := svc.Update(ctx, exported.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, exported.PillarScores, recomputed.PillarScores)
		assert.Equal(t, exported.TotalScore, recomputed.TotalScore)
		assert.Equal(t, exported.Version+1, recomputed.Version)
	}
}
