// Package assessments provides the shared business logic for assessment
// operations.
//
// Both the public embedding API and the MCP server delegate to this
// service, ensuring consistent behavior (validation, full recompute,
// per-assessment serialization, hooks) across all surfaces.
package assessments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/dealgrid/meddpicc/internal/benchmark"
	"github.com/dealgrid/meddpicc/internal/coaching"
	"github.com/dealgrid/meddpicc/internal/model"
	"github.com/dealgrid/meddpicc/internal/readiness"
	"github.com/dealgrid/meddpicc/internal/scoring"
	"github.com/dealgrid/meddpicc/internal/storage"
	"github.com/dealgrid/meddpicc/internal/telemetry"
)

// scope names the instrumentation scope for this package's meter and
// tracer.
const scope = "meddpicc/assessments"

// ErrBatchLimit is returned when an answer batch exceeds the configured
// maximum. The batch is rejected whole; nothing is partially applied.
var ErrBatchLimit = errors.New("answer batch exceeds limit")

// Limits bounds the service's operational envelope. Zero fields fall
// back to the package defaults.
type Limits struct {
	// MaxAnswerBatch caps answers accepted per create or update.
	MaxAnswerBatch int
	// ExportTimeout bounds a single export snapshot.
	ExportTimeout time.Duration
}

const (
	defaultMaxAnswerBatch = 200
	defaultExportTimeout  = 30 * time.Second
)

func (l Limits) withDefaults() Limits {
	if l.MaxAnswerBatch <= 0 {
		l.MaxAnswerBatch = defaultMaxAnswerBatch
	}
	if l.ExportTimeout <= 0 {
		l.ExportTimeout = defaultExportTimeout
	}
	return l
}

// Hook receives assessment lifecycle notifications. Hook failures are
// the hook's problem: they are never surfaced to the caller.
type Hook interface {
	// AssessmentComputed fires after a create or update is persisted.
	AssessmentComputed(ctx context.Context, a model.Assessment)
	// AssessmentDeleted fires after a delete is persisted.
	AssessmentDeleted(ctx context.Context, id uuid.UUID)
}

// Service encapsulates assessment business logic shared by all surfaces.
type Service struct {
	store  storage.Store
	scorer *scoring.Engine
	logger *slog.Logger
	hooks  []Hook
	limits Limits
	now    func() time.Time

	// cfg is the active configuration snapshot. Swapped atomically so a
	// reload fully precedes or fully follows any computation.
	cfg   atomic.Pointer[model.Configuration]
	cfgMu sync.Mutex // serializes UpdateConfiguration

	// locks serializes read-modify-write per assessment id, which is
	// what guarantees the version-increment invariant under concurrent
	// updates.
	locks keyedMutex

	// analytics collapses concurrent portfolio aggregations.
	analytics singleflight.Group

	computeDuration metric.Float64Histogram
	computeCount    metric.Int64Counter
}

// New creates the service with an initial, validated configuration.
func New(store storage.Store, cfg model.Configuration, limits Limits, logger *slog.Logger, hooks ...Hook) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	meter := telemetry.Meter(scope)
	dur, _ := meter.Float64Histogram("meddpicc.compute.duration",
		metric.WithDescription("Time to compute an assessment (ms)"),
		metric.WithUnit("ms"),
	)
	count, _ := meter.Int64Counter("meddpicc.compute.count",
		metric.WithDescription("Assessment recomputes by operation"),
	)
	s := &Service{
		store:           store,
		scorer:          scoring.New(logger),
		logger:          logger,
		hooks:           hooks,
		limits:          limits.withDefaults(),
		now:             time.Now,
		computeDuration: dur,
		computeCount:    count,
	}
	s.cfg.Store(&cfg)
	return s, nil
}

// Configuration returns the active configuration snapshot.
func (s *Service) Configuration() model.Configuration {
	return *s.cfg.Load()
}

// UpdateConfiguration validates cfg, persists it with a bumped version,
// and atomically swaps the active snapshot. In-flight computations keep
// the snapshot they started with.
func (s *Service) UpdateConfiguration(ctx context.Context, cfg model.Configuration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	cfg.Version = s.cfg.Load().Version + 1
	cfg.UpdatedAt = s.now()
	if err := s.store.PutConfiguration(ctx, cfg); err != nil {
		return err
	}
	s.cfg.Store(&cfg)
	s.logger.Info("configuration updated", "version", cfg.Version)
	return nil
}

// Create scores an initial answer batch for an opportunity and persists
// the resulting version-1 assessment. At most one assessment exists per
// opportunity; a second create fails with storage.ErrConflict.
func (s *Service) Create(ctx context.Context, opportunityID, createdBy string, answers []model.Answer) (model.Assessment, error) {
	if opportunityID == "" {
		return model.Assessment{}, fmt.Errorf("%w: opportunity id is required", model.ErrConfiguration)
	}
	if err := s.checkBatch(answers); err != nil {
		return model.Assessment{}, err
	}
	cfg := s.Configuration()
	a := s.compute(ctx, cfg, nil, answers, "create")
	a.OpportunityID = opportunityID
	a.CreatedBy = createdBy

	if err := s.store.Put(ctx, a); err != nil {
		return model.Assessment{}, err
	}
	s.notifyComputed(ctx, a)
	return a, nil
}

// Update applies an answer batch to an existing assessment and persists
// the recompute. Returns storage.ErrNotFound for unknown ids. The
// version increments by exactly 1 on success and not at all on failure.
func (s *Service) Update(ctx context.Context, id uuid.UUID, answers []model.Answer) (model.Assessment, error) {
	if err := s.checkBatch(answers); err != nil {
		return model.Assessment{}, err
	}
	unlock := s.locks.lock(id)
	defer unlock()

	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Assessment{}, err
	}
	cfg := s.Configuration()
	a := s.compute(ctx, cfg, &existing, answers, "update")
	if err := s.store.Put(ctx, a); err != nil {
		return model.Assessment{}, err
	}
	s.notifyComputed(ctx, a)
	return a, nil
}

// Get returns an assessment by id, or storage.ErrNotFound.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (model.Assessment, error) {
	return s.store.Get(ctx, id)
}

// GetByOpportunity returns the assessment for an opportunity, or
// storage.ErrNotFound.
func (s *Service) GetByOpportunity(ctx context.Context, opportunityID string) (model.Assessment, error) {
	return s.store.GetByOpportunity(ctx, opportunityID)
}

// Delete removes an assessment, reporting whether it existed. Removal is
// always caller-driven; nothing is garbage-collected.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		for _, h := range s.hooks {
			h.AssessmentDeleted(ctx, id)
		}
	}
	return deleted, nil
}

// Insights derives the templated insight list for a stored assessment.
func (s *Service) Insights(ctx context.Context, id uuid.UUID) ([]model.Insight, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return coaching.Insights(s.Configuration(), a), nil
}

// CompareBenchmark compares a stored assessment against the named
// benchmark segment.
func (s *Service) CompareBenchmark(ctx context.Context, id uuid.UUID, segment string) (model.BenchmarkComparison, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return model.BenchmarkComparison{}, err
	}
	cfg := s.Configuration()
	b, ok := cfg.Benchmarks[segment]
	if !ok {
		return model.BenchmarkComparison{}, fmt.Errorf("benchmark segment %q: %w", segment, storage.ErrNotFound)
	}
	return benchmark.Compare(cfg, a, b)
}

// compute runs the full pipeline: sanitize, score, then derive the
// secondary attributes (stage gates, coaching, strengths, concerns).
func (s *Service) compute(ctx context.Context, cfg model.Configuration, existing *model.Assessment, answers []model.Answer, op string) model.Assessment {
	start := s.now()
	ctx, span := telemetry.Tracer(scope).Start(ctx, "assessments."+op)
	defer span.End()
	span.SetAttributes(attribute.String("meddpicc.operation", op))

	sanitized := s.scorer.Sanitize(cfg, answers)
	if dropped := len(answers) - len(sanitized); dropped > 0 {
		s.logger.Warn("dropped invalid answers", "operation", op, "dropped", dropped)
	}
	a := s.scorer.Compute(cfg, existing, sanitized, start)
	a.StageReadiness = readiness.Evaluate(cfg.Stages, a.PillarScores, a.TotalScore)
	a.CoachingActions = coaching.Actions(cfg, a.PillarScores, a.Answers)
	a.CompetitiveStrengths = coaching.Strengths(cfg, a.PillarScores)
	a.AreasOfConcern = coaching.Concerns(cfg, a.PillarScores)

	s.computeDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000.0)
	s.computeCount.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
	return a
}

func (s *Service) checkBatch(answers []model.Answer) error {
	if len(answers) > s.limits.MaxAnswerBatch {
		return fmt.Errorf("%w: %d answers, limit %d", ErrBatchLimit, len(answers), s.limits.MaxAnswerBatch)
	}
	return nil
}

func (s *Service) notifyComputed(ctx context.Context, a model.Assessment) {
	for _, h := range s.hooks {
		h.AssessmentComputed(ctx, a)
	}
}

// keyedMutex hands out one mutex per assessment id. Entries are kept for
// the process lifetime; the set is bounded by the number of assessments
// ever touched.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func (k *keyedMutex) lock(id uuid.UUID) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[uuid.UUID]*sync.Mutex)
	}
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// IsNotFound reports whether err is the store's absence sentinel.
// Callers treat absence as an expected outcome, not a failure.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
