// Package meddpicc is the public API for embedding the MEDDPICC
// qualification engine.
//
// Consumers import this package to score opportunities without running
// the MCP binary:
//
//	engine, err := meddpicc.New(
//	    meddpicc.WithSQLiteStore("deals.db"),
//	    meddpicc.WithLogger(logger),
//	    meddpicc.WithAssessmentHook(crmSyncHook{}),
//	)
//	if err != nil { ... }
//	defer engine.Close(ctx)
//	a, err := engine.CreateAssessment(ctx, "opp-4711", "alice", answers)
//
// The import graph enforces a strict no-cycle rule: meddpicc (root)
// imports internal/*, but internal/* never imports meddpicc (root).
// Public types (Assessment, Configuration, etc.) are standalone structs
// with no internal imports; conversion helpers live here because this is
// the only file that sees both sides of the boundary.
package meddpicc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/dealgrid/meddpicc/internal/config"
	"github.com/dealgrid/meddpicc/internal/mcp"
	"github.com/dealgrid/meddpicc/internal/model"
	"github.com/dealgrid/meddpicc/internal/pillar"
	"github.com/dealgrid/meddpicc/internal/service/assessments"
	"github.com/dealgrid/meddpicc/internal/storage"
	"github.com/dealgrid/meddpicc/internal/telemetry"
)

// Engine is the qualification engine lifecycle. Construct with New(),
// release with Close(). Engine has no public fields — use New() options
// to configure it.
type Engine struct {
	cfg          config.Config
	store        storage.Store
	svc          *assessments.Service
	otelShutdown telemetry.Shutdown
	logger       *slog.Logger
	version      string
}

// New initialises the engine. It opens the selected store, loads or
// seeds the scoring configuration, and wires all subsystems. It does
// not start any goroutines — the engine is ready to use on return.
func New(opts ...Option) (*Engine, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	// Load configuration (env vars), then apply option overrides.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.store != "" {
		cfg.Store = o.store
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	if o.sqlitePath != "" {
		cfg.SQLitePath = o.sqlitePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	logger.Info("meddpicc starting", "version", version, "store", cfg.Store)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(context.Background(), cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	// Open the persistence backend.
	store, err := newStore(cfg, logger)
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("storage: %w", err)
	}

	// Resolve the scoring configuration: an explicit option wins, then
	// whatever the store holds, then the built-in defaults (seeded into
	// the store so later restarts see a stable version number).
	scoringCfg, err := resolveConfiguration(context.Background(), store, o.configuration, logger)
	if err != nil {
		_ = store.Close(context.Background())
		_ = otelShutdown(context.Background())
		return nil, err
	}

	// Adapt hooks from public meddpicc.AssessmentHook to internal
	// assessments.Hook.
	hooks := make([]assessments.Hook, 0, len(o.hooks))
	for _, h := range o.hooks {
		hooks = append(hooks, &assessmentHookAdapter{hook: h})
	}

	limits := assessments.Limits{
		MaxAnswerBatch: cfg.MaxAnswerBatch,
		ExportTimeout:  cfg.ExportTimeout,
	}
	svc, err := assessments.New(store, scoringCfg, limits, logger, hooks...)
	if err != nil {
		_ = store.Close(context.Background())
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("assessments: %w", err)
	}

	return &Engine{
		cfg:          cfg,
		store:        store,
		svc:          svc,
		otelShutdown: otelShutdown,
		logger:       logger,
		version:      version,
	}, nil
}

func newStore(cfg config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		return storage.NewPostgres(context.Background(), cfg.DatabaseURL, logger)
	case config.StoreSQLite:
		return storage.NewSQLite(cfg.SQLitePath, logger)
	default:
		return storage.NewMemory(), nil
	}
}

func resolveConfiguration(ctx context.Context, store storage.Store, override *Configuration, logger *slog.Logger) (model.Configuration, error) {
	if override != nil {
		cfg := toInternalConfiguration(*override)
		if err := cfg.Validate(); err != nil {
			return model.Configuration{}, fmt.Errorf("configuration option: %w", err)
		}
		if err := store.PutConfiguration(ctx, cfg); err != nil {
			return model.Configuration{}, fmt.Errorf("persist configuration: %w", err)
		}
		logger.Info("scoring configuration: from option", "version", cfg.Version)
		return cfg, nil
	}

	cfg, err := store.GetConfiguration(ctx)
	switch {
	case err == nil:
		logger.Info("scoring configuration: from store", "version", cfg.Version)
		return cfg, nil
	case errors.Is(err, storage.ErrNotFound):
		cfg = pillar.Default()
		if err := store.PutConfiguration(ctx, cfg); err != nil {
			return model.Configuration{}, fmt.Errorf("seed configuration: %w", err)
		}
		logger.Info("scoring configuration: seeded defaults", "version", cfg.Version)
		return cfg, nil
	default:
		return model.Configuration{}, fmt.Errorf("load configuration: %w", err)
	}
}

// Close releases the store and flushes telemetry. The engine must not
// be used after Close.
func (e *Engine) Close(ctx context.Context) error {
	err := e.store.Close(ctx)
	if shutErr := e.otelShutdown(ctx); shutErr != nil && err == nil {
		err = shutErr
	}
	e.logger.Info("meddpicc stopped")
	return err
}

// ServeMCP exposes the engine over the Model Context Protocol on
// stdin/stdout and blocks until the transport closes.
func (e *Engine) ServeMCP(ctx context.Context) error {
	srv := mcp.New(e.svc, e.version, e.logger)
	return mcpserver.NewStdioServer(srv.MCPServer()).Listen(ctx, os.Stdin, os.Stdout)
}

// CreateAssessment scores the initial answers for an opportunity and
// persists the resulting assessment at version 1. A second assessment
// for the same opportunity is a conflict — use UpdateAssessment.
func (e *Engine) CreateAssessment(ctx context.Context, opportunityID, createdBy string, answers []Answer) (Assessment, error) {
	a, err := e.svc.Create(ctx, opportunityID, createdBy, toInternalAnswers(answers))
	if err != nil {
		return Assessment{}, err
	}
	return toPublicAssessment(a), nil
}

// UpdateAssessment appends answers to an existing assessment and
// recomputes every derived field. The returned assessment's Version is
// exactly one greater than before the call.
func (e *Engine) UpdateAssessment(ctx context.Context, id uuid.UUID, answers []Answer) (Assessment, error) {
	a, err := e.svc.Update(ctx, id, toInternalAnswers(answers))
	if err != nil {
		return Assessment{}, err
	}
	return toPublicAssessment(a), nil
}

// GetAssessment returns the assessment by id.
func (e *Engine) GetAssessment(ctx context.Context, id uuid.UUID) (Assessment, error) {
	a, err := e.svc.Get(ctx, id)
	if err != nil {
		return Assessment{}, err
	}
	return toPublicAssessment(a), nil
}

// GetAssessmentByOpportunity returns the assessment recorded for an
// opportunity.
func (e *Engine) GetAssessmentByOpportunity(ctx context.Context, opportunityID string) (Assessment, error) {
	a, err := e.svc.GetByOpportunity(ctx, opportunityID)
	if err != nil {
		return Assessment{}, err
	}
	return toPublicAssessment(a), nil
}

// DeleteAssessment removes the assessment by id. It reports whether an
// assessment existed; deleting an absent id is not an error.
func (e *Engine) DeleteAssessment(ctx context.Context, id uuid.UUID) (bool, error) {
	return e.svc.Delete(ctx, id)
}

// GenerateInsights derives prioritized strengths, weaknesses, and risks
// for an assessment from the active configuration's templates.
func (e *Engine) GenerateInsights(ctx context.Context, id uuid.UUID) ([]Insight, error) {
	insights, err := e.svc.Insights(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]Insight, len(insights))
	for i, ins := range insights {
		out[i] = Insight{
			Type:           string(ins.Type),
			Priority:       string(ins.Priority),
			Pillar:         Pillar(ins.PillarID),
			Message:        ins.Message,
			Recommendation: ins.Recommendation,
		}
	}
	return out, nil
}

// CompareToBenchmark reports the assessment's per-pillar variance
// against a benchmark segment, in percent.
func (e *Engine) CompareToBenchmark(ctx context.Context, id uuid.UUID, segment string) (BenchmarkComparison, error) {
	cmp, err := e.svc.CompareBenchmark(ctx, id, segment)
	if err != nil {
		return BenchmarkComparison{}, err
	}
	variance := make(map[Pillar]int, len(cmp.Variance))
	for pid, v := range cmp.Variance {
		variance[Pillar(pid)] = v
	}
	return BenchmarkComparison{
		Segment:         cmp.Segment,
		Variance:        variance,
		Recommendations: cmp.Recommendations,
	}, nil
}

// GetPortfolioAnalytics aggregates every stored assessment into
// distributions and systemic risk signals.
func (e *Engine) GetPortfolioAnalytics(ctx context.Context) (PortfolioAnalytics, error) {
	pa, err := e.svc.Analytics(ctx)
	if err != nil {
		return PortfolioAnalytics{}, err
	}
	return toPublicAnalytics(pa), nil
}

// ExportAssessments returns a complete snapshot of every assessment
// plus portfolio analytics, suitable for serialization.
func (e *Engine) ExportAssessments(ctx context.Context) (Export, error) {
	doc, err := e.svc.Export(ctx)
	if err != nil {
		return Export{}, err
	}
	assessmentsOut := make([]Assessment, len(doc.Assessments))
	for i, a := range doc.Assessments {
		assessmentsOut[i] = toPublicAssessment(a)
	}
	return Export{
		SchemaVersion: doc.SchemaVersion,
		ExportedAt:    doc.ExportedAt,
		Assessments:   assessmentsOut,
		Analytics:     toPublicAnalytics(doc.Analytics),
	}, nil
}

// GetConfiguration returns the active scoring configuration snapshot.
func (e *Engine) GetConfiguration() Configuration {
	return toPublicConfiguration(e.svc.Configuration())
}

// UpdateConfiguration validates, persists, and activates a new scoring
// configuration. Existing assessments are not recomputed; they pick up
// the new configuration on their next update.
func (e *Engine) UpdateConfiguration(ctx context.Context, cfg Configuration) error {
	return e.svc.UpdateConfiguration(ctx, toInternalConfiguration(cfg))
}

// IsNotFound reports whether err means the requested assessment,
// opportunity, or benchmark segment does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

// IsConflict reports whether err means the opportunity already has an
// assessment.
func IsConflict(err error) bool {
	return errors.Is(err, storage.ErrConflict)
}

// IsInvalidConfiguration reports whether err was caused by malformed
// configuration or benchmark data.
func IsInvalidConfiguration(err error) bool {
	return errors.Is(err, model.ErrConfiguration)
}

// IsBatchLimit reports whether err means an answer batch exceeded the
// configured maximum (MEDDPICC_MAX_ANSWER_BATCH).
func IsBatchLimit(err error) bool {
	return errors.Is(err, assessments.ErrBatchLimit)
}

// ── Adapters (defined here because this file imports both sides) ───────────────

// assessmentHookAdapter wraps a meddpicc.AssessmentHook to satisfy
// assessments.Hook. It converts internal model types to public types at
// the boundary.
type assessmentHookAdapter struct {
	hook AssessmentHook
}

func (a *assessmentHookAdapter) AssessmentComputed(ctx context.Context, m model.Assessment) {
	a.hook.OnAssessmentComputed(ctx, toPublicAssessment(m))
}

func (a *assessmentHookAdapter) AssessmentDeleted(ctx context.Context, id uuid.UUID) {
	a.hook.OnAssessmentDeleted(ctx, id)
}

// ── Type converters ────────────────────────────────────────────────────────────

func toInternalAnswers(answers []Answer) []model.Answer {
	out := make([]model.Answer, len(answers))
	for i, a := range answers {
		out[i] = model.Answer{
			PillarID:   model.PillarID(a.Pillar),
			QuestionID: a.QuestionID,
			Value:      a.Value,
			Confidence: model.ConfidenceLevel(a.Confidence),
			Evidence:   a.Evidence,
			AnsweredAt: a.AnsweredAt,
		}
	}
	return out
}

// toPublicAssessment converts an internal model.Assessment to the public
// meddpicc.Assessment. Lives here because this is the only file that
// imports both sides of the boundary.
func toPublicAssessment(a model.Assessment) Assessment {
	scores := make(map[Pillar]int, len(a.PillarScores))
	for pid, s := range a.PillarScores {
		scores[Pillar(pid)] = s
	}
	readiness := make(map[Stage]bool, len(a.StageReadiness))
	for stage, ok := range a.StageReadiness {
		readiness[Stage(stage)] = ok
	}
	answers := make([]Answer, len(a.Answers))
	for i, ans := range a.Answers {
		answers[i] = Answer{
			Pillar:     Pillar(ans.PillarID),
			QuestionID: ans.QuestionID,
			Value:      ans.Value,
			Confidence: Confidence(ans.Confidence),
			Evidence:   ans.Evidence,
			AnsweredAt: ans.AnsweredAt,
		}
	}
	return Assessment{
		ID:                   a.ID,
		OpportunityID:        a.OpportunityID,
		PillarScores:         scores,
		TotalScore:           a.TotalScore,
		ConfidenceScore:      a.ConfidenceScore,
		RiskLevel:            Risk(a.RiskLevel),
		StageReadiness:       readiness,
		CoachingActions:      a.CoachingActions,
		CompetitiveStrengths: a.CompetitiveStrengths,
		AreasOfConcern:       a.AreasOfConcern,
		Answers:              answers,
		CreatedBy:            a.CreatedBy,
		CreatedAt:            a.CreatedAt,
		LastUpdated:          a.LastUpdated,
		Version:              a.Version,
	}
}

func toPublicAnalytics(pa model.PortfolioAnalytics) PortfolioAnalytics {
	riskDist := make(map[Risk]int, len(pa.RiskDist))
	for level, n := range pa.RiskDist {
		riskDist[Risk(level)] = n
	}
	means := make(map[Pillar]float64, len(pa.PillarMeans))
	for pid, m := range pa.PillarMeans {
		means[Pillar(pid)] = m
	}
	return PortfolioAnalytics{
		AssessmentCount: pa.AssessmentCount,
		MeanTotalScore:  pa.MeanTotalScore,
		ScoreDist: ScoreDistribution{
			Strong:   pa.ScoreDist.Strong,
			Moderate: pa.ScoreDist.Moderate,
			Weak:     pa.ScoreDist.Weak,
		},
		RiskDist:                 riskDist,
		PillarMeans:              means,
		TopRisks:                 toPublicMeans(pa.TopRisks),
		ImprovementOpportunities: toPublicMeans(pa.ImprovementOpportunities),
	}
}

func toPublicMeans(means []model.PillarMean) []PillarMean {
	out := make([]PillarMean, len(means))
	for i, m := range means {
		out[i] = PillarMean{Pillar: Pillar(m.PillarID), Mean: m.Mean}
	}
	return out
}

func toPublicConfiguration(cfg model.Configuration) Configuration {
	pillars := make([]PillarConfig, len(cfg.Pillars))
	for i, p := range cfg.Pillars {
		questions := make([]Question, len(p.Questions))
		for j, q := range p.Questions {
			opts := make([]AnswerOption, len(q.Options))
			for k, opt := range q.Options {
				opts[k] = AnswerOption{Label: opt.Label, Value: opt.Value, Score: opt.Score}
			}
			questions[j] = Question{ID: q.ID, Prompt: q.Prompt, Options: opts}
		}
		pillars[i] = PillarConfig{
			ID:                 Pillar(p.ID),
			Title:              p.Title,
			Description:        p.Description,
			Weight:             p.Weight,
			Questions:          questions,
			SuccessCriteria:    p.SuccessCriteria,
			CoachingTips:       p.CoachingTips,
			CriticalActions:    p.CriticalActions,
			ImprovementActions: p.ImprovementActions,
		}
	}
	stages := make([]StageGate, len(cfg.Stages))
	for i, g := range cfg.Stages {
		stages[i] = StageGate{
			Stage:           Stage(g.Stage),
			MinTotalScore:   g.MinTotalScore,
			RequiredPillars: toPublicPillars(g.RequiredPillars),
			MinPillarScore:  g.MinPillarScore,
		}
	}
	benchmarks := make(map[string]Benchmark, len(cfg.Benchmarks))
	for seg, b := range cfg.Benchmarks {
		scores := make(map[Pillar]int, len(b.PillarScores))
		for pid, s := range b.PillarScores {
			scores[Pillar(pid)] = s
		}
		benchmarks[seg] = Benchmark{Segment: b.Segment, Description: b.Description, PillarScores: scores}
	}
	return Configuration{
		Version: cfg.Version,
		Pillars: pillars,
		Stages:  stages,
		Risk: RiskRules{
			CriticalPillars: toPublicPillars(cfg.Risk.CriticalPillars),
			CriticalScore:   cfg.Risk.CriticalScore,
			CriticalRatio:   cfg.Risk.CriticalRatio,
			CriticalConf:    cfg.Risk.CriticalConf,
			HighScore:       cfg.Risk.HighScore,
			HighRatio:       cfg.Risk.HighRatio,
			HighConf:        cfg.Risk.HighConf,
			MediumScore:     cfg.Risk.MediumScore,
			MediumRatio:     cfg.Risk.MediumRatio,
			MediumConf:      cfg.Risk.MediumConf,
		},
		Thresholds: Thresholds(cfg.Thresholds),
		Benchmarks: benchmarks,
		UpdatedAt:  cfg.UpdatedAt,
	}
}

func toInternalConfiguration(cfg Configuration) model.Configuration {
	pillars := make([]model.PillarDefinition, len(cfg.Pillars))
	for i, p := range cfg.Pillars {
		questions := make([]model.QuestionDefinition, len(p.Questions))
		for j, q := range p.Questions {
			opts := make([]model.AnswerOption, len(q.Options))
			for k, opt := range q.Options {
				opts[k] = model.AnswerOption{Label: opt.Label, Value: opt.Value, Score: opt.Score}
			}
			questions[j] = model.QuestionDefinition{
				ID:      q.ID,
				Prompt:  q.Prompt,
				Type:    model.AnswerTypeSingleSelect,
				Options: opts,
			}
		}
		pillars[i] = model.PillarDefinition{
			ID:                 model.PillarID(p.ID),
			Title:              p.Title,
			Description:        p.Description,
			Weight:             p.Weight,
			Questions:          questions,
			SuccessCriteria:    p.SuccessCriteria,
			CoachingTips:       p.CoachingTips,
			CriticalActions:    p.CriticalActions,
			ImprovementActions: p.ImprovementActions,
		}
	}
	stages := make([]model.StageGate, len(cfg.Stages))
	for i, g := range cfg.Stages {
		stages[i] = model.StageGate{
			Stage:           model.Stage(g.Stage),
			MinTotalScore:   g.MinTotalScore,
			RequiredPillars: toInternalPillars(g.RequiredPillars),
			MinPillarScore:  g.MinPillarScore,
		}
	}
	benchmarks := make(map[string]model.Benchmark, len(cfg.Benchmarks))
	for seg, b := range cfg.Benchmarks {
		scores := make(map[model.PillarID]int, len(b.PillarScores))
		for pid, s := range b.PillarScores {
			scores[model.PillarID(pid)] = s
		}
		benchmarks[seg] = model.Benchmark{Segment: b.Segment, Description: b.Description, PillarScores: scores}
	}
	return model.Configuration{
		Version: cfg.Version,
		Pillars: pillars,
		Stages:  stages,
		Risk: model.RiskRules{
			CriticalPillars: toInternalPillars(cfg.Risk.CriticalPillars),
			CriticalScore:   cfg.Risk.CriticalScore,
			CriticalRatio:   cfg.Risk.CriticalRatio,
			CriticalConf:    cfg.Risk.CriticalConf,
			HighScore:       cfg.Risk.HighScore,
			HighRatio:       cfg.Risk.HighRatio,
			HighConf:        cfg.Risk.HighConf,
			MediumScore:     cfg.Risk.MediumScore,
			MediumRatio:     cfg.Risk.MediumRatio,
			MediumConf:      cfg.Risk.MediumConf,
		},
		Thresholds: model.Thresholds(cfg.Thresholds),
		Benchmarks: benchmarks,
		UpdatedAt:  cfg.UpdatedAt,
	}
}

func toPublicPillars(ids []model.PillarID) []Pillar {
	out := make([]Pillar, len(ids))
	for i, id := range ids {
		out[i] = Pillar(id)
	}
	return out
}

func toInternalPillars(ids []Pillar) []model.PillarID {
	out := make([]model.PillarID, len(ids))
	for i, id := range ids {
		out[i] = model.PillarID(id)
	}
	return out
}
