// Package scoring converts recorded answers into weighted pillar scores,
// an aggregate score, a confidence score, and a risk classification.
//
// Scores are computed in full on every call; nothing is patched
// incrementally. Total score is accumulated from unrounded weighted
// pillar values and rounded exactly once at the end. Rounding each
// pillar first and summing the rounded values drifts from that total by
// small, test-visible amounts; the per-pillar rounded values exist for
// display only.
package scoring

import (
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dealgrid/meddpicc/internal/model"
)

// Engine computes assessments under a configuration snapshot passed in
// per call. It holds no mutable state beyond its logger.
type Engine struct {
	logger *slog.Logger
}

// New creates a scoring engine.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Sanitize drops answers that reference an unknown pillar or question
// and resolves each kept answer's score and value from the question's
// option list. Dropping is non-fatal: partial qualification data is
// normal mid-conversation, so offenders are logged and skipped.
// Answers with an unset confidence default to medium.
func (e *Engine) Sanitize(cfg model.Configuration, answers []model.Answer) []model.Answer {
	kept := make([]model.Answer, 0, len(answers))
	for _, a := range answers {
		p, ok := cfg.Pillar(a.PillarID)
		if !ok {
			e.logger.Debug("scoring: dropping answer for unknown pillar", "pillar_id", a.PillarID)
			continue
		}
		q, ok := p.Question(a.QuestionID)
		if !ok {
			e.logger.Debug("scoring: dropping answer for unknown question",
				"pillar_id", a.PillarID, "question_id", a.QuestionID)
			continue
		}
		opt, ok := q.Option(a.Value)
		if !ok {
			e.logger.Debug("scoring: dropping answer with unknown option value",
				"pillar_id", a.PillarID, "question_id", a.QuestionID, "value", a.Value)
			continue
		}
		a.Score = opt.Score
		if a.Confidence == "" {
			a.Confidence = model.ConfidenceMedium
		}
		kept = append(kept, a)
	}
	return kept
}

// Compute derives a full assessment from an existing record (nil for
// creation) and a batch of already-sanitized answers. The new batch is
// appended to the history; the latest answer per (pillar, question)
// wins for scoring. Version is existing.Version+1, or 1 on creation.
func (e *Engine) Compute(cfg model.Configuration, existing *model.Assessment, answers []model.Answer, now time.Time) model.Assessment {
	a := model.Assessment{
		ID:        uuid.New(),
		CreatedAt: now,
		Version:   1,
	}
	if existing != nil {
		a.ID = existing.ID
		a.OpportunityID = existing.OpportunityID
		a.CreatedBy = existing.CreatedBy
		a.CreatedAt = existing.CreatedAt
		a.Version = existing.Version + 1
		a.Answers = append(a.Answers, existing.Answers...)
	}
	a.Answers = append(a.Answers, answers...)
	a.LastUpdated = now

	latest := model.LatestAnswers(a.Answers)

	// Weighted pillar scores. The unrounded values feed the total and
	// the risk ratio; the map holds the display rounding.
	weighted := make(map[model.PillarID]float64, len(cfg.Pillars))
	a.PillarScores = make(map[model.PillarID]int, len(cfg.Pillars))
	var total float64
	for _, p := range cfg.Pillars {
		raw := 0
		for _, q := range p.Questions {
			if ans, ok := latest[model.AnswerKey{Pillar: p.ID, Question: q.ID}]; ok {
				raw += ans.Score
			}
		}
		w := float64(raw) * p.Weight
		weighted[p.ID] = w
		a.PillarScores[p.ID] = int(math.Round(w))
		total += w
	}
	a.TotalScore = int(math.Round(total))
	a.ConfidenceScore = confidenceScore(cfg, latest)
	a.RiskLevel = classifyRisk(cfg, weighted, a.TotalScore, a.ConfidenceScore)

	return a
}

// confidenceScore averages per-pillar confidence weights across all
// configured pillars. A pillar with no answers contributes 0 — it is
// counted, not skipped — so unanswered pillars drag confidence down.
func confidenceScore(cfg model.Configuration, latest map[model.AnswerKey]model.Answer) int {
	if len(cfg.Pillars) == 0 {
		return 0
	}
	var sum float64
	for _, p := range cfg.Pillars {
		var pillarSum float64
		n := 0
		for k, ans := range latest {
			if k.Pillar != p.ID {
				continue
			}
			pillarSum += ans.Confidence.Weight()
			n++
		}
		if n > 0 {
			sum += pillarSum / float64(n)
		}
	}
	return int(math.Round(sum / float64(len(cfg.Pillars)) * 100))
}

// classifyRisk applies the descending rule set; the first matching level
// wins. The critical-pillar ratio compares the weighted scores of the
// configured critical pillars against their combined weighted maximum.
func classifyRisk(cfg model.Configuration, weighted map[model.PillarID]float64, totalScore, confidence int) model.RiskLevel {
	ratio := criticalPillarRatio(cfg, weighted)
	r := cfg.Risk
	switch {
	case totalScore < r.CriticalScore || ratio < r.CriticalRatio || confidence < r.CriticalConf:
		return model.RiskCritical
	case totalScore < r.HighScore || ratio < r.HighRatio || confidence < r.HighConf:
		return model.RiskHigh
	case totalScore < r.MediumScore || ratio < r.MediumRatio || confidence < r.MediumConf:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

func criticalPillarRatio(cfg model.Configuration, weighted map[model.PillarID]float64) float64 {
	var got, max float64
	for _, pid := range cfg.Risk.CriticalPillars {
		p, ok := cfg.Pillar(pid)
		if !ok {
			continue
		}
		got += weighted[pid]
		max += float64(cfg.Thresholds.PillarMax) * p.Weight
	}
	if max == 0 {
		return 1 // no critical pillars configured; the ratio clauses never fire
	}
	return got / max
}
