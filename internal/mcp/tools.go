package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/dealgrid/meddpicc/internal/model"
	"github.com/dealgrid/meddpicc/internal/service/assessments"
)

// answerInput is the wire form of one answer in the record tool.
type answerInput struct {
	PillarID   string `json:"pillar_id"`
	QuestionID string `json:"question_id"`
	Value      string `json:"value"`
	Confidence string `json:"confidence,omitempty"`
	Evidence   string `json:"evidence,omitempty"`
}

func (s *Server) registerTools() {
	// meddpicc_record — record answers for an opportunity.
	s.mcpServer.AddTool(
		mcplib.NewTool("meddpicc_record",
			mcplib.WithDescription(`Record qualification answers for a sales opportunity.

Creates the assessment on first call for an opportunity; subsequent calls
recompute it with the new answers (the latest answer per question wins).
Returns the full scored assessment: pillar scores, total score, confidence,
risk level, stage readiness, and coaching actions.

The answers argument is a JSON array of objects:
  {"pillar_id": "economic_buyer", "question_id": "eb_engaged",
   "value": "met", "confidence": "high", "evidence": "met CFO on 2025-03-02"}

Valid pillar, question, and option values come from the
meddpicc://configuration resource. Answers referencing unknown ids are
ignored, not errors.`),
			mcplib.WithDestructiveHintAnnotation(false),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("opportunity_id",
				mcplib.Description("The opportunity this assessment qualifies"),
				mcplib.Required(),
			),
			mcplib.WithString("answers",
				mcplib.Description("JSON array of answer objects"),
				mcplib.Required(),
			),
			mcplib.WithString("recorded_by",
				mcplib.Description("Identity of the seller recording the answers"),
			),
		),
		s.handleRecord,
	)

	// meddpicc_get — read a scored assessment.
	s.mcpServer.AddTool(
		mcplib.NewTool("meddpicc_get",
			mcplib.WithDescription(`Get the scored assessment for an opportunity or assessment id.

Provide either assessment_id or opportunity_id. Returns the full record
including pillar scores, risk level, stage readiness, and coaching actions.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("assessment_id",
				mcplib.Description("Assessment UUID"),
			),
			mcplib.WithString("opportunity_id",
				mcplib.Description("Opportunity id, when the assessment id is unknown"),
			),
		),
		s.handleGet,
	)

	// meddpicc_coach — prioritized insights for an assessment.
	s.mcpServer.AddTool(
		mcplib.NewTool("meddpicc_coach",
			mcplib.WithDescription(`Get prioritized coaching insights for an assessment.

Returns strength/risk/weakness insights ordered by priority (critical
first), each with a templated recommendation where one applies.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("assessment_id",
				mcplib.Description("Assessment UUID"),
				mcplib.Required(),
			),
		),
		s.handleCoach,
	)

	// meddpicc_benchmark — compare against a segment benchmark.
	s.mcpServer.AddTool(
		mcplib.NewTool("meddpicc_benchmark",
			mcplib.WithDescription(`Compare an assessment's pillar scores against a segment benchmark.

Returns per-pillar variance in percent plus recommendations for pillars
significantly above or below the reference. Available segments are listed
in the meddpicc://configuration resource.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("assessment_id",
				mcplib.Description("Assessment UUID"),
				mcplib.Required(),
			),
			mcplib.WithString("segment",
				mcplib.Description("Benchmark segment, e.g. enterprise or mid_market"),
				mcplib.Required(),
			),
		),
		s.handleBenchmark,
	)

	// meddpicc_portfolio — cross-opportunity analytics.
	s.mcpServer.AddTool(
		mcplib.NewTool("meddpicc_portfolio",
			mcplib.WithDescription(`Summarize every assessment into portfolio analytics.

Returns score and risk distributions, per-pillar means, systemic top
risks, and improvement opportunities across all opportunities.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
		),
		s.handlePortfolio,
	)

	// meddpicc_export — versioned snapshot of assessments + analytics.
	s.mcpServer.AddTool(
		mcplib.NewTool("meddpicc_export",
			mcplib.WithDescription(`Export all assessments and portfolio analytics as one document.

The document carries a schema version and export timestamp. Assessment
records fed back through meddpicc_record reproduce identical scores.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
		),
		s.handleExport,
	)
}

func (s *Server) handleRecord(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	opportunityID := request.GetString("opportunity_id", "")
	rawAnswers := request.GetString("answers", "")
	recordedBy := request.GetString("recorded_by", "")
	if opportunityID == "" || rawAnswers == "" {
		return errorResult("opportunity_id and answers are required"), nil
	}

	var inputs []answerInput
	if err := json.Unmarshal([]byte(rawAnswers), &inputs); err != nil {
		return errorResult(fmt.Sprintf("answers must be a JSON array: %v", err)), nil
	}
	now := time.Now().UTC()
	answers := make([]model.Answer, 0, len(inputs))
	for _, in := range inputs {
		answers = append(answers, model.Answer{
			PillarID:   model.PillarID(in.PillarID),
			QuestionID: in.QuestionID,
			Value:      in.Value,
			Confidence: model.ConfidenceLevel(in.Confidence),
			Evidence:   in.Evidence,
			AnsweredAt: now,
		})
	}

	// Create on first contact with the opportunity, update afterwards.
	existing, err := s.svc.GetByOpportunity(ctx, opportunityID)
	if err != nil && !assessments.IsNotFound(err) {
		return errorResult(fmt.Sprintf("failed to look up assessment: %v", err)), nil
	}

	var a model.Assessment
	if assessments.IsNotFound(err) {
		a, err = s.svc.Create(ctx, opportunityID, recordedBy, answers)
	} else {
		a, err = s.svc.Update(ctx, existing.ID, answers)
	}
	if err != nil {
		return errorResult(fmt.Sprintf("failed to record answers: %v", err)), nil
	}
	return jsonResult(a), nil
}

func (s *Server) handleGet(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	rawID := request.GetString("assessment_id", "")
	opportunityID := request.GetString("opportunity_id", "")

	var a model.Assessment
	switch {
	case rawID != "":
		id, err := parseID(rawID)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		a, err = s.svc.Get(ctx, id)
		if err != nil {
			return notFoundOrError(err, "assessment"), nil
		}
	case opportunityID != "":
		var err error
		a, err = s.svc.GetByOpportunity(ctx, opportunityID)
		if err != nil {
			return notFoundOrError(err, "assessment"), nil
		}
	default:
		return errorResult("assessment_id or opportunity_id is required"), nil
	}
	return jsonResult(a), nil
}

func (s *Server) handleCoach(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id, err := parseID(request.GetString("assessment_id", ""))
	if err != nil {
		return errorResult(err.Error()), nil
	}
	insights, err := s.svc.Insights(ctx, id)
	if err != nil {
		return notFoundOrError(err, "assessment"), nil
	}
	return jsonResult(map[string]any{
		"insights": insights,
		"total":    len(insights),
	}), nil
}

func (s *Server) handleBenchmark(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id, err := parseID(request.GetString("assessment_id", ""))
	if err != nil {
		return errorResult(err.Error()), nil
	}
	segment := request.GetString("segment", "")
	if segment == "" {
		return errorResult("segment is required"), nil
	}
	cmp, err := s.svc.CompareBenchmark(ctx, id, segment)
	if err != nil {
		return notFoundOrError(err, "assessment or segment"), nil
	}
	return jsonResult(cmp), nil
}

func (s *Server) handlePortfolio(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	analytics, err := s.svc.Analytics(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to aggregate portfolio: %v", err)), nil
	}
	return jsonResult(analytics), nil
}

func (s *Server) handleExport(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	doc, err := s.svc.Export(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to export assessments: %v", err)), nil
	}
	return jsonResult(doc), nil
}

func notFoundOrError(err error, what string) *mcplib.CallToolResult {
	if assessments.IsNotFound(err) {
		return errorResult(what + " not found")
	}
	return errorResult(err.Error())
}
